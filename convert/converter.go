/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package convert

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"
)

// Format is an output format of a conversion.
type Format int

// Output formats.
const (
	// FormatDocument produces only the extracted Document, it's rendered as JSON by the caller.
	FormatDocument Format = iota
	FormatText
	FormatDOCX
	FormatXLSX
)

// Media types of the rendered formats.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type formatInfo struct {
	name        string
	ext         string
	contentType string
	write       func(w io.Writer, doc *Document) error
}

var formats = map[Format]formatInfo{
	FormatDocument: {name: "json"},
	FormatText:     {name: "txt", ext: ".txt", contentType: ContentTypeText, write: WriteText},
	FormatDOCX:     {name: "docx", ext: ".docx", contentType: ContentTypeDOCX, write: WriteDOCX},
	FormatXLSX:     {name: "xlsx", ext: ".xlsx", contentType: ContentTypeXLSX, write: WriteXLSX},
}

// String returns a short name of the format.
func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.name
	}
	return "unknown"
}

// Extension returns the file extension (with the leading dot) of the rendered format.
func (f Format) Extension() string {
	return formats[f].ext
}

// ContentType returns the media type of the rendered format.
func (f Format) ContentType() string {
	return formats[f].contentType
}

// Result is an outcome of a conversion.
type Result struct {
	Document *Document
	// Data is empty for FormatDocument.
	Data []byte
}

// Converter extracts PDF documents and renders them into the requested format.
type Converter struct {
	metrics MetricsCollector
}

// NewConverter creates a new Converter. Metrics are not collected if metricsCollector is nil.
func NewConverter(metricsCollector MetricsCollector) *Converter {
	if metricsCollector == nil {
		metricsCollector = disabledMetrics{}
	}
	return &Converter{metrics: metricsCollector}
}

// Convert extracts the document from data and renders it into the format.
func (c *Converter) Convert(ctx context.Context, data []byte, format Format) (res *Result, err error) {
	info, ok := formats[format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %d", format)
	}

	startTime := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = "error"
		}
		c.metrics.ObserveConversion(format, status, time.Since(startTime))
	}()

	doc, err := Extract(ctx, data)
	if err != nil {
		return nil, err
	}
	if info.write == nil {
		return &Result{Document: doc}, nil
	}

	var buf bytes.Buffer
	if err = info.write(&buf, doc); err != nil {
		return nil, fmt.Errorf("write %s: %w", info.name, err)
	}
	return &Result{Document: doc, Data: buf.Bytes()}, nil
}
