/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfHeaderSearchLimit is how far from the beginning of the file the "%PDF-" marker is searched.
const pdfHeaderSearchLimit = 1024

var pdfHeader = []byte("%PDF-")

// Extract reads the text, the metadata and the basic properties of the PDF document.
// Pages that cannot be decoded are returned with an empty text.
// ctx is checked between pages, so a long document stops being processed after cancellation.
func Extract(ctx context.Context, data []byte) (doc *Document, err error) {
	version, ok := parseVersion(data)
	if !ok {
		return nil, ErrNotPDF
	}

	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, fmt.Errorf("parse PDF document: %v", p)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			return nil, ErrEncrypted
		}
		return nil, fmt.Errorf("open PDF document: %w", err)
	}

	numPages := reader.NumPage()
	doc = &Document{
		Metadata: readMetadata(reader.Trailer().Key("Info")),
		Info: Info{
			PageCount:   numPages,
			IsPDF:       true,
			IsEncrypted: !reader.Trailer().Key("Encrypt").IsNull(),
			PDFVersion:  version,
		},
		Pages: make([]Page, 0, numPages),
	}
	for i := 1; i <= numPages; i++ {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, Page{Number: i, Text: pageText(reader.Page(i))})
	}
	return doc, nil
}

func parseVersion(data []byte) (string, bool) {
	head := data
	if len(head) > pdfHeaderSearchLimit {
		head = head[:pdfHeaderSearchLimit]
	}
	idx := bytes.Index(head, pdfHeader)
	if idx < 0 {
		return "", false
	}
	rest := data[idx+len(pdfHeader):]
	end := bytes.IndexAny(rest, " \t\r\n%")
	if end < 0 || end > 8 {
		end = min(len(rest), 8)
	}
	return string(rest[:end]), true
}

func readMetadata(info pdf.Value) map[string]string {
	metadata := make(map[string]string)
	if info.IsNull() {
		return metadata
	}
	for _, key := range MetadataKeys {
		if val := strings.TrimSpace(info.Key(key).Text()); val != "" {
			metadata[key] = val
		}
	}
	return metadata
}

func pageText(page pdf.Page) string {
	if page.V.IsNull() {
		return ""
	}
	if text, ok := textFromContent(page); ok {
		return text
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// textFromContent assembles positioned glyphs into lines. Glyphs whose baselines are closer
// than half of the average font size belong to the same line.
func textFromContent(page pdf.Page) (text string, ok bool) {
	defer func() {
		if p := recover(); p != nil {
			text, ok = "", false
		}
	}()

	glyphs := page.Content().Text
	if len(glyphs) == 0 {
		return "", true
	}

	var fontSizeSum float64
	for i := range glyphs {
		fontSizeSum += glyphs[i].FontSize
	}
	lineTol := fontSizeSum / float64(len(glyphs)) * 0.5
	if lineTol < 2 {
		lineTol = 2
	}

	type textLine struct {
		y    float64
		text strings.Builder
	}
	var lines []*textLine
	for i := range glyphs {
		var cur *textLine
		for _, l := range lines {
			if math.Abs(l.y-glyphs[i].Y) < lineTol {
				cur = l
				break
			}
		}
		if cur == nil {
			cur = &textLine{y: glyphs[i].Y}
			lines = append(lines, cur)
		}
		cur.text.WriteString(glyphs[i].S)
	}
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y > lines[j].y })

	res := make([]string, 0, len(lines))
	for _, l := range lines {
		res = append(res, strings.TrimRight(l.text.String(), " \t"))
	}
	return strings.TrimSpace(strings.Join(res, "\n")), true
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
