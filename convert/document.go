/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package convert

import "errors"

// Errors returned by Extract.
var (
	ErrNotPDF    = errors.New("data is not a PDF document")
	ErrEncrypted = errors.New("PDF document is protected by a password")
)

// Metadata keys read from the document information dictionary, in output order.
var MetadataKeys = []string{"Title", "Author", "Subject", "Creator", "Producer", "CreationDate", "ModDate", "Keywords"}

// Document is the text content of a PDF document.
type Document struct {
	// Metadata contains only non-empty entries of the document information dictionary.
	Metadata map[string]string `json:"metadata"`
	Info     Info              `json:"document_info"`
	Pages    []Page            `json:"text"`
}

// Info describes the PDF file itself.
type Info struct {
	PageCount   int    `json:"page_count"`
	IsPDF       bool   `json:"is_pdf"`
	IsEncrypted bool   `json:"is_encrypted"`
	PDFVersion  string `json:"pdf_version,omitempty"`
}

// Page is the text of one page. Number starts from 1.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"content"`
}

// Lines returns all text lines of the document in page order.
func (d *Document) Lines() []string {
	var lines []string
	for i := range d.Pages {
		lines = append(lines, splitLines(d.Pages[i].Text)...)
	}
	return lines
}
