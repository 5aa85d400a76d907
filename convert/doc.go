/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package convert extracts text from PDF documents and renders it into the output formats
// served by pdfgate: page-structured text, plain text, DOCX and XLSX.
package convert
