/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"bytes"
	"fmt"
	"strings"
)

// PDFInfo is the document information dictionary written by BuildPDF.
type PDFInfo struct {
	Title  string
	Author string
}

// BuildPDF returns a minimal valid PDF 1.4 document with one page per element of pages.
// Lines of a page are separated by "\n" and rendered with the Helvetica font.
func BuildPDF(info PDFInfo, pages ...string) []byte {
	var objs []string
	add := func(obj string) int {
		objs = append(objs, obj)
		return len(objs)
	}

	catalogID := add("") // placeholder
	pagesID := add("")   // placeholder
	fontID := add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")
	infoID := add(fmt.Sprintf("<< /Title (%s) /Author (%s) /Producer (pdfgate testutil) >>",
		escapePDFString(info.Title), escapePDFString(info.Author)))

	kids := make([]string, 0, len(pages))
	for _, page := range pages {
		var content strings.Builder
		content.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
		for i, line := range strings.Split(page, "\n") {
			if i > 0 {
				content.WriteString("T*\n")
			}
			fmt.Fprintf(&content, "(%s) Tj\n", escapePDFString(line))
		}
		content.WriteString("ET")
		streamID := add(fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", content.Len(), content.String()))
		pageID := add(fmt.Sprintf("<< /Type /Page /Parent %d 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>", pagesID, fontID, streamID))
		kids = append(kids, fmt.Sprintf("%d 0 R", pageID))
	}
	objs[catalogID-1] = fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R >>", pagesID)
	objs[pagesID-1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(kids))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objs)+1, catalogID, infoID, xrefOffset)
	return buf.Bytes()
}

func escapePDFString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`).Replace(s)
}
