/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package convert

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"time"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/docProps/core.xml" ContentType="application/vnd.openxmlformats-package.core-properties+xml"/>
</Types>`

const docxRootRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties" Target="docProps/core.xml"/>
</Relationships>`

const docxCorePropsFormat = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" ` +
	`xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:dcterms="http://purl.org/dc/terms/" ` +
	`xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
<dc:title>%s</dc:title>
<dc:creator>%s</dc:creator>
<dcterms:created xsi:type="dcterms:W3CDTF">%s</dcterms:created>
</cp:coreProperties>`

const (
	docxDocumentStart = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	docxDocumentEnd = `<w:sectPr><w:pgSz w:w="11906" w:h="16838"/>` +
		`<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/></w:sectPr></w:body></w:document>`
	docxPageBreak = `<w:p><w:r><w:br w:type="page"/></w:r></w:p>`
)

// WriteDOCX writes a WordprocessingML document with one paragraph per text line.
// Pages of the source document are separated by page breaks.
func WriteDOCX(w io.Writer, doc *Document) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name string
		data []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRootRels)},
		{"docProps/core.xml", []byte(fmt.Sprintf(docxCorePropsFormat,
			escapeXML(doc.Metadata["Title"]), escapeXML(doc.Metadata["Author"]),
			time.Now().UTC().Format(time.RFC3339)))},
		{"word/document.xml", docxBody(doc)},
	}
	for _, part := range parts {
		fw, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err = fw.Write(part.data); err != nil {
			return fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

func docxBody(doc *Document) []byte {
	var buf bytes.Buffer
	buf.WriteString(docxDocumentStart)
	for i := range doc.Pages {
		if i > 0 {
			buf.WriteString(docxPageBreak)
		}
		for _, line := range splitLines(doc.Pages[i].Text) {
			if line == "" {
				buf.WriteString(`<w:p/>`)
				continue
			}
			buf.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
			_ = xml.EscapeText(&buf, []byte(line))
			buf.WriteString(`</w:t></w:r></w:p>`)
		}
	}
	buf.WriteString(docxDocumentEnd)
	return buf.Bytes()
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
