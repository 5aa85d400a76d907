/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package convert

import (
	"bufio"
	"io"
)

// pageSeparator is written between pages of a plain text output.
const pageSeparator = "\f\n"

// WriteText writes the text of all pages. Pages are separated by a form feed line.
func WriteText(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)
	for i := range doc.Pages {
		if i > 0 {
			if _, err := bw.WriteString(pageSeparator); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(doc.Pages[i].Text); err != nil {
			return err
		}
		if doc.Pages[i].Text != "" {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
