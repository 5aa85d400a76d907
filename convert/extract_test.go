/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package convert

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pdffacil/pdfgate/testutil"
)

func TestExtract(t *testing.T) {
	data := testutil.BuildPDF(testutil.PDFInfo{Title: "Quarterly report", Author: "Finance"},
		"Hello world\nSecond line", "Page two")

	doc, err := Extract(context.Background(), data)
	require.NoError(t, err)

	require.Equal(t, Info{PageCount: 2, IsPDF: true, IsEncrypted: false, PDFVersion: "1.4"}, doc.Info)
	require.Equal(t, map[string]string{
		"Title":    "Quarterly report",
		"Author":   "Finance",
		"Producer": "pdfgate testutil",
	}, doc.Metadata)
	require.Equal(t, []Page{
		{Number: 1, Text: "Hello world\nSecond line"},
		{Number: 2, Text: "Page two"},
	}, doc.Pages)
	require.Equal(t, []string{"Hello world", "Second line", "Page two"}, doc.Lines())
}

func TestExtract_EmptyMetadata(t *testing.T) {
	doc, err := Extract(context.Background(), testutil.BuildPDF(testutil.PDFInfo{}, "text"))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"Producer": "pdfgate testutil"}, doc.Metadata)
}

func TestExtract_Errors(t *testing.T) {
	t.Run("not a PDF", func(t *testing.T) {
		_, err := Extract(context.Background(), []byte("PK\x03\x04 definitely a zip archive"))
		require.ErrorIs(t, err, ErrNotPDF)
	})

	t.Run("empty data", func(t *testing.T) {
		_, err := Extract(context.Background(), nil)
		require.ErrorIs(t, err, ErrNotPDF)
	})

	t.Run("corrupted PDF", func(t *testing.T) {
		_, err := Extract(context.Background(), []byte("%PDF-1.7\nthis is not a valid body\n%%EOF\n"))
		require.Error(t, err)
		require.False(t, errors.Is(err, ErrNotPDF))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Extract(ctx, testutil.BuildPDF(testutil.PDFInfo{}, "one", "two"))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		wantVersion string
		wantOK      bool
	}{
		{name: "regular header", data: "%PDF-1.4\n%\xe2\xe3\xcf\xd3\n", wantVersion: "1.4", wantOK: true},
		{name: "CRLF", data: "%PDF-2.0\r\n", wantVersion: "2.0", wantOK: true},
		{name: "leading junk", data: "\x00\x00junk%PDF-1.7 \n", wantVersion: "1.7", wantOK: true},
		{name: "header without line end", data: "%PDF-1.3", wantVersion: "1.3", wantOK: true},
		{name: "no header", data: "hello", wantOK: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version, ok := parseVersion([]byte(tt.data))
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantVersion, version)
		})
	}
}
