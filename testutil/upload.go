/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/require"
)

// NewUploadRequest creates a POST request with a multipart/form-data body containing one file.
func NewUploadRequest(t require.TestingT, url, fieldName, filename string, data []byte) *http.Request {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(fieldName, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
