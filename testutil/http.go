/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"

	"github.com/stretchr/testify/require"
)

const contentTypeAppJSON = "application/json"

// RequireErrorInRecorder requires the recorded response to be a JSON error with the given status, domain and code.
func RequireErrorInRecorder(t require.TestingT, resp *httptest.ResponseRecorder, wantHTTPCode int, wantErrDomain, wantErrCode string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, wantHTTPCode, resp.Code)
	requireJSONContentType(t, resp.Header())
	var errResp struct {
		Error struct {
			Domain string `json:"domain"`
			Code   string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	require.Equal(t, wantErrDomain, errResp.Error.Domain)
	require.Equal(t, wantErrCode, errResp.Error.Code)
}

// RequireAttachmentInRecorder requires the recorded response to be a successful file download
// and returns the file content.
func RequireAttachmentInRecorder(
	t require.TestingT, resp *httptest.ResponseRecorder, wantFilename, wantContentType string,
) []byte {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, wantContentType, resp.Header().Get("Content-Type"))
	disposition, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	require.Equal(t, "attachment", disposition)
	require.Equal(t, wantFilename, params["filename"])
	return resp.Body.Bytes()
}

// RequireEmptyBodyInRecorder requires the recorded response to have no body.
func RequireEmptyBodyInRecorder(t require.TestingT, resp *httptest.ResponseRecorder) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Zero(t, resp.Body.Len())
}

// RequireJSONInRecorder decodes the recorded JSON body into dest and requires it to be equal to want.
func RequireJSONInRecorder(t require.TestingT, resp *httptest.ResponseRecorder, want, dest interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	requireJSONContentType(t, resp.Header())
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), dest))
	require.Equal(t, want, dest)
}

// RequireStringJSONInRecorder requires the recorded body to be exactly the given JSON text.
func RequireStringJSONInRecorder(t require.TestingT, resp *httptest.ResponseRecorder, want string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	requireJSONContentType(t, resp.Header())
	require.Equal(t, want, resp.Body.String())
}

// RequireStringJSONInResponse is RequireStringJSONInRecorder for a response of a real server.
func RequireStringJSONInResponse(t require.TestingT, resp *http.Response, want string) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	requireJSONContentType(t, resp.Header)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, want, string(body))
}

func requireJSONContentType(t require.TestingT, header http.Header) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	require.Equal(t, contentTypeAppJSON, header.Get("Content-Type"))
}
