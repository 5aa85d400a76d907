/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"code.cloudfoundry.org/bytefmt"
)

// DefaultMultipartMemory is the amount of the multipart form kept in memory, the rest is stored in temporary files.
const DefaultMultipartMemory = 32 << 20

// RequestBodyTooLargeError represents an error that occurs
// when read number of bytes (HTTP request body) exceeds the specified limit.
type RequestBodyTooLargeError struct {
	MaxSizeBytes uint64
	Err          error
}

// Error returns a string representation of RequestBodyTooLargeError.
func (e *RequestBodyTooLargeError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *RequestBodyTooLargeError) Unwrap() error {
	return e.Err
}

type maxBytesReader struct {
	io.ReadCloser
	n uint64
}

func (r *maxBytesReader) Read(p []byte) (n int, err error) {
	n, err = r.ReadCloser.Read(p)
	var maxBytesErr *http.MaxBytesError
	if err != nil && errors.As(err, &maxBytesErr) {
		err = &RequestBodyTooLargeError{r.n, err}
	}
	return
}

// SetRequestMaxBodySize wraps request body with a reader which limit the number of bytes to read.
// RequestBodyTooLargeError will be returned when maxSizeBytes is exceeded.
func SetRequestMaxBodySize(w http.ResponseWriter, r *http.Request, maxSizeBytes uint64) {
	r.Body = &maxBytesReader{ReadCloser: http.MaxBytesReader(w, r.Body, int64(maxSizeBytes)), n: maxSizeBytes}
}

// MalformedRequestError is an error that occurs in case of incorrect request.
type MalformedRequestError struct {
	HTTPStatusCode int
	// Code is the error code for the response. It's derived from HTTPStatusCode if empty.
	Code    string
	Message string
}

// Error returns a string representation of MalformedRequestError.
func (e *MalformedRequestError) Error() string {
	return e.Message
}

// NewTooLargeMalformedRequestError creates a new MalformedRequestError for case when request body is too large.
func NewTooLargeMalformedRequestError(maxSizeBytes uint64) *MalformedRequestError {
	return &MalformedRequestError{
		HTTPStatusCode: http.StatusRequestEntityTooLarge,
		Message:        fmt.Sprintf("Request body must not be larger than %s.", bytefmt.ByteSize(maxSizeBytes)),
	}
}

// UploadedFile is a file received in a multipart/form-data request.
type UploadedFile struct {
	Filename string
	Data     []byte
}

// Size returns the number of bytes of the file content.
func (f *UploadedFile) Size() int64 {
	return int64(len(f.Data))
}

// Error codes for upload errors.
const (
	ErrCodeNotMultipart = "notMultipart"
	ErrCodeMissingFile  = "missingFile"
)

// ReadUploadedFile reads the whole file from the multipart form field.
// Client-side problems are reported as *MalformedRequestError.
func ReadUploadedFile(r *http.Request, fieldName string) (*UploadedFile, error) {
	if err := r.ParseMultipartForm(DefaultMultipartMemory); err != nil {
		var tooLargeErr *RequestBodyTooLargeError
		switch {
		case errors.As(err, &tooLargeErr):
			return nil, NewTooLargeMalformedRequestError(tooLargeErr.MaxSizeBytes)
		case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
			return nil, &MalformedRequestError{
				HTTPStatusCode: http.StatusBadRequest,
				Code:           ErrCodeNotMultipart,
				Message:        "Request body must be multipart/form-data.",
			}
		default:
			return nil, &MalformedRequestError{
				HTTPStatusCode: http.StatusBadRequest,
				Message:        fmt.Sprintf("Request body contains badly-formed multipart form: %v.", err),
			}
		}
	}

	file, header, err := r.FormFile(fieldName)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, &MalformedRequestError{
				HTTPStatusCode: http.StatusBadRequest,
				Code:           ErrCodeMissingFile,
				Message:        fmt.Sprintf("Form field %q with a file is required.", fieldName),
			}
		}
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}
	return &UploadedFile{Filename: header.Filename, Data: data}, nil
}
