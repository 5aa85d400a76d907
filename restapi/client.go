/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package restapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdffacil/pdfgate/log"
)

const (
	logKeyMethod = "method"
	logKeyURI    = "uri"
	logKeyStatus = "status"
)

const maxUnexpectedBodyInError = 255

// DoRequest does the HTTP request and logs its details.
func DoRequest(client *http.Client, req *http.Request, logger log.FieldLogger) (*http.Response, error) {
	logger.AtLevel(log.LevelDebug, func(logFn log.LogFunc) {
		logFn("sent request", log.String(logKeyMethod, req.Method), log.String(logKeyURI, req.URL.String()))
	})

	resp, err := client.Do(req)
	if err != nil {
		logger.Error(fmt.Sprintf("failed to do http request %s %s", req.Method, req.URL.String()),
			log.String(logKeyMethod, req.Method),
			log.String(logKeyURI, req.URL.String()),
			log.Error(err),
		)
		return nil, fmt.Errorf("do request: %w", err)
	}

	logger.AtLevel(log.LevelDebug, func(logFn log.LogFunc) {
		logFn("got response",
			log.String(logKeyMethod, req.Method),
			log.String(logKeyURI, req.URL.String()),
			log.Int(logKeyStatus, resp.StatusCode),
		)
	})
	return resp, nil
}

// DoRequestAndUnmarshalJSON does the HTTP request and unmarshals the JSON response into result.
// Error responses are returned as *ClientError wrapping *ErrorResponseData.
func DoRequestAndUnmarshalJSON(client *http.Client, req *http.Request, result interface{}, logger log.FieldLogger) error {
	resp, err := DoRequest(client, req, logger)
	if err != nil {
		return err // already logged
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			logger.Error("failed to close response body", log.Error(closeErr))
		}
	}()

	logger = logger.With(
		log.String(logKeyMethod, req.Method),
		log.String(logKeyURI, req.URL.String()),
		log.Int(logKeyStatus, resp.StatusCode),
	)
	e := &ClientError{Method: req.Method, URL: req.URL, StatusCode: resp.StatusCode}

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 600:
		buf, err := readResponseBody(resp, logger, e)
		if err != nil {
			return err
		}
		var apiErr ErrorResponseData
		contentType := resp.Header.Get("Content-Type")
		if !strings.Contains(contentType, ContentTypeAppJSON) {
			body := string(buf)
			if len(body) > maxUnexpectedBodyInError {
				body = body[:maxUnexpectedBodyInError]
			}
			apiErr.Err = &Error{
				Code:    resp.Status,
				Message: fmt.Sprintf("%s received with unexpected Content-Type", http.StatusText(resp.StatusCode)),
				Debug:   map[string]interface{}{"content-type": contentType, "body": body},
			}
		} else if err = json.Unmarshal(buf, &apiErr); err != nil || apiErr.Err == nil {
			if err == nil {
				err = fmt.Errorf("no error object in response")
			}
			logger.Error("error unmarshaling error response", log.Error(err))
			return e.wrap("unmarshaling error response", err)
		}
		return e.wrap("error response", &apiErr)

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if result == nil {
			return nil
		}
		buf, err := readResponseBody(resp, logger, e)
		if err != nil {
			return err
		}
		if err = json.Unmarshal(buf, result); err != nil {
			logger.Error("error unmarshaling response", log.Error(err))
			return e.wrap("unmarshaling response", err)
		}
		return nil
	}

	e.Message = "unexpected status code"
	return e
}

func readResponseBody(resp *http.Response, logger log.FieldLogger, e *ClientError) ([]byte, error) {
	buf, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Error("error reading response body", log.Error(err))
		return nil, e.wrap("reading response body", err)
	}
	if len(buf) == 0 {
		logger.Error("empty response body")
		e.Message = "empty response"
		return nil, e
	}
	return buf, nil
}
