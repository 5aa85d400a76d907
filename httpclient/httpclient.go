/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package httpclient builds the HTTP client used by the pdfgate command-line tools to talk to a running server.
package httpclient

import (
	"net/http"
	"time"

	"github.com/pdffacil/pdfgate/internal/libinfo"
)

// DefaultTimeout is the timeout of a single request.
const DefaultTimeout = 30 * time.Second

// Opts provides options for New.
type Opts struct {
	// UserAgent is set in requests without User-Agent. "pdfgate/<version>" is used if empty.
	UserAgent string

	// Timeout limits the time of a single request. DefaultTimeout is used if zero.
	Timeout time.Duration

	// Delegate is the next RoundTripper in the chain. A clone of http.DefaultTransport is used if nil.
	Delegate http.RoundTripper
}

// DefaultUserAgent returns the User-Agent of the pdfgate tools.
func DefaultUserAgent() string {
	return "pdfgate/" + libinfo.GetVersion()
}

// New returns an HTTP client that sets User-Agent and X-Request-ID headers in all outgoing requests.
func New(opts Opts) *http.Client {
	delegate := opts.Delegate
	if delegate == nil {
		delegate = http.DefaultTransport.(*http.Transport).Clone()
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent()
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	delegate = NewUserAgentRoundTripper(delegate, userAgent)
	delegate = NewRequestIDRoundTripper(delegate)
	return &http.Client{Transport: delegate, Timeout: timeout}
}
