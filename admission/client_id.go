/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

import (
	"net"
	"net/http"
	"strings"
)

// Log field keys used by the package.
const (
	LogFieldKeyClientID  = "client_id"
	LogFieldKeyOperation = "operation"
)

// Headers that carry the original client address when the service runs behind a reverse proxy.
const (
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"
)

// RequestMetadata contains the request attributes used for identifying the client.
type RequestMetadata struct {
	ForwardedFor string
	RealIP       string
	PeerAddr     string
}

// IdentifyClient derives the client identity from the HTTP request.
// See ClientIDFromMetadata for the resolution order.
func IdentifyClient(r *http.Request) string {
	return ClientIDFromMetadata(RequestMetadata{
		ForwardedFor: r.Header.Get(HeaderForwardedFor),
		RealIP:       r.Header.Get(HeaderRealIP),
		PeerAddr:     r.RemoteAddr,
	})
}

// ClientIDFromMetadata derives the client identity in the following order:
// the first entry of X-Forwarded-For, X-Real-IP, the host part of the peer address, "unknown".
// Values are not validated as IP addresses.
//
// The forwarding headers are trusted as is, so the service must be deployed behind a proxy
// that overwrites them. Otherwise, any client can choose its own identity.
func ClientIDFromMetadata(md RequestMetadata) string {
	if md.ForwardedFor != "" {
		first := md.ForwardedFor
		if idx := strings.IndexByte(first, ','); idx != -1 {
			first = first[:idx]
		}
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if realIP := strings.TrimSpace(md.RealIP); realIP != "" {
		return realIP
	}
	if md.PeerAddr != "" {
		if host, _, err := net.SplitHostPort(md.PeerAddr); err == nil && host != "" {
			return host
		}
		return md.PeerAddr
	}
	return UnknownClientID
}
