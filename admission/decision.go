/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package admission

// RejectReason describes why a request was not admitted.
type RejectReason int

// Reject reasons. RejectReasonNone is used for admitted requests.
const (
	RejectReasonNone RejectReason = iota
	RejectReasonPayloadTooLarge
	RejectReasonUnknownOperation
	RejectReasonQuotaExceeded
)

// String returns a snake_case name of the reason. It's used as a metric label value.
func (r RejectReason) String() string {
	switch r {
	case RejectReasonNone:
		return "none"
	case RejectReasonPayloadTooLarge:
		return "payload_too_large"
	case RejectReasonUnknownOperation:
		return "unknown_operation"
	case RejectReasonQuotaExceeded:
		return "quota_exceeded"
	}
	return "unknown"
}

// Decision is the result of Controller.CheckAndAdmit.
type Decision struct {
	Admitted bool
	Reason   RejectReason

	// Message is a human-readable explanation that may be shown to the end user.
	Message string

	Operation Operation

	// Limit is the limit that was applied: bytes for RejectReasonPayloadTooLarge,
	// requests per window in all other cases.
	Limit int64

	// Used is the number of requests counted inside the window for the operation,
	// including the current one when it was admitted.
	Used int
}

// Remaining returns how many more requests the client may make for the operation.
func (d Decision) Remaining() int {
	if d.Reason == RejectReasonPayloadTooLarge || d.Reason == RejectReasonUnknownOperation {
		return 0
	}
	if rem := int(d.Limit) - d.Used; rem > 0 {
		return rem
	}
	return 0
}

// Usage describes how much of the quota for one operation is consumed.
type Usage struct {
	Used      int `json:"used_today"`
	Limit     int `json:"limit_daily"`
	Remaining int `json:"remaining"`
}

// Snapshot is a read-only view of a client's quota usage for every configured operation.
type Snapshot struct {
	ClientID   string              `json:"client_id"`
	Operations map[Operation]Usage `json:"operations"`
}
