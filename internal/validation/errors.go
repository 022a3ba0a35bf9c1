package validation

import (
	"errors"
	"fmt"
)

// Reason is a machine-readable rejection code returned to callers.
type Reason string

// Rejection reasons.
const (
	ReasonInvalidRating       Reason = "invalid_rating"
	ReasonTooShort            Reason = "too_short"
	ReasonContentViolation    Reason = "content_violation"
	ReasonInvalidField        Reason = "invalid_field"
	ReasonDuplicateReview     Reason = "duplicate_review"
	ReasonDuplicateReport     Reason = "duplicate_report"
	ReasonRateLimited         Reason = "rate_limited"
	ReasonDisallowedExtension Reason = "disallowed_extension"
	ReasonFileTooLarge        Reason = "file_too_large"
	ReasonContentMismatch     Reason = "content_mismatch"
	ReasonCorruptImage        Reason = "corrupt_image"
	ReasonTooManyImages       Reason = "too_many_images"
	ReasonInvalidTransition   Reason = "invalid_transition"
	ReasonUnauthorized        Reason = "unauthorized"
	ReasonNotFound            Reason = "not_found"
)

// Rejection is a recoverable refusal of a caller's request. Nothing has been
// written when a Rejection is returned.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("%s: %s", r.Reason, r.Message)
}

// Reject builds a Rejection.
func Reject(reason Reason, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason from err, or "" if err is not a Rejection.
func ReasonOf(err error) Reason {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Reason
	}
	return ""
}

// IsReason reports whether err is a Rejection with the given reason.
func IsReason(err error, reason Reason) bool {
	return ReasonOf(err) == reason
}

// Generic denials. These never reveal whether a hidden record exists.
var (
	ErrUnauthorized = &Rejection{Reason: ReasonUnauthorized, Message: "you are not allowed to do that"}
	ErrNotFound     = &Rejection{Reason: ReasonNotFound, Message: "not found"}
)
