package models

import (
	"time"

	"github.com/google/uuid"
)

// Review status constants
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// AnonymousName is the attribution shown for anonymous reviews.
const AnonymousName = "Anonymous"

// CanTransition reports whether a review may move from one status to another.
// Only pending reviews can change; approved and rejected are terminal.
func CanTransition(from, to string) bool {
	return from == StatusPending && (to == StatusApproved || to == StatusRejected)
}

// Review is a rating and opinion attached to a property.
type Review struct {
	ID            uuid.UUID  `json:"id"`
	PropertyID    uuid.UUID  `json:"property_id"`
	AuthorID      *uuid.UUID `json:"-"`
	SubmitterKey  string     `json:"-"`
	DisplayName   string     `json:"-"`
	Anonymous     bool       `json:"anonymous"`
	Rating        int        `json:"rating"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	ProsCons      string     `json:"pros_cons,omitempty"`
	LivedFrom     *time.Time `json:"lived_from,omitempty"`
	LivedTo       *time.Time `json:"lived_to,omitempty"`
	Status        string     `json:"status"`
	Flagged       bool       `json:"flagged"`
	FlaggedReason string     `json:"flagged_reason,omitempty"`
	ModeratedBy   *uuid.UUID `json:"-"`
	ModeratedAt   *time.Time `json:"moderated_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`

	// AuthorName is joined from users when listing.
	AuthorName string `json:"-"`
}

// Attribution returns the public name for the review. Exactly one source wins:
// the anonymous flag, then the display-name override, then the author's name.
func (r *Review) Attribution() string {
	switch {
	case r.Anonymous:
		return AnonymousName
	case r.DisplayName != "":
		return r.DisplayName
	case r.AuthorName != "":
		return r.AuthorName
	default:
		return AnonymousName
	}
}

// IsPublic reports whether the review is visible in listings and aggregates.
func (r *Review) IsPublic() bool {
	return r.Status == StatusApproved
}

// Submitter identifies who is posting a review. Authenticated users are keyed
// by user id, anonymous visitors by a session fingerprint.
type Submitter struct {
	UserID      *uuid.UUID
	Fingerprint string
}

// Key returns the stable identifier used for duplicate and rate-limit checks.
func (s Submitter) Key() string {
	if s.UserID != nil {
		return "user:" + s.UserID.String()
	}
	if s.Fingerprint != "" {
		return "anon:" + s.Fingerprint
	}
	return ""
}

// Report reason constants
const (
	ReportPersonalAttack   = "personal_attack"
	ReportOffTopic         = "off_topic"
	ReportFalseInformation = "false_information"
	ReportSpam             = "spam"
	ReportHarassment       = "harassment"
	ReportOther            = "other"
)

// ReportReasons lists accepted report reasons.
var ReportReasons = []string{
	ReportPersonalAttack,
	ReportOffTopic,
	ReportFalseInformation,
	ReportSpam,
	ReportHarassment,
	ReportOther,
}

// ReviewReport is a user's complaint about a review.
type ReviewReport struct {
	ID           uuid.UUID  `json:"id"`
	ReviewID     uuid.UUID  `json:"review_id"`
	ReporterID   uuid.UUID  `json:"reporter_id"`
	ReporterName string     `json:"reporter_name,omitempty"`
	Reason       string     `json:"reason"`
	Description  string     `json:"description,omitempty"`
	Resolved     bool       `json:"resolved"`
	ResolvedBy   *uuid.UUID `json:"resolved_by,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
