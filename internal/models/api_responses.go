package models

import (
	"time"

	"github.com/google/uuid"
)

// PublicReview is the projection of a review shown to visitors. It never
// carries author ids or submitter fingerprints.
type PublicReview struct {
	ID        uuid.UUID  `json:"id"`
	Author    string     `json:"author"`
	Rating    int        `json:"rating"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	ProsCons  string     `json:"pros_cons,omitempty"`
	LivedFrom *time.Time `json:"lived_from,omitempty"`
	LivedTo   *time.Time `json:"lived_to,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToPublic builds the visitor-facing projection of r.
func (r *Review) ToPublic() PublicReview {
	return PublicReview{
		ID:        r.ID,
		Author:    r.Attribution(),
		Rating:    r.Rating,
		Title:     r.Title,
		Body:      r.Body,
		ProsCons:  r.ProsCons,
		LivedFrom: r.LivedFrom,
		LivedTo:   r.LivedTo,
		CreatedAt: r.CreatedAt,
	}
}

// SubmittedReview is returned to the submitter after a review is accepted.
type SubmittedReview struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
	Title  string    `json:"title"`
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
