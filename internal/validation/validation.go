package validation

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MinRating = 1
	MaxRating = 5

	// MaxProsConsLength caps the optional pros/cons text.
	MaxProsConsLength = 500
	// MaxTitleLength caps review titles.
	MaxTitleLength = 200
	// titlePrefixLength is how much of the body becomes a generated title.
	titlePrefixLength = 50
)

// ValidateRating checks that rating is in [MinRating, MaxRating].
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return Reject(ReasonInvalidRating, "rating must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateBody checks the trimmed body has at least minLength characters.
// Characters are counted as Unicode code points.
func ValidateBody(body string, minLength int) error {
	if utf8.RuneCountInString(strings.TrimSpace(body)) < minLength {
		return Reject(ReasonTooShort, "review must be at least %d characters", minLength)
	}
	return nil
}

// ValidateTitle checks an optional title is not too long.
func ValidateTitle(title string) error {
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return Reject(ReasonInvalidField, "title must be at most %d characters", MaxTitleLength)
	}
	return nil
}

// ValidateProsCons checks the optional pros/cons text length.
func ValidateProsCons(text string) error {
	if utf8.RuneCountInString(text) > MaxProsConsLength {
		return Reject(ReasonInvalidField, "pros and cons must be at most %d characters", MaxProsConsLength)
	}
	return nil
}

// ValidateLivedDates checks that an optional tenancy period is ordered and
// not in the future.
func ValidateLivedDates(from, to *time.Time, now time.Time) error {
	if from != nil && from.After(now) {
		return Reject(ReasonInvalidField, "move-in date cannot be in the future")
	}
	if from != nil && to != nil && to.Before(*from) {
		return Reject(ReasonInvalidField, "move-out date must be after move-in date")
	}
	return nil
}

// AutoTitle returns title when set, otherwise the first 50 characters of the
// body followed by "..." when the body is longer.
func AutoTitle(title, body string) string {
	if t := strings.TrimSpace(title); t != "" {
		return t
	}
	body = strings.Join(strings.Fields(body), " ")
	if utf8.RuneCountInString(body) <= titlePrefixLength {
		return body
	}
	runes := []rune(body)
	return strings.TrimSpace(string(runes[:titlePrefixLength])) + "..."
}

// NormalizeContent lowercases body and collapses runs of whitespace to one
// space.
func NormalizeContent(body string) string {
	return strings.ToLower(strings.Join(strings.Fields(body), " "))
}

// ContentPrefix returns the normalized leading text used to spot the same
// review pasted onto several properties.
func ContentPrefix(body string, n int) string {
	runes := []rune(NormalizeContent(body))
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
