package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// secondPersonWords are the tokens counted by the direct-address heuristic.
var secondPersonWords = map[string]bool{
	"you":      true,
	"your":     true,
	"yours":    true,
	"yourself": true,
	"you're":   true,
	"you've":   true,
	"you'll":   true,
	"you'd":    true,
}

// ContentFilter rejects reviews that attack people instead of describing the property.
type ContentFilter struct {
	phrases          []string
	patterns         []*regexp.Regexp
	pronounThreshold int
	pronounMaxLength int
}

// NewContentFilter compiles a filter. Phrases are matched as case-insensitive
// substrings, patterns as case-insensitive regular expressions. A body
// shorter than pronounMaxLength with more than pronounThreshold second-person
// words is also rejected; a zero threshold disables that check.
func NewContentFilter(phrases, patterns []string, pronounThreshold, pronounMaxLength int) (*ContentFilter, error) {
	f := &ContentFilter{
		pronounThreshold: pronounThreshold,
		pronounMaxLength: pronounMaxLength,
	}
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			f.phrases = append(f.phrases, p)
		}
	}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid content pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Check returns a ContentViolation rejection if body trips the filter.
func (f *ContentFilter) Check(body string) error {
	lower := strings.ToLower(normalizeApostrophes(body))

	for _, p := range f.phrases {
		if strings.Contains(lower, p) {
			return attackRejection()
		}
	}
	for _, re := range f.patterns {
		if re.MatchString(body) {
			return attackRejection()
		}
	}

	if f.pronounThreshold > 0 && utf8.RuneCountInString(strings.TrimSpace(body)) < f.pronounMaxLength {
		if countSecondPerson(lower) > f.pronounThreshold {
			return Reject(ReasonContentViolation,
				"please focus your review on the property and your experience, not on addressing individuals")
		}
	}
	return nil
}

func attackRejection() error {
	return Reject(ReasonContentViolation,
		"reviews must focus on the property, not personal attacks")
}

func countSecondPerson(lower string) int {
	words := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	n := 0
	for _, w := range words {
		if secondPersonWords[strings.Trim(w, "'")] || secondPersonWords[w] {
			n++
		}
	}
	return n
}

func normalizeApostrophes(s string) string {
	return strings.NewReplacer("’", "'", "‘", "'").Replace(s)
}
