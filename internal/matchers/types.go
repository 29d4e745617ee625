package matchers

import (
	"strings"
	"time"
)

// Header holds the raw header values fetched for a message.
type Header struct {
	From    string
	Subject string
	Date    string
}

// MessageSummary is the read-only projection of a message used for classification.
// From and Subject are lowercased; Date is nil when the Date header could not be parsed.
type MessageSummary struct {
	UID     uint32
	From    string
	Subject string
	Date    *time.Time
}

// Rule describes what makes a message a match. The age clause only applies
// when Age is set; a zero OlderThan then puts the cutoff at now.
type Rule struct {
	Domains   []string
	Keywords  []string
	OlderThan time.Duration
	Age       bool
}

// MatchResult is reported for every matched message, in scan order.
type MatchResult struct {
	UID     uint32 `json:"uid"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
}

// NewRule trims and lowercases the substrings, dropping empty entries. The
// returned rule has no age clause.
func NewRule(domains, keywords []string) Rule {
	return Rule{
		Domains:  normalize(domains),
		Keywords: normalize(keywords),
	}
}

// WithAge returns a copy of the rule that also matches messages dated before
// now minus age.
func (r Rule) WithAge(age time.Duration) Rule {
	r.OlderThan = age
	r.Age = true
	return r
}

// SplitList splits a comma-joined list, as sent by the web form.
func SplitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return normalize(strings.Split(raw, ","))
}

// IsEmpty reports whether the rule can never match.
func (r Rule) IsEmpty() bool {
	return len(r.Domains) == 0 && len(r.Keywords) == 0 && !r.Age
}

// Result builds the reported form of a matched summary.
func (s MessageSummary) Result() MatchResult {
	date := ""
	if s.Date != nil {
		date = s.Date.Format(time.RFC3339)
	}
	return MatchResult{
		UID:     s.UID,
		From:    s.From,
		Subject: s.Subject,
		Date:    date,
	}
}

func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Days converts a day count into a rule age.
func Days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}
