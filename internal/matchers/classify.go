package matchers

import (
	"strings"
	"time"
)

// Classify reports whether the summary matches the rule. The clauses are a
// short-circuit union: sender domain, then subject keyword, then age.
func Classify(summary MessageSummary, rule Rule, now time.Time) bool {
	if containsAny(summary.From, rule.Domains) {
		return true
	}
	if containsAny(summary.Subject, rule.Keywords) {
		return true
	}
	return rule.Age && IsOlderThan(summary.Date, rule.OlderThan, now)
}

// IsOlderThan reports whether date is strictly before now minus age.
// A nil date never counts as old.
func IsOlderThan(date *time.Time, age time.Duration, now time.Time) bool {
	if date == nil {
		return false
	}
	cutoff := now.UTC().Add(-age)
	return date.UTC().Before(cutoff)
}

func containsAny(value string, substrings []string) bool {
	if value == "" {
		return false
	}
	for _, substring := range substrings {
		if substring == "" {
			continue
		}
		if strings.Contains(value, substring) {
			return true
		}
	}
	return false
}
