// Package triage derives a priority tier from free-text query content.
package triage

import (
	"strings"

	"github.com/iliyamo/query-system/internal/model"
)

var (
	highKeywords   = []string{"urgent", "critical", "crash", "immediate", "server down", "hacked"}
	mediumKeywords = []string{"bug", "error", "issue", "fail", "wrong", "glitch", "not working"}
)

// Classify maps text to a priority.  HIGH keywords are checked first so a text
// containing both tiers is HIGH.  Empty text is LOW.
func Classify(text string) model.Priority {
	if text == "" {
		return model.PriorityLow
	}
	lower := strings.ToLower(text)
	if containsAny(lower, highKeywords) {
		return model.PriorityHigh
	}
	if containsAny(lower, mediumKeywords) {
		return model.PriorityMedium
	}
	return model.PriorityLow
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
