package policy

import "strings"

// Detector matches outgoing reply text against a configured phrase list to
// detect that a meeting was scheduled. Matching is a case-insensitive
// substring scan; a phrase-list miss is an accepted false negative.
type Detector struct {
	phrases []string
}

// NewDetector builds a detector from the configured phrase list. Phrases
// are lowercased once here.
func NewDetector(phrases []string) *Detector {
	lowered := make([]string, 0, len(phrases))
	for _, p := range phrases {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			lowered = append(lowered, strings.ToLower(trimmed))
		}
	}
	return &Detector{phrases: lowered}
}

// Match reports whether the text contains any configured phrase.
func (d *Detector) Match(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range d.phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
