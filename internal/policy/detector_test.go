package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetector_Match(t *testing.T) {
	d := NewDetector([]string{"zoom meeting scheduled", "zoom link:", "Meeting ID:"})

	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{"exact phrase", "Your Zoom meeting scheduled for 3pm", true},
		{"case insensitive phrase list", "here is the MEETING ID: 123 456", true},
		{"phrase with punctuation", "Zoom link: https://zoom.us/j/123", true},
		{"question about zoom is not a confirmation", "can we zoom?", false},
		{"partial phrase", "a zoom meeting would be nice", false},
		{"empty text", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, d.Match(tt.text))
		})
	}
}

func TestDetector_IgnoresBlankPhrases(t *testing.T) {
	d := NewDetector([]string{"", "  ", "real phrase"})

	assert.False(t, d.Match("anything at all"))
	assert.True(t, d.Match("this contains a real phrase here"))
}
