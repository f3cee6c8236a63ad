package ai

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestBuildUserPrompt(t *testing.T) {
	prompt := buildUserPrompt("Can I see a demo?", "Customer (2025-01-02 10:00):\nHi there")

	assert.Contains(t, prompt, "Current Customer Message:\nCan I see a demo?")
	assert.Contains(t, prompt, "Conversation History:\nCustomer (2025-01-02 10:00):\nHi there")
	assert.Contains(t, prompt, "Write a professional and personalized email response below:")
}

func TestBuildUserPrompt_NoHistory(t *testing.T) {
	prompt := buildUserPrompt("Hello", "")

	assert.Contains(t, prompt, "Current Customer Message:\nHello")
	assert.NotContains(t, prompt, "Conversation History:")
}

func TestBuildSystemPrompt(t *testing.T) {
	g := NewOpenAIGenerator("test-key", "Sam\nsales@example.com", 30*time.Second, zerolog.Nop())

	prompt := g.buildSystemPrompt()
	assert.Contains(t, prompt, "professional sales representative")
	assert.Contains(t, prompt, "Always sign emails with:\nSam\nsales@example.com")
}

func TestBuildSystemPrompt_NoSignature(t *testing.T) {
	g := NewOpenAIGenerator("test-key", "", 30*time.Second, zerolog.Nop())

	assert.Equal(t, systemPrompt, g.buildSystemPrompt())
}
