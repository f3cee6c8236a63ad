// Package ai generates draft email replies with the OpenAI chat API.
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// Generator is the reply-drafting contract consumed by the response runner.
type Generator interface {
	// Generate drafts a reply to the customer's latest message.
	// threadContext carries the rendered conversation history and may be
	// empty for a brand-new thread.
	Generate(ctx context.Context, customerMessage, threadContext string) (string, error)
}

const systemPrompt = `You are a professional sales representative.
Keep responses concise, friendly, and focused on scheduling a Zoom demo.
Always maintain a helpful and enthusiastic tone.
Address the customer by name when possible.
If they express interest, provide a specific time suggestion for the Zoom meeting.`

// OpenAIGenerator drafts replies with the OpenAI chat completion API.
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	timeout   time.Duration
	signature string
	logger    zerolog.Logger
}

// NewOpenAIGenerator creates a generator. signature is appended to the
// system prompt so every draft is signed consistently.
func NewOpenAIGenerator(apiKey, signature string, timeout time.Duration, logger zerolog.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:    openai.NewClient(apiKey),
		model:     openai.GPT4o,
		timeout:   timeout,
		signature: signature,
		logger:    logger,
	}
}

// Generate drafts a reply from the customer message and prior conversation.
func (g *OpenAIGenerator) Generate(ctx context.Context, customerMessage, threadContext string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.buildSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(customerMessage, threadContext)},
		},
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (g *OpenAIGenerator) buildSystemPrompt() string {
	if g.signature == "" {
		return systemPrompt
	}
	return fmt.Sprintf("%s\n\nAlways sign emails with:\n%s", systemPrompt, g.signature)
}

// buildUserPrompt assembles the current message and optional history into
// the user turn given to the model.
func buildUserPrompt(customerMessage, threadContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current Customer Message:\n%s\n\n", customerMessage)
	if threadContext != "" {
		fmt.Fprintf(&b, "Conversation History:\n%s\n\n", threadContext)
	}
	b.WriteString("Write a professional and personalized email response below:")
	return b.String()
}
