// Package policy decides, per incoming message, whether a conversation
// thread needs an automated response.
package policy

import (
	"time"

	"github.com/rs/zerolog"

	"mailpilot/internal/models"
	"mailpilot/internal/store"
)

// Outcome is the decision for one incoming message.
type Outcome int

const (
	// Respond means the thread needs a reply; the incoming message has
	// already been appended to the thread store.
	Respond Outcome = iota
	// SkipExpired means the thread passed the retention window and was
	// marked expired as a side effect.
	SkipExpired
	// SkipTerminal means a meeting was already scheduled on the thread.
	SkipTerminal
	// SkipAwaiting means this system spoke last and is waiting for the
	// customer to reply.
	SkipAwaiting
)

// String returns a short label for logging.
func (o Outcome) String() string {
	switch o {
	case Respond:
		return "respond"
	case SkipExpired:
		return "skip_expired"
	case SkipTerminal:
		return "skip_terminal"
	case SkipAwaiting:
		return "skip_awaiting"
	default:
		return "unknown"
	}
}

// Policy evaluates incoming messages against stored thread state and
// records confirmed replies. Guards run in a fixed precedence order:
// expiry, terminal, turn-taking.
type Policy struct {
	store    *store.ThreadStore
	window   time.Duration
	detector *Detector
	logger   zerolog.Logger
}

// New creates a conversation policy over the given thread store. window is
// the inactivity retention window; detector decides when a sent reply makes
// the thread terminal.
func New(ts *store.ThreadStore, window time.Duration, detector *Detector, logger zerolog.Logger) *Policy {
	return &Policy{
		store:    ts,
		window:   window,
		detector: detector,
		logger:   logger,
	}
}

// Evaluate decides what to do with an incoming message. The cheap guards
// short-circuit before any state mutation; only the Respond outcome appends
// the message, so the same unanswered message re-fetched on a later cycle
// resolves to SkipAwaiting once a reply went out.
func (p *Policy) Evaluate(msg models.Inbound) Outcome {
	threadID := msg.ThreadID

	if p.store.IsExpired(threadID, p.window) {
		p.store.MarkExpired(threadID)
		return SkipExpired
	}

	if p.store.IsTerminal(threadID) {
		return SkipTerminal
	}

	if p.store.LastSender(threadID) == models.SelfSender {
		return SkipAwaiting
	}

	// Persist the inbound message before any reply is composed.
	if err := p.store.Append(threadID, models.Message{
		Sender:    msg.Sender,
		Subject:   msg.Subject,
		Body:      msg.Body,
		MessageID: msg.ID,
	}); err != nil {
		// In-memory state already holds the message; a crash before the
		// next successful write loses it.
		p.logger.Error().Err(err).Str("thread_id", threadID).Msg("Failed to persist inbound message")
	}

	return Respond
}

// RecordReply appends a confirmed sent reply to the thread and marks the
// thread terminal when the outgoing text confirms a scheduled meeting.
// Terminal detection runs on the reply text only, never on customer text.
// Returns whether the thread became terminal.
func (p *Policy) RecordReply(threadID, subject, body, messageID string) (bool, error) {
	err := p.store.Append(threadID, models.Message{
		Sender:    models.SelfSender,
		Subject:   subject,
		Body:      body,
		MessageID: messageID,
	})
	if err != nil {
		p.logger.Error().Err(err).Str("thread_id", threadID).Msg("Failed to persist sent reply")
	}

	if !p.detector.Match(body) {
		return false, err
	}

	if markErr := p.store.MarkTerminal(threadID); markErr != nil && err == nil {
		err = markErr
	}
	p.logger.Info().Str("thread_id", threadID).Msg("Meeting confirmed, thread marked terminal")
	return true, err
}
