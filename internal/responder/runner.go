// Package responder runs the inbox response cycle: fetch unread mail,
// filter to known customers, and draft approved replies per thread.
package responder

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mailpilot/internal/ai"
	"mailpilot/internal/approval"
	"mailpilot/internal/config"
	"mailpilot/internal/mailbox"
	"mailpilot/internal/models"
	"mailpilot/internal/policy"
	"mailpilot/internal/store"
)

// Runner executes one response cycle at a time. Cycles are sequential and
// block on human approval; nothing here is safe to run concurrently.
type Runner struct {
	mailbox   mailbox.Client
	generator ai.Generator
	surface   approval.Surface
	threads   *store.ThreadStore
	cursor    *store.CursorStore
	policy    *policy.Policy
	customers map[string]struct{}
	cfg       *config.Config
	logger    zerolog.Logger

	// Seams for tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// NewRunner wires a response runner. customers is the lowercased address
// allow-list.
func NewRunner(mb mailbox.Client, gen ai.Generator, surface approval.Surface, threads *store.ThreadStore, cursor *store.CursorStore, pol *policy.Policy, customers map[string]struct{}, cfg *config.Config, logger zerolog.Logger) *Runner {
	return &Runner{
		mailbox:   mb,
		generator: gen,
		surface:   surface,
		threads:   threads,
		cursor:    cursor,
		policy:    pol,
		customers: customers,
		cfg:       cfg,
		logger:    logger,
		sleep:     time.Sleep,
		now:       time.Now,
	}
}

// Run executes one full cycle. The cursor only advances after at least one
// message was processed, so an empty cycle never skips mail that arrives
// between a fetch and the next run.
func (r *Runner) Run(ctx context.Context) error {
	r.surface.Infof("Checking for new emails...")

	if expired := r.threads.SweepExpired(r.cfg.ThreadExpiration()); expired > 0 {
		r.surface.Infof("Cleaned up %d expired thread(s)", expired)
	}

	if len(r.customers) == 0 {
		r.surface.Warnf("No customer emails configured. Add addresses to %s, one per line.", r.cfg.CustomerListFile)
		return nil
	}

	cursor := r.cursor.Cursor()

	var since time.Time
	if !cursor.FirstRun && cursor.LastCheckTime != nil {
		since = *cursor.LastCheckTime
	}
	maxResults := 0
	if cursor.FirstRun {
		maxResults = r.cfg.FirstRunMessageLimit
	}

	checkTime := r.now()
	messages, err := r.mailbox.ListUnread(ctx, since, maxResults)
	if err != nil {
		return fmt.Errorf("failed to fetch unread messages: %w", err)
	}
	if len(messages) == 0 {
		r.surface.Infof("No new emails found")
		return nil
	}

	candidates, skipped := r.filterCustomerMessages(messages)
	if len(candidates) == 0 {
		r.surface.Infof("Found %d email(s), but none from customers (skipped %d)", len(messages), skipped)
		return nil
	}

	if cursor.FirstRun {
		r.surface.Infof("First run: processing %d customer email(s) (fetch capped at %d)", len(candidates), r.cfg.FirstRunMessageLimit)
	} else {
		r.surface.Successf("Found %d new customer email(s)", len(candidates))
	}

	processed := 0
	lastMessageID := ""
	for _, msg := range candidates {
		r.surface.Infof("--- Processing email from %s ---", msg.Sender)
		if r.processMessage(ctx, msg) {
			processed++
			lastMessageID = msg.ID
		}
	}

	if processed > 0 {
		if err := r.cursor.Advance(lastMessageID, checkTime); err != nil {
			r.logger.Error().Err(err).Msg("Failed to persist cycle cursor")
		}
	}

	r.surface.Successf("Processed %d customer email(s)", processed)
	return nil
}

// filterCustomerMessages keeps messages from allow-listed senders and drops
// all but the first message of each thread in this fetch.
func (r *Runner) filterCustomerMessages(messages []models.Inbound) (candidates []models.Inbound, skipped int) {
	seenThreads := make(map[string]struct{})

	for _, msg := range messages {
		addr := strings.ToLower(ExtractAddress(msg.Sender))
		if _, ok := r.customers[addr]; !ok {
			skipped++
			continue
		}

		if _, seen := seenThreads[msg.ThreadID]; seen {
			r.logger.Debug().Str("thread_id", msg.ThreadID).Msg("Skipping duplicate message in thread")
			continue
		}
		seenThreads[msg.ThreadID] = struct{}{}
		candidates = append(candidates, msg)
	}

	return candidates, skipped
}

// processMessage runs the conversation policy for one message and, on a
// respond outcome, drives generate, approve, delay, send, and bookkeeping.
// Returns whether a reply went out.
func (r *Runner) processMessage(ctx context.Context, msg models.Inbound) bool {
	switch outcome := r.policy.Evaluate(msg); outcome {
	case policy.SkipExpired:
		r.surface.Warnf("Thread %.8s is expired, skipping", msg.ThreadID)
		return false
	case policy.SkipTerminal:
		r.surface.Warnf("Meeting already scheduled for thread %.8s", msg.ThreadID)
		return false
	case policy.SkipAwaiting:
		r.surface.Infof("Waiting for customer response in thread %.8s", msg.ThreadID)
		return false
	case policy.Respond:
	default:
		r.logger.Error().Stringer("outcome", outcome).Msg("Unhandled policy outcome")
		return false
	}

	threadContext, _ := r.threads.RenderContext(msg.ThreadID)

	r.surface.Infof("Generating response...")
	body, err := r.generator.Generate(ctx, msg.Body, threadContext)
	if err != nil || body == "" {
		r.logger.Error().Err(err).Str("thread_id", msg.ThreadID).Msg("Reply generation failed")
		r.surface.Errorf("Failed to generate response")
		return false
	}

	draft := models.Draft{
		To:       msg.Sender,
		Subject:  replySubject(msg.Subject),
		Body:     body,
		ThreadID: msg.ThreadID,
		Context:  threadContext,
	}

	approved, err := r.surface.ConfirmDraft(draft)
	if err != nil {
		r.logger.Error().Err(err).Msg("Approval prompt failed")
		return false
	}
	if !approved {
		r.surface.Warnf("Email draft rejected")
		return false
	}

	delay := r.responseDelay()
	r.surface.Infof("Waiting %d seconds before sending (more human-like)...", int(delay.Seconds()))
	r.sleep(delay)

	receipt, err := r.sendWithRetry(ctx, draft)
	if err != nil {
		r.surface.Errorf("Failed to send email")
		return false
	}

	terminal, err := r.policy.RecordReply(msg.ThreadID, draft.Subject, draft.Body, receipt.MessageID)
	if err != nil {
		r.logger.Error().Err(err).Str("thread_id", msg.ThreadID).Msg("Failed to record sent reply")
	}

	if err := r.mailbox.MarkRead(ctx, msg.ID); err != nil {
		r.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to mark message read")
	}

	if terminal {
		r.surface.Successf("Meeting mentioned - thread marked as complete")
	}
	r.surface.Successf("Email sent successfully!")
	return true
}

// sendWithRetry retries only the mailbox send, a small fixed number of
// times with a fixed delay. Every other collaborator call is one-shot.
func (r *Runner) sendWithRetry(ctx context.Context, draft models.Draft) (models.SendReceipt, error) {
	retryDelay := time.Duration(r.cfg.SendRetryDelay) * time.Second

	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxSendRetries; attempt++ {
		receipt, err := r.mailbox.Send(ctx, draft.To, draft.Subject, draft.Body, draft.ThreadID)
		if err == nil {
			return receipt, nil
		}

		lastErr = err
		r.logger.Error().Err(err).Int("attempt", attempt).Msg("Send attempt failed")
		if attempt < r.cfg.MaxSendRetries {
			r.surface.Warnf("Send failed, retrying in %d second(s)...", r.cfg.SendRetryDelay)
			r.sleep(retryDelay)
		}
	}

	return models.SendReceipt{}, fmt.Errorf("send failed after %d attempts: %w", r.cfg.MaxSendRetries, lastErr)
}

// responseDelay picks a uniform random delay in the configured range so
// replies do not land suspiciously fast.
func (r *Runner) responseDelay() time.Duration {
	min, max := r.cfg.MinResponseDelay, r.cfg.MaxResponseDelay
	if max <= min {
		return time.Duration(min) * time.Second
	}
	return time.Duration(min+rand.Intn(max-min+1)) * time.Second
}

// replySubject prefixes Re: without stacking it on an existing one.
func replySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}
