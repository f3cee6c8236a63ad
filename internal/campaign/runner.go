package campaign

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"mailpilot/internal/approval"
	"mailpilot/internal/mailbox"
	"mailpilot/internal/models"
	"mailpilot/internal/store"
)

// Runner drives one campaign over a recipient list: for every recipient the
// ledger has not recorded, it renders the template, asks for approval,
// sends, and on a confirmed send records the ledger entry and seeds the
// thread store so later replies are tracked as a conversation.
type Runner struct {
	ledger   *Ledger
	registry *Registry
	mailbox  mailbox.Client
	surface  approval.Surface
	threads  *store.ThreadStore
	logger   zerolog.Logger
}

// NewRunner wires a campaign runner.
func NewRunner(ledger *Ledger, registry *Registry, mb mailbox.Client, surface approval.Surface, threads *store.ThreadStore, logger zerolog.Logger) *Runner {
	return &Runner{
		ledger:   ledger,
		registry: registry,
		mailbox:  mb,
		surface:  surface,
		threads:  threads,
		logger:   logger,
	}
}

// Run executes the campaign against the recipient list and returns the
// number of confirmed sends. An unregistered campaign id aborts the run
// before any send; a rejected or failed send leaves the ledger untouched so
// the recipient is retried on the next run.
func (r *Runner) Run(ctx context.Context, campaignID string, recipients []models.Recipient) (int, error) {
	// Fail fast on an unknown campaign before touching any recipient.
	if _, _, err := r.registry.Render(campaignID, fallbackName); err != nil {
		return 0, fmt.Errorf("campaign %q: %w", campaignID, err)
	}

	unsent := r.ledger.Unsent(campaignID, recipients)
	if len(unsent) == 0 {
		r.surface.Infof("All recipients have already received campaign %q", campaignID)
		return 0, nil
	}

	r.surface.Infof("Found %d recipient(s) to send campaign %q to", len(unsent), campaignID)

	sent := 0
	for _, recipient := range unsent {
		r.surface.Infof("--- Preparing email for %s (%s) ---", recipient.Name, recipient.Email)

		subject, body, err := r.registry.Render(campaignID, recipient.Name)
		if err != nil {
			return sent, fmt.Errorf("campaign %q: %w", campaignID, err)
		}

		draft := models.Draft{
			To:      fmt.Sprintf("%s <%s>", recipient.Name, recipient.Email),
			Subject: subject,
			Body:    body,
		}

		approved, err := r.surface.ConfirmDraft(draft)
		if err != nil {
			return sent, fmt.Errorf("approval failed: %w", err)
		}
		if !approved {
			r.surface.Warnf("Email to %s was rejected", recipient.Name)
			continue
		}

		receipt, err := r.mailbox.Send(ctx, draft.To, draft.Subject, draft.Body, "")
		if err != nil {
			r.logger.Error().Err(err).Str("email", recipient.Email).Msg("Campaign send failed")
			r.surface.Errorf("Failed to send email to %s", recipient.Name)
			continue
		}

		if err := r.ledger.MarkSent(campaignID, recipient.Email); err != nil {
			// Ledger entry is live in memory; only the write failed.
			r.logger.Error().Err(err).Str("email", recipient.Email).Msg("Failed to persist ledger entry")
		}
		sent++

		r.seedThread(receipt, recipient, draft)
		r.surface.Successf("Marketing email sent to %s", recipient.Name)
	}

	r.surface.Successf("Campaign complete, sent %d email(s)", sent)
	return sent, nil
}

// seedThread records the outbound message in the thread store and flags the
// thread as campaign-originated so the response runner can track replies.
func (r *Runner) seedThread(receipt models.SendReceipt, recipient models.Recipient, draft models.Draft) {
	if receipt.ThreadID == "" {
		return
	}

	err := r.threads.Append(receipt.ThreadID, models.Message{
		Sender:    models.SelfSender,
		Subject:   draft.Subject,
		Body:      draft.Body,
		MessageID: receipt.MessageID,
	})
	if err != nil {
		r.logger.Error().Err(err).Str("thread_id", receipt.ThreadID).Msg("Failed to seed campaign thread")
	}

	if err := r.threads.MarkMarketingOrigin(receipt.ThreadID); err != nil {
		r.logger.Error().Err(err).Str("thread_id", receipt.ThreadID).Msg("Failed to flag campaign thread")
	}

	r.logger.Debug().
		Str("thread_id", receipt.ThreadID).
		Str("customer", recipient.Email).
		Msg("Campaign thread seeded")
}
