// Package campaign runs outbound marketing campaigns with per-recipient
// send-once tracking.
package campaign

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"mailpilot/internal/models"
)

// Ledger records which recipients have received which campaign. Entries are
// written once at confirmed-send time and never removed; a recorded pair is
// permanently considered sent. The whole ledger file is rewritten on every
// mutation. Not safe for concurrent use.
type Ledger struct {
	path   string
	logger zerolog.Logger
	sent   map[string]map[string]models.LedgerEntry // campaign id -> recipient email -> entry

	now func() time.Time
}

// NewLedger loads the ledger file at path, starting empty when it does not
// exist yet.
func NewLedger(path string, logger zerolog.Logger) (*Ledger, error) {
	l := &Ledger{
		path:   path,
		logger: logger,
		sent:   make(map[string]map[string]models.LedgerEntry),
		now:    time.Now,
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign ledger: %w", err)
	}

	if err := json.Unmarshal(data, &l.sent); err != nil {
		return nil, fmt.Errorf("failed to decode campaign ledger: %w", err)
	}

	return l, nil
}

// HasSent reports whether the campaign was already sent to the recipient.
func (l *Ledger) HasSent(campaignID, email string) bool {
	_, ok := l.sent[campaignID][email]
	return ok
}

// MarkSent records a confirmed send and persists the ledger. Marking the
// same pair again refreshes the timestamp but stays a single entry.
func (l *Ledger) MarkSent(campaignID, email string) error {
	if l.sent[campaignID] == nil {
		l.sent[campaignID] = make(map[string]models.LedgerEntry)
	}
	l.sent[campaignID][email] = models.LedgerEntry{
		SentAt: l.now(),
		Status: "sent",
	}

	data, err := json.MarshalIndent(l.sent, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode campaign ledger: %w", err)
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write campaign ledger: %w", err)
	}
	return nil
}

// Unsent filters recipients down to those the campaign has not reached,
// preserving input order.
func (l *Ledger) Unsent(campaignID string, recipients []models.Recipient) []models.Recipient {
	var unsent []models.Recipient
	for _, r := range recipients {
		if !l.HasSent(campaignID, r.Email) {
			unsent = append(unsent, r)
		}
	}
	return unsent
}
