// Package store persists conversation threads and the response-cycle cursor
// as whole-file JSON documents owned by a single process.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mailpilot/internal/models"
)

// contextSeparator joins formatted turn blocks in RenderContext output.
const contextSeparator = "\n---\n"

// ThreadStore is a durable mapping from thread id to conversation history.
// The full store is rewritten to disk after every mutation; a write failure
// is reported to the caller but the in-memory change is kept, so a crash
// after a failed write can lose the last mutation. Not safe for concurrent
// use: the store assumes a single owning process.
type ThreadStore struct {
	path    string
	logger  zerolog.Logger
	threads map[string]*models.Thread

	now func() time.Time
}

// NewThreadStore loads the store file at path, creating the parent
// directory and starting empty when the file does not exist yet.
func NewThreadStore(path string, logger zerolog.Logger) (*ThreadStore, error) {
	s := &ThreadStore{
		path:    path,
		logger:  logger,
		threads: make(map[string]*models.Thread),
		now:     time.Now,
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read thread store: %w", err)
	}

	if err := json.Unmarshal(data, &s.threads); err != nil {
		return nil, fmt.Errorf("failed to decode thread store: %w", err)
	}

	logger.Debug().Int("threads", len(s.threads)).Str("path", path).Msg("Thread store loaded")
	return s, nil
}

// save rewrites the whole store file.
func (s *ThreadStore) save() error {
	data, err := json.MarshalIndent(s.threads, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode thread store: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write thread store: %w", err)
	}
	return nil
}

// Append adds a message to a thread, creating the thread when it is first
// seen. The message sender becomes the thread's last sender; for a new
// thread it also becomes the customer email. The store is persisted before
// returning. On a persistence failure the in-memory append is kept and the
// error is returned.
func (s *ThreadStore) Append(threadID string, msg models.Message) error {
	thread, ok := s.threads[threadID]
	if !ok {
		thread = &models.Thread{
			CreatedAt:     s.now(),
			CustomerEmail: msg.Sender,
		}
		s.threads[threadID] = thread
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}

	thread.Messages = append(thread.Messages, msg)
	thread.LastSender = msg.Sender

	return s.save()
}

// RenderContext formats every non-draft message of a thread as a turn block
// (sender label, timestamp, subject, body), oldest first, joined by a
// visible separator. The second return value is false when the thread is
// unknown; a known thread with only drafts yields an empty string.
func (s *ThreadStore) RenderContext(threadID string) (string, bool) {
	thread, ok := s.threads[threadID]
	if !ok {
		return "", false
	}

	var blocks []string
	for _, msg := range thread.Messages {
		if msg.IsDraft {
			continue
		}

		label := "Customer"
		if msg.IsSelf() {
			label = models.SelfSender
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%s (%s):\n", label, msg.Timestamp.Format("2006-01-02 15:04"))
		if msg.Subject != "" {
			fmt.Fprintf(&b, "Subject: %s\n", msg.Subject)
		}
		b.WriteString(msg.Body)
		b.WriteString("\n")

		blocks = append(blocks, b.String())
	}

	return strings.Join(blocks, contextSeparator), true
}

// MarkTerminal flags a thread as finished; no further automated responses
// will be generated for it. Unknown threads are ignored.
func (s *ThreadStore) MarkTerminal(threadID string) error {
	thread, ok := s.threads[threadID]
	if !ok || thread.Terminal {
		return nil
	}
	thread.Terminal = true
	return s.save()
}

// IsTerminal reports whether a thread has been marked terminal.
func (s *ThreadStore) IsTerminal(threadID string) bool {
	thread, ok := s.threads[threadID]
	return ok && thread.Terminal
}

// MarkMarketingOrigin flags a thread as seeded by an outbound campaign send.
func (s *ThreadStore) MarkMarketingOrigin(threadID string) error {
	thread, ok := s.threads[threadID]
	if !ok || thread.MarketingOrigin {
		return nil
	}
	thread.MarketingOrigin = true
	return s.save()
}

// IsMarketingOrigin reports whether a thread was started by a campaign send.
func (s *ThreadStore) IsMarketingOrigin(threadID string) bool {
	thread, ok := s.threads[threadID]
	return ok && thread.MarketingOrigin
}

// LastSender returns the sender of the most recently appended message, or
// an empty string for an unknown thread.
func (s *ThreadStore) LastSender(threadID string) string {
	thread, ok := s.threads[threadID]
	if !ok {
		return ""
	}
	return thread.LastSender
}

// ActiveThreads returns the ids of all threads that are neither terminal
// nor expired. Order is unspecified.
func (s *ThreadStore) ActiveThreads() []string {
	var ids []string
	for id, thread := range s.threads {
		if !thread.Terminal && !thread.Expired {
			ids = append(ids, id)
		}
	}
	return ids
}

// Summary returns a snapshot of a thread's state. The second return value
// is false when the thread is unknown.
func (s *ThreadStore) Summary(threadID string) (models.ThreadSummary, bool) {
	thread, ok := s.threads[threadID]
	if !ok {
		return models.ThreadSummary{}, false
	}
	return models.ThreadSummary{
		ThreadID:        threadID,
		CustomerEmail:   thread.CustomerEmail,
		CreatedAt:       thread.CreatedAt,
		MessageCount:    len(thread.Messages),
		Terminal:        thread.Terminal,
		MarketingOrigin: thread.MarketingOrigin,
		LastSender:      thread.LastSender,
	}, true
}

// IsExpired reports whether a thread's last activity is older than the
// retention window. Unknown and terminal threads are never expired.
func (s *ThreadStore) IsExpired(threadID string, window time.Duration) bool {
	thread, ok := s.threads[threadID]
	if !ok || thread.Terminal {
		return false
	}
	return thread.LastActivity().Before(s.now().Add(-window))
}

// MarkExpired flags a thread as expired and records the expiry time. It is
// idempotent and never expires a terminal thread. Returns true when the
// thread was newly marked.
func (s *ThreadStore) MarkExpired(threadID string) bool {
	thread, ok := s.threads[threadID]
	if !ok || thread.Terminal || thread.Expired {
		return false
	}

	now := s.now()
	thread.Expired = true
	thread.ExpiredAt = &now

	if err := s.save(); err != nil {
		s.logger.Error().Err(err).Str("thread_id", threadID).Msg("Failed to persist expired flag")
	}
	s.logger.Info().Str("thread_id", shortID(threadID)).Msg("Thread marked as expired")
	return true
}

// SweepExpired marks every thread whose last activity is older than the
// retention window and returns the count newly marked. Repeated sweeps with
// no new activity return zero.
func (s *ThreadStore) SweepExpired(window time.Duration) int {
	expired := 0
	for id, thread := range s.threads {
		if thread.Expired {
			continue
		}
		if s.IsExpired(id, window) && s.MarkExpired(id) {
			expired++
		}
	}

	if expired > 0 {
		s.logger.Info().Int("count", expired).Msg("Marked threads as expired")
	}
	return expired
}

// shortID truncates a thread id for log output.
func shortID(threadID string) string {
	if len(threadID) > 8 {
		return threadID[:8]
	}
	return threadID
}
