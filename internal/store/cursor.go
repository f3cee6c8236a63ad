package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"mailpilot/internal/models"
)

// CursorStore persists the last successfully processed response cycle so
// subsequent cycles only fetch newer mail. Like ThreadStore, it rewrites
// its whole file on every update and assumes a single owning process.
type CursorStore struct {
	path   string
	logger zerolog.Logger
	cursor models.Cursor
}

// NewCursorStore loads the cursor file at path, defaulting to a first-run
// cursor when the file does not exist.
func NewCursorStore(path string, logger zerolog.Logger) (*CursorStore, error) {
	s := &CursorStore{
		path:   path,
		logger: logger,
		cursor: models.Cursor{FirstRun: true},
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
		return nil, fmt.Errorf("failed to read cursor: %w", err)
	}

	if err := json.Unmarshal(data, &s.cursor); err != nil {
		return nil, fmt.Errorf("failed to decode cursor: %w", err)
	}

	logger.Debug().Str("last_message_id", s.cursor.LastMessageID).Msg("Cursor loaded")
	return s, nil
}

// Cursor returns the current cursor value.
func (s *CursorStore) Cursor() models.Cursor {
	return s.cursor
}

// Advance records the last processed message id and check time, clears the
// first-run flag, and persists the cursor.
func (s *CursorStore) Advance(lastMessageID string, checkTime time.Time) error {
	s.cursor.LastMessageID = lastMessageID
	s.cursor.LastCheckTime = &checkTime
	s.cursor.FirstRun = false

	data, err := json.MarshalIndent(s.cursor, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cursor: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cursor: %w", err)
	}
	return nil
}
