package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailpilot/internal/models"
)

func newTestStore(t *testing.T) *ThreadStore {
	t.Helper()
	s, err := NewThreadStore(filepath.Join(t.TempDir(), "threads.json"), zerolog.Nop())
	require.NoError(t, err)
	return s
}

func customerMessage(body string) models.Message {
	return models.Message{
		Sender:  "alice@example.com",
		Subject: "Question about pricing",
		Body:    body,
	}
}

func TestAppend_CreatesThread(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("t1", customerMessage("hello")))

	summary, ok := s.Summary("t1")
	require.True(t, ok)
	assert.Equal(t, "alice@example.com", summary.CustomerEmail)
	assert.Equal(t, 1, summary.MessageCount)
	assert.Equal(t, "alice@example.com", summary.LastSender)
	assert.False(t, summary.Terminal)
	assert.False(t, summary.MarketingOrigin)
}

func TestAppend_UpdatesLastSender(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("t1", customerMessage("hello")))
	assert.Equal(t, "alice@example.com", s.LastSender("t1"))

	require.NoError(t, s.Append("t1", models.Message{Sender: models.SelfSender, Body: "hi there"}))
	assert.Equal(t, models.SelfSender, s.LastSender("t1"))

	require.NoError(t, s.Append("t1", customerMessage("one more thing")))
	assert.Equal(t, "alice@example.com", s.LastSender("t1"))
}

func TestLastSender_UnknownThread(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.LastSender("missing"))
}

func TestAppend_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.json")

	s, err := NewThreadStore(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Append("t1", customerMessage("hello")))
	require.NoError(t, s.MarkTerminal("t1"))

	reloaded, err := NewThreadStore(path, zerolog.Nop())
	require.NoError(t, err)

	summary, ok := reloaded.Summary("t1")
	require.True(t, ok)
	assert.Equal(t, 1, summary.MessageCount)
	assert.True(t, summary.Terminal)
	assert.Equal(t, "alice@example.com", summary.LastSender)
}

func TestNewThreadStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewThreadStore(path, zerolog.Nop())
	assert.Error(t, err)
}

func TestRenderContext_UnknownThread(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.RenderContext("missing")
	assert.False(t, ok)
}

func TestRenderContext_SkipsDrafts(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("t1", models.Message{Sender: "alice@example.com", Subject: "Hi", Body: "first message"}))
	require.NoError(t, s.Append("t1", models.Message{Sender: models.SelfSender, Body: "unsent draft", IsDraft: true}))

	context, ok := s.RenderContext("t1")
	require.True(t, ok)
	assert.Contains(t, context, "first message")
	assert.Contains(t, context, "Subject: Hi")
	assert.Contains(t, context, "Customer (")
	assert.NotContains(t, context, "unsent draft")
}

func TestRenderContext_OnlyDrafts(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("t1", models.Message{Sender: models.SelfSender, Body: "draft", IsDraft: true}))

	context, ok := s.RenderContext("t1")
	require.True(t, ok)
	assert.Empty(t, context)
}

func TestRenderContext_OrderAndSeparator(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("t1", customerMessage("first")))
	require.NoError(t, s.Append("t1", models.Message{Sender: models.SelfSender, Body: "second"}))

	context, ok := s.RenderContext("t1")
	require.True(t, ok)
	assert.Contains(t, context, contextSeparator)
	assert.Less(t, indexOf(context, "first"), indexOf(context, "second"))
	assert.Contains(t, context, "You (")
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

func TestMarkTerminal(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("t1", customerMessage("hello")))
	assert.False(t, s.IsTerminal("t1"))

	require.NoError(t, s.MarkTerminal("t1"))
	assert.True(t, s.IsTerminal("t1"))

	// Unknown threads are ignored
	require.NoError(t, s.MarkTerminal("missing"))
	assert.False(t, s.IsTerminal("missing"))
}

func TestMarkMarketingOrigin(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("t1", models.Message{Sender: models.SelfSender, Body: "campaign mail"}))
	assert.False(t, s.IsMarketingOrigin("t1"))

	require.NoError(t, s.MarkMarketingOrigin("t1"))
	assert.True(t, s.IsMarketingOrigin("t1"))
}

func TestIsExpired(t *testing.T) {
	window := 30 * 24 * time.Hour

	tests := []struct {
		name     string
		setup    func(s *ThreadStore)
		expected bool
	}{
		{
			name:     "unknown thread is never expired",
			setup:    func(s *ThreadStore) {},
			expected: false,
		},
		{
			name: "recent activity is not expired",
			setup: func(s *ThreadStore) {
				msg := customerMessage("hello")
				msg.Timestamp = time.Now().Add(-24 * time.Hour)
				_ = s.Append("t1", msg)
			},
			expected: false,
		},
		{
			name: "stale thread is expired",
			setup: func(s *ThreadStore) {
				msg := customerMessage("hello")
				msg.Timestamp = time.Now().Add(-40 * 24 * time.Hour)
				_ = s.Append("t1", msg)
			},
			expected: true,
		},
		{
			name: "terminal thread never expires",
			setup: func(s *ThreadStore) {
				msg := customerMessage("hello")
				msg.Timestamp = time.Now().Add(-40 * 24 * time.Hour)
				_ = s.Append("t1", msg)
				_ = s.MarkTerminal("t1")
			},
			expected: false,
		},
		{
			name: "last message wins over older history",
			setup: func(s *ThreadStore) {
				old := customerMessage("old")
				old.Timestamp = time.Now().Add(-40 * 24 * time.Hour)
				_ = s.Append("t1", old)
				recent := customerMessage("recent")
				recent.Timestamp = time.Now().Add(-1 * time.Hour)
				_ = s.Append("t1", recent)
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			tt.setup(s)
			assert.Equal(t, tt.expected, s.IsExpired("t1", window))
		})
	}
}

func TestMarkExpired_Idempotent(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("t1", customerMessage("hello")))

	assert.True(t, s.MarkExpired("t1"))
	assert.False(t, s.MarkExpired("t1"))
}

func TestMarkExpired_NeverOnTerminal(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("t1", customerMessage("hello")))
	require.NoError(t, s.MarkTerminal("t1"))

	assert.False(t, s.MarkExpired("t1"))
	assert.False(t, s.IsExpired("t1", 0))
}

func TestSweepExpired_Idempotent(t *testing.T) {
	s := newTestStore(t)
	window := 30 * 24 * time.Hour

	stale := customerMessage("old enough")
	stale.Timestamp = time.Now().Add(-40 * 24 * time.Hour)
	require.NoError(t, s.Append("t1", stale))

	fresh := customerMessage("recent")
	fresh.Timestamp = time.Now().Add(-1 * time.Hour)
	require.NoError(t, s.Append("t2", fresh))

	assert.Equal(t, 1, s.SweepExpired(window))
	assert.Equal(t, 0, s.SweepExpired(window))

	assert.NotContains(t, s.ActiveThreads(), "t1")
	assert.Contains(t, s.ActiveThreads(), "t2")
}

func TestActiveThreads(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append("active", customerMessage("hi")))
	require.NoError(t, s.Append("done", customerMessage("hi")))
	require.NoError(t, s.MarkTerminal("done"))
	require.NoError(t, s.Append("stale", customerMessage("hi")))
	s.MarkExpired("stale")

	ids := s.ActiveThreads()
	assert.Equal(t, []string{"active"}, ids)
}

func TestSummary_UnknownThread(t *testing.T) {
	s := newTestStore(t)

	_, ok := s.Summary("missing")
	assert.False(t, ok)
}

func BenchmarkRenderContext(b *testing.B) {
	s, err := NewThreadStore(filepath.Join(b.TempDir(), "threads.json"), zerolog.Nop())
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		_ = s.Append("t1", customerMessage("benchmark message body"))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.RenderContext("t1")
	}
}
