package campaign

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailpilot/internal/models"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(filepath.Join(t.TempDir(), "ledger.json"), zerolog.Nop())
	require.NoError(t, err)
	return l
}

func TestLedger_MarkSentAndHasSent(t *testing.T) {
	l := newTestLedger(t)

	assert.False(t, l.HasSent("c1", "a@x.com"))

	require.NoError(t, l.MarkSent("c1", "a@x.com"))
	assert.True(t, l.HasSent("c1", "a@x.com"))

	// Other campaigns and recipients are unaffected
	assert.False(t, l.HasSent("c2", "a@x.com"))
	assert.False(t, l.HasSent("c1", "b@x.com"))
}

func TestLedger_MarkSentIdempotent(t *testing.T) {
	l := newTestLedger(t)

	require.NoError(t, l.MarkSent("c1", "a@x.com"))
	require.NoError(t, l.MarkSent("c1", "a@x.com"))

	assert.True(t, l.HasSent("c1", "a@x.com"))
	assert.Empty(t, l.Unsent("c1", []models.Recipient{{Name: "A", Email: "a@x.com"}}))
}

func TestLedger_UnsentPreservesOrder(t *testing.T) {
	l := newTestLedger(t)
	require.NoError(t, l.MarkSent("c1", "b@x.com"))

	recipients := []models.Recipient{
		{Name: "A", Email: "a@x.com"},
		{Name: "B", Email: "b@x.com"},
		{Name: "C", Email: "c@x.com"},
	}

	unsent := l.Unsent("c1", recipients)
	require.Len(t, unsent, 2)
	assert.Equal(t, "a@x.com", unsent[0].Email)
	assert.Equal(t, "c@x.com", unsent[1].Email)
}

func TestLedger_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.json")

	l, err := NewLedger(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, l.MarkSent("c1", "a@x.com"))

	reloaded, err := NewLedger(path, zerolog.Nop())
	require.NoError(t, err)
	assert.True(t, reloaded.HasSent("c1", "a@x.com"))
	assert.False(t, reloaded.HasSent("c1", "b@x.com"))
}
