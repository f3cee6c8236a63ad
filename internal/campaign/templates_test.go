package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RenderSubstitutesName(t *testing.T) {
	r := NewRegistry()

	subject, body, err := r.Render(DefaultCampaignID, "Alice")
	require.NoError(t, err)

	assert.Contains(t, subject, "Alice")
	assert.Contains(t, body, "Hi Alice,")
	assert.NotContains(t, subject, namePlaceholder)
	assert.NotContains(t, body, namePlaceholder)
}

func TestRegistry_UnknownCampaign(t *testing.T) {
	r := NewRegistry()

	_, _, err := r.Render("does-not-exist", "Alice")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("spring_sale", Template{
		Subject: "{name}, our spring sale is on",
		Body:    "Hello {name}!",
	})

	subject, body, err := r.Render("spring_sale", "Bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob, our spring sale is on", subject)
	assert.Equal(t, "Hello Bob!", body)
}
