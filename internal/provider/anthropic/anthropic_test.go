package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresAPIKeyUnlessVertex(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)

	p, err := New(Config{UseVertex: true})
	require.NoError(t, err)
	assert.Equal(t, "anthropic-vertex", p.Name())
}

func TestEffectiveHeadersAddsBetaForClaude37OnDirectAPI(t *testing.T) {
	p, err := New(Config{APIKey: "sk-ant-test"})
	require.NoError(t, err)

	headers := p.effectiveHeaders("claude-3-7-sonnet-20250219", nil)
	assert.Equal(t, tokenEfficientToolsBeta, headers["anthropic-beta"])
}

func TestEffectiveHeadersOmitsBetaForOtherModels(t *testing.T) {
	p, err := New(Config{APIKey: "sk-ant-test"})
	require.NoError(t, err)

	headers := p.effectiveHeaders("claude-sonnet-4-5", nil)
	_, present := headers["anthropic-beta"]
	assert.False(t, present)
}

func TestEffectiveHeadersStripsBetaOnVertex(t *testing.T) {
	p, err := New(Config{UseVertex: true})
	require.NoError(t, err)

	headers := p.effectiveHeaders("claude-3-7-sonnet-20250219", map[string]string{
		"anthropic-beta": tokenEfficientToolsBeta,
	})
	_, present := headers["anthropic-beta"]
	assert.False(t, present, "vertex must never carry the token-efficient-tools beta header")
}

func TestEffectiveHeadersPreservesUnrelatedHeaders(t *testing.T) {
	p, err := New(Config{APIKey: "sk-ant-test"})
	require.NoError(t, err)

	headers := p.effectiveHeaders("claude-sonnet-4-5", map[string]string{"x-request-id": "abc"})
	assert.Equal(t, "abc", headers["x-request-id"])
}
