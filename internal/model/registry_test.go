package model

import (
	"context"
	"errors"
	"testing"

	julesErrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/model/contract"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryIncludesBuiltins(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []string{"anthropic", "gemini", "openai", "qwen"}, r.Names())

	for _, name := range r.Names() {
		p, ok := r.Lookup(name)
		require.True(t, ok)
		assert.Equal(t, name, p.Name())
	}
}

func TestLookupUnknownProvider(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Lookup("no-such-provider")
	assert.False(t, ok)
}

func TestCompleteUnknownProviderNotFound(t *testing.T) {
	r := NewRegistry()

	_, err := r.Complete(context.Background(), "no-such-provider", contract.CompletionRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, julesErrors.ErrNotFound))
}

func TestCompleteMissingAPIKeyIsConfigurationError(t *testing.T) {
	r := NewRegistry()

	// Every built-in fails fast on an empty key before any network call.
	for _, name := range r.Names() {
		_, err := r.Complete(context.Background(), name, contract.CompletionRequest{})
		require.Error(t, err, "provider %s", name)
		assert.True(t, errors.Is(err, julesErrors.ErrConfiguration), "provider %s: %v", name, err)
	}
}
