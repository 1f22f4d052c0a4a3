package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	julesErrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/model/contract"

	"github.com/stretchr/testify/assert"
)

func TestCompleteRequiresAPIKey(t *testing.T) {
	p := New()

	_, err := p.Complete(context.Background(), contract.CompletionRequest{Model: "gemini-1.5-flash"})
	assert.True(t, errors.Is(err, julesErrors.ErrConfiguration))
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, isRateLimited(fmt.Errorf("googleapi: Error 429: quota exceeded")))
	assert.True(t, isRateLimited(fmt.Errorf("rpc error: RESOURCE_EXHAUSTED")))
	assert.False(t, isRateLimited(fmt.Errorf("googleapi: Error 500: internal")))
}

func TestMapAPIErrorFallsBackToTransient(t *testing.T) {
	// Errors that are not structured API errors are treated as network-class.
	err := mapAPIError(fmt.Errorf("dial tcp: connection refused"))
	assert.True(t, errors.Is(err, julesErrors.ErrTransient))
}

func TestListModelsWithoutKeyReturnsFallback(t *testing.T) {
	p := New()
	assert.Equal(t, fallbackModels, p.ListModels(context.Background(), ""))
}
