package model

import (
	"context"

	"github.com/robertpelloni/jules-app/internal/model/contract"
)

// Provider is the uniform surface over heterogeneous completion backends.
// Complete issues exactly one logical outbound call; ListModels is advisory
// and must degrade to a static list instead of failing.
type Provider interface {
	Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	ListModels(ctx context.Context, apiKey string) []string
	Name() string
}
