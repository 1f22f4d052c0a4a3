package model

import (
	"context"
	"fmt"
	"sort"
	"sync"

	julesErrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/model/contract"
	anthropicProvider "github.com/robertpelloni/jules-app/internal/model/providers/anthropic"
	geminiProvider "github.com/robertpelloni/jules-app/internal/model/providers/gemini"
	openaiProvider "github.com/robertpelloni/jules-app/internal/model/providers/openai"
	qwenProvider "github.com/robertpelloni/jules-app/internal/model/providers/qwen"
)

// Registry resolves provider names to adapters. The unknown-name path returns
// a boolean, not an error: callers like the debate engine treat an
// unresolvable participant as skippable.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates a registry with every built-in provider registered.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]Provider)}
	r.Register(openaiProvider.New())
	r.Register(anthropicProvider.New())
	r.Register(geminiProvider.New())
	r.Register(qwenProvider.New())
	return r
}

func (r *Registry) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

func (r *Registry) Lookup(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Complete resolves name and issues the call. Unknown names fail with
// ErrNotFound; this is the only hard failure the registry itself raises.
func (r *Registry) Complete(ctx context.Context, name string, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	p, ok := r.Lookup(name)
	if !ok {
		return nil, julesErrors.NotFound(fmt.Sprintf("provider %s not found", name))
	}
	return p.Complete(ctx, req)
}
