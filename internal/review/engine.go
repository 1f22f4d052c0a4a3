// Package review produces code reviews through one of three policies: a
// single prose review, a concurrent multi-persona review, or a structured
// JSON review with graceful parse degradation.
package review

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	apperrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/model"
	"github.com/robertpelloni/jules-app/internal/model/contract"
)

// Type selects the review policy.
type Type string

const (
	TypeSimple        Type = "simple"
	TypeComprehensive Type = "comprehensive"
	TypeStructured    Type = "structured"
)

// Persona is one reviewer viewpoint for comprehensive reviews.
type Persona struct {
	Name  string
	Focus string
}

// DefaultPersonas is the stock comprehensive-review panel.
var DefaultPersonas = []Persona{
	{Name: "Security Expert", Focus: "security vulnerabilities, injection risks, authentication and authorization flaws, unsafe handling of untrusted input"},
	{Name: "Performance Engineer", Focus: "algorithmic complexity, memory allocation patterns, unnecessary work, concurrency bottlenecks"},
	{Name: "Clean Code Advocate", Focus: "readability, naming, duplication, function size, separation of concerns, maintainability"},
}

// Issue is one finding in a structured review.
type Issue struct {
	Severity    string `json:"severity"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Suggestion  string `json:"suggestion,omitempty"`
	Line        int    `json:"line,omitempty"`
}

// StructuredReview is the machine-parseable review shape. ParseError carries
// the raw model output when parsing failed; Score is 0 in that case.
type StructuredReview struct {
	Summary    string  `json:"summary"`
	Score      int     `json:"score"`
	Issues     []Issue `json:"issues"`
	ParseError string  `json:"parseError,omitempty"`
}

// Request describes one review invocation. Personas applies to comprehensive
// reviews only; nil means the default panel.
type Request struct {
	Code     string
	Provider string
	Model    string
	APIKey   string
	Type     Type
	Personas []Persona
}

// Result is either prose or a structured object, matching the requested type.
type Result struct {
	Prose      string
	Structured *StructuredReview
}

// Completer resolves provider names and issues completion calls.
type Completer interface {
	Complete(ctx context.Context, provider string, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Lookup(name string) (model.Provider, bool)
}

const (
	reviewMaxTokens = 1000

	simpleSystemPrompt = "You are an expert code reviewer. Review the provided code for correctness, " +
		"clarity and potential bugs. Be specific: reference the code you are commenting on. " +
		"Respond in Markdown."

	structuredSystemPrompt = "You are an expert code reviewer. Review the provided code and respond with " +
		"ONLY a JSON object, no prose and no code fences, with this exact shape: " +
		`{"summary": string, "score": integer 0-100, "issues": [{"severity": string, "category": string, "description": string, "suggestion": string, "line": integer}]}.`
)

// Engine runs code reviews. Stateless beyond its completer.
type Engine struct {
	completer Completer
}

func New(completer Completer) *Engine {
	return &Engine{completer: completer}
}

// Run executes the requested review. An unknown provider name is the only
// hard error; persona failures and parse failures degrade in the result.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if _, found := e.completer.Lookup(req.Provider); !found {
		return nil, fmt.Errorf("review provider %q: %w", req.Provider, apperrors.ErrNotFound)
	}

	switch req.Type {
	case TypeComprehensive:
		prose, err := e.comprehensive(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Result{Prose: prose}, nil
	case TypeStructured:
		review, err := e.structured(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Result{Structured: review}, nil
	default:
		prose, err := e.simple(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Result{Prose: prose}, nil
	}
}

func (e *Engine) simple(ctx context.Context, req Request) (string, error) {
	resp, err := e.completer.Complete(ctx, req.Provider, contract.CompletionRequest{
		Model:     req.Model,
		APIKey:    req.APIKey,
		System:    simpleSystemPrompt,
		Messages:  []contract.Message{{Role: "user", Content: codePrompt(req.Code)}},
		MaxTokens: reviewMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// comprehensive fans the personas out concurrently. Each persona's failure is
// rendered inline in its own section instead of failing the whole review.
func (e *Engine) comprehensive(ctx context.Context, req Request) (string, error) {
	personas := req.Personas
	if len(personas) == 0 {
		personas = DefaultPersonas
	}

	sections := make([]string, len(personas))
	var wg sync.WaitGroup
	for i, persona := range personas {
		wg.Add(1)
		go func(i int, persona Persona) {
			defer wg.Done()
			content, err := e.personaReview(ctx, req, persona)
			if err != nil {
				content = fmt.Sprintf("(Failed to generate review: %v)", err)
			}
			sections[i] = fmt.Sprintf("## %s\n\n%s", persona.Name, content)
		}(i, persona)
	}
	wg.Wait()

	return "# Comprehensive Code Review\n\n" + strings.Join(sections, "\n\n"), nil
}

func (e *Engine) personaReview(ctx context.Context, req Request, persona Persona) (string, error) {
	system := fmt.Sprintf("You are a %s reviewing code. Focus exclusively on: %s. "+
		"Be specific and reference the code you are commenting on. Respond in Markdown.",
		persona.Name, persona.Focus)

	resp, err := e.completer.Complete(ctx, req.Provider, contract.CompletionRequest{
		Model:     req.Model,
		APIKey:    req.APIKey,
		System:    system,
		Messages:  []contract.Message{{Role: "user", Content: codePrompt(req.Code)}},
		MaxTokens: reviewMaxTokens,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// structured asks for strict JSON. Parse failure is not an error: the caller
// gets a zero-score review with the raw output recorded.
func (e *Engine) structured(ctx context.Context, req Request) (*StructuredReview, error) {
	resp, err := e.completer.Complete(ctx, req.Provider, contract.CompletionRequest{
		Model:     req.Model,
		APIKey:    req.APIKey,
		System:    structuredSystemPrompt,
		Messages:  []contract.Message{{Role: "user", Content: codePrompt(req.Code)}},
		MaxTokens: reviewMaxTokens,
	})
	if err != nil {
		return nil, err
	}

	review, _ := parseStructuredReview(resp.Content)
	sort.SliceStable(review.Issues, func(i, j int) bool {
		return severityRank(review.Issues[i].Severity) < severityRank(review.Issues[j].Severity)
	})
	return review, nil
}

func codePrompt(code string) string {
	return "Review the following code:\n\n```\n" + code + "\n```"
}

func severityRank(s string) int {
	switch strings.ToLower(s) {
	case "critical":
		return 0
	case "high":
		return 1
	case "medium":
		return 2
	case "low":
		return 3
	default:
		return 4
	}
}
