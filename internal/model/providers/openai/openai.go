package openai

import (
	"context"

	julesErrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/model/contract"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultModel     = "gpt-4o"
	defaultMaxTokens = 1000
)

var fallbackModels = []string{"gpt-4o", "gpt-4-turbo", "gpt-3.5-turbo"}

// Provider adapts the OpenAI chat completion API. Clients are built per call
// from the request API key, so there is no shared mutable state between calls.
type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "openai"
}

func (p *Provider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if req.APIKey == "" {
		return nil, julesErrors.Configuration("API key required for OpenAI provider")
	}

	client := openai.NewClient(req.APIKey)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := m.Role
		if role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant && role != openai.ChatMessageRoleSystem {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    role,
			Content: m.Content,
			Name:    m.Name,
		})
	}

	model := req.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return nil, julesErrors.Wrap(mapAPIError(err), "openai request failed")
	}
	if len(resp.Choices) == 0 {
		return nil, julesErrors.Providerf("openai returned no choices")
	}

	return &contract.CompletionResponse{
		Content: resp.Choices[0].Message.Content,
		Usage: &contract.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// ListModels is advisory: any failure falls back to a static list.
func (p *Provider) ListModels(ctx context.Context, apiKey string) []string {
	if apiKey == "" {
		return fallbackModels
	}

	client := openai.NewClient(apiKey)
	resp, err := client.ListModels(ctx)
	if err != nil || len(resp.Models) == 0 {
		return fallbackModels
	}

	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.ID)
	}
	return models
}

func mapAPIError(err error) error {
	if apiErr, ok := err.(*openai.APIError); ok {
		if apiErr.HTTPStatusCode == 429 {
			return julesErrors.Transient(apiErr.Message)
		}
		return julesErrors.Providerf("status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}
	return julesErrors.Transient(err.Error())
}
