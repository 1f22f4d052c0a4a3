package qwen

import (
	"context"

	julesErrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/model/contract"

	"github.com/sashabaranov/go-openai"
)

// DashScope exposes an OpenAI-compatible surface, so this provider reuses the
// OpenAI client against a different base URL.
const (
	baseURL          = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	defaultModel     = "qwen-plus"
	defaultMaxTokens = 1000
)

var fallbackModels = []string{"qwen-max", "qwen-plus", "qwen-turbo"}

type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "qwen"
}

func (p *Provider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if req.APIKey == "" {
		return nil, julesErrors.Configuration("API key required for Qwen provider")
	}

	cfg := openai.DefaultConfig(req.APIKey)
	cfg.BaseURL = baseURL
	client := openai.NewClientWithConfig(cfg)

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		role := m.Role
		if role != openai.ChatMessageRoleUser && role != openai.ChatMessageRoleAssistant {
			role = openai.ChatMessageRoleUser
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
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
		return nil, julesErrors.Wrap(mapAPIError(err), "qwen request failed")
	}
	if len(resp.Choices) == 0 {
		return nil, julesErrors.Providerf("qwen returned no choices")
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

func (p *Provider) ListModels(ctx context.Context, apiKey string) []string {
	return fallbackModels
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
