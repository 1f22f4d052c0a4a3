package anthropic

import (
	"context"
	"errors"

	julesErrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/model/contract"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultModel     = anthropic.ModelClaude3_5SonnetLatest
	defaultMaxTokens = 1024
)

// Advisory list only; the messages API has no cheap model listing worth a
// network round-trip here.
var fallbackModels = []string{
	string(anthropic.ModelClaudeSonnet4_5),
	string(anthropic.ModelClaude3_5SonnetLatest),
	string(anthropic.ModelClaude3_5HaikuLatest),
}

type Provider struct{}

func New() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string {
	return "anthropic"
}

func (p *Provider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if req.APIKey == "" {
		return nil, julesErrors.Configuration("API key required for Anthropic provider")
	}

	client := anthropic.NewClient(option.WithAPIKey(req.APIKey))

	var messages []anthropic.MessageParam
	for _, m := range req.Messages {
		switch m.Role {
		case "assistant":
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	modelName := req.Model
	if modelName == "" {
		modelName = string(defaultModel)
	}
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(modelName),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, julesErrors.Wrap(mapAPIError(err), "anthropic request failed")
	}

	resp := &contract.CompletionResponse{
		Usage: &contract.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}
	for _, block := range msg.Content {
		if b, ok := block.AsAny().(anthropic.TextBlock); ok {
			resp.Content += b.Text
		}
	}

	return resp, nil
}

func (p *Provider) ListModels(ctx context.Context, apiKey string) []string {
	return fallbackModels
}

func mapAPIError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == 429 {
			return julesErrors.Transient(apiErr.Error())
		}
		return julesErrors.Providerf("status %d: %s", apiErr.StatusCode, apiErr.Error())
	}
	return julesErrors.Transient(err.Error())
}
