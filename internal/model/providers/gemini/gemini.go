package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	julesErrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/model/contract"

	"google.golang.org/genai"
)

const (
	defaultModel     = "gemini-1.5-flash"
	defaultMaxTokens = 300

	listModelsURL = "https://generativelanguage.googleapis.com/v1beta/models"

	// Rate-limit backoff: 2s initial, doubled per attempt, at most 3 retries.
	backoffInitial = 2 * time.Second
	maxRetries     = 3
)

var fallbackModels = []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-1.0-pro"}

type Provider struct {
	httpClient *http.Client
}

func New() *Provider {
	return &Provider{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

func (p *Provider) Name() string {
	return "gemini"
}

func (p *Provider) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	if req.APIKey == "" {
		return nil, julesErrors.Configuration("API key required for Gemini provider")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: req.APIKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, julesErrors.Wrap(err, "create gemini client")
	}

	model := strings.TrimPrefix(req.Model, "models/")
	if model == "" {
		model = defaultModel
	}

	var contents []*genai.Content
	for _, m := range req.Messages {
		role := genai.RoleUser
		if m.Role == "assistant" {
			role = genai.RoleModel
		}
		contents = append(contents, &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}})
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	cfg := &genai.GenerateContentConfig{MaxOutputTokens: int32(maxTokens)}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}

	resp, err := p.generateWithBackoff(ctx, client, model, contents, cfg)
	if err != nil {
		return nil, err
	}

	out := &contract.CompletionResponse{}
	if resp == nil {
		return out, nil
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				out.Content += part.Text
			}
		}
	}
	if resp.UsageMetadata != nil {
		out.Usage = &contract.Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return out, nil
}

// generateWithBackoff retries only rate-limit responses; other error classes
// surface immediately.
func (p *Provider) generateWithBackoff(ctx context.Context, client *genai.Client, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	backoff := backoffInitial

	for attempt := 0; ; attempt++ {
		resp, err := client.Models.GenerateContent(ctx, model, contents, cfg)
		if err == nil {
			return resp, nil
		}

		mapped := mapAPIError(err)
		if !isRateLimited(err) || attempt >= maxRetries {
			return nil, julesErrors.Wrap(mapped, "gemini request failed")
		}

		slog.Warn("Gemini rate limited, backing off", "attempt", attempt+1, "backoff", backoff)
		select {
		case <-ctx.Done():
			return nil, julesErrors.Wrap(ctx.Err(), "gemini request cancelled")
		case <-time.After(backoff):
		}
		backoff *= 2
	}
}

// ListModels queries the v1beta models endpoint directly; any failure falls
// back to a static list since listing is advisory.
func (p *Provider) ListModels(ctx context.Context, apiKey string) []string {
	if apiKey == "" {
		return fallbackModels
	}

	endpoint := fmt.Sprintf("%s?key=%s", listModelsURL, url.QueryEscape(apiKey))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fallbackModels
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		slog.Warn("Failed to list Gemini models, falling back to defaults", "error", err)
		return fallbackModels
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Warn("Gemini model listing returned non-OK status, falling back to defaults", "status", resp.StatusCode)
		return fallbackModels
	}

	var payload struct {
		Models []struct {
			Name                       string   `json:"name"`
			SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return fallbackModels
	}

	var models []string
	for _, m := range payload.Models {
		if !strings.Contains(m.Name, "gemini") {
			continue
		}
		supported := false
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				supported = true
				break
			}
		}
		if supported {
			models = append(models, strings.TrimPrefix(m.Name, "models/"))
		}
	}
	if len(models) == 0 {
		return fallbackModels
	}
	return models
}

func isRateLimited(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "resource_exhausted")
}

func mapAPIError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusTooManyRequests {
			return julesErrors.Transient(apiErr.Message)
		}
		return julesErrors.Providerf("status %d: %s", apiErr.Code, apiErr.Message)
	}
	return julesErrors.Transient(err.Error())
}
