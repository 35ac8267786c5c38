// internal/llmclient/gemini_client.go
package llmclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/config"
)

// generateAction is the capability a model must advertise to be a fallback candidate.
const generateAction = "generateContent"

// GeminiProvider implements schemas.ModelProvider on the Google GenAI SDK.
type GeminiProvider struct {
	client *genai.Client
	logger *zap.Logger
	config config.ModelConfig
}

// NewGeminiProvider initializes the SDK client. baseURL is only set by tests.
func NewGeminiProvider(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger, baseURL string) (*GeminiProvider, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions.BaseURL = baseURL
	}
	if cfg.APITimeout > 0 {
		cc.HTTPOptions.Timeout = genai.Ptr(cfg.APITimeout)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{
		client: client,
		logger: logger.Named("llm_client.gemini"),
		config: cfg,
	}, nil
}

// Generate sends one request to the named model and returns its text.
func (p *GeminiProvider) Generate(ctx context.Context, model string, req schemas.GenerationRequest) (string, error) {
	parts := []*genai.Part{genai.NewPartFromText(req.Prompt)}
	if len(req.Image) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/png"
		}
		parts = append(parts, genai.NewPartFromBytes(req.Image, mime))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	startTime := time.Now()
	resp, err := p.client.Models.GenerateContent(ctx, model, contents, p.buildConfig(req))
	duration := time.Since(startTime)
	if err != nil {
		return "", fmt.Errorf("gemini request to %s failed: %w", model, err)
	}

	fields := []zap.Field{zap.String("model", model), zap.Duration("duration", duration)}
	if usage := resp.UsageMetadata; usage != nil {
		fields = append(fields,
			zap.Int32("prompt_tokens", usage.PromptTokenCount),
			zap.Int32("completion_tokens", usage.CandidatesTokenCount),
			zap.Int32("total_tokens", usage.TotalTokenCount),
		)
	}
	p.logger.Debug("LLM generation complete (Gemini)", fields...)

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		reason := "no candidates"
		if len(resp.Candidates) > 0 {
			reason = string(resp.Candidates[0].FinishReason)
		}
		return "", fmt.Errorf("gemini model %s returned empty content (reason: %s)", model, reason)
	}
	return text, nil
}

func (p *GeminiProvider) buildConfig(req schemas.GenerationRequest) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(p.config.Temperature),
	}
	if p.config.MaxTokens > 0 {
		gc.MaxOutputTokens = int32(p.config.MaxTokens)
	}
	if req.ForceJSON {
		gc.ResponseMIMEType = "application/json"
	}
	if req.SystemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	return gc
}

// ListCapableModels returns the ids of every model that supports content generation,
// without the "models/" resource prefix.
func (p *GeminiProvider) ListCapableModels(ctx context.Context) ([]string, error) {
	var ids []string
	for m, err := range p.client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list gemini models: %w", err)
		}
		if !supports(m.SupportedActions, generateAction) {
			continue
		}
		ids = append(ids, strings.TrimPrefix(m.Name, "models/"))
	}
	return ids, nil
}

func supports(actions []string, want string) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}
