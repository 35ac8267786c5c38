package llmclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/config"
)

// MockModelProvider is a mock implementation of schemas.ModelProvider for testing.
type MockModelProvider struct {
	mock.Mock
}

func (m *MockModelProvider) Generate(ctx context.Context, model string, req schemas.GenerationRequest) (string, error) {
	args := m.Called(ctx, model, req)
	return args.String(0), args.Error(1)
}

func (m *MockModelProvider) ListCapableModels(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]string)
	return ids, args.Error(1)
}

// setupTestLogger returns a logger and the observer capturing its entries.
func setupTestLogger(t *testing.T) (*zap.Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return zap.New(core), logs
}

// getValidModelConfig returns a ModelConfig with pacing disabled.
func getValidModelConfig() config.ModelConfig {
	return config.ModelConfig{
		Provider:    config.ProviderGemini,
		Model:       "model-a",
		Candidates:  []string{"model-b", "model-c"},
		APIKey:      "test-api-key",
		APITimeout:  5 * time.Second,
		Temperature: 0.2,
		MaxTokens:   256,
	}
}
