// internal/llmclient/factory.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/config"
)

// NewProvider creates the ModelProvider named by cfg.Provider.
func NewProvider(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (schemas.ModelProvider, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiProvider(ctx, cfg, logger, "")
	default:
		return nil, fmt.Errorf("unknown or unsupported model provider configured: '%s'. Supported: [%s]", cfg.Provider, config.ProviderGemini)
	}
}

// NewClient builds the provider for cfg and wraps it in an Invoker.
func NewClient(ctx context.Context, cfg config.ModelConfig, logger *zap.Logger) (*Invoker, error) {
	provider, err := NewProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewInvoker(provider, cfg, logger), nil
}
