// internal/llmclient/invoker.go
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/config"
)

// ErrModelUnavailable means both the active model and the discovered alternate failed.
var ErrModelUnavailable = errors.New("decision model unavailable")

// Endpoint is the invoker's model selection state. It belongs to exactly one Invoker.
type Endpoint struct {
	// Active is the identifier used for the next request.
	Active string
	// Candidates are known-good identifiers, in preference order, tried after a failure.
	Candidates []string
}

// Invoker sends generation requests to the active model and, when a request fails,
// switches to a discovered alternate and retries exactly once.
type Invoker struct {
	provider schemas.ModelProvider
	logger   *zap.Logger
	limiter  *rate.Limiter

	mu       sync.Mutex
	endpoint Endpoint
}

var _ schemas.TextGenerator = (*Invoker)(nil)

// NewInvoker creates an Invoker over provider. A zero RequestsPerMinute disables pacing.
func NewInvoker(provider schemas.ModelProvider, cfg config.ModelConfig, logger *zap.Logger) *Invoker {
	inv := &Invoker{
		provider: provider,
		logger:   logger.Named("model_invoker"),
		endpoint: Endpoint{
			Active:     cfg.Model,
			Candidates: append([]string(nil), cfg.Candidates...),
		},
	}
	if cfg.RequestsPerMinute > 0 {
		inv.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return inv
}

// ActiveModel returns the identifier the next request will use.
func (i *Invoker) ActiveModel() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.endpoint.Active
}

func (i *Invoker) setActive(model string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.endpoint.Active = model
}

// Generate returns the raw model text for req. Failures that survive the single
// alternate-model retry wrap ErrModelUnavailable.
func (i *Invoker) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	model := i.ActiveModel()
	text, err := i.call(ctx, model, req)
	if err == nil {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	i.logger.Warn("Model request failed, attempting discovery of an alternate model.",
		zap.String("model", model), zap.Error(err))

	alternate, derr := i.discover(ctx, model)
	if derr != nil {
		i.logger.Error("Model discovery failed.", zap.Error(derr))
		return "", fmt.Errorf("%w: %s failed (%v) and discovery failed: %v", ErrModelUnavailable, model, err, derr)
	}
	if alternate == "" {
		i.logger.Error("No alternate model available.", zap.String("model", model))
		return "", fmt.Errorf("%w: %s failed and no alternate was discovered: %v", ErrModelUnavailable, model, err)
	}

	i.setActive(alternate)
	i.logger.Info("Switched active model.", zap.String("from", model), zap.String("to", alternate))

	text, err = i.call(ctx, alternate, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		i.logger.Error("Retry against alternate model failed.", zap.String("model", alternate), zap.Error(err))
		return "", fmt.Errorf("%w: retry against %s failed: %v", ErrModelUnavailable, alternate, err)
	}
	return text, nil
}

func (i *Invoker) call(ctx context.Context, model string, req schemas.GenerationRequest) (string, error) {
	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait: %w", err)
		}
	}
	text, err := i.provider.Generate(ctx, model, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("model %s returned empty text", model)
	}
	return text, nil
}

// discover picks the next model: known-good candidates the provider reports as capable
// come first, in candidate order, followed by any other capable ids. Already-tried ids
// are skipped. An empty result means nothing usable was found.
func (i *Invoker) discover(ctx context.Context, tried string) (string, error) {
	capable, err := i.provider.ListCapableModels(ctx)
	if err != nil {
		return "", err
	}

	i.mu.Lock()
	candidates := append([]string(nil), i.endpoint.Candidates...)
	i.mu.Unlock()

	ordered := OrderCandidates(candidates, capable, tried)
	i.logger.Debug("Model discovery complete.",
		zap.Strings("capable", capable), zap.Strings("ordered", ordered))
	if len(ordered) == 0 {
		return "", nil
	}
	return ordered[0], nil
}

// OrderCandidates intersects known with capable (keeping known's order), appends the
// remaining capable ids, and removes every id listed in exclude.
func OrderCandidates(known, capable []string, exclude ...string) []string {
	available := make(map[string]bool, len(capable))
	for _, id := range capable {
		available[id] = true
	}
	seen := make(map[string]bool, len(capable)+len(exclude))
	for _, id := range exclude {
		seen[id] = true
	}

	ordered := make([]string, 0, len(capable))
	for _, id := range known {
		if available[id] && !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	for _, id := range capable {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	return ordered
}
