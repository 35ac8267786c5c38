// internal/agent/decider.go
package agent

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/llmutil"
)

// DecisionMaker produces the ActionDecision for one cycle.
type DecisionMaker interface {
	Decide(ctx context.Context, snapshot []byte, instruction string) (schemas.ActionDecision, error)
}

// Decider asks the decision model what to do next given a screenshot.
type Decider struct {
	generator schemas.TextGenerator
	logger    *zap.Logger
}

// NewDecider creates a Decider over a model invoker.
func NewDecider(generator schemas.TextGenerator, logger *zap.Logger) *Decider {
	return &Decider{
		generator: generator,
		logger:    logger.Named("decider"),
	}
}

// Decide returns the model's decision. Unparseable or empty answers become a safe
// wait decision with risk "error"; only model invocation failures are returned.
func (d *Decider) Decide(ctx context.Context, snapshot []byte, instruction string) (schemas.ActionDecision, error) {
	text, err := d.generator.Generate(ctx, schemas.GenerationRequest{
		SystemPrompt: decisionSystemPrompt,
		Prompt:       decisionPrompt(instruction),
		Image:        snapshot,
		ImageMIME:    "image/png",
		ForceJSON:    true,
	})
	if err != nil {
		return schemas.ActionDecision{}, fmt.Errorf("decision request failed: %w", err)
	}

	decision, err := parseDecision(text)
	if err != nil {
		d.logger.Warn("Model returned an unusable decision. Falling back to safe wait.",
			zap.String("error_code", string(ErrCodeResponseParse)),
			zap.String("raw_response", llmutil.Truncate(text, 500)),
			zap.Error(err))
		return schemas.SafeWaitDecision("Fallback due to non-JSON response"), nil
	}
	return decision, nil
}

func parseDecision(text string) (schemas.ActionDecision, error) {
	decision, err := llmutil.ParseJSONResponse[schemas.ActionDecision](text)
	if err != nil {
		return schemas.ActionDecision{}, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}
	if err := decision.Validate(); err != nil {
		return schemas.ActionDecision{}, fmt.Errorf("%w: %v", ErrResponseParse, err)
	}
	if decision.Risk == "" {
		decision.Risk = schemas.RiskNone
	}
	return *decision, nil
}
