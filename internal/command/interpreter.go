// Package command turns a user's free-text request into a WorkflowDescriptor.
package command

import (
	"context"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/llmutil"
)

const interpretPrompt = `Convert the user instruction into a listing workflow JSON object.
Instruction: %s

Return strict JSON only:
{
  "operation": "new_listing|edit_listing|bulk_update",
  "updates": {"field": "value"},
  "filters": {"field": "value used to find the listing when no sku is given"},
  "sku": "optional",
  "notes": "short text"
}`

// descriptorPayload is the lenient wire form of the model's answer.
type descriptorPayload struct {
	Operation string                 `json:"operation"`
	Updates   map[string]interface{} `json:"updates"`
	Filters   map[string]interface{} `json:"filters"`
	SKU       interface{}            `json:"sku"`
	Notes     string                 `json:"notes"`
}

// Interpreter asks the decision model to structure a command and falls back to
// ParseFallback whenever that does not produce a usable object.
type Interpreter struct {
	generator schemas.TextGenerator
	logger    *zap.Logger
}

// NewInterpreter creates an Interpreter. A nil generator means offline mode: every
// command goes straight to the fallback parser.
func NewInterpreter(generator schemas.TextGenerator, logger *zap.Logger) *Interpreter {
	return &Interpreter{
		generator: generator,
		logger:    logger.Named("command_interpreter"),
	}
}

// Interpret never fails; the worst case is the fallback parser's result.
func (in *Interpreter) Interpret(ctx context.Context, command string) schemas.WorkflowDescriptor {
	fallback := ParseFallback(command)
	if in.generator == nil {
		in.logger.Info("No decision model configured, using fallback parser.")
		return fallback
	}

	desc, err := in.interpretWithModel(ctx, command)
	if err != nil {
		in.logger.Warn("Model interpretation failed, using fallback parser.",
			zap.String("command", command), zap.Error(err))
		return fallback
	}

	// An operation the model made up is replaced by the rule-based one.
	if _, ok := schemas.ParseOperation(string(desc.Operation)); !ok {
		in.logger.Debug("Model returned an unknown operation.", zap.String("operation", string(desc.Operation)))
		desc.Operation = fallback.Operation
	}
	desc.Normalize()
	return desc
}

func (in *Interpreter) interpretWithModel(ctx context.Context, command string) (schemas.WorkflowDescriptor, error) {
	text, err := in.generator.Generate(ctx, schemas.GenerationRequest{
		Prompt:    fmt.Sprintf(interpretPrompt, command),
		ForceJSON: true,
	})
	if err != nil {
		return schemas.WorkflowDescriptor{}, err
	}

	if kind := json.Get([]byte(llmutil.Extract(text))).ValueType(); kind != json.ObjectValue {
		return schemas.WorkflowDescriptor{}, fmt.Errorf("%w: expected a JSON object", llmutil.ErrMalformedPayload)
	}
	payload, err := llmutil.ParseJSONResponse[descriptorPayload](text)
	if err != nil {
		return schemas.WorkflowDescriptor{}, err
	}

	desc := schemas.WorkflowDescriptor{
		Operation: schemas.Operation(strings.ToLower(strings.TrimSpace(payload.Operation))),
		Updates:   payload.Updates,
		Filters:   payload.Filters,
		Notes:     payload.Notes,
	}
	switch sku := payload.SKU.(type) {
	case nil:
	case string:
		desc.SKU = sku
	default:
		desc.SKU = fmt.Sprint(sku)
	}
	return desc, nil
}
