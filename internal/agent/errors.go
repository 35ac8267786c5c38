// internal/agent/errors.go
package agent

import (
	"errors"
	"fmt"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

// ErrorCode is attached to log entries so degraded cycles can be grouped.
type ErrorCode string

const (
	ErrCodeTargetNotFound      ErrorCode = "TARGET_NOT_FOUND"
	ErrCodeInteractionFailed   ErrorCode = "INTERACTION_FAILED"
	ErrCodeResponseParse       ErrorCode = "RESPONSE_PARSE_ERROR"
	ErrCodeUnknownAction       ErrorCode = "UNKNOWN_ACTION_TYPE"
	ErrCodeSnapshotFailed      ErrorCode = "SNAPSHOT_FAILED"
	ErrCodeModelUnavailable    ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeBudgetExhausted     ErrorCode = "ACTION_BUDGET_EXHAUSTED"
	ErrCodeManualIntervention  ErrorCode = "MANUAL_INTERVENTION"
	ErrCodeSnapshotWriteFailed ErrorCode = "SNAPSHOT_WRITE_FAILED"
)

var (
	// ErrActionBudgetExhausted is matched by every *BudgetExhaustedError.
	ErrActionBudgetExhausted = errors.New("action budget exhausted")
	// ErrResponseParse marks model text that could not become an ActionDecision.
	// The loop recovers from it with a safe wait decision.
	ErrResponseParse = errors.New("response parse error")
)

// BudgetExhaustedError reports a loop that ran every cycle without a terminal action.
type BudgetExhaustedError struct {
	Cycles   int
	LastRisk schemas.Risk
}

func (e *BudgetExhaustedError) Error() string {
	return fmt.Sprintf("could not complete task within %d cycles (last risk: %s)", e.Cycles, e.LastRisk)
}

// Is lets errors.Is(err, ErrActionBudgetExhausted) match.
func (e *BudgetExhaustedError) Is(target error) bool {
	return target == ErrActionBudgetExhausted
}
