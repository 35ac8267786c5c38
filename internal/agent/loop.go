// internal/agent/loop.go
package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/humanoid"
)

// DefaultMaxCycles bounds a loop when the caller passes a non-positive budget.
const DefaultMaxCycles = 12

type loopState int

const (
	stateCycling loopState = iota
	stateSucceeded
	stateExhausted
)

func (s loopState) String() string {
	switch s {
	case stateCycling:
		return "cycling"
	case stateSucceeded:
		return "succeeded"
	case stateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Loop runs perceive-decide-act cycles until the model signals done or the cycle
// budget runs out.
type Loop struct {
	decider     DecisionMaker
	executor    *Executor
	human       *humanoid.Humanoid
	logger      *zap.Logger
	snapshotDir string
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithSnapshotDir writes each cycle's screenshot to dir as llm_cycle_<n>.png.
func WithSnapshotDir(dir string) LoopOption {
	return func(l *Loop) { l.snapshotDir = dir }
}

// NewLoop creates a Loop.
func NewLoop(decider DecisionMaker, executor *Executor, human *humanoid.Humanoid, logger *zap.Logger, opts ...LoopOption) *Loop {
	l := &Loop{
		decider:  decider,
		executor: executor,
		human:    human,
		logger:   logger.Named("execution_loop"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run drives surface toward instruction. It returns nil once a cycle dispatches a
// terminal action, a *BudgetExhaustedError after maxCycles cycles without one, and
// any model unavailability, snapshot failure, or context error as-is.
func (l *Loop) Run(ctx context.Context, surface schemas.Surface, instruction string, maxCycles int) error {
	if maxCycles <= 0 {
		maxCycles = DefaultMaxCycles
	}
	logger := l.logger.With(zap.String("instruction", instruction), zap.Int("max_cycles", maxCycles))
	logger.Info("Starting execution loop.")

	state := stateCycling
	cycle := 0
	lastRisk := schemas.RiskNone

	for state == stateCycling {
		if cycle >= maxCycles {
			state = stateExhausted
			break
		}

		terminal, risk, err := l.runCycle(ctx, surface, instruction, cycle, logger)
		if err != nil {
			return err
		}
		lastRisk = risk
		cycle++
		if terminal {
			state = stateSucceeded
		}
	}

	logger.Info("Execution loop finished.", zap.Stringer("state", state), zap.Int("cycles", cycle))
	if state == stateExhausted {
		logger.Error("Execution loop exhausted its cycle budget.",
			zap.String("error_code", string(ErrCodeBudgetExhausted)),
			zap.String("last_risk", string(lastRisk)))
		return &BudgetExhaustedError{Cycles: maxCycles, LastRisk: lastRisk}
	}
	return nil
}

// runCycle performs one snapshot, one decision, and the in-order dispatch of its items.
func (l *Loop) runCycle(ctx context.Context, surface schemas.Surface, instruction string, cycle int, logger *zap.Logger) (bool, schemas.Risk, error) {
	logger = logger.With(zap.Int("cycle", cycle))

	snapshot, err := surface.CaptureSnapshot(ctx)
	if err != nil {
		logger.Error("Failed to capture snapshot.", zap.String("error_code", string(ErrCodeSnapshotFailed)), zap.Error(err))
		return false, schemas.RiskNone, fmt.Errorf("cycle %d: capture snapshot: %w", cycle, err)
	}
	l.persistSnapshot(snapshot, cycle, logger)

	decision, err := l.decider.Decide(ctx, snapshot, instruction)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("Decision model unavailable.", zap.String("error_code", string(ErrCodeModelUnavailable)), zap.Error(err))
		}
		return false, schemas.RiskNone, fmt.Errorf("cycle %d: %w", cycle, err)
	}
	logger.Debug("Decision received.",
		zap.Int("actions", len(decision.Actions)),
		zap.Bool("terminal", decision.HasTerminal()),
		zap.String("screen_state", decision.ScreenState),
		zap.String("risk", string(decision.Risk)))

	switch {
	case decision.Risk.NeedsManualIntervention():
		logger.Warn("Risk detected. Waiting for manual intervention.",
			zap.String("risk", string(decision.Risk)),
			zap.String("error_code", string(ErrCodeManualIntervention)))
		if err := l.human.Pause(ctx, surface, humanoid.DelayRiskPause); err != nil {
			return false, decision.Risk, err
		}
	case decision.Risk == schemas.RiskPopup || decision.Risk == schemas.RiskError:
		logger.Warn("Decision reported a risk signal.", zap.String("risk", string(decision.Risk)))
	}

	for i, item := range decision.Actions {
		terminal, err := l.executor.Execute(ctx, surface, item)
		if err != nil {
			return false, decision.Risk, err
		}
		if terminal {
			logger.Info("Task complete.", zap.Int("action_index", i))
			return true, decision.Risk, nil
		}
	}
	return false, decision.Risk, nil
}

func (l *Loop) persistSnapshot(snapshot []byte, cycle int, logger *zap.Logger) {
	if l.snapshotDir == "" {
		return
	}
	if err := os.MkdirAll(l.snapshotDir, 0o755); err != nil {
		logger.Warn("Could not create snapshot directory.", zap.String("error_code", string(ErrCodeSnapshotWriteFailed)), zap.Error(err))
		return
	}
	path := filepath.Join(l.snapshotDir, fmt.Sprintf("llm_cycle_%d.png", cycle))
	if err := os.WriteFile(path, snapshot, 0o644); err != nil {
		logger.Warn("Could not write snapshot.", zap.String("path", path), zap.String("error_code", string(ErrCodeSnapshotWriteFailed)), zap.Error(err))
	}
}

// NewDefaultLoop wires the standard resolver, executor, and model-backed decider.
func NewDefaultLoop(generator schemas.TextGenerator, human *humanoid.Humanoid, logger *zap.Logger, opts ...LoopOption) *Loop {
	executor := NewExecutor(NewResolver(logger), human, logger)
	return NewLoop(NewDecider(generator, logger), executor, human, logger, opts...)
}
