// Package orchestrator runs one listing workflow end to end: interpret the
// request, plan tasks, sign in to the portal, and work through the tasks one at a
// time.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/catalog"
	"github.com/xkilldash9x/listpilot/internal/command"
	"github.com/xkilldash9x/listpilot/internal/journal"
	"github.com/xkilldash9x/listpilot/internal/llmclient"
	"github.com/xkilldash9x/listpilot/internal/observability"
	"github.com/xkilldash9x/listpilot/internal/platform"
)

// Request is what the operator asked for.
type Request struct {
	Platform string
	// Operation is the operator's menu choice; a recognized operation in the
	// interpreted command replaces it.
	Operation schemas.Operation
	Command   string
	DataFile  string
	ImagesDir string
}

// Summary reports how the tasks went.
type Summary struct {
	RunID     string
	Operation schemas.Operation
	Tasks     int
	Succeeded int
	Failed    int
}

// Interpreter structures a free-text command.
type Interpreter interface {
	Interpret(ctx context.Context, command string) schemas.WorkflowDescriptor
}

// Clarifier asks the operator to fill in an edit that names nothing to act on.
type Clarifier interface {
	Clarify(ctx context.Context, desc schemas.WorkflowDescriptor) (identifier, field, value string, err error)
}

// CredentialSource returns login details for a platform key.
type CredentialSource interface {
	Credentials(ctx context.Context, platform string) (schemas.Credentials, error)
}

// Session is an open browser page the orchestrator owns until the run ends.
type Session interface {
	platform.Page
	Close()
}

// SessionOpener starts a browser session with a persistent profile.
type SessionOpener func(ctx context.Context, profile string) (Session, error)

// Dependencies are the collaborators a run needs. Clarifier may be nil, in which
// case under-specified edits proceed as they are.
type Dependencies struct {
	Interpreter Interpreter
	Runner      platform.Runner
	Journal     *journal.Journal
	Credentials CredentialSource
	Clarifier   Clarifier
	OpenSession SessionOpener
}

// Orchestrator manages the lifecycle of a listing run.
type Orchestrator struct {
	deps      Dependencies
	maxCycles int
	logger    *zap.Logger
}

// New creates an Orchestrator; every dependency except the Clarifier is required.
func New(deps Dependencies, maxCycles int, logger *zap.Logger) (*Orchestrator, error) {
	if deps.Interpreter == nil ||
		deps.Runner == nil ||
		deps.Journal == nil ||
		deps.Credentials == nil ||
		deps.OpenSession == nil ||
		logger == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{deps: deps, maxCycles: maxCycles, logger: logger.Named("orchestrator")}, nil
}

// Run executes req. Errors before the first task are returned; a failed task is
// journaled and the next one proceeds. Cancellation and an unavailable decision
// model stop the run.
func (o *Orchestrator) Run(ctx context.Context, req Request) (Summary, error) {
	j := o.deps.Journal
	logger := observability.WithRun(o.logger, j.RunID(), req.Platform)
	summary := Summary{RunID: j.RunID()}

	if err := validate(&req); err != nil {
		return summary, err
	}
	o.record(ctx, logger, journal.EventUserInput, map[string]interface{}{
		"platform":      req.Platform,
		"operation":     string(req.Operation),
		"command":       req.Command,
		"data_file":     req.DataFile,
		"images_folder": req.ImagesDir,
	})

	market, err := platform.Lookup(req.Platform, o.deps.Runner, o.maxCycles, o.logger)
	if err != nil {
		return summary, err
	}

	products := catalog.LoadForOperation(req.Operation, req.DataFile, logger)

	creds, err := o.deps.Credentials.Credentials(ctx, strings.ToLower(strings.TrimSpace(req.Platform)))
	if err != nil {
		return summary, fmt.Errorf("credentials for %s: %w", req.Platform, err)
	}

	desc := o.deps.Interpreter.Interpret(ctx, req.Command)
	op := desc.Operation
	if op == "" {
		op = req.Operation
	}
	desc.Operation = op
	summary.Operation = op

	if command.NeedsClarification(desc, len(products)) && o.deps.Clarifier != nil {
		identifier, field, value, err := o.deps.Clarifier.Clarify(ctx, desc)
		if err != nil {
			return summary, fmt.Errorf("clarification: %w", err)
		}
		desc = command.ApplyClarification(desc, identifier, field, value)
	}
	o.record(ctx, logger, journal.EventWorkflow, map[string]interface{}{
		"operation":       string(op),
		"workflow":        desc,
		"products_loaded": len(products),
	})

	tasks := catalog.BuildTasks(op, products, desc)
	summary.Tasks = len(tasks)
	o.record(ctx, logger, journal.EventTaskPlan, map[string]interface{}{
		"operation":  string(op),
		"task_count": len(tasks),
	})
	logger.Info("Planned tasks.", zap.String("operation", string(op)), zap.Int("tasks", len(tasks)))

	var images map[string][]string
	if op == schemas.OperationNewListing {
		if images, err = catalog.PreloadImages(ctx, req.ImagesDir, catalog.SKUs(tasks), logger); err != nil {
			return summary, err
		}
	}

	session, err := o.deps.OpenSession(ctx, market.Profile())
	if err != nil {
		return summary, fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	if err := market.Login(ctx, session, creds); err != nil {
		return summary, fmt.Errorf("login: %w", err)
	}

	for _, task := range tasks {
		taskErr := o.process(ctx, market, session, op, task, images[task.SKU])
		if taskErr == nil {
			summary.Succeeded++
			o.record(ctx, logger, journal.EventTaskResult, map[string]interface{}{"sku": task.SKU, "status": "success"})
			continue
		}

		summary.Failed++
		o.record(ctx, logger, journal.EventTaskResult, map[string]interface{}{
			"sku":    task.SKU,
			"status": "failed",
			"error":  taskErr.Error(),
		})
		logger.Error("Failed processing task.", zap.String("sku", task.SKU), zap.Error(taskErr))

		if abortsRun(ctx, taskErr) {
			return summary, taskErr
		}
	}

	logger.Info("Run finished.", zap.Int("succeeded", summary.Succeeded), zap.Int("failed", summary.Failed))
	return summary, nil
}

func (o *Orchestrator) process(ctx context.Context, market platform.Marketplace, page platform.Page, op schemas.Operation, task schemas.ListingTask, images []string) error {
	switch {
	case op == schemas.OperationNewListing:
		if task.Product == nil {
			return errors.New("missing product payload for new listing task")
		}
		return market.CreateListing(ctx, page, task.Product, images)
	case op.IsEdit():
		updates := task.Updates
		if updates == nil {
			updates = map[string]interface{}{}
		}
		return market.EditListing(ctx, page, updates, task.SKU)
	default:
		return fmt.Errorf("unsupported operation: %s", op)
	}
}

// record journals an event; write failures are logged only.
func (o *Orchestrator) record(ctx context.Context, logger *zap.Logger, typ journal.EventType, payload map[string]interface{}) {
	if err := o.deps.Journal.Append(ctx, typ, payload); err != nil {
		logger.Warn("Failed to write journal event.", zap.String("event_type", string(typ)), zap.Error(err))
	}
}

// validate checks req and normalizes its operation.
func validate(req *Request) error {
	if strings.TrimSpace(req.Platform) == "" {
		return errors.New("platform is required")
	}
	if strings.TrimSpace(string(req.Operation)) == "" {
		return errors.New("operation is required")
	}
	op, ok := schemas.ParseOperation(string(req.Operation))
	if !ok {
		return fmt.Errorf("unsupported operation: %s", req.Operation)
	}
	req.Operation = op
	if req.Operation == schemas.OperationNewListing && strings.TrimSpace(req.DataFile) == "" {
		return errors.New("product data file is required for new listings")
	}
	return nil
}

func abortsRun(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, llmclient.ErrModelUnavailable)
}
