// internal/agent/executor.go
package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/humanoid"
)

const defaultPressKey = "Enter"

// Executor performs a single ActionItem against a surface with humanized pacing.
type Executor struct {
	resolver *Resolver
	human    *humanoid.Humanoid
	logger   *zap.Logger
}

// NewExecutor creates an Executor.
func NewExecutor(resolver *Resolver, human *humanoid.Humanoid, logger *zap.Logger) *Executor {
	return &Executor{
		resolver: resolver,
		human:    human,
		logger:   logger.Named("action_executor"),
	}
}

// Execute runs item and reports whether it was terminal. An unresolved target or a
// failed interaction degrades to a logged no-op with a short pause; err is non-nil
// only when the context ends.
func (e *Executor) Execute(ctx context.Context, surface schemas.Surface, item schemas.ActionItem) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	if !item.Kind.Valid() {
		e.logger.Debug("Unknown action kind, treating as wait.",
			zap.String("kind", string(item.Kind)),
			zap.String("error_code", string(ErrCodeUnknownAction)))
		return false, e.human.Pause(ctx, surface, humanoid.DelayWait)
	}
	if item.Kind.NeedsTarget() {
		return false, e.interact(ctx, surface, item)
	}

	switch item.Kind {
	case schemas.ActionDone:
		e.logger.Info("Terminal action received.", zap.String("reason", item.Reason))
		return true, nil
	case schemas.ActionScroll:
		return false, e.scroll(ctx, surface, item.Value)
	case schemas.ActionPress:
		return false, e.press(ctx, surface, item.Value)
	default:
		return false, e.human.Pause(ctx, surface, humanoid.DelayWait)
	}
}

func (e *Executor) interact(ctx context.Context, surface schemas.Surface, item schemas.ActionItem) error {
	el, found := e.resolver.Resolve(ctx, surface, item.Target)
	if !found {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.logger.Warn("Could not find target for action.",
			zap.String("target", item.Target),
			zap.String("action", string(item.Kind)),
			zap.String("error_code", string(ErrCodeTargetNotFound)))
		return e.human.Pause(ctx, surface, humanoid.DelayUnresolved)
	}

	var err error
	switch item.Kind {
	case schemas.ActionClick:
		err = e.click(ctx, surface, el)
	case schemas.ActionHover:
		if err = surface.Hover(ctx, el); err == nil {
			err = e.human.Pause(ctx, surface, humanoid.DelaySettle)
		}
	case schemas.ActionType:
		err = e.typeText(ctx, surface, el, item.Value)
	case schemas.ActionUpload:
		if err = surface.Upload(ctx, el, item.Value); err == nil {
			// Uploads get their own longer pause instead of the settle delay.
			err = e.human.Pause(ctx, surface, humanoid.DelayUpload)
		}
	}
	if err != nil {
		return e.degrade(ctx, surface, item, err)
	}
	return nil
}

func (e *Executor) click(ctx context.Context, surface schemas.Surface, el schemas.Element) error {
	if err := surface.Hover(ctx, el); err != nil {
		return err
	}
	if err := e.human.Pause(ctx, surface, humanoid.DelayHoverGap); err != nil {
		return err
	}
	if err := surface.Click(ctx, el); err != nil {
		return err
	}
	return e.human.Pause(ctx, surface, humanoid.DelaySettle)
}

func (e *Executor) typeText(ctx context.Context, surface schemas.Surface, el schemas.Element, value string) error {
	if err := surface.Click(ctx, el); err != nil {
		return err
	}
	for _, r := range value {
		if err := surface.TypeUnit(ctx, string(r)); err != nil {
			return err
		}
		if err := e.human.Pause(ctx, surface, humanoid.DelayKey); err != nil {
			return err
		}
	}
	return e.human.Pause(ctx, surface, humanoid.DelaySettle)
}

func (e *Executor) press(ctx context.Context, surface schemas.Surface, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		key = defaultPressKey
	}
	if err := surface.Press(ctx, key); err != nil {
		return e.degrade(ctx, surface, schemas.ActionItem{Kind: schemas.ActionPress, Value: key}, err)
	}
	return e.human.Pause(ctx, surface, humanoid.DelaySettle)
}

// scroll moves down by default; a value of "up" reverses direction.
func (e *Executor) scroll(ctx context.Context, surface schemas.Surface, direction string) error {
	sign := 1
	if strings.EqualFold(strings.TrimSpace(direction), "up") {
		sign = -1
	}
	for step := 0; step < e.human.ScrollSteps(); step++ {
		if err := surface.Scroll(ctx, sign*e.human.ScrollDelta()); err != nil {
			return e.degrade(ctx, surface, schemas.ActionItem{Kind: schemas.ActionScroll, Value: direction}, err)
		}
		if err := e.human.Pause(ctx, surface, humanoid.DelayScrollPause); err != nil {
			return err
		}
	}
	return nil
}

// degrade turns a failed interaction into a warning and an unresolved-target pause,
// unless the failure came from the context ending.
func (e *Executor) degrade(ctx context.Context, surface schemas.Surface, item schemas.ActionItem, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.logger.Warn("Interaction failed, continuing.",
		zap.String("action", string(item.Kind)),
		zap.String("target", item.Target),
		zap.String("error_code", string(ErrCodeInteractionFailed)),
		zap.Error(cause))
	return e.human.Pause(ctx, surface, humanoid.DelayUnresolved)
}
