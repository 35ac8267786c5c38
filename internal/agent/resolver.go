// internal/agent/resolver.go
package agent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

// strategyChain runs from most to least specific. Free text is last because it is
// the most likely to hit an unintended element on a crowded page.
var strategyChain = []schemas.LocatorStrategy{
	schemas.LocateByLabel,
	schemas.LocateByPlaceholder,
	schemas.LocateByRoleButton,
	schemas.LocateByText,
}

// Resolver maps a human-readable target name to an element on a surface.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a Resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	return &Resolver{logger: logger.Named("target_resolver")}
}

// Resolve walks the strategy chain and returns the first match. A Find error on one
// strategy is logged and the chain continues; found is false when nothing matched.
func (r *Resolver) Resolve(ctx context.Context, surface schemas.Surface, target string) (schemas.Element, bool) {
	target = strings.TrimSpace(target)
	if target == "" {
		return schemas.Element{}, false
	}

	for _, strategy := range strategyChain {
		if ctx.Err() != nil {
			return schemas.Element{}, false
		}
		el, found, err := surface.Find(ctx, strategy, target)
		if err != nil {
			r.logger.Warn("Locator strategy failed.",
				zap.String("strategy", string(strategy)),
				zap.String("target", target),
				zap.Error(err))
			continue
		}
		if found {
			el.Strategy = strategy
			r.logger.Debug("Target resolved.",
				zap.String("strategy", string(strategy)),
				zap.String("target", target),
				zap.String("element", el.Description))
			return el, true
		}
	}
	return schemas.Element{}, false
}
