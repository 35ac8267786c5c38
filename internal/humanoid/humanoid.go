// Package humanoid draws the randomized delays and scroll magnitudes that make
// automated interaction pace itself like a person.
package humanoid

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/xkilldash9x/listpilot/internal/config"
)

// Delay names one of the configured delay ranges.
type Delay string

const (
	DelaySettle      Delay = "settle"
	DelayHoverGap    Delay = "hover_gap"
	DelayKey         Delay = "key_delay"
	DelayWait        Delay = "wait"
	DelayScrollPause Delay = "scroll_pause"
	DelayUpload      Delay = "upload"
	DelayUnresolved  Delay = "unresolved"
	DelayRiskPause   Delay = "risk_pause"
)

// Sleeper is anything that can suspend cooperatively. Surfaces implement it so that
// every pause goes through the automation binding.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// Rhythm is a goroutine-safe source of uniform draws.
type Rhythm struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRhythm seeds a Rhythm. A zero seed uses the current time.
func NewRhythm(seed int64) *Rhythm {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Rhythm{rng: rand.New(rand.NewSource(seed))}
}

// Duration draws uniformly from [r.Min, r.Max].
func (r *Rhythm) Duration(dr config.DurationRange) time.Duration {
	if dr.Max <= dr.Min {
		return dr.Min
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return dr.Min + time.Duration(r.rng.Int63n(int64(dr.Max-dr.Min)+1))
}

// Int draws uniformly from [r.Min, r.Max].
func (r *Rhythm) Int(ir config.IntRange) int {
	if ir.Max <= ir.Min {
		return ir.Min
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return ir.Min + r.rng.Intn(ir.Max-ir.Min+1)
}

// Humanoid pairs the configured ranges with a Rhythm.
type Humanoid struct {
	cfg    config.HumanoidConfig
	rhythm *Rhythm
}

// New creates a Humanoid. A nil rhythm gets a time-seeded one.
func New(cfg config.HumanoidConfig, rhythm *Rhythm) *Humanoid {
	if rhythm == nil {
		rhythm = NewRhythm(0)
	}
	return &Humanoid{cfg: cfg, rhythm: rhythm}
}

// NewDefault uses the default ranges from the configuration package.
func NewDefault(rhythm *Rhythm) *Humanoid {
	return New(config.NewDefaultConfig().Humanoid, rhythm)
}

// Range returns the configured range for d.
func (h *Humanoid) Range(d Delay) (config.DurationRange, error) {
	switch d {
	case DelaySettle:
		return h.cfg.Settle, nil
	case DelayHoverGap:
		return h.cfg.HoverGap, nil
	case DelayKey:
		return h.cfg.KeyDelay, nil
	case DelayWait:
		return h.cfg.Wait, nil
	case DelayScrollPause:
		return h.cfg.ScrollPause, nil
	case DelayUpload:
		return h.cfg.Upload, nil
	case DelayUnresolved:
		return h.cfg.Unresolved, nil
	case DelayRiskPause:
		return h.cfg.RiskPause, nil
	}
	return config.DurationRange{}, fmt.Errorf("unknown delay %q", d)
}

// Draw picks a duration for d. Unknown delays draw zero.
func (h *Humanoid) Draw(d Delay) time.Duration {
	r, err := h.Range(d)
	if err != nil {
		return 0
	}
	return h.rhythm.Duration(r)
}

// Pause sleeps on s for a duration drawn from d's range.
func (h *Humanoid) Pause(ctx context.Context, s Sleeper, d Delay) error {
	return s.Sleep(ctx, h.Draw(d))
}

// ScrollDelta draws one scroll step's magnitude in pixels.
func (h *Humanoid) ScrollDelta() int {
	return h.rhythm.Int(h.cfg.ScrollDelta)
}

// ScrollSteps is the number of increments in one scroll action.
func (h *Humanoid) ScrollSteps() int {
	if h.cfg.ScrollSteps <= 0 {
		return 1
	}
	return h.cfg.ScrollSteps
}
