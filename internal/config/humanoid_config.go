// File: internal/config/humanoid_config.go
// HumanoidConfig holds the randomized timing used to make automated interaction look
// like a person operating the page. Every delay is drawn uniformly from a range.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// DurationRange is an inclusive [Min, Max] interval.
type DurationRange struct {
	Min time.Duration `mapstructure:"min" yaml:"min"`
	Max time.Duration `mapstructure:"max" yaml:"max"`
}

// IntRange is an inclusive [Min, Max] interval.
type IntRange struct {
	Min int `mapstructure:"min" yaml:"min"`
	Max int `mapstructure:"max" yaml:"max"`
}

// HumanoidConfig groups every delay range the action executor uses.
type HumanoidConfig struct {
	Settle      DurationRange `mapstructure:"settle" yaml:"settle"`
	HoverGap    DurationRange `mapstructure:"hover_gap" yaml:"hover_gap"`
	KeyDelay    DurationRange `mapstructure:"key_delay" yaml:"key_delay"`
	Wait        DurationRange `mapstructure:"wait" yaml:"wait"`
	ScrollPause DurationRange `mapstructure:"scroll_pause" yaml:"scroll_pause"`
	ScrollDelta IntRange      `mapstructure:"scroll_delta" yaml:"scroll_delta"`
	ScrollSteps int           `mapstructure:"scroll_steps" yaml:"scroll_steps"`
	Upload      DurationRange `mapstructure:"upload" yaml:"upload"`
	Unresolved  DurationRange `mapstructure:"unresolved" yaml:"unresolved"`
	RiskPause   DurationRange `mapstructure:"risk_pause" yaml:"risk_pause"`
}

func setHumanoidDefaults(v *viper.Viper) {
	v.SetDefault("humanoid.settle.min", "500ms")
	v.SetDefault("humanoid.settle.max", "2500ms")
	v.SetDefault("humanoid.hover_gap.min", "100ms")
	v.SetDefault("humanoid.hover_gap.max", "500ms")
	v.SetDefault("humanoid.key_delay.min", "45ms")
	v.SetDefault("humanoid.key_delay.max", "180ms")
	v.SetDefault("humanoid.wait.min", "1s")
	v.SetDefault("humanoid.wait.max", "3s")
	v.SetDefault("humanoid.scroll_pause.min", "400ms")
	v.SetDefault("humanoid.scroll_pause.max", "1200ms")
	v.SetDefault("humanoid.scroll_delta.min", 200)
	v.SetDefault("humanoid.scroll_delta.max", 650)
	v.SetDefault("humanoid.scroll_steps", 4)
	v.SetDefault("humanoid.upload.min", "1200ms")
	v.SetDefault("humanoid.upload.max", "2600ms")
	v.SetDefault("humanoid.unresolved.min", "800ms")
	v.SetDefault("humanoid.unresolved.max", "1600ms")
	v.SetDefault("humanoid.risk_pause.min", "8s")
	v.SetDefault("humanoid.risk_pause.max", "12s")
}

// Validate checks that every range is well formed.
func (h HumanoidConfig) Validate() error {
	ranges := map[string]DurationRange{
		"settle":       h.Settle,
		"hover_gap":    h.HoverGap,
		"key_delay":    h.KeyDelay,
		"wait":         h.Wait,
		"scroll_pause": h.ScrollPause,
		"upload":       h.Upload,
		"unresolved":   h.Unresolved,
		"risk_pause":   h.RiskPause,
	}
	for name, r := range ranges {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("%s range is invalid (min=%s, max=%s)", name, r.Min, r.Max)
		}
	}
	if h.ScrollDelta.Min < 0 || h.ScrollDelta.Max < h.ScrollDelta.Min {
		return fmt.Errorf("scroll_delta range is invalid (min=%d, max=%d)", h.ScrollDelta.Min, h.ScrollDelta.Max)
	}
	if h.ScrollSteps <= 0 {
		return fmt.Errorf("scroll_steps must be positive")
	}
	return nil
}
