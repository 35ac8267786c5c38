package schemas

import (
	"errors"
	"math"
	"strings"
)

// ErrEmptyDecision is returned when a decision carries no actions. The loop treats
// it the same way as any other malformed model response.
var ErrEmptyDecision = errors.New("decision contains no actions")

// ActionKind identifies what an ActionItem asks the executor to do.
type ActionKind string

const (
	ActionClick  ActionKind = "click"
	ActionType   ActionKind = "type"
	ActionHover  ActionKind = "hover"
	ActionScroll ActionKind = "scroll"
	ActionWait   ActionKind = "wait"
	ActionUpload ActionKind = "upload"
	ActionPress  ActionKind = "press"
	ActionDone   ActionKind = "done"
)

// Valid reports whether k is one of the known action kinds.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionClick, ActionType, ActionHover, ActionScroll, ActionWait, ActionUpload, ActionPress, ActionDone:
		return true
	}
	return false
}

// NeedsTarget reports whether the kind acts on a resolved element.
// Press goes to whatever currently has keyboard focus.
func (k ActionKind) NeedsTarget() bool {
	switch k {
	case ActionClick, ActionType, ActionHover, ActionUpload:
		return true
	}
	return false
}

// Risk is the model's read on whether the current screen needs special handling.
type Risk string

const (
	RiskNone      Risk = "none"
	RiskCaptcha   Risk = "captcha"
	RiskTwoFactor Risk = "two_factor"
	RiskError     Risk = "error"
	RiskPopup     Risk = "popup"
)

// ParseRisk maps the spellings models actually produce onto a Risk.
// Anything unrecognized is RiskNone.
func ParseRisk(s string) Risk {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "captcha", "recaptcha", "hcaptcha":
		return RiskCaptcha
	case "two_factor", "2fa", "two-factor", "twofactor", "otp", "mfa":
		return RiskTwoFactor
	case "error":
		return RiskError
	case "popup", "modal", "dialog":
		return RiskPopup
	default:
		return RiskNone
	}
}

// NeedsManualIntervention reports whether the risk calls for the extended pause.
func (r Risk) NeedsManualIntervention() bool {
	return r == RiskCaptcha || r == RiskTwoFactor
}

// ActionItem is a single step proposed by the decision model.
type ActionItem struct {
	Kind       ActionKind `json:"action"`
	Target     string     `json:"target"`
	Value      string     `json:"value"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason"`
}

// ActionDecision is one decision cycle's worth of model output.
type ActionDecision struct {
	Actions     []ActionItem `json:"actions"`
	ScreenState string       `json:"screen_state"`
	Risk        Risk         `json:"risk"`
}

// Validate enforces the at-least-one-action contract.
func (d *ActionDecision) Validate() error {
	if d == nil || len(d.Actions) == 0 {
		return ErrEmptyDecision
	}
	return nil
}

// HasTerminal reports whether any action in the decision is `done`.
func (d *ActionDecision) HasTerminal() bool {
	for _, a := range d.Actions {
		if a.Kind == ActionDone {
			return true
		}
	}
	return false
}

// SafeWaitDecision is what a cycle dispatches when the model output can't be used.
func SafeWaitDecision(reason string) ActionDecision {
	return ActionDecision{
		Actions: []ActionItem{{
			Kind:       ActionWait,
			Target:     "page",
			Value:      "2",
			Confidence: 0.3,
			Reason:     reason,
		}},
		ScreenState: "unknown",
		Risk:        RiskError,
	}
}

// ClampConfidence keeps confidence inside [0,1].
func ClampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}
