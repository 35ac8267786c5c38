package schemas

import (
	"fmt"
	"strconv"
	"strings"

	json "github.com/json-iterator/go"
)

// UnmarshalJSON accepts the loose shapes models emit: "kind" as an alias for
// "action", numeric values, and confidence given as a string.
func (a *ActionItem) UnmarshalJSON(data []byte) error {
	var raw struct {
		Action     string      `json:"action"`
		Kind       string      `json:"kind"`
		Target     interface{} `json:"target"`
		Value      interface{} `json:"value"`
		Confidence interface{} `json:"confidence"`
		Reason     string      `json:"reason"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	kind := raw.Action
	if kind == "" {
		kind = raw.Kind
	}
	a.Kind = ActionKind(strings.ToLower(strings.TrimSpace(kind)))
	a.Target = looseString(raw.Target)
	a.Value = looseString(raw.Value)
	a.Confidence = ClampConfidence(looseFloat(raw.Confidence))
	a.Reason = raw.Reason
	return nil
}

// UnmarshalJSON normalizes whatever the model wrote into a known Risk.
func (r *Risk) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*r = RiskNone
		return nil
	}
	*r = ParseRisk(s)
	return nil
}

func looseString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

func looseFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
