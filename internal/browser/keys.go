package browser

import (
	"strings"

	"github.com/chromedp/chromedp/kb"
)

var namedKeys = map[string]string{
	"enter":      kb.Enter,
	"return":     kb.Enter,
	"tab":        kb.Tab,
	"escape":     kb.Escape,
	"esc":        kb.Escape,
	"backspace":  kb.Backspace,
	"delete":     kb.Delete,
	"arrowup":    kb.ArrowUp,
	"arrowdown":  kb.ArrowDown,
	"arrowleft":  kb.ArrowLeft,
	"arrowright": kb.ArrowRight,
	"pageup":     kb.PageUp,
	"pagedown":   kb.PageDown,
	"home":       kb.Home,
	"end":        kb.End,
	"space":      " ",
}

// keySequence maps a key name such as "Enter" or "arrow down" onto the rune chromedp
// dispatches for it. Single characters pass through and unknown names are typed as
// text.
func keySequence(name string) string {
	if name == "" {
		return kb.Enter
	}
	if len([]rune(name)) == 1 {
		return name
	}
	normalized := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name))
	if seq, ok := namedKeys[normalized]; ok {
		return seq
	}
	return name
}
