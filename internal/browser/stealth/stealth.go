// Package stealth makes an automated Chrome present the configured persona instead
// of the automation defaults.
package stealth

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/internal/config"
)

//go:embed evasions.js
var evasionsScript string

type personaPayload struct {
	Platform  string   `json:"platform"`
	Languages []string `json:"languages"`
}

// Script returns the evasions script bound to p, ready for injection.
func Script(p config.PersonaConfig) (string, error) {
	data, err := json.Marshal(personaPayload{Platform: p.Platform, Languages: p.Languages})
	if err != nil {
		return "", fmt.Errorf("failed to encode persona: %w", err)
	}
	return fmt.Sprintf("%s(%s);", evasionsScript, data), nil
}

// AcceptLanguage renders languages as an Accept-Language header value with
// descending quality weights.
func AcceptLanguage(languages []string) string {
	if len(languages) == 0 {
		return ""
	}
	parts := make([]string, 0, len(languages))
	for i, lang := range languages {
		if i == 0 {
			parts = append(parts, lang)
			continue
		}
		q := 1.0 - 0.1*float64(i)
		if q < 0.1 {
			q = 0.1
		}
		parts = append(parts, fmt.Sprintf("%s;q=%.1f", lang, q))
	}
	return strings.Join(parts, ",")
}

// Apply returns the CDP actions that install p on the current target.
func Apply(p config.PersonaConfig, logger *zap.Logger) chromedp.Tasks {
	logger.Debug("Applying browser persona.",
		zap.String("user_agent", p.UserAgent),
		zap.String("platform", p.Platform),
		zap.String("timezone", p.Timezone))

	acceptLanguage := AcceptLanguage(p.Languages)
	tasks := chromedp.Tasks{
		chromedp.ActionFunc(func(ctx context.Context) error {
			script, err := Script(p)
			if err != nil {
				return err
			}
			if _, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx); err != nil {
				return fmt.Errorf("failed to inject evasions script: %w", err)
			}
			return nil
		}),
	}
	if p.UserAgent != "" {
		tasks = append(tasks, emulation.SetUserAgentOverride(p.UserAgent).
			WithPlatform(p.Platform).
			WithAcceptLanguage(acceptLanguage))
	}
	if p.Timezone != "" {
		tasks = append(tasks, emulation.SetTimezoneOverride(p.Timezone))
	}
	if p.Locale != "" {
		tasks = append(tasks, emulation.SetLocaleOverride().WithLocale(p.Locale))
	}
	if acceptLanguage != "" {
		tasks = append(tasks, network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": acceptLanguage}))
	}
	return tasks
}
