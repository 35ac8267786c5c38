package schemas

import (
	"context"
	"time"
)

// LocatorStrategy names one way of finding an element from a human-readable target.
type LocatorStrategy string

const (
	LocateByLabel       LocatorStrategy = "label"
	LocateByPlaceholder LocatorStrategy = "placeholder"
	LocateByRoleButton  LocatorStrategy = "role_button"
	LocateByText        LocatorStrategy = "text"
)

// Element is an opaque handle to an interactive element on a Surface. Handles are
// only valid for the surface that produced them and only until the page changes.
type Element struct {
	// Ref is the surface-specific reference (a CSS selector for the browser surface).
	Ref string
	// Strategy records which locator produced the handle.
	Strategy LocatorStrategy
	// Description is a short human readable summary used in logs.
	Description string
}

// Surface is the interactive page being driven. The concrete browser binding lives in
// internal/browser; tests and offline tooling use lighter implementations.
type Surface interface {
	// CaptureSnapshot returns a PNG screenshot of the current page.
	CaptureSnapshot(ctx context.Context) ([]byte, error)
	// Find returns the first element matching query under strategy. found is false
	// when nothing matched; err is reserved for transport failures.
	Find(ctx context.Context, strategy LocatorStrategy, query string) (el Element, found bool, err error)

	Hover(ctx context.Context, el Element) error
	Click(ctx context.Context, el Element) error
	// TypeUnit emits a single character to the focused element.
	TypeUnit(ctx context.Context, unit string) error
	// Press sends a named key (e.g. "Enter") to whatever has focus.
	Press(ctx context.Context, key string) error
	Upload(ctx context.Context, el Element, path string) error
	// Scroll moves the viewport vertically by deltaY pixels.
	Scroll(ctx context.Context, deltaY int) error
	Sleep(ctx context.Context, d time.Duration) error
}

// GenerationRequest is one call to the decision model.
type GenerationRequest struct {
	SystemPrompt string
	Prompt       string
	// Image is optional; when set it is sent alongside the prompt.
	Image     []byte
	ImageMIME string
	// ForceJSON asks the provider for a JSON response mime type when supported.
	ForceJSON bool
}

// ModelProvider is the narrow surface of the decision model vendor.
type ModelProvider interface {
	Generate(ctx context.Context, model string, req GenerationRequest) (string, error)
	// ListCapableModels returns identifiers of models that can serve Generate.
	ListCapableModels(ctx context.Context) ([]string, error)
}

// TextGenerator is what consumers of the model invoker depend on.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
