// Package browser drives a real Chrome through chromedp and exposes it as a
// schemas.Surface.
package browser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/browser/stealth"
	"github.com/xkilldash9x/listpilot/internal/config"
)

const defaultNavigationTimeout = 60 * time.Second

var profileNameRegex = regexp.MustCompile(`[^a-z0-9_-]+`)

// Session is one Chrome window with a persistent profile.
type Session struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc

	// chromedp serializes commands per target; the mutex keeps multi-step actions
	// like hover (measure then move) from interleaving.
	mu        sync.Mutex
	closeOnce sync.Once
	// uploads numbers upload tags; guarded by mu.
	uploads int
}

var _ schemas.Surface = (*Session)(nil)

// ProfileDir is where the browser profile for profile lives under the session dir.
func ProfileDir(cfg config.BrowserConfig, profile string) string {
	name := profileNameRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(profile)), "_")
	if name == "" {
		name = "default"
	}
	return filepath.Join(cfg.SessionDir, name)
}

// launchFlags lists the command line switches layered over chromedp's defaults.
func launchFlags(cfg config.BrowserConfig) map[string]interface{} {
	flags := map[string]interface{}{
		"headless":                 cfg.Headless,
		"disable-blink-features":   "AutomationControlled",
		"enable-automation":        false,
		"disable-infobars":         true,
		"no-default-browser-check": true,
	}
	for _, arg := range cfg.Args {
		arg = strings.TrimLeft(strings.TrimSpace(arg), "-")
		if arg == "" {
			continue
		}
		if name, value, ok := strings.Cut(arg, "="); ok {
			flags[name] = value
		} else {
			flags[arg] = true
		}
	}
	return flags
}

// AllocatorOptions builds the exec allocator options for a profile.
func AllocatorOptions(cfg config.BrowserConfig, profile string) []chromedp.ExecAllocatorOption {
	width, height := cfg.ViewportSize()
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.UserDataDir(ProfileDir(cfg, profile)),
		chromedp.WindowSize(width, height),
	)
	if cfg.Persona.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.Persona.UserAgent))
	}
	for name, value := range launchFlags(cfg) {
		opts = append(opts, chromedp.Flag(name, value))
	}
	return opts
}

// NewSession launches Chrome with the persistent profile for profile and applies the
// configured persona.
func NewSession(ctx context.Context, cfg config.BrowserConfig, profile string, logger *zap.Logger) (*Session, error) {
	log := logger.Named("browser").With(zap.String("profile", profile))

	dir := ProfileDir(cfg, profile)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create profile directory %s: %w", dir, err)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(Detach(ctx), AllocatorOptions(cfg, profile)...)
	sugar := log.Sugar()
	browserCtx, cancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Warnf),
	)

	s := &Session{
		cfg:         cfg,
		logger:      log,
		allocCancel: allocCancel,
		ctx:         browserCtx,
		cancel:      cancel,
	}

	// The first Run starts the browser.
	if err := s.run(ctx, stealth.Apply(cfg.Persona, log)); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	width, height := cfg.ViewportSize()
	log.Info("Browser session started.",
		zap.Bool("headless", cfg.Headless),
		zap.String("user_data_dir", dir),
		zap.Int("viewport_w", width),
		zap.Int("viewport_h", height))
	return s, nil
}

// run executes actions on the session target, bounded by ctx.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	combined, cancel := CombineContext(s.ctx, ctx)
	defer cancel()
	return chromedp.Run(combined, actions...)
}

// Navigate loads url and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timeout := s.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = defaultNavigationTimeout
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("Navigating.", zap.String("url", url))
	if err := s.run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// CaptureSnapshot returns a full page PNG.
func (s *Session) CaptureSnapshot(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf []byte
	// Quality 100 makes chromedp capture PNG.
	if err := s.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// Find runs one locator strategy in the page and tags the first visible match.
func (s *Session) Find(ctx context.Context, strategy schemas.LocatorStrategy, query string) (schemas.Element, bool, error) {
	expr, err := locatorExpression(strategy, query)
	if err != nil {
		return schemas.Element{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var res *locateResult
	if err := s.run(ctx, chromedp.Evaluate(expr, &res)); err != nil {
		return schemas.Element{}, false, fmt.Errorf("locator %s failed: %w", strategy, err)
	}
	if res == nil || res.Ref == "" {
		return schemas.Element{}, false, nil
	}
	return schemas.Element{
		Ref:         refSelector(res.Ref),
		Strategy:    strategy,
		Description: res.Description,
	}, true, nil
}

// Hover scrolls the element into view and moves the pointer to its center.
func (s *Session) Hover(ctx context.Context, el schemas.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var box *dom.BoxModel
	return s.run(ctx,
		chromedp.ScrollIntoView(el.Ref, chromedp.ByQuery),
		chromedp.Dimensions(el.Ref, &box, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			x, y, ok := quadCenter(box)
			if !ok {
				return fmt.Errorf("element %s has no box model", el.Ref)
			}
			return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
		}),
	)
}

func (s *Session) Click(ctx context.Context, el schemas.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, chromedp.Click(el.Ref, chromedp.ByQuery))
}

// TypeUnit sends one character to the focused element.
func (s *Session) TypeUnit(ctx context.Context, unit string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, chromedp.KeyEvent(unit))
}

// Press sends a named key to the focused element.
func (s *Session) Press(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, chromedp.KeyEvent(keySequence(key)))
}

// Upload attaches path to the file input behind el.
func (s *Session) Upload(ctx context.Context, el schemas.Element, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid upload path %q: %w", path, err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("upload file unavailable: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.uploads++
	token := fmt.Sprintf("up-%d", s.uploads)
	expr, err := uploadExpression(el.Ref, token)
	if err != nil {
		return err
	}
	var tagged bool
	if err := s.run(ctx, chromedp.Evaluate(expr, &tagged)); err != nil {
		return fmt.Errorf("failed to locate file input: %w", err)
	}
	if !tagged {
		return fmt.Errorf("no file input found for %s", el.Ref)
	}
	return s.run(ctx, chromedp.SetUploadFiles(uploadSelector(token), []string{abs}, chromedp.ByQuery))
}

// Scroll dispatches a wheel event at the viewport center.
func (s *Session) Scroll(ctx context.Context, deltaY int) error {
	width, height := s.cfg.ViewportSize()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return input.DispatchMouseEvent(input.MouseWheel, float64(width)/2, float64(height)/2).
			WithDeltaX(0).
			WithDeltaY(float64(deltaY)).
			Do(ctx)
	}))
}

// Sleep pauses without holding the session lock.
func (s *Session) Sleep(ctx context.Context, d time.Duration) error {
	return s.run(ctx, chromedp.Sleep(d))
}

// Close shuts the browser down. The profile directory is kept for the next run.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if err := chromedp.Cancel(s.ctx); err != nil {
			s.logger.Debug("Browser cancel reported an error.", zap.Error(err))
		}
		s.cancel()
		s.allocCancel()
		s.logger.Info("Browser session closed.")
	})
}

// quadCenter averages the four corners of the content quad.
func quadCenter(box *dom.BoxModel) (float64, float64, bool) {
	if box == nil || len(box.Content) < 8 {
		return 0, 0, false
	}
	var x, y float64
	for i := 0; i < 8; i += 2 {
		x += box.Content[i]
		y += box.Content[i+1]
	}
	return x / 4, y / 4, true
}
