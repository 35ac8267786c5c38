// Package platform adapts the model-driven execution loop to individual seller
// portals.
package platform

import (
	"context"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

// Navigator loads a URL on a surface.
type Navigator interface {
	Navigate(ctx context.Context, url string) error
}

// Page is a surface that can also navigate; the browser session is one.
type Page interface {
	schemas.Surface
	Navigator
}

// Runner drives a surface toward an instruction. *agent.Loop satisfies it.
type Runner interface {
	Run(ctx context.Context, surface schemas.Surface, instruction string, maxCycles int) error
}

// Marketplace is everything the orchestrator needs from a seller portal.
type Marketplace interface {
	Name() string
	// Profile is the browser profile directory name for the portal.
	Profile() string
	Login(ctx context.Context, page Page, creds schemas.Credentials) error
	CreateListing(ctx context.Context, page Page, product schemas.Product, images []string) error
	EditListing(ctx context.Context, page Page, updates map[string]interface{}, sku string) error
	UploadImages(ctx context.Context, page Page, images []string) error
	SaveListing(ctx context.Context, page Page) error
}

// Site describes one supported portal.
type Site struct {
	Key      string
	Name     string
	LoginURL string
}

var sites = []Site{
	{Key: "amazon", Name: "Amazon Seller Central", LoginURL: "https://sellercentral.amazon.com"},
	{Key: "myntra", Name: "Myntra Partner Portal", LoginURL: "https://partners.myntrainfo.com"},
	{Key: "flipkart", Name: "Flipkart Seller Hub", LoginURL: "https://seller.flipkart.com"},
	{Key: "shopify", Name: "Shopify Admin", LoginURL: "https://admin.shopify.com"},
}

// Sites lists the supported portals in menu order.
func Sites() []Site {
	return append([]Site(nil), sites...)
}

// Keys lists the accepted platform names.
func Keys() []string {
	keys := make([]string, len(sites))
	for i, s := range sites {
		keys[i] = s.Key
	}
	return keys
}

// Lookup returns the marketplace for name, case-insensitively.
func Lookup(name string, runner Runner, maxCycles int, logger *zap.Logger) (Marketplace, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, s := range sites {
		if s.Key == normalized {
			return NewLLMDriven(s, runner, maxCycles, logger), nil
		}
	}
	return nil, fmt.Errorf("unsupported platform '%s'. Choose from: %s", name, strings.Join(Keys(), ", "))
}

// LLMDriven implements every portal the same way: navigate, then hand the decision
// model a site-specific instruction.
type LLMDriven struct {
	site      Site
	runner    Runner
	maxCycles int
	logger    *zap.Logger
}

// NewLLMDriven creates the adapter for site.
func NewLLMDriven(site Site, runner Runner, maxCycles int, logger *zap.Logger) *LLMDriven {
	return &LLMDriven{
		site:      site,
		runner:    runner,
		maxCycles: maxCycles,
		logger:    logger.Named("platform").With(zap.String("platform", site.Key)),
	}
}

func (p *LLMDriven) Name() string { return p.site.Name }

func (p *LLMDriven) Profile() string {
	return strings.ReplaceAll(strings.ToLower(p.site.Name), " ", "_")
}

func (p *LLMDriven) run(ctx context.Context, page Page, step, instruction string) error {
	p.logger.Info("Starting step.", zap.String("step", step))
	if err := p.runner.Run(ctx, page, instruction, p.maxCycles); err != nil {
		return fmt.Errorf("%s on %s: %w", step, p.site.Name, err)
	}
	return nil
}

// Login opens the portal and asks the model to sign in. The password never enters
// the instruction.
func (p *LLMDriven) Login(ctx context.Context, page Page, creds schemas.Credentials) error {
	if err := page.Navigate(ctx, p.site.LoginURL); err != nil {
		return fmt.Errorf("open %s: %w", p.site.Name, err)
	}
	return p.run(ctx, page, "login", loginInstruction(p.site.Name, creds.Username))
}

// CreateListing fills a new listing, attaches images, and saves.
func (p *LLMDriven) CreateListing(ctx context.Context, page Page, product schemas.Product, images []string) error {
	if err := p.run(ctx, page, "create_listing", createInstruction(p.site.Name, product)); err != nil {
		return err
	}
	if err := p.UploadImages(ctx, page, images); err != nil {
		return err
	}
	return p.SaveListing(ctx, page)
}

// EditListing finds the listing, applies updates, and saves.
func (p *LLMDriven) EditListing(ctx context.Context, page Page, updates map[string]interface{}, sku string) error {
	if err := p.run(ctx, page, "edit_listing", editInstruction(p.site.Name, updates, sku)); err != nil {
		return err
	}
	return p.SaveListing(ctx, page)
}

// UploadImages attaches each image with its own loop run.
func (p *LLMDriven) UploadImages(ctx context.Context, page Page, images []string) error {
	for _, img := range images {
		if err := p.run(ctx, page, "upload_image", fmt.Sprintf("Upload this product image on %s: %s", p.site.Name, img)); err != nil {
			return err
		}
	}
	return nil
}

func (p *LLMDriven) SaveListing(ctx context.Context, page Page) error {
	return p.run(ctx, page, "save_listing", fmt.Sprintf("Click save/publish on %s and verify success message.", p.site.Name))
}

func loginInstruction(site, username string) string {
	return fmt.Sprintf("Log into %s using these credentials: email/username=%s, "+
		"password=<provided in secure manager>. If OTP/2FA appears, wait for human and continue.", site, username)
}

func createInstruction(site string, product schemas.Product) string {
	return fmt.Sprintf("Create a new product listing on %s with product payload: %s. "+
		"Select the best matching category and fill all mandatory fields naturally.", site, payload(product))
}

func editInstruction(site string, updates map[string]interface{}, sku string) string {
	reference := "the listing identified by the provided command context"
	if sku != "" && sku != schemas.UnspecifiedSKU {
		reference = "SKU " + sku
	}
	return fmt.Sprintf("Find %s on %s and apply updates: %s. "+
		"Handle popups, layout changes, and validations.", reference, site, payload(updates))
}

// payload renders a map with sorted keys so instructions are stable.
func payload(v interface{}) string {
	data, err := json.ConfigCompatibleWithStandardLibrary.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
