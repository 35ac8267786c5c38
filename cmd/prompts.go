package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/platform"
	"github.com/xkilldash9x/listpilot/internal/vault"
)

// lineReader is the part of vault.Prompter the interactive flows need.
type lineReader interface {
	Line(label string) (string, error)
}

// optionalLine reads a line and treats end of input as an empty answer.
func optionalLine(r lineReader, label string) (string, error) {
	answer, err := r.Line(label)
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	return answer, err
}

// runInputs are the answers the run command needs; flags pre-fill them.
type runInputs struct {
	Platform  string
	Operation string
	Command   string
	DataFile  string
	ImagesDir string
}

// collect prompts for every field left empty.
func (in *runInputs) collect(r lineReader, out io.Writer) error {
	fmt.Fprintln(out, "\n=== Listpilot ===")
	prompts := []struct {
		dst   *string
		label string
	}{
		{&in.Platform, fmt.Sprintf("Platform (%s): ", strings.Join(platform.Keys(), "/"))},
		{&in.Operation, "Operation (new_listing/edit_listing/bulk_update): "},
		{&in.Command, "Instruction command (e.g., 'List new product', 'Update price of SKU123 to 799'): "},
		{&in.DataFile, "Product data file path (.json/.csv): "},
		{&in.ImagesDir, "Images folder path: "},
	}
	for _, p := range prompts {
		if strings.TrimSpace(*p.dst) != "" {
			continue
		}
		answer, err := optionalLine(r, p.label)
		if err != nil {
			return err
		}
		*p.dst = answer
	}
	return nil
}

// vaultCredentials reads credentials from the vault and asks for them once when
// missing.
type vaultCredentials struct {
	vault    *vault.Vault
	prompter *vault.Prompter
	out      io.Writer
}

func (v vaultCredentials) Credentials(_ context.Context, name string) (schemas.Credentials, error) {
	if creds, err := v.vault.Get(name); err == nil {
		return creds, nil
	} else if !errors.Is(err, vault.ErrNotFound) {
		return schemas.Credentials{}, err
	}
	fmt.Fprintf(v.out, "No encrypted credentials found for %s. Please provide them once.\n", name)
	return vault.Ensure(v.vault, name, v.prompter)
}

// promptClarifier asks the follow-up questions for an edit that names nothing.
type promptClarifier struct {
	reader lineReader
	out    io.Writer
}

func (p promptClarifier) Clarify(_ context.Context, _ schemas.WorkflowDescriptor) (string, string, string, error) {
	fmt.Fprintln(p.out, "\nNo SKU given. You can target a listing by name, category, or brand instead.")
	identifier, err := optionalLine(p.reader, "Give SKU or product name or category (example: SKU123 / Rose Gold Ring / rings): ")
	if err != nil {
		return "", "", "", err
	}
	field, err := optionalLine(p.reader, "Which field to change? (title/price/description/stock/etc): ")
	if err != nil {
		return "", "", "", err
	}
	value, err := optionalLine(p.reader, "New value for that field: ")
	if err != nil {
		return "", "", "", err
	}
	return identifier, strings.ToLower(field), value, nil
}
