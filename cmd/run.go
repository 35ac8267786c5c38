package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/agent"
	"github.com/xkilldash9x/listpilot/internal/browser"
	"github.com/xkilldash9x/listpilot/internal/command"
	"github.com/xkilldash9x/listpilot/internal/config"
	"github.com/xkilldash9x/listpilot/internal/humanoid"
	"github.com/xkilldash9x/listpilot/internal/journal"
	"github.com/xkilldash9x/listpilot/internal/llmclient"
	"github.com/xkilldash9x/listpilot/internal/observability"
	"github.com/xkilldash9x/listpilot/internal/orchestrator"
	"github.com/xkilldash9x/listpilot/internal/store"
	"github.com/xkilldash9x/listpilot/internal/vault"
)

func newRunCmd() *cobra.Command {
	var (
		inputs  runInputs
		noInput bool
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run a listing workflow on a seller portal",
		Long: `Run signs in to the chosen portal and creates or edits listings.
Missing answers are asked for interactively unless --no-input is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			prompter := vault.NewPrompter(os.Stdin, cmd.OutOrStdout())
			if !noInput {
				if err := inputs.collect(prompter, cmd.OutOrStdout()); err != nil {
					return err
				}
			}
			return runWorkflow(cmd.Context(), cfg, inputs, prompter, cmd.OutOrStdout(), observability.GetLogger())
		},
	}

	flags := runCmd.Flags()
	flags.StringVarP(&inputs.Platform, "platform", "p", "", "seller portal (amazon, myntra, flipkart, shopify)")
	flags.StringVarP(&inputs.Operation, "operation", "o", "", "new_listing, edit_listing, or bulk_update")
	flags.StringVar(&inputs.Command, "command", "", "free-text instruction, e.g. 'Update price of SKU123 to 799'")
	flags.StringVar(&inputs.DataFile, "data", "", "product data file (.json or .csv)")
	flags.StringVar(&inputs.ImagesDir, "images", "", "folder containing one sub-folder of images per SKU")
	flags.BoolVar(&noInput, "no-input", false, "never prompt; fail on missing answers")
	return runCmd
}

func runWorkflow(ctx context.Context, cfg *config.Config, inputs runInputs, prompter *vault.Prompter, out io.Writer, logger *zap.Logger) error {
	if err := cfg.Model.RequireAPIKey(); err != nil {
		return err
	}
	if inputs.ImagesDir == "" {
		inputs.ImagesDir = cfg.Paths.ImagesDir
	}

	invoker, err := llmclient.NewClient(ctx, cfg.Model, logger)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}

	creds, err := vault.Open(cfg.Paths.CredentialsStore, cfg.Paths.CredentialKey)
	if err != nil {
		return err
	}

	sink, closeSink := openJournalSink(ctx, cfg, logger)
	defer closeSink()
	j := journal.New("", sink)

	human := humanoid.New(cfg.Humanoid, nil)
	loop := agent.NewDefaultLoop(invoker, human, logger, agent.WithSnapshotDir(cfg.Browser.SnapshotDir))

	orch, err := orchestrator.New(orchestrator.Dependencies{
		Interpreter: command.NewInterpreter(invoker, logger),
		Runner:      loop,
		Journal:     j,
		Credentials: vaultCredentials{vault: creds, prompter: prompter, out: out},
		Clarifier:   promptClarifier{reader: prompter, out: out},
		OpenSession: func(ctx context.Context, profile string) (orchestrator.Session, error) {
			return browser.NewSession(ctx, cfg.Browser, profile, logger)
		},
	}, cfg.Loop.MaxCycles, logger)
	if err != nil {
		return err
	}

	summary, err := orch.Run(ctx, orchestrator.Request{
		Platform:  inputs.Platform,
		Operation: schemas.Operation(inputs.Operation),
		Command:   inputs.Command,
		DataFile:  inputs.DataFile,
		ImagesDir: inputs.ImagesDir,
	})
	if summary.Tasks > 0 {
		fmt.Fprintf(out, "\nRun %s: %d of %d tasks succeeded, %d failed. Journal: %s\n",
			summary.RunID, summary.Succeeded, summary.Tasks, summary.Failed, cfg.Paths.JournalFile)
	}
	return explainRunError(err)
}

// openJournalSink always writes the local JSONL file and mirrors to Postgres when a
// database URL is configured and reachable.
func openJournalSink(ctx context.Context, cfg *config.Config, logger *zap.Logger) (journal.Sink, func()) {
	file := journal.NewFileSink(cfg.Paths.JournalFile)
	if cfg.Database.URL == "" {
		return file, func() {}
	}
	db, closeDB, err := store.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		logger.Warn("Event store unavailable, journaling to file only.", zap.Error(err))
		return file, func() {}
	}
	return journal.NewMulti(logger, file, db), closeDB
}

// explainRunError turns fatal loop errors into actionable messages.
func explainRunError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, llmclient.ErrModelUnavailable):
		return fmt.Errorf("decision model unavailable; check GEMINI_API_KEY and model.candidates: %w", err)
	case errors.Is(err, agent.ErrActionBudgetExhausted):
		return fmt.Errorf("%w; raise loop.max_cycles or simplify the instruction", err)
	default:
		return err
	}
}
