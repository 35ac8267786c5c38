package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/listpilot/internal/journal"
	"github.com/xkilldash9x/listpilot/internal/observability"
	"github.com/xkilldash9x/listpilot/internal/store"
)

func newJournalCmd() *cobra.Command {
	journalCmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the action journal",
	}

	var (
		follow bool
		runID  string
	)
	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Print journal events from the local file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return journal.Tail(cmd.Context(), cfg.Paths.JournalFile, follow, func(ev journal.Event) error {
				if runID != "" && ev.RunID != runID {
					return nil
				}
				return printEvent(out, ev)
			})
		},
	}
	tailCmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep waiting for new events")
	tailCmd.Flags().StringVar(&runID, "run-id", "", "only show events of this run")
	journalCmd.AddCommand(tailCmd)

	journalCmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Print a run's events from the event store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return errors.New("database.url is not configured; use 'listpilot journal tail --run-id' for the local journal")
			}
			db, closeDB, err := store.Connect(cmd.Context(), cfg.Database.URL, observability.GetLogger())
			if err != nil {
				return err
			}
			defer closeDB()

			events, err := db.Recent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, ev := range events {
				if err := printEvent(cmd.OutOrStdout(), ev); err != nil {
					return err
				}
			}
			return nil
		},
	})
	return journalCmd
}

func printEvent(w io.Writer, ev journal.Event) error {
	payload, err := json.ConfigCompatibleWithStandardLibrary.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s  %-12s  %s  %s\n", ev.Timestamp.Local().Format(time.DateTime), ev.Type, ev.RunID, payload)
	return err
}
