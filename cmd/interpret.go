package cmd

import (
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/listpilot/api/schemas"
	"github.com/xkilldash9x/listpilot/internal/command"
	"github.com/xkilldash9x/listpilot/internal/llmclient"
	"github.com/xkilldash9x/listpilot/internal/observability"
)

func newInterpretCmd() *cobra.Command {
	var offline bool

	interpretCmd := &cobra.Command{
		Use:   "interpret <command...>",
		Short: "Show how a free-text command is structured into a workflow",
		Example: `  listpilot interpret "Update price of SKU123 to 799"
  listpilot interpret --offline change stock of rose gold ring to 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			ctx := cmd.Context()

			var generator schemas.TextGenerator
			if !offline {
				if err := cfg.Model.RequireAPIKey(); err != nil {
					logger.Warn("No model API key, interpreting offline.")
				} else {
					invoker, err := llmclient.NewClient(ctx, cfg.Model, logger)
					if err != nil {
						logger.Warn("Model client unavailable, interpreting offline.", zap.Error(err))
					} else {
						generator = invoker
					}
				}
			}

			desc := command.NewInterpreter(generator, logger).Interpret(ctx, strings.Join(args, " "))
			data, err := json.ConfigCompatibleWithStandardLibrary.MarshalIndent(desc, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
	interpretCmd.Flags().BoolVar(&offline, "offline", false, "skip the model and use the rule-based parser")
	return interpretCmd
}
