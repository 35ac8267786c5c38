package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/listpilot/internal/agent"
	"github.com/xkilldash9x/listpilot/internal/browser/htmlsurface"
	"github.com/xkilldash9x/listpilot/internal/observability"
)

func newResolveCmd() *cobra.Command {
	var htmlFile string

	resolveCmd := &cobra.Command{
		Use:   "resolve --html <file> <target...>",
		Short: "Check which element a target description resolves to on a saved page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			surface, err := htmlsurface.ParseFile(htmlFile)
			if err != nil {
				return err
			}
			target := strings.Join(args, " ")
			el, found := agent.NewResolver(observability.GetLogger()).Resolve(cmd.Context(), surface, target)
			if !found {
				return fmt.Errorf("no element matches %q", target)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "strategy: %s\nref: %s\nelement: %s\n", el.Strategy, el.Ref, el.Description)
			return nil
		},
	}
	resolveCmd.Flags().StringVar(&htmlFile, "html", "", "saved HTML page to search")
	_ = resolveCmd.MarkFlagRequired("html")
	return resolveCmd
}
