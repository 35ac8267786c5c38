package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/listpilot/internal/platform"
	"github.com/xkilldash9x/listpilot/internal/vault"
)

func newCredentialsCmd() *cobra.Command {
	credentialsCmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage encrypted portal credentials",
	}

	credentialsCmd.AddCommand(&cobra.Command{
		Use:   "keygen",
		Short: "Generate a credential encryption key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := vault.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			fmt.Fprintln(cmd.ErrOrStderr(), "Export it as LISTPILOT_CREDENTIAL_KEY. Losing it makes stored credentials unreadable.")
			return nil
		},
	})

	credentialsCmd.AddCommand(&cobra.Command{
		Use:   "set <platform>",
		Short: "Store the login for a portal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			site, ok := findSite(args[0])
			if !ok {
				return fmt.Errorf("unsupported platform '%s'. Choose from: %s", args[0], strings.Join(platform.Keys(), ", "))
			}
			name := site.Key
			v, err := vault.Open(cfg.Paths.CredentialsStore, cfg.Paths.CredentialKey)
			if err != nil {
				return err
			}
			creds, err := vault.NewPrompter(os.Stdin, cmd.OutOrStdout()).Credentials(name)
			if err != nil {
				return err
			}
			if err := v.Save(name, creds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved credentials for %s to %s\n", site.Name, cfg.Paths.CredentialsStore)
			return nil
		},
	})

	credentialsCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List portals with stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			v, err := vault.Open(cfg.Paths.CredentialsStore, cfg.Paths.CredentialKey)
			if err != nil {
				return err
			}
			names, err := v.Platforms()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	})
	return credentialsCmd
}

func findSite(name string) (platform.Site, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, s := range platform.Sites() {
		if s.Key == name {
			return s, true
		}
	}
	return platform.Site{}, false
}
