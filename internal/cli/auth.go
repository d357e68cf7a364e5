package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arran4/codeshot/internal/settings"
	"github.com/arran4/codeshot/internal/vault"
)

func NewAuthCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the AI provider key stored in the system keychain",
	}
	cmd.AddCommand(newAuthSetKeyCmd(), newAuthClearKeyCmd(), newAuthStatusCmd(rootArgs))

	return cmd
}

func newAuthSetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-key [key]",
		Short: "Store the Gemini API key; reads standard input when no key is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var key string
			if len(args) > 0 {
				key = args[0]
			} else {
				sc := bufio.NewScanner(cmd.InOrStdin())
				if sc.Scan() {
					key = sc.Text()
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("read key: %w", err)
				}
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return errors.New("no key given")
			}
			return vault.NewCredentialManager().Store(settings.ProviderGemini, key)
		},
	}
}

func newAuthClearKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear-key",
		Short: "Remove the stored Gemini API key",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return vault.NewCredentialManager().Delete(settings.ProviderGemini)
		},
	}
}

func newAuthStatusCmd(rootArgs *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report which language service audits will use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if a.settings.AI.Provider == settings.ProviderLocal {
				fmt.Fprintln(out, "provider: local (no key needed)")
				return nil
			}
			fmt.Fprintf(out, "provider: %s (%s)\n", a.settings.AI.Provider, a.settings.AI.Model)
			if _, err := a.apiKey(); err != nil {
				fmt.Fprintf(out, "key: missing (%v)\n", err)
				return nil
			}
			fmt.Fprintln(out, "key: configured")
			return nil
		},
	}
}
