package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/arran4/codeshot/internal/settings"
)

const redacted = "<redacted>"

var errSecretSetting = errors.New("the API key is kept in the system keychain")

func NewSettingsCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show and change operator settings (AI provider, export directory, fonts)",
	}
	cmd.AddCommand(
		newSettingsPathCmd(rootArgs),
		newSettingsShowCmd(rootArgs),
		newSettingsGetCmd(rootArgs),
		newSettingsSetCmd(rootArgs),
		newSettingsKeysCmd(),
	)

	return cmd
}

func newSettingsPathCmd(rootArgs *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.manager.File())
			return nil
		},
	}
}

func newSettingsShowCmd(rootArgs *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			all := a.manager.Viper().AllSettings()
			if ai, ok := all["ai"].(map[string]any); ok {
				if k, _ := ai["api_key"].(string); k != "" {
					ai["api_key"] = redacted
				}
			}
			out, err := yaml.Marshal(all)
			if err != nil {
				return fmt.Errorf("marshal settings: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newSettingsGetCmd(rootArgs *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one effective setting",
		Args:      cobra.ExactArgs(1),
		ValidArgs: settings.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			key := strings.ToLower(args[0])
			if !slices.Contains(settings.Keys(), key) {
				return fmt.Errorf("%w: unknown key %q", settings.ErrInvalidSettings, args[0])
			}
			v := a.manager.Get(key)
			if key == settings.AIAPIKeyKey && fmt.Sprint(v) != "" {
				v = redacted
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newSettingsSetCmd(rootArgs *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key>=<value>...",
		Short: "Change and save settings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			for _, kv := range args {
				key, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("%w: expected key=value, got %q", settings.ErrInvalidSettings, kv)
				}
				key = strings.ToLower(strings.TrimSpace(key))
				if key == settings.AIAPIKeyKey {
					return fmt.Errorf("%w: use %q", errSecretSetting, cmdName+" auth set-key")
				}
				if err := a.manager.Set(key, value); err != nil {
					return err
				}
			}
			if _, err := a.manager.Settings(); err != nil {
				return err
			}
			return a.manager.Save()
		},
	}
}

func newSettingsKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List setting keys with their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tDEFAULT\tENV")
			for _, k := range settings.Keys() {
				fmt.Fprintf(tw, "%s\t%v\t%s\n", k, settings.DefaultValues[k],
					settings.EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(k, ".", "_")))
			}
			return tw.Flush()
		},
	}
}
