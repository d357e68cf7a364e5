package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/store"
)

func NewConfigCmd(rootArgs *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change the persisted render configuration",
	}
	cmd.AddCommand(
		newConfigShowCmd(rootArgs),
		newConfigGetCmd(rootArgs),
		newConfigSetCmd(rootArgs),
		newConfigResetCmd(rootArgs),
		newConfigKeysCmd(),
	)

	return cmd
}

func newConfigShowCmd(rootArgs *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(map[string]codeshot.Patch{store.Key: codeshot.PatchOf(a.store.Load())})
			if err != nil {
				return fmt.Errorf("marshal configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func newConfigGetCmd(rootArgs *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Print one configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: codeshot.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			v, err := a.store.Load().Value(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	}
}

func newConfigSetCmd(rootArgs *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key>=<value>...",
		Short: "Change and persist configuration values",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			cfg, err := a.config(args)
			if err != nil {
				return err
			}
			return a.store.Save(cfg)
		},
	}
}

func newConfigResetCmd(rootArgs *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default configuration",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			return a.store.Reset()
		},
	}
}

func newConfigKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List configuration keys with their defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			def := codeshot.DefaultConfig()
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tDEFAULT")
			for _, k := range codeshot.Keys() {
				v, err := def.Value(k)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\n", k, v)
			}
			return tw.Flush()
		},
	}
}
