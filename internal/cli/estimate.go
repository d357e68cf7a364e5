package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arran4/codeshot"
)

func NewEstimateCmd(rootArgs *RootArgs) *cobra.Command {
	var (
		block int
		share string
		sets  []string
	)

	cmd := &cobra.Command{
		Use:   "estimate [file]",
		Short: "Estimate the exported file size for each format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			buf, err := load(path, share, block, cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, err := a.config(sets)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "FORMAT\tQUALITY\tESTIMATE\n")
			for _, f := range codeshot.Formats {
				in := codeshot.EstimateInputFor(buf.Text, cfg, f)
				fmt.Fprintf(tw, "%s\t%d\t%s\n", f, in.Quality, codeshot.FormatEstimate(in))
			}
			fmt.Fprintf(tw, "\nFidelity: %dx Scale\n", cfg.ExportScale)
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&block, "block", 0, "Index of the code block to use from a Markdown file")
	cmd.Flags().StringVar(&share, "share", "", "Estimate a share token or link instead of a file")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Override a configuration value, as key=value")

	bindEnvVars(cmd)

	return cmd
}
