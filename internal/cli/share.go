package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arran4/codeshot/share"
	"github.com/arran4/codeshot/source"
)

// DefaultShareBase is prefixed to share tokens by "share link".
const DefaultShareBase = "https://codeshot.app/"

func NewShareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Encode snippets into share tokens and links",
	}
	cmd.AddCommand(newShareEncodeCmd(), newShareDecodeCmd(), newShareLinkCmd())

	return cmd
}

func newShareEncodeCmd() *cobra.Command {
	var (
		block       int
		toClipboard bool
	)
	cmd := &cobra.Command{
		Use:   "encode [file]",
		Short: "Print the share token for a snippet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			buf, err := load(path, "", block, cmd.InOrStdin())
			if err != nil {
				return err
			}
			return emit(cmd, share.Encode(buf.Text), toClipboard)
		},
	}
	cmd.Flags().IntVar(&block, "block", 0, "Index of the code block to encode from a Markdown file")
	cmd.Flags().BoolVar(&toClipboard, "copy", false, "Also copy the token to the clipboard")
	bindEnvVars(cmd)

	return cmd
}

func newShareDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <token|link>",
		Short: "Print the snippet carried by a share token or link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := source.FromShare(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, buf.Text)
			if !strings.HasSuffix(buf.Text, "\n") {
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newShareLinkCmd() *cobra.Command {
	var (
		base        string
		block       int
		toClipboard bool
	)
	cmd := &cobra.Command{
		Use:   "link [file]",
		Short: "Print a link that opens the snippet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			buf, err := load(path, "", block, cmd.InOrStdin())
			if err != nil {
				return err
			}
			link, err := share.Link(base, buf.Text)
			if err != nil {
				return err
			}
			return emit(cmd, link, toClipboard)
		},
	}
	cmd.Flags().StringVar(&base, "base", DefaultShareBase, "Base URL of the link")
	cmd.Flags().IntVar(&block, "block", 0, "Index of the code block to share from a Markdown file")
	cmd.Flags().BoolVar(&toClipboard, "copy", false, "Also copy the link to the clipboard")
	bindEnvVars(cmd)

	return cmd
}

func emit(cmd *cobra.Command, s string, copyToClipboard bool) error {
	fmt.Fprintln(cmd.OutOrStdout(), s)
	if !copyToClipboard {
		return nil
	}
	if err := share.Copy(s); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Copied %s\n", share.Preview(s))
	return nil
}
