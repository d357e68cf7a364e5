package cli

import (
	"github.com/spf13/cobra"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/internal/tui"
	"github.com/arran4/codeshot/session"
	"github.com/arran4/codeshot/source"
)

func NewStudioCmd(rootArgs *RootArgs) *cobra.Command {
	var (
		block     int
		share     string
		format    string
		shareBase string
		noAudit   bool
		logFile   string
	)

	cmd := &cobra.Command{
		Use:   "studio [file]",
		Short: "Edit a snippet interactively with live audit and export",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			// The terminal belongs to the studio while it runs.
			closeLog, err := a.logTo(logFile, rootArgs.LogLevel, rootArgs.LogFormat)
			if err != nil {
				return err
			}
			defer closeLog()

			f, err := codeshot.ParseFormat(format)
			if err != nil {
				return err
			}

			text, language := codeshot.SampleBuffer, ""
			switch {
			case len(args) > 0:
				buf, err := load(args[0], "", block, cmd.InOrStdin())
				if err != nil {
					return err
				}
				text, language = buf.Text, buf.Language
			case share != "":
				text = source.FromShareOr(share, codeshot.SampleBuffer).Text
			}

			cfg := a.store.Load()
			if language != "" {
				cfg.Language = language
			}

			ctx := cmd.Context()
			opts := []session.Option{
				session.WithStore(a.store),
				session.WithLogger(a.logger),
				session.WithContext(ctx),
			}
			if !noAudit {
				opts = append(opts, session.WithAudit(a.auditServiceOrLocal(), a.settings.Audit.Debounce))
			}
			s := session.New(cfg, opts...)
			defer s.Close()
			s.SetBuffer(text)

			return tui.Run(ctx, tui.Options{
				Session:   s,
				Exporter:  a.exporter(),
				Format:    f,
				Dir:       a.settings.Export.Dir,
				ShareBase: shareBase,
			})
		},
	}
	cmd.Flags().IntVar(&block, "block", 0, "Index of the code block to open from a Markdown file")
	cmd.Flags().StringVar(&share, "share", "", "Open a share token or link")
	cmd.Flags().StringVarP(&format, "format", "f", string(codeshot.FormatPNG), "Initial export format")
	cmd.Flags().StringVar(&shareBase, "share-base", DefaultShareBase, "Base URL for copied share links")
	cmd.Flags().BoolVar(&noAudit, "no-audit", false, "Disable background audits")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file while the studio runs; discarded when empty")
	must(cmd.MarkFlagFilename("log-file"))

	bindEnvVars(cmd)

	return cmd
}
