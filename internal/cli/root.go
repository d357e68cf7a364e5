package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/arran4/codeshot/internal/log"
)

const (
	cmdName     = "codeshot"
	cmdDesc     = `Turn code snippets into framed, syntax-highlighted images.`
	cmdExamples = `  # Render a file to PNG in the current directory:
  codeshot render main.go

  # Render the second code block of a Markdown file as PDF:
  codeshot render README.md --block 1 --format pdf

  # Re-render on every save, with an AI audit:
  codeshot render main.go --watch --audit

  # Open the interactive studio:
  codeshot studio main.go`
)

type RootArgs struct {
	LogLevel     string
	LogFormat    string
	SettingsFile string
	StateFile    string
}

func NewRootArgs() *RootArgs {
	return &RootArgs{}
}

func (ra *RootArgs) AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().
		StringVar(&ra.LogLevel, "log-level", "info", fmt.Sprintf("Log level, one of: %s", log.Levels))
	cmd.PersistentFlags().
		StringVar(&ra.LogFormat, "log-format", "text", fmt.Sprintf("Log format, one of: %s", log.Formats))
	cmd.PersistentFlags().
		StringVar(&ra.SettingsFile, "settings", "", "Path to the settings file (default $XDG_CONFIG_HOME/codeshot/settings.yaml)")
	cmd.PersistentFlags().
		StringVar(&ra.StateFile, "state", "", "Path to the persisted render configuration")

	must(cmd.RegisterFlagCompletionFunc("log-format",
		cobra.FixedCompletions(log.Formats, cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.RegisterFlagCompletionFunc("log-level",
		cobra.FixedCompletions(log.Levels, cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.MarkPersistentFlagFilename("settings", "yaml", "yml"))
	must(cmd.MarkPersistentFlagFilename("state", "yaml", "yml"))
}

func NewRootCmd() *cobra.Command {
	args := NewRootArgs()

	cmd := &cobra.Command{
		Use:               cmdName,
		Short:             cmdDesc,
		Example:           cmdExamples,
		PersistentPreRunE: setupLogging(args),
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	args.AddFlags(cmd)
	cmd.AddCommand(
		NewRenderCmd(NewRenderArgs(args)),
		NewEstimateCmd(args),
		NewAuditCmd(args),
		NewShareCmd(),
		NewConfigCmd(args),
		NewSettingsCmd(args),
		NewAuthCmd(args),
		NewStudioCmd(args),
	)

	bindEnvVars(cmd)

	return cmd
}

func setupLogging(rc *RootArgs) func(cmd *cobra.Command, _ []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		logHandler, err := log.NewHandler(cmd.ErrOrStderr(), rc.LogLevel, rc.LogFormat)
		if err != nil {
			return fmt.Errorf("create log handler: %w", err)
		}

		slog.SetDefault(slog.New(logHandler))

		return nil
	}
}
