package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/audit"
	"github.com/arran4/codeshot/debounce"
	"github.com/arran4/codeshot/export"
	"github.com/arran4/codeshot/source"
)

// watchQuiet coalesces the burst of events editors emit on save.
const watchQuiet = 150 * time.Millisecond

type RenderArgs struct {
	*RootArgs

	Path     string
	Formats  []string
	OutDir   string
	Block    int
	Share    string
	Language string
	Sets     []string
	Audit    bool
	Watch    bool
}

func NewRenderArgs(rootArgs *RootArgs) *RenderArgs {
	return &RenderArgs{RootArgs: rootArgs}
}

func (ra *RenderArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&ra.Formats, "format", "f", []string{string(codeshot.FormatPNG)}, "Output formats, any of: png, jpeg, pdf")
	cmd.Flags().StringVarP(&ra.OutDir, "out-dir", "o", "", "Directory to write images to (default from settings)")
	cmd.Flags().IntVar(&ra.Block, "block", 0, "Index of the code block to render from a Markdown file")
	cmd.Flags().StringVar(&ra.Share, "share", "", "Render a share token or link instead of a file")
	cmd.Flags().StringVarP(&ra.Language, "language", "l", "", "Language to highlight as")
	cmd.Flags().StringArrayVar(&ra.Sets, "set", nil, "Override a configuration value for this run, as key=value")
	cmd.Flags().BoolVar(&ra.Audit, "audit", false, "Detect the language and mark lint findings before rendering")
	cmd.Flags().BoolVarP(&ra.Watch, "watch", "w", false, "Render again whenever the file changes")

	must(cmd.RegisterFlagCompletionFunc("format",
		cobra.FixedCompletions([]string{"png", "jpeg", "pdf"}, cobra.ShellCompDirectiveNoFileComp),
	))
	must(cmd.RegisterFlagCompletionFunc("set",
		cobra.FixedCompletions(codeshot.Keys(), cobra.ShellCompDirectiveNoSpace),
	))
}

func (ra *RenderArgs) formats() ([]codeshot.Format, error) {
	var out []codeshot.Format
	for _, s := range ra.Formats {
		f, err := codeshot.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func NewRenderCmd(ra *RenderArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a snippet to PNG, JPEG or PDF",
		Long: `Render a source file, standard input ("-"), a Markdown code block or a
share token to an image using the persisted configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ra.Path = source.Stdin
			if len(args) > 0 {
				ra.Path = args[0]
			}
			if ra.Watch && (ra.Path == source.Stdin || ra.Share != "") {
				return errors.New("--watch needs a file argument")
			}
			return runRender(cmd, ra)
		},
	}
	ra.AddFlags(cmd)

	bindEnvVars(cmd)

	return cmd
}

// renderer holds what is reused across watch iterations.
type renderer struct {
	args     *RenderArgs
	app      *app
	exporter *export.Exporter
	auditor  *audit.Auditor
	formats  []codeshot.Format
	dir      string
	stdin    io.Reader
	out      io.Writer
}

func runRender(cmd *cobra.Command, ra *RenderArgs) error {
	a, err := ra.open()
	if err != nil {
		return err
	}
	formats, err := ra.formats()
	if err != nil {
		return err
	}

	r := &renderer{
		args:     ra,
		app:      a,
		exporter: a.exporter(),
		formats:  formats,
		dir:      ra.OutDir,
		stdin:    cmd.InOrStdin(),
		out:      cmd.OutOrStdout(),
	}
	if r.dir == "" {
		r.dir = a.settings.Export.Dir
	}
	if ra.Audit {
		r.auditor = audit.NewAuditor(a.auditServiceOrLocal(), nil, a.logger)
	}
	r.exporter.Subscribe(func(p export.Progress) {
		a.logger.Debug("export progress",
			slog.String("state", p.State.String()),
			slog.Int("percent", p.Percent),
		)
	})

	ctx := cmd.Context()
	if err := r.once(ctx); err != nil {
		return err
	}
	if !ra.Watch {
		return nil
	}
	return r.watch(ctx)
}

func (r *renderer) once(ctx context.Context) error {
	buf, err := load(r.args.Path, r.args.Share, r.args.Block, r.stdin)
	if err != nil {
		return err
	}
	cfg, err := r.app.config(r.args.Sets)
	if err != nil {
		return err
	}
	switch {
	case r.args.Language != "":
		cfg.Language = strings.ToLower(r.args.Language)
	case buf.Language != "":
		cfg.Language = buf.Language
	}

	var findings []codeshot.Finding
	if r.auditor != nil {
		rep, _ := r.auditor.Run(ctx, buf.Text, cfg.Language)
		if rep.Language != "" {
			cfg.Language = rep.Language
		}
		findings = rep.Findings
		r.app.logger.Info("audit",
			slog.String("status", rep.Label()),
			slog.String("language", cfg.Language),
		)
		for _, f := range findings {
			r.app.logger.Info("finding", slog.Int("line", f.Line), slog.String("message", f.Message))
		}
	}

	results, err := r.exporter.ExportAll(ctx, export.Request{
		Buffer:   buf.Text,
		Config:   cfg,
		Findings: findings,
		Dir:      r.dir,
	}, r.formats...)
	if err != nil {
		return err
	}
	for _, res := range results {
		est := codeshot.FormatEstimate(codeshot.EstimateInputFor(buf.Text, cfg, res.Format))
		r.app.logger.Debug("saved",
			slog.String("path", res.Path),
			slog.Int("bytes", res.Bytes),
			slog.String("estimate", est),
		)
		fmt.Fprintln(r.out, res.Path)
	}
	return nil
}

// changes reports whether evt rewrote the file at path. Events that only
// touch attributes do not count.
func changes(evt fsnotify.Event, path string) bool {
	if filepath.Clean(evt.Name) != path {
		return false
	}
	return evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create)
}

func (r *renderer) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(r.args.Path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", r.args.Path, err)
	}
	// Editors replace files on save; watch the directory.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	rerender := debounce.New(watchQuiet, func() {
		if err := r.once(ctx); err != nil {
			r.app.logger.Error("render", slog.Any("err", err))
		}
	})
	defer rerender.Stop()

	r.app.logger.Info("watching for changes", slog.String("path", abs))
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if changes(evt, abs) {
				rerender.Trigger()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.app.logger.Error("watch", slog.Any("err", err))
		}
	}
}
