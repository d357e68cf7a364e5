package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arran4/codeshot"
	"github.com/arran4/codeshot/audit"
)

type auditOutput struct {
	Language string             `json:"language"`
	Status   string             `json:"status"`
	Findings []codeshot.Finding `json:"findings"`
}

func NewAuditCmd(rootArgs *RootArgs) *cobra.Command {
	var (
		block    int
		share    string
		language string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "audit [file]",
		Short: "Detect the language of a snippet and list lint findings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rootArgs.open()
			if err != nil {
				return err
			}
			svc, err := a.auditService()
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
			if language == "" {
				language = buf.Language
			}

			rep, _ := audit.NewAuditor(svc, nil, a.logger).Run(cmd.Context(), buf.Text, language)
			if rep.Status == audit.StatusQuotaExceeded {
				return audit.ErrQuotaExceeded
			}
			if rep.Language == "" {
				rep.Language = language
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(auditOutput{
					Language: rep.Language,
					Status:   rep.Status.String(),
					Findings: rep.Findings,
				})
			}
			fmt.Fprintf(out, "%s: %s\n", rep.Language, rep.Label())
			for _, f := range rep.Findings {
				fmt.Fprintf(out, "%s:%d: %s\n", buf.Origin, f.Line, f.Message)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&block, "block", 0, "Index of the code block to audit from a Markdown file")
	cmd.Flags().StringVar(&share, "share", "", "Audit a share token or link instead of a file")
	cmd.Flags().StringVarP(&language, "language", "l", "", "Language hint for lint")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")

	bindEnvVars(cmd)

	return cmd
}
