package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/arran4/codeshot/internal/settings"
)

// envName is the variable standing in for a flag: "out-dir" is
// CODESHOT_OUT_DIR.
func envName(flag string) string {
	return settings.EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// bindEnvVars fills every flag of cmd that was not given on the command
// line from its CODESHOT_* variable, and names the variable in the help.
func bindEnvVars(cmd *cobra.Command) {
	for _, set := range []*pflag.FlagSet{cmd.Flags(), cmd.PersistentFlags()} {
		set.VisitAll(fromEnv)
	}
}

func fromEnv(f *pflag.Flag) {
	name := envName(f.Name)
	if hint := " ($" + name + ")"; !strings.HasSuffix(f.Usage, hint) {
		f.Usage += hint
	}
	value, ok := os.LookupEnv(name)
	if !ok || f.Changed {
		return
	}
	if err := f.Value.Set(value); err != nil {
		slog.Warn("ignoring environment variable", slog.String("env", name), slog.Any("err", err))
	}
}
