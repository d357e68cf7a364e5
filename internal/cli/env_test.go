package cli_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arran4/codeshot/internal/cli"
)

func TestFlagsFallBackToEnvironment(t *testing.T) {
	for _, tt := range []struct {
		name       string
		env        map[string]string
		args       []string
		level, fmt string
	}{
		{name: "defaults", level: "info", fmt: "text"},
		{
			name:  "environment",
			env:   map[string]string{"CODESHOT_LOG_LEVEL": "debug", "CODESHOT_LOG_FORMAT": "json"},
			level: "debug", fmt: "json",
		},
		{
			name:  "flag beats environment",
			env:   map[string]string{"CODESHOT_LOG_LEVEL": "debug"},
			args:  []string{"--log-level=warn"},
			level: "warn", fmt: "text",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			root := cli.NewRootCmd()
			require.NoError(t, root.ParseFlags(tt.args))

			pf := root.PersistentFlags()
			level, err := pf.GetString("log-level")
			require.NoError(t, err)
			format, err := pf.GetString("log-format")
			require.NoError(t, err)
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.fmt, format)
		})
	}
}

func TestFlagHelpNamesVariable(t *testing.T) {
	t.Parallel()

	root := cli.NewRootCmd()
	for _, name := range []string{"log-level", "settings", "state"} {
		f := root.PersistentFlags().Lookup(name)
		require.NotNil(t, f, name)
		assert.Contains(t, f.Usage, "$CODESHOT_")
	}
}
