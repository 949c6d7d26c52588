package cli

import (
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"
)

func newParser(t *testing.T, c *CLI) *kong.Kong {
	t.Helper()
	parser, err := kong.New(c, kong.Vars{"config_format": "ndjson"})
	require.NoError(t, err)
	return parser
}

// Ensure flag names/aliases keep working for scripts.
func TestRunFlagsParse(t *testing.T) {
	var c CLI
	parser := newParser(t, &c)

	ctx, err := parser.Parse([]string{
		"-f", "text",
		"-v",
		"run",
		"--corners", "ne,sw",
		"--report", "out.json",
	})
	require.NoError(t, err)

	require.Equal(t, "run", ctx.Command())
	require.Equal(t, "text", c.Format)
	require.True(t, c.Verbose)
	require.Equal(t, []string{"ne", "sw"}, c.Run.Corners)
	require.Equal(t, "out.json", filepath.Base(c.Run.Report))
	require.False(t, c.Run.SaveReport)
}

func TestFormatDefaultsFromVars(t *testing.T) {
	var c CLI
	parser := newParser(t, &c)

	_, err := parser.Parse([]string{"version"})
	require.NoError(t, err)
	require.Equal(t, "ndjson", c.Format)

	_, err = parser.Parse([]string{"-f", "xml", "version"})
	require.Error(t, err)
}

func TestConfigDefaultsToShow(t *testing.T) {
	var c CLI
	parser := newParser(t, &c)

	ctx, err := parser.Parse([]string{"config"})
	require.NoError(t, err)
	require.Equal(t, "config show", ctx.Command())

	ctx, err = parser.Parse([]string{"config", "generate", "-o", "x.yaml", "--force"})
	require.NoError(t, err)
	require.Equal(t, "config generate", ctx.Command())
	require.True(t, c.Config.Generate.Force)
	require.Equal(t, "x.yaml", filepath.Base(c.Config.Generate.Output))
}

func TestSchemaTypesParse(t *testing.T) {
	var c CLI
	parser := newParser(t, &c)

	_, err := parser.Parse([]string{"schema", "-t", "run_end", "-t", "summary"})
	require.NoError(t, err)
	require.Equal(t, []string{"run_end", "summary"}, c.Schema.Type)
}
