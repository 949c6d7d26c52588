package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/vburojevic/simnav/internal/output"
)

// Set at build time with -ldflags "-X .../internal/cli.Version=..."
var (
	Version = "dev"
	Commit  = "none"
)

// VersionCmd shows version information
type VersionCmd struct{}

// VersionOutput represents the NDJSON output for version
type VersionOutput struct {
	Type          string `json:"type"`
	SchemaVersion int    `json:"schemaVersion"`
	Version       string `json:"version"`
	Commit        string `json:"commit"`
	GoVersion     string `json:"go_version"`
}

// Run executes the version command
func (c *VersionCmd) Run(globals *Globals) error {
	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(VersionOutput{
			Type:          "version",
			SchemaVersion: output.SchemaVersion,
			Version:       Version,
			Commit:        Commit,
			GoVersion:     runtime.Version(),
		})
	}
	fmt.Fprintf(globals.Stdout, "simnav version %s (%s, %s)\n", Version, Commit, runtime.Version())
	return nil
}
