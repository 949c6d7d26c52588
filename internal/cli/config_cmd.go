package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vburojevic/simnav/internal/config"
	"github.com/vburojevic/simnav/internal/output"
)

// ConfigCmd groups the configuration subcommands
type ConfigCmd struct {
	Show     ConfigShowCmd     `cmd:"" default:"1" help:"Print the effective configuration"`
	Path     ConfigPathCmd     `cmd:"" help:"Print the config file in use"`
	Generate ConfigGenerateCmd `cmd:"" help:"Write a config file populated with the defaults"`
}

// ConfigOutput is the NDJSON record of config show
type ConfigOutput struct {
	Type          string         `json:"type"` // "config"
	SchemaVersion int            `json:"schemaVersion"`
	File          string         `json:"file,omitempty"`
	Settings      map[string]any `json:"settings"`
}

// ConfigShowCmd prints the effective configuration
type ConfigShowCmd struct{}

// Run executes config show
func (c *ConfigShowCmd) Run(globals *Globals) error {
	settings := globals.Config.Settings()
	file := config.ConfigFile()

	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(ConfigOutput{
			Type:          "config",
			SchemaVersion: output.SchemaVersion,
			File:          file,
			Settings:      settings,
		})
	}

	if file == "" {
		file = "(defaults, no file found)"
	}
	fmt.Fprintf(globals.Stdout, "# config file: %s\n", file)
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(globals.Stdout, "%s = %v\n", k, settings[k])
	}
	return nil
}

// ConfigPathCmd prints the config file in use and the search order
type ConfigPathCmd struct{}

// Run executes config path
func (c *ConfigPathCmd) Run(globals *Globals) error {
	file := config.ConfigFile()
	searched := searchPaths()

	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(map[string]any{
			"type":          "config_path",
			"schemaVersion": output.SchemaVersion,
			"file":          file,
			"searched":      searched,
		})
	}

	if file == "" {
		fmt.Fprintln(globals.Stdout, "No config file found. Searched:")
		for _, p := range searched {
			fmt.Fprintf(globals.Stdout, "  %s\n", p)
		}
		return nil
	}
	fmt.Fprintln(globals.Stdout, file)
	return nil
}

func searchPaths() []string {
	paths := []string{"/etc/simnav/simnav.yaml"}
	if dir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "simnav", "simnav.yaml"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".simnav.yaml"))
	}
	return append(paths, "./simnav.yaml", "./.simnavrc.yaml")
}

// ConfigGenerateCmd writes a config file with the default values
type ConfigGenerateCmd struct {
	Output string `short:"o" type:"path" default:"simnav.yaml" help:"File to write (yaml, json or toml by extension)"`
	Force  bool   `help:"Overwrite an existing file"`
}

// Run executes config generate
func (c *ConfigGenerateCmd) Run(globals *Globals) error {
	if _, err := os.Stat(c.Output); err == nil && !c.Force {
		return outputErrorCommon(globals, codeConfigWrite, fmt.Sprintf("%s already exists", c.Output), "pass --force to overwrite")
	}
	if err := config.Write(c.Output, config.Default()); err != nil {
		return outputErrorCommon(globals, codeConfigWrite, err.Error())
	}

	if globals.Format == "ndjson" {
		return json.NewEncoder(globals.Stdout).Encode(map[string]any{
			"type":          "config_generated",
			"schemaVersion": output.SchemaVersion,
			"file":          c.Output,
		})
	}
	fmt.Fprintf(globals.Stdout, "Wrote %s\n", c.Output)
	return nil
}
