package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/0xmhha/hydrotrack/pkg/config"
	"gopkg.in/yaml.v3"
)

// configCommand handles configuration management subcommands.
type configCommand struct {
	configPath string
	out        io.Writer

	// in answers the reset confirmation prompt. Default: os.Stdin.
	in io.Reader
}

// Execute runs the config command with given arguments.
func (c *configCommand) Execute(args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	subcommand := args[0]
	subargs := args[1:]

	switch subcommand {
	case "show":
		return c.runShow(subargs)
	case "path":
		return c.runPath()
	case "reset":
		return c.runReset(subargs)
	case "help":
		return c.showHelp()
	default:
		return fmt.Errorf("unknown config subcommand: %s", subcommand)
	}
}

// runShow displays the effective configuration.
func (c *configCommand) runShow(args []string) error {
	fs := flag.NewFlagSet("config show", flag.ContinueOnError)
	format := fs.String("format", "yaml", "output format (yaml, json)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	switch *format {
	case "json":
		return c.showJSON(cfg)
	case "yaml":
		return c.showYAML(cfg)
	default:
		return fmt.Errorf("unknown format %q (use yaml or json)", *format)
	}
}

func (c *configCommand) showYAML(cfg *config.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	fmt.Fprintln(c.out, "# Effective configuration")
	fmt.Fprintln(c.out, "# Source:", c.source())
	fmt.Fprintln(c.out)
	_, err = c.out.Write(data)
	return err
}

func (c *configCommand) showJSON(cfg *config.Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	_, err = fmt.Fprintln(c.out, string(data))
	return err
}

// runPath shows the configuration file search paths.
func (c *configCommand) runPath() error {
	paths := []string{config.LocalPath, config.DefaultPath()}
	if c.configPath != "" {
		paths = []string{c.configPath}
	}

	fmt.Fprintln(c.out, "Configuration file search paths (in order of precedence):")
	fmt.Fprintln(c.out)

	for i, p := range paths {
		exists := "not found"
		if _, err := os.Stat(p); err == nil {
			exists = "found"
		}
		fmt.Fprintf(c.out, "  %d. %s [%s]\n", i+1, p, exists)
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "Environment overrides: %s, %s, %s, %s, %s (also read from %s)\n",
		config.EnvAddr, config.EnvDB, config.EnvDefaultTZ, config.EnvInbox, config.EnvLogLevel, config.EnvFile)
	_, err := fmt.Fprintln(c.out, "Active configuration:", c.source())
	return err
}

// runReset writes the default configuration.
func (c *configCommand) runReset(args []string) error {
	fs := flag.NewFlagSet("config reset", flag.ContinueOnError)
	force := fs.Bool("force", false, "skip confirmation prompt")
	output := fs.String("output", "", "output path for config file (default: -config or ~/.config/hydrotrack/config.yaml)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	outputPath := *output
	if outputPath == "" {
		outputPath = c.configPath
	}
	if outputPath == "" {
		outputPath = config.DefaultPath()
	}

	if _, err := os.Stat(outputPath); err == nil && !*force {
		fmt.Fprintf(c.out, "Configuration file already exists at: %s\n", outputPath)
		fmt.Fprint(c.out, "Overwrite? [y/N]: ")

		if !c.confirm() {
			fmt.Fprintln(c.out, "Reset cancelled.")
			return nil
		}
	}

	if err := config.Save(config.Default(), outputPath); err != nil {
		return err
	}

	_, err := fmt.Fprintf(c.out, "Configuration reset to defaults at: %s\n", outputPath)
	return err
}

// confirm reads a yes/no answer. Anything but y or yes, including EOF, is no.
func (c *configCommand) confirm() bool {
	in := c.in
	if in == nil {
		in = os.Stdin
	}

	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		fmt.Fprintln(c.out)
		return false
	}
	response := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return response == "y" || response == "yes"
}

// source returns the path of the active configuration file.
func (c *configCommand) source() string {
	path := config.NewLoader(c.configPath).Path()
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return "defaults (no config file found)"
}

func (c *configCommand) showHelp() error {
	help := `Config - Configuration management

Usage:
  hydrotrack config <subcommand> [flags]

Subcommands:
  show      Display the effective configuration
  path      Show configuration file paths
  reset     Reset configuration to defaults

Show Flags:
  -format   Output format (yaml, json) (default: yaml)

Reset Flags:
  -force    Skip confirmation prompt
  -output   Output path for config file

Examples:
  # Show the effective configuration
  hydrotrack config show

  # Show configuration in JSON format
  hydrotrack config show -format json

  # Write defaults without confirmation
  hydrotrack config reset -force
`
	_, err := fmt.Fprint(c.out, help)
	return err
}
