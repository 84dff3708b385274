// Package cli implements the migas command line.
package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jamesprial/migas-go/internal/config"
	"github.com/jamesprial/migas-go/internal/logging"
	"github.com/jamesprial/migas-go/internal/migas"
	"github.com/jamesprial/migas-go/internal/render"
)

// rootOptions carries the persistent flags and the state resolved from them
// before a subcommand runs.
type rootOptions struct {
	configPath string
	endpoint   string
	formatStr  string
	logLevel   string

	format render.Format
	cfg    *config.Config
}

func formatFlag() string {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		return string(render.FormatPretty)
	}
	return string(render.FormatText)
}

// NewRootCmd creates a fresh command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "migas",
		Short: "Send and query migas usage telemetry",
		Long: `migas reports anonymous usage of a project version to a migas server,
checks whether a version is current or flagged, and reads usage counts.

Telemetry can be turned off with MIGAS_OPTOUT=1 or "telemetry: false" in the
config file; every command then reports that telemetry is disabled and sends
nothing.

The serve command exposes the same operations as MCP tools over HTTP.`,
		Example: `  # Record a run of a project version
  migas breadcrumb nipreps/fmriprep 24.0.0 --status C

  # Ask whether a version is current
  migas check nipreps/fmriprep 23.1.0 -f json

  # Show the request a call would send, and check that it parses
  migas query add_breadcrumb --param project=a/b --param project_version=1.0 --check

  # Serve the MCP tools
  migas serve --port 8080`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to the YAML config file (default: $MIGAS_CONFIG_PATH)")
	cmd.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "migas GraphQL endpoint (overrides config and MIGAS_ENDPOINT)")
	cmd.PersistentFlags().StringVarP(&opts.formatStr, "format", "f", formatFlag(), "Output format: json, text, pretty (default: pretty if interactive, text otherwise)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		if opts.format, err = render.ParseFormat(opts.formatStr); err != nil {
			return err
		}
		opts.cfg, err = opts.loadConfig()
		if err != nil {
			return err
		}
		return logging.Setup(opts.cfg.LogLevel, cmd.ErrOrStderr())
	}

	cmd.AddCommand(newBreadcrumbCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newUsageCmd(opts))
	cmd.AddCommand(newAddProjectCmd(opts))
	cmd.AddCommand(newQueryCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// loadConfig resolves the configuration: .env files, then the config file
// (--config, else MIGAS_CONFIG_PATH, else defaults), then environment
// overrides, then flags.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	var envDir string
	if o.configPath != "" {
		envDir = filepath.Dir(o.configPath)
	}
	config.LoadEnvFiles(envDir)

	path := o.configPath
	if path == "" {
		path = os.Getenv("MIGAS_CONFIG_PATH")
	}

	cfg := config.DefaultConfig()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("load config %q: %w", path, err)
		}
		cfg = loaded
	}

	config.ApplyEnvOverrides(cfg)
	if o.endpoint != "" {
		cfg.Endpoint = o.endpoint
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// client returns a migas client for the resolved config.
func (o *rootOptions) client() *migas.Client {
	return migas.New(o.cfg)
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// ExecuteWithArgs runs the CLI with the given arguments and returns stdout, stderr, and any error.
// This is useful for testing.
func ExecuteWithArgs(args []string) (stdout string, stderr string, err error) {
	cmd := NewRootCmd()

	stdoutBuf := new(bytes.Buffer)
	stderrBuf := new(bytes.Buffer)

	cmd.SetOut(stdoutBuf)
	cmd.SetErr(stderrBuf)
	cmd.SetArgs(args)

	err = cmd.Execute()

	return stdoutBuf.String(), stderrBuf.String(), err
}
