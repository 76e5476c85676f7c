// Package cli implements the mesh2vtk command-line interface.
//
// # Commands
//
//   - convert: Convert one mesh tally of a document into VTK datasets
//   - inspect: Summarize every mesh tally in a document
//   - completion: Generate shell completion scripts
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging and --quiet (-q)
// to show errors only. The logger is passed through context.Context so that
// commands and the pipeline share one timestamped logger.
//
// # Configuration
//
// Defaults for convert flags may be kept in a TOML file, read from --config or
// $XDG_CONFIG_HOME/mesh2vtk/config.toml. Flags given on the command line always
// win over the file.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mesh2vtk/pkg/buildinfo"
	"github.com/matzehuels/mesh2vtk/pkg/dispatch"
	"github.com/matzehuels/mesh2vtk/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mesh2vtk"

	// configFile is the name of the config file inside the config directory.
	configFile = "config.toml"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogError = log.ErrorLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Writer receives converted frames. Nil writes to the local filesystem.
	Writer dispatch.Writer

	verbose    bool
	quiet      bool
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "mesh2vtk converts mesh tallies into VTK datasets",
		Long:         `mesh2vtk converts rectangular and cylindrical mesh tally results into VTK datasets for ParaView, VisIt and other VTK readers.`,
		Version:      buildinfo.ResolvedVersion(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.SetLogLevel(c.logLevel())
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "only log errors")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/mesh2vtk/config.toml)")
	root.MarkFlagsMutuallyExclusive("verbose", "quiet")

	// Register all subcommands
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) logLevel() log.Level {
	switch {
	case c.verbose:
		return LogDebug
	case c.quiet:
		return LogError
	default:
		return LogInfo
	}
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(logger *log.Logger) *pipeline.Runner {
	return pipeline.NewRunner(c.Writer, logger)
}

// =============================================================================
// Paths
// =============================================================================

// configDir returns the config directory using XDG standard (~/.config/mesh2vtk/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
