// Package cli implements the pagesmith command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pagesmith/pkg/buildinfo"
	"github.com/matzehuels/pagesmith/pkg/cache"
	"github.com/matzehuels/pagesmith/pkg/config"
	"github.com/matzehuels/pagesmith/pkg/pipeline"
	"github.com/matzehuels/pagesmith/pkg/planner"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "pagesmith"

	// defaultOutputBase names output files when no --output is given and
	// several formats are written.
	defaultOutputBase = "page"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
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
		Short:        "Pagesmith composes web pages from a prompt",
		Long:         `Pagesmith turns a natural-language prompt into a composed page: a planning service picks the layout mode and sections, pagesmith groups them into render instructions, fills in copy, and renders the result as HTML, JSON, JSX, diagrams or a terminal preview.`,
		Version:      buildinfo.Get().Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/pagesmith/config.toml)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the response and artifact cache")

	root.AddCommand(c.generateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Wiring
// =============================================================================

// loadConfig reads the config file named by --config, or the default one.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return cfg, err
	}
	if c.noCache {
		cfg.Cache.Backend = config.CacheNone
	}
	return cfg, nil
}

// backend bundles what the session commands need from the config.
type backend struct {
	cfg    config.Config
	cache  cache.Cache
	svc    planner.Service
	runner *pipeline.Runner
}

// openBackend loads the config and opens the cache, the planning service
// client and a pipeline runner sharing that cache.
func (c *CLI) openBackend(ctx context.Context, refresh bool) (*backend, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ch, err := cfg.OpenCache(ctx)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "backend", cfg.Cache.Backend, "error", err)
		ch = cache.NewNullCache()
	}
	return &backend{
		cfg:    cfg,
		cache:  ch,
		svc:    cfg.Service(ch, refresh, c.Logger),
		runner: pipeline.NewRunner(ch, nil, c.Logger),
	}, nil
}

func (b *backend) Close() error {
	return b.runner.Close()
}
