// Package commands implements the opsboard CLI.
package commands

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-opsboard/internal/config"
	"github.com/goliatone/go-opsboard/internal/logging"
	"github.com/goliatone/go-opsboard/pkg/di"
)

// CLI is the opsboard command tree.
type CLI struct {
	rootCmd *cobra.Command

	configPath string
	workersURL string
	mode       string
	logLevel   string
	logFormat  string
	keyFile    string

	cfg       config.Config
	logger    *slog.Logger
	container *di.Container
	diOptions []di.Option
}

// New builds the command tree.
func New(opts ...di.Option) *CLI {
	c := &CLI{diOptions: opts}

	rootCmd := &cobra.Command{
		Use:               "opsboard",
		Short:             "Property operations dashboard data layer",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Path to a YAML config file")
	flags.StringVar(&c.workersURL, "workers-url", "", "Workers API base URL")
	flags.StringVar(&c.mode, "mode", "", "Credential mode: server or client")
	flags.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	flags.StringVar(&c.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&c.keyFile, "key-file", "", "File holding the saved API key")

	rootCmd.AddCommand(
		c.newServeCmd(),
		c.newTasksCmd(),
		c.newCleaningCmd(),
		c.newDashboardCmd(),
		c.newSyncCmd(),
		c.newLoginCmd(),
		c.newLogoutCmd(),
	)

	c.rootCmd = rootCmd
	return c
}

// Execute runs the root command with ctx and closes the session afterwards.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// setup loads configuration, applies flag overrides and builds the logger.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}

	override := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	override(&cfg.WorkersURL, c.workersURL)
	override(&cfg.Mode, c.mode)
	override(&cfg.Log.Level, c.logLevel)
	override(&cfg.Log.Format, c.logFormat)
	override(&cfg.KeyFile, c.keyFile)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	c.cfg = cfg
	c.logger = logger
	return nil
}

// session returns the container, building it on first use.
func (c *CLI) session() (*di.Container, error) {
	if c.container != nil {
		return c.container, nil
	}
	opts := append([]di.Option{di.WithLogger(c.logger)}, c.diOptions...)
	container, err := di.NewContainer(c.cfg, opts...)
	if err != nil {
		return nil, err
	}
	c.container = container
	return container, nil
}

func (c *CLI) close() error {
	if c.container == nil {
		return nil
	}
	err := c.container.Close()
	c.container = nil
	return err
}
