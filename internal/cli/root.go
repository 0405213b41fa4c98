package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kolkov/launcher/internal/config"
	"github.com/kolkov/launcher/internal/logging"
)

const defaultConfigPath = "launcher.yaml"

// context carries the persistent flags shared by every subcommand.
type context struct {
	configPath string
	logLevel   string
	addr       string
}

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *context) {
	ctx := &context{}

	root := &cobra.Command{
		Use:   "launcher",
		Short: "Start, stop and supervise the configured modules",
	}

	root.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", defaultConfigPath, "Path to the launcher configuration")
	root.PersistentFlags().StringVar(&ctx.logLevel, "log-level", "", "Log level (overrides modules.launcher.log_level)")
	root.PersistentFlags().StringVar(&ctx.addr, "addr", "", "Control API address (defaults to modules.launcher.control_addr)")

	root.AddCommand(newRunCmd(ctx))
	root.AddCommand(newListCmd(ctx))
	for _, cmd := range newControlCmds(ctx) {
		root.AddCommand(cmd)
	}

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, ctx
}

// Execute runs the CLI entrypoint.
func Execute() {
	ctx, stop := signal.NotifyContext(stdcontext.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (c *context) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath)
}

// loadConfigIfPresent falls back to the built-in defaults when the config
// file does not exist. Remote commands only need the control address.
func (c *context) loadConfigIfPresent() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return config.Parse([]byte(config.DefaultYAML))
}

func (c *context) logger(cfg *config.Config, cmd *cobra.Command) (*logrus.Logger, error) {
	level := c.logLevel
	if level == "" {
		level = cfg.String(config.Module(config.SelfModule, "log_level"), "INFO")
	}
	return logging.New(cmd.ErrOrStderr(), level)
}

func (c *context) controlAddr(cfg *config.Config) string {
	if c.addr != "" {
		return c.addr
	}
	return cfg.String(config.Module(config.SelfModule, "control_addr"), defaultControlAddr)
}
