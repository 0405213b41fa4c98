package cli

import (
	stdcontext "context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kolkov/launcher/internal/api"
	"github.com/kolkov/launcher/internal/service"
)

const callTimeout = 2 * time.Minute

// dialer is swapped in tests.
var dialer = func(addr string) (controlClient, error) {
	return api.Dial(addr)
}

type controlClient interface {
	Start(ctx stdcontext.Context, name string) (service.Result, error)
	Stop(ctx stdcontext.Context, name string) (service.Result, error)
	Restart(ctx stdcontext.Context, name string) ([]service.Result, error)
	StartAll(ctx stdcontext.Context) ([]service.Result, error)
	StopAll(ctx stdcontext.Context) ([]service.Result, error)
	Status(ctx stdcontext.Context) ([]service.Module, error)
	Close() error
}

func (c *context) withClient(cmd *cobra.Command, fn func(stdcontext.Context, controlClient) error) error {
	cfg, err := c.loadConfigIfPresent()
	if err != nil {
		return err
	}
	client, err := dialer(c.controlAddr(cfg))
	if err != nil {
		return err
	}
	defer client.Close()

	callCtx, cancel := stdcontext.WithTimeout(cmd.Context(), callTimeout)
	defer cancel()
	return fn(callCtx, client)
}

func newControlCmds(ctx *context) []*cobra.Command {
	single := func(use, short string, call func(controlClient, stdcontext.Context, string) ([]service.Result, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use + " MODULE",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withClient(cmd, func(callCtx stdcontext.Context, client controlClient) error {
					results, err := call(client, callCtx, args[0])
					if err != nil {
						return err
					}
					return printResults(cmd.OutOrStdout(), results)
				})
			},
		}
	}
	batch := func(use, short string, call func(controlClient, stdcontext.Context) ([]service.Result, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return ctx.withClient(cmd, func(callCtx stdcontext.Context, client controlClient) error {
					results, err := call(client, callCtx)
					if err != nil {
						return err
					}
					return printResults(cmd.OutOrStdout(), results)
				})
			},
		}
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Show module status from a running launcher",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(cmd, func(callCtx stdcontext.Context, client controlClient) error {
				modules, err := client.Status(callCtx)
				if err != nil {
					return err
				}
				printModules(cmd.OutOrStdout(), modules)
				return nil
			})
		},
	}

	return []*cobra.Command{
		single("start", "Start a module", func(c controlClient, ctx stdcontext.Context, name string) ([]service.Result, error) {
			res, err := c.Start(ctx, name)
			return []service.Result{res}, err
		}),
		single("stop", "Stop a module", func(c controlClient, ctx stdcontext.Context, name string) ([]service.Result, error) {
			res, err := c.Stop(ctx, name)
			return []service.Result{res}, err
		}),
		single("restart", "Stop a module and start it again", controlClient.Restart),
		batch("start-all", "Start every configured module", controlClient.StartAll),
		batch("stop-all", "Stop every running module", controlClient.StopAll),
		status,
	}
}

// errFailed makes the command exit non-zero after the results are printed.
type errFailed int

func (e errFailed) Error() string {
	if e == 1 {
		return "1 module failed"
	}
	return fmt.Sprintf("%d modules failed", int(e))
}
