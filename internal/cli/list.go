package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kolkov/launcher/internal/config"
	"github.com/kolkov/launcher/internal/launch"
)

func newListCmd(ctx *context) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured modules and the command each one runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			root := launch.Root(cfg)
			rules := launch.DefaultRules()
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Configured modules (root %s):\n", root)
			i := 0
			for _, name := range cfg.Modules() {
				if name == config.SelfModule {
					continue
				}
				i++
				params := rules.Build(cfg, root, name)
				fmt.Fprintf(out, "%d. %s\n", i, name)
				fmt.Fprintf(out, "   Command: %s\n", strings.Join(params.Command(), " "))
				fmt.Fprintf(out, "   Dir: %s\n", params.Dir)
			}
			if i == 0 {
				fmt.Fprintln(out, "  (none)")
			}
			return nil
		},
	}
}
