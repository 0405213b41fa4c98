package cli

import (
	stdcontext "context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kolkov/launcher/internal/api"
	"github.com/kolkov/launcher/internal/config"
	"github.com/kolkov/launcher/internal/logging"
	"github.com/kolkov/launcher/internal/metrics"
	"github.com/kolkov/launcher/internal/service"
	"github.com/kolkov/launcher/internal/supervisor"
)

const (
	defaultControlAddr = "127.0.0.1:50051"
	statusInterval     = 5 * time.Second
)

func newRunCmd(ctx *context) *cobra.Command {
	var tui bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start every configured module and supervise until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := config.EnsureExists(ctx.configPath)
			if err != nil {
				return err
			}
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cfg, cmd)
			if err != nil {
				return err
			}
			if created {
				logger.WithField("path", cfg.Path()).Info("created default config")
			}

			sv := supervisor.New(cfg, supervisor.WithLogger(logger))
			runCtx := logging.WithLogger(cmd.Context(), logger)
			return ctx.runSupervisor(runCtx, cmd, sv, logger, tui)
		},
	}
	cmd.Flags().BoolVar(&tui, "tui", false, "Show the interactive terminal UI")
	return cmd
}

func (c *context) runSupervisor(parent stdcontext.Context, cmd *cobra.Command, sv *supervisor.Supervisor, logger *logrus.Logger, tui bool) error {
	ctx, cancel := stdcontext.WithCancel(parent)
	defer cancel()
	log := logging.Logger(ctx)

	lis, err := net.Listen("tcp", c.controlAddr(sv.Config()))
	if err != nil {
		return fmt.Errorf("control API: %w", err)
	}
	apiDone := make(chan error, 1)
	go func() {
		apiDone <- api.Serve(ctx, lis, service.AsService(sv), log)
	}()

	stopMetrics := serveMetrics(sv.Config(), log)
	defer stopMetrics()

	for _, res := range supervisor.Failed(sv.StartAllAuto(ctx)) {
		log.WithField("module", res.Module).Warnf("auto start: %s", res.Message())
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	var ticks <-chan time.Time
	if tui {
		go func() {
			if err := sv.RunTUI(ctx, logger); err != nil {
				log.WithError(err).Error("terminal UI failed")
			}
			cancel()
		}()
	} else {
		ticker := time.NewTicker(statusInterval)
		defer ticker.Stop()
		ticks = ticker.C
		sv.PrintStatus(cmd.OutOrStdout())
	}

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-hup:
			c.reload(ctx, sv)
		case <-ticks:
			sv.PrintStatus(cmd.OutOrStdout())
		}
	}

	log.Info("shutting down")
	for _, res := range supervisor.Failed(sv.StopAll(stdcontext.WithoutCancel(ctx))) {
		log.WithField("module", res.Module).Errorf("shutdown: %s", res.Message())
	}
	return <-apiDone
}

// reload re-reads the config file. A broken file leaves the running set
// untouched.
func (c *context) reload(ctx stdcontext.Context, sv *supervisor.Supervisor) {
	log := logging.Logger(ctx)
	cfg, err := c.loadConfig()
	if err != nil {
		log.WithError(err).Error("reload: keeping current configuration")
		return
	}
	log.WithField("path", cfg.Path()).Info("reloading configuration")
	for _, res := range supervisor.Failed(sv.Reload(ctx, cfg)) {
		log.WithField("module", res.Module).Warnf("reload: %s", res.Message())
	}
}

// serveMetrics exposes the Prometheus registry when metrics_addr is set.
func serveMetrics(cfg *config.Config, log logrus.FieldLogger) func() {
	addr := cfg.String(config.Module(config.SelfModule, "metrics_addr"), "")
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.WithField("addr", addr).Info("metrics listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server failed")
		}
	}()

	return func() {
		shutdownCtx, cancel := stdcontext.WithTimeout(stdcontext.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
