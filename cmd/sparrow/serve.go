package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zeusync/sparrow/internal/app"
	"github.com/zeusync/sparrow/internal/core/events/bus"
	"github.com/zeusync/sparrow/internal/core/observability/log"
	"github.com/zeusync/sparrow/internal/core/scene"
	"github.com/zeusync/sparrow/internal/injector"
	"github.com/zeusync/sparrow/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the registry schema and metrics to authoring tools",
	Long: `Serve the registry schema and metrics to authoring tools.

Connected tools receive a registry.updated message after every export.
Send SIGHUP to export again.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.Startup(ctx, scene.NewWorld()); err != nil {
		return err
	}

	srvCfg := server.DefaultServerConfig()
	srvCfg.ListenAddr = cfg.Server.Addr
	srv := server.New(srvCfg, a.Exporter, a.Registry, a.Metrics.Handler(), a.Logger)
	if err := srv.Start(ctx); err != nil {
		return err
	}
	sub, err := pushSchemaUpdates(a.Bus, srv, a.Logger)
	if err != nil {
		return err
	}
	defer sub.Cancel()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-hup:
			if _, err := a.Export(); err != nil {
				a.Logger.Error("re-export schema", log.String("path", cfg.SavePath), log.Error(err))
			}
		}
	}

	a.Logger.Info("shutting down")
	if err := srv.Stop(context.Background()); err != nil {
		a.Logger.Error("stop server", log.Error(err))
		return err
	}
	return nil
}

// pushSchemaUpdates broadcasts the schema to every connected tool after each
// successful export.
func pushSchemaUpdates(events bus.EventBus, srv *server.Server, logger log.Log) (bus.Subscription, error) {
	return events.Subscribe(app.EventSchemaExported, func(bus.Event) error {
		sent, err := srv.BroadcastSchema()
		if err != nil {
			return err
		}
		logger.Debug("schema pushed", log.Int("clients", sent))
		return nil
	})
}
