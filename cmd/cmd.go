package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	"github.com/USA-RedDragon/pinpoint-server/internal/apis"
	"github.com/USA-RedDragon/pinpoint-server/internal/config"
	"github.com/USA-RedDragon/pinpoint-server/internal/events"
	"github.com/USA-RedDragon/pinpoint-server/internal/metrics"
	"github.com/USA-RedDragon/pinpoint-server/internal/saved"
	"github.com/USA-RedDragon/pinpoint-server/internal/server"
	"github.com/USA-RedDragon/pinpoint-server/internal/storage"
	"github.com/spf13/cobra"
	"github.com/ztrue/shutdown"
	"golang.org/x/sync/errgroup"
)

func NewCommand(version, commit string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pinpoint-server",
		Version: fmt.Sprintf("%s - %s", version, commit),
		Annotations: map[string]string{
			"version": version,
			"commit":  commit,
		},
		RunE:          run,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(cmd)
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	slog.Info("pinpoint-server", "version", cmd.Annotations["version"], "commit", cmd.Annotations["commit"])

	config, err := config.LoadConfig(cmd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	err = config.Validate()
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	store, err := storage.NewStorage(cmd.Context(), config)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	slog.Info("Storage opened", "driver", config.Persistence.Driver)

	savedStore := saved.NewStore(cmd.Context(), store)
	clients := apis.NewClients(config)

	var m *metrics.Metrics
	if config.HTTP.Metrics.Enabled {
		m = metrics.NewMetrics()
	}

	bus := events.NewEventBus()
	var forwarder *events.NATSForwarder
	if config.NATS.Enabled {
		forwarder, err = events.StartNATSForwarder(config.NATS.URL, config.NATS.SubjectPrefix, bus)
		if err != nil {
			return fmt.Errorf("failed to start NATS forwarder: %w", err)
		}
		slog.Info("NATS forwarder started", "subject_prefix", config.NATS.SubjectPrefix)
	}

	if config.Map.PublicToken == "" {
		slog.Warn("No map token configured, selections will be disabled")
	}

	slog.Info("Starting HTTP server")
	server := server.NewServer(config, savedStore, clients, m, bus)
	err = server.Start()
	if err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	stop := func(_ os.Signal) {
		slog.Info("Shutting down")

		errGrp := errgroup.Group{}

		errGrp.Go(func() error {
			return server.Stop()
		})

		errGrp.Go(func() error {
			return store.Close()
		})

		err := errGrp.Wait()
		if err != nil {
			slog.Error("Shutdown error", "error", err.Error())
		}
		if forwarder != nil {
			forwarder.Close()
		}
		slog.Info("Shutdown complete")
	}

	if cmd.Annotations["version"] == "testing" {
		doneChannel := make(chan struct{})
		go func() {
			slog.Info("Sleeping for 5 seconds")
			time.Sleep(5 * time.Second)
			slog.Info("Sending SIGTERM")
			stop(syscall.SIGTERM)
			doneChannel <- struct{}{}
		}()
		<-doneChannel
	} else {
		shutdown.AddWithParam(stop)
		shutdown.Listen(syscall.SIGINT, syscall.SIGKILL, syscall.SIGTERM, syscall.SIGQUIT)
	}

	return nil
}
