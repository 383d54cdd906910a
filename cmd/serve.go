package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	apihttp "github.com/wrtpod/wrtpod/internal/adapters/in/http"
	"github.com/wrtpod/wrtpod/internal/adapters/out/podman"
	"github.com/wrtpod/wrtpod/internal/adapters/out/uci"
	"github.com/wrtpod/wrtpod/internal/config"
	"github.com/wrtpod/wrtpod/internal/events"
	"github.com/wrtpod/wrtpod/internal/usecase/network"
	"github.com/wrtpod/wrtpod/internal/usecase/pull"
	"github.com/wrtpod/wrtpod/internal/usecase/update"
	"github.com/wrtpod/wrtpod/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the wrtpod API server",
	Long:  `Serve the auto-update, pull session and network integration API.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config", "error", err)
	}

	bus := events.NewInMemoryBus(100)
	if err := bus.Subscribe(events.NewLogHandler()); err != nil {
		log.Fatal("failed to subscribe log handler", "error", err)
	}
	if err := bus.Start(); err != nil {
		log.Fatal("failed to start event bus", "error", err)
	}

	podmanClient, err := podman.NewClient(socketPath(cmd))
	if err != nil {
		log.Fatal("failed to connect to podman", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	version, err := podmanClient.Version(ctx)
	cancel()
	if err != nil {
		log.Fatal("podman socket is not responding", "error", err)
	}
	log.Info("connected to podman", "version", version)

	puller := pull.NewClient(podmanClient)
	updates := update.NewService(podmanClient, puller, bus)
	networks := network.NewReconciler(uci.NewStore(), bus)

	server := apihttp.NewServer(updates, networks, podmanClient)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(cfg.ListenAddr())
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			log.Error("http server failed", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err)
	}
	if err := bus.Stop(); err != nil {
		log.Error("event bus shutdown failed", "error", err)
	}
	log.Info("stopped")
}
