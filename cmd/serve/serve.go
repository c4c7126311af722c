// Package serve implements the serve subcommand which runs the push dispatch
// HTTP service until interrupted.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridlead/pushgate/internal/api"
	"github.com/gridlead/pushgate/internal/conf"
	"github.com/gridlead/pushgate/internal/logging"
	"github.com/gridlead/pushgate/internal/observability"
	"github.com/gridlead/pushgate/internal/subscriptions"
	"github.com/gridlead/pushgate/internal/webpush"
)

const shutdownTimeout = 10 * time.Second

// Command creates the serve subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the push dispatch HTTP service",
		Long:  "Start the HTTP API that dispatches Web Push notifications and manages subscriptions.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Host, "host", viper.GetString("webserver.host"), "Listen address")
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Listen port")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	return nil
}

func runServer(settings *conf.Settings) error {
	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}
	logging.Init(level)

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	store, err := subscriptions.NewFromSettings(&settings.Store, settings.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize subscription store: %w", err)
	}
	store = subscriptions.Instrument(store, metrics.Store)
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error("failed to close subscription store", "error", err)
		}
	}()

	dispatcher := webpush.New(settings, store, nil, metrics.WebPush)
	defer dispatcher.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	controller, err := api.New(e, settings, dispatcher, store, metrics)
	if err != nil {
		return fmt.Errorf("failed to initialize API: %w", err)
	}

	addr := net.JoinHostPort(settings.WebServer.Host, settings.WebServer.Port)
	errCh := make(chan error, 1)
	go func() {
		logging.Info("starting push dispatch service", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logging.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logging.Error("forced shutdown", "error", err)
	}
	if err := controller.Shutdown(ctx); err != nil {
		logging.Error("failed to shut down API controller", "error", err)
	}
	return nil
}
