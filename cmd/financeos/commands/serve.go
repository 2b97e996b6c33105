package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/financeos/financeos/internal/gateway"
	"github.com/spf13/cobra"
)

func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the FinanceOS server",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	platform, err := newPlatform(ctx)
	if err != nil {
		return fmt.Errorf("failed to load platform: %w", err)
	}
	cfg := platform.Config

	detachNotifier := platform.Notifier.Attach(platform.Bus)
	defer detachNotifier()

	if cfg.Automation.Enabled {
		tick := time.Duration(cfg.Automation.TickSeconds) * time.Second
		if err := platform.Automation.Start(tick); err != nil {
			slog.Warn("automation runtime failed to start", "error", err)
		} else {
			defer platform.Automation.Stop()
		}
	}

	gatewayServer := gateway.New(cfg.Gateway, gateway.Deps{
		Policies:   platform.Policies,
		Registry:   platform.Registry,
		Dispatcher: platform.Dispatcher,
		Ledger:     platform.Ledger,
		Reports:    platform.Reports,
		Generator:  platform.Generator,
		Approvals:  platform.Approvals,
		Recorder:   platform.Recorder,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := gatewayServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("gateway server failed: %w", err)
		}
	}()

	fmt.Printf("FinanceOS server running. Gateway: http://%s\nPress Ctrl+C to stop.\n", gatewayServer.Addr())

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		slog.Error("server component failed", "error", runErr)
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := gatewayServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Warn("gateway shutdown failed", "error", err)
	}

	return runErr
}
