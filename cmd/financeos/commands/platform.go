package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/financeos/financeos/internal/actions"
	"github.com/financeos/financeos/internal/approvals"
	"github.com/financeos/financeos/internal/audit"
	"github.com/financeos/financeos/internal/automation"
	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/config"
	"github.com/financeos/financeos/internal/connector/binance"
	"github.com/financeos/financeos/internal/datahub"
	"github.com/financeos/financeos/internal/dispatch"
	"github.com/financeos/financeos/internal/kvstore"
	"github.com/financeos/financeos/internal/metrics"
	"github.com/financeos/financeos/internal/modules"
	"github.com/financeos/financeos/internal/notify"
	"github.com/financeos/financeos/internal/policy"
	"github.com/financeos/financeos/internal/provider"
	"github.com/financeos/financeos/internal/report"
)

// Platform holds the wired runtime shared by every command.
type Platform struct {
	Config     *config.Config
	Store      kvstore.Store
	Bus        *bus.Bus
	Ledger     *audit.Ledger
	Policies   *policy.Store
	Registry   *modules.Registry
	Dispatcher *metrics.MeasuredDispatcher
	Recorder   *metrics.Recorder
	Hub        *datahub.Hub
	Binance    *binance.Service
	Reports    *report.Log
	Generator  *report.Generator
	Approvals  *approvals.Service
	Notifier   *notify.Notifier
	Automation *automation.Runtime
}

// newPlatform loads the configuration and wires the full component graph.
// The chat model is optional: without a configured provider the report
// generator falls back to its heuristic review.
func newPlatform(ctx context.Context) (*Platform, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store := kvstore.NewFileStore(cfg.WorkspaceDir())
	eventBus := bus.New()
	ledger := audit.NewLedger(store, eventBus)
	policies := policy.NewStore(store, eventBus, ledger)
	registry := modules.NewRegistry(store)
	if err := registry.EnsureCore(modules.Catalog()); err != nil {
		return nil, err
	}

	dispatcher := dispatch.NewDispatcher(policies, ledger, eventBus)
	dispatcher.SetPermissionGate(registry)
	recorder := metrics.NewRecorder(cfg.WorkspaceDir())
	measured := metrics.Measure(dispatcher, recorder)

	hub := datahub.NewHub(store, eventBus)
	binanceSvc := binance.NewService(registry, hub, ledger, eventBus, binance.NewSimulatedClient())

	reports := report.NewLog(store)
	chatModel, err := provider.NewChatModel(ctx, cfg)
	if err != nil {
		slog.Debug("No chat model configured, reports use heuristic review", "error", err)
		chatModel = nil
	}
	generator := report.NewGenerator(reports, hub, ledger, eventBus, chatModel)

	approvalSvc := approvals.NewService(store, ledger)
	if cfg.Automation.PendingHours > 0 {
		approvalSvc.SetTTL(time.Duration(cfg.Automation.PendingHours) * time.Hour)
	}
	// Every needs_approval completion gets a pending record, whichever
	// command dispatched it.
	approvalSvc.Attach(eventBus)

	notifier := notify.NewNotifier(ledger)
	if cfg.Notify.Telegram.Enabled {
		notifier.Register(actions.NotifyPush, notify.NewTelegramChannel(cfg.Notify.Telegram))
	}
	if cfg.Notify.Email.Enabled {
		notifier.Register(actions.NotifyEmail, notify.NewEmailChannel(cfg.Notify.Email))
	}
	if cfg.Notify.SMS.Enabled {
		notifier.Register(actions.NotifySMS, notify.NewSMSChannel(cfg.Notify.SMS))
	}

	runtime := automation.NewRuntime(store, measured)

	return &Platform{
		Config:     cfg,
		Store:      store,
		Bus:        eventBus,
		Ledger:     ledger,
		Policies:   policies,
		Registry:   registry,
		Dispatcher: measured,
		Recorder:   recorder,
		Hub:        hub,
		Binance:    binanceSvc,
		Reports:    reports,
		Generator:  generator,
		Approvals:  approvalSvc,
		Notifier:   notifier,
		Automation: runtime,
	}, nil
}
