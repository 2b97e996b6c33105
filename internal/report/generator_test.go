package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/financeos/financeos/internal/audit"
	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/datahub"
	"github.com/financeos/financeos/internal/kvstore"
)

type mockModel struct {
	content string
	err     error
}

func (m *mockModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &schema.Message{Role: schema.Assistant, Content: m.content}, nil
}

func (m *mockModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func (m *mockModel) BindTools(_ []*schema.ToolInfo) error { return nil }

func newTestGenerator(t *testing.T, chatModel model.ChatModel) (*Generator, *Log, *audit.Ledger, *bus.Bus) {
	t.Helper()
	store := kvstore.NewMemStore()
	eventBus := bus.New()
	hub := datahub.NewHub(store, eventBus)
	if err := hub.SetHoldings("connector.binance", []datahub.Holding{
		{Asset: "BTC", Total: 1, USDTValue: 600},
		{Asset: "ETH", Total: 10, USDTValue: 400},
	}); err != nil {
		t.Fatalf("seed holdings: %v", err)
	}
	log := NewLog(store)
	ledger := audit.NewLedger(store, eventBus)
	generator := NewGenerator(log, hub, ledger, eventBus, chatModel)
	generator.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }
	return generator, log, ledger, eventBus
}

func TestGenerate_ModelReportWithSurroundingProse(t *testing.T) {
	generator, log, ledger, eventBus := newTestGenerator(t, &mockModel{
		content: "Here is the report:\n{\"summary\":\"Balanced portfolio.\",\"risks\":[\"BTC heavy\"],\"watchlist\":[\"ETH\"]}\nDone.",
	})

	var published []Report
	eventBus.Subscribe(bus.EventReportGenerated, func(payload any) {
		if r, ok := payload.(Report); ok {
			published = append(published, r)
		}
	})

	report, err := generator.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Summary != "Balanced portfolio." {
		t.Fatalf("expected model summary, got %q", report.Summary)
	}
	if len(report.Risks) != 1 || report.Risks[0] != "BTC heavy" {
		t.Fatalf("expected model risks, got %v", report.Risks)
	}
	if report.Metrics.TotalValueUSDT != 1000 {
		t.Fatalf("expected snapshot metrics on report, got %+v", report.Metrics)
	}

	if len(published) != 1 || published[0].ID != report.ID {
		t.Fatalf("expected one report.generated event, got %v", published)
	}
	if reports := log.List(); len(reports) != 1 || reports[0].ID != report.ID {
		t.Fatalf("expected the report persisted, got %v", reports)
	}

	entries := ledger.List()
	if len(entries) != 1 || entries[0].Title != "Report generated" || entries[0].Actor != "CEO AI" {
		t.Fatalf("unexpected audit trail: %+v", entries)
	}
}

func TestGenerate_FallsBackWhenModelFails(t *testing.T) {
	generator, _, _, _ := newTestGenerator(t, &mockModel{err: errors.New("provider down")})

	report, err := generator.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Summary == "" {
		t.Fatalf("expected a heuristic summary")
	}
	if len(report.Exposures) != 2 {
		t.Fatalf("expected exposures from snapshot, got %v", report.Exposures)
	}
}

func TestGenerate_FallsBackOnUnusableModelOutput(t *testing.T) {
	generator, _, _, _ := newTestGenerator(t, &mockModel{content: "I cannot do that."})

	report, err := generator.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Summary == "" {
		t.Fatalf("expected a heuristic summary when model output has no JSON")
	}
}

func TestGenerate_HeuristicWithoutModel(t *testing.T) {
	generator, log, _, _ := newTestGenerator(t, nil)

	first, err := generator.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	generator.now = func() time.Time { return time.Date(2026, 3, 3, 8, 0, 0, 0, time.UTC) }
	second, err := generator.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	reports := log.List()
	if len(reports) != 2 {
		t.Fatalf("expected two reports, got %d", len(reports))
	}
	if reports[0].ID != second.ID || reports[1].ID != first.ID {
		t.Fatalf("expected newest-first ordering")
	}
}

func TestLog_Clear(t *testing.T) {
	store := kvstore.NewMemStore()
	log := NewLog(store)
	if err := log.Append(Report{ID: "r1", TS: time.Now()}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if reports := log.List(); len(reports) != 0 {
		t.Fatalf("expected empty log after clear, got %v", reports)
	}
	if _, found := log.Latest(); found {
		t.Fatalf("expected no latest report after clear")
	}
}
