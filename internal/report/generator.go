package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"

	"github.com/financeos/financeos/internal/audit"
	"github.com/financeos/financeos/internal/bus"
	"github.com/financeos/financeos/internal/datahub"
)

const systemPrompt = `You are the CEO AI of a personal finance dashboard.
You review the user's portfolio snapshot and produce a concise executive report.
Respond with a single JSON object and nothing else, using exactly these keys:
summary (string), exposures (array of strings), risks (array of strings),
opportunities (array of strings), recommendations (array of strings),
watchlist (array of strings).`

// Generator produces portfolio reports from the data hub, via a chat model
// when one is configured and a heuristic reviewer otherwise.
type Generator struct {
	log    *Log
	hub    *datahub.Hub
	ledger *audit.Ledger
	bus    *bus.Bus
	model  model.ChatModel
	now    func() time.Time
}

// NewGenerator wires a report generator. chatModel may be nil.
func NewGenerator(log *Log, hub *datahub.Hub, ledger *audit.Ledger, eventBus *bus.Bus, chatModel model.ChatModel) *Generator {
	return &Generator{
		log:    log,
		hub:    hub,
		ledger: ledger,
		bus:    eventBus,
		model:  chatModel,
		now:    time.Now,
	}
}

// Generate builds a snapshot, writes a report, and publishes it.
func (g *Generator) Generate(ctx context.Context) (Report, error) {
	snapshot := BuildSnapshot(g.hub.State())

	report := Report{
		ID:      uuid.NewString(),
		TS:      g.now().UTC(),
		Metrics: snapshot.Metrics,
	}

	var source string
	if g.model != nil {
		content, err := g.reviewWithModel(ctx, snapshot)
		if err != nil {
			slog.Warn("model review failed, falling back to heuristic report", "error", err)
		} else if err := applyModelContent(&report, content); err != nil {
			slog.Warn("model returned unusable report, falling back to heuristic report", "error", err)
		} else {
			source = "model"
		}
	}
	if source == "" {
		applyHeuristicReview(&report, snapshot)
		source = "heuristic"
	}

	if err := g.log.Append(report); err != nil {
		return Report{}, err
	}
	if g.bus != nil {
		g.bus.Publish(bus.EventReportGenerated, report)
	}
	g.audit(report, source)
	return report, nil
}

func (g *Generator) reviewWithModel(ctx context.Context, snapshot Snapshot) (string, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: "Portfolio snapshot:\n" + string(data)},
	}
	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// applyModelContent parses the model output, tolerating prose around the
// JSON object by cutting from the first brace to the last.
func applyModelContent(report *Report, content string) error {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return fmt.Errorf("no JSON object in model output")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(content[start:end+1]), &raw); err != nil {
		return fmt.Errorf("parse model output: %w", err)
	}

	summary := stringField(raw, "summary")
	if summary == "" {
		return fmt.Errorf("model output carries no summary")
	}

	report.Summary = summary
	report.Exposures = stringListField(raw, "exposures")
	report.Risks = stringListField(raw, "risks")
	report.Opportunities = stringListField(raw, "opportunities")
	report.Recommendations = stringListField(raw, "recommendations")
	report.Watchlist = stringListField(raw, "watchlist")
	return nil
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return strings.TrimSpace(s)
}

func stringListField(raw map[string]any, key string) []string {
	items, _ := raw[key].([]any)
	var out []string
	for _, item := range items {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// applyHeuristicReview fills the report from the snapshot alone.
func applyHeuristicReview(report *Report, snapshot Snapshot) {
	m := snapshot.Metrics
	report.Summary = fmt.Sprintf(
		"Portfolio holds %d assets (%d priced) worth %.2f USDT. Top 3 positions make up %.1f%% of value.",
		m.HoldingsCount, m.PricedCount, m.TotalValueUSDT, m.ConcentrationTop3)

	for _, holding := range snapshot.Holdings {
		report.Exposures = append(report.Exposures,
			fmt.Sprintf("%s: %.2f USDT (%.1f%%)", holding.Asset, holding.USDTValue, holding.Pct))
	}

	if m.ConcentrationTop3 >= 75 {
		report.Risks = append(report.Risks,
			fmt.Sprintf("High concentration: top 3 positions hold %.1f%% of portfolio value.", m.ConcentrationTop3))
	}
	if len(snapshot.UnpricedAssets) > 0 {
		report.Risks = append(report.Risks,
			fmt.Sprintf("%d assets have no USDT price and are excluded from valuation.", len(snapshot.UnpricedAssets)))
		report.Watchlist = append(report.Watchlist, snapshot.UnpricedAssets...)
	}
	if m.HoldingsCount == 0 {
		report.Risks = append(report.Risks, "No holdings synced yet. Run a connector sync first.")
		report.Recommendations = append(report.Recommendations, "Sync the exchange connector to populate the portfolio.")
		return
	}

	if m.ConcentrationTop3 >= 75 {
		report.Recommendations = append(report.Recommendations, "Consider rebalancing away from the largest positions.")
	} else {
		report.Opportunities = append(report.Opportunities, "Portfolio concentration is moderate. Room to size up convictions.")
	}
}

func (g *Generator) audit(report Report, source string) {
	if g.ledger == nil {
		return
	}
	entry := audit.Entry{
		ID:          uuid.NewString(),
		TS:          report.TS,
		Level:       audit.LevelInfo,
		Title:       "Report generated",
		Description: report.Summary,
		Actor:       "CEO AI",
		ModuleID:    "brain.ceo",
		Data: map[string]any{
			"reportId": report.ID,
			"source":   source,
		},
	}
	if err := g.ledger.Append(entry); err != nil {
		slog.Warn("failed to audit report generation", "error", err)
	}
}
