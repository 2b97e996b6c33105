package render

import (
	"strings"
	"testing"
	"time"

	"github.com/financeos/financeos/internal/report"
)

func TestReportMarkdown_IncludesSections(t *testing.T) {
	r := report.Report{
		ID:      "rep-1",
		TS:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Summary: "Portfolio is concentrated in BTC.",
		Exposures: []string{
			"BTC: 70.0% of portfolio",
		},
		Risks: []string{
			"High concentration in top position",
		},
		Recommendations: []string{
			"Consider rebalancing",
		},
		Metrics: report.Metrics{
			TotalValueUSDT:    10000,
			HoldingsCount:     3,
			PricedCount:       3,
			ConcentrationTop3: 95.5,
		},
	}

	md := ReportMarkdown(r)

	if !strings.Contains(md, "# CEO AI Report rep-1") {
		t.Errorf("expected title heading, got:\n%s", md)
	}
	if !strings.Contains(md, "Portfolio is concentrated in BTC.") {
		t.Errorf("expected summary in markdown")
	}
	for _, section := range []string{"## Exposures", "## Risks", "## Recommendations"} {
		if !strings.Contains(md, section) {
			t.Errorf("expected section %q in markdown", section)
		}
	}
	if strings.Contains(md, "## Opportunities") {
		t.Error("empty section should be omitted")
	}
	if !strings.Contains(md, "10000.00 USDT") {
		t.Errorf("expected total value line, got:\n%s", md)
	}
}

func TestANSI_FallsBackToRawMarkdown(t *testing.T) {
	md := "# Title\n\n- item\n"
	out := ANSI(md)
	if out == "" {
		t.Fatal("expected non-empty output")
	}
}
