package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/financeos/financeos/internal/report"
)

// ReportMarkdown formats a report as a markdown document.
func ReportMarkdown(r report.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# CEO AI Report %s\n\n", r.ID)
	fmt.Fprintf(&b, "_%s_\n\n", r.TS.Local().Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "%s\n", r.Summary)

	fmt.Fprintf(&b, "\n**Portfolio:** %.2f USDT across %d assets (%d priced), top 3 concentration %.1f%%\n",
		r.Metrics.TotalValueUSDT, r.Metrics.HoldingsCount, r.Metrics.PricedCount, r.Metrics.ConcentrationTop3)

	writeSection(&b, "Exposures", r.Exposures)
	writeSection(&b, "Risks", r.Risks)
	writeSection(&b, "Opportunities", r.Opportunities)
	writeSection(&b, "Recommendations", r.Recommendations)
	writeSection(&b, "Watchlist", r.Watchlist)

	return b.String()
}

func writeSection(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// ANSI renders markdown for terminal display. On renderer failure the raw
// markdown is returned so the caller always has something to print.
func ANSI(markdown string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return markdown
	}
	out, err := renderer.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
