// Package report renders archived runs as Markdown for export and
// terminal display.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/stgquant/stgtrade/models"
)

// Render produces the full Markdown report for one archived run. The
// fund manager's verdict leads; the remaining stages follow in
// pipeline order.
func Render(record *models.HistoryRecord) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (%s) Analysis Report\n\n", record.StockName, record.Symbol)
	fmt.Fprintf(&b, "- Task: `%s`\n", record.TaskName)
	fmt.Fprintf(&b, "- Generated: %s\n", record.Timestamp)
	fmt.Fprintf(&b, "- Base price: %s\n\n", money(record.BasePrice))

	ordered := orderActions(record.Actions)
	for _, action := range ordered {
		rep, ok := record.Reports[action.ID]
		if !ok {
			continue
		}
		writeSection(&b, action, rep)
	}

	if len(record.PriceData) > 0 {
		writeForecast(&b, record)
	}
	return b.String()
}

// orderActions moves the fund manager's verdict to the front and keeps
// everything else in execution order.
func orderActions(actions []models.Action) []models.Action {
	ordered := make([]models.Action, 0, len(actions))
	for _, a := range actions {
		if a.Role == models.RoleFundManager {
			ordered = append(ordered, a)
		}
	}
	for _, a := range actions {
		if a.Role != models.RoleFundManager {
			ordered = append(ordered, a)
		}
	}
	return ordered
}

func writeSection(b *strings.Builder, action models.Action, rep models.StageReport) {
	fmt.Fprintf(b, "## %s\n\n", action.Role.DisplayName())
	if rep.Score != nil {
		fmt.Fprintf(b, "**Weighted score: %d/100**\n\n", *rep.Score)
	}
	b.WriteString(strings.TrimSpace(rep.Text))
	b.WriteString("\n\n")

	if rep.Metrics != nil {
		writeMetrics(b, rep.Metrics)
	}
	if len(rep.Sources) > 0 {
		b.WriteString("**Sources**\n\n")
		for _, src := range rep.Sources {
			title := src.Title
			if title == "" {
				title = src.URI
			}
			fmt.Fprintf(b, "- [%s](%s)\n", title, src.URI)
		}
		b.WriteString("\n")
	}
}

func writeMetrics(b *strings.Builder, m *models.SentimentMetrics) {
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(b, "| Sentiment score | %s |\n", fixed(m.Score))
	fmt.Fprintf(b, "| Confidence | %s |\n", fixed(m.Confidence))
	fmt.Fprintf(b, "| Intensity | %s |\n", fixed(m.Intensity))
	fmt.Fprintf(b, "| Decay | %s |\n", fixed(m.Decay))
	fmt.Fprintf(b, "| Disagreement | %s |\n", fixed(m.Disagreement))
	b.WriteString("\n")
}

func writeForecast(b *strings.Builder, record *models.HistoryRecord) {
	last := record.PriceData[len(record.PriceData)-1]
	base := decimal.NewFromFloat(record.BasePrice)
	horizon := decimal.NewFromFloat(last.Price)

	b.WriteString("## Price Outlook\n\n")
	fmt.Fprintf(b, "- Anchor (%s): %s\n", record.PriceData[0].Date, money(record.BasePrice))
	fmt.Fprintf(b, "- Projected (%s): %s\n", last.Date, money(last.Price))
	if !base.IsZero() {
		change := horizon.Sub(base).Div(base).Mul(decimal.NewFromInt(100))
		fmt.Fprintf(b, "- Implied move: %s%%\n", change.StringFixed(2))
	}
	b.WriteString("\n")
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

func fixed(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Export writes the rendered report under resultsDir and returns the
// written path.
func Export(record *models.HistoryRecord, resultsDir string) (string, error) {
	if err := os.MkdirAll(resultsDir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}
	path := filepath.Join(resultsDir, record.TaskName+".md")
	if err := os.WriteFile(path, []byte(Render(record)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
