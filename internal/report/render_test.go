package report

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stgquant/stgtrade/models"
)

func sampleRecord() *models.HistoryRecord {
	score := 68
	return &models.HistoryRecord{
		ID:        "rec-1",
		Symbol:    "EXMP",
		StockName: "Example Corp",
		Timestamp: "2026-03-02 09:30:00",
		TaskName:  "EXMP_2026-03-02",
		Actions: []models.Action{
			{ID: "a1", Role: models.RoleIntelligenceOfficer, Status: models.StatusCompleted},
			{ID: "a2", Role: models.RoleSentimentAnalyst, Status: models.StatusCompleted},
			{ID: "a3", Role: models.RoleFundManager, Status: models.StatusCompleted},
		},
		Reports: map[string]models.StageReport{
			"a1": {
				Text: "Dossier body.",
				Sources: []models.Source{
					{URI: "https://example.com/filing", Title: "Annual Filing"},
				},
			},
			"a2": {
				Text: "Mood is warm.",
				Metrics: &models.SentimentMetrics{
					Score: 0.6, Confidence: 0.8, Intensity: 7, Decay: 0.25, Disagreement: 0.1,
				},
			},
			"a3": {Text: "Buy with discipline. [SCORE: 68]", Score: &score},
		},
		PriceData: []models.PricePoint{
			{DayIndex: 0, Date: "2026-03-02", Price: 100},
			{DayIndex: 180, Date: "2026-08-29", Price: 104, IsFuture: true},
		},
		BasePrice: 100,
	}
}

func TestRenderLeadsWithFundManagerVerdict(t *testing.T) {
	out := Render(sampleRecord())

	verdict := strings.Index(out, "## Fund Manager")
	dossier := strings.Index(out, "## Intelligence Officer")
	require.GreaterOrEqual(t, verdict, 0)
	require.GreaterOrEqual(t, dossier, 0)
	assert.Less(t, verdict, dossier, "verdict section must lead")

	assert.Contains(t, out, "**Weighted score: 68/100**")
	assert.Contains(t, out, "[Annual Filing](https://example.com/filing)")
	assert.Contains(t, out, "| Sentiment score | 0.60 |")
	assert.Contains(t, out, "- Base price: 100.00")
	assert.Contains(t, out, "- Implied move: 4.00%")
}

func TestRenderSkipsActionsWithoutReports(t *testing.T) {
	record := sampleRecord()
	record.Actions = append(record.Actions, models.Action{ID: "a4", Role: models.RoleBullResearcher})

	out := Render(record)
	assert.NotContains(t, out, "## Bull Researcher")
}

func TestExportWritesTaskFile(t *testing.T) {
	dir := t.TempDir()
	path, err := Export(sampleRecord(), dir)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "EXMP_2026-03-02.md"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Example Corp (EXMP) Analysis Report")
}
