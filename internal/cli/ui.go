package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stgquant/stgtrade/config"
	"github.com/stgquant/stgtrade/internal/agents"
	"github.com/stgquant/stgtrade/internal/service"
	"github.com/stgquant/stgtrade/models"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Background(lipgloss.Color("#1F2937")).
			Padding(0, 1)

	phaseStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6")).
			MarginTop(1)

	workingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

// consoleObserver renders run progress line by line. It runs on the
// pipeline goroutine and only prints, never blocks.
type consoleObserver struct {
	stageStart map[string]time.Time
}

func newConsoleObserver() *consoleObserver {
	return &consoleObserver{stageStart: make(map[string]time.Time)}
}

func (o *consoleObserver) PhaseChanged(phase int, name string) {
	fmt.Println(phaseStyle.Render(fmt.Sprintf("Phase %d: %s", phase, name)))
}

func (o *consoleObserver) StageStarted(action models.Action) {
	o.stageStart[action.ID] = action.StartTime
	fmt.Println(workingStyle.Render("  ▸ " + action.Role.DisplayName() + " working..."))
}

func (o *consoleObserver) StageCompleted(action models.Action) {
	line := "  ✓ " + action.Role.DisplayName()
	if started, ok := o.stageStart[action.ID]; ok && !action.EndTime.IsZero() {
		line += dimStyle.Render(fmt.Sprintf(" (%s)", action.EndTime.Sub(started).Round(time.Second)))
	}
	if action.Score != nil {
		line += fmt.Sprintf("  score %d/100", *action.Score)
	}
	fmt.Println(successStyle.Render(line))
}

func (o *consoleObserver) StageFailed(action models.Action, err error) {
	fmt.Println(errorStyle.Render("  ✗ " + action.Role.DisplayName() + ": " + err.Error()))
}

func (o *consoleObserver) CooldownStarted(d time.Duration) {
	fmt.Println(dimStyle.Render(fmt.Sprintf("  … cooling down %s to respect rate limits", d)))
}

func (o *consoleObserver) ForecastUpdated(points []models.PricePoint) {
	if len(points) == 0 {
		return
	}
	horizon := points[len(points)-1]
	fmt.Println(dimStyle.Render(fmt.Sprintf("  forecast: %.2f at %s", horizon.Price, horizon.Date)))
}

func displayHistoryList(records []models.HistoryRecord) {
	if len(records) == 0 {
		fmt.Println(dimStyle.Render("No archived runs match."))
		return
	}
	for _, r := range records {
		fmt.Printf("%s  %s  %s (%s)\n",
			dimStyle.Render(r.ID),
			r.Timestamp,
			r.StockName,
			r.Symbol)
	}
	fmt.Println(dimStyle.Render(fmt.Sprintf("%d run(s)", len(records))))
}

func displayModelSettings(settings service.ModelSettings) {
	fmt.Println(titleStyle.Render(" Role Model Assignment "))

	scheduled := make(map[models.Role]bool, len(agents.Pipeline))
	for _, stage := range agents.Pipeline {
		scheduled[stage.Role] = true
	}

	roles := models.AllRoles()
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })
	for _, role := range roles {
		line := fmt.Sprintf("%-22s %s", role.DisplayName(), settings.Assignment[role])
		if !scheduled[role] {
			line += dimStyle.Render("  (not scheduled)")
		}
		fmt.Println(line)
	}
}

func displayConfig(cfg config.Config, path string) {
	fmt.Println(titleStyle.Render(" Configuration "))
	fmt.Printf("Config file:        %s\n", path)
	fmt.Printf("Project directory:  %s\n", cfg.ProjectDir)
	fmt.Printf("Data directory:     %s\n", cfg.DataDir)
	fmt.Printf("Results directory:  %s\n", cfg.ResultsDir)
	if cfg.APIKey != "" {
		fmt.Printf("API key:            %s\n", maskKey(cfg.APIKey))
	} else {
		fmt.Println("API key:            " + dimStyle.Render("not set"))
	}
	fmt.Printf("Step cooldown:      %ds\n", cfg.StepCooldownSec)
	fmt.Printf("Search cooldown:    %ds\n", cfg.SearchCooldownSec)
	fmt.Printf("Pro cooldown:       %ds\n", cfg.ProCooldownSec)
	fmt.Printf("Quota reserve:      %ds\n", cfg.QuotaReserveSec)
	fmt.Printf("Forecast horizon:   %d days\n", cfg.ForecastDays)
	if cfg.HistoryRetention > 0 {
		fmt.Printf("History retention:  %d runs\n", cfg.HistoryRetention)
	} else {
		fmt.Println("History retention:  unlimited")
	}
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "********"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
