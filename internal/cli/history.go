package cli

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"github.com/stgquant/stgtrade/internal/report"
	"github.com/stgquant/stgtrade/internal/service"
	"github.com/stgquant/stgtrade/models"
)

// browseHistory lets the user search, inspect, export and delete
// archived runs interactively.
func browseHistory(a *app) error {
	var query string
	if err := survey.AskOne(&survey.Input{
		Message: "Filter by symbol or name (empty for all):",
	}, &query); err != nil {
		return err
	}

	return withHistory(a, func(store *service.HistoryStore) error {
		ctx := context.Background()
		records := store.List(ctx, service.Filter{Query: query})
		if len(records) == 0 {
			fmt.Println(dimStyle.Render("No archived runs match."))
			return nil
		}

		labels := make([]string, 0, len(records)+1)
		byLabel := make(map[string]models.HistoryRecord)
		for _, r := range records {
			label := fmt.Sprintf("%s  %s (%s)", r.Timestamp, r.StockName, r.Symbol)
			labels = append(labels, label)
			byLabel[label] = r
		}
		labels = append(labels, "Back")

		var picked string
		if err := survey.AskOne(&survey.Select{
			Message:  "Select a run:",
			Options:  labels,
			PageSize: 15,
		}, &picked); err != nil || picked == "Back" {
			return err
		}
		record := byLabel[picked]

		var action string
		if err := survey.AskOne(&survey.Select{
			Message: "Action:",
			Options: []string{"View report", "Export to Markdown", "Delete", "Back"},
		}, &action); err != nil {
			return err
		}

		switch action {
		case "View report":
			fmt.Println(report.Render(&record))
		case "Export to Markdown":
			path, err := report.Export(&record, a.cfg().ResultsDir)
			if err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Report written to " + path))
		case "Delete":
			var confirmed bool
			if err := survey.AskOne(&survey.Confirm{
				Message: fmt.Sprintf("Delete run %s permanently?", record.TaskName),
			}, &confirmed); err != nil || !confirmed {
				return err
			}
			if err := store.Delete(ctx, record.ID); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("Run deleted."))
		}
		return nil
	})
}
