package cli

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"go.uber.org/zap"

	"github.com/stgquant/stgtrade/config"
	"github.com/stgquant/stgtrade/models"
)

var tickerPattern = regexp.MustCompile(`^[A-Z0-9.-]+$`)

// promptForTicker asks for a stock ticker symbol.
func promptForTicker() (string, error) {
	var ticker string
	prompt := &survey.Input{
		Message: "Enter the stock ticker symbol (e.g., AAPL, MSFT, GOOGL):",
		Help:    "Letters, numbers, dots and hyphens only",
	}

	err := survey.AskOne(prompt, &ticker, survey.WithValidator(func(val interface{}) error {
		str := strings.TrimSpace(strings.ToUpper(val.(string)))
		if len(str) == 0 {
			return fmt.Errorf("ticker symbol cannot be empty")
		}
		if len(str) > 10 {
			return fmt.Errorf("ticker symbol too long (max 10 characters)")
		}
		if !tickerPattern.MatchString(str) {
			return fmt.Errorf("invalid ticker format")
		}
		return nil
	}))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.ToUpper(ticker)), nil
}

// configureAPIKey asks for the inference credential and persists it.
func configureAPIKey(a *app) error {
	var key string
	prompt := &survey.Password{
		Message: "Enter your Gemini API key:",
		Help:    "Stored in the local config file; also read from GEMINI_API_KEY",
	}

	err := survey.AskOne(prompt, &key, survey.WithValidator(func(val interface{}) error {
		if strings.TrimSpace(val.(string)) == "" {
			return fmt.Errorf("API key cannot be empty")
		}
		return nil
	}))
	if err != nil {
		return err
	}

	if err := a.manager.SetAPIKey(strings.TrimSpace(key)); err != nil {
		return fmt.Errorf("store API key: %w", err)
	}
	fmt.Println(successStyle.Render("API key saved."))
	return nil
}

// editModelSettings walks the user through reassigning model tiers.
func editModelSettings(a *app) error {
	settings, err := a.settings.Load()
	if err != nil {
		return err
	}

	tiers := []string{config.ProModel, config.FlashModel, config.LiteModel}

	for {
		roleNames := make([]string, 0, len(models.AllRoles())+1)
		byName := make(map[string]models.Role)
		for _, role := range models.AllRoles() {
			name := fmt.Sprintf("%s (%s)", role.DisplayName(), settings.Assignment[role])
			roleNames = append(roleNames, name)
			byName[name] = role
		}
		roleNames = append(roleNames, "Save and exit")

		var picked string
		if err := survey.AskOne(&survey.Select{
			Message:  "Reassign which role?",
			Options:  roleNames,
			PageSize: 12,
		}, &picked); err != nil {
			return err
		}
		if picked == "Save and exit" {
			break
		}

		role := byName[picked]
		var tier string
		if err := survey.AskOne(&survey.Select{
			Message: fmt.Sprintf("Model for %s:", role.DisplayName()),
			Options: tiers,
			Default: settings.Assignment[role],
		}, &tier); err != nil {
			return err
		}
		settings.Assignment[role] = tier
	}

	if err := a.settings.Save(settings); err != nil {
		return err
	}
	fmt.Println(successStyle.Render("Model assignments saved."))
	return nil
}

// runInteractiveMode drives the top-level menu loop.
func runInteractiveMode(a *app) error {
	fmt.Println(titleStyle.Render(" StGTrade "))
	fmt.Println(dimStyle.Render("AI-powered multi-role stock analysis"))
	fmt.Println()

	// Pick up external edits to the config file while the menu is open.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := a.manager.Watch(ctx, func(cfg config.Config) {
		a.log.Info("configuration reloaded", zap.String("path", a.manager.Path()))
	}); err != nil {
		a.log.Warn("config watch unavailable", zap.Error(err))
	}

	for {
		var choice string
		err := survey.AskOne(&survey.Select{
			Message: "What would you like to do?",
			Options: []string{
				"Analyze a stock",
				"Browse history",
				"Model assignments",
				"Configure API key",
				"Show configuration",
				"Quit",
			},
		}, &choice)
		if err != nil {
			return nil
		}

		switch choice {
		case "Analyze a stock":
			ticker, err := promptForTicker()
			if err != nil {
				continue
			}
			var economy bool
			if err := survey.AskOne(&survey.Confirm{
				Message: "Economy mode (cheapest model for every stage)?",
				Default: false,
			}, &economy); err != nil {
				continue
			}
			if err := runAnalyze(a, ticker, economy); err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
			}
		case "Browse history":
			if err := browseHistory(a); err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
			}
		case "Model assignments":
			if err := editModelSettings(a); err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
			}
		case "Configure API key":
			if err := configureAPIKey(a); err != nil {
				fmt.Println(errorStyle.Render(err.Error()))
			}
		case "Show configuration":
			displayConfig(a.cfg(), a.manager.Path())
		case "Quit":
			return nil
		}
	}
}
