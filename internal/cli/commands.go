package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stgquant/stgtrade/config"
	"github.com/stgquant/stgtrade/internal/gateway"
	"github.com/stgquant/stgtrade/internal/orchestrator"
	"github.com/stgquant/stgtrade/internal/report"
	"github.com/stgquant/stgtrade/internal/service"
)

const version = "1.0.0"

// app bundles the wired-up dependencies every command needs.
type app struct {
	manager  *config.Manager
	settings *service.SettingsStore
	log      *zap.Logger

	// quotaSpent sticks for the whole session once a run reports daily
	// quota exhaustion, so later runs can warn up front.
	quotaSpent atomic.Bool
}

func (a *app) cfg() config.Config {
	return a.manager.Get()
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "stgtrade",
		Short: "StGTrade - AI-Powered Stock Analysis Desk",
		Long: `StGTrade runs a fixed multi-role pipeline of AI-generated investment
analyses for a stock ticker: intelligence gathering, four parallel
analyst assessments, a bull/bear debate, risk review and a final
weighted verdict, with a live price outlook evolving as stages land.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			manager, err := config.NewManager(config.WithConfigPath(configPath))
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			a.manager = manager

			debug, _ := cmd.Flags().GetBool("debug")
			a.log = newLogger(debug || manager.Get().Debug)

			cfg := manager.Get()
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("create directories: %w", err)
			}
			a.settings = service.NewSettingsStore(cfg.DataDir)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveMode(a)
		},
	}

	rootCmd.AddCommand(newAnalyzeCmd(a))
	rootCmd.AddCommand(newHistoryCmd(a))
	rootCmd.AddCommand(newModelsCmd(a))
	rootCmd.AddCommand(newConfigCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Configuration file path")

	return rootCmd
}

func newAnalyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze [SYMBOL]",
		Short: "Run the full analysis pipeline for a stock symbol",
		Long: `Run the nine-stage analysis pipeline for a given ticker symbol.
Example: stgtrade analyze AAPL`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			economy, _ := cmd.Flags().GetBool("economy")
			return runAnalyze(a, args[0], economy)
		},
	}

	cmd.Flags().Bool("economy", false, "Force the cheapest model tier for every stage")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("StGTrade v%s\n", version)
			fmt.Println("AI-Powered Stock Analysis Desk")
		},
	}
}

func newHistoryCmd(a *app) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and export archived analysis runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			fromStr, _ := cmd.Flags().GetString("from")
			toStr, _ := cmd.Flags().GetString("to")

			filter := service.Filter{Query: query}
			var err error
			if filter.From, err = parseDay(fromStr); err != nil {
				return err
			}
			if filter.To, err = parseDay(toStr); err != nil {
				return err
			}

			return withHistory(a, func(store *service.HistoryStore) error {
				displayHistoryList(store.List(cmd.Context(), filter))
				return nil
			})
		},
	}
	listCmd.Flags().String("query", "", "Match symbol or company name")
	listCmd.Flags().String("from", "", "Earliest run date (YYYY-MM-DD)")
	listCmd.Flags().String("to", "", "Latest run date (YYYY-MM-DD)")

	exportCmd := &cobra.Command{
		Use:   "export [RUN-ID]",
		Short: "Export an archived run as a Markdown report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(a, func(store *service.HistoryStore) error {
				record := store.Get(cmd.Context(), args[0])
				if record == nil {
					return fmt.Errorf("no archived run with id %s", args[0])
				}
				path, err := report.Export(record, a.cfg().ResultsDir)
				if err != nil {
					return err
				}
				fmt.Println(successStyle.Render("Report written to " + path))
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [RUN-ID]",
		Short: "Remove an archived run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(a, func(store *service.HistoryStore) error {
				if err := store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Println(successStyle.Render("Run deleted"))
				return nil
			})
		},
	}

	historyCmd.AddCommand(listCmd, exportCmd, deleteCmd)
	return historyCmd
}

func newModelsCmd(a *app) *cobra.Command {
	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "Manage per-role model assignments",
	}

	modelsCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current role-to-model assignment",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := a.settings.Load()
			if err != nil {
				return err
			}
			displayModelSettings(settings)
			return nil
		},
	})

	modelsCmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Interactively reassign models per role",
		RunE: func(cmd *cobra.Command, args []string) error {
			return editModelSettings(a)
		},
	})

	return modelsCmd
}

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			displayConfig(a.cfg(), a.manager.Path())
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and credential resolution",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg()
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !gateway.HasCredential(cfg) {
				fmt.Println(warnStyle.Render("Configuration is valid, but no API key is resolvable (config or GEMINI_API_KEY)."))
				return nil
			}
			fmt.Println(successStyle.Render("Configuration is valid."))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "set-key",
		Short: "Store the inference API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return configureAPIKey(a)
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "clear-key",
		Short: "Remove the stored inference API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.manager.SetAPIKey(""); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("API key cleared."))
			return nil
		},
	})

	return configCmd
}

// withHistory opens the archive for the duration of one command.
func withHistory(a *app, fn func(*service.HistoryStore) error) error {
	cfg := a.cfg()
	store, err := service.OpenHistory(cfg.DataDir, cfg.HistoryRetention, a.log)
	if err != nil {
		return fmt.Errorf("open history store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func parseDay(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return day, nil
}

// runAnalyze executes the main analysis workflow.
func runAnalyze(a *app, symbol string, economy bool) error {
	ctx := context.Background()
	cfg := a.cfg()

	if !gateway.HasCredential(cfg) {
		fmt.Println(warnStyle.Render("No API key configured yet."))
		if err := configureAPIKey(a); err != nil {
			return err
		}
		cfg = a.cfg()
	}

	gw, err := gateway.New(ctx, cfg, a.log)
	if err != nil {
		if errors.Is(err, gateway.ErrCredentialMissing) {
			return fmt.Errorf("no usable API key; run `stgtrade config set-key`")
		}
		return err
	}

	settings, err := a.settings.Load()
	if err != nil {
		return err
	}

	return withHistory(a, func(store *service.HistoryStore) error {
		if a.quotaSpent.Load() {
			fmt.Println(warnStyle.Render("The daily API quota was exhausted earlier this session. The run may fail unless the quota has reset."))
		}

		ui := newConsoleObserver()
		runner := orchestrator.NewRunner(gw, store, cfg, a.log,
			orchestrator.WithObserver(ui),
			orchestrator.WithQuotaFlag(&a.quotaSpent))
		token := &orchestrator.CancelToken{}

		stop := watchInterrupts(token)
		defer stop()

		fmt.Println(titleStyle.Render(fmt.Sprintf(" Analyzing %s ", strings.ToUpper(symbol))))
		record, err := runner.Run(ctx, symbol, orchestrator.Options{
			Assignment:  settings.Assignment,
			EconomyMode: economy,
		}, token)
		if err != nil {
			return describeRunFailure(err)
		}
		if record == nil {
			fmt.Println(warnStyle.Render("Run paused. Partial stage results were kept for this session; no record was archived."))
			return nil
		}

		path, err := report.Export(record, cfg.ResultsDir)
		if err != nil {
			return err
		}
		fmt.Println(successStyle.Render("Analysis complete."))
		fmt.Printf("Archived run %s\nReport: %s\n", record.ID, path)
		return nil
	})
}

// watchInterrupts maps the first Ctrl-C to a cooperative pause and the
// second to a hard exit.
func watchInterrupts(token *orchestrator.CancelToken) func() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigs
		token.Cancel()
		fmt.Println(warnStyle.Render("\nPausing after the current stage finishes. Press Ctrl-C again to force quit."))
		<-sigs
		os.Exit(1)
	}()
	return func() { signal.Stop(sigs) }
}

func describeRunFailure(err error) error {
	var runErr *orchestrator.RunError
	if !errors.As(err, &runErr) {
		return err
	}
	switch runErr.Kind {
	case orchestrator.FailureCredentialMissing:
		return fmt.Errorf("the API key was rejected; run `stgtrade config set-key` and try again")
	case orchestrator.FailureQuotaExhausted:
		return fmt.Errorf("the daily API quota is exhausted; try again after the quota resets")
	default:
		if runErr.Role != "" {
			return fmt.Errorf("analysis failed at %s (%s): %v", runErr.Role.DisplayName(), runErr.Model, runErr.Err)
		}
		return fmt.Errorf("analysis failed: %v", runErr.Err)
	}
}
