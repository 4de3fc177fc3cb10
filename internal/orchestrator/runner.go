// Package orchestrator drives the fixed analysis pipeline: stage
// sequencing, shared-context propagation, cooldown throttling,
// cooperative cancellation and quota-aware failure handling.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stgquant/stgtrade/config"
	"github.com/stgquant/stgtrade/internal/agents"
	"github.com/stgquant/stgtrade/internal/forecast"
	"github.com/stgquant/stgtrade/internal/gateway"
	"github.com/stgquant/stgtrade/internal/signal"
	"github.com/stgquant/stgtrade/models"
)

// Gateway is the inference boundary the runner drives.
type Gateway interface {
	ResolveTicker(ctx context.Context, symbol string) (models.TickerInfo, error)
	Generate(ctx context.Context, req gateway.Request) (*models.Generation, error)
}

// Archive persists completed runs.
type Archive interface {
	Append(ctx context.Context, record *models.HistoryRecord) error
}

// FailureKind classifies why a run stopped short of completion.
type FailureKind string

const (
	FailureCredentialMissing FailureKind = "credential_missing"
	FailureQuotaExhausted    FailureKind = "daily_quota_exhausted"
	FailureGeneric           FailureKind = "generic_failure"
)

// RunError is a terminal run failure. Cancellation is not an error and
// never produces one.
type RunError struct {
	Kind  FailureKind
	Role  models.Role
	Model string
	Err   error
}

func (e *RunError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("%s at %s (%s): %v", e.Kind, e.Role, e.Model, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// CancelToken is the cooperative stop flag. It may be set from any
// goroutine at any time; the runner honors it only at its defined
// checkpoints, so an in-flight inference call is never aborted, only
// the work scheduled after it.
type CancelToken struct {
	flag atomic.Bool
}

func (t *CancelToken) Cancel()         { t.flag.Store(true) }
func (t *CancelToken) Cancelled() bool { return t.flag.Load() }
func (t *CancelToken) reset()          { t.flag.Store(false) }

// Observer receives run progress callbacks. All callbacks fire on the
// run goroutine; implementations must not block.
type Observer interface {
	PhaseChanged(phase int, name string)
	StageStarted(action models.Action)
	StageCompleted(action models.Action)
	StageFailed(action models.Action, err error)
	CooldownStarted(d time.Duration)
	ForecastUpdated(points []models.PricePoint)
}

// NopObserver discards all callbacks.
type NopObserver struct{}

func (NopObserver) PhaseChanged(int, string)            {}
func (NopObserver) StageStarted(models.Action)          {}
func (NopObserver) StageCompleted(models.Action)        {}
func (NopObserver) StageFailed(models.Action, error)    {}
func (NopObserver) CooldownStarted(time.Duration)       {}
func (NopObserver) ForecastUpdated([]models.PricePoint) {}

// Options configures one run invocation.
type Options struct {
	// Assignment maps each role to its model tier. Unassigned roles
	// fall back to the cheapest tier.
	Assignment map[models.Role]string
	// EconomyMode forces every stage onto the cheapest tier regardless
	// of the assignment.
	EconomyMode bool
}

// Runner executes analysis runs one at a time.
type Runner struct {
	gw      Gateway
	archive Archive
	cfg     config.Config
	log     *zap.Logger
	obs     Observer

	// Injected for tests.
	now   func() time.Time
	wait  func(ctx context.Context, d time.Duration)
	newID func() string

	running    atomic.Bool
	quotaSpent *atomic.Bool

	mu      sync.Mutex
	actions []models.Action
	reports map[string]models.StageReport
}

type RunnerOption func(*Runner)

func WithObserver(obs Observer) RunnerOption {
	return func(r *Runner) {
		if obs != nil {
			r.obs = obs
		}
	}
}

func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

func WithWaiter(wait func(ctx context.Context, d time.Duration)) RunnerOption {
	return func(r *Runner) {
		if wait != nil {
			r.wait = wait
		}
	}
}

func WithIDSource(newID func() string) RunnerOption {
	return func(r *Runner) {
		if newID != nil {
			r.newID = newID
		}
	}
}

// WithQuotaFlag shares one exhausted-quota flag across runners so the
// condition stays visible for the whole session, not just one run.
func WithQuotaFlag(flag *atomic.Bool) RunnerOption {
	return func(r *Runner) {
		if flag != nil {
			r.quotaSpent = flag
		}
	}
}

func NewRunner(gw Gateway, archive Archive, cfg config.Config, log *zap.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		gw:      gw,
		archive: archive,
		cfg:     cfg,
		log:     log,
		obs:     NopObserver{},
		now:     time.Now,
		wait:    defaultWait,
		newID:   uuid.NewString,

		quotaSpent: &atomic.Bool{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func defaultWait(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// Snapshot returns the actions accumulated so far in the current or
// most recent run. Partial progress stays visible after a cancelled or
// failed run.
func (r *Runner) Snapshot() []models.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// QuotaSpent reports whether an earlier run hit the daily quota. The
// flag is sticky; share it across runners with WithQuotaFlag to keep it
// session-wide.
func (r *Runner) QuotaSpent() bool {
	return r.quotaSpent.Load()
}

// Run executes the full pipeline for symbol. A nil record with a nil
// error means the run was cancelled; partial actions remain readable
// via Snapshot.
func (r *Runner) Run(ctx context.Context, symbol string, opts Options, token *CancelToken) (*models.HistoryRecord, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, &RunError{Kind: FailureGeneric, Err: fmt.Errorf("empty symbol")}
	}
	if !r.running.CompareAndSwap(false, true) {
		return nil, &RunError{Kind: FailureGeneric, Err: fmt.Errorf("a run is already in progress")}
	}
	defer r.running.Store(false)
	defer token.reset()

	// The quota window resets daily, so an earlier exhaustion is a
	// warning for this run, not a lock-out.
	if r.quotaSpent.Load() {
		r.log.Warn("daily quota was reported exhausted earlier this session, attempting anyway",
			zap.String("symbol", symbol))
	}

	r.mu.Lock()
	r.actions = nil
	r.reports = make(map[string]models.StageReport)
	r.mu.Unlock()

	if token.Cancelled() {
		return nil, nil
	}

	ticker, err := r.gw.ResolveTicker(ctx, symbol)
	if err != nil {
		return nil, r.classify(err, "", config.FlashModel)
	}
	if token.Cancelled() {
		return nil, nil
	}

	r.log.Info("ticker resolved",
		zap.String("symbol", symbol),
		zap.String("name", ticker.Name),
		zap.Float64("price", ticker.Price))

	state := &agents.RunState{Ticker: ticker, Symbol: symbol}
	series := forecast.Seed(ticker.Price, r.cfg.ForecastDays, r.now())
	r.obs.ForecastUpdated(series.Points())

	// Reserved quota window before the first search-grounded stage.
	reserve := time.Duration(r.cfg.QuotaReserveSec) * time.Second
	r.obs.CooldownStarted(reserve)
	r.wait(ctx, reserve)
	if token.Cancelled() {
		return nil, nil
	}

	lastPhase := 0
	for i, stage := range agents.Pipeline {
		if token.Cancelled() {
			return nil, nil
		}
		if stage.Phase != lastPhase {
			lastPhase = stage.Phase
			r.obs.PhaseChanged(stage.Phase, agents.PhaseNames[stage.Phase])
		}

		model := r.resolveModel(stage.Role, opts)
		if runErr := r.executeStage(ctx, stage, model, state, series); runErr != nil {
			return nil, runErr
		}

		if i < len(agents.Pipeline)-1 {
			cooldown := r.cooldownFor(stage, model)
			r.obs.CooldownStarted(cooldown)
			r.wait(ctx, cooldown)
			if token.Cancelled() {
				return nil, nil
			}
		}
	}

	record := r.buildRecord(symbol, ticker, series)
	if err := r.archive.Append(ctx, record); err != nil {
		return nil, &RunError{Kind: FailureGeneric, Err: fmt.Errorf("archive run: %w", err)}
	}
	r.log.Info("run archived", zap.String("task", record.TaskName), zap.String("id", record.ID))
	return record, nil
}

func (r *Runner) resolveModel(role models.Role, opts Options) string {
	if opts.EconomyMode {
		return config.LiteModel
	}
	if model, ok := opts.Assignment[role]; ok && model != "" {
		return model
	}
	return config.LiteModel
}

// cooldownFor computes the inter-stage wait. Search-grounded stages
// wait longer than plain ones; the pro tier's rate limit dominates
// whichever applies.
func (r *Runner) cooldownFor(stage agents.Stage, model string) time.Duration {
	secs := r.cfg.StepCooldownSec
	if stage.UseSearch {
		secs = r.cfg.SearchCooldownSec
	}
	if model == config.ProModel && r.cfg.ProCooldownSec > secs {
		secs = r.cfg.ProCooldownSec
	}
	return time.Duration(secs) * time.Second
}

func (r *Runner) executeStage(ctx context.Context, stage agents.Stage, model string, state *agents.RunState, series *forecast.Series) *RunError {
	action := models.Action{
		ID:        r.newID(),
		Role:      stage.Role,
		Status:    models.StatusWorking,
		StartTime: r.now(),
	}
	r.appendAction(action)
	r.obs.StageStarted(action)

	temperature := float32(0.2)
	if agents.IsAnalysisRole(stage.Role) {
		temperature = 0.01
	}

	gen, err := r.gw.Generate(ctx, gateway.Request{
		Model:             model,
		SystemInstruction: agents.SystemInstruction(stage.Role),
		Prompt:            agents.PromptFor(stage.Role, fmt.Sprintf("%s (%s)", state.Ticker.Name, state.Symbol), agents.BuildInput(stage.Context, state)),
		UseSearch:         stage.UseSearch,
		Temperature:       temperature,
	})
	if err != nil {
		runErr := r.classify(err, stage.Role, model)
		if runErr.Kind == FailureCredentialMissing {
			// Recoverable: the stage stays pending so the operator can
			// reconfigure and start over without an error-state action.
			return runErr
		}
		action.Status = models.StatusError
		action.Output = err.Error()
		action.EndTime = r.now()
		r.updateAction(action)
		r.obs.StageFailed(action, runErr)
		return runErr
	}

	switch {
	case stage.Role == models.RoleIntelligenceOfficer:
		state.Dossier = gen.Text
	case agents.IsAnalysisRole(stage.Role):
		state.AppendSummary(stage.Role, gen.Text)
	}

	score, hasScore := signal.ExtractScore(gen.Text)
	var metrics *models.SentimentMetrics
	if stage.Role == models.RoleSentimentAnalyst {
		if m, ok := signal.ExtractSentimentMetrics(gen.Text); ok {
			metrics = m
		}
	}

	action.Status = models.StatusCompleted
	action.Output = gen.Text
	action.EndTime = r.now()
	if hasScore {
		s := score
		action.Score = &s
	}
	action.Metrics = metrics
	r.updateAction(action)

	r.mu.Lock()
	r.reports[action.ID] = models.StageReport{
		Text:    gen.Text,
		Sources: gen.Sources,
		Score:   action.Score,
		Metrics: metrics,
	}
	r.mu.Unlock()

	switch {
	case hasScore && (stage.Role == models.RoleTechnicalAnalyst || stage.Role == models.RoleFundamentalAnalyst):
		intensity := 4.0
		if score <= 50 {
			intensity = -4.0
		}
		series.Evolve(intensity)
		r.obs.ForecastUpdated(series.Points())
	case metrics != nil:
		series.Evolve(metrics.Score * 5)
		r.obs.ForecastUpdated(series.Points())
	}

	r.obs.StageCompleted(action)
	return nil
}

func (r *Runner) classify(err error, role models.Role, model string) *RunError {
	runErr := &RunError{Kind: FailureGeneric, Role: role, Model: model, Err: err}
	switch {
	case errors.Is(err, gateway.ErrCredentialMissing):
		runErr.Kind = FailureCredentialMissing
	case errors.Is(err, gateway.ErrQuotaExhausted):
		runErr.Kind = FailureQuotaExhausted
		r.quotaSpent.Store(true)
	}
	return runErr
}

func (r *Runner) appendAction(a models.Action) {
	r.mu.Lock()
	r.actions = append(r.actions, a)
	r.mu.Unlock()
}

func (r *Runner) updateAction(a models.Action) {
	r.mu.Lock()
	for i := range r.actions {
		if r.actions[i].ID == a.ID {
			r.actions[i] = a
			break
		}
	}
	r.mu.Unlock()
}

func (r *Runner) buildRecord(symbol string, ticker models.TickerInfo, series *forecast.Series) *models.HistoryRecord {
	now := r.now()
	r.mu.Lock()
	actions := make([]models.Action, len(r.actions))
	copy(actions, r.actions)
	reports := make(map[string]models.StageReport, len(r.reports))
	for id, rep := range r.reports {
		reports[id] = rep
	}
	r.mu.Unlock()

	return &models.HistoryRecord{
		ID:        r.newID(),
		Symbol:    symbol,
		StockName: ticker.Name,
		Timestamp: now.Format("2006-01-02 15:04:05"),
		TaskName:  fmt.Sprintf("%s_%s", symbol, now.Format("2006-01-02")),
		Reports:   reports,
		Actions:   actions,
		PriceData: series.Points(),
		BasePrice: ticker.Price,
	}
}
