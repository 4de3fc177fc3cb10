// Package agents defines the fixed analysis pipeline: which roles run,
// in what order, and how each role's input context is assembled.
package agents

import (
	"fmt"

	"github.com/stgquant/stgtrade/models"
)

// ContextKind selects how a stage's input context is built from the
// accumulated run state.
type ContextKind int

const (
	// ContextBrief is a short synthetic brief with the resolved name,
	// symbol and base price. Used only by the intelligence officer.
	ContextBrief ContextKind = iota
	// ContextDossier feeds the intelligence dossier verbatim. Used by
	// the four parallel-analysis-phase roles.
	ContextDossier
	// ContextFull concatenates the dossier and the labelled analyst
	// summaries. Used by every role from the debate phase onward.
	ContextFull
)

// Stage is one scheduled role-execution step of the pipeline.
type Stage struct {
	Role      models.Role
	Phase     int
	UseSearch bool
	Context   ContextKind
}

// Pipeline is the fixed 9-stage execution order. Order is significant:
// every stage reads only context produced by strictly earlier stages.
// Trader and fund secretary are declared roles but are not scheduled.
var Pipeline = []Stage{
	{Role: models.RoleIntelligenceOfficer, Phase: 1, UseSearch: true, Context: ContextBrief},
	{Role: models.RoleFundamentalAnalyst, Phase: 2, Context: ContextDossier},
	{Role: models.RoleSentimentAnalyst, Phase: 2, Context: ContextDossier},
	{Role: models.RoleNewsPolicyAnalyst, Phase: 2, Context: ContextDossier},
	{Role: models.RoleTechnicalAnalyst, Phase: 2, Context: ContextDossier},
	{Role: models.RoleBullResearcher, Phase: 3, Context: ContextFull},
	{Role: models.RoleBearResearcher, Phase: 3, Context: ContextFull},
	{Role: models.RoleRiskManager, Phase: 4, Context: ContextFull},
	{Role: models.RoleFundManager, Phase: 5, Context: ContextFull},
}

// PhaseNames maps a decision phase to its display name.
var PhaseNames = map[int]string{
	1: "Intelligence Gathering",
	2: "Multi-Dimensional Analysis",
	3: "Bull/Bear Debate",
	4: "Risk Assessment",
	5: "Weighted Decision",
}

// IsAnalysisRole reports whether the role belongs to the four
// parallel-analysis-phase roles. These run at near-zero temperature.
func IsAnalysisRole(r models.Role) bool {
	switch r {
	case models.RoleFundamentalAnalyst, models.RoleSentimentAnalyst,
		models.RoleNewsPolicyAnalyst, models.RoleTechnicalAnalyst:
		return true
	}
	return false
}

// RunState is the shared context a run accumulates as stages complete.
// Dossier is replaced once by the intelligence officer; Summary is
// append-only across the four analysis stages.
type RunState struct {
	Ticker  models.TickerInfo
	Symbol  string
	Dossier string
	Summary string
}

// AppendSummary adds one labelled analyst block to the summary.
func (s *RunState) AppendSummary(role models.Role, text string) {
	s.Summary += fmt.Sprintf("\n\n--- %s Assessment ---\n%s\n", role.DisplayName(), text)
}

// BuildInput assembles the stage's input context from the run state.
func BuildInput(kind ContextKind, state *RunState) string {
	switch kind {
	case ContextBrief:
		return fmt.Sprintf("Subject: %s (%s)\nBase price: %.2f\n",
			state.Ticker.Name, state.Symbol, state.Ticker.Price)
	case ContextDossier:
		return state.Dossier
	default:
		return fmt.Sprintf("### [Intelligence Dossier]\n%s\n\n### [Analyst Summaries]\n%s",
			state.Dossier, state.Summary)
	}
}
