package agents

import (
	"strings"
	"testing"

	"github.com/stgquant/stgtrade/models"
)

func TestPipelineShape(t *testing.T) {
	if len(Pipeline) != 9 {
		t.Fatalf("expected 9 stages, got %d", len(Pipeline))
	}

	wantOrder := []models.Role{
		models.RoleIntelligenceOfficer,
		models.RoleFundamentalAnalyst,
		models.RoleSentimentAnalyst,
		models.RoleNewsPolicyAnalyst,
		models.RoleTechnicalAnalyst,
		models.RoleBullResearcher,
		models.RoleBearResearcher,
		models.RoleRiskManager,
		models.RoleFundManager,
	}
	for i, stage := range Pipeline {
		if stage.Role != wantOrder[i] {
			t.Fatalf("stage %d role = %s, want %s", i, stage.Role, wantOrder[i])
		}
	}

	// Phases must never go backwards.
	for i := 1; i < len(Pipeline); i++ {
		if Pipeline[i].Phase < Pipeline[i-1].Phase {
			t.Fatalf("phase regressed at stage %d", i)
		}
	}

	for i, stage := range Pipeline {
		wantSearch := stage.Role == models.RoleIntelligenceOfficer
		if stage.UseSearch != wantSearch {
			t.Fatalf("stage %d search grounding = %v", i, stage.UseSearch)
		}
	}
}

func TestEveryStageHasInstructionAndPhaseName(t *testing.T) {
	for _, stage := range Pipeline {
		if SystemInstruction(stage.Role) == "" {
			t.Fatalf("role %s has no system instruction", stage.Role)
		}
		if PhaseNames[stage.Phase] == "" {
			t.Fatalf("phase %d has no display name", stage.Phase)
		}
	}
	// Declared but unscheduled roles still carry instructions.
	if SystemInstruction(models.RoleTrader) == "" || SystemInstruction(models.RoleFundSecretary) == "" {
		t.Fatalf("unscheduled roles must keep their instructions")
	}
}

func TestBuildInputShapes(t *testing.T) {
	state := &RunState{
		Ticker: models.TickerInfo{Name: "Example Corp", Price: 123.45},
		Symbol: "EXMP",
	}
	state.Dossier = "the dossier"
	state.AppendSummary(models.RoleFundamentalAnalyst, "fundamentals look fine")

	brief := BuildInput(ContextBrief, state)
	if !strings.Contains(brief, "Example Corp") || !strings.Contains(brief, "123.45") {
		t.Fatalf("brief missing ticker details: %q", brief)
	}

	if got := BuildInput(ContextDossier, state); got != "the dossier" {
		t.Fatalf("dossier context = %q", got)
	}

	full := BuildInput(ContextFull, state)
	if !strings.Contains(full, "the dossier") {
		t.Fatalf("full context missing dossier")
	}
	if !strings.Contains(full, "Fundamental Analyst Assessment") {
		t.Fatalf("full context missing labelled summary block")
	}
}

func TestScoringRolesAskForScoreTag(t *testing.T) {
	scoring := []models.Role{
		models.RoleFundamentalAnalyst,
		models.RoleNewsPolicyAnalyst,
		models.RoleTechnicalAnalyst,
		models.RoleRiskManager,
		models.RoleFundManager,
	}
	for _, role := range scoring {
		if !strings.Contains(SystemInstruction(role), "[SCORE:") {
			t.Fatalf("role %s instruction lacks score directive", role)
		}
	}
	if !strings.Contains(SystemInstruction(models.RoleSentimentAnalyst), "[SENTIMENT_METRICS:") {
		t.Fatalf("sentiment analyst instruction lacks metrics directive")
	}
}
