package models

// Role identifies one of the fixed analyst/decision-maker identities.
// Roles are identifiers, not instances; each appears at most once per run.
type Role string

const (
	RoleIntelligenceOfficer Role = "intelligence_officer"
	RoleFundamentalAnalyst  Role = "fundamental_analyst"
	RoleSentimentAnalyst    Role = "sentiment_analyst"
	RoleNewsPolicyAnalyst   Role = "news_policy_analyst"
	RoleTechnicalAnalyst    Role = "technical_analyst"
	RoleBullResearcher      Role = "bull_researcher"
	RoleBearResearcher      Role = "bear_researcher"
	RoleRiskManager         Role = "risk_manager"
	RoleFundManager         Role = "fund_manager"

	// Trader and FundSecretary are part of the role set and the model
	// settings map but are not scheduled in the default pipeline.
	RoleTrader        Role = "trader"
	RoleFundSecretary Role = "fund_secretary"
)

// AllRoles returns every declared role, scheduled or not, in a stable order.
func AllRoles() []Role {
	return []Role{
		RoleIntelligenceOfficer,
		RoleFundamentalAnalyst,
		RoleSentimentAnalyst,
		RoleNewsPolicyAnalyst,
		RoleTechnicalAnalyst,
		RoleBullResearcher,
		RoleBearResearcher,
		RoleTrader,
		RoleRiskManager,
		RoleFundManager,
		RoleFundSecretary,
	}
}

// DisplayName returns the human-readable name used in reports and the CLI.
func (r Role) DisplayName() string {
	switch r {
	case RoleIntelligenceOfficer:
		return "Intelligence Officer"
	case RoleFundamentalAnalyst:
		return "Fundamental Analyst"
	case RoleSentimentAnalyst:
		return "Sentiment Analyst"
	case RoleNewsPolicyAnalyst:
		return "News & Policy Analyst"
	case RoleTechnicalAnalyst:
		return "Technical Analyst"
	case RoleBullResearcher:
		return "Bull Researcher"
	case RoleBearResearcher:
		return "Bear Researcher"
	case RoleTrader:
		return "Trader"
	case RoleRiskManager:
		return "Risk Manager"
	case RoleFundManager:
		return "Fund Manager"
	case RoleFundSecretary:
		return "Fund Secretary"
	default:
		return string(r)
	}
}
