package matcher

import (
	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/skills"
)

// DefaultStability is assumed when no user profile supplies a stability
// score.
const DefaultStability = 0.5

// MatchRequest carries everything a matching pass needs: the current emotion
// vector, the derived trigger signals, and optional situational context.
type MatchRequest struct {
	Emotions  affect.EmotionVector
	Signals   affect.TriggerSignals
	Context   string
	RiskLevel affect.RiskLevel

	// UserStability is the user's stability score in [0,1]. Zero means
	// unknown and is read as DefaultStability.
	UserStability float64

	// LastSkill is the most recently practiced skill name, when known.
	LastSkill string
}

// RecommendedSkill is one matched skill with its score and explanation.
type RecommendedSkill struct {
	SkillID     int64              `json:"skill_id"`
	SkillName   string             `json:"skill_name"`
	SkillNameEN string             `json:"skill_name_en"`
	ModuleName  string             `json:"module_name"`
	Description string             `json:"description"`
	Steps       []skills.SkillStep `json:"steps,omitempty"`
	MatchScore  float64            `json:"match_score"`
	MatchReason string             `json:"match_reason"`
}

// MatchResult is the output of one matching pass. Skills may be empty when
// neither a rule nor the emotion fallback produced anything.
type MatchResult struct {
	Module       string             `json:"module"`
	Skills       []RecommendedSkill `json:"skills"`
	Fallbacks    []string           `json:"fallbacks"`
	MatchedRules []string           `json:"matched_rules"`
}

// ruleMatch is the evaluation result of a single rule.
type ruleMatch struct {
	ruleName string
	matched  bool
	score    float64
	skillIDs []int64
	moduleID int64
	details  matchDetails
}

// matchDetails records which conditions contributed to a rule match, keyed
// by kind, for building the human-readable match reason.
type matchDetails struct {
	emotions map[string]float64
	signals  map[string]float64
}
