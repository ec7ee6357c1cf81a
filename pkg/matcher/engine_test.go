package matcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/config"
	"github.com/Fyuan0206/SelfAgent/pkg/skills"
)

func testCatalog(t *testing.T) (*skills.MemoryStore, int64) {
	t.Helper()
	store := skills.NewMemoryStore()
	moduleID := store.AddModule(skills.Module{Name: "痛苦耐受", NameEN: "Distress Tolerance"})
	skillID := store.AddSkill(skills.Skill{
		ModuleID:        moduleID,
		Name:            "TIPP技巧",
		NameEN:          "TIPP",
		Description:     "Bring intensity down fast",
		TriggerEmotions: []string{affect.EmotionAnxiety, affect.EmotionAgitation},
		DifficultyLevel: 1,
		IsActive:        true,
	})
	store.AddRule(skills.MatchingRule{
		RuleName: "high_arousal_anxiety",
		Priority: 100,
		Conditions: skills.RuleConditions{
			EmotionConditions: []skills.EmotionCondition{
				{Emotion: affect.EmotionAnxiety, Operator: "gte", Value: 0.5},
			},
			TriggerSignals: []skills.SignalCondition{
				{Signal: "agitation_level", Operator: "gte", Value: 0.4},
			},
		},
		SkillIDs: []int64{skillID},
		ModuleID: moduleID,
		IsActive: true,
	})
	return store, skillID
}

func newTestEngine(t *testing.T, repo skills.Repository) *Engine {
	t.Helper()
	return NewEngine(repo, config.DefaultConfig().Recommendation)
}

func TestMatchHighAnxiety(t *testing.T) {
	store, _ := testCatalog(t)
	e := newTestEngine(t, store)

	result, err := e.Match(context.Background(), MatchRequest{
		Emotions: affect.EmotionVector{
			Emotions: map[string]float64{affect.EmotionAnxiety: 0.7, affect.EmotionSadness: 0.2},
			Arousal:  0.8,
		},
		Signals:   affect.TriggerSignals{AgitationLevel: 0.5},
		Context:   "exam stress",
		RiskLevel: affect.RiskMedium,
	})
	require.NoError(t, err)

	require.Len(t, result.Skills, 1)
	sk := result.Skills[0]
	assert.Equal(t, "TIPP", sk.SkillNameEN)
	assert.Equal(t, "Distress Tolerance", sk.ModuleName)
	assert.Greater(t, sk.MatchScore, 0.0)
	assert.LessOrEqual(t, sk.MatchScore, 1.0)
	assert.NotEmpty(t, sk.MatchReason)
	assert.Equal(t, []string{"high_arousal_anxiety"}, result.MatchedRules)
	assert.Equal(t, "Distress Tolerance", result.Module)
	assert.Len(t, result.Fallbacks, 2)
}

func TestMatchRuleNotSatisfied(t *testing.T) {
	store, _ := testCatalog(t)
	e := newTestEngine(t, store)

	// Anxiety below the rule bar and no matching trigger emotions either:
	// the emotion fallback also finds nothing for sadness.
	result, err := e.Match(context.Background(), MatchRequest{
		Emotions: affect.EmotionVector{
			Emotions: map[string]float64{affect.EmotionSadness: 0.6},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Skills)
	assert.Equal(t, "Distress Tolerance", result.Module)
	// Universal names pad the fallbacks.
	assert.Len(t, result.Fallbacks, 2)
}

func TestMatchEmotionFallback(t *testing.T) {
	store, _ := testCatalog(t)
	e := newTestEngine(t, store)

	// Anxiety too weak for the rule but strong enough for the fallback,
	// which finds TIPP through its trigger emotions.
	result, err := e.Match(context.Background(), MatchRequest{
		Emotions: affect.EmotionVector{
			Emotions: map[string]float64{affect.EmotionAnxiety: 0.4},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Skills, 1)
	assert.Equal(t, "TIPP", result.Skills[0].SkillNameEN)
	assert.Equal(t, []string{"emotion_fallback_anxiety"}, result.MatchedRules)
}

func TestMatchWeakEmotionSkipsFallback(t *testing.T) {
	store, _ := testCatalog(t)
	e := newTestEngine(t, store)

	result, err := e.Match(context.Background(), MatchRequest{
		Emotions: affect.EmotionVector{
			Emotions: map[string]float64{affect.EmotionAnxiety: 0.2},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Skills)
	assert.Empty(t, result.MatchedRules)
}

func TestMatchEmptyCatalog(t *testing.T) {
	e := newTestEngine(t, skills.NewMemoryStore())
	result, err := e.Match(context.Background(), MatchRequest{
		Emotions: affect.EmotionVector{
			Emotions: map[string]float64{affect.EmotionAnxiety: 0.9},
		},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Skills)
	assert.Len(t, result.Fallbacks, 2)
}

func TestMatchSeededCatalogRespectsMaxSkills(t *testing.T) {
	store := skills.NewMemoryStore()
	require.NoError(t, skills.Seed(context.Background(), store))
	e := newTestEngine(t, store)

	// A state that fires several seeded rules at once.
	result, err := e.Match(context.Background(), MatchRequest{
		Emotions: affect.EmotionVector{
			Emotions: map[string]float64{
				affect.EmotionAnxiety:         0.8,
				affect.EmotionSadness:         0.7,
				affect.EmotionGuilt:           0.5,
				affect.EmotionDespair:         0.5,
				affect.EmotionSelfHarmImpulse: 0.4,
			},
			Arousal: 0.8,
		},
		Signals: affect.TriggerSignals{
			SelfHarmImpulse: 0.4,
			DespairLevel:    0.5,
			AgitationLevel:  0.5,
		},
		RiskLevel: affect.RiskHigh,
	})
	require.NoError(t, err)

	assert.Greater(t, len(result.MatchedRules), 1)
	assert.LessOrEqual(t, len(result.Skills), 2)

	// No duplicate skills even when rules share targets.
	seen := map[int64]bool{}
	for _, sk := range result.Skills {
		assert.False(t, seen[sk.SkillID], "skill %d recommended twice", sk.SkillID)
		seen[sk.SkillID] = true
	}
}

func TestMatchStabilityAdjustsScore(t *testing.T) {
	store := skills.NewMemoryStore()
	moduleID := store.AddModule(skills.Module{NameEN: "Distress Tolerance"})
	skillID := store.AddSkill(skills.Skill{
		ModuleID:        moduleID,
		NameEN:          "Radical Acceptance",
		DifficultyLevel: 3,
		IsActive:        true,
	})
	store.AddRule(skills.MatchingRule{
		RuleName: "despair_rule",
		Priority: 50,
		Conditions: skills.RuleConditions{
			EmotionConditions: []skills.EmotionCondition{
				{Emotion: affect.EmotionDespair, Operator: "gte", Value: 0.4},
			},
		},
		SkillIDs: []int64{skillID},
		ModuleID: moduleID,
		IsActive: true,
	})
	e := newTestEngine(t, store)

	req := MatchRequest{
		Emotions: affect.EmotionVector{
			Emotions: map[string]float64{affect.EmotionDespair: 0.5},
		},
	}

	req.UserStability = 0.2
	unstable, err := e.Match(context.Background(), req)
	require.NoError(t, err)

	req.UserStability = 0.9
	stable, err := e.Match(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, unstable.Skills, 1)
	require.Len(t, stable.Skills, 1)
	// Difficult skills score lower for unstable users.
	assert.Less(t, unstable.Skills[0].MatchScore, stable.Skills[0].MatchScore)
}

func TestMatchRiskLevelCondition(t *testing.T) {
	store := skills.NewMemoryStore()
	moduleID := store.AddModule(skills.Module{NameEN: "Distress Tolerance"})
	skillID := store.AddSkill(skills.Skill{
		ModuleID: moduleID, NameEN: "STOP", DifficultyLevel: 1, IsActive: true,
	})
	store.AddRule(skills.MatchingRule{
		RuleName: "crisis_only",
		Priority: 90,
		Conditions: skills.RuleConditions{
			RiskLevels: []string{"HIGH", "CRITICAL"},
		},
		SkillIDs: []int64{skillID},
		ModuleID: moduleID,
		IsActive: true,
	})
	e := newTestEngine(t, store)

	high, err := e.Match(context.Background(), MatchRequest{RiskLevel: affect.RiskHigh})
	require.NoError(t, err)
	assert.Equal(t, []string{"crisis_only"}, high.MatchedRules)

	low, err := e.Match(context.Background(), MatchRequest{RiskLevel: affect.RiskLow})
	require.NoError(t, err)
	assert.Empty(t, low.MatchedRules)
}

func TestEvalCondition(t *testing.T) {
	tests := []struct {
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{0.5, "gte", 0.5, true},
		{0.5, ">=", 0.5, true},
		{0.4, "gte", 0.5, false},
		{0.6, "gt", 0.5, true},
		{0.5, ">", 0.5, false},
		{0.4, "lt", 0.5, true},
		{0.5, "<", 0.5, false},
		{0.5, "lte", 0.5, true},
		{0.5, "eq", 0.5, true},
		{0.5, "neq", 0.5, false},
		{0.5, "bogus", 0.5, false},
	}
	for _, tt := range tests {
		if got := evalCondition(tt.actual, tt.operator, tt.expected); got != tt.want {
			t.Errorf("evalCondition(%v, %q, %v) = %v, want %v",
				tt.actual, tt.operator, tt.expected, got, tt.want)
		}
	}
}

func TestInactiveRulesIgnored(t *testing.T) {
	store, skillID := testCatalog(t)
	store.AddRule(skills.MatchingRule{
		RuleName: "disabled_rule",
		Priority: 999,
		Conditions: skills.RuleConditions{
			EmotionConditions: []skills.EmotionCondition{
				{Emotion: affect.EmotionAnxiety, Operator: "gte", Value: 0.1},
			},
		},
		SkillIDs: []int64{skillID},
		IsActive: false,
	})
	e := newTestEngine(t, store)

	result, err := e.Match(context.Background(), MatchRequest{
		Emotions: affect.EmotionVector{
			Emotions: map[string]float64{affect.EmotionAnxiety: 0.7},
			Arousal:  0.8,
		},
		Signals: affect.TriggerSignals{AgitationLevel: 0.5},
	})
	require.NoError(t, err)
	assert.NotContains(t, result.MatchedRules, "disabled_rule")
}
