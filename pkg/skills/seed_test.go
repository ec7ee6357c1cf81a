package skills

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedBuildsCompleteCatalog(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, Seed(ctx, store))

	rules, err := store.ActiveRules(ctx, true)
	require.NoError(t, err)
	assert.Len(t, rules, 12)

	// Every rule's skill targets must resolve.
	for _, rule := range rules {
		require.NotEmpty(t, rule.SkillIDs, "rule %s has no skills", rule.RuleName)
		resolved, err := store.SkillsByIDs(ctx, rule.SkillIDs)
		require.NoError(t, err)
		assert.Len(t, resolved, len(rule.SkillIDs), "rule %s has dangling skill ids", rule.RuleName)
	}

	// The four modules exist with their core skills.
	for name, skillName := range map[string]string{
		"Mindfulness":                 "Observe",
		"Distress Tolerance":          "TIPP",
		"Emotion Regulation":          "Check the Facts",
		"Interpersonal Effectiveness": "DEAR MAN",
	} {
		sk, err := store.SkillByName(ctx, skillName)
		require.NoError(t, err, "missing skill %s", skillName)
		m, err := store.ModuleByID(ctx, sk.ModuleID)
		require.NoError(t, err)
		assert.Equal(t, name, m.NameEN)
	}
}

func TestSeedIntoSQLite(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, Seed(ctx, store))

	rules, err := store.ActiveRules(ctx, true)
	require.NoError(t, err)
	assert.Len(t, rules, 12)
	assert.Equal(t, "high_arousal_anxiety", rules[0].RuleName, "highest priority rule first")

	tipp, err := store.SkillByName(ctx, "TIPP")
	require.NoError(t, err)
	assert.NotEmpty(t, tipp.Steps)
	assert.Contains(t, tipp.TriggerEmotions, "anxiety")
}

func TestSeedRuleConditionsSurviveEncoding(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, Seed(ctx, store))

	rules, err := store.ActiveRules(ctx, true)
	require.NoError(t, err)

	byName := map[string]MatchingRule{}
	for _, r := range rules {
		byName[r.RuleName] = r
	}

	impulse := byName["impulse_control"]
	require.Len(t, impulse.Conditions.TriggerSignals, 1)
	assert.Equal(t, "self_harm_impulse", impulse.Conditions.TriggerSignals[0].Signal)

	lowArousal := byName["low_arousal_default"]
	require.NotNil(t, lowArousal.Conditions.Arousal)
	assert.Equal(t, "lt", lowArousal.Conditions.Arousal.Operator)

	conflict := byName["interpersonal_conflict"]
	assert.NotEmpty(t, conflict.Conditions.ContextContains)
}
