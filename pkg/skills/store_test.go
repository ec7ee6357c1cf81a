package skills

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeUnderTest lets the same assertions run against both backends.
type storeUnderTest interface {
	Repository
	CatalogWriter
}

func runStoreTests(t *testing.T, open func(t *testing.T) storeUnderTest) {
	ctx := context.Background()

	t.Run("skill round trip", func(t *testing.T) {
		s := open(t)
		moduleID, err := s.InsertModule(ctx, Module{Name: "正念", NameEN: "Mindfulness", Priority: 1})
		require.NoError(t, err)

		skillID, err := s.InsertSkill(ctx, Skill{
			ModuleID:        moduleID,
			Name:            "观察",
			NameEN:          "Observe",
			Description:     "non-judgmental awareness",
			Steps:           []SkillStep{{StepNumber: 1, Instruction: "pick an anchor", Goal: "anchor attention"}},
			TriggerEmotions: []string{"confusion"},
			DifficultyLevel: 1,
			IsActive:        true,
		})
		require.NoError(t, err)

		got, err := s.SkillByID(ctx, skillID)
		require.NoError(t, err)
		assert.Equal(t, "Observe", got.NameEN)
		assert.Equal(t, moduleID, got.ModuleID)
		require.Len(t, got.Steps, 1)
		assert.Equal(t, "pick an anchor", got.Steps[0].Instruction)
		assert.Equal(t, []string{"confusion"}, got.TriggerEmotions)
		assert.True(t, got.IsActive)
	})

	t.Run("lookup by either name", func(t *testing.T) {
		s := open(t)
		moduleID, err := s.InsertModule(ctx, Module{NameEN: "Distress Tolerance"})
		require.NoError(t, err)
		_, err = s.InsertSkill(ctx, Skill{ModuleID: moduleID, Name: "自我安抚", NameEN: "Self-Soothe", IsActive: true})
		require.NoError(t, err)

		byEN, err := s.SkillByName(ctx, "self-soothe")
		require.NoError(t, err)
		assert.Equal(t, "Self-Soothe", byEN.NameEN)

		byCN, err := s.SkillByName(ctx, "自我安抚")
		require.NoError(t, err)
		assert.Equal(t, byEN.ID, byCN.ID)

		_, err = s.SkillByName(ctx, "does not exist")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("skills by ids preserves order and skips unknown", func(t *testing.T) {
		s := open(t)
		moduleID, err := s.InsertModule(ctx, Module{NameEN: "Distress Tolerance"})
		require.NoError(t, err)
		a, err := s.InsertSkill(ctx, Skill{ModuleID: moduleID, NameEN: "TIPP", IsActive: true})
		require.NoError(t, err)
		b, err := s.InsertSkill(ctx, Skill{ModuleID: moduleID, NameEN: "STOP", IsActive: true})
		require.NoError(t, err)

		got, err := s.SkillsByIDs(ctx, []int64{b, 9999, a})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "STOP", got[0].NameEN)
		assert.Equal(t, "TIPP", got[1].NameEN)
	})

	t.Run("module filter excludes inactive skills", func(t *testing.T) {
		s := open(t)
		moduleID, err := s.InsertModule(ctx, Module{NameEN: "Mindfulness"})
		require.NoError(t, err)
		_, err = s.InsertSkill(ctx, Skill{ModuleID: moduleID, NameEN: "Observe", IsActive: true})
		require.NoError(t, err)
		_, err = s.InsertSkill(ctx, Skill{ModuleID: moduleID, NameEN: "Retired", IsActive: false})
		require.NoError(t, err)

		got, err := s.SkillsByModule(ctx, moduleID)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Observe", got[0].NameEN)
	})

	t.Run("skills by emotion", func(t *testing.T) {
		s := open(t)
		moduleID, err := s.InsertModule(ctx, Module{NameEN: "Distress Tolerance"})
		require.NoError(t, err)
		_, err = s.InsertSkill(ctx, Skill{
			ModuleID: moduleID, NameEN: "TIPP",
			TriggerEmotions: []string{"anxiety", "agitation"}, IsActive: true,
		})
		require.NoError(t, err)

		got, err := s.SkillsByEmotion(ctx, "anxiety")
		require.NoError(t, err)
		require.Len(t, got, 1)

		none, err := s.SkillsByEmotion(ctx, "joy")
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("rule round trip ordered by priority", func(t *testing.T) {
		s := open(t)
		_, err := s.InsertRule(ctx, MatchingRule{
			RuleName: "minor", Priority: 10,
			Conditions: RuleConditions{Arousal: &ArousalCondition{Operator: "lt", Value: 0.4}},
			SkillIDs:   []int64{1},
			IsActive:   true,
		})
		require.NoError(t, err)
		_, err = s.InsertRule(ctx, MatchingRule{
			RuleName: "major", Priority: 90,
			Conditions: RuleConditions{
				EmotionConditions: []EmotionCondition{{Emotion: "despair", Operator: "gte", Value: 0.5}},
			},
			SkillIDs: []int64{2},
			IsActive: true,
		})
		require.NoError(t, err)
		_, err = s.InsertRule(ctx, MatchingRule{RuleName: "off", Priority: 999, IsActive: false})
		require.NoError(t, err)

		active, err := s.ActiveRules(ctx, true)
		require.NoError(t, err)
		require.Len(t, active, 2)
		for _, r := range active {
			assert.NotEqual(t, "off", r.RuleName)
		}

		all, err := s.ActiveRules(ctx, false)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		var major MatchingRule
		for _, r := range active {
			if r.RuleName == "major" {
				major = r
			}
		}
		require.Len(t, major.Conditions.EmotionConditions, 1)
		assert.Equal(t, "despair", major.Conditions.EmotionConditions[0].Emotion)
		assert.Equal(t, []int64{2}, major.SkillIDs)
	})

	t.Run("module lookup", func(t *testing.T) {
		s := open(t)
		id, err := s.InsertModule(ctx, Module{NameEN: "Emotion Regulation", Priority: 3})
		require.NoError(t, err)

		m, err := s.ModuleByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Emotion Regulation", m.NameEN)

		_, err = s.ModuleByID(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) storeUnderTest {
		return NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) storeUnderTest {
		store, err := OpenSQLite(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	})
}

func TestSQLiteRulesOrderedByPriority(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	for _, r := range []MatchingRule{
		{RuleName: "low", Priority: 10, IsActive: true},
		{RuleName: "high", Priority: 90, IsActive: true},
		{RuleName: "mid", Priority: 50, IsActive: true},
	} {
		_, err := store.InsertRule(ctx, r)
		require.NoError(t, err)
	}

	rules, err := store.ActiveRules(ctx, true)
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "high", rules[0].RuleName)
	assert.Equal(t, "mid", rules[1].RuleName)
	assert.Equal(t, "low", rules[2].RuleName)
}
