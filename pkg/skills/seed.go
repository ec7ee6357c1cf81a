package skills

import (
	"context"
	"fmt"

	"github.com/Fyuan0206/SelfAgent/pkg/observability/logging"
)

// CatalogWriter is the admin-side write path used by the seeder. Both the
// in-memory and the sqlite store implement it.
type CatalogWriter interface {
	InsertModule(ctx context.Context, m Module) (int64, error)
	InsertSkill(ctx context.Context, sk Skill) (int64, error)
	InsertRule(ctx context.Context, r MatchingRule) (int64, error)
}

// Seed loads the built-in DBT catalog (four modules, fifteen skills, twelve
// matching rules) into an empty store. It is not idempotent; callers decide
// whether the store already holds a catalog.
func Seed(ctx context.Context, w CatalogWriter) error {
	moduleIDs := make(map[string]int64, len(seedModules))
	for _, m := range seedModules {
		id, err := w.InsertModule(ctx, m)
		if err != nil {
			return fmt.Errorf("failed to seed module %q: %w", m.NameEN, err)
		}
		moduleIDs[m.NameEN] = id
	}

	skillIDs := make(map[string]int64, len(seedSkills))
	for _, entry := range seedSkills {
		sk := entry.skill
		sk.ModuleID = moduleIDs[entry.module]
		sk.IsActive = true
		id, err := w.InsertSkill(ctx, sk)
		if err != nil {
			return fmt.Errorf("failed to seed skill %q: %w", sk.NameEN, err)
		}
		skillIDs[sk.NameEN] = id
	}

	for _, entry := range seedRules {
		rule := entry.rule
		rule.IsActive = true
		if entry.module != "" {
			rule.ModuleID = moduleIDs[entry.module]
		}
		for _, name := range entry.skills {
			id, ok := skillIDs[name]
			if !ok {
				return fmt.Errorf("seed rule %q references unknown skill %q", rule.RuleName, name)
			}
			rule.SkillIDs = append(rule.SkillIDs, id)
		}
		if _, err := w.InsertRule(ctx, rule); err != nil {
			return fmt.Errorf("failed to seed rule %q: %w", rule.RuleName, err)
		}
	}

	logging.Infof("Seeded skill catalog: %d modules, %d skills, %d rules",
		len(seedModules), len(seedSkills), len(seedRules))
	return nil
}

var seedModules = []Module{
	{Name: "正念", NameEN: "Mindfulness", Description: "Attending to the present moment without judgment", Priority: 1},
	{Name: "痛苦耐受", NameEN: "Distress Tolerance", Description: "Surviving crisis moments without making them worse", Priority: 2},
	{Name: "情绪调节", NameEN: "Emotion Regulation", Description: "Understanding and changing unwanted emotions", Priority: 3},
	{Name: "人际效能", NameEN: "Interpersonal Effectiveness", Description: "Asking for what you need and keeping relationships", Priority: 4},
}

type seedSkill struct {
	module string
	skill  Skill
}

var seedSkills = []seedSkill{
	// Mindfulness.
	{"Mindfulness", Skill{
		Name: "智慧心", NameEN: "Wise Mind",
		Description:     "Find the balanced state between emotional mind and rational mind.",
		TriggerEmotions: []string{"anxiety", "confusion"},
		DifficultyLevel: 2,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Pause and take three slow breaths", Goal: "Interrupt the automatic reaction"},
			{StepNumber: 2, Instruction: "Notice what your emotional mind is urging", Goal: "Name the emotional pull"},
			{StepNumber: 3, Instruction: "Notice what your rational mind is saying", Goal: "Name the factual view"},
			{StepNumber: 4, Instruction: "Ask what the wise, centered response would be", Goal: "Act from the balanced place"},
		},
	}},
	{"Mindfulness", Skill{
		Name: "观察", NameEN: "Observe",
		Description:     "Notice experience as it happens, without words or judgment.",
		TriggerEmotions: []string{"confusion", "numbness"},
		DifficultyLevel: 1,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Pick one thing to attend to: breath, sound, or body sensation", Goal: "Anchor attention"},
			{StepNumber: 2, Instruction: "Watch the experience come and go without holding on", Goal: "Practice non-attachment"},
			{StepNumber: 3, Instruction: "When the mind wanders, gently return to the anchor", Goal: "Strengthen redirection"},
		},
	}},
	{"Mindfulness", Skill{
		Name: "描述", NameEN: "Describe",
		Description:     "Put words on experience: just the facts, no interpretations.",
		TriggerEmotions: []string{"confusion"},
		DifficultyLevel: 1,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "State what you observe in plain factual words", Goal: "Separate facts from judgments"},
			{StepNumber: 2, Instruction: "Label the feeling: \"a feeling of sadness is present\"", Goal: "Create distance from the emotion"},
			{StepNumber: 3, Instruction: "Drop words like \"always\", \"never\", \"terrible\"", Goal: "Keep the description neutral"},
		},
	}},
	{"Mindfulness", Skill{
		Name: "参与", NameEN: "Participate",
		Description:     "Throw yourself fully into the current activity.",
		TriggerEmotions: []string{"emptiness", "numbness"},
		DifficultyLevel: 2,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Choose one simple activity to do right now", Goal: "Commit to a single task"},
			{StepNumber: 2, Instruction: "Give it your full attention, letting self-consciousness go", Goal: "Become one with the activity"},
			{StepNumber: 3, Instruction: "When you notice observing yourself, return to doing", Goal: "Stay engaged"},
		},
	}},

	// Distress tolerance.
	{"Distress Tolerance", Skill{
		Name: "TIPP技巧", NameEN: "TIPP",
		Description:     "Change body chemistry fast to bring extreme arousal down.",
		TriggerEmotions: []string{"anxiety", "agitation", "self_harm_impulse"},
		DifficultyLevel: 1,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Temperature: hold something cold or splash cold water on your face", Goal: "Trigger the dive reflex to slow the heart"},
			{StepNumber: 2, Instruction: "Intense exercise: move hard for a few minutes", Goal: "Burn off the arousal"},
			{StepNumber: 3, Instruction: "Paced breathing: exhale longer than you inhale", Goal: "Activate the calming system"},
			{StepNumber: 4, Instruction: "Paired muscle relaxation: tense then release muscle groups", Goal: "Release physical tension"},
		},
	}},
	{"Distress Tolerance", Skill{
		Name: "STOP技巧", NameEN: "STOP",
		Description:     "Break the chain between urge and action.",
		TriggerEmotions: []string{"self_harm_impulse", "anger", "agitation"},
		DifficultyLevel: 1,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Stop: freeze, do not act on the urge", Goal: "Buy time before acting"},
			{StepNumber: 2, Instruction: "Take a step back: physically or mentally step away", Goal: "Create distance from the trigger"},
			{StepNumber: 3, Instruction: "Observe: notice what is happening inside and around you", Goal: "Gather information"},
			{StepNumber: 4, Instruction: "Proceed mindfully: act in line with your goals", Goal: "Choose the response deliberately"},
		},
	}},
	{"Distress Tolerance", Skill{
		Name: "转移注意力", NameEN: "ACCEPTS",
		Description:     "Distract from pain with activities, contributing, comparisons, opposite emotions, pushing away, other thoughts, and sensations.",
		TriggerEmotions: []string{"emptiness", "sadness"},
		DifficultyLevel: 2,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Pick one distracting activity you can start within a minute", Goal: "Shift attention outward"},
			{StepNumber: 2, Instruction: "Do something for someone else, however small", Goal: "Redirect focus through contribution"},
			{StepNumber: 3, Instruction: "Engage a strong competing sensation, like holding ice", Goal: "Crowd out the painful signal"},
		},
	}},
	{"Distress Tolerance", Skill{
		Name: "自我安抚", NameEN: "Self-Soothe",
		Description:     "Comfort yourself through the five senses.",
		TriggerEmotions: []string{"shame", "sadness", "emptiness"},
		DifficultyLevel: 1,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Choose one sense: sight, sound, smell, taste, or touch", Goal: "Pick a soothing channel"},
			{StepNumber: 2, Instruction: "Give it something gentle: soft music, warm tea, a blanket", Goal: "Deliver comfort through the body"},
			{StepNumber: 3, Instruction: "Stay with the pleasant sensation for a few minutes", Goal: "Let the nervous system settle"},
		},
	}},
	{"Distress Tolerance", Skill{
		Name: "全然接纳", NameEN: "Radical Acceptance",
		Description:     "Accept reality as it is to stop suffering from fighting it.",
		TriggerEmotions: []string{"despair", "shame"},
		DifficultyLevel: 3,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Notice where you are fighting reality", Goal: "Locate the resistance"},
			{StepNumber: 2, Instruction: "Remind yourself that this moment has causes", Goal: "Loosen the \"it shouldn't be\" stance"},
			{StepNumber: 3, Instruction: "Relax your face and hands, adopt a willing posture", Goal: "Accept with the body, not just the mind"},
			{StepNumber: 4, Instruction: "Acceptance is not approval; it is the first step to change", Goal: "Keep the distinction clear"},
		},
	}},

	// Emotion regulation.
	{"Emotion Regulation", Skill{
		Name: "核查事实", NameEN: "Check the Facts",
		Description:     "Test whether the emotion fits the actual facts of the situation.",
		TriggerEmotions: []string{"anxiety", "fear", "guilt"},
		DifficultyLevel: 2,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Name the emotion and what triggered it", Goal: "Pin down the prompting event"},
			{StepNumber: 2, Instruction: "Separate what happened from your interpretation of it", Goal: "Find the assumption"},
			{StepNumber: 3, Instruction: "Ask: what is the worst case, and could I cope with it?", Goal: "Right-size the threat"},
			{StepNumber: 4, Instruction: "Ask whether the emotion's intensity fits the facts", Goal: "Decide whether to act on it or change it"},
		},
	}},
	{"Emotion Regulation", Skill{
		Name: "相反行动", NameEN: "Opposite Action",
		Description:     "When an emotion does not fit the facts, act opposite to its urge.",
		TriggerEmotions: []string{"sadness", "guilt", "fear"},
		DifficultyLevel: 3,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Identify the emotion and its action urge", Goal: "Know what the emotion wants"},
			{StepNumber: 2, Instruction: "Check whether acting on the urge serves you here", Goal: "Confirm opposite action applies"},
			{StepNumber: 3, Instruction: "Do the opposite, all the way: approach instead of avoid", Goal: "Change the emotion through behavior"},
			{StepNumber: 4, Instruction: "Repeat until the emotion shifts", Goal: "Let the new pattern take hold"},
		},
	}},
	{"Emotion Regulation", Skill{
		Name: "ABC PLEASE技巧", NameEN: "ABC PLEASE",
		Description:     "Reduce vulnerability to negative emotions through daily habits.",
		TriggerEmotions: []string{"sadness", "loneliness"},
		DifficultyLevel: 2,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Accumulate positives: schedule one pleasant event today", Goal: "Build positive experiences"},
			{StepNumber: 2, Instruction: "Build mastery: do one thing that gives accomplishment", Goal: "Strengthen self-efficacy"},
			{StepNumber: 3, Instruction: "Cope ahead: rehearse a coming difficulty in your mind", Goal: "Prepare for stressors"},
			{StepNumber: 4, Instruction: "Mind the body: sleep, food, movement, no mood-altering substances", Goal: "Reduce physical vulnerability"},
		},
	}},

	// Interpersonal effectiveness.
	{"Interpersonal Effectiveness", Skill{
		Name: "DEAR MAN技巧", NameEN: "DEAR MAN",
		Description:     "Ask for what you need or say no, effectively.",
		TriggerEmotions: []string{"anger"},
		DifficultyLevel: 3,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Describe the situation in facts only", Goal: "Establish common ground"},
			{StepNumber: 2, Instruction: "Express how you feel using \"I\" statements", Goal: "Share your side without blame"},
			{StepNumber: 3, Instruction: "Assert what you want, clearly and simply", Goal: "Make the ask explicit"},
			{StepNumber: 4, Instruction: "Reinforce: explain the benefit of granting it", Goal: "Motivate the other person"},
			{StepNumber: 5, Instruction: "Stay mindful, appear confident, negotiate", Goal: "Hold the position calmly"},
		},
	}},
	{"Interpersonal Effectiveness", Skill{
		Name: "GIVE技巧", NameEN: "GIVE",
		Description:     "Keep the relationship while addressing the conflict.",
		TriggerEmotions: []string{"anger", "loneliness"},
		DifficultyLevel: 2,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Be gentle: no attacks, threats, or judgment", Goal: "Protect the connection"},
			{StepNumber: 2, Instruction: "Act interested: listen and don't interrupt", Goal: "Show the other person matters"},
			{StepNumber: 3, Instruction: "Validate their feelings out loud", Goal: "Acknowledge their experience"},
			{StepNumber: 4, Instruction: "Use an easy manner: a light tone, even some humor", Goal: "Lower the temperature"},
		},
	}},
	{"Interpersonal Effectiveness", Skill{
		Name: "FAST技巧", NameEN: "FAST",
		Description:     "Keep your self-respect in difficult interactions.",
		TriggerEmotions: []string{"guilt", "shame"},
		DifficultyLevel: 2,
		Steps: []SkillStep{
			{StepNumber: 1, Instruction: "Be fair to yourself as well as the other person", Goal: "Balance both sides' needs"},
			{StepNumber: 2, Instruction: "No over-apologizing for having needs", Goal: "Drop unearned guilt"},
			{StepNumber: 3, Instruction: "Stick to your values even under pressure", Goal: "Stay aligned with yourself"},
			{StepNumber: 4, Instruction: "Be truthful: no excuses or exaggeration", Goal: "Keep self-respect intact"},
		},
	}},
}

type seedRule struct {
	module string
	skills []string
	rule   MatchingRule
}

var seedRules = []seedRule{
	{"Distress Tolerance", []string{"TIPP"}, MatchingRule{
		RuleName: "high_arousal_anxiety", Priority: 100,
		Description: "High-arousal anxiety needs body-first downregulation",
		Conditions: RuleConditions{
			EmotionConditions: []EmotionCondition{{Emotion: "anxiety", Operator: "gte", Value: 0.5}},
			TriggerSignals:    []SignalCondition{{Signal: "agitation_level", Operator: "gte", Value: 0.4}},
			Arousal:           &ArousalCondition{Operator: "gte", Value: 0.6},
		},
	}},
	{"Distress Tolerance", []string{"STOP", "TIPP"}, MatchingRule{
		RuleName: "impulse_control", Priority: 95,
		Description: "Any self-harm impulse gets impulse-interruption skills first",
		Conditions: RuleConditions{
			TriggerSignals: []SignalCondition{{Signal: "self_harm_impulse", Operator: "gte", Value: 0.3}},
		},
	}},
	{"Distress Tolerance", []string{"Radical Acceptance", "TIPP"}, MatchingRule{
		RuleName: "despair_crisis", Priority: 90,
		Description: "Deep despair pairs acceptance work with physiological relief",
		Conditions: RuleConditions{
			TriggerSignals:    []SignalCondition{{Signal: "despair_level", Operator: "gte", Value: 0.5}},
			EmotionConditions: []EmotionCondition{{Emotion: "despair", Operator: "gte", Value: 0.4}},
		},
	}},
	{"Distress Tolerance", []string{"Radical Acceptance", "Self-Soothe"}, MatchingRule{
		RuleName: "shame_spiral", Priority: 85,
		Description: "Shame spirals respond to acceptance plus gentle self-care",
		Conditions: RuleConditions{
			TriggerSignals:    []SignalCondition{{Signal: "shame_level", Operator: "gte", Value: 0.5}},
			EmotionConditions: []EmotionCondition{{Emotion: "shame", Operator: "gte", Value: 0.4}},
		},
	}},
	{"Emotion Regulation", []string{"Check the Facts"}, MatchingRule{
		RuleName: "emotional_volatility", Priority: 80,
		Description: "A fast worsening trend calls for a reality check",
		Conditions: RuleConditions{
			TriggerSignals: []SignalCondition{{Signal: "emotion_slope", Operator: "gte", Value: 0.2}},
		},
	}},
	{"Interpersonal Effectiveness", []string{"DEAR MAN", "GIVE"}, MatchingRule{
		RuleName: "interpersonal_conflict", Priority: 75,
		Description: "Anger in a conflict context points to interpersonal skills",
		Conditions: RuleConditions{
			ContextContains:   []string{"argument", "conflict", "fight", "吵架", "冲突", "争执"},
			EmotionConditions: []EmotionCondition{{Emotion: "anger", Operator: "gte", Value: 0.3}},
		},
	}},
	{"Emotion Regulation", []string{"Opposite Action", "ABC PLEASE"}, MatchingRule{
		RuleName: "sadness_withdrawal", Priority: 70,
		Description: "Sadness with withdrawal urges is countered by activation",
		Conditions: RuleConditions{
			EmotionConditions: []EmotionCondition{{Emotion: "sadness", Operator: "gte", Value: 0.5}},
		},
	}},
	{"Distress Tolerance", []string{"ACCEPTS", "Self-Soothe"}, MatchingRule{
		RuleName: "emptiness_boredom", Priority: 65,
		Description: "Emptiness responds to distraction and sensory soothing",
		Conditions: RuleConditions{
			TriggerSignals: []SignalCondition{{Signal: "emptiness_level", Operator: "gte", Value: 0.4}},
		},
	}},
	{"Emotion Regulation", []string{"Check the Facts", "Opposite Action"}, MatchingRule{
		RuleName: "anxiety_fear", Priority: 60,
		Description: "Anxiety with fear calls for cognitive work before approach",
		Conditions: RuleConditions{
			EmotionConditions: []EmotionCondition{
				{Emotion: "anxiety", Operator: "gte", Value: 0.4},
				{Emotion: "fear", Operator: "gte", Value: 0.3},
			},
		},
	}},
	{"Interpersonal Effectiveness", []string{"FAST", "Opposite Action"}, MatchingRule{
		RuleName: "guilt_management", Priority: 55,
		Description: "Guilt work pairs self-respect skills with opposite action",
		Conditions: RuleConditions{
			EmotionConditions: []EmotionCondition{{Emotion: "guilt", Operator: "gte", Value: 0.4}},
		},
	}},
	{"Mindfulness", []string{"Observe", "Describe"}, MatchingRule{
		RuleName: "emotional_confusion", Priority: 50,
		Description: "Unclear emotional states start with observing and describing",
		Conditions: RuleConditions{
			EmotionConditions: []EmotionCondition{{Emotion: "confusion", Operator: "gte", Value: 0.3}},
		},
	}},
	{"Mindfulness", []string{"Observe", "Wise Mind"}, MatchingRule{
		RuleName: "low_arousal_default", Priority: 10,
		Description: "Calm states are a window for foundational practice",
		Conditions: RuleConditions{
			Arousal: &ArousalCondition{Operator: "lt", Value: 0.4},
		},
	}},
}
