package skills

// Module is one of the four DBT skill modules.
type Module struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	NameEN      string `json:"name_en"`
	Description string `json:"description"`
	Priority    int    `json:"priority"`
}

// SkillStep is one instruction in a skill's guided execution.
type SkillStep struct {
	StepNumber  int    `json:"step_number"`
	Instruction string `json:"instruction"`
	Goal        string `json:"goal"`
	PromptHint  string `json:"prompt_hint,omitempty"`
}

// Skill is an admin-configured therapeutic skill. The core only reads
// skills; their lifecycle is an external admin concern.
type Skill struct {
	ID                int64       `json:"id"`
	ModuleID          int64       `json:"module_id"`
	Name              string      `json:"name"`
	NameEN            string      `json:"name_en"`
	Description       string      `json:"description"`
	Steps             []SkillStep `json:"steps,omitempty"`
	TriggerEmotions   []string    `json:"trigger_emotions,omitempty"`
	Contraindications []string    `json:"contraindications,omitempty"`
	DifficultyLevel   int         `json:"difficulty_level"`
	IsActive          bool        `json:"is_active"`
}

// EmotionCondition requires a named emotion score to satisfy an operator.
type EmotionCondition struct {
	Emotion  string  `json:"emotion"`
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
}

// SignalCondition requires a trigger-signal value to satisfy an operator.
type SignalCondition struct {
	Signal   string  `json:"signal"`
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
}

// ArousalCondition requires the arousal estimate to satisfy an operator.
type ArousalCondition struct {
	Operator string  `json:"operator"`
	Value    float64 `json:"value"`
}

// RuleConditions are the predicate groups of a matching rule. Groups are
// AND'ed: every present condition must hold for the rule to match.
type RuleConditions struct {
	EmotionConditions []EmotionCondition `json:"emotion_conditions,omitempty"`
	TriggerSignals    []SignalCondition  `json:"trigger_signals,omitempty"`
	Arousal           *ArousalCondition  `json:"arousal,omitempty"`
	ContextContains   []string           `json:"context_contains,omitempty"`
	RiskLevels        []string           `json:"risk_level,omitempty"`
}

// MatchingRule maps emotional and contextual conditions to recommended
// skill IDs. Priority is 0-1000, higher wins ties.
type MatchingRule struct {
	ID          int64          `json:"id"`
	RuleName    string         `json:"rule_name"`
	Priority    int            `json:"priority"`
	Conditions  RuleConditions `json:"conditions"`
	SkillIDs    []int64        `json:"skill_ids"`
	ModuleID    int64          `json:"module_id,omitempty"`
	Description string         `json:"description,omitempty"`
	IsActive    bool           `json:"is_active"`
}
