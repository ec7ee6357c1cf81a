package recommend

import (
	"github.com/Fyuan0206/SelfAgent/pkg/matcher"
)

// GuidanceApproach is how the conversation agent should open the skill
// guidance.
type GuidanceApproach string

const (
	EmpathyFirst  GuidanceApproach = "EMPATHY_FIRST"
	SkillOriented GuidanceApproach = "SKILL_ORIENTED"
)

// GuidanceIntensity is how forcefully the agent should steer toward the
// skill.
type GuidanceIntensity string

const (
	CrisisPriority   GuidanceIntensity = "CRISIS_PRIORITY"
	StandardTraining GuidanceIntensity = "STANDARD_TRAINING"
	LightReminder    GuidanceIntensity = "LIGHT_REMINDER"
)

// GuidanceTone is the register the agent should use.
type GuidanceTone string

const (
	ToneCalm        GuidanceTone = "CALM"
	ToneWarm        GuidanceTone = "WARM"
	ToneEncouraging GuidanceTone = "ENCOURAGING"
)

// GuidanceStrategy tells the downstream conversation agent how to deliver
// the recommendation. It is always fully populated.
type GuidanceStrategy struct {
	Approach  GuidanceApproach  `json:"approach"`
	Intensity GuidanceIntensity `json:"intensity"`
	Tone      GuidanceTone      `json:"tone"`
	KeyPoints []string          `json:"key_points"`
}

// Recommendation is the complete output of one recommendation pass.
type Recommendation struct {
	RecommendedModule string                     `json:"recommended_module"`
	RecommendedSkills []matcher.RecommendedSkill `json:"recommended_skills"`
	Reason            string                     `json:"recommendation_reason"`
	Strategy          GuidanceStrategy           `json:"guidance_strategy"`
	FallbackSkills    []string                   `json:"fallback_skills"`
	Metadata          map[string]any             `json:"metadata"`
}
