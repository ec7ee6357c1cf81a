package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
)

func TestParseSkillNames(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"comma", "TIPP, Self-Soothe", []string{"TIPP", "Self-Soothe"}},
		{"fullwidth comma", "TIPP，深呼吸", []string{"TIPP", "深呼吸"}},
		{"enumeration comma", "TIPP、深呼吸", []string{"TIPP", "深呼吸"}},
		{"newline", "TIPP\nSelf-Soothe", []string{"TIPP", "Self-Soothe"}},
		{"single name", "STOP", []string{"STOP"}},
		{"more than two truncated", "TIPP, STOP, ACCEPTS", []string{"TIPP", "STOP"}},
		{"whitespace trimmed", "  TIPP ,  STOP  ", []string{"TIPP", "STOP"}},
		{"empty", "", nil},
		{"prose dropped", "I would recommend using the TIPP skill because it helps", nil},
		{"prose among names", "TIPP, this is a long explanatory sentence about it", []string{"TIPP"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSkillNames(tt.content))
		})
	}
}

func TestBuildReasonPrompt(t *testing.T) {
	prompt := buildReasonPrompt(ReasonRequest{
		Emotions: affect.EmotionVector{
			Emotions: map[string]float64{
				affect.EmotionAnxiety: 0.7,
				affect.EmotionSadness: 0.3,
			},
			Arousal: 0.75,
		},
		RiskLevel:  affect.RiskMedium,
		Context:    "exam stress",
		SkillNames: []string{"TIPP"},
	})

	assert.Contains(t, prompt, "anxiety (70%)")
	assert.Contains(t, prompt, "TIPP")
	assert.Contains(t, prompt, "MEDIUM")
	assert.Contains(t, prompt, "exam stress")
	// Strongest emotion listed first.
	assert.Less(t, strings.Index(prompt, "anxiety"), strings.Index(prompt, "sadness"))
}

func TestBuildEdgeCasePromptDefaults(t *testing.T) {
	prompt := buildEdgeCasePrompt(EdgeCaseRequest{
		Emotions:  affect.EmotionVector{Emotions: map[string]float64{affect.EmotionSadness: 0.1}},
		RiskLevel: affect.RiskLow,
	})
	// Sub-floor emotions render as the no-signal placeholder.
	assert.Contains(t, prompt, "no clear emotion")
	assert.Contains(t, prompt, "unknown")
}

func TestTopEmotionsLimitAndFloor(t *testing.T) {
	v := affect.EmotionVector{Emotions: map[string]float64{
		affect.EmotionAnxiety: 0.9,
		affect.EmotionSadness: 0.6,
		affect.EmotionFear:    0.5,
		affect.EmotionAnger:   0.4,
	}}
	out := topEmotions(v, 3, 0)
	assert.Contains(t, out, "anxiety (90%)")
	assert.NotContains(t, out, "anger")
}
