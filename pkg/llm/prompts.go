package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
)

const reasonSystemPrompt = `You are a professional DBT (dialectical behavior therapy) assistant. Your task is to write a warm, empathetic explanation for a skill recommendation.

Requirements:
1. Warm, natural language, like a friend who cares
2. First acknowledge the user's emotional experience
3. Briefly explain why this skill fits right now
4. Offer hope and support
5. No clinical jargon
6. Keep it between 50 and 100 words

Example style:
"I can see you're feeling really anxious right now, and that must be hard to sit with. The TIPP skill can help bring that intensity down quickly. Shall we start with a few simple ways to let your body settle?"`

const edgeCaseSystemPrompt = `You are a DBT expert. Based on the user's emotional state, pick the 1-2 most suitable skills from this list:

Distress tolerance:
- TIPP (temperature, intense exercise, paced breathing, paired relaxation)
- STOP (stop, take a step back, observe, proceed mindfully)
- ACCEPTS (activities, contributing, comparisons, emotions, pushing away, thoughts, sensations)
- Self-Soothe (comfort through the five senses)
- Radical Acceptance (accepting what cannot be changed)

Emotion regulation:
- Check the Facts (test whether the emotion fits the facts)
- Opposite Action (act opposite to the emotional urge)
- ABC PLEASE (accumulate positives, build mastery, care for the body)

Interpersonal effectiveness:
- DEAR MAN (describe, express, assert, reinforce, mindful, appear confident, negotiate)
- GIVE (gentle, interested, validate, easy manner)
- FAST (fair, no over-apologizing, stick to values, truthful)

Mindfulness:
- Wise Mind (balance of reason and emotion)
- Observe (non-judgmental awareness)
- Describe (put words on experience)
- Participate (full engagement in the moment)

Output only the skill names, comma-separated, for example: TIPP, Self-Soothe`

func buildReasonPrompt(req ReasonRequest) string {
	context := req.Context
	if context == "" {
		context = "everyday life"
	}
	return fmt.Sprintf(`User emotional state:
- Main emotions: %s
- Arousal: %.0f%%
- Risk level: %s
- Context: %s

Recommended skills: %s

Write a warm explanation for the user of why these skills fit right now.`,
		topEmotions(req.Emotions, 3, 0),
		req.Emotions.Arousal*100,
		req.RiskLevel,
		context,
		strings.Join(req.SkillNames, ", "))
}

func buildEdgeCasePrompt(req EdgeCaseRequest) string {
	emotions := topEmotions(req.Emotions, len(req.Emotions.Emotions), 0.2)
	if emotions == "" {
		emotions = "no clear emotion"
	}
	context := req.Context
	if context == "" {
		context = "unknown"
	}
	return fmt.Sprintf(`User's current emotional state:
- Emotions: %s
- Arousal: %.0f%%
- Context: %s
- Risk level: %s

Recommend the 1-2 most suitable DBT skills. Output only the skill names.`,
		emotions, req.Emotions.Arousal*100, context, req.RiskLevel)
}

// topEmotions renders the strongest emotions above a floor as
// "name (NN%)" items, strongest first.
func topEmotions(v affect.EmotionVector, limit int, floor float64) string {
	type scored struct {
		name  string
		value float64
	}
	ranked := make([]scored, 0, len(v.Emotions))
	for name, value := range v.Emotions {
		if value > floor {
			ranked = append(ranked, scored{name, value})
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value != ranked[j].value {
			return ranked[i].value > ranked[j].value
		}
		return ranked[i].name < ranked[j].name
	})
	if limit < len(ranked) {
		ranked = ranked[:limit]
	}
	parts := make([]string, len(ranked))
	for i, r := range ranked {
		parts[i] = fmt.Sprintf("%s (%.0f%%)", r.name, r.value*100)
	}
	return strings.Join(parts, ", ")
}
