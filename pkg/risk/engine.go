package risk

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/config"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/logging"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/metrics"
)

// InterventionTrigger is the per-turn risk assessment. It is created fresh
// on every evaluation and never persisted by the engine.
type InterventionTrigger struct {
	Triggered    bool                  `json:"triggered"`
	RiskLevel    affect.RiskLevel      `json:"risk_level"`
	EmotionSlope float64               `json:"emotion_slope"`
	UrgencyScore float64               `json:"urgency_score"`
	Reason       string                `json:"intervention_reason"`
	Signals      affect.TriggerSignals `json:"trigger_signals"`
}

// Engine turns an emotion vector, a trend slope, and conversation-context
// flags into a discrete risk level, an urgency score, and the trigger-signal
// vector consumed by the skill matching rules.
//
// EvaluateRisk never fails: missing emotion names read as zero and every
// field of the result is always populated.
type Engine struct {
	cfg      config.RiskConfig
	negative []string
	history  *affect.History
}

// NewEngine creates a risk engine. The emotions config supplies the
// composite negative-emotion set.
func NewEngine(cfg config.RiskConfig, emotions config.EmotionsConfig) *Engine {
	return &Engine{
		cfg:      cfg,
		negative: emotions.RiskNegativeEmotions,
		history:  affect.NewHistory(cfg.HistoryCap),
	}
}

// EvaluateRisk assesses the current turn. As a side effect it appends the
// emotion vector to the engine's bounded history, which only feeds the
// baseline helpers below.
func (e *Engine) EvaluateRisk(emotions affect.EmotionVector, slope float64, flags affect.ContextFlags) InterventionTrigger {
	score := e.riskScore(emotions, slope, flags)
	level := affect.RiskLevelFromScore(score)
	urgency := e.urgencyScore(emotions, slope)
	signals := e.extractSignals(emotions, slope)
	triggered := shouldTrigger(level, urgency)
	reason := e.interventionReason(emotions, slope, level)

	e.history.Append(emotions)
	metrics.RecordRiskEvaluation(level.String())
	logging.Debugf("Risk evaluation: score=%.1f level=%s urgency=%.2f triggered=%v",
		score, level, urgency, triggered)

	return InterventionTrigger{
		Triggered:    triggered,
		RiskLevel:    level,
		EmotionSlope: slope,
		UrgencyScore: urgency,
		Reason:       reason,
		Signals:      signals,
	}
}

// riskScore accumulates the additive 0-100 risk score.
func (e *Engine) riskScore(emotions affect.EmotionVector, slope float64, flags affect.ContextFlags) float64 {
	score := 0.0

	// Self-harm impulse carries the highest weight.
	selfHarm := emotions.Get(affect.EmotionSelfHarmImpulse)
	switch {
	case selfHarm > e.cfg.SelfHarmHigh:
		score += 40
	case selfHarm > e.cfg.SelfHarmModerate:
		score += 20
	}

	despair := emotions.Get(affect.EmotionDespair)
	switch {
	case despair > e.cfg.DespairHigh:
		score += 30
	case despair > e.cfg.DespairModerate:
		score += 15
	}

	agitation := emotions.Get(affect.EmotionAgitation)
	switch {
	case agitation > e.cfg.AgitationHigh:
		score += 20
	case agitation > e.cfg.AgitationModerate:
		score += 10
	}

	// Worsening trend.
	switch {
	case slope > e.cfg.SlopeFast:
		score += 25
	case slope > e.cfg.SlopeSlow:
		score += 15
	}

	// Compounded negative affect.
	negativeTotal := emotions.Sum(e.negative)
	switch {
	case negativeTotal > e.cfg.NegativeHigh:
		score += 15
	case negativeTotal > e.cfg.NegativeModerate:
		score += 10
	}

	if flags.Escalation {
		score += 10
	}
	if flags.SelfCritical {
		score += 5
	}

	// Emptiness signals longer-horizon risk.
	if emotions.Get(affect.EmotionEmptiness) > e.cfg.EmptinessElevated {
		score += 10
	}

	return math.Min(score, 100)
}

// urgencyScore is a weighted blend of the key indicators, clamped to [0,1].
func (e *Engine) urgencyScore(emotions affect.EmotionVector, slope float64) float64 {
	urgency := 0.35*emotions.Get(affect.EmotionSelfHarmImpulse) +
		0.25*emotions.Get(affect.EmotionDespair) +
		0.15*emotions.Get(affect.EmotionAgitation) +
		0.10*emotions.Get(affect.EmotionAnxiety) +
		0.10*emotions.Get(affect.EmotionSadness) +
		0.05*math.Min(slope*2, 1)
	return affect.Clamp01(urgency)
}

// extractSignals builds the fixed trigger-signal vector for the rule engine.
func (e *Engine) extractSignals(emotions affect.EmotionVector, slope float64) affect.TriggerSignals {
	return affect.TriggerSignals{
		SelfHarmImpulse: emotions.Get(affect.EmotionSelfHarmImpulse),
		DespairLevel:    emotions.Get(affect.EmotionDespair),
		AgitationLevel:  emotions.Get(affect.EmotionAgitation),
		EmptinessLevel:  emotions.Get(affect.EmotionEmptiness),
		ShameLevel:      emotions.Get(affect.EmotionShame),
		EmotionSlope:    slope,
		NegativeTotal: emotions.Get(affect.EmotionSadness) +
			emotions.Get(affect.EmotionAnxiety) +
			emotions.Get(affect.EmotionFear) +
			emotions.Get(affect.EmotionAnger) +
			emotions.Get(affect.EmotionGuilt),
	}
}

// shouldTrigger: HIGH and CRITICAL always intervene; MEDIUM only under high
// urgency.
func shouldTrigger(level affect.RiskLevel, urgency float64) bool {
	if level >= affect.RiskHigh {
		return true
	}
	return level == affect.RiskMedium && urgency > 0.6
}

// interventionReason summarizes the dominant factors behind an assessment.
func (e *Engine) interventionReason(emotions affect.EmotionVector, slope float64, level affect.RiskLevel) string {
	type scored struct {
		name  string
		value float64
	}
	ranked := make([]scored, 0, len(emotions.Emotions))
	for name, value := range emotions.Emotions {
		ranked = append(ranked, scored{name, value})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value != ranked[j].value {
			return ranked[i].value > ranked[j].value
		}
		return ranked[i].name < ranked[j].name
	})

	var reasons []string
	for i, r := range ranked {
		if i >= 3 {
			break
		}
		if r.value > 0.4 {
			reasons = append(reasons, fmt.Sprintf("%s (intensity %.2f)", r.name, r.value))
		}
	}
	if slope > 0.2 {
		reasons = append(reasons, fmt.Sprintf("negative affect worsening rapidly (slope %.2f)", slope))
	}
	reasons = append(reasons, fmt.Sprintf("risk level: %s", level))
	return strings.Join(reasons, "; ")
}

// Baseline computes the engine's per-emotion median baseline over the most
// recent records.
func (e *Engine) Baseline() map[string]float64 {
	return e.history.Baseline(e.negative, 30)
}

// CompareToBaseline returns current-minus-baseline deviations.
func (e *Engine) CompareToBaseline(current affect.EmotionVector) map[string]float64 {
	return e.history.Deviations(current, e.negative, 30)
}

// HistoryLen reports how many emotion records the engine has buffered.
func (e *Engine) HistoryLen() int {
	return e.history.Len()
}

// InterventionSummary renders an assessment as human-readable markdown for
// operator-facing surfaces.
func InterventionSummary(trigger InterventionTrigger) string {
	triggeredText := "no"
	if trigger.Triggered {
		triggeredText = "yes"
	}
	parts := []string{
		"# Risk Assessment\n",
		fmt.Sprintf("**Risk level**: %s", trigger.RiskLevel),
		fmt.Sprintf("**Urgency**: %.2f/1.0", trigger.UrgencyScore),
		fmt.Sprintf("**Intervention triggered**: %s", triggeredText),
		fmt.Sprintf("**Assessment**: %s\n", trigger.Reason),
		"**Trigger signals**:",
	}
	for _, s := range []struct {
		name  string
		value float64
	}{
		{"self_harm_impulse", trigger.Signals.SelfHarmImpulse},
		{"despair_level", trigger.Signals.DespairLevel},
		{"agitation_level", trigger.Signals.AgitationLevel},
		{"emptiness_level", trigger.Signals.EmptinessLevel},
		{"shame_level", trigger.Signals.ShameLevel},
		{"emotion_slope", trigger.Signals.EmotionSlope},
		{"negative_total", trigger.Signals.NegativeTotal},
	} {
		if s.value > 0.1 {
			parts = append(parts, fmt.Sprintf("- %s: %.2f", s.name, s.value))
		}
	}
	if trigger.RiskLevel == affect.RiskCritical {
		parts = append(parts, "\nWARNING: crisis state detected, act immediately.")
	}
	return strings.Join(parts, "\n")
}
