package router

import (
	"fmt"
	"strings"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/config"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/logging"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/metrics"
)

// RouteLevel classifies how a turn should be handled.
type RouteLevel string

const (
	// L1Quick: everyday small talk, answer directly.
	L1Quick RouteLevel = "L1_QUICK"
	// L2Intervention: activate skill matching.
	L2Intervention RouteLevel = "L2_INTERVENTION"
	// L3Crisis: highest priority, overrides everything else.
	L3Crisis RouteLevel = "L3_CRISIS"
)

// RouteResult is the outcome of one routing decision.
type RouteResult struct {
	Level           RouteLevel `json:"level"`
	Confidence      float64    `json:"confidence"`
	Reason          string     `json:"reason"`
	SuggestedAction string     `json:"suggested_action"`
	RequiresDBT     bool       `json:"requires_dbt"`
	CrisisFlag      bool       `json:"crisis_flag"`
}

// Engine routes each turn through a strict three-phase cascade: crisis
// detection first, then intervention scoring, then the quick default.
// Route is pure; nil audio/video features simply skip those checks.
type Engine struct {
	cfg            config.RoutingConfig
	dbtEmotions    []string
	coreEmotions   []string
	slopeEmotions  []string
	crisisKeywords []string
	selfCritical   []string
	helpSeeking    []string
}

// NewEngine creates a router. Crisis keywords are lowercased once here; the
// config validator guarantees the list is non-empty.
func NewEngine(cfg config.RoutingConfig, emotions config.EmotionsConfig, ctx config.ContextConfig) *Engine {
	keywords := make([]string, len(cfg.CrisisKeywords))
	for i, kw := range cfg.CrisisKeywords {
		keywords[i] = strings.ToLower(kw)
	}
	return &Engine{
		cfg:            cfg,
		dbtEmotions:    emotions.DBTEmotions,
		coreEmotions:   emotions.CoreEmotions,
		slopeEmotions:  emotions.SlopeNegativeEmotions,
		crisisKeywords: keywords,
		selfCritical:   lowerAll(ctx.SelfCriticalKeywords),
		helpSeeking:    lowerAll(ctx.HelpSeekingKeywords),
	}
}

// Route executes the routing decision for one turn.
func (e *Engine) Route(text string, emotions affect.EmotionVector, audio *affect.AudioFeatures, video *affect.VideoFeatures) RouteResult {
	// Phase A: crisis signals override everything.
	if result, ok := e.checkCrisisSignals(text, emotions, audio, video); ok {
		logging.Warnf("L3 crisis route triggered: %s", result.Reason)
		metrics.RecordRouteDecision(string(L3Crisis))
		return result
	}

	// Phase B: does this turn need a guided intervention?
	if result, ok := e.checkInterventionNeeded(emotions, audio, video); ok {
		logging.Infof("L2 intervention route triggered: %s", result.Reason)
		metrics.RecordRouteDecision(string(L2Intervention))
		return result
	}

	// Phase C: quick path.
	metrics.RecordRouteDecision(string(L1Quick))
	return RouteResult{
		Level:           L1Quick,
		Confidence:      0.8,
		Reason:          "everyday conversation",
		SuggestedAction: "reply directly, no deep assessment needed",
		RequiresDBT:     false,
		CrisisFlag:      false,
	}
}

// checkCrisisSignals is an OR over independent high-recall conditions:
// keyword hits, extreme emotion scores, dangerous emotion combinations, and
// acoustic or visual stress markers.
func (e *Engine) checkCrisisSignals(text string, emotions affect.EmotionVector, audio *affect.AudioFeatures, video *affect.VideoFeatures) (RouteResult, bool) {
	var indicators []string

	textLower := strings.ToLower(text)
	for _, keyword := range e.crisisKeywords {
		if strings.Contains(textLower, keyword) {
			indicators = append(indicators, fmt.Sprintf("crisis keyword detected: %s", keyword))
		}
	}

	selfHarm := emotions.Get(affect.EmotionSelfHarmImpulse)
	if selfHarm > e.cfg.SelfHarmCrisisThreshold {
		indicators = append(indicators, fmt.Sprintf("self-harm impulse score too high: %.2f", selfHarm))
	}

	despair := emotions.Get(affect.EmotionDespair)
	if despair > e.cfg.DespairCrisisThreshold {
		indicators = append(indicators, fmt.Sprintf("despair score too high: %.2f", despair))
	}

	// Emptiness plus despair is high risk even when each is moderate.
	emptiness := emotions.Get(affect.EmotionEmptiness)
	if emptiness > e.cfg.CrisisComboThreshold && despair > e.cfg.CrisisComboThreshold {
		indicators = append(indicators, fmt.Sprintf("emptiness and despair co-occur: %.2f+%.2f", emptiness, despair))
	}

	// Self-harm impulse plus despair is the highest-risk combination.
	if selfHarm > e.cfg.CrisisComboThreshold && despair > e.cfg.CrisisComboThreshold {
		indicators = append(indicators, fmt.Sprintf("self-harm impulse and despair co-occur: %.2f+%.2f", selfHarm, despair))
	}

	if audio != nil {
		if audio.Jitter > e.cfg.AudioJitterCrisis {
			indicators = append(indicators, fmt.Sprintf("abnormal voice jitter: %.2f", audio.Jitter))
		}
		if audio.Tempo > e.cfg.AudioTempoMax || audio.Tempo < e.cfg.AudioTempoMin {
			indicators = append(indicators, fmt.Sprintf("abnormal speech tempo: %.2f BPM", audio.Tempo))
		}
	}

	if video != nil && video.EdgeDensity > e.cfg.VideoEdgeDensityCrisis {
		indicators = append(indicators, fmt.Sprintf("facial tension too high: %.2f", video.EdgeDensity))
	}

	if len(indicators) == 0 {
		return RouteResult{}, false
	}
	return RouteResult{
		Level:           L3Crisis,
		Confidence:      1.0,
		Reason:          strings.Join(indicators, "; "),
		SuggestedAction: "start highest-priority intervention, contact emergency contacts",
		RequiresDBT:     true,
		CrisisFlag:      true,
	}, true
}

// checkInterventionNeeded accumulates an intervention score across emotion,
// audio, and video indicators. L2 triggers when the score reaches the
// threshold OR when at least two distinct indicators fired; the OR is a
// deliberate policy to catch weak-but-diverse signal combinations.
func (e *Engine) checkInterventionNeeded(emotions affect.EmotionVector, audio *affect.AudioFeatures, video *affect.VideoFeatures) (RouteResult, bool) {
	var indicators []string
	score := 0.0

	for _, emotion := range e.coreEmotions {
		if value := emotions.Get(emotion); value > e.cfg.CoreEmotionThreshold {
			indicators = append(indicators, fmt.Sprintf("core emotion detected: %s (%.2f)", emotion, value))
			score += value * 0.3
		}
	}

	negativeScore := emotions.Sum(e.dbtEmotions)
	if negativeScore > e.cfg.NegativeSumThreshold {
		indicators = append(indicators, fmt.Sprintf("negative emotion total: %.2f", negativeScore))
		score += negativeScore * 0.3
	}

	activeNegative := 0
	for _, emotion := range e.dbtEmotions {
		if emotions.Get(emotion) > e.cfg.ActiveNegativeThreshold {
			activeNegative++
		}
	}
	if activeNegative >= 2 {
		indicators = append(indicators, fmt.Sprintf("compound emotions: %d negative emotions active", activeNegative))
		score += 0.3
	}

	if emotions.Arousal > e.cfg.L2InterventionThreshold {
		indicators = append(indicators, fmt.Sprintf("arousal too high: %.2f", emotions.Arousal))
		score += 0.3
	}

	if audio != nil {
		// Fast speech plus high energy reads as agitation.
		if audio.Tempo > e.cfg.AudioTempoAgitated && audio.Energy > e.cfg.AudioEnergyAgitated {
			indicators = append(indicators, "agitated state detected in audio")
			score += 0.2
		}
		if audio.Jitter > e.cfg.AudioJitterTense {
			indicators = append(indicators, "tense state detected in audio")
			score += 0.15
		}
	}

	if video != nil && video.EdgeDensity > e.cfg.VideoEdgeDensityTense {
		indicators = append(indicators, "facial tension detected in video")
		score += 0.1
	}

	logging.Debugf("L2 check: score=%.2f threshold=%.2f indicators=%d",
		score, e.cfg.L2InterventionThreshold, len(indicators))

	if score >= e.cfg.L2InterventionThreshold || len(indicators) >= 2 {
		confidence := score
		if confidence > 1 {
			confidence = 1
		}
		return RouteResult{
			Level:           L2Intervention,
			Confidence:      confidence,
			Reason:          strings.Join(indicators, "; "),
			SuggestedAction: "activate skill matching",
			RequiresDBT:     true,
			CrisisFlag:      false,
		}, true
	}
	return RouteResult{}, false
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
