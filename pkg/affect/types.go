package affect

// Canonical emotion names produced by the emotion extraction service.
// Scores for unknown names read as zero everywhere in the pipeline.
const (
	EmotionSadness         = "sadness"
	EmotionAnxiety         = "anxiety"
	EmotionFear            = "fear"
	EmotionAnger           = "anger"
	EmotionGuilt           = "guilt"
	EmotionShame           = "shame"
	EmotionDespair         = "despair"
	EmotionAgitation       = "agitation"
	EmotionEmptiness       = "emptiness"
	EmotionSelfHarmImpulse = "self_harm_impulse"
	EmotionLoneliness      = "loneliness"
	EmotionNumbness        = "numbness"
)

// EmotionVector is the per-turn output of the emotion extraction service:
// named emotion scores in [0,1] plus an overall arousal estimate.
type EmotionVector struct {
	Emotions map[string]float64 `json:"emotions"`
	Arousal  float64            `json:"arousal"`
}

// Get returns the score for the named emotion, or zero when absent.
func (v EmotionVector) Get(name string) float64 {
	if v.Emotions == nil {
		return 0
	}
	return v.Emotions[name]
}

// Sum returns the sum of scores over the given emotion names.
func (v EmotionVector) Sum(names []string) float64 {
	total := 0.0
	for _, name := range names {
		total += v.Get(name)
	}
	return total
}

// Strongest returns the highest-scoring emotion and its value.
// The second return is zero when the vector is empty.
func (v EmotionVector) Strongest() (string, float64) {
	var topName string
	topValue := 0.0
	for name, value := range v.Emotions {
		if value > topValue || (value == topValue && (topName == "" || name < topName)) {
			topName = name
			topValue = value
		}
	}
	return topName, topValue
}

// TriggerSignals is the fixed set of derived indicators shared between the
// risk engine and the skill matching rules. All fields are in [0,1] except
// EmotionSlope, which may be negative.
type TriggerSignals struct {
	SelfHarmImpulse float64 `json:"self_harm_impulse"`
	DespairLevel    float64 `json:"despair_level"`
	AgitationLevel  float64 `json:"agitation_level"`
	EmptinessLevel  float64 `json:"emptiness_level"`
	ShameLevel      float64 `json:"shame_level"`
	EmotionSlope    float64 `json:"emotion_slope"`
	NegativeTotal   float64 `json:"negative_total"`
}

// Get returns the signal value by its wire name, or zero for unknown names.
func (s TriggerSignals) Get(name string) float64 {
	switch name {
	case "self_harm_impulse":
		return s.SelfHarmImpulse
	case "despair_level":
		return s.DespairLevel
	case "agitation_level":
		return s.AgitationLevel
	case "emptiness_level":
		return s.EmptinessLevel
	case "shame_level":
		return s.ShameLevel
	case "emotion_slope":
		return s.EmotionSlope
	case "negative_total":
		return s.NegativeTotal
	default:
		return 0
	}
}

// RiskLevel is the discrete risk classification of a turn. The ordering
// LOW < MEDIUM < HIGH < CRITICAL is significant.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

// RiskLevelFromScore maps a 0-100 risk score to a RiskLevel. The mapping is
// non-decreasing in the score.
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 50:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

func (l RiskLevel) String() string {
	switch l {
	case RiskCritical:
		return "CRITICAL"
	case RiskHigh:
		return "HIGH"
	case RiskMedium:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// ParseRiskLevel parses the string form used in rule conditions and metadata.
// Unknown strings parse as LOW.
func ParseRiskLevel(s string) RiskLevel {
	switch s {
	case "CRITICAL":
		return RiskCritical
	case "HIGH":
		return RiskHigh
	case "MEDIUM":
		return RiskMedium
	default:
		return RiskLow
	}
}

// ConversationTurn is one user turn as recorded in the per-user session:
// the raw text plus the extracted emotion vector.
type ConversationTurn struct {
	Text     string        `json:"text"`
	Emotions EmotionVector `json:"emotions"`
}

// ContextFlags are the conversation-pattern booleans derived from recent
// turns. They are always fully populated.
type ContextFlags struct {
	Repetition   bool `json:"repetition_pattern"`
	Escalation   bool `json:"escalation_pattern"`
	SelfCritical bool `json:"self_critical_pattern"`
	HelpSeeking  bool `json:"help_seeking_pattern"`
}

// AudioFeatures are the acoustic indicators consumed by the router.
// Jitter is in arbitrary extractor units, Tempo in BPM, Energy in [0,1].
type AudioFeatures struct {
	Jitter float64 `json:"jitter"`
	Tempo  float64 `json:"tempo"`
	Energy float64 `json:"energy"`
}

// VideoFeatures are the visual indicators consumed by the router.
type VideoFeatures struct {
	EdgeDensity float64 `json:"edge_density"`
}

// Clamp01 clamps v into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
