package config

// Config is the top-level engine configuration, loaded from YAML.
// Absent keys keep the defaults from DefaultConfig, so a minimal file only
// needs to override what it cares about.
type Config struct {
	Routing        RoutingConfig        `yaml:"routing"`
	Risk           RiskConfig           `yaml:"risk"`
	Recommendation RecommendationConfig `yaml:"recommendation"`
	LLM            LLMConfig            `yaml:"llm"`
	Emotions       EmotionsConfig       `yaml:"emotions"`
	Context        ContextConfig        `yaml:"conversation_context"`
}

// RoutingConfig holds the L1/L2/L3 cascade thresholds. The crisis thresholds
// are deliberately low: the cascade is tuned for recall, not precision.
type RoutingConfig struct {
	L1QuickThreshold        float64  `yaml:"l1_quick_threshold"`
	L2InterventionThreshold float64  `yaml:"l2_intervention_threshold"`
	CrisisKeywords          []string `yaml:"l3_crisis_keywords"`

	SelfHarmCrisisThreshold float64 `yaml:"self_harm_crisis_threshold"`
	DespairCrisisThreshold  float64 `yaml:"despair_crisis_threshold"`
	CrisisComboThreshold    float64 `yaml:"crisis_combo_threshold"`
	AudioJitterCrisis       float64 `yaml:"audio_jitter_crisis"`
	AudioTempoMin           float64 `yaml:"audio_tempo_min"`
	AudioTempoMax           float64 `yaml:"audio_tempo_max"`
	VideoEdgeDensityCrisis  float64 `yaml:"video_edge_density_crisis"`

	CoreEmotionThreshold    float64 `yaml:"core_emotion_threshold"`
	NegativeSumThreshold    float64 `yaml:"negative_sum_threshold"`
	ActiveNegativeThreshold float64 `yaml:"active_negative_threshold"`
	AudioTempoAgitated      float64 `yaml:"audio_tempo_agitated"`
	AudioEnergyAgitated     float64 `yaml:"audio_energy_agitated"`
	AudioJitterTense        float64 `yaml:"audio_jitter_tense"`
	VideoEdgeDensityTense   float64 `yaml:"video_edge_density_tense"`
}

// RiskConfig holds the per-signal thresholds of the additive risk score.
type RiskConfig struct {
	SelfHarmHigh      float64 `yaml:"self_harm_high"`
	SelfHarmModerate  float64 `yaml:"self_harm_moderate"`
	DespairHigh       float64 `yaml:"despair_high"`
	DespairModerate   float64 `yaml:"despair_moderate"`
	AgitationHigh     float64 `yaml:"agitation_high"`
	AgitationModerate float64 `yaml:"agitation_moderate"`
	SlopeFast         float64 `yaml:"slope_fast"`
	SlopeSlow         float64 `yaml:"slope_slow"`
	NegativeHigh      float64 `yaml:"negative_high"`
	NegativeModerate  float64 `yaml:"negative_moderate"`
	EmptinessElevated float64 `yaml:"emptiness_elevated"`
	HistoryCap        int     `yaml:"history_cap"`
}

// RecommendationConfig gates the recommendation pipeline.
type RecommendationConfig struct {
	MaxSkillsPerRecommendation int     `yaml:"max_skills_per_recommendation"`
	MinMatchScore              float64 `yaml:"min_match_score"`
	EnableLLMFallback          bool    `yaml:"enable_llm_fallback"`
	EnableLLMReason            bool    `yaml:"enable_llm_reason"`
}

// LLMConfig configures the OpenAI-compatible endpoint used for reason
// generation and edge-case classification. BaseURL and APIKey support
// ${ENV_VAR} expansion.
type LLMConfig struct {
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

// EmotionsConfig names the emotion sets used by the router and risk engine.
type EmotionsConfig struct {
	// DBTEmotions is the full negative emotion set the router accumulates
	// over in phase B.
	DBTEmotions []string `yaml:"dbt_emotions"`
	// CoreEmotions are the four DBT core emotions checked individually.
	CoreEmotions []string `yaml:"core_emotions"`
	// RiskNegativeEmotions feed the composite negative score of the risk
	// engine.
	RiskNegativeEmotions []string `yaml:"risk_negative_emotions"`
	// SlopeNegativeEmotions feed the trend slope of aggregated negative
	// affect.
	SlopeNegativeEmotions []string `yaml:"slope_negative_emotions"`
}

// ContextConfig holds the keyword lists for conversation-context heuristics.
type ContextConfig struct {
	SelfCriticalKeywords []string `yaml:"self_critical_keywords"`
	HelpSeekingKeywords  []string `yaml:"help_seeking_keywords"`
}
