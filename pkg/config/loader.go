package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v2"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/logging"
)

var (
	config     *Config
	configOnce sync.Once
	configErr  error
	configMu   sync.RWMutex
)

// DefaultConfig returns the built-in configuration. Parse unmarshals YAML on
// top of it, so file keys override defaults field by field.
func DefaultConfig() *Config {
	return &Config{
		Routing: RoutingConfig{
			L1QuickThreshold:        0.3,
			L2InterventionThreshold: 0.7,
			CrisisKeywords: []string{
				"自杀", "不想活", "结束生命", "活不下去", "自残",
				"suicide", "kill myself", "end my life", "self-harm", "want to die",
			},
			SelfHarmCrisisThreshold: 0.5,
			DespairCrisisThreshold:  0.4,
			CrisisComboThreshold:    0.3,
			AudioJitterCrisis:       50,
			AudioTempoMin:           60,
			AudioTempoMax:           180,
			VideoEdgeDensityCrisis:  0.3,
			CoreEmotionThreshold:    0.3,
			NegativeSumThreshold:    0.5,
			ActiveNegativeThreshold: 0.2,
			AudioTempoAgitated:      140,
			AudioEnergyAgitated:     0.5,
			AudioJitterTense:        30,
			VideoEdgeDensityTense:   0.2,
		},
		Risk: RiskConfig{
			SelfHarmHigh:      0.7,
			SelfHarmModerate:  0.4,
			DespairHigh:       0.7,
			DespairModerate:   0.4,
			AgitationHigh:     0.7,
			AgitationModerate: 0.4,
			SlopeFast:         0.3,
			SlopeSlow:         0.1,
			NegativeHigh:      3.0,
			NegativeModerate:  2.0,
			EmptinessElevated: 0.6,
			HistoryCap:        affect.DefaultHistoryCap,
		},
		Recommendation: RecommendationConfig{
			MaxSkillsPerRecommendation: 2,
			MinMatchScore:              0.3,
			EnableLLMFallback:          true,
			EnableLLMReason:            true,
		},
		LLM: LLMConfig{
			BaseURL:        "https://api.openai.com/v1",
			APIKey:         "${OPENAI_API_KEY}",
			Model:          "gpt-4o-mini",
			Temperature:    0.7,
			MaxTokens:      500,
			TimeoutSeconds: 30,
		},
		Emotions: EmotionsConfig{
			DBTEmotions: []string{
				affect.EmotionSadness, affect.EmotionAnxiety, affect.EmotionFear,
				affect.EmotionAnger, affect.EmotionGuilt, affect.EmotionShame,
				affect.EmotionDespair, affect.EmotionAgitation, affect.EmotionEmptiness,
			},
			CoreEmotions: []string{
				affect.EmotionEmptiness, affect.EmotionShame,
				affect.EmotionAgitation, affect.EmotionSelfHarmImpulse,
			},
			RiskNegativeEmotions: []string{
				affect.EmotionSadness, affect.EmotionAnxiety, affect.EmotionFear,
				affect.EmotionAnger, affect.EmotionGuilt,
			},
			SlopeNegativeEmotions: []string{
				affect.EmotionSadness, affect.EmotionAnxiety, affect.EmotionFear,
				affect.EmotionDespair, affect.EmotionAnger,
			},
		},
		Context: ContextConfig{
			SelfCriticalKeywords: []string{
				"不行", "没用", "失败", "糟糕", "差劲", "笨",
				"useless", "worthless", "failure", "stupid", "can't do anything",
			},
			HelpSeekingKeywords: []string{
				"帮帮我", "不知道怎么办", "求助", "怎么办",
				"help me", "what should i do", "i need help", "don't know what to do",
			},
		},
	}
}

// Load loads the configuration from the specified YAML file once and caches
// it globally.
func Load(configPath string) (*Config, error) {
	configOnce.Do(func() {
		cfg, err := Parse(configPath)
		if err != nil {
			configErr = err
			return
		}
		configMu.Lock()
		config = cfg
		configMu.Unlock()
	})
	if configErr != nil {
		return nil, configErr
	}
	configMu.RLock()
	defer configMu.RUnlock()
	return config, nil
}

// Parse parses the YAML config file without touching the global cache.
func Parse(configPath string) (*Config, error) {
	// Resolve symlinks to handle Kubernetes ConfigMap mounts
	resolved, _ := filepath.EvalSymlinks(configPath)
	if resolved == "" {
		resolved = configPath
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	expandEnvRefs(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	logging.Infof("Config loaded: crisis_keywords=%d, max_skills=%d, llm_fallback=%v",
		len(cfg.Routing.CrisisKeywords),
		cfg.Recommendation.MaxSkillsPerRecommendation,
		cfg.Recommendation.EnableLLMFallback)
	return cfg, nil
}

// Replace replaces the globally cached config. It is safe for concurrent
// readers.
func Replace(newCfg *Config) {
	configMu.Lock()
	config = newCfg
	configErr = nil
	configMu.Unlock()
}

// Get returns the current configuration.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return config
}

// Validate checks config invariants that must hold before any request is
// served. Violations are startup errors, never mid-request errors.
func Validate(cfg *Config) error {
	if len(cfg.Routing.CrisisKeywords) == 0 {
		return fmt.Errorf("config: routing.l3_crisis_keywords must not be empty")
	}
	if cfg.Routing.L2InterventionThreshold <= 0 || cfg.Routing.L2InterventionThreshold > 1 {
		return fmt.Errorf("config: routing.l2_intervention_threshold must be in (0,1], got %v",
			cfg.Routing.L2InterventionThreshold)
	}
	if cfg.Routing.AudioTempoMin >= cfg.Routing.AudioTempoMax {
		return fmt.Errorf("config: routing.audio_tempo_min (%v) must be below audio_tempo_max (%v)",
			cfg.Routing.AudioTempoMin, cfg.Routing.AudioTempoMax)
	}
	if cfg.Recommendation.MaxSkillsPerRecommendation < 1 {
		return fmt.Errorf("config: recommendation.max_skills_per_recommendation must be at least 1")
	}
	if len(cfg.Emotions.DBTEmotions) == 0 {
		return fmt.Errorf("config: emotions.dbt_emotions must not be empty")
	}
	if len(cfg.Emotions.SlopeNegativeEmotions) == 0 {
		return fmt.Errorf("config: emotions.slope_negative_emotions must not be empty")
	}
	if (cfg.Recommendation.EnableLLMFallback || cfg.Recommendation.EnableLLMReason) && cfg.LLM.Model == "" {
		return fmt.Errorf("config: llm.model is required when LLM features are enabled")
	}
	if cfg.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("config: llm.timeout_seconds must be positive, got %d", cfg.LLM.TimeoutSeconds)
	}
	return nil
}

// expandEnvRefs resolves ${ENV_VAR} references in credential fields.
func expandEnvRefs(cfg *Config) {
	cfg.LLM.BaseURL = expandEnv(cfg.LLM.BaseURL)
	cfg.LLM.APIKey = expandEnv(cfg.LLM.APIKey)
}

func expandEnv(value string) string {
	if strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}") {
		return os.Getenv(value[2 : len(value)-1])
	}
	return value
}
