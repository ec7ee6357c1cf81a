package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, Validate(DefaultConfig()))
}

func TestParseKeepsDefaultsForAbsentKeys(t *testing.T) {
	path := writeConfig(t, `
risk:
  self_harm_high: 0.8
`)
	cfg, err := Parse(path)
	require.NoError(t, err)

	assert.Equal(t, 0.8, cfg.Risk.SelfHarmHigh)
	// Untouched keys keep their defaults.
	assert.Equal(t, 0.4, cfg.Risk.SelfHarmModerate)
	assert.Equal(t, 2, cfg.Recommendation.MaxSkillsPerRecommendation)
	assert.True(t, cfg.Recommendation.EnableLLMFallback)
	assert.NotEmpty(t, cfg.Routing.CrisisKeywords)
}

func TestParseOverridesKeywordLists(t *testing.T) {
	path := writeConfig(t, `
routing:
  l3_crisis_keywords: ["only this one"]
`)
	cfg, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"only this one"}, cfg.Routing.CrisisKeywords)
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestParseMalformedYAML(t *testing.T) {
	path := writeConfig(t, "routing: [not a map")
	_, err := Parse(path)
	require.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty crisis keywords", func(c *Config) { c.Routing.CrisisKeywords = nil }},
		{"zero l2 threshold", func(c *Config) { c.Routing.L2InterventionThreshold = 0 }},
		{"l2 threshold above one", func(c *Config) { c.Routing.L2InterventionThreshold = 1.5 }},
		{"inverted tempo bounds", func(c *Config) { c.Routing.AudioTempoMin = 200 }},
		{"zero max skills", func(c *Config) { c.Recommendation.MaxSkillsPerRecommendation = 0 }},
		{"empty dbt emotions", func(c *Config) { c.Emotions.DBTEmotions = nil }},
		{"empty slope emotions", func(c *Config) { c.Emotions.SlopeNegativeEmotions = nil }},
		{"llm enabled without model", func(c *Config) { c.LLM.Model = "" }},
		{"non-positive llm timeout", func(c *Config) { c.LLM.TimeoutSeconds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateLLMModelOptionalWhenDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Model = ""
	cfg.Recommendation.EnableLLMFallback = false
	cfg.Recommendation.EnableLLMReason = false
	assert.NoError(t, Validate(cfg))
}

func TestExpandEnvRefs(t *testing.T) {
	t.Setenv("SELFAGENT_TEST_KEY", "secret-value")
	path := writeConfig(t, `
llm:
  api_key: "${SELFAGENT_TEST_KEY}"
`)
	cfg, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-value", cfg.LLM.APIKey)
}

func TestReplaceAndGet(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Risk.SelfHarmHigh = 0.99
	Replace(cfg)
	got := Get()
	require.NotNil(t, got)
	assert.Equal(t, 0.99, got.Risk.SelfHarmHigh)
}
