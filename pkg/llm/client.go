// Package llm generates recommendation reasons and handles rule-engine edge
// cases through an OpenAI-compatible endpoint. Callers must treat every
// method as fallible and keep a deterministic fallback: the decision pipeline
// never depends on a model being reachable.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/config"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/logging"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/metrics"
)

// ReasonRequest carries the state summarized into the reason prompt.
type ReasonRequest struct {
	Emotions   affect.EmotionVector
	RiskLevel  affect.RiskLevel
	Context    string
	SkillNames []string
}

// EdgeCaseRequest carries the state summarized into the edge-case prompt.
type EdgeCaseRequest struct {
	Emotions  affect.EmotionVector
	RiskLevel affect.RiskLevel
	Context   string
}

// Client is the model-facing surface of the recommendation pipeline.
type Client interface {
	// GenerateReason produces a short empathetic explanation for the
	// recommended skills.
	GenerateReason(ctx context.Context, req ReasonRequest) (string, error)

	// ClassifyEdgeCase names one or two suitable skills for a state the
	// rule engine could not cover.
	ClassifyEdgeCase(ctx context.Context, req EdgeCaseRequest) ([]string, error)
}

// OpenAIClient implements Client over any OpenAI-compatible endpoint.
type OpenAIClient struct {
	client  openai.Client
	model   string
	temp    float64
	maxTok  int64
	timeout time.Duration
}

// NewOpenAIClient builds a client from the LLM config.
func NewOpenAIClient(cfg config.LLMConfig) *OpenAIClient {
	opts := []option.RequestOption{}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	return &OpenAIClient{
		client:  openai.NewClient(opts...),
		model:   cfg.Model,
		temp:    cfg.Temperature,
		maxTok:  int64(cfg.MaxTokens),
		timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// GenerateReason implements Client.
func (c *OpenAIClient) GenerateReason(ctx context.Context, req ReasonRequest) (string, error) {
	content, err := c.complete(ctx, reasonSystemPrompt, buildReasonPrompt(req), c.temp, c.maxTok)
	if err != nil {
		metrics.RecordLLMCall("reason", "error")
		return "", fmt.Errorf("failed to generate recommendation reason: %w", err)
	}
	metrics.RecordLLMCall("reason", "success")
	logging.Debugf("LLM reason generated: %.100s", content)
	return content, nil
}

// ClassifyEdgeCase implements Client. The lower temperature keeps the skill
// selection stable.
func (c *OpenAIClient) ClassifyEdgeCase(ctx context.Context, req EdgeCaseRequest) ([]string, error) {
	content, err := c.complete(ctx, edgeCaseSystemPrompt, buildEdgeCasePrompt(req), 0.3, 200)
	if err != nil {
		metrics.RecordLLMCall("edge_case", "error")
		return nil, fmt.Errorf("failed to classify edge case: %w", err)
	}
	metrics.RecordLLMCall("edge_case", "success")
	names := ParseSkillNames(content)
	logging.Infof("LLM edge-case recommendation: %v", names)
	return names, nil
}

func (c *OpenAIClient) complete(ctx context.Context, system, user string, temp float64, maxTok int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(temp),
		MaxTokens:   openai.Int(maxTok),
	})
	if err != nil {
		return "", fmt.Errorf("error calling chat completions: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// ParseSkillNames extracts at most two skill names from a model response.
// The first separator found wins; over-long fragments are prose, not names,
// and are dropped.
func ParseSkillNames(content string) []string {
	content = strings.TrimSpace(content)
	parts := []string{content}
	for _, sep := range []string{",", "，", "、", "\n"} {
		if strings.Contains(content, sep) {
			parts = strings.Split(content, sep)
			break
		}
	}

	var names []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" || len([]rune(p)) >= 20 {
			continue
		}
		names = append(names, p)
		if len(names) == 2 {
			break
		}
	}
	return names
}
