// Package recommend combines the rule matcher and the language model into
// the full skill recommendation pipeline: rule matching, LLM edge-case
// handling, reason generation, and guidance strategy selection. The model is
// strictly optional; every LLM failure falls back to a deterministic result.
package recommend

import (
	"context"
	"fmt"
	"strings"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/config"
	"github.com/Fyuan0206/SelfAgent/pkg/llm"
	"github.com/Fyuan0206/SelfAgent/pkg/matcher"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/logging"
	"github.com/Fyuan0206/SelfAgent/pkg/skills"
)

// skillKeyPoints are the guidance points for skills with dedicated scripts.
// Other skills get a generic step-by-step point.
var skillKeyPoints = map[string][]string{
	"TIPP":               {"guide the user to notice their body state", "walk through TIPP one step at a time"},
	"STOP":               {"help the user pause the current action", "guide observing and reflecting"},
	"ACCEPTS":            {"offer attention-shifting options", "encourage trying different activities"},
	"Check the Facts":    {"help the user analyze the situation", "separate facts from interpretations"},
	"Radical Acceptance": {"acknowledge the user's pain", "guide accepting what cannot be changed"},
	"Observe":            {"guide attention to the present moment", "notice without judging"},
	"DEAR MAN":           {"help clarify the need", "practice effective expression"},
}

// Engine runs the recommendation pipeline. A nil llm.Client disables both
// LLM stages regardless of config.
type Engine struct {
	repo    skills.Repository
	matcher *matcher.Engine
	llm     llm.Client
	cfg     config.RecommendationConfig
}

// NewEngine assembles the pipeline. client may be nil.
func NewEngine(repo skills.Repository, m *matcher.Engine, client llm.Client, cfg config.RecommendationConfig) *Engine {
	return &Engine{repo: repo, matcher: m, llm: client, cfg: cfg}
}

// Recommend produces a complete recommendation for the given state. The
// urgency score feeds the guidance strategy and the result metadata. It
// fails only on repository errors; every LLM error is absorbed.
func (e *Engine) Recommend(ctx context.Context, req matcher.MatchRequest, urgency float64) (Recommendation, error) {
	logging.Infof("Starting recommendation, risk level: %s", req.RiskLevel)

	result, err := e.matcher.Match(ctx, req)
	if err != nil {
		return Recommendation{}, fmt.Errorf("rule matching failed: %w", err)
	}
	logging.Debugf("Rule match: %d skills, rules: %v", len(result.Skills), result.MatchedRules)

	if len(result.Skills) == 0 && e.cfg.EnableLLMFallback && e.llm != nil {
		logging.Infof("No rule matched, trying LLM edge-case handling")
		result, err = e.handleEdgeCase(ctx, req)
		if err != nil {
			return Recommendation{}, err
		}
	}

	if len(result.Skills) == 0 {
		logging.Warnf("No matching skill found, using default recommendation")
		result, err = e.defaultRecommendation(ctx, req)
		if err != nil {
			return Recommendation{}, err
		}
	}

	reason := e.buildReason(ctx, req, result.Skills)
	strategy := guidanceStrategy(req, result, urgency)

	rec := Recommendation{
		RecommendedModule: result.Module,
		RecommendedSkills: result.Skills,
		Reason:            reason,
		Strategy:          strategy,
		FallbackSkills:    result.Fallbacks,
		Metadata: map[string]any{
			"matched_rules": result.MatchedRules,
			"risk_level":    req.RiskLevel.String(),
			"urgency_score": urgency,
		},
	}

	logging.Infof("Recommendation done: module=%s skills=%d", rec.RecommendedModule, len(rec.RecommendedSkills))
	return rec, nil
}

// handleEdgeCase asks the model for skill names and resolves them against
// the catalog. A model failure yields the universal pair instead.
func (e *Engine) handleEdgeCase(ctx context.Context, req matcher.MatchRequest) (matcher.MatchResult, error) {
	names, err := e.llm.ClassifyEdgeCase(ctx, llm.EdgeCaseRequest{
		Emotions:  req.Emotions,
		RiskLevel: req.RiskLevel,
		Context:   req.Context,
	})
	if err != nil {
		logging.Errorf("LLM edge-case handling failed: %v", err)
		names = []string{"Paced Breathing", "Mindful Observation"}
	}
	if len(names) == 0 {
		return matcher.MatchResult{Module: "Distress Tolerance"}, nil
	}

	moduleName := "Distress Tolerance"
	var matched []matcher.RecommendedSkill
	for _, name := range names {
		sk, err := e.repo.SkillByName(ctx, name)
		if err == skills.ErrNotFound {
			continue
		}
		if err != nil {
			return matcher.MatchResult{}, fmt.Errorf("failed to resolve skill %q: %w", name, err)
		}
		skillModule := e.moduleName(ctx, sk.ModuleID)
		if skillModule != "" {
			moduleName = skillModule
		}
		matched = append(matched, matcher.RecommendedSkill{
			SkillID:     sk.ID,
			SkillName:   sk.Name,
			SkillNameEN: sk.NameEN,
			ModuleName:  skillModule,
			Description: sk.Description,
			MatchScore:  0.5,
			MatchReason: "recommended by language model",
		})
	}

	return matcher.MatchResult{
		Module:       moduleName,
		Skills:       matched,
		MatchedRules: []string{"llm_edge_case"},
	}, nil
}

// defaultRecommendation is the last resort when neither rules nor the model
// produced a skill: body-first downregulation under high risk or arousal,
// otherwise plain observation.
func (e *Engine) defaultRecommendation(ctx context.Context, req matcher.MatchRequest) (matcher.MatchResult, error) {
	skillName := "Observe"
	moduleName := "Mindfulness"
	if req.RiskLevel >= affect.RiskHigh || req.Emotions.Arousal > 0.6 {
		skillName = "TIPP"
		moduleName = "Distress Tolerance"
	}

	sk, err := e.repo.SkillByName(ctx, skillName)
	if err == skills.ErrNotFound {
		// Empty catalog: name-only fallbacks.
		return matcher.MatchResult{
			Module:    moduleName,
			Fallbacks: []string{"Paced Breathing", "Mindful Observation"},
		}, nil
	}
	if err != nil {
		return matcher.MatchResult{}, fmt.Errorf("failed to resolve default skill %q: %w", skillName, err)
	}

	resolvedModule := e.moduleName(ctx, sk.ModuleID)
	if resolvedModule == "" {
		resolvedModule = moduleName
	}
	return matcher.MatchResult{
		Module: moduleName,
		Skills: []matcher.RecommendedSkill{{
			SkillID:     sk.ID,
			SkillName:   sk.Name,
			SkillNameEN: sk.NameEN,
			ModuleName:  resolvedModule,
			Description: sk.Description,
			MatchScore:  0.3,
			MatchReason: "default recommendation",
		}},
		Fallbacks:    []string{"Paced Breathing", "Self-Soothe"},
		MatchedRules: []string{"default_fallback"},
	}, nil
}

// buildReason prefers the model-written reason and degrades to templates.
func (e *Engine) buildReason(ctx context.Context, req matcher.MatchRequest, matched []matcher.RecommendedSkill) string {
	if e.cfg.EnableLLMReason && e.llm != nil && len(matched) > 0 {
		names := make([]string, len(matched))
		for i, sk := range matched {
			names[i] = sk.SkillNameEN
		}
		reason, err := e.llm.GenerateReason(ctx, llm.ReasonRequest{
			Emotions:   req.Emotions,
			RiskLevel:  req.RiskLevel,
			Context:    req.Context,
			SkillNames: names,
		})
		if err == nil {
			return reason
		}
		logging.Errorf("LLM reason generation failed: %v", err)
		return fallbackReason(matched)
	}
	return simpleReason(matched)
}

// fallbackReason renders a per-module template when the model call failed.
func fallbackReason(matched []matcher.RecommendedSkill) string {
	if len(matched) == 0 {
		return "Let's try some relaxation techniques together to help you feel a little better."
	}
	sk := matched[0]
	switch sk.ModuleName {
	case "Distress Tolerance":
		return fmt.Sprintf("I understand what you're feeling right now may be intense. %s can help you get through this difficult moment; let's try it together.", sk.SkillNameEN)
	case "Emotion Regulation":
		return fmt.Sprintf("Emotions can sometimes keep us from seeing the full picture. %s can help you understand and manage these feelings.", sk.SkillNameEN)
	case "Interpersonal Effectiveness":
		return fmt.Sprintf("Relationships can be genuinely challenging. %s can help you express your needs more effectively.", sk.SkillNameEN)
	case "Mindfulness":
		return fmt.Sprintf("Let's pause for a moment and attend to the present. %s can help you find some calm.", sk.SkillNameEN)
	default:
		return fmt.Sprintf("I suggest we try %s; it may help you feel a little better.", sk.SkillNameEN)
	}
}

// simpleReason is the template used when LLM reasons are disabled.
func simpleReason(matched []matcher.RecommendedSkill) string {
	if len(matched) == 0 {
		return "Try some relaxation techniques to help you feel a little better."
	}
	names := make([]string, len(matched))
	for i, sk := range matched {
		names[i] = sk.SkillNameEN
	}
	return fmt.Sprintf("Based on your current state, the %s skill can help you regulate your emotions.", strings.Join(names, " and "))
}

// guidanceStrategy derives the delivery strategy from risk, urgency, and
// arousal.
func guidanceStrategy(req matcher.MatchRequest, result matcher.MatchResult, urgency float64) GuidanceStrategy {
	approach := EmpathyFirst
	if req.RiskLevel < affect.RiskHigh && urgency > 0.7 {
		approach = SkillOriented
	}

	var intensity GuidanceIntensity
	switch {
	case req.RiskLevel == affect.RiskCritical:
		intensity = CrisisPriority
	case req.RiskLevel == affect.RiskHigh || urgency > 0.6:
		intensity = StandardTraining
	default:
		intensity = LightReminder
	}

	var tone GuidanceTone
	switch {
	case req.Emotions.Arousal > 0.7:
		// High arousal needs a calming register even under high risk.
		tone = ToneCalm
	case req.RiskLevel >= affect.RiskHigh:
		tone = ToneWarm
	default:
		tone = ToneEncouraging
	}

	return GuidanceStrategy{
		Approach:  approach,
		Intensity: intensity,
		Tone:      tone,
		KeyPoints: keyPoints(req, result, approach),
	}
}

// keyPoints assembles at most five guidance points, safety first.
func keyPoints(req matcher.MatchRequest, result matcher.MatchResult, approach GuidanceApproach) []string {
	var points []string
	if approach == EmpathyFirst {
		points = append(points,
			"acknowledge the user's emotional experience first",
			"express understanding and support")
	}

	if len(result.Skills) > 0 {
		sk := result.Skills[0]
		if scripted, ok := skillKeyPoints[sk.SkillNameEN]; ok {
			points = append(points, scripted...)
		} else {
			points = append(points, fmt.Sprintf("walk through the %s skill one step at a time", sk.SkillNameEN))
		}
	}

	switch req.RiskLevel {
	case affect.RiskCritical:
		points = append([]string{"confirm the user's safety"}, points...)
	case affect.RiskHigh:
		points = append(points, "keep monitoring the user's state")
	}

	if len(points) > 5 {
		points = points[:5]
	}
	return points
}

func (e *Engine) moduleName(ctx context.Context, moduleID int64) string {
	if moduleID == 0 {
		return ""
	}
	m, err := e.repo.ModuleByID(ctx, moduleID)
	if err != nil {
		return ""
	}
	return m.NameEN
}
