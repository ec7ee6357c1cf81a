package matcher

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/config"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/logging"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/metrics"
	"github.com/Fyuan0206/SelfAgent/pkg/skills"
)

// defaultModule names the module recommended when nothing else resolves.
const defaultModule = "Distress Tolerance"

// universalFallbacks pad the fallback list when the matched module cannot
// supply two alternatives. They are safe in any state.
var universalFallbacks = []string{"Paced Breathing", "Mindful Observation", "Self-Soothe"}

// signalDisplayNames are the human-readable forms used in match reasons.
var signalDisplayNames = map[string]string{
	"agitation_level":   "marked agitation",
	"despair_level":     "despair",
	"self_harm_impulse": "impulse risk",
	"emptiness_level":   "emptiness",
	"shame_level":       "shame",
}

// Engine evaluates the admin-configured matching rules against the current
// emotional state and returns scored skill recommendations. It holds no
// per-user state; one engine serves all sessions.
type Engine struct {
	repo      skills.Repository
	maxSkills int
}

// NewEngine creates a matcher over the given catalog.
func NewEngine(repo skills.Repository, cfg config.RecommendationConfig) *Engine {
	maxSkills := cfg.MaxSkillsPerRecommendation
	if maxSkills < 1 {
		maxSkills = 1
	}
	return &Engine{repo: repo, maxSkills: maxSkills}
}

// Match runs one full matching pass: rule evaluation, the emotion fallback
// when no rule fires, skill resolution and scoring, and fallback-name
// selection. It fails only on repository errors.
func (e *Engine) Match(ctx context.Context, req MatchRequest) (MatchResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecordMatchLatency(time.Since(start).Seconds())
	}()

	stability := req.UserStability
	if stability == 0 {
		stability = DefaultStability
	}

	rules, err := e.repo.ActiveRules(ctx, true)
	if err != nil {
		return MatchResult{}, fmt.Errorf("failed to load matching rules: %w", err)
	}
	logging.Debugf("Loaded %d matching rules", len(rules))

	var results []ruleMatch
	for _, rule := range rules {
		result := evaluateRule(rule, req)
		if result.matched {
			results = append(results, result)
			metrics.RecordRuleMatch(result.ruleName)
			logging.Debugf("Rule %q matched with score %.3f", result.ruleName, result.score)
		}
	}

	if len(results) == 0 {
		logging.Infof("No rule matched, falling back to direct emotion matching")
		results, err = e.emotionFallback(ctx, req)
		if err != nil {
			return MatchResult{}, err
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	var allSkillIDs []int64
	var matchedRules []string
	var moduleID int64
	for _, result := range results {
		allSkillIDs = append(allSkillIDs, result.skillIDs...)
		matchedRules = append(matchedRules, result.ruleName)
		if moduleID == 0 && result.moduleID != 0 {
			moduleID = result.moduleID
		}
	}

	uniqueIDs := dedupeIDs(allSkillIDs, e.maxSkills)
	matched, err := e.repo.SkillsByIDs(ctx, uniqueIDs)
	if err != nil {
		return MatchResult{}, fmt.Errorf("failed to resolve matched skills: %w", err)
	}

	recommended := make([]RecommendedSkill, 0, len(matched))
	for _, sk := range matched {
		score := skillScore(sk, req, stability, results)
		reason := matchReason(sk, req, results)
		recommended = append(recommended, RecommendedSkill{
			SkillID:     sk.ID,
			SkillName:   sk.Name,
			SkillNameEN: sk.NameEN,
			ModuleName:  e.moduleName(ctx, sk.ModuleID),
			Description: sk.Description,
			Steps:       sk.Steps,
			MatchScore:  score,
			MatchReason: reason,
		})
	}

	moduleName := defaultModule
	if len(recommended) > 0 {
		moduleName = recommended[0].ModuleName
	} else if moduleID != 0 {
		if m, err := e.repo.ModuleByID(ctx, moduleID); err == nil {
			moduleName = m.NameEN
		}
	}

	fallbacks, err := e.fallbackNames(ctx, recommended, moduleID)
	if err != nil {
		return MatchResult{}, err
	}

	return MatchResult{
		Module:       moduleName,
		Skills:       recommended,
		Fallbacks:    fallbacks,
		MatchedRules: matchedRules,
	}, nil
}

// evaluateRule checks every condition group of one rule against the request.
// Groups are AND'ed; each satisfied condition contributes to the score, and
// the final score is the per-condition average plus a priority bonus.
func evaluateRule(rule skills.MatchingRule, req MatchRequest) ruleMatch {
	matched := true
	totalScore := 0.0
	conditionCount := 0
	details := matchDetails{
		emotions: map[string]float64{},
		signals:  map[string]float64{},
	}

	for _, cond := range rule.Conditions.EmotionConditions {
		actual := req.Emotions.Get(cond.Emotion)
		if evalCondition(actual, cond.Operator, cond.Value) {
			totalScore += actual
			details.emotions[cond.Emotion] = actual
		} else {
			matched = false
		}
		conditionCount++
	}

	if matched {
		for _, cond := range rule.Conditions.TriggerSignals {
			actual := req.Signals.Get(cond.Signal)
			if evalCondition(actual, cond.Operator, cond.Value) {
				// Derived signals weigh less than raw emotions.
				totalScore += actual * 0.5
				details.signals[cond.Signal] = actual
			} else {
				matched = false
			}
			conditionCount++
		}
	}

	if matched && rule.Conditions.Arousal != nil {
		cond := rule.Conditions.Arousal
		if evalCondition(req.Emotions.Arousal, cond.Operator, cond.Value) {
			totalScore += req.Emotions.Arousal * 0.3
		} else {
			matched = false
		}
		conditionCount++
	}

	if matched && len(rule.Conditions.ContextContains) > 0 {
		if containsAny(req.Context, rule.Conditions.ContextContains) {
			totalScore += 0.2
		} else {
			matched = false
		}
		conditionCount++
	}

	if matched && len(rule.Conditions.RiskLevels) > 0 {
		if containsString(rule.Conditions.RiskLevels, req.RiskLevel.String()) {
			totalScore += riskLevelScore(req.RiskLevel)
		} else {
			matched = false
		}
		conditionCount++
	}

	if conditionCount == 0 {
		conditionCount = 1
	}
	finalScore := totalScore/float64(conditionCount) + float64(rule.Priority)/1000

	return ruleMatch{
		ruleName: rule.RuleName,
		matched:  matched,
		score:    finalScore,
		skillIDs: rule.SkillIDs,
		moduleID: rule.ModuleID,
		details:  details,
	}
}

// evalCondition applies a comparison operator. Both the symbolic and the
// word forms are accepted; unknown operators never match.
func evalCondition(actual float64, operator string, expected float64) bool {
	switch operator {
	case ">", "gt":
		return actual > expected
	case ">=", "gte":
		return actual >= expected
	case "<", "lt":
		return actual < expected
	case "<=", "lte":
		return actual <= expected
	case "==", "eq":
		return actual == expected
	case "!=", "neq":
		return actual != expected
	default:
		logging.Warnf("Unknown rule operator: %q", operator)
		return false
	}
}

// emotionFallback matches directly on the strongest emotion when no rule
// fired. Emotions below 0.3 are too weak to recommend on.
func (e *Engine) emotionFallback(ctx context.Context, req MatchRequest) ([]ruleMatch, error) {
	name, value := req.Emotions.Strongest()
	if name == "" || value < 0.3 {
		return nil, nil
	}

	candidates, err := e.repo.SkillsByEmotion(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to match skills by emotion %q: %w", name, err)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	skillIDs := make([]int64, 0, 2)
	for _, sk := range candidates {
		skillIDs = append(skillIDs, sk.ID)
		if len(skillIDs) == 2 {
			break
		}
	}

	return []ruleMatch{{
		ruleName: "emotion_fallback_" + name,
		matched:  true,
		score:    value,
		skillIDs: skillIDs,
		moduleID: candidates[0].ModuleID,
		details: matchDetails{
			emotions: map[string]float64{name: value},
			signals:  map[string]float64{},
		},
	}}, nil
}

// skillScore computes the final per-skill score: the best contributing rule
// score, boosted by trigger-emotion intensity and adjusted for the user's
// stability against skill difficulty. Clamped to [0,1].
func skillScore(sk skills.Skill, req MatchRequest, stability float64, results []ruleMatch) float64 {
	score := 0.5
	for _, result := range results {
		if containsID(result.skillIDs, sk.ID) {
			if result.score > score {
				score = result.score
			}
			break
		}
	}

	for _, emotion := range sk.TriggerEmotions {
		score += req.Emotions.Get(emotion) * 0.1
	}

	if sk.DifficultyLevel > 1 {
		if stability < 0.4 {
			score -= 0.1 * float64(sk.DifficultyLevel-1)
		} else if stability > 0.7 {
			score += 0.05 * float64(sk.DifficultyLevel)
		}
	}

	return affect.Clamp01(score)
}

// matchReason renders the top contributing conditions as a short
// human-readable explanation, at most three items.
func matchReason(sk skills.Skill, req MatchRequest, results []ruleMatch) string {
	var reasons []string

	for _, result := range results {
		if !containsID(result.skillIDs, sk.ID) {
			continue
		}
		for _, name := range sortedKeys(result.details.emotions) {
			reasons = append(reasons, fmt.Sprintf("strong %s (%.0f%%)", name, result.details.emotions[name]*100))
		}
		for _, name := range sortedKeys(result.details.signals) {
			display := signalDisplayNames[name]
			if display == "" {
				display = name
			}
			reasons = append(reasons, "pronounced "+display)
		}
		break
	}

	if req.Emotions.Arousal > 0.6 {
		reasons = append(reasons, "elevated emotional arousal")
	}
	if req.Context != "" {
		reasons = append(reasons, "context: "+req.Context)
	}

	if len(reasons) == 0 {
		return "recommended based on current emotional state"
	}
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}
	return strings.Join(reasons, "; ")
}

// fallbackNames picks up to two alternative skill names: first unused skills
// from the matched module, then universal fills.
func (e *Engine) fallbackNames(ctx context.Context, recommended []RecommendedSkill, moduleID int64) ([]string, error) {
	recommendedIDs := make(map[int64]struct{}, len(recommended))
	for _, sk := range recommended {
		recommendedIDs[sk.SkillID] = struct{}{}
	}

	var fallbacks []string
	if moduleID != 0 {
		moduleSkills, err := e.repo.SkillsByModule(ctx, moduleID)
		if err != nil {
			return nil, fmt.Errorf("failed to load fallback skills: %w", err)
		}
		for _, sk := range moduleSkills {
			if _, ok := recommendedIDs[sk.ID]; ok {
				continue
			}
			fallbacks = append(fallbacks, sk.NameEN)
			if len(fallbacks) >= 2 {
				break
			}
		}
	}

	for _, name := range universalFallbacks {
		if len(fallbacks) >= 2 {
			break
		}
		if !containsString(fallbacks, name) {
			fallbacks = append(fallbacks, name)
		}
	}
	return fallbacks, nil
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

func riskLevelScore(level affect.RiskLevel) float64 {
	switch level {
	case affect.RiskCritical:
		return 0.9
	case affect.RiskHigh:
		return 0.6
	case affect.RiskMedium:
		return 0.3
	default:
		return 0.1
	}
}

func dedupeIDs(ids []int64, limit int) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, limit)
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
