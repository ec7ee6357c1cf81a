// Package service wires the routing cascade, the risk engine, and the
// recommendation pipeline into the single per-turn entry point.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/config"
	"github.com/Fyuan0206/SelfAgent/pkg/llm"
	"github.com/Fyuan0206/SelfAgent/pkg/matcher"
	"github.com/Fyuan0206/SelfAgent/pkg/observability/logging"
	"github.com/Fyuan0206/SelfAgent/pkg/recommend"
	"github.com/Fyuan0206/SelfAgent/pkg/risk"
	"github.com/Fyuan0206/SelfAgent/pkg/router"
	"github.com/Fyuan0206/SelfAgent/pkg/session"
	"github.com/Fyuan0206/SelfAgent/pkg/skills"
)

// TurnInput is one user turn with its extracted features. Audio and video
// are optional; absent modalities simply skip their checks.
type TurnInput struct {
	Text     string
	Emotions affect.EmotionVector
	Audio    *affect.AudioFeatures
	Video    *affect.VideoFeatures

	// Context is a short situational description, e.g. "exam stress".
	Context string

	// UserStability is the user's stability score in [0,1], zero when
	// unknown.
	UserStability float64
}

// TurnDecision is the complete decision for one turn. Recommendation is nil
// when neither the router nor the risk engine asked for an intervention.
type TurnDecision struct {
	ID             string                    `json:"id"`
	UserID         string                    `json:"user_id"`
	Route          router.RouteResult        `json:"route"`
	Trigger        risk.InterventionTrigger  `json:"trigger"`
	Recommendation *recommend.Recommendation `json:"recommendation,omitempty"`
}

// Analyzer is the orchestrator: one instance serves all users.
type Analyzer struct {
	cfg      *config.Config
	router   *router.Engine
	sessions *session.Manager
	rec      *recommend.Engine
}

// NewAnalyzer assembles the full pipeline over the given catalog. client may
// be nil to disable the LLM stages.
func NewAnalyzer(cfg *config.Config, repo skills.Repository, client llm.Client) *Analyzer {
	routerEngine := router.NewEngine(cfg.Routing, cfg.Emotions, cfg.Context)
	matchEngine := matcher.NewEngine(repo, cfg.Recommendation)
	return &Analyzer{
		cfg:      cfg,
		router:   routerEngine,
		sessions: session.NewManager(cfg.Risk, cfg.Emotions),
		rec:      recommend.NewEngine(repo, matchEngine, client, cfg.Recommendation),
	}
}

// Sessions exposes the session manager for operational surfaces.
func (a *Analyzer) Sessions() *session.Manager {
	return a.sessions
}

// AnalyzeTurn runs the full decision pipeline for one turn: record the turn,
// derive trend and context, route, assess risk, and recommend skills when
// either the route or the risk assessment asks for an intervention.
func (a *Analyzer) AnalyzeTurn(ctx context.Context, userID string, input TurnInput) (TurnDecision, error) {
	sess := a.sessions.Get(userID)
	sess.AppendTurn(affect.ConversationTurn{Text: input.Text, Emotions: input.Emotions})
	turns := sess.Turns()

	slope := a.router.EmotionSlope(turns)
	flags := a.router.AnalyzeConversationContext(turns)

	route := a.router.Route(input.Text, input.Emotions, input.Audio, input.Video)
	trigger := sess.Risk.EvaluateRisk(input.Emotions, slope, flags)

	decision := TurnDecision{
		ID:      uuid.NewString(),
		UserID:  userID,
		Route:   route,
		Trigger: trigger,
	}

	if !route.RequiresDBT && !trigger.Triggered {
		logging.Debugf("Turn %s: no intervention needed (route=%s risk=%s)",
			decision.ID, route.Level, trigger.RiskLevel)
		return decision, nil
	}

	rec, err := a.rec.Recommend(ctx, matcher.MatchRequest{
		Emotions:      input.Emotions,
		Signals:       trigger.Signals,
		Context:       input.Context,
		RiskLevel:     trigger.RiskLevel,
		UserStability: input.UserStability,
		LastSkill:     sess.GetLastSkill(),
	}, trigger.UrgencyScore)
	if err != nil {
		return decision, fmt.Errorf("recommendation failed for turn %s: %w", decision.ID, err)
	}
	decision.Recommendation = &rec

	if len(rec.RecommendedSkills) > 0 {
		sess.SetLastSkill(rec.RecommendedSkills[0].SkillNameEN)
	}

	logging.Infof("Turn %s: route=%s risk=%s skills=%d",
		decision.ID, route.Level, trigger.RiskLevel, len(rec.RecommendedSkills))
	return decision, nil
}
