package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RouteDecisionsTotal counts routing decisions by route level.
	RouteDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selfagent_route_decisions_total",
			Help: "The total number of routing decisions by route level",
		},
		[]string{"level"},
	)

	// RiskEvaluationsTotal counts risk evaluations by resulting risk level.
	RiskEvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selfagent_risk_evaluations_total",
			Help: "The total number of risk evaluations by risk level",
		},
		[]string{"risk_level"},
	)

	// RuleMatchesTotal counts skill matching rule hits by rule name.
	RuleMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selfagent_skill_rule_matches_total",
			Help: "The total number of skill matching rule hits by rule name",
		},
		[]string{"rule"},
	)

	// MatchLatency observes the latency of skill matching in seconds.
	MatchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "selfagent_skill_match_latency_seconds",
			Help:    "The latency of skill matching in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// LLMFallbacksTotal counts LLM calls by operation and outcome.
	LLMFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selfagent_llm_calls_total",
			Help: "The total number of LLM calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// RecordRouteDecision records a routing decision for the given route level.
func RecordRouteDecision(level string) {
	RouteDecisionsTotal.WithLabelValues(level).Inc()
}

// RecordRiskEvaluation records a risk evaluation result.
func RecordRiskEvaluation(riskLevel string) {
	RiskEvaluationsTotal.WithLabelValues(riskLevel).Inc()
}

// RecordRuleMatch records a skill matching rule hit.
func RecordRuleMatch(rule string) {
	RuleMatchesTotal.WithLabelValues(rule).Inc()
}

// RecordMatchLatency records the latency of one skill matching pass.
func RecordMatchLatency(seconds float64) {
	MatchLatency.Observe(seconds)
}

// RecordLLMCall records the outcome ("success" or "error") of an LLM call.
func RecordLLMCall(operation, outcome string) {
	LLMFallbacksTotal.WithLabelValues(operation, outcome).Inc()
}
