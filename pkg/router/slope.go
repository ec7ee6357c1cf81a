package router

import "github.com/Fyuan0206/SelfAgent/pkg/affect"

// slopeWindow is the number of most recent turns the trend estimate uses.
const slopeWindow = 5

// EmotionSlope estimates the short-term trend of aggregated negative affect:
// the least-squares slope of the negative-emotion sum over the last few
// turns, index against value. Fewer than two points yield zero.
func (e *Engine) EmotionSlope(history []affect.ConversationTurn) float64 {
	if len(history) < 2 {
		return 0
	}
	recent := history
	if len(recent) > slopeWindow {
		recent = recent[len(recent)-slopeWindow:]
	}

	scores := make([]float64, len(recent))
	for i, turn := range recent {
		scores[i] = turn.Emotions.Sum(e.slopeEmotions)
	}
	return leastSquaresSlope(scores)
}

// leastSquaresSlope fits y = a + b*x over x = 0..n-1 and returns b.
func leastSquaresSlope(values []float64) float64 {
	n := float64(len(values))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
