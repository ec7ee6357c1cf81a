// Package session tracks per-user conversation state: the rolling turn
// history consumed by the trend and context heuristics, and the per-user
// risk engine with its emotion baseline.
package session

import (
	"sync"

	"github.com/Fyuan0206/SelfAgent/pkg/affect"
	"github.com/Fyuan0206/SelfAgent/pkg/config"
	"github.com/Fyuan0206/SelfAgent/pkg/risk"
)

// DefaultTurnCap bounds the per-session turn history.
const DefaultTurnCap = 50

// Session is the mutable state of one user. All methods are safe for
// concurrent use.
type Session struct {
	mu    sync.Mutex
	turns []affect.ConversationTurn
	cap   int

	// Risk is the user's personal risk engine; it carries the emotion
	// history the baseline helpers read. It has its own synchronization
	// requirements: callers serialize EvaluateRisk through AnalyzeTurn.
	Risk *risk.Engine

	// LastSkill is the most recently recommended skill name, fed back
	// into matching on the next turn.
	LastSkill string
}

func newSession(riskCfg config.RiskConfig, emotions config.EmotionsConfig) *Session {
	return &Session{
		cap:  DefaultTurnCap,
		Risk: risk.NewEngine(riskCfg, emotions),
	}
}

// AppendTurn records a turn, evicting the oldest beyond the cap.
func (s *Session) AppendTurn(turn affect.ConversationTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turn)
	if len(s.turns) > s.cap {
		s.turns = s.turns[len(s.turns)-s.cap:]
	}
}

// Turns returns a copy of the recorded history, oldest first.
func (s *Session) Turns() []affect.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]affect.ConversationTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// RecentTurns returns a copy of the last n turns.
func (s *Session) RecentTurns(n int) []affect.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.turns) {
		n = len(s.turns)
	}
	out := make([]affect.ConversationTurn, n)
	copy(out, s.turns[len(s.turns)-n:])
	return out
}

// SetLastSkill records the skill most recently recommended to the user.
func (s *Session) SetLastSkill(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastSkill = name
}

// GetLastSkill returns the most recently recommended skill name.
func (s *Session) GetLastSkill() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.LastSkill
}

// Manager owns the user-to-session map. Sessions are created on first use
// and never expire; eviction is an operational concern outside the core.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	riskCfg  config.RiskConfig
	emotions config.EmotionsConfig
}

// NewManager creates an empty session manager.
func NewManager(riskCfg config.RiskConfig, emotions config.EmotionsConfig) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		riskCfg:  riskCfg,
		emotions: emotions,
	}
}

// Get returns the session for userID, creating it if needed.
func (m *Manager) Get(userID string) *Session {
	m.mu.RLock()
	s, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return s
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Re-check: another goroutine may have created it meanwhile.
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s = newSession(m.riskCfg, m.emotions)
	m.sessions[userID] = s
	return s
}

// Len reports how many sessions are live.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Delete removes a user's session.
func (m *Manager) Delete(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}
