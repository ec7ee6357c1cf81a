package skills

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Repository. Reads copy under a read lock, so
// concurrent matchers always see a consistent catalog even while an admin
// write is in flight.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	modules []Module
	skills  []Skill
	rules   []MatchingRule
}

// NewMemoryStore creates an empty in-memory catalog.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// AddModule inserts a module and returns its assigned ID.
func (s *MemoryStore) AddModule(m Module) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.nextID
	s.nextID++
	s.modules = append(s.modules, m)
	return m.ID
}

// AddSkill inserts a skill and returns its assigned ID.
func (s *MemoryStore) AddSkill(sk Skill) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk.ID = s.nextID
	s.nextID++
	s.skills = append(s.skills, sk)
	return sk.ID
}

// AddRule inserts a matching rule and returns its assigned ID.
func (s *MemoryStore) AddRule(r MatchingRule) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	r.ID = s.nextID
	s.nextID++
	s.rules = append(s.rules, r)
	return r.ID
}

// InsertModule implements CatalogWriter.
func (s *MemoryStore) InsertModule(_ context.Context, m Module) (int64, error) {
	return s.AddModule(m), nil
}

// InsertSkill implements CatalogWriter.
func (s *MemoryStore) InsertSkill(_ context.Context, sk Skill) (int64, error) {
	return s.AddSkill(sk), nil
}

// InsertRule implements CatalogWriter.
func (s *MemoryStore) InsertRule(_ context.Context, r MatchingRule) (int64, error) {
	return s.AddRule(r), nil
}

// ActiveRules implements Repository, highest priority first.
func (s *MemoryStore) ActiveRules(_ context.Context, activeOnly bool) ([]MatchingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MatchingRule, 0, len(s.rules))
	for _, r := range s.rules {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SkillByID implements Repository.
func (s *MemoryStore) SkillByID(_ context.Context, id int64) (*Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sk := range s.skills {
		if sk.ID == id {
			out := sk
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// SkillByName implements Repository. Both the display name and the English
// name are matched, case-insensitively.
func (s *MemoryStore) SkillByName(_ context.Context, name string) (*Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sk := range s.skills {
		if strings.EqualFold(sk.Name, name) || strings.EqualFold(sk.NameEN, name) {
			out := sk
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// SkillsByIDs implements Repository, preserving the order of ids.
func (s *MemoryStore) SkillsByIDs(_ context.Context, ids []int64) ([]Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := make(map[int64]Skill, len(s.skills))
	for _, sk := range s.skills {
		byID[sk.ID] = sk
	}
	out := make([]Skill, 0, len(ids))
	for _, id := range ids {
		if sk, ok := byID[id]; ok {
			out = append(out, sk)
		}
	}
	return out, nil
}

// SkillsByModule implements Repository.
func (s *MemoryStore) SkillsByModule(_ context.Context, moduleID int64) ([]Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Skill
	for _, sk := range s.skills {
		if sk.ModuleID == moduleID && sk.IsActive {
			out = append(out, sk)
		}
	}
	return out, nil
}

// SkillsByEmotion implements Repository.
func (s *MemoryStore) SkillsByEmotion(_ context.Context, emotion string) ([]Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Skill
	for _, sk := range s.skills {
		if !sk.IsActive {
			continue
		}
		for _, trigger := range sk.TriggerEmotions {
			if strings.EqualFold(trigger, emotion) {
				out = append(out, sk)
				break
			}
		}
	}
	return out, nil
}

// ModuleByID implements Repository.
func (s *MemoryStore) ModuleByID(_ context.Context, id int64) (*Module, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.modules {
		if m.ID == id {
			out := m
			return &out, nil
		}
	}
	return nil, ErrNotFound
}
