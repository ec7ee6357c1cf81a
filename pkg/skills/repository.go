package skills

import (
	"context"
	"errors"
)

// ErrNotFound is returned by the lookup methods when no row matches.
var ErrNotFound = errors.New("skills: not found")

// Repository is the read path of the externally-owned rule/skill catalog.
// Implementations must return consistent snapshots: a matching pass never
// observes a partially-applied admin update.
type Repository interface {
	// ActiveRules returns the matching rules, optionally filtered to
	// active ones.
	ActiveRules(ctx context.Context, activeOnly bool) ([]MatchingRule, error)

	// SkillByID returns a single skill, ErrNotFound when absent.
	SkillByID(ctx context.Context, id int64) (*Skill, error)

	// SkillByName looks a skill up by its display name or English name,
	// case-insensitively. ErrNotFound when absent.
	SkillByName(ctx context.Context, name string) (*Skill, error)

	// SkillsByIDs returns skills in the order of the given IDs, silently
	// skipping unknown IDs.
	SkillsByIDs(ctx context.Context, ids []int64) ([]Skill, error)

	// SkillsByModule returns the active skills of one module.
	SkillsByModule(ctx context.Context, moduleID int64) ([]Skill, error)

	// SkillsByEmotion returns active skills whose trigger emotions include
	// the given emotion name.
	SkillsByEmotion(ctx context.Context, emotion string) ([]Skill, error)

	// ModuleByID returns a module, ErrNotFound when absent.
	ModuleByID(ctx context.Context, id int64) (*Module, error)
}
