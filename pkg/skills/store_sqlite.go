package skills

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/Fyuan0206/SelfAgent/pkg/observability/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS modules (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	name_en     TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	priority    INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS skills (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	module_id         INTEGER NOT NULL REFERENCES modules(id),
	name              TEXT NOT NULL,
	name_en           TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT '',
	steps             TEXT NOT NULL DEFAULT '[]',
	trigger_emotions  TEXT NOT NULL DEFAULT '[]',
	contraindications TEXT NOT NULL DEFAULT '[]',
	difficulty_level  INTEGER NOT NULL DEFAULT 1,
	is_active         INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS matching_rules (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	rule_name   TEXT NOT NULL UNIQUE,
	priority    INTEGER NOT NULL DEFAULT 50,
	conditions  TEXT NOT NULL DEFAULT '{}',
	skill_ids   TEXT NOT NULL DEFAULT '[]',
	module_id   INTEGER,
	description TEXT NOT NULL DEFAULT '',
	is_active   INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_skills_module ON skills(module_id);
CREATE INDEX IF NOT EXISTS idx_rules_active ON matching_rules(is_active, priority);
`

// SQLiteStore is the sqlite-backed Repository. The admin surface writes the
// catalog out of band; the core only reads, so every method runs a single
// consistent statement.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates, if needed) the catalog database at path.
// Use ":memory:" for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open skills database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// table-lock errors from concurrent write attempts.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create skills schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// InsertModule writes a module row and returns its ID.
func (s *SQLiteStore) InsertModule(ctx context.Context, m Module) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO modules (name, name_en, description, priority) VALUES (?, ?, ?, ?)`,
		m.Name, m.NameEN, m.Description, m.Priority)
	if err != nil {
		return 0, fmt.Errorf("failed to insert module %q: %w", m.NameEN, err)
	}
	return res.LastInsertId()
}

// InsertSkill writes a skill row and returns its ID.
func (s *SQLiteStore) InsertSkill(ctx context.Context, sk Skill) (int64, error) {
	steps, err := json.Marshal(sk.Steps)
	if err != nil {
		return 0, fmt.Errorf("failed to encode steps for %q: %w", sk.NameEN, err)
	}
	triggers, err := json.Marshal(sk.TriggerEmotions)
	if err != nil {
		return 0, fmt.Errorf("failed to encode trigger emotions for %q: %w", sk.NameEN, err)
	}
	contra, err := json.Marshal(sk.Contraindications)
	if err != nil {
		return 0, fmt.Errorf("failed to encode contraindications for %q: %w", sk.NameEN, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO skills (module_id, name, name_en, description, steps, trigger_emotions, contraindications, difficulty_level, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sk.ModuleID, sk.Name, sk.NameEN, sk.Description, string(steps), string(triggers), string(contra),
		sk.DifficultyLevel, boolToInt(sk.IsActive))
	if err != nil {
		return 0, fmt.Errorf("failed to insert skill %q: %w", sk.NameEN, err)
	}
	return res.LastInsertId()
}

// InsertRule writes a matching rule row and returns its ID.
func (s *SQLiteStore) InsertRule(ctx context.Context, r MatchingRule) (int64, error) {
	conditions, err := json.Marshal(r.Conditions)
	if err != nil {
		return 0, fmt.Errorf("failed to encode conditions for rule %q: %w", r.RuleName, err)
	}
	skillIDs, err := json.Marshal(r.SkillIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to encode skill ids for rule %q: %w", r.RuleName, err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO matching_rules (rule_name, priority, conditions, skill_ids, module_id, description, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.RuleName, r.Priority, string(conditions), string(skillIDs), nullableID(r.ModuleID),
		r.Description, boolToInt(r.IsActive))
	if err != nil {
		return 0, fmt.Errorf("failed to insert rule %q: %w", r.RuleName, err)
	}
	return res.LastInsertId()
}

// ActiveRules implements Repository.
func (s *SQLiteStore) ActiveRules(ctx context.Context, activeOnly bool) ([]MatchingRule, error) {
	query := `SELECT id, rule_name, priority, conditions, skill_ids, COALESCE(module_id, 0), description, is_active
		FROM matching_rules`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY priority DESC, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var out []MatchingRule
	for rows.Next() {
		var r MatchingRule
		var conditions, skillIDs string
		var active int
		if err := rows.Scan(&r.ID, &r.RuleName, &r.Priority, &conditions, &skillIDs, &r.ModuleID, &r.Description, &active); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		if err := json.Unmarshal([]byte(conditions), &r.Conditions); err != nil {
			logging.Warnf("Skipping rule %q with malformed conditions: %v", r.RuleName, err)
			continue
		}
		if err := json.Unmarshal([]byte(skillIDs), &r.SkillIDs); err != nil {
			logging.Warnf("Skipping rule %q with malformed skill ids: %v", r.RuleName, err)
			continue
		}
		r.IsActive = active != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

const skillColumns = `id, module_id, name, name_en, description, steps, trigger_emotions, contraindications, difficulty_level, is_active`

// SkillByID implements Repository.
func (s *SQLiteStore) SkillByID(ctx context.Context, id int64) (*Skill, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = ?`, id)
	return scanSkill(row)
}

// SkillByName implements Repository.
func (s *SQLiteStore) SkillByName(ctx context.Context, name string) (*Skill, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE name = ? COLLATE NOCASE OR name_en = ? COLLATE NOCASE LIMIT 1`,
		name, name)
	return scanSkill(row)
}

// SkillsByIDs implements Repository, preserving the order of ids.
func (s *SQLiteStore) SkillsByIDs(ctx context.Context, ids []int64) ([]Skill, error) {
	out := make([]Skill, 0, len(ids))
	for _, id := range ids {
		sk, err := s.SkillByID(ctx, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *sk)
	}
	return out, nil
}

// SkillsByModule implements Repository.
func (s *SQLiteStore) SkillsByModule(ctx context.Context, moduleID int64) ([]Skill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE module_id = ? AND is_active = 1 ORDER BY id`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to query skills by module: %w", err)
	}
	defer rows.Close()
	return scanSkills(rows)
}

// SkillsByEmotion implements Repository. Trigger emotions are stored as a
// JSON array, so the filter runs here rather than in SQL.
func (s *SQLiteStore) SkillsByEmotion(ctx context.Context, emotion string) ([]Skill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query skills by emotion: %w", err)
	}
	defer rows.Close()
	all, err := scanSkills(rows)
	if err != nil {
		return nil, err
	}
	var out []Skill
	for _, sk := range all {
		for _, trigger := range sk.TriggerEmotions {
			if trigger == emotion {
				out = append(out, sk)
				break
			}
		}
	}
	return out, nil
}

// ModuleByID implements Repository.
func (s *SQLiteStore) ModuleByID(ctx context.Context, id int64) (*Module, error) {
	var m Module
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, name_en, description, priority FROM modules WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.NameEN, &m.Description, &m.Priority)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query module: %w", err)
	}
	return &m, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSkill(row rowScanner) (*Skill, error) {
	var sk Skill
	var steps, triggers, contra string
	var active int
	err := row.Scan(&sk.ID, &sk.ModuleID, &sk.Name, &sk.NameEN, &sk.Description,
		&steps, &triggers, &contra, &sk.DifficultyLevel, &active)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan skill: %w", err)
	}
	if err := json.Unmarshal([]byte(steps), &sk.Steps); err != nil {
		return nil, fmt.Errorf("malformed steps for skill %d: %w", sk.ID, err)
	}
	if err := json.Unmarshal([]byte(triggers), &sk.TriggerEmotions); err != nil {
		return nil, fmt.Errorf("malformed trigger emotions for skill %d: %w", sk.ID, err)
	}
	if err := json.Unmarshal([]byte(contra), &sk.Contraindications); err != nil {
		return nil, fmt.Errorf("malformed contraindications for skill %d: %w", sk.ID, err)
	}
	sk.IsActive = active != 0
	return &sk, nil
}

func scanSkills(rows *sql.Rows) ([]Skill, error) {
	var out []Skill
	for rows.Next() {
		sk, err := scanSkill(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sk)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
