package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"memory-keeper/internal/model"
	"memory-keeper/internal/store/migrations"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db    *sql.DB
	clock Clock
	idgen IDGenerator
}

// NewSQLiteStore opens or creates a SQLite database at the given path,
// migrates it to the latest schema, and seeds the default categories if
// the store is empty.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:    db,
		clock: RealClock{},
		idgen: NewULIDGenerator(),
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if err := s.seedCategories(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed categories: %w", err)
	}

	return s, nil
}

// OpenReadOnly opens an existing database without migrating or seeding
// it. Used for the source side of a merge, which must never be written.
func OpenReadOnly(dbPath string) (*SQLiteStore, error) {
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("open read-only db: %w", err)
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=ro&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open read-only db: %w", err)
	}

	return &SQLiteStore{
		db:    db,
		clock: RealClock{},
		idgen: NewULIDGenerator(),
	}, nil
}

// defaultCategories mirrors the fixed seed set created on first run.
var defaultCategories = []model.Category{
	{Name: "Milestone", Description: "Important life events and achievements", Icon: "trophy"},
	{Name: "Letter", Description: "Messages to your future self", Icon: "envelope"},
	{Name: "Question", Description: "Questions for your future self to answer", Icon: "question-mark"},
	{Name: "Prediction", Description: "Guesses about your future", Icon: "crystal-ball"},
	{Name: "Gratitude", Description: "Things you're thankful for", Icon: "heart"},
}

func (s *SQLiteStore) seedCategories(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range defaultCategories {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, description, icon) VALUES (?, ?, ?, ?)`,
			s.idgen.New(), c.Name, c.Description, c.Icon)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) CreateMemory(ctx context.Context, p CreateMemoryParams) (*model.Memory, error) {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, &model.ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.UnlockDate.IsZero() {
		return nil, &model.ValidationError{Field: "unlock_date", Reason: "must be set"}
	}

	importance := p.Importance
	if importance == 0 {
		importance = model.DefaultImportance
	}
	if importance < model.MinImportance || importance > model.MaxImportance {
		return nil, &model.ValidationError{Field: "importance",
			Reason: fmt.Sprintf("must be between %d and %d", model.MinImportance, model.MaxImportance)}
	}

	unlockType := p.UnlockType
	if unlockType == "" {
		unlockType = model.UnlockTypeDate
	}
	if !model.ValidUnlockTypes[unlockType] {
		return nil, &model.ValidationError{Field: "unlock_type", Reason: fmt.Sprintf("unknown type %q", unlockType)}
	}
	if p.Mood != "" && !model.ValidMoods[p.Mood] {
		return nil, &model.ValidationError{Field: "mood", Reason: fmt.Sprintf("unknown mood %q", p.Mood)}
	}

	// Non-date unlock types carry a conditions payload. Only the type is
	// recorded today; the lifecycle engine still reads unlock_date.
	var conditions *string
	if unlockType != model.UnlockTypeDate {
		b, _ := json.Marshal(map[string]string{"type": unlockType})
		c := string(b)
		conditions = &c
	}

	tags := dedupeTags(p.Tags)
	now := s.clock.Now().UTC().Truncate(time.Second)
	unlockDate := p.UnlockDate.UTC().Truncate(time.Second)
	id := s.idgen.New()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO memories
		 (id, title, content, media_path, created_date, unlock_date,
		  unlock_type, unlock_conditions, is_unlocked, category, mood, importance)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		id, title, nullable(p.Content), nullable(p.MediaPath),
		fmtTime(now), fmtTime(unlockDate),
		unlockType, conditions, nullable(p.CategoryID), nullable(p.Mood), importance)
	if err != nil {
		return nil, fmt.Errorf("insert memory: %w", err)
	}

	for _, tag := range tags {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO memory_tags (memory_id, tag) VALUES (?, ?)`, id, tag)
		if err != nil {
			return nil, fmt.Errorf("insert tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	mem := &model.Memory{
		ID:          id,
		Title:       title,
		Content:     p.Content,
		MediaPath:   p.MediaPath,
		CreatedDate: now,
		UnlockDate:  unlockDate,
		UnlockType:  unlockType,
		CategoryID:  p.CategoryID,
		Mood:        p.Mood,
		Importance:  importance,
		Tags:        tags,
	}
	if conditions != nil {
		mem.UnlockConditions = *conditions
	}
	return mem, nil
}

func (s *SQLiteStore) GetMemory(ctx context.Context, id string) (*model.Memory, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, content, media_path, created_date, unlock_date,
		        unlock_type, unlock_conditions, is_unlocked, category, mood, importance
		 FROM memories WHERE id = ?`, id)

	m, err := scanMemory(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("memory %s: %w", id, model.ErrNotFound)
		}
		return nil, err
	}

	tags, err := s.memoryTags(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Tags = tags
	return &m, nil
}

func (s *SQLiteStore) memoryTags(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag FROM memory_tags WHERE memory_id = ? ORDER BY tag`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *SQLiteStore) DeleteMemory(ctx context.Context, id string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Children first so the foreign keys never dangle mid-transaction.
	if _, err := tx.ExecContext(ctx, `DELETE FROM responses WHERE memory_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete responses: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM memory_tags WHERE memory_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete tags: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete memory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *SQLiteStore) UnlockMemory(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE memories SET is_unlocked = 1 WHERE id = ?`, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *SQLiteStore) AddResponse(ctx context.Context, p AddResponseParams) (*model.Response, error) {
	if strings.TrimSpace(p.Content) == "" {
		return nil, &model.ValidationError{Field: "response_content", Reason: "must not be empty"}
	}
	if p.Mood != "" && !model.ValidMoods[p.Mood] {
		return nil, &model.ValidationError{Field: "response_mood", Reason: fmt.Sprintf("unknown mood %q", p.Mood)}
	}

	id := s.idgen.New()
	now := s.clock.Now().UTC().Truncate(time.Second)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// Parent existence is checked inside the same transaction as the
	// insert so a response row can never reference a missing memory.
	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM memories WHERE id = ?`, p.MemoryID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("memory %s: %w", p.MemoryID, model.ErrIntegrity)
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO responses (id, memory_id, response_content, response_date, response_mood)
		 VALUES (?, ?, ?, ?, ?)`,
		id, p.MemoryID, p.Content, fmtTime(now), nullable(p.Mood))
	if err != nil {
		return nil, fmt.Errorf("insert response: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &model.Response{
		ID:           id,
		MemoryID:     p.MemoryID,
		Content:      p.Content,
		ResponseDate: now,
		Mood:         p.Mood,
	}, nil
}

func (s *SQLiteStore) ListResponses(ctx context.Context, memoryID string) ([]model.Response, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, memory_id, response_content, response_date, response_mood
		 FROM responses WHERE memory_id = ? ORDER BY response_date`, memoryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []model.Response
	for rows.Next() {
		var r model.Response
		var date string
		var mood sql.NullString
		if err := rows.Scan(&r.ID, &r.MemoryID, &r.Content, &date, &mood); err != nil {
			return nil, err
		}
		r.ResponseDate, _ = time.Parse(time.RFC3339, date)
		if mood.Valid {
			r.Mood = mood.String
		}
		responses = append(responses, r)
	}
	return responses, rows.Err()
}

func (s *SQLiteStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, icon FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		var desc, icon sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &desc, &icon); err != nil {
			return nil, err
		}
		c.Description = desc.String
		c.Icon = icon.String
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (model.Memory, error) {
	var m model.Memory
	var content, mediaPath, conditions, category, mood sql.NullString
	var createdDate, unlockDate string
	var unlocked int

	err := row.Scan(
		&m.ID, &m.Title, &content, &mediaPath, &createdDate, &unlockDate,
		&m.UnlockType, &conditions, &unlocked, &category, &mood, &m.Importance,
	)
	if err != nil {
		return m, err
	}

	m.CreatedDate, _ = time.Parse(time.RFC3339, createdDate)
	m.UnlockDate, _ = time.Parse(time.RFC3339, unlockDate)
	m.IsUnlocked = unlocked != 0
	m.Content = content.String
	m.MediaPath = mediaPath.String
	m.UnlockConditions = conditions.String
	m.CategoryID = category.String
	m.Mood = mood.String
	return m, nil
}

// fmtTime renders a timestamp in the canonical stored representation.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// nullable maps an empty string to NULL.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// dedupeTags trims, drops empties, and removes duplicate tags while
// preserving input order.
func dedupeTags(tags []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
