package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"memory-keeper/internal/model"
)

// Sort fields accepted by BrowseLocked. Field names cannot be bound
// parameters, so they are whitelisted here.
var browseSortFields = map[string]string{
	"unlock_date":  "m.unlock_date",
	"created_date": "m.created_date",
	"importance":   "m.importance",
}

// BrowseParams holds parameters for the locked-memory browse query.
type BrowseParams struct {
	CategoryID string
	SortField  string // unlock_date (default), created_date, importance
	SortOrder  string // ASC (default) or DESC
	SearchText string // case-insensitive match on title or any tag
	Limit      int
}

// FilterParams holds the sparse filter set for the multi-criteria query.
// Nil pointer fields mean "no constraint".
type FilterParams struct {
	Unlocked      *bool
	UnlockedAfter *time.Time // inclusive lower bound on unlock_date
	CategoryID    string
	HasResponses  *bool
}

// memoryColumns is the aggregate select list shared by the view queries.
// Tags are group-concatenated with a unit separator so one row comes
// back per memory regardless of the tag join.
const memoryColumns = `m.id, m.title, m.content, m.media_path, m.created_date, m.unlock_date,
	m.unlock_type, m.unlock_conditions, m.is_unlocked, m.category, m.mood, m.importance,
	group_concat(t.tag, char(31))`

// BrowseLocked returns locked memories filtered and sorted for display.
func (s *SQLiteStore) BrowseLocked(ctx context.Context, p BrowseParams) ([]model.Memory, error) {
	orderBy, err := browseOrder(p.SortField, p.SortOrder)
	if err != nil {
		return nil, err
	}

	limit := p.Limit
	if limit <= 0 {
		limit = 50
	}

	where := []string{"m.is_unlocked = 0"}
	args := []interface{}{}

	if p.CategoryID != "" {
		where = append(where, "m.category = ?")
		args = append(args, p.CategoryID)
	}
	if p.SearchText != "" {
		pattern := "%" + p.SearchText + "%"
		where = append(where,
			`(m.title LIKE ? OR EXISTS (
				SELECT 1 FROM memory_tags st WHERE st.memory_id = m.id AND st.tag LIKE ?))`)
		args = append(args, pattern, pattern)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM memories m
		LEFT JOIN memory_tags t ON t.memory_id = m.id
		WHERE %s
		GROUP BY m.id
		ORDER BY %s
		LIMIT ?`, memoryColumns, strings.Join(where, " AND "), orderBy)
	args = append(args, limit)

	return s.queryMemories(ctx, query, args...)
}

// Filter returns memories matching all provided criteria, most recently
// unlocked first.
func (s *SQLiteStore) Filter(ctx context.Context, p FilterParams) ([]model.Memory, error) {
	where := []string{"1 = 1"}
	args := []interface{}{}

	if p.Unlocked != nil {
		if *p.Unlocked {
			where = append(where, "m.is_unlocked = 1")
		} else {
			where = append(where, "m.is_unlocked = 0")
		}
	}
	if p.UnlockedAfter != nil {
		where = append(where, "m.unlock_date >= ?")
		args = append(args, fmtTime(*p.UnlockedAfter))
	}
	if p.CategoryID != "" {
		where = append(where, "m.category = ?")
		args = append(args, p.CategoryID)
	}
	if p.HasResponses != nil {
		clause := "EXISTS (SELECT 1 FROM responses r WHERE r.memory_id = m.id)"
		if !*p.HasResponses {
			clause = "NOT " + clause
		}
		where = append(where, clause)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM memories m
		LEFT JOIN memory_tags t ON t.memory_id = m.id
		WHERE %s
		GROUP BY m.id
		ORDER BY m.unlock_date DESC`, memoryColumns, strings.Join(where, " AND "))

	return s.queryMemories(ctx, query, args...)
}

// ListUnlockable returns locked memories whose unlock date has passed.
func (s *SQLiteStore) ListUnlockable(ctx context.Context) ([]model.Memory, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM memories m
		LEFT JOIN memory_tags t ON t.memory_id = m.id
		WHERE m.is_unlocked = 0 AND m.unlock_date <= ?
		GROUP BY m.id
		ORDER BY m.unlock_date`, memoryColumns)

	return s.queryMemories(ctx, query, fmtTime(s.clock.Now()))
}

// Upcoming returns locked memories that will unlock in the future,
// soonest first.
func (s *SQLiteStore) Upcoming(ctx context.Context, limit int) ([]model.Memory, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM memories m
		LEFT JOIN memory_tags t ON t.memory_id = m.id
		WHERE m.is_unlocked = 0 AND m.unlock_date > ?
		GROUP BY m.id
		ORDER BY m.unlock_date
		LIMIT ?`, memoryColumns)

	return s.queryMemories(ctx, query, fmtTime(s.clock.Now()), limit)
}

func (s *SQLiteStore) queryMemories(ctx context.Context, query string, args ...interface{}) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []model.Memory
	for rows.Next() {
		m, err := scanMemoryWithTags(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func scanMemoryWithTags(rows *sql.Rows) (model.Memory, error) {
	var m model.Memory
	var content, mediaPath, conditions, category, mood, tags sql.NullString
	var createdDate, unlockDate string
	var unlocked int

	err := rows.Scan(
		&m.ID, &m.Title, &content, &mediaPath, &createdDate, &unlockDate,
		&m.UnlockType, &conditions, &unlocked, &category, &mood, &m.Importance,
		&tags,
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
	if tags.Valid && tags.String != "" {
		m.Tags = strings.Split(tags.String, "\x1f")
		sort.Strings(m.Tags)
	}
	return m, nil
}

func browseOrder(field, order string) (string, error) {
	if field == "" {
		field = "unlock_date"
	}
	col, ok := browseSortFields[field]
	if !ok {
		return "", &model.ValidationError{Field: "sort_field", Reason: fmt.Sprintf("unknown field %q", field)}
	}

	switch strings.ToUpper(order) {
	case "", "ASC":
		return col + " ASC", nil
	case "DESC":
		return col + " DESC", nil
	default:
		return "", &model.ValidationError{Field: "sort_order", Reason: fmt.Sprintf("unknown order %q", order)}
	}
}
