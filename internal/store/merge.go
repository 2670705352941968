package store

import (
	"context"
	"database/sql"
	"fmt"
)

// rawMemory carries a memory row verbatim, without the parse/format
// round-trip of model.Memory. Merged rows must land byte-identical.
type rawMemory struct {
	ID               string
	Title            string
	Content          sql.NullString
	MediaPath        sql.NullString
	CreatedDate      string
	UnlockDate       string
	UnlockType       string
	UnlockConditions sql.NullString
	IsUnlocked       int
	Category         sql.NullString
	Mood             sql.NullString
	Importance       int
}

// MergeFrom reconciles the contents of src into this store.
//
// Categories are matched by name; unseen categories are inserted under
// their original id. Memories are deduplicated by id: an id already
// present locally means "same memory, already have it" and is skipped.
// Tags and responses are copied verbatim for inserted memories only.
// The whole merge is one transaction on the local store; src is never
// written. Returns the number of memories inserted.
func (s *SQLiteStore) MergeFrom(ctx context.Context, src *SQLiteStore) (int, error) {
	srcCategories, err := src.ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source categories: %w", err)
	}
	srcMemories, err := src.rawMemories(ctx)
	if err != nil {
		return 0, fmt.Errorf("read source memories: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	// Step 1: build old category id -> local category id.
	localByName := map[string]string{}
	rows, err := tx.QueryContext(ctx, `SELECT id, name FROM categories`)
	if err != nil {
		return 0, err
	}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return 0, err
		}
		localByName[name] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	categoryMap := map[string]string{}
	for _, c := range srcCategories {
		if localID, ok := localByName[c.Name]; ok {
			categoryMap[c.ID] = localID
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, description, icon) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, nullable(c.Description), nullable(c.Icon))
		if err != nil {
			return 0, fmt.Errorf("import category %q: %w", c.Name, err)
		}
		categoryMap[c.ID] = c.ID
	}

	// Step 2: insert memories whose id is not already present.
	existing := map[string]bool{}
	rows, err = tx.QueryContext(ctx, `SELECT id FROM memories`)
	if err != nil {
		return 0, err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	var inserted []string
	for _, m := range srcMemories {
		if existing[m.ID] {
			continue
		}
		category := m.Category
		if category.Valid {
			if mapped, ok := categoryMap[category.String]; ok {
				category.String = mapped
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO memories
			 (id, title, content, media_path, created_date, unlock_date,
			  unlock_type, unlock_conditions, is_unlocked, category, mood, importance)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Title, m.Content, m.MediaPath, m.CreatedDate, m.UnlockDate,
			m.UnlockType, m.UnlockConditions, m.IsUnlocked, category, m.Mood, m.Importance)
		if err != nil {
			return 0, fmt.Errorf("import memory %s: %w", m.ID, err)
		}
		inserted = append(inserted, m.ID)
	}

	// Step 3: copy tags and responses for the inserted memories.
	for _, id := range inserted {
		if err := s.copyTags(ctx, tx, src, id); err != nil {
			return 0, err
		}
		if err := s.copyResponses(ctx, tx, src, id); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(inserted), nil
}

func (s *SQLiteStore) rawMemories(ctx context.Context) ([]rawMemory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, content, media_path, created_date, unlock_date,
		        unlock_type, unlock_conditions, is_unlocked, category, mood, importance
		 FROM memories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []rawMemory
	for rows.Next() {
		var m rawMemory
		err := rows.Scan(&m.ID, &m.Title, &m.Content, &m.MediaPath,
			&m.CreatedDate, &m.UnlockDate, &m.UnlockType, &m.UnlockConditions,
			&m.IsUnlocked, &m.Category, &m.Mood, &m.Importance)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func (s *SQLiteStore) copyTags(ctx context.Context, tx *sql.Tx, src *SQLiteStore, memoryID string) error {
	tags, err := src.memoryTags(ctx, memoryID)
	if err != nil {
		return fmt.Errorf("read source tags for %s: %w", memoryID, err)
	}
	for _, tag := range tags {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO memory_tags (memory_id, tag) VALUES (?, ?)`, memoryID, tag)
		if err != nil {
			return fmt.Errorf("import tag for %s: %w", memoryID, err)
		}
	}
	return nil
}

func (s *SQLiteStore) copyResponses(ctx context.Context, tx *sql.Tx, src *SQLiteStore, memoryID string) error {
	rows, err := src.db.QueryContext(ctx,
		`SELECT id, memory_id, response_content, response_date, response_mood
		 FROM responses WHERE memory_id = ?`, memoryID)
	if err != nil {
		return fmt.Errorf("read source responses for %s: %w", memoryID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, memID, content, date string
		var mood sql.NullString
		if err := rows.Scan(&id, &memID, &content, &date, &mood); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO responses (id, memory_id, response_content, response_date, response_mood)
			 VALUES (?, ?, ?, ?, ?)`, id, memID, content, date, mood)
		if err != nil {
			return fmt.Errorf("import response for %s: %w", memoryID, err)
		}
	}
	return rows.Err()
}
