package store

import (
	"context"

	"memory-keeper/internal/model"
)

// CountMemories returns total, locked, and unlocked memory counts.
func (s *SQLiteStore) CountMemories(ctx context.Context) (*model.MemoryCounts, error) {
	c := &model.MemoryCounts{}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories`).Scan(&c.Total); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE is_unlocked = 0`).Scan(&c.Locked); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE is_unlocked = 1`).Scan(&c.Unlocked); err != nil {
		return nil, err
	}

	return c, nil
}
