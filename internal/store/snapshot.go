package store

import (
	"context"
	"fmt"
	"os"
)

// Snapshot writes a clean, checkpointed copy of the database to
// destPath. VACUUM INTO produces a consistent single-file image even
// while the store is open in WAL mode.
func (s *SQLiteStore) Snapshot(ctx context.Context, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("snapshot destination already exists: %s", destPath)
	}
	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, destPath); err != nil {
		return fmt.Errorf("snapshot db: %w", err)
	}
	return nil
}
