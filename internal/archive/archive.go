// Package archive implements the export/import boundary: a zip
// container holding a full copy of the store plus an export manifest.
package archive

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"memory-keeper/internal/model"
	"memory-keeper/internal/store"
)

// Archive member names. Both must be present for an archive to be
// valid.
const (
	dbMember       = "memorykeeper.db"
	metadataMember = "metadata.json"
)

// Manifest is the metadata record written alongside the store copy.
type Manifest struct {
	ExportDate  time.Time          `json:"export_date"`
	AppVersion  string             `json:"app_version"`
	MemoryCount model.MemoryCounts `json:"memory_count"`
}

// ImportMode selects how an imported store is reconciled with the
// local one.
type ImportMode string

const (
	// ModeMerge reconciles the imported store into the local one.
	ModeMerge ImportMode = "merge"
	// ModeReplace swaps the local store for the imported one, keeping
	// a backup until the swap is verified.
	ModeReplace ImportMode = "replace"
)

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Mode     ImportMode `json:"mode"`
	Imported int        `json:"imported"`
	Manifest Manifest   `json:"manifest"`
}

// Export writes an archive containing a clean snapshot of the store and
// its manifest to outPath.
func Export(ctx context.Context, st *store.SQLiteStore, outPath string, appVersion string) (*Manifest, error) {
	counts, err := st.CountMemories(ctx)
	if err != nil {
		return nil, fmt.Errorf("count memories: %w", err)
	}

	tmpDir, err := os.MkdirTemp("", "memory-keeper-export")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapPath := filepath.Join(tmpDir, dbMember)
	if err := st.Snapshot(ctx, snapPath); err != nil {
		return nil, err
	}

	manifest := &Manifest{
		ExportDate:  time.Now().UTC().Truncate(time.Second),
		AppVersion:  appVersion,
		MemoryCount: *counts,
	}

	out, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)

	w, err := zw.Create(metadataMember)
	if err != nil {
		return nil, fmt.Errorf("add %s: %w", metadataMember, err)
	}
	b, _ := json.MarshalIndent(manifest, "", "  ")
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("write %s: %w", metadataMember, err)
	}

	w, err = zw.Create(dbMember)
	if err != nil {
		return nil, fmt.Errorf("add %s: %w", dbMember, err)
	}
	snap, err := os.Open(snapPath)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer snap.Close()
	if _, err := io.Copy(w, snap); err != nil {
		return nil, fmt.Errorf("write %s: %w", dbMember, err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return manifest, nil
}

// Import validates the archive at archivePath and reconciles its store
// into the local database at dbPath using the given mode. The archive
// is read-only input; in merge mode the local store is modified in a
// single transaction, and in replace mode the prior store survives as a
// backup until the swap is verified.
func Import(ctx context.Context, archivePath, dbPath string, mode ImportMode, logger zerolog.Logger) (*ImportResult, error) {
	if mode != ModeMerge && mode != ModeReplace {
		return nil, fmt.Errorf("unknown import mode %q", mode)
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer zr.Close()

	dbFile := findMember(&zr.Reader, dbMember)
	metaFile := findMember(&zr.Reader, metadataMember)
	if dbFile == nil {
		return nil, fmt.Errorf("missing %s: %w", dbMember, model.ErrInvalidArchive)
	}
	if metaFile == nil {
		return nil, fmt.Errorf("missing %s: %w", metadataMember, model.ErrInvalidArchive)
	}

	var manifest Manifest
	if err := readJSONMember(metaFile, &manifest); err != nil {
		return nil, fmt.Errorf("parse %s: %w", metadataMember, model.ErrInvalidArchive)
	}

	tmpDir, err := os.MkdirTemp("", "memory-keeper-import")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	importedDB := filepath.Join(tmpDir, dbMember)
	if err := extractMember(dbFile, importedDB); err != nil {
		return nil, err
	}

	result := &ImportResult{Mode: mode, Manifest: manifest}

	switch mode {
	case ModeMerge:
		n, err := mergeInto(ctx, dbPath, importedDB)
		if err != nil {
			return nil, err
		}
		result.Imported = n
		logger.Info().Int("imported", n).Str("archive", archivePath).Msg("merge complete")
	case ModeReplace:
		if err := replaceStore(dbPath, importedDB, logger); err != nil {
			return nil, err
		}
		result.Imported = manifest.MemoryCount.Total
		logger.Info().Str("archive", archivePath).Msg("replace complete")
	}

	return result, nil
}

func mergeInto(ctx context.Context, dbPath, importedDB string) (int, error) {
	local, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return 0, fmt.Errorf("open local store: %w", err)
	}
	defer local.Close()

	src, err := store.OpenReadOnly(importedDB)
	if err != nil {
		return 0, fmt.Errorf("open imported store: %w", err)
	}
	defer src.Close()

	return local.MergeFrom(ctx, src)
}

// replaceStore swaps the live database for the imported one. The prior
// database is copied aside first; if the new store fails to open, the
// backup is restored and the error surfaces. The live store is never
// left absent or corrupt.
func replaceStore(dbPath, importedDB string, logger zerolog.Logger) error {
	backupPath := ""
	if _, err := os.Stat(dbPath); err == nil {
		backupPath = fmt.Sprintf("%s.bak-%d", dbPath, time.Now().Unix())
		if err := copyFile(dbPath, backupPath); err != nil {
			return fmt.Errorf("back up current store: %w", err)
		}
	}

	err := swapIn(dbPath, importedDB)
	if err == nil {
		err = verifyStore(dbPath)
	}
	if err == nil {
		if backupPath != "" {
			os.Remove(backupPath)
		}
		return nil
	}

	if backupPath != "" {
		if restoreErr := swapIn(dbPath, backupPath); restoreErr != nil {
			logger.Error().Err(restoreErr).Str("backup", backupPath).
				Msg("restoring backup failed; backup file preserved")
			return fmt.Errorf("replace failed (%w); backup restore also failed: %v", err, restoreErr)
		}
		logger.Warn().Str("backup", backupPath).Msg("replace failed, previous store restored")
	} else {
		os.Remove(dbPath)
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")
	}
	return fmt.Errorf("replace store: %w", err)
}

// swapIn copies src over dbPath and clears stale WAL sidecar files.
func swapIn(dbPath, src string) error {
	os.Remove(dbPath + "-wal")
	os.Remove(dbPath + "-shm")
	return copyFile(src, dbPath)
}

func verifyStore(dbPath string) error {
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()
	_, err = st.CountMemories(context.Background())
	return err
}

func findMember(r *zip.Reader, name string) *zip.File {
	for _, f := range r.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func readJSONMember(f *zip.File, v interface{}) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return json.NewDecoder(rc).Decode(v)
}

func extractMember(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open archive member %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("extract %s: %w", f.Name, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
