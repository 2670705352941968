package archive

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"memory-keeper/internal/model"
	"memory-keeper/internal/store"
)

func newStoreAt(t *testing.T, path string) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createMemory(t *testing.T, s *store.SQLiteStore, title string) *model.Memory {
	t.Helper()
	m, err := s.CreateMemory(context.Background(), store.CreateMemoryParams{
		Title:      title,
		UnlockDate: time.Now().Add(24 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create memory: %v", err)
	}
	return m
}

// writeArchive builds a zip with the given members for malformed-input
// tests.
func writeArchive(t *testing.T, path string, members map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, data := range members {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("add member: %v", err)
		}
		w.Write(data)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
}

func TestExportManifest(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := newStoreAt(t, filepath.Join(dir, "source.db"))

	m := createMemory(t, s, "a")
	createMemory(t, s, "b")
	s.UnlockMemory(ctx, m.ID)

	archivePath := filepath.Join(dir, "export.zip")
	manifest, err := Export(ctx, s, archivePath, "1.0.0")
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if manifest.AppVersion != "1.0.0" {
		t.Errorf("expected app version 1.0.0, got %q", manifest.AppVersion)
	}
	want := model.MemoryCounts{Total: 2, Locked: 1, Unlocked: 1}
	if manifest.MemoryCount != want {
		t.Errorf("expected counts %+v, got %+v", want, manifest.MemoryCount)
	}
	if manifest.ExportDate.IsZero() {
		t.Error("expected export date to be set")
	}

	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	if findMember(&zr.Reader, dbMember) == nil {
		t.Errorf("archive missing %s", dbMember)
	}
	if findMember(&zr.Reader, metadataMember) == nil {
		t.Errorf("archive missing %s", metadataMember)
	}
}

func TestExportImportMergeRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := newStoreAt(t, filepath.Join(dir, "source.db"))
	m := createMemory(t, src, "travels")
	src.AddResponse(ctx, store.AddResponseParams{MemoryID: m.ID, Content: "it was great"})

	archivePath := filepath.Join(dir, "export.zip")
	if _, err := Export(ctx, src, archivePath, "1.0.0"); err != nil {
		t.Fatalf("export: %v", err)
	}

	localPath := filepath.Join(dir, "local.db")
	local := newStoreAt(t, localPath)
	createMemory(t, local, "already here")
	local.Close()

	result, err := Import(ctx, archivePath, localPath, ModeMerge, zerolog.Nop())
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("expected 1 imported, got %d", result.Imported)
	}

	reopened := newStoreAt(t, localPath)
	counts, _ := reopened.CountMemories(ctx)
	if counts.Total != 2 {
		t.Errorf("expected 2 memories after merge, got %d", counts.Total)
	}
	got, err := reopened.GetMemory(ctx, m.ID)
	if err != nil {
		t.Fatalf("merged memory missing: %v", err)
	}
	if got.Title != "travels" {
		t.Errorf("unexpected merged memory: %+v", got)
	}
	responses, _ := reopened.ListResponses(ctx, m.ID)
	if len(responses) != 1 {
		t.Errorf("expected response to survive the round trip, got %v", responses)
	}

	// Merging the same archive again is a no-op.
	result, err = Import(ctx, archivePath, localPath, ModeMerge, zerolog.Nop())
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Imported != 0 {
		t.Errorf("expected 0 on second merge, got %d", result.Imported)
	}
}

func TestImportReplace(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	src := newStoreAt(t, filepath.Join(dir, "source.db"))
	kept := createMemory(t, src, "kept")
	createMemory(t, src, "also kept")

	archivePath := filepath.Join(dir, "export.zip")
	if _, err := Export(ctx, src, archivePath, "1.0.0"); err != nil {
		t.Fatalf("export: %v", err)
	}

	localPath := filepath.Join(dir, "local.db")
	local := newStoreAt(t, localPath)
	dropped := createMemory(t, local, "dropped by replace")
	local.Close()

	if _, err := Import(ctx, archivePath, localPath, ModeReplace, zerolog.Nop()); err != nil {
		t.Fatalf("import: %v", err)
	}

	reopened := newStoreAt(t, localPath)
	if _, err := reopened.GetMemory(ctx, kept.ID); err != nil {
		t.Errorf("imported memory missing after replace: %v", err)
	}
	if _, err := reopened.GetMemory(ctx, dropped.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("prior memory should be gone after replace, got %v", err)
	}

	// The backup is cleaned up once the swap is verified.
	matches, _ := filepath.Glob(localPath + ".bak-*")
	if len(matches) != 0 {
		t.Errorf("expected no backup left behind, found %v", matches)
	}
}

func TestReplaceRestoresBackupOnFailure(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	localPath := filepath.Join(dir, "local.db")
	local := newStoreAt(t, localPath)
	keep := createMemory(t, local, "survivor")
	local.Close()

	// Valid manifest, garbage database member.
	archivePath := filepath.Join(dir, "bad.zip")
	writeArchive(t, archivePath, map[string][]byte{
		metadataMember: []byte(`{"export_date":"2026-01-01T00:00:00Z","app_version":"1.0.0","memory_count":{"total":0,"locked":0,"unlocked":0}}`),
		dbMember:       []byte("this is not a sqlite database"),
	})

	if _, err := Import(ctx, archivePath, localPath, ModeReplace, zerolog.Nop()); err == nil {
		t.Fatal("expected replace to fail")
	}

	// The prior store is intact.
	reopened := newStoreAt(t, localPath)
	if _, err := reopened.GetMemory(ctx, keep.ID); err != nil {
		t.Errorf("local store corrupted by failed replace: %v", err)
	}
}

func TestImportRejectsInvalidArchives(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	localPath := filepath.Join(dir, "local.db")

	tests := []struct {
		name    string
		members map[string][]byte
	}{
		{"missing metadata", map[string][]byte{dbMember: []byte("x")}},
		{"missing db", map[string][]byte{metadataMember: []byte(`{}`)}},
		{"unparseable metadata", map[string][]byte{
			dbMember:       []byte("x"),
			metadataMember: []byte("not json"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archivePath := filepath.Join(dir, tt.name+".zip")
			writeArchive(t, archivePath, tt.members)

			_, err := Import(ctx, archivePath, localPath, ModeMerge, zerolog.Nop())
			if !errors.Is(err, model.ErrInvalidArchive) {
				t.Errorf("expected ErrInvalidArchive, got %v", err)
			}
		})
	}

	// An invalid archive must not create or touch the local store.
	if _, err := os.Stat(localPath); !os.IsNotExist(err) {
		t.Error("invalid import should not touch the local store")
	}
}

func TestImportRejectsUnknownMode(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "x.zip")
	writeArchive(t, archivePath, map[string][]byte{dbMember: []byte("x"), metadataMember: []byte(`{}`)})

	_, err := Import(context.Background(), archivePath, filepath.Join(dir, "local.db"), ImportMode("sideload"), zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
