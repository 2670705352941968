package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func categoryID(t *testing.T, s *SQLiteStore, name string) string {
	t.Helper()
	categories, err := s.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	for _, c := range categories {
		if c.Name == name {
			return c.ID
		}
	}
	t.Fatalf("category %s not found", name)
	return ""
}

func TestMergeImportsNewMemories(t *testing.T) {
	ctx := context.Background()
	local := newTestStore(t)
	src := newTestStore(t)

	m1 := mustCreate(t, src, CreateMemoryParams{
		Title: "from backup", Content: "hello", Tags: []string{"x", "y"},
	})
	src.UnlockMemory(ctx, m1.ID)
	src.AddResponse(ctx, AddResponseParams{MemoryID: m1.ID, Content: "a reflection"})
	m2 := mustCreate(t, src, CreateMemoryParams{Title: "second"})

	imported, err := local.MergeFrom(ctx, src)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if imported != 2 {
		t.Fatalf("expected 2 imported, got %d", imported)
	}

	// Ids and fields carry over verbatim.
	got, err := local.GetMemory(ctx, m1.ID)
	if err != nil {
		t.Fatalf("get merged memory: %v", err)
	}
	srcCopy, _ := src.GetMemory(ctx, m1.ID)
	if got.Title != srcCopy.Title || got.Content != srcCopy.Content ||
		!got.CreatedDate.Equal(srcCopy.CreatedDate) || !got.UnlockDate.Equal(srcCopy.UnlockDate) ||
		got.IsUnlocked != srcCopy.IsUnlocked {
		t.Errorf("merged memory differs from source:\n got %+v\nwant %+v", got, srcCopy)
	}
	if len(got.Tags) != 2 {
		t.Errorf("expected tags copied, got %v", got.Tags)
	}

	responses, _ := local.ListResponses(ctx, m1.ID)
	if len(responses) != 1 || responses[0].Content != "a reflection" {
		t.Errorf("expected response copied, got %v", responses)
	}

	if _, err := local.GetMemory(ctx, m2.ID); err != nil {
		t.Errorf("second memory not merged: %v", err)
	}
}

func TestMergeIdempotence(t *testing.T) {
	ctx := context.Background()
	local := newTestStore(t)
	src := newTestStore(t)

	mustCreate(t, src, CreateMemoryParams{Title: "a", Tags: []string{"t"}})
	mustCreate(t, src, CreateMemoryParams{Title: "b"})

	first, err := local.MergeFrom(ctx, src)
	if err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if first != 2 {
		t.Fatalf("expected 2 on first merge, got %d", first)
	}

	second, err := local.MergeFrom(ctx, src)
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if second != 0 {
		t.Errorf("expected 0 on second merge, got %d", second)
	}

	counts, _ := local.CountMemories(ctx)
	if counts.Total != 2 {
		t.Errorf("expected 2 memories after double merge, got %d", counts.Total)
	}
}

func TestMergeSkipsExistingIdWithoutOverwrite(t *testing.T) {
	ctx := context.Background()
	local := newTestStore(t)
	src := newTestStore(t)

	m := mustCreate(t, src, CreateMemoryParams{Title: "original"})
	if _, err := local.MergeFrom(ctx, src); err != nil {
		t.Fatalf("merge: %v", err)
	}

	// Diverge the source copy; a re-merge must not propagate it.
	if _, err := src.db.Exec(`UPDATE memories SET title = 'rewritten' WHERE id = ?`, m.ID); err != nil {
		t.Fatalf("update source: %v", err)
	}

	imported, err := local.MergeFrom(ctx, src)
	if err != nil {
		t.Fatalf("re-merge: %v", err)
	}
	if imported != 0 {
		t.Errorf("expected 0 imported, got %d", imported)
	}

	got, _ := local.GetMemory(ctx, m.ID)
	if got.Title != "original" {
		t.Errorf("existing memory was overwritten: %q", got.Title)
	}
}

func TestMergeRemapsCategoriesByName(t *testing.T) {
	ctx := context.Background()
	local := newTestStore(t)
	src := newTestStore(t)

	// Both stores seeded "Letter" under different ids.
	srcLetter := categoryID(t, src, "Letter")
	localLetter := categoryID(t, local, "Letter")
	if srcLetter == localLetter {
		t.Fatal("fixture expects distinct seed ids")
	}

	m := mustCreate(t, src, CreateMemoryParams{Title: "categorized", CategoryID: srcLetter})

	if _, err := local.MergeFrom(ctx, src); err != nil {
		t.Fatalf("merge: %v", err)
	}

	got, _ := local.GetMemory(ctx, m.ID)
	if got.CategoryID != localLetter {
		t.Errorf("expected category remapped to %s, got %s", localLetter, got.CategoryID)
	}

	// No duplicate "Letter" category was created.
	categories, _ := local.ListCategories(ctx)
	letters := 0
	for _, c := range categories {
		if c.Name == "Letter" {
			letters++
		}
	}
	if letters != 1 {
		t.Errorf("expected a single Letter category, found %d", letters)
	}
}

func TestMergeImportsUnseenCategoryVerbatim(t *testing.T) {
	ctx := context.Background()
	local := newTestStore(t)
	src := newTestStore(t)

	const customID = "custom-cat-id"
	if _, err := src.db.Exec(
		`INSERT INTO categories (id, name, description, icon) VALUES (?, 'Travel', 'Places visited', 'globe')`,
		customID); err != nil {
		t.Fatalf("insert source category: %v", err)
	}
	m := mustCreate(t, src, CreateMemoryParams{Title: "trip", CategoryID: customID})

	if _, err := local.MergeFrom(ctx, src); err != nil {
		t.Fatalf("merge: %v", err)
	}

	got, _ := local.GetMemory(ctx, m.ID)
	if got.CategoryID != customID {
		t.Errorf("unseen category id should carry over verbatim, got %s", got.CategoryID)
	}

	found := false
	categories, _ := local.ListCategories(ctx)
	for _, c := range categories {
		if c.ID == customID && c.Name == "Travel" {
			found = true
		}
	}
	if !found {
		t.Error("unseen category was not imported")
	}
}

func TestMergeRollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	local := newTestStore(t)
	src := newTestStore(t)

	keep := mustCreate(t, local, CreateMemoryParams{Title: "pre-existing"})
	mustCreate(t, src, CreateMemoryParams{Title: "would import"})

	// A source category whose id collides with a local one under a
	// different name fails the category insert partway through.
	localLetter := categoryID(t, local, "Letter")
	if _, err := src.db.Exec(
		`INSERT INTO categories (id, name, description, icon) VALUES (?, 'Collision', '', '')`,
		localLetter); err != nil {
		t.Fatalf("insert colliding category: %v", err)
	}

	if _, err := local.MergeFrom(ctx, src); err == nil {
		t.Fatal("expected merge to fail")
	}

	// Local store is exactly as it was before the merge began.
	counts, _ := local.CountMemories(ctx)
	if counts.Total != 1 {
		t.Errorf("expected local store unchanged, total = %d", counts.Total)
	}
	if _, err := local.GetMemory(ctx, keep.ID); err != nil {
		t.Errorf("pre-existing memory lost: %v", err)
	}
	categories, _ := local.ListCategories(ctx)
	if len(categories) != 5 {
		t.Errorf("expected seed categories only, got %d", len(categories))
	}
}

func TestMergeFromReadOnlySource(t *testing.T) {
	ctx := context.Background()
	local := newTestStore(t)

	dir := t.TempDir()
	srcPath := filepath.Join(dir, "backup.db")
	src, err := NewSQLiteStore(srcPath)
	if err != nil {
		t.Fatalf("create source: %v", err)
	}
	mustCreate(t, src, CreateMemoryParams{Title: "backed up", UnlockDate: time.Now().Add(time.Hour)})
	src.Close()

	ro, err := OpenReadOnly(srcPath)
	if err != nil {
		t.Fatalf("open read-only: %v", err)
	}
	defer ro.Close()

	imported, err := local.MergeFrom(ctx, ro)
	if err != nil {
		t.Fatalf("merge from read-only source: %v", err)
	}
	if imported != 1 {
		t.Errorf("expected 1 imported, got %d", imported)
	}
}
