// Package store provides the time-capsule storage interface and SQLite
// implementation.
package store

import (
	"context"
	"time"

	"memory-keeper/internal/model"
)

// CreateMemoryParams holds parameters for creating a memory.
type CreateMemoryParams struct {
	Title      string
	Content    string
	MediaPath  string
	UnlockDate time.Time
	UnlockType string // defaults to "date"
	CategoryID string
	Mood       string
	Tags       []string
	Importance int // 0 means default (3)
}

// AddResponseParams holds parameters for recording a response to an
// unlocked memory.
type AddResponseParams struct {
	MemoryID string
	Content  string
	Mood     string
}

// Store defines the record-store interface.
type Store interface {
	// CreateMemory validates and stores a new memory together with its
	// tags as one transaction.
	CreateMemory(ctx context.Context, p CreateMemoryParams) (*model.Memory, error)

	// GetMemory loads a memory and its tag list.
	// Returns model.ErrNotFound if the id does not exist.
	GetMemory(ctx context.Context, id string) (*model.Memory, error)

	// DeleteMemory removes a memory and cascades to its tags and
	// responses atomically. Returns false if the id did not exist.
	DeleteMemory(ctx context.Context, id string) (bool, error)

	// UnlockMemory marks a memory as unlocked. The write is an
	// unconditional assignment: unlocking an already-unlocked memory
	// still returns true. Returns false only when the id is unknown.
	UnlockMemory(ctx context.Context, id string) (bool, error)

	// AddResponse records a reflection on a memory. Returns
	// model.ErrIntegrity if the memory does not exist.
	AddResponse(ctx context.Context, p AddResponseParams) (*model.Response, error)

	// ListResponses returns all responses for a memory, oldest first.
	ListResponses(ctx context.Context, memoryID string) ([]model.Response, error)

	// ListCategories returns all categories.
	ListCategories(ctx context.Context) ([]model.Category, error)

	// CountMemories returns total/locked/unlocked aggregate counts.
	CountMemories(ctx context.Context) (*model.MemoryCounts, error)

	// Close closes the store.
	Close() error
}
