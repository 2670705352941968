// Package lifecycle promotes memories from locked to unlocked once
// their unlock date has passed.
package lifecycle

import (
	"context"

	"github.com/rs/zerolog"

	"memory-keeper/internal/model"
)

// Store is the subset of the record store the engine needs.
type Store interface {
	ListUnlockable(ctx context.Context) ([]model.Memory, error)
	UnlockMemory(ctx context.Context, id string) (bool, error)
	Upcoming(ctx context.Context, limit int) ([]model.Memory, error)
}

// Engine drives the locked -> unlocked transition. Unlocked is
// terminal; nothing here ever re-locks a memory.
type Engine struct {
	store  Store
	logger zerolog.Logger
}

func NewEngine(store Store, logger zerolog.Logger) *Engine {
	return &Engine{store: store, logger: logger}
}

// PromoteEligible scans once for locked memories whose unlock date has
// passed and unlocks each. Returns the number of memories actually
// transitioned; a memory deleted between scan and write simply does not
// count.
func (e *Engine) PromoteEligible(ctx context.Context) (int, error) {
	eligible, err := e.store.ListUnlockable(ctx)
	if err != nil {
		return 0, err
	}

	promoted := 0
	for _, m := range eligible {
		ok, err := e.store.UnlockMemory(ctx, m.ID)
		if err != nil {
			return promoted, err
		}
		if ok {
			promoted++
			e.logger.Debug().Str("memory_id", m.ID).Str("title", m.Title).Msg("memory unlocked")
		}
	}

	if promoted > 0 {
		e.logger.Info().Int("promoted", promoted).Msg("promotion scan complete")
	}
	return promoted, nil
}

// Unlock performs an early manual unlock of a single memory regardless
// of its unlock date. Returns false if the memory does not exist.
func (e *Engine) Unlock(ctx context.Context, id string) (bool, error) {
	ok, err := e.store.UnlockMemory(ctx, id)
	if err != nil {
		return false, err
	}
	if ok {
		e.logger.Info().Str("memory_id", id).Msg("memory unlocked manually")
	}
	return ok, nil
}

// Upcoming returns locked memories that will unlock soon, soonest
// first.
func (e *Engine) Upcoming(ctx context.Context, limit int) ([]model.Memory, error) {
	return e.store.Upcoming(ctx, limit)
}
