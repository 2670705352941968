package store

import (
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Clock abstracts time retrieval so lifecycle logic is deterministic in
// tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// IDGenerator abstracts unique ID generation so tests are deterministic.
type IDGenerator interface {
	New() string
}

// ULIDGenerator produces lexicographically sortable unique IDs.
type ULIDGenerator struct {
	entropy *rand.Rand
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (g *ULIDGenerator) New() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}
