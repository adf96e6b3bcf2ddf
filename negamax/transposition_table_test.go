package negamax

import (
	"testing"

	"github.com/matryer/is"
)

// These two positions hash to the same truncated bucket.
const (
	collidingA = "3RG3/b26/7/7/7/7/3BG3 r"
	collidingB = "3RG3/2b54/7/7/7/7/3BG3 r"
)

func TestTTableStoreLookup(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(4)
	is.Equal(len(tt.table), TruncatedHashBuckets*5)

	_, ok := tt.Lookup(collidingA, 2)
	is.True(!ok)
	tt.Store(collidingA, 2, 150)
	v, ok := tt.Lookup(collidingA, 2)
	is.True(ok)
	is.Equal(v, 150)

	// Depth is part of the key.
	_, ok = tt.Lookup(collidingA, 3)
	is.True(!ok)

	// Depths outside the table are never stored.
	tt.Store(collidingA, 9, 1)
	_, ok = tt.Lookup(collidingA, 9)
	is.True(!ok)

	is.Equal(tt.Stats(), Stats{Created: 1, Lookups: 4, Hits: 1})
}

func TestTTableCollisionsAreLossy(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(4)
	tt.Store(collidingA, 1, 42)

	// The other position gets A's score back.
	v, ok := tt.Lookup(collidingB, 1)
	is.True(ok)
	is.Equal(v, 42)
	is.Equal(tt.Stats().Collisions, uint64(1))

	// And overwrites it on store.
	tt.Store(collidingB, 1, -7)
	v, ok = tt.Lookup(collidingA, 1)
	is.True(ok)
	is.Equal(v, -7)
	is.Equal(tt.Stats().Collisions, uint64(2))
}

func TestDebugTableKeepsPositionsApart(t *testing.T) {
	is := is.New(t)
	tt := NewDebugTranspositionTable()
	tt.Store(collidingA, 1, 42)
	_, ok := tt.Lookup(collidingB, 1)
	is.True(!ok)
	v, ok := tt.Lookup(collidingA, 1)
	is.True(ok)
	is.Equal(v, 42)
	is.Equal(tt.Stats(), Stats{Created: 1, Lookups: 2, Hits: 1})
}

func TestTTableResetResizes(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(2)
	tt.Store(collidingA, 1, 5)
	tt.reset(4)
	is.Equal(len(tt.table), TruncatedHashBuckets*5)
	_, ok := tt.Lookup(collidingA, 1)
	is.True(!ok)
	is.Equal(tt.Stats(), Stats{Lookups: 1})
}
