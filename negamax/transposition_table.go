package negamax

import (
	"sync/atomic"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
)

// TruncatedHashBuckets is how many distinct hash values the lossy table
// keeps per depth. Positions whose hashes agree modulo this number share a
// slot, and the later store wins. Time budgets were tuned against this
// collision profile, so widening it changes playing strength.
const TruncatedHashBuckets = 10000

// Stats are a table's counters since it was created.
type Stats struct {
	Created uint64
	Lookups uint64
	Hits    uint64
	// Collisions counts hits on a slot last written by a different
	// position. The lossy table still returns those scores.
	Collisions uint64
}

// Cache memoizes negamax scores by (serialized position, remaining depth).
// A Cache belongs to a single search session and is not safe for
// concurrent use. Each session builds its own, so nothing is carried from
// one search to the next.
type Cache interface {
	Lookup(key string, depth int) (int, bool)
	Store(key string, depth int, score int)
	Stats() Stats
}

type TableEntry struct {
	fullHash uint64
	score    int32
	valid    bool
}

// TranspositionTable is the lossy cache. It is a flat array indexed by
// truncated hash and depth.
type TranspositionTable struct {
	table      []TableEntry
	maxDepth   int
	created    atomic.Uint64
	lookups    atomic.Uint64
	hits       atomic.Uint64
	collisions atomic.Uint64
}

func NewTranspositionTable(maxDepth int) *TranspositionTable {
	t := &TranspositionTable{}
	t.reset(maxDepth)
	return t
}

func (t *TranspositionTable) index(h uint64, depth int) (int, bool) {
	if depth < 0 || depth > t.maxDepth {
		return 0, false
	}
	return int(h%TruncatedHashBuckets)*(t.maxDepth+1) + depth, true
}

func (t *TranspositionTable) Lookup(key string, depth int) (int, bool) {
	t.lookups.Add(1)
	h := xxhash.Sum64String(key)
	idx, ok := t.index(h, depth)
	if !ok || !t.table[idx].valid {
		return 0, false
	}
	t.hits.Add(1)
	if t.table[idx].fullHash != h {
		t.collisions.Add(1)
	}
	return int(t.table[idx].score), true
}

func (t *TranspositionTable) Store(key string, depth int, score int) {
	h := xxhash.Sum64String(key)
	idx, ok := t.index(h, depth)
	if !ok {
		return
	}
	// just overwrite whatever is there.
	t.table[idx] = TableEntry{fullHash: h, score: int32(score), valid: true}
	t.created.Add(1)
}

// reset empties the table and sizes it for depths 0..maxDepth.
func (t *TranspositionTable) reset(maxDepth int) {
	numElems := TruncatedHashBuckets * (maxDepth + 1)
	if t.table != nil && len(t.table) == numElems {
		clear(t.table)
	} else {
		t.table = make([]TableEntry, numElems)
	}
	t.maxDepth = maxDepth
	log.Trace().Int("num-elems", numElems).Msg("transposition-table-size")
	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.collisions.Store(0)
}

func (t *TranspositionTable) Stats() Stats {
	return Stats{
		Created:    t.created.Load(),
		Lookups:    t.lookups.Load(),
		Hits:       t.hits.Load(),
		Collisions: t.collisions.Load(),
	}
}

// a debug tt

type debugKey struct {
	position string
	depth    int
}

// DebugTranspositionTable is keyed by the full serialization, so it never
// confuses two positions. It is used to check that the lossy table does
// not change search results.
type DebugTranspositionTable struct {
	table   map[debugKey]int
	created uint64
	lookups uint64
	hits    uint64
}

func NewDebugTranspositionTable() *DebugTranspositionTable {
	return &DebugTranspositionTable{table: make(map[debugKey]int)}
}

func (t *DebugTranspositionTable) Lookup(key string, depth int) (int, bool) {
	t.lookups++
	score, ok := t.table[debugKey{key, depth}]
	if ok {
		t.hits++
	}
	return score, ok
}

func (t *DebugTranspositionTable) Store(key string, depth int, score int) {
	t.table[debugKey{key, depth}] = score
	t.created++
}

func (t *DebugTranspositionTable) Stats() Stats {
	return Stats{Created: t.created, Lookups: t.lookups, Hits: t.hits}
}
