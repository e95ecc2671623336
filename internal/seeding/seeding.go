// Package seeding derives reproducible seeds and child random streams.
//
// Seeds are never persisted as generator state. Instead they are recomputed
// from stable string keys, so a match can be replayed from its
// (seed_base, match_counter) pair alone.
package seeding

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/rand"
	"strings"
)

// Hash32 joins parts with "|" and returns the first 32 bits of their SHA-256.
func Hash32(parts ...string) uint32 {
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return binary.BigEndian.Uint32(sum[:4])
}

// MatchSeed derives the seed for one salt ("selection", "match", ...) of a
// scheduled match.
func MatchSeed(seedBase int64, matchCounter int, salt string) int64 {
	return int64(Hash32(fmt.Sprint(seedBase), fmt.Sprint(matchCounter), salt))
}

// New returns a generator seeded explicitly. Callers never touch the
// process-global math/rand source.
func New(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Child returns a generator derived from a parent seed and a key. The same
// (seed, key) pair always yields the same stream, independent of how many
// other children were derived before it.
func Child(seed int64, key string) *rand.Rand {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(seed))
	h := sha256.New()
	h.Write(buf[:])
	h.Write([]byte{'|'})
	h.Write([]byte(key))
	sum := h.Sum(nil)
	return New(int64(binary.BigEndian.Uint64(sum[:8]) >> 1))
}

// Fork draws exactly one value from parent and derives a keyed child from it.
// Forking N children for one step should go through ForkSet so the parent
// advances once per step rather than once per child.
func Fork(parent *rand.Rand, key string) *rand.Rand {
	return Child(parent.Int63(), key)
}

// ForkSet captures one draw of the parent stream and hands out keyed
// children from it. Child order does not affect any child's stream.
type ForkSet struct {
	seed int64
}

// NewForkSet advances parent once.
func NewForkSet(parent *rand.Rand) ForkSet {
	return ForkSet{seed: parent.Int63()}
}

// For returns the child stream for key.
func (f ForkSet) For(key string) *rand.Rand {
	return Child(f.seed, key)
}
