package simulation

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Seed folding and generator constants. The fold is the 32-bit FNV-1a
// offset/prime pair; the generator increment is the mulberry32 constant.
const (
	seedOffsetBasis = 2166136261
	seedPrime       = 16777619
	stateIncrement  = 0x6D2B79F5
)

// RNG is a deterministic 32-bit generator: one word of state, no allocation
// per draw, and the same seed always replays the same infinite sequence.
// It is not safe for concurrent use; every run owns exactly one instance.
type RNG struct {
	state uint32
}

// NewRNG returns a generator positioned at the start of the seed's sequence
func NewRNG(seed uint32) *RNG {
	return &RNG{state: seed}
}

// SeedFromString folds a caller-supplied string into an integer seed.
// Each byte is XORed in and the accumulator multiplied by a fixed odd
// constant, so the same string always lands on the same seed.
func SeedFromString(s string) uint32 {
	h := uint32(seedOffsetBasis)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= seedPrime
	}
	return h
}

// RandomSeed draws a fresh 32-bit seed from the OS entropy source, falling
// back to the clock if that fails.
func RandomSeed() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint32(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint32(b[:])
}

// ResolveSeed maps the optional seed string to the integer seed a run will
// use: the deterministic fold when the string is non-empty, a random seed
// otherwise.
func ResolveSeed(seed string) uint32 {
	if seed == "" {
		return RandomSeed()
	}
	return SeedFromString(seed)
}

// Uint32 advances the state by the fixed increment and applies two rounds
// of shift-xor-multiply mixing
func (r *RNG) Uint32() uint32 {
	r.state += stateIncrement
	t := r.state
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)
	return t ^ t>>14
}

// Float64 normalizes the next draw into [0, 1)
func (r *RNG) Float64() float64 {
	return float64(r.Uint32()) / 4294967296.0
}
