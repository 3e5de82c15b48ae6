package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Equals checks if two hashes are equal
func (h Hash) Equals(other Hash) bool {
	return h == other
}

// Short returns a truncated prefix for logs and cache keys
func (h Hash) Short() string {
	if len(h) <= 16 {
		return string(h)
	}
	return string(h[:16])
}

// Domain-specific hash types
type (
	NetworkHash   Hash
	SubsystemHash Hash
)

func (h NetworkHash) String() string  { return Hash(h).String() }
func (h NetworkHash) Short() string   { return Hash(h).Short() }
func (h SubsystemHash) String() string { return Hash(h).String() }
func (h SubsystemHash) Short() string  { return Hash(h).Short() }

// Hasher accumulates structured values into a single hash. Used to derive
// stable identities for networks and subsystems so they can key caches.
type Hasher struct {
	buf []byte
}

func NewHasher() *Hasher {
	return &Hasher{buf: make([]byte, 0, 256)}
}

func (h *Hasher) WriteInt(v int) *Hasher {
	h.buf = binary.BigEndian.AppendUint64(h.buf, uint64(int64(v)))
	return h
}

func (h *Hasher) WriteInts(vs []int) *Hasher {
	h.WriteInt(len(vs))
	for _, v := range vs {
		h.WriteInt(v)
	}
	return h
}

func (h *Hasher) WriteFloat(v float64) *Hasher {
	h.buf = binary.BigEndian.AppendUint64(h.buf, math.Float64bits(v))
	return h
}

func (h *Hasher) WriteFloats(vs []float64) *Hasher {
	h.WriteInt(len(vs))
	for _, v := range vs {
		h.WriteFloat(v)
	}
	return h
}

func (h *Hasher) WriteString(s string) *Hasher {
	h.WriteInt(len(s))
	h.buf = append(h.buf, s...)
	return h
}

// Sum finalizes the accumulated bytes into a Hash.
func (h *Hasher) Sum() Hash {
	return NewHash(h.buf)
}
