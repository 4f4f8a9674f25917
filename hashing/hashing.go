package hashing

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/fnv"

	"github.com/cespare/xxhash/v2"
)

// Position is a location on the ring: a 128-bit unsigned integer in
// big-endian byte order. Positions are compared as integers and are never
// converted to floating point.
type Position [16]byte

// Less reports whether p precedes q on the ring's number line.
func (p Position) Less(q Position) bool {
	return bytes.Compare(p[:], q[:]) < 0
}

// Compare returns -1 if p < q, 0 if p == q, and 1 if p > q.
func (p Position) Compare(q Position) int {
	return bytes.Compare(p[:], q[:])
}

// String returns the position as 32 hex digits.
func (p Position) String() string {
	return hex.EncodeToString(p[:])
}

// Function converts a string key into a ring position. Implementations must
// be stateless, deterministic, and approximately uniform over the position
// space. A Function never fails.
type Function interface {
	// Name returns the identifier the strategy is registered under.
	Name() string
	// Hash maps key to its ring position.
	Hash(key string) Position
}

// Default returns the strategy a ring uses when none is configured.
func Default() Function {
	return FNV128a{}
}

// New returns the strategy registered under name. The empty name selects the
// default.
func New(name string) (Function, error) {
	switch name {
	case "", "fnv128a":
		return FNV128a{}, nil
	case "md5":
		return MD5{}, nil
	case "sha1":
		return SHA1{}, nil
	case "xxh64pair":
		return XXH64Pair{}, nil
	}
	return nil, fmt.Errorf("unknown hash function %q (valid: fnv128a, md5, sha1, xxh64pair)", name)
}

// FNV128a hashes with 128-bit FNV-1a. It is the default strategy.
type FNV128a struct{}

func (FNV128a) Name() string { return "fnv128a" }

func (FNV128a) Hash(key string) Position {
	h := fnv.New128a()
	h.Write([]byte(key))
	var p Position
	copy(p[:], h.Sum(nil))
	return p
}

// MD5 uses the full 128-bit MD5 digest. The digest is used for placement
// only, not for security.
type MD5 struct{}

func (MD5) Name() string { return "md5" }

func (MD5) Hash(key string) Position {
	return Position(md5.Sum([]byte(key)))
}

// SHA1 truncates the 160-bit SHA-1 digest to the ring's 128-bit width.
type SHA1 struct{}

func (SHA1) Name() string { return "sha1" }

func (SHA1) Hash(key string) Position {
	sum := sha1.Sum([]byte(key))
	var p Position
	copy(p[:], sum[:16])
	return p
}

// XXH64Pair builds a 128-bit position from two domain-separated 64-bit
// xxHash digests. It is the fastest of the strategies on long keys.
type XXH64Pair struct{}

func (XXH64Pair) Name() string { return "xxh64pair" }

func (XXH64Pair) Hash(key string) Position {
	var p Position
	binary.BigEndian.PutUint64(p[:8], xxhash.Sum64String(key))
	binary.BigEndian.PutUint64(p[8:], xxhash.Sum64String("\x01"+key))
	return p
}
