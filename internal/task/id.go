package task

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"time"
)

const (
	// DefaultIDPrefix is the namespace marker prepended to every generated id.
	DefaultIDPrefix = "mc-"

	minSuffixLength = 6
	maxSuffixLength = 12
	maxSaltRetries  = 64 // per suffix length before growing the suffix
)

// GenerateID creates a task ID using hash-based generation: a namespace
// prefix followed by a short hex suffix derived from the title, creation
// time, and a salt. The salt is the collision-retry counter; callers pass 0
// and the generator increments it until the id is unique. If an entire salt
// window collides at one length, the suffix grows, up to maxSuffixLength.
// Identical inputs yield identical ids, so tests can pin expected values.
func GenerateID(prefix, title string, createdAt time.Time, salt uint64, existsFn func(string) bool) string {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}

	for length := minSuffixLength; length <= maxSuffixLength; length += 2 {
		for retry := 0; retry < maxSaltRetries; retry++ {
			candidate := prefix + hashSuffix(title, createdAt, salt, length)
			if !existsFn(candidate) {
				return candidate
			}
			salt++
		}
	}

	// Full-length suffix with the final salt. With 12 hex chars a collision
	// here means the store itself is corrupt.
	return prefix + hashSuffix(title, createdAt, salt, maxSuffixLength)
}

func hashSuffix(title string, createdAt time.Time, salt uint64, length int) string {
	var saltBuf [8]byte
	binary.BigEndian.PutUint64(saltBuf[:], salt)

	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte(createdAt.Format(time.RFC3339Nano)))
	h.Write(saltBuf[:])
	return hex.EncodeToString(h.Sum(nil))[:length]
}
