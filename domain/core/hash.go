package core

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
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

// DatasetFingerprint identifies the exact record set an analysis ran over.
// Identical inputs produce identical fingerprints, so downstream caches can
// key results on it.
type DatasetFingerprint Hash

func (f DatasetFingerprint) String() string { return Hash(f).String() }

// ComputeDatasetFingerprint hashes the sorted (practice, period, extraction)
// keys of a record set
func ComputeDatasetFingerprint(keys []string) DatasetFingerprint {
	sorted := make([]string, len(keys))
	copy(sorted, keys)
	sort.Strings(sorted)

	var data strings.Builder
	for _, key := range sorted {
		data.WriteString(key)
		data.WriteString("\n")
	}
	return DatasetFingerprint(NewHash([]byte(data.String())))
}
