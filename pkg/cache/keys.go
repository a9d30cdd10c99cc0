package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer builds cache keys. Implementations must be deterministic.
type Keyer interface {
	// DatasetKey is the key of the raw dataset fetched from source
	// (a URL or a file path).
	DatasetKey(source string) string

	// ArtifactKey is the key of one rendered output of a dataset.
	ArtifactKey(datasetHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render inputs that change an artifact's bytes.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
	Chart  any    `json:"chart"` // chart configuration, hashed as JSON
}

// DefaultKeyer is the standard [Keyer].
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DatasetKey returns "dataset:<source>".
func (DefaultKeyer) DatasetKey(source string) string {
	return "dataset:" + source
}

// ArtifactKey returns "artifact:<hash of dataset hash and options>".
func (DefaultKeyer) ArtifactKey(datasetHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", datasetHash, opts)
}

// ScopedKeyer prefixes every key of an inner keyer, so several charts can
// share one Redis instance.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// DatasetKey implements [Keyer].
func (k *ScopedKeyer) DatasetKey(source string) string {
	return k.prefix + k.inner.DatasetKey(source)
}

// ArtifactKey implements [Keyer].
func (k *ScopedKeyer) ArtifactKey(datasetHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(datasetHash, opts)
}

// Hash returns the hex SHA-256 digest of data. Dataset hashes and file
// cache names use it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey returns "prefix:<digest>" over the JSON encoding of parts.
// Parts that cannot be encoded fall back to their Go syntax.
func hashKey(prefix string, parts ...any) string {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			fmt.Fprintf(h, "%#v\n", p)
		}
	}
	return prefix + ":" + hex.EncodeToString(h.Sum(nil))
}
