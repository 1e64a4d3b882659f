// Package bundle persists the index artifacts as a versioned on-disk bundle:
// a manifest plus one compressed JSON file per artifact. Bundles are written
// to a temporary directory and renamed into place, so a reader either sees a
// complete prior bundle or a complete new one, never a partial write. Every
// artifact file carries a BLAKE3 digest in the manifest and loading verifies
// all of them before decoding.
package bundle

import (
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"
)

// FormatVersion identifies the bundle layout. Readers reject other versions.
const FormatVersion = 1

// ManifestName is the manifest file name inside a bundle directory.
const ManifestName = "manifest.json"

// Artifact file names inside a bundle directory.
const (
	FileInverted = "inverted.json.xz"
	FileTrie     = "trie.json.xz"
	FileConcepts = "concepts.json.xz"
	FileSemantic = "semantic.json.xz"
	FileVerses   = "verses.json.xz"
)

// ArtifactRecord describes one artifact file in the manifest.
type ArtifactRecord struct {
	File      string `json:"file"`
	BLAKE3    string `json:"blake3"`
	SizeBytes int64  `json:"size_bytes"`
	RawBytes  int64  `json:"raw_bytes"`
}

// Manifest is the bundle's table of contents.
type Manifest struct {
	FormatVersion int                       `json:"format_version"`
	BundleID      string                    `json:"bundle_id"`
	CreatedAt     time.Time                 `json:"created_at"`
	VerseCount    int                       `json:"verse_count"`
	TermCount     int                       `json:"term_count"`
	Artifacts     map[string]ArtifactRecord `json:"artifacts"`
}

// digest returns the hex BLAKE3 sum of data.
func digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
