package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ulikunitz/xz"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
	apperrors "github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/errors"
)

// Load reads, verifies, and decodes a bundle. A missing manifest, a version
// mismatch, a digest mismatch, or a missing artifact all fail the load: a
// partially written bundle must never be served.
func Load(dir string) (*index.Artifacts, *Manifest, error) {
	manifestData, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading manifest in %s: %v", apperrors.ErrBundleInvalid, dir, err)
	}
	var manifest Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, nil, fmt.Errorf("%w: parsing manifest: %v", apperrors.ErrBundleInvalid, err)
	}
	if manifest.FormatVersion != FormatVersion {
		return nil, nil, fmt.Errorf("%w: unsupported format version %d (want %d)",
			apperrors.ErrBundleInvalid, manifest.FormatVersion, FormatVersion)
	}

	artifacts := &index.Artifacts{
		Inverted: index.NewInvertedIndex(),
		Trie:     index.NewTrie(),
		Concepts: index.NewConceptIndex(),
		Semantic: make(index.SemanticVectors),
		Verses:   index.NewVerseStore(),
	}
	targets := map[string]any{
		"inverted": artifacts.Inverted,
		"trie":     artifacts.Trie,
		"concepts": &artifacts.Concepts,
		"semantic": &artifacts.Semantic,
		"verses":   artifacts.Verses,
	}
	for name, target := range targets {
		record, ok := manifest.Artifacts[name]
		if !ok {
			return nil, nil, fmt.Errorf("%w: manifest missing artifact %q", apperrors.ErrBundleInvalid, name)
		}
		if err := loadArtifact(dir, name, record, target); err != nil {
			return nil, nil, err
		}
	}

	if err := artifacts.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrBundleInvalid, err)
	}
	slog.Default().With("component", "bundle-reader").Info("bundle loaded",
		"dir", dir,
		"bundle_id", manifest.BundleID,
		"verses", manifest.VerseCount,
		"terms", manifest.TermCount,
	)
	return artifacts, &manifest, nil
}

func loadArtifact(dir, name string, record ArtifactRecord, target any) error {
	data, err := os.ReadFile(filepath.Join(dir, record.File))
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", apperrors.ErrBundleInvalid, record.File, err)
	}
	if int64(len(data)) != record.SizeBytes {
		return fmt.Errorf("%w: %s is %d bytes, manifest says %d",
			apperrors.ErrBundleInvalid, record.File, len(data), record.SizeBytes)
	}
	if sum := digest(data); sum != record.BLAKE3 {
		return fmt.Errorf("%w: %s digest mismatch", apperrors.ErrBundleInvalid, record.File)
	}
	r, err := xz.NewReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: decompressing %s: %v", apperrors.ErrBundleInvalid, record.File, err)
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: decompressing %s: %v", apperrors.ErrBundleInvalid, record.File, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decoding %s: %v", apperrors.ErrBundleInvalid, name, err)
	}
	return nil
}
