package bundle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"
	"golang.org/x/sync/errgroup"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
	apperrors "github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/errors"
)

// encoded is one artifact ready to hit disk.
type encoded struct {
	name string
	file string
	data []byte
	raw  int64
}

// Write persists the artifact set as a bundle at dir, atomically replacing
// any prior bundle. On any error the prior bundle is left untouched.
func Write(dir string, artifacts *index.Artifacts) (*Manifest, error) {
	if err := artifacts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrBundleWrite, err)
	}
	log := slog.Default().With("component", "bundle-writer")

	parts := []struct {
		name string
		file string
		val  any
	}{
		{"inverted", FileInverted, artifacts.Inverted},
		{"trie", FileTrie, artifacts.Trie},
		{"concepts", FileConcepts, artifacts.Concepts},
		{"semantic", FileSemantic, artifacts.Semantic},
		{"verses", FileVerses, artifacts.Verses},
	}

	var mu sync.Mutex
	results := make(map[string]encoded, len(parts))
	var g errgroup.Group
	for _, part := range parts {
		part := part
		g.Go(func() error {
			enc, err := encodeArtifact(part.name, part.file, part.val)
			if err != nil {
				return err
			}
			mu.Lock()
			results[part.name] = enc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrBundleWrite, err)
	}

	manifest := &Manifest{
		FormatVersion: FormatVersion,
		BundleID:      uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		VerseCount:    artifacts.Verses.Len(),
		TermCount:     len(artifacts.Inverted.Entries),
		Artifacts:     make(map[string]ArtifactRecord, len(results)),
	}
	for name, enc := range results {
		manifest.Artifacts[name] = ArtifactRecord{
			File:      enc.file,
			BLAKE3:    digest(enc.data),
			SizeBytes: int64(len(enc.data)),
			RawBytes:  enc.raw,
		}
	}

	tmpDir := dir + fmt.Sprintf(".tmp-%d", os.Getpid())
	if err := os.MkdirAll(tmpDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating temp bundle dir: %v", apperrors.ErrBundleWrite, err)
	}
	defer os.RemoveAll(tmpDir)

	for _, enc := range results {
		if err := os.WriteFile(filepath.Join(tmpDir, enc.file), enc.data, 0o644); err != nil {
			return nil, fmt.Errorf("%w: writing %s: %v", apperrors.ErrBundleWrite, enc.file, err)
		}
	}
	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: encoding manifest: %v", apperrors.ErrBundleWrite, err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, ManifestName), manifestData, 0o644); err != nil {
		return nil, fmt.Errorf("%w: writing manifest: %v", apperrors.ErrBundleWrite, err)
	}

	if err := replaceDir(tmpDir, dir); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrBundleWrite, err)
	}
	log.Info("bundle written",
		"dir", dir,
		"bundle_id", manifest.BundleID,
		"verses", manifest.VerseCount,
		"terms", manifest.TermCount,
	)
	return manifest, nil
}

func encodeArtifact(name, file string, val any) (encoded, error) {
	raw, err := json.Marshal(val)
	if err != nil {
		return encoded{}, fmt.Errorf("encoding %s: %w", name, err)
	}
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return encoded{}, fmt.Errorf("creating xz writer for %s: %w", name, err)
	}
	if _, err := w.Write(raw); err != nil {
		return encoded{}, fmt.Errorf("compressing %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return encoded{}, fmt.Errorf("finishing %s: %w", name, err)
	}
	return encoded{
		name: name,
		file: file,
		data: buf.Bytes(),
		raw:  int64(len(raw)),
	}, nil
}

// replaceDir swaps the complete tmp directory into place. The prior bundle
// is parked under a .old suffix until the rename succeeds, so a crash leaves
// either the old or the new bundle intact.
func replaceDir(tmpDir, dir string) error {
	oldDir := dir + ".old"
	hadPrior := false
	if _, err := os.Stat(dir); err == nil {
		hadPrior = true
		os.RemoveAll(oldDir)
		if err := os.Rename(dir, oldDir); err != nil {
			return fmt.Errorf("parking prior bundle: %w", err)
		}
	}
	if err := os.Rename(tmpDir, dir); err != nil {
		if hadPrior {
			// Restore the prior bundle rather than leaving nothing.
			if restoreErr := os.Rename(oldDir, dir); restoreErr != nil {
				return fmt.Errorf("activating bundle: %w (restore also failed: %v)", err, restoreErr)
			}
		}
		return fmt.Errorf("activating bundle: %w", err)
	}
	if hadPrior {
		os.RemoveAll(oldDir)
	}
	return nil
}
