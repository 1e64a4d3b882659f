// Package corpus defines the immutable verse model and loads the raw corpus
// from chapter documents. The corpus is read-only input to the index builder;
// nothing in the serving path mutates it.
package corpus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/errors"
)

// Verse is a single verse of the corpus. Immutable once loaded.
type Verse struct {
	Book    string `json:"book"`
	Chapter int    `json:"chapter"`
	Verse   int    `json:"verse"`
	Text    string `json:"text"`
	ID      string `json:"id"`
}

// ChapterDocument is the on-disk shape of one chapter file.
type ChapterDocument struct {
	Book    string         `json:"book"`
	Chapter int            `json:"chapter"`
	Verses  []ChapterVerse `json:"verses"`
}

// ChapterVerse is a single verse entry within a chapter document.
type ChapterVerse struct {
	Verse int    `json:"verse"`
	Text  string `json:"text"`
}

// LoadStats reports what the loader saw.
type LoadStats struct {
	ChapterFiles    int
	SkippedChapters int
	Verses          int
}

// VerseID returns the canonical verse slug: lowercased book with spaces
// collapsed to dashes, then chapter and verse ("1 John" 3:16 -> "1-john-3-16").
func VerseID(book string, chapter, verse int) string {
	slug := strings.ToLower(strings.TrimSpace(book))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug + "-" + strconv.Itoa(chapter) + "-" + strconv.Itoa(verse)
}

// Load reads every chapter document under dir (sorted by file name for
// determinism) and returns the full verse list. A malformed chapter file is
// skipped with a warning; more than maxSkipped skips, an unreadable directory,
// or a corpus with zero usable verses is fatal.
func Load(dir string, maxSkipped int) ([]Verse, *LoadStats, error) {
	log := slog.Default().With("component", "corpus")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: reading corpus directory %s: %v", apperrors.ErrCorpusNotFound, dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	stats := &LoadStats{}
	verses := make([]Verse, 0, len(names)*24)
	for _, name := range names {
		path := filepath.Join(dir, name)
		doc, err := readChapter(path)
		if err != nil {
			stats.SkippedChapters++
			log.Warn("skipping malformed chapter document", "file", name, "error", err)
			if maxSkipped >= 0 && stats.SkippedChapters > maxSkipped {
				return nil, nil, fmt.Errorf("%w: %d chapter documents skipped (limit %d)",
					apperrors.ErrTooManySkipped, stats.SkippedChapters, maxSkipped)
			}
			continue
		}
		stats.ChapterFiles++
		for _, cv := range doc.Verses {
			if cv.Verse <= 0 || strings.TrimSpace(cv.Text) == "" {
				log.Warn("skipping malformed verse", "file", name, "verse", cv.Verse)
				continue
			}
			verses = append(verses, Verse{
				Book:    doc.Book,
				Chapter: doc.Chapter,
				Verse:   cv.Verse,
				Text:    cv.Text,
				ID:      VerseID(doc.Book, doc.Chapter, cv.Verse),
			})
		}
	}
	stats.Verses = len(verses)

	if len(verses) == 0 {
		return nil, nil, fmt.Errorf("%w: no usable verses under %s", apperrors.ErrCorpusMalformed, dir)
	}
	log.Info("corpus loaded",
		"chapters", stats.ChapterFiles,
		"skipped", stats.SkippedChapters,
		"verses", stats.Verses,
	)
	return verses, stats, nil
}

func readChapter(path string) (*ChapterDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading chapter file: %w", err)
	}
	var doc ChapterDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing chapter file: %w", err)
	}
	if doc.Book == "" || doc.Chapter <= 0 {
		return nil, fmt.Errorf("chapter document missing book or chapter number")
	}
	if len(doc.Verses) == 0 {
		return nil, fmt.Errorf("chapter document has no verses")
	}
	return &doc, nil
}
