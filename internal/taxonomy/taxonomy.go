// Package taxonomy loads the curated keyword taxonomy: life situations,
// theological concepts, character traits, per-book metadata, and the known
// typo-correction table. The taxonomy is versioned independently of the
// corpus and is read-only after load.
package taxonomy

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/errors"
)

// Entry is one taxonomy grouping: a concept id, the keywords that indicate
// it, and the verses curated for it.
type Entry struct {
	ID            string   `yaml:"id"`
	Keywords      []string `yaml:"keywords"`
	Verses        []string `yaml:"verses"`
	RelatedTopics []string `yaml:"relatedTopics,omitempty"`
}

// Book is per-book metadata.
type Book struct {
	Name      string   `yaml:"name"`
	Aliases   []string `yaml:"aliases"`
	Testament string   `yaml:"testament"`
	Genre     string   `yaml:"genre"`
	Themes    []string `yaml:"themes"`
}

// Taxonomy is the full curated document.
type Taxonomy struct {
	LifeSituations      []Entry           `yaml:"lifeSituations"`
	TheologicalConcepts []Entry           `yaml:"theologicalConcepts"`
	CharacterTraits     []Entry           `yaml:"characterTraits"`
	Books               []Book            `yaml:"books"`
	TypoCorrections     map[string]string `yaml:"typoCorrections"`
	PopularVerses       []string          `yaml:"popularVerses"`

	bookByName    map[string]*Book
	keywordowners map[string][]string
}

// Load reads and indexes a taxonomy YAML document.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading taxonomy %s: %v", apperrors.ErrTaxonomyInvalid, path, err)
	}
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%w: parsing taxonomy %s: %v", apperrors.ErrTaxonomyInvalid, path, err)
	}
	if len(t.Books) == 0 {
		return nil, fmt.Errorf("%w: taxonomy has no book metadata", apperrors.ErrTaxonomyInvalid)
	}
	t.buildLookups()
	return &t, nil
}

func (t *Taxonomy) buildLookups() {
	t.bookByName = make(map[string]*Book, len(t.Books)*3)
	for i := range t.Books {
		b := &t.Books[i]
		t.bookByName[strings.ToLower(b.Name)] = b
		for _, alias := range b.Aliases {
			t.bookByName[strings.ToLower(alias)] = b
		}
	}

	t.keywordowners = make(map[string][]string)
	for _, group := range [][]Entry{t.LifeSituations, t.TheologicalConcepts, t.CharacterTraits} {
		for _, e := range group {
			for _, kw := range e.Keywords {
				kw = strings.ToLower(kw)
				t.keywordowners[kw] = append(t.keywordowners[kw], e.ID)
			}
		}
	}
	for kw := range t.keywordowners {
		sort.Strings(t.keywordowners[kw])
	}
}

// ResolveBook maps a user-supplied book name or alias to its metadata. A name
// of at least three characters also matches as a unique prefix of a canonical
// book name ("psal" -> Psalms).
func (t *Taxonomy) ResolveBook(name string) (*Book, bool) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, false
	}
	if b, ok := t.bookByName[needle]; ok {
		return b, true
	}
	if len(needle) < 3 {
		return nil, false
	}
	var match *Book
	for i := range t.Books {
		if strings.HasPrefix(strings.ToLower(t.Books[i].Name), needle) {
			if match != nil {
				return nil, false // ambiguous prefix
			}
			match = &t.Books[i]
		}
	}
	return match, match != nil
}

// ConceptsForKeyword returns the taxonomy concept ids that list the given
// keyword, sorted for determinism.
func (t *Taxonomy) ConceptsForKeyword(keyword string) []string {
	return t.keywordowners[strings.ToLower(keyword)]
}

// LifeSituation returns the life-situation entry with the given id.
func (t *Taxonomy) LifeSituation(id string) (*Entry, bool) {
	return findEntry(t.LifeSituations, id)
}

// TheologicalConcept returns the theological-concept entry with the given id.
func (t *Taxonomy) TheologicalConcept(id string) (*Entry, bool) {
	return findEntry(t.TheologicalConcepts, id)
}

// CharacterTrait returns the character-trait entry with the given id.
func (t *Taxonomy) CharacterTrait(id string) (*Entry, bool) {
	return findEntry(t.CharacterTraits, id)
}

func findEntry(entries []Entry, id string) (*Entry, bool) {
	for i := range entries {
		if entries[i].ID == id {
			return &entries[i], true
		}
	}
	return nil, false
}

// Entries returns every taxonomy entry across all three groupings.
func (t *Taxonomy) Entries() []Entry {
	out := make([]Entry, 0, len(t.LifeSituations)+len(t.TheologicalConcepts)+len(t.CharacterTraits))
	out = append(out, t.LifeSituations...)
	out = append(out, t.TheologicalConcepts...)
	out = append(out, t.CharacterTraits...)
	return out
}

// AllTerms returns the deduplicated, sorted vocabulary the trie is seeded
// with: every taxonomy keyword and concept id, every book name and alias, and
// every known typo-correction target.
func (t *Taxonomy) AllTerms() []string {
	seen := make(map[string]struct{})
	add := func(term string) {
		term = strings.ToLower(strings.TrimSpace(term))
		if term != "" {
			seen[term] = struct{}{}
		}
	}
	for _, e := range t.Entries() {
		add(e.ID)
		for _, kw := range e.Keywords {
			add(kw)
		}
	}
	for _, b := range t.Books {
		add(b.Name)
		for _, alias := range b.Aliases {
			add(alias)
		}
	}
	for _, corrected := range t.TypoCorrections {
		add(corrected)
	}
	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// CorrectionTerms returns the candidate vocabulary for edit-distance typo
// matching: book names, life-situation ids, and theological-concept ids.
func (t *Taxonomy) CorrectionTerms() []string {
	seen := make(map[string]struct{})
	for _, b := range t.Books {
		seen[strings.ToLower(b.Name)] = struct{}{}
	}
	for _, e := range t.LifeSituations {
		seen[strings.ToLower(e.ID)] = struct{}{}
	}
	for _, e := range t.TheologicalConcepts {
		seen[strings.ToLower(e.ID)] = struct{}{}
	}
	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}
