package index

import (
	"sort"
	"strings"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/taxonomy"
)

// Feature vector layout: slots [0, conceptSlots) are taxonomy membership
// flags, slot lengthSlot is normalized verse length, slot densitySlot is
// keyword density, and slots [genreBase, VectorDim) are a genre one-hot.
const (
	conceptSlots = 80
	lengthSlot   = 80
	densitySlot  = 81
	genreBase    = 82

	// lengthScale is the token count that saturates the length feature.
	lengthScale = 50
)

// FeatureSchema fixes the vector slot assignment for concepts and genres.
// Slots are assigned from sorted id lists, so the schema is a pure function
// of the taxonomy: builder and search service reconstruct the same schema
// independently.
type FeatureSchema struct {
	conceptSlot map[string]int
	genreSlot   map[string]int
}

// NewFeatureSchema derives the slot assignment from a taxonomy.
func NewFeatureSchema(tax *taxonomy.Taxonomy) *FeatureSchema {
	s := &FeatureSchema{
		conceptSlot: make(map[string]int),
		genreSlot:   make(map[string]int),
	}
	ids := make([]string, 0)
	for _, e := range tax.Entries() {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	for i, id := range ids {
		s.conceptSlot[id] = i % conceptSlots
	}

	genres := make(map[string]struct{})
	for _, b := range tax.Books {
		if b.Genre != "" {
			genres[strings.ToLower(b.Genre)] = struct{}{}
		}
	}
	names := make([]string, 0, len(genres))
	for g := range genres {
		names = append(names, g)
	}
	sort.Strings(names)
	for i, g := range names {
		if genreBase+i >= VectorDim {
			break
		}
		s.genreSlot[g] = genreBase + i
	}
	return s
}

// VerseVector builds the handcrafted feature vector for one verse from its
// concept memberships, token statistics, and book genre.
func (s *FeatureSchema) VerseVector(conceptIDs []string, tokenCount, keywordCount int, genre string) Vector {
	vec := s.QueryVector(conceptIDs)

	length := float32(tokenCount) / lengthScale
	if length > 1 {
		length = 1
	}
	vec[lengthSlot] = length

	if tokenCount > 0 {
		vec[densitySlot] = float32(keywordCount) / float32(tokenCount)
	}

	if slot, ok := s.genreSlot[strings.ToLower(genre)]; ok {
		vec[slot] = 1
	}
	return vec
}

// QueryVector builds a vector carrying only concept membership flags, for
// comparing a parsed query against verse vectors.
func (s *FeatureSchema) QueryVector(conceptIDs []string) Vector {
	var vec Vector
	for _, id := range conceptIDs {
		if slot, ok := s.conceptSlot[id]; ok {
			vec[slot] = 1
		}
	}
	return vec
}
