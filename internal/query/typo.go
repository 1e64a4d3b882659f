package query

import (
	"sync"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/taxonomy"
)

// maxEditDistance is the largest edit distance a correction may have.
const maxEditDistance = 2

// minCorrectionConfidence is the floor below which a candidate correction is
// discarded. Confidence is 1 - distance/max(len(a), len(b)).
const minCorrectionConfidence = 0.8

// curatedConfidence is assigned to corrections from the taxonomy's typo
// table. Those entries are authoritative, so their confidence does not
// depend on edit distance.
const curatedConfidence = 0.95

// corrector proposes spelling corrections for query tokens. It combines the
// taxonomy's curated typo table with edit-distance matching against the
// correction vocabulary (book names and concept ids). Results are memoized
// per token since the vocabulary never changes after load.
type corrector struct {
	known map[string]string   // curated typo -> corrected form
	vocab map[string]struct{} // terms considered already correct
	terms []string            // sorted candidates for edit-distance matching

	mu   sync.Mutex
	memo map[string]*TypoCorrection // token -> best correction, nil = none
}

func newCorrector(tax *taxonomy.Taxonomy) *corrector {
	terms := tax.CorrectionTerms()
	vocab := make(map[string]struct{}, len(terms))
	for _, term := range tax.AllTerms() {
		vocab[term] = struct{}{}
	}
	known := make(map[string]string, len(tax.TypoCorrections))
	for typo, fixed := range tax.TypoCorrections {
		known[typo] = fixed
	}
	return &corrector{
		known: known,
		vocab: vocab,
		terms: terms,
		memo:  make(map[string]*TypoCorrection),
	}
}

// correct returns the best correction for token, or false when the token is
// already a known term or nothing plausible exists.
func (c *corrector) correct(token string) (TypoCorrection, bool) {
	if len(token) < 3 {
		return TypoCorrection{}, false
	}
	if _, ok := c.vocab[token]; ok {
		return TypoCorrection{}, false
	}

	c.mu.Lock()
	cached, seen := c.memo[token]
	c.mu.Unlock()
	if seen {
		if cached == nil {
			return TypoCorrection{}, false
		}
		return *cached, true
	}

	result := c.compute(token)
	c.mu.Lock()
	c.memo[token] = result
	c.mu.Unlock()
	if result == nil {
		return TypoCorrection{}, false
	}
	return *result, true
}

func (c *corrector) compute(token string) *TypoCorrection {
	if fixed, ok := c.known[token]; ok {
		return &TypoCorrection{
			Original:   token,
			Suggestion: fixed,
			Distance:   levenshtein(token, fixed),
			Confidence: curatedConfidence,
		}
	}

	var best *TypoCorrection
	for _, candidate := range c.terms {
		// A distance-2 match cannot exist across a length gap above 2.
		diff := len(candidate) - len(token)
		if diff > maxEditDistance || diff < -maxEditDistance {
			continue
		}
		d := levenshtein(token, candidate)
		if d == 0 || d > maxEditDistance {
			continue
		}
		conf := pairConfidence(token, candidate, d)
		if conf <= minCorrectionConfidence {
			continue
		}
		if best == nil || conf > best.Confidence ||
			(conf == best.Confidence && candidate < best.Suggestion) {
			best = &TypoCorrection{
				Original:   token,
				Suggestion: candidate,
				Distance:   d,
				Confidence: conf,
			}
		}
	}
	return best
}

func pairConfidence(a, b string, distance int) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	return 1 - float64(distance)/float64(longest)
}

// levenshtein computes edit distance with two rolling rows.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			min := del
			if ins < min {
				min = ins
			}
			if sub < min {
				min = sub
			}
			curr[j] = min
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}
