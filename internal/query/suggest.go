package query

import (
	"fmt"
	"strings"
)

// maxAdvisorySuggestions caps the advisory suggestion list.
const maxAdvisorySuggestions = 5

// buildSuggestions assembles up to five advisory query suggestions: the
// corrected spelling, related taxonomy topics, a narrowed reference, and a
// quoted-phrase variant. Purely advisory; the engine ignores them.
func (p *Parser) buildSuggestions(pq *ParsedQuery) []string {
	var out []string
	seen := map[string]struct{}{pq.Normalized: {}}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || len(out) >= maxAdvisorySuggestions {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	if len(pq.TypoCorrections) > 0 {
		add(correctedQuery(pq))
	}

	for _, ref := range pq.References {
		if ref.Verse == 0 {
			add(fmt.Sprintf("%s %d:1", strings.ToLower(ref.Book), ref.Chapter))
		}
	}

	for _, id := range append(append([]string{}, pq.LifeSituations...), pq.Topics...) {
		entry, ok := p.tax.LifeSituation(id)
		if !ok {
			entry, ok = p.tax.TheologicalConcept(id)
		}
		if !ok {
			entry, ok = p.tax.CharacterTrait(id)
		}
		if !ok {
			continue
		}
		for _, related := range entry.RelatedTopics {
			add("verses about " + related)
		}
	}

	if pq.Type == TypeTextSearch && len(pq.Phrases) == 0 && len(pq.Keywords) >= 2 {
		add(`"` + strings.Join(pq.Keywords, " ") + `"`)
	}
	if len(pq.Keywords) > 0 && len(pq.LifeSituations) == 0 && len(pq.Topics) == 0 {
		add("verses about " + pq.Keywords[0])
	}
	return out
}

// correctedQuery rewrites the normalized query with every accepted correction
// applied, for display back to the user.
func correctedQuery(pq *ParsedQuery) string {
	words := strings.Fields(pq.Normalized)
	for i, word := range words {
		bare := strings.Trim(word, `"',:-`)
		for _, corr := range pq.TypoCorrections {
			if bare == corr.Original {
				words[i] = strings.Replace(word, bare, corr.Suggestion, 1)
				break
			}
		}
	}
	return strings.Join(words, " ")
}
