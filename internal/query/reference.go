package query

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/taxonomy"
)

// refPattern matches "<book words> <chapter>[:<verse>[-<end>]]" in normalized
// text. The book part may carry a leading ordinal ("1 john") and up to three
// words ("song of solomon"). Chapter and verse are bounded; nothing in the
// canon exceeds three digits.
var refPattern = regexp.MustCompile(
	`(?:^|\s)((?:[1-3]\s+)?[a-z]+(?:\s+[a-z]+){0,2})\s+(\d{1,3})(?:\s*:\s*(\d{1,3})(?:\s*-\s*(\d{1,3}))?)?(?:\s|$|,)`)

// extractReferences finds every verse reference in normalized query text.
// Book names resolve through the taxonomy (canonical names, aliases, unique
// prefixes), so "psalm 23", "psa 23", and "1 jn 3:16" all resolve. The
// consumed spans are returned so the caller can strip them from keyword
// extraction.
func extractReferences(normalized string, tax *taxonomy.Taxonomy) ([]VerseReference, []string) {
	var refs []VerseReference
	var consumed []string
	rest := normalized
	for {
		loc := refPattern.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		match := rest[loc[0]:loc[1]]
		groups := refPattern.FindStringSubmatch(rest[loc[0]:loc[1]])
		ref, span, ok := resolveReference(groups, tax)
		if ok {
			refs = append(refs, ref)
			consumed = append(consumed, span)
		}
		// Resume just past the book+chapter part so adjacent references
		// ("john 3:16, romans 8:28") are still seen.
		advance := loc[0] + len(match)
		if advance <= loc[0] {
			advance = loc[0] + 1
		}
		if advance >= len(rest) {
			break
		}
		rest = rest[advance:]
	}
	return refs, consumed
}

// resolveReference turns regex capture groups into a VerseReference. The book
// part may include leading noise words ("in john 3:16" captures "in john"),
// so resolution retries after dropping words from the front.
func resolveReference(groups []string, tax *taxonomy.Taxonomy) (VerseReference, string, bool) {
	bookPart := strings.TrimSpace(groups[1])
	chapter, err := strconv.Atoi(groups[2])
	if err != nil || chapter < 1 {
		return VerseReference{}, "", false
	}

	words := strings.Fields(bookPart)
	for start := 0; start < len(words); start++ {
		candidate := strings.Join(words[start:], " ")
		book, ok := tax.ResolveBook(candidate)
		if !ok {
			continue
		}
		ref := VerseReference{Book: book.Name, Chapter: chapter}
		if groups[3] != "" {
			if v, err := strconv.Atoi(groups[3]); err == nil && v >= 1 {
				ref.Verse = v
			} else {
				return VerseReference{}, "", false
			}
		}
		if groups[4] != "" {
			if end, err := strconv.Atoi(groups[4]); err == nil && end > ref.Verse {
				ref.EndVerse = end
			}
		}
		return ref, candidate, true
	}
	return VerseReference{}, "", false
}
