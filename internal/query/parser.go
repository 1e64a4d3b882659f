package query

import (
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/taxonomy"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/text"
	"github.com/michaelrgeary/holydrop-bible-app-sub000/pkg/logger"
)

// Parser classifies raw query text. Safe for concurrent use; all state is
// read-only after New except the corrector's memo table.
type Parser struct {
	tax       *taxonomy.Taxonomy
	corrector *corrector
	logger    *slog.Logger
}

// New builds a Parser over the loaded taxonomy.
func New(tax *taxonomy.Taxonomy) *Parser {
	return &Parser{
		tax:       tax,
		corrector: newCorrector(tax),
		logger:    logger.WithComponent("query-parser"),
	}
}

// Parse converts raw input into a ParsedQuery. It never returns an error:
// empty or unintelligible input yields a fuzzy query with near-zero
// confidence, and the engine decides what to do with it.
func (p *Parser) Parse(raw string) *ParsedQuery {
	pq := &ParsedQuery{
		Original:   raw,
		Normalized: text.Normalize(raw),
		Intent:     Intent{EmotionalState: EmotionNeutral},
	}
	if pq.Normalized == "" {
		pq.Type = TypeFuzzy
		pq.Confidence = 0.1
		pq.Intent.Primary = "explore"
		return pq
	}

	pq.Phrases = extractPhrases(pq.Normalized)
	for _, phrase := range pq.Phrases {
		pq.Operators = append(pq.Operators, Operator{
			Kind: OpPhrase,
			Args: []string{phrase},
		})
	}
	pq.Operators = append(pq.Operators, extractOperators(raw)...)

	corrected := p.applyCorrections(pq)
	var consumed []string
	pq.References, consumed = extractReferences(corrected, p.tax)

	pq.Keywords = p.extractKeywords(corrected, consumed)
	p.mapConcepts(pq)
	pq.Speaker = detectSpeaker(corrected)
	pq.Intent.EmotionalState = detectEmotion(corrected)

	p.classify(pq, corrected)
	p.setIntent(pq)
	p.score(pq)
	pq.Suggestions = p.buildSuggestions(pq)

	p.logger.Debug("query parsed",
		"type", pq.Type,
		"confidence", pq.Confidence,
		"references", len(pq.References),
		"keywords", len(pq.Keywords),
		"corrections", len(pq.TypoCorrections),
	)
	return pq
}

// extractPhrases pulls out double-quoted segments.
func extractPhrases(normalized string) []string {
	if !strings.Contains(normalized, `"`) {
		return nil
	}
	parts := strings.Split(normalized, `"`)
	var phrases []string
	// Odd-indexed parts sit between quote pairs.
	for i := 1; i < len(parts); i += 2 {
		phrase := strings.TrimSpace(parts[i])
		if phrase != "" {
			phrases = append(phrases, phrase)
		}
	}
	return phrases
}

// extractOperators detects upper-case boolean operators in the raw input.
// Lower-case "and"/"or"/"not" stay ordinary English.
func extractOperators(raw string) []Operator {
	fields := strings.Fields(raw)
	var ops []Operator
	for i, field := range fields {
		kind, distance, ok := operatorToken(field)
		if !ok {
			continue
		}
		op := Operator{Kind: kind, Distance: distance}
		if i > 0 && kind != OpNot {
			if arg := operandAt(fields, i-1); arg != "" {
				op.Args = append(op.Args, arg)
			}
		}
		if i+1 < len(fields) {
			if arg := operandAt(fields, i+1); arg != "" {
				op.Args = append(op.Args, arg)
			}
		}
		if kind == OpNot && len(op.Args) == 0 {
			continue // NOT with nothing to negate
		}
		ops = append(ops, op)
	}
	return ops
}

func operatorToken(field string) (OperatorKind, int, bool) {
	switch field {
	case "AND":
		return OpAnd, 0, true
	case "OR":
		return OpOr, 0, true
	case "NOT":
		return OpNot, 0, true
	case "NEAR":
		return OpNear, 5, true
	}
	if rest, ok := strings.CutPrefix(field, "NEAR/"); ok {
		if k, err := strconv.Atoi(rest); err == nil && k > 0 {
			return OpNear, k, true
		}
	}
	return "", 0, false
}

func operandAt(fields []string, i int) string {
	if _, _, isOp := operatorToken(fields[i]); isOp {
		return ""
	}
	return text.Normalize(fields[i])
}

// applyCorrections runs typo detection over the query tokens, records every
// accepted correction, and returns the normalized text with the accepted
// corrections substituted in so reference and keyword extraction see the
// intended words.
func (p *Parser) applyCorrections(pq *ParsedQuery) string {
	words := strings.Fields(pq.Normalized)
	changed := false
	for i, word := range words {
		bare := strings.Trim(word, `"',:-`)
		if bare == "" || text.IsStopWord(bare) {
			continue
		}
		if _, err := strconv.Atoi(bare); err == nil {
			continue
		}
		corr, ok := p.corrector.correct(bare)
		if !ok {
			continue
		}
		pq.TypoCorrections = append(pq.TypoCorrections, corr)
		words[i] = strings.Replace(word, bare, corr.Suggestion, 1)
		changed = true
	}
	if !changed {
		return pq.Normalized
	}
	return strings.Join(words, " ")
}

// extractKeywords tokenizes the corrected text, dropping numbers, operator
// residue, and anything that was consumed as part of a verse reference.
func (p *Parser) extractKeywords(corrected string, consumedRefs []string) []string {
	skip := make(map[string]struct{})
	for _, span := range consumedRefs {
		for _, w := range strings.Fields(span) {
			skip[w] = struct{}{}
		}
	}
	seen := make(map[string]struct{})
	var keywords []string
	for _, term := range text.Terms(corrected) {
		if _, isDigit := skipNumeric(term); isDigit {
			continue
		}
		if _, ok := skip[term]; ok {
			continue
		}
		if term == "near" {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		keywords = append(keywords, term)
	}
	return keywords
}

func skipNumeric(term string) (int, bool) {
	n, err := strconv.Atoi(term)
	return n, err == nil
}

// mapConcepts resolves keywords and phrases to taxonomy concept ids, split
// into life situations and topics (theological concepts plus character
// traits).
func (p *Parser) mapConcepts(pq *ParsedQuery) {
	situations := make(map[string]struct{})
	topics := make(map[string]struct{})
	add := func(term string) {
		for _, id := range p.tax.ConceptsForKeyword(term) {
			if _, ok := p.tax.LifeSituation(id); ok {
				situations[id] = struct{}{}
			} else {
				topics[id] = struct{}{}
			}
		}
	}
	for _, kw := range pq.Keywords {
		add(kw)
	}
	for _, phrase := range pq.Phrases {
		add(phrase)
	}
	pq.LifeSituations = sortedKeys(situations)
	pq.Topics = sortedKeys(topics)
}

func sortedKeys(m map[string]struct{}) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var speakerNames = []string{
	"jesus", "christ", "god", "paul", "moses", "david", "solomon",
	"peter", "john", "abraham", "isaiah", "elijah", "mary",
}

var speakerPatterns = []string{
	"what did %s say", "words of %s", "quotes by %s", "quotes from %s",
	"sayings of %s", "%s said", "%s says",
}

// detectSpeaker looks for attribution phrasing around a known speaker name.
func detectSpeaker(corrected string) string {
	for _, name := range speakerNames {
		for _, pattern := range speakerPatterns {
			phrase := strings.Replace(pattern, "%s", name, 1)
			if strings.Contains(corrected, phrase) {
				return name
			}
		}
	}
	return ""
}

var emotionLexicon = map[string]EmotionalState{
	"anxious": EmotionAnxious, "anxiety": EmotionAnxious, "worried": EmotionAnxious,
	"worry": EmotionAnxious, "stressed": EmotionAnxious, "overwhelmed": EmotionAnxious,
	"sad": EmotionSad, "depressed": EmotionSad, "grief": EmotionSad,
	"grieving": EmotionSad, "mourning": EmotionSad, "heartbroken": EmotionSad,
	"afraid": EmotionFearful, "scared": EmotionFearful, "fear": EmotionFearful,
	"fearful": EmotionFearful, "terrified": EmotionFearful,
	"angry": EmotionAngry, "anger": EmotionAngry, "bitter": EmotionAngry,
	"furious": EmotionAngry,
	"lonely": EmotionLonely, "alone": EmotionLonely, "abandoned": EmotionLonely,
	"isolated": EmotionLonely,
	"thankful": EmotionGrateful, "grateful": EmotionGrateful, "blessed": EmotionGrateful,
	"hopeful": EmotionHopeful, "encouraged": EmotionHopeful,
}

func detectEmotion(corrected string) EmotionalState {
	for _, term := range strings.Fields(corrected) {
		if state, ok := emotionLexicon[term]; ok {
			return state
		}
	}
	return EmotionNeutral
}

var firstPersonCues = []string{"i feel", "i am ", "i'm ", "im ", "feeling ", "i felt"}

var helpCues = []string{
	"help me", "help with", "struggling with", "dealing with", "going through",
	"how to overcome", "how do i cope", "i need help", "comfort for",
}

var topicRequestCues = []string{
	"verses about", "verses on", "verses for", "verse about", "verse for",
	"scriptures about", "scriptures on", "scripture about",
	"bible verses about", "what does the bible say about",
}

var questionWords = []string{
	"who ", "what ", "why ", "how ", "where ", "when ", "which ",
	"does ", "is ", "are ", "can ", "will ", "should ", "did ",
}

// classify assigns the primary query type. Order matters: the first matching
// pattern wins, with verse references always taking priority.
func (p *Parser) classify(pq *ParsedQuery, corrected string) {
	switch {
	case len(pq.References) > 0:
		pq.Type = TypeVerseLookup
	case pq.Speaker != "":
		pq.Type = TypeSpeakerSearch
	case hasQuestionShape(corrected) && !containsAny(corrected, topicRequestCues):
		pq.Type = TypeQuestion
	case pq.Intent.EmotionalState != EmotionNeutral && hasFirstPerson(corrected):
		pq.Type = TypeEmotion
	case containsAny(corrected, helpCues):
		pq.Type = TypeLifeSituation
	case containsAny(corrected, topicRequestCues):
		pq.Type = TypeTopicSearch
	case hasBooleanOperator(pq.Operators):
		pq.Type = TypeCompound
	case len(pq.Phrases) > 0:
		pq.Type = TypeTextSearch
	case len(pq.Keywords) == 0:
		pq.Type = TypeFuzzy
	default:
		pq.Type = TypeTextSearch
	}
}

func containsAny(s string, cues []string) bool {
	for _, cue := range cues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}

func hasQuestionShape(s string) bool {
	for _, w := range questionWords {
		if strings.HasPrefix(s, w) {
			return true
		}
	}
	return false
}

func hasFirstPerson(s string) bool {
	for _, cue := range firstPersonCues {
		if strings.Contains(s, cue) {
			return true
		}
	}
	return false
}

func hasBooleanOperator(ops []Operator) bool {
	for _, op := range ops {
		if op.Kind != OpPhrase {
			return true
		}
	}
	return false
}

// setIntent derives the intent from the type, with emotional language
// overriding toward comfort for anything but a direct verse lookup.
func (p *Parser) setIntent(pq *ParsedQuery) {
	switch pq.Type {
	case TypeVerseLookup:
		pq.Intent.Primary = "read"
	case TypeSpeakerSearch:
		pq.Intent.Primary = "attribution"
	case TypeQuestion:
		pq.Intent.Primary = "answer"
	case TypeEmotion:
		pq.Intent.Primary = "comfort"
	case TypeLifeSituation:
		pq.Intent.Primary = "guidance"
	case TypeTopicSearch:
		pq.Intent.Primary = "study"
	case TypeFuzzy:
		pq.Intent.Primary = "explore"
	default:
		pq.Intent.Primary = "find"
	}
	if pq.Intent.EmotionalState != EmotionNeutral && pq.Type != TypeVerseLookup {
		pq.Intent.Primary = "comfort"
	}
}

// baseConfidence is the type-detection confidence before boosts and
// penalties.
var baseConfidence = map[Type]float64{
	TypeVerseLookup:   0.95,
	TypeSpeakerSearch: 0.85,
	TypeTopicSearch:   0.85,
	TypeQuestion:      0.8,
	TypeEmotion:       0.85,
	TypeLifeSituation: 0.85,
	TypeCompound:      0.8,
	TypeTextSearch:    0.5,
	TypeFuzzy:         0.15,
}

// score computes final confidence: base by type, floors for reference and
// life-situation matches, a penalty per typo correction, clamped to
// [0.1, 1.0].
func (p *Parser) score(pq *ParsedQuery) {
	conf := baseConfidence[pq.Type]
	if len(pq.References) > 0 && conf < 0.9 {
		conf = 0.9
	}
	if len(pq.LifeSituations) > 0 && conf < 0.8 {
		conf = 0.8
	}
	conf -= 0.05 * float64(len(pq.TypoCorrections))
	if conf > 1.0 {
		conf = 1.0
	}
	if conf < 0.1 {
		conf = 0.1
	}
	pq.Confidence = conf
}
