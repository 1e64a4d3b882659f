// Package query converts raw query text into a structured ParsedQuery:
// intent classification, verse-reference extraction, boolean operators,
// fuzzy typo correction, and a confidence estimate. Parsing has no side
// effects and never touches the index artifacts.
package query

// Type tags the primary classification of a query.
type Type string

const (
	TypeVerseLookup   Type = "verse-lookup"
	TypeTopicSearch   Type = "topic-search"
	TypeLifeSituation Type = "life-situation"
	TypeTextSearch    Type = "text-search"
	TypeSpeakerSearch Type = "speaker-search"
	TypeQuestion      Type = "question"
	TypeEmotion       Type = "emotion"
	TypeCompound      Type = "compound"
	TypeFuzzy         Type = "fuzzy"
)

// VerseReference is one extracted scripture reference. Verse 0 means the
// whole chapter; EndVerse 0 means a single verse.
type VerseReference struct {
	Book     string `json:"book"`
	Chapter  int    `json:"chapter"`
	Verse    int    `json:"verse,omitempty"`
	EndVerse int    `json:"end_verse,omitempty"`
}

// OperatorKind enumerates the boolean operators a query can carry.
type OperatorKind string

const (
	OpAnd    OperatorKind = "AND"
	OpOr     OperatorKind = "OR"
	OpNot    OperatorKind = "NOT"
	OpNear   OperatorKind = "NEAR"
	OpPhrase OperatorKind = "PHRASE"
)

// Operator is one detected boolean operator with its arguments. Distance is
// only meaningful for NEAR.
type Operator struct {
	Kind     OperatorKind `json:"kind"`
	Args     []string     `json:"args,omitempty"`
	Distance int          `json:"distance,omitempty"`
}

// TypoCorrection records a token the parser believes is misspelled.
type TypoCorrection struct {
	Original   string  `json:"original"`
	Suggestion string  `json:"suggestion"`
	Distance   int     `json:"distance"`
	Confidence float64 `json:"confidence"`
}

// EmotionalState is the coarse emotional reading of a query.
type EmotionalState string

const (
	EmotionNeutral  EmotionalState = "neutral"
	EmotionAnxious  EmotionalState = "anxious"
	EmotionSad      EmotionalState = "sad"
	EmotionFearful  EmotionalState = "fearful"
	EmotionAngry    EmotionalState = "angry"
	EmotionLonely   EmotionalState = "lonely"
	EmotionGrateful EmotionalState = "grateful"
	EmotionHopeful  EmotionalState = "hopeful"
	EmotionSeeking  EmotionalState = "seeking-help"
)

// Intent is the parser's guess at what the user wants back.
type Intent struct {
	Primary        string         `json:"primary"`
	EmotionalState EmotionalState `json:"emotional_state"`
}

// ParsedQuery is the parser's complete output. Immutable once returned.
type ParsedQuery struct {
	Original        string           `json:"original"`
	Normalized      string           `json:"normalized"`
	Type            Type             `json:"type"`
	Confidence      float64          `json:"confidence"`
	References      []VerseReference `json:"references,omitempty"`
	Keywords        []string         `json:"keywords,omitempty"`
	Topics          []string         `json:"topics,omitempty"`
	LifeSituations  []string         `json:"life_situations,omitempty"`
	Phrases         []string         `json:"phrases,omitempty"`
	Operators       []Operator       `json:"operators,omitempty"`
	TypoCorrections []TypoCorrection `json:"typo_corrections,omitempty"`
	Suggestions     []string         `json:"suggestions,omitempty"`
	Speaker         string           `json:"speaker,omitempty"`
	Intent          Intent           `json:"intent"`
}
