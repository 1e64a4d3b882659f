package builder

import (
	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/index"
)

// memoryEstimator tracks a deterministic estimate of the derived structures'
// footprint. It is a function of string lengths and collection sizes, in the
// contract's sense, not a runtime heap measurement: the same corpus always
// yields the same estimates and therefore the same threshold decisions.
type memoryEstimator struct {
	bytes int64
}

// Per-element overheads mirror the rough cost of Go map/slice headers.
const (
	postingOverhead = 64
	verseOverhead   = 96
	vectorBytes     = index.VectorDim * 4
)

func newMemoryEstimator() *memoryEstimator {
	return &memoryEstimator{}
}

func (e *memoryEstimator) addPosting(term, verseID string, positionCount int) {
	e.bytes += int64(len(term) + len(verseID) + positionCount*8 + postingOverhead)
}

func (e *memoryEstimator) addVerse(sv *index.StoredVerse) {
	size := int64(len(sv.ID) + len(sv.Book) + len(sv.Text) + len(sv.NormalizedText))
	for _, kw := range sv.Keywords {
		size += int64(len(kw) + 16)
	}
	e.bytes += size + verseOverhead + vectorBytes
}

func (e *memoryEstimator) compacted(released int64) {
	e.bytes -= released
	if e.bytes < 0 {
		e.bytes = 0
	}
}

func (e *memoryEstimator) estimate() int64 {
	return e.bytes
}
