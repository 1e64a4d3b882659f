package benchmark

import (
	"fmt"
	"strings"
	"testing"

	"github.com/michaelrgeary/holydrop-bible-app-sub000/internal/text"
)

var sampleTexts = map[string]string{
	"short": "The Lord is my shepherd; I shall not want.",
	"medium": `Do not be anxious about anything, but in everything by prayer
        and supplication with thanksgiving let your requests be made known to
        God. And the peace of God, which surpasses all understanding, will
        guard your hearts and your minds in Christ Jesus.`,
	"long": strings.Repeat(`In the beginning God created the heavens and the
        earth. The earth was without form and void, and darkness was over the
        face of the deep. And the Spirit of God was hovering over the face of
        the waters. And God said, Let there be light, and there was light. And
        God saw that the light was good. And God separated the light from the
        darkness. `, 20),
}

func BenchmarkTokenize(b *testing.B) {
	for name, sample := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sample)))
			for i := 0; i < b.N; i++ {
				tokens := text.Tokenize(sample)
				_ = tokens
			}
		})
	}
}

func BenchmarkTokenizeParallel(b *testing.B) {
	sample := sampleTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(sample)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			tokens := text.Tokenize(sample)
			_ = tokens
		}
	})
}

func BenchmarkNormalize(b *testing.B) {
	for name, sample := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sample)))
			for i := 0; i < b.N; i++ {
				normalized := text.Normalize(sample)
				_ = normalized
			}
		})
	}
}

func BenchmarkTokenizeVaryingSize(b *testing.B) {
	sizes := []int{10, 100, 500, 1000, 5000}
	baseWords := "blessed are the meek for they shall inherit the earth "
	for _, size := range sizes {
		sample := strings.Repeat(baseWords, size/len(baseWords)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(sample)))
			for i := 0; i < b.N; i++ {
				tokens := text.Tokenize(sample)
				_ = tokens
			}
		})
	}
}
