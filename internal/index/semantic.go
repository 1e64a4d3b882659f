package index

import (
	"math"
)

// VectorDim is the fixed width of the handcrafted per-verse feature vector.
// It is not a learned embedding: slots are taxonomy membership flags,
// normalized text statistics, and a genre one-hot.
const VectorDim = 100

// Vector is one verse's feature vector.
type Vector [VectorDim]float32

// SemanticVectors maps verse id to its feature vector.
type SemanticVectors map[string]Vector

// Cosine returns the cosine similarity of two vectors, 0 when either is zero.
func Cosine(a, b Vector) float64 {
	var dot, na, nb float64
	for i := 0; i < VectorDim; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
