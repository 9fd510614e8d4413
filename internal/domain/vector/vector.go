// Package vector holds the similarity math shared by retrieval and recommendation.
package vector

import (
	"errors"
	"math"
)

// ErrNoVectors is returned by WeightedMean when nothing qualifies.
var ErrNoVectors = errors.New("no vectors")

// Weighted is a vector with its scalar weight.
type Weighted struct {
	Vector []float32
	Weight float64
}

// Cosine returns cosine similarity in [-1, 1]. Zero vectors and length
// mismatches yield 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// SimilarityFromDistance converts a cosine distance (0..2) to a similarity
// score clamped to [0, 1].
func SimilarityFromDistance(dist float64) float64 {
	return Normalize01(1 - dist)
}

// Normalize01 clamps a similarity into [0, 1].
func Normalize01(s float64) float64 {
	switch {
	case math.IsNaN(s), s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}

// WeightedMean computes out[j] = Σ(v_i[j]·w_i) / Σ(w_i).
// The dimension is taken from the first non-empty vector; vectors of another
// dimension and non-positive weights are skipped.
func WeightedMean(items []Weighted) ([]float32, error) {
	dim := 0
	for _, it := range items {
		if len(it.Vector) > 0 && it.Weight > 0 {
			dim = len(it.Vector)
			break
		}
	}
	if dim == 0 {
		return nil, ErrNoVectors
	}

	sum := make([]float64, dim)
	var total float64
	for _, it := range items {
		if len(it.Vector) != dim || it.Weight <= 0 {
			continue
		}
		for j, x := range it.Vector {
			sum[j] += float64(x) * it.Weight
		}
		total += it.Weight
	}

	out := make([]float32, dim)
	for j := range sum {
		out[j] = float32(sum[j] / total)
	}
	return out, nil
}
