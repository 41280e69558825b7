package domain

import "math"

// Cosine returns the cosine similarity of two vectors.
// Returns 0 when the lengths differ or either vector has zero magnitude.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, magA, magB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		magA += float64(a[i]) * float64(a[i])
		magB += float64(b[i]) * float64(b[i])
	}
	if magA == 0 || magB == 0 {
		return 0
	}
	return dot / (math.Sqrt(magA) * math.Sqrt(magB))
}

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. A zero vector stays zero.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float64
	for _, val := range v {
		magnitude += float64(val) * float64(val)
	}
	magnitude = math.Sqrt(magnitude)

	result := make([]float32, len(v))
	if magnitude == 0 {
		return result
	}
	for i, val := range v {
		result[i] = float32(float64(val) / magnitude)
	}
	return result
}

// Clamp01 clamps v to the [0,1] interval.
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
