package leaning

import "math"

// sigmaFloor guards the batch z-score against division by ~0 when every raw
// value is (numerically) equal.
const sigmaFloor = 1e-6

// ideologyRaw projects one embedding onto the head-derived axis. The caller
// must have checked that the widths match.
func ideologyRaw(axis []float64, offset float64, embedding []float32) float64 {
	sum := offset
	for i := range axis {
		sum += axis[i] * float64(embedding[i])
	}
	return sum
}

// normalizeIdeology maps raw axis values to (-1, 1) with tanh of half the
// batch z-score. The transform is batch-relative: it preserves rank within
// one request but is not comparable across requests. A batch of one always
// yields 0.
func normalizeIdeology(raw []float64) []float64 {
	scores := make([]float64, len(raw))
	if len(raw) == 0 {
		return scores
	}
	var mean float64
	for _, v := range raw {
		mean += v
	}
	mean /= float64(len(raw))

	var variance float64
	for _, v := range raw {
		d := v - mean
		variance += d * d
	}
	sigma := math.Sqrt(variance / float64(len(raw)))
	if sigma <= sigmaFloor {
		sigma = 1
	}

	for i, v := range raw {
		scores[i] = math.Tanh((v - mean) / sigma / 2)
	}
	return scores
}
