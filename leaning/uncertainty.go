package leaning

import (
	"math"
	"sort"
)

// probFloor implements the 0*ln(0) = 0 convention for the entropy sum.
const probFloor = 1e-12

// Uncertainty bundles the per-item confidence metrics derived from the
// 3-class probability vector. All three are pure functions of that vector.
type Uncertainty struct {
	// Margin is the probability gap between the best and second-best class,
	// in [0, 1]. Zero means maximally ambiguous between two classes.
	Margin float64
	// Entropy is the Shannon entropy of the distribution normalized by
	// ln(3): 1 for uniform, 0 for one-hot.
	Entropy float64
	// Extremeness is max(left, right) - center: positive when mass leans to
	// either pole, negative when the center class dominates.
	Extremeness float64
}

// ComputeUncertainty derives the metrics from one probability vector in
// class order left, center, right.
func ComputeUncertainty(p [NumClasses]float64) Uncertainty {
	tmp := make([]float64, NumClasses)
	copy(tmp, p[:])
	sort.Sort(sort.Reverse(sort.Float64Slice(tmp)))

	var entropy float64
	for _, v := range p {
		pv := v
		if pv < probFloor {
			pv = probFloor
		}
		entropy -= v * math.Log(pv)
	}
	entropy /= math.Log(NumClasses)

	return Uncertainty{
		Margin:      tmp[0] - tmp[1],
		Entropy:     entropy,
		Extremeness: math.Max(p[ClassLeft], p[ClassRight]) - p[ClassCenter],
	}
}
