package leaning

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeUncertainty(t *testing.T) {
	third := 1.0 / 3.0
	tests := []struct {
		name        string
		probs       [NumClasses]float64
		margin      float64
		entropy     float64
		extremeness float64
	}{
		{
			name:        "one-hot left",
			probs:       [NumClasses]float64{1, 0, 0},
			margin:      1,
			entropy:     0,
			extremeness: 1,
		},
		{
			name:        "uniform distribution",
			probs:       [NumClasses]float64{third, third, third},
			margin:      0,
			entropy:     1,
			extremeness: 0,
		},
		{
			name:        "center dominates",
			probs:       [NumClasses]float64{0.1, 0.8, 0.1},
			margin:      0.7,
			entropy:     0.5817,
			extremeness: -0.7,
		},
		{
			name:        "split between poles",
			probs:       [NumClasses]float64{0.5, 0, 0.5},
			margin:      0,
			entropy:     0.6309,
			extremeness: 0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeUncertainty(tt.probs)
			assert.InDelta(t, tt.margin, got.Margin, 1e-9)
			assert.InDelta(t, tt.entropy, got.Entropy, 1e-3)
			assert.InDelta(t, tt.extremeness, got.Extremeness, 1e-9)
		})
	}
}

func TestComputeUncertaintyBounds(t *testing.T) {
	cases := [][NumClasses]float64{
		{0.7, 0.2, 0.1},
		{0.05, 0.9, 0.05},
		{0.34, 0.33, 0.33},
		{0, 0, 1},
	}
	for _, p := range cases {
		got := ComputeUncertainty(p)
		assert.GreaterOrEqual(t, got.Margin, 0.0)
		assert.LessOrEqual(t, got.Margin, 1.0)
		assert.GreaterOrEqual(t, got.Entropy, 0.0)
		assert.LessOrEqual(t, got.Entropy, 1.0+1e-9)
		assert.False(t, math.IsNaN(got.Extremeness))
	}
}
