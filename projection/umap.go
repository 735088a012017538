package projection

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

const (
	umapSeed            = 42
	umapMinDist         = 0.1
	umapEpochs          = 200
	umapNegativeSamples = 5
	umapInitialAlpha    = 1.0

	// Curve parameters fitted for min_dist = 0.1, matching the reference
	// implementation's find_ab_params output.
	umapCurveA = 1.5769434
	umapCurveB = 0.8950608
)

// UMAPParams echoes the effective neighbourhood parameters in the response.
type UMAPParams struct {
	NNeighbors int     `json:"n_neighbors"`
	MinDist    float64 `json:"min_dist"`
}

// UMAPResult carries the layout and the parameters used to build it.
type UMAPResult struct {
	Coords [][]float64 `json:"coords"`
	Params UMAPParams  `json:"params"`
}

// ProjectedCoords implements Payload.
func (r *UMAPResult) ProjectedCoords() [][]float64 { return r.Coords }

// UMAP builds a fuzzy k-nearest-neighbour graph over the batch and lays it
// out in 2D by stochastic gradient descent. Batches here are small, so the
// neighbour search is exact. The neighbour count is clamped to
// min(15, n-1) with a floor of 2, and a fixed seed keeps runs over
// identical input identical.
type UMAP struct{}

func (UMAP) Name() string    { return "umap" }
func (UMAP) MinSamples() int { return 3 }

func (UMAP) Reduce(x *mat.Dense) (Payload, error) {
	n, _ := x.Dims()
	k := n - 1
	if k > 15 {
		k = 15
	}
	if k < 2 {
		k = 2
	}

	dist := pairwiseDistances(x)
	weights := fuzzyGraph(dist, k)
	coords := layoutGraph(x, weights, rand.New(rand.NewSource(umapSeed)))

	return &UMAPResult{
		Coords: coords,
		Params: UMAPParams{NNeighbors: k, MinDist: umapMinDist},
	}, nil
}

func pairwiseDistances(x *mat.Dense) [][]float64 {
	n, d := x.Dims()
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var sum float64
			for c := 0; c < d; c++ {
				diff := x.At(i, c) - x.At(j, c)
				sum += diff * diff
			}
			v := math.Sqrt(sum)
			dist[i][j] = v
			dist[j][i] = v
		}
	}
	return dist
}

// fuzzyGraph converts distances into symmetric membership strengths: each
// point gets a local connectivity radius rho (distance to its nearest
// neighbour) and a bandwidth sigma calibrated so the neighbourhood's total
// membership equals log2(k).
func fuzzyGraph(dist [][]float64, k int) [][]float64 {
	n := len(dist)
	target := math.Log2(float64(k))
	w := make([][]float64, n)
	for i := range w {
		w[i] = make([]float64, n)
	}

	order := make([]int, n)
	for i := 0; i < n; i++ {
		for j := range order {
			order[j] = j
		}
		sort.Slice(order, func(a, b int) bool { return dist[i][order[a]] < dist[i][order[b]] })

		// order[0] is i itself (distance 0).
		neighbors := order[1 : k+1]
		rho := dist[i][neighbors[0]]
		sigma := smoothBandwidth(dist[i], neighbors, rho, target)
		for _, j := range neighbors {
			d := dist[i][j] - rho
			if d <= 0 || sigma == 0 {
				w[i][j] = 1
			} else {
				w[i][j] = math.Exp(-d / sigma)
			}
		}
	}

	// Fuzzy set union: w + w^T - w*w^T, elementwise.
	sym := make([][]float64, n)
	for i := range sym {
		sym[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			sym[i][j] = w[i][j] + w[j][i] - w[i][j]*w[j][i]
		}
	}
	return sym
}

func smoothBandwidth(row []float64, neighbors []int, rho, target float64) float64 {
	lo, hi := 0.0, math.Inf(1)
	sigma := 1.0
	for iter := 0; iter < 64; iter++ {
		var sum float64
		for _, j := range neighbors {
			d := row[j] - rho
			if d <= 0 {
				sum++
			} else {
				sum += math.Exp(-d / sigma)
			}
		}
		if math.Abs(sum-target) < 1e-5 {
			break
		}
		if sum > target {
			hi = sigma
			sigma = (lo + hi) / 2
		} else {
			lo = sigma
			if math.IsInf(hi, 1) {
				sigma *= 2
			} else {
				sigma = (lo + hi) / 2
			}
		}
	}
	return sigma
}

// layoutGraph optimizes the 2D embedding with attractive forces along graph
// edges and repulsive forces against negative samples. Initialization comes
// from the PCA projection, scaled down, which keeps the layout deterministic
// for a fixed seed.
func layoutGraph(x *mat.Dense, weights [][]float64, rng *rand.Rand) [][]float64 {
	n := len(weights)
	coords := initialLayout(x, n)

	var maxW float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if weights[i][j] > maxW {
				maxW = weights[i][j]
			}
		}
	}
	if maxW == 0 {
		maxW = 1
	}

	for epoch := 0; epoch < umapEpochs; epoch++ {
		alpha := umapInitialAlpha * (1 - float64(epoch)/float64(umapEpochs))
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if i == j || weights[i][j] == 0 {
					continue
				}
				// Sample edges proportionally to membership strength.
				if rng.Float64() > weights[i][j]/maxW {
					continue
				}
				attract(coords, i, j, alpha)
				for s := 0; s < umapNegativeSamples; s++ {
					t := rng.Intn(n)
					if t == i {
						continue
					}
					repel(coords, i, t, alpha)
				}
			}
		}
	}
	return coords
}

func initialLayout(x *mat.Dense, n int) [][]float64 {
	coords := make([][]float64, n)
	payload, err := PCA{}.Reduce(x)
	if err == nil {
		pc := payload.ProjectedCoords()
		var scale float64
		for _, p := range pc {
			scale = math.Max(scale, math.Max(math.Abs(p[0]), math.Abs(p[1])))
		}
		if scale == 0 {
			scale = 1
		}
		for i := range coords {
			coords[i] = []float64{pc[i][0] / scale * 10, pc[i][1] / scale * 10}
		}
		return coords
	}
	for i := range coords {
		coords[i] = []float64{0, 0}
	}
	return coords
}

func attract(coords [][]float64, i, j int, alpha float64) {
	d2 := sqDist(coords[i], coords[j])
	if d2 <= 0 {
		return
	}
	grad := -2 * umapCurveA * umapCurveB * math.Pow(d2, umapCurveB-1) /
		(1 + umapCurveA*math.Pow(d2, umapCurveB))
	applyGrad(coords, i, j, grad, alpha)
}

func repel(coords [][]float64, i, j int, alpha float64) {
	d2 := sqDist(coords[i], coords[j])
	grad := 2 * umapCurveB / ((0.001 + d2) * (1 + umapCurveA*math.Pow(d2, umapCurveB)))
	applyGrad(coords, i, j, grad, alpha)
}

func applyGrad(coords [][]float64, i, j int, grad, alpha float64) {
	for c := 0; c < 2; c++ {
		g := clip(grad*(coords[i][c]-coords[j][c]), 4)
		coords[i][c] += alpha * g
	}
}

func sqDist(a, b []float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return dx*dx + dy*dy
}

func clip(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
