package projection

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCAResult carries the deterministic principal-component projection along
// with the fitted model parameters so clients can re-project new points.
type PCAResult struct {
	Coords                 [][]float64 `json:"coords"`
	ExplainedVarianceRatio []float64   `json:"explained_variance_ratio"`
	Mean                   []float64   `json:"mean,omitempty"`
	Components             [][]float64 `json:"components,omitempty"`
	Note                   string      `json:"note,omitempty"`
}

// ProjectedCoords implements Payload.
func (r *PCAResult) ProjectedCoords() [][]float64 { return r.Coords }

// PCA projects onto the first two principal components via thin SVD of the
// column-centered matrix. A single point has no variance structure, so it
// degenerates to the origin with an explanatory note instead of erroring.
type PCA struct{}

func (PCA) Name() string    { return "pca" }
func (PCA) MinSamples() int { return 1 }

func (PCA) Reduce(x *mat.Dense) (Payload, error) {
	n, d := x.Dims()
	if n < 2 {
		coords := make([][]float64, n)
		for i := range coords {
			coords[i] = []float64{0, 0}
		}
		return &PCAResult{
			Coords:                 coords,
			ExplainedVarianceRatio: []float64{},
			Note:                   "insufficient_samples_for_2d_pca",
		}, nil
	}

	mean := make([]float64, d)
	centered := mat.NewDense(n, d, nil)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		mean[j] = stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, col[i]-mean[j])
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return nil, fmt.Errorf("svd factorization did not converge")
	}
	var vt mat.Dense
	svd.VTo(&vt)
	sigma := svd.Values(nil)

	// vt holds right singular vectors as columns; the first two are the
	// principal axes.
	components := make([][]float64, 2)
	loadings := mat.NewDense(d, 2, nil)
	for c := 0; c < 2; c++ {
		components[c] = make([]float64, d)
		for j := 0; j < d; j++ {
			v := vt.At(j, c)
			components[c][j] = v
			loadings.Set(j, c, v)
		}
	}

	var projected mat.Dense
	projected.Mul(centered, loadings)

	var total float64
	for _, s := range sigma {
		total += s * s
	}
	ratio := make([]float64, 2)
	if total > 0 {
		ratio[0] = sigma[0] * sigma[0] / total
		if len(sigma) > 1 {
			ratio[1] = sigma[1] * sigma[1] / total
		}
	}

	return &PCAResult{
		Coords:                 matrixToCoords(&projected),
		ExplainedVarianceRatio: ratio,
		Mean:                   mean,
		Components:             components,
	}, nil
}
