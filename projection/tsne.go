package projection

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"
)

const (
	tsneSeed         = 42
	tsneLearningRate = 100
	tsneIterations   = 300
)

// TSNEResult carries the t-SNE coordinates and the perplexity that was
// actually used after the adaptive clamp.
type TSNEResult struct {
	Coords     [][]float64 `json:"coords"`
	Perplexity float64     `json:"perplexity"`
}

// ProjectedCoords implements Payload.
func (r *TSNEResult) ProjectedCoords() [][]float64 { return r.Coords }

// TSNE embeds via Barnes-Hut-free exact t-SNE. Perplexity must stay below
// the sample count, so it is clamped to [2, 30] around (n-1)/3. The library
// draws its initial layout from the global math/rand source, so runs are
// serialized under a mutex: reseed then embed, with no interleaved draws
// from concurrent batches.
type TSNE struct{}

var tsneMu sync.Mutex

func (TSNE) Name() string    { return "tsne" }
func (TSNE) MinSamples() int { return 3 }

func (TSNE) Reduce(x *mat.Dense) (Payload, error) {
	n, _ := x.Dims()
	perplexity := adaptivePerplexity(n)

	tsneMu.Lock()
	defer tsneMu.Unlock()
	rand.Seed(tsneSeed)
	t := tsne.NewTSNE(2, perplexity, tsneLearningRate, tsneIterations, false)
	y := t.EmbedData(x, nil)
	if y == nil {
		return nil, fmt.Errorf("t-sne did not produce an embedding")
	}
	return &TSNEResult{
		Coords:     matrixToCoords(y),
		Perplexity: perplexity,
	}, nil
}

func adaptivePerplexity(n int) float64 {
	p := float64(n-1) / 3.0
	if p < 2 {
		p = 2
	}
	if p > 30 {
		p = 30
	}
	return p
}
