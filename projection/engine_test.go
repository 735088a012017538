package projection

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

type stubReducer struct {
	name string
	min  int
	fn   func(x *mat.Dense) (Payload, error)
}

func (s stubReducer) Name() string                         { return s.name }
func (s stubReducer) MinSamples() int                      { return s.min }
func (s stubReducer) Reduce(x *mat.Dense) (Payload, error) { return s.fn(x) }

func randomBatch(n, d int) [][]float32 {
	rng := rand.New(rand.NewSource(7))
	batch := make([][]float32, n)
	for i := range batch {
		batch[i] = make([]float32, d)
		for j := range batch[i] {
			batch[i][j] = float32(rng.NormFloat64())
		}
	}
	return batch
}

func TestEngineMethods(t *testing.T) {
	assert.Equal(t, []string{"pca", "tsne", "umap"}, NewEngine().Methods())
}

func TestEngineGuardsSmallBatches(t *testing.T) {
	outcomes := NewEngine().Run(randomBatch(2, 4))

	require.True(t, outcomes["pca"].OK())
	for _, method := range []string{"tsne", "umap"} {
		outcome := outcomes[method]
		require.NotNil(t, outcome.Err, method)
		assert.Equal(t, "too_few_samples", outcome.Err.Reason)
		assert.Equal(t, 3, outcome.Err.MinSamples)
		assert.Nil(t, outcome.Coords())
	}
}

func TestEngineRunsAllReducersOnLargeBatch(t *testing.T) {
	batch := randomBatch(12, 6)
	outcomes := NewEngine().Run(batch)
	for _, method := range []string{"pca", "tsne", "umap"} {
		outcome := outcomes[method]
		require.True(t, outcome.OK(), method)
		coords := outcome.Coords()
		require.Len(t, coords, len(batch), method)
		for _, point := range coords {
			assert.Len(t, point, 2, method)
		}
	}
}

func TestEngineReducersAreSeedDeterministic(t *testing.T) {
	batch := randomBatch(8, 5)
	first := NewEngine().Run(batch)
	second := NewEngine().Run(batch)
	for _, method := range []string{"pca", "tsne", "umap"} {
		require.True(t, first[method].OK(), method)
		assert.Equal(t, first[method].Coords(), second[method].Coords(), method)
	}
}

func TestEngineIsolatesPanics(t *testing.T) {
	engine := NewEngineWith(
		PCA{},
		stubReducer{name: "boom", min: 1, fn: func(*mat.Dense) (Payload, error) {
			panic("index out of range")
		}},
	)
	outcomes := engine.Run(randomBatch(4, 3))

	require.True(t, outcomes["pca"].OK(), "panic in one reducer must not affect the others")
	boom := outcomes["boom"]
	require.NotNil(t, boom.Err)
	assert.Equal(t, "boom_failed", boom.Err.Reason)
	assert.Contains(t, boom.Err.Detail, "panic")
}

func TestEngineConvertsReducerErrors(t *testing.T) {
	engine := NewEngineWith(stubReducer{name: "bad", min: 1, fn: func(*mat.Dense) (Payload, error) {
		return nil, fmt.Errorf("matrix is singular")
	}})
	outcomes := engine.Run(randomBatch(3, 3))

	bad := outcomes["bad"]
	require.NotNil(t, bad.Err)
	assert.Equal(t, "bad_failed", bad.Err.Reason)
	assert.Equal(t, "matrix is singular", bad.Err.Detail)
}

func TestEngineRejectsRaggedBatch(t *testing.T) {
	outcomes := NewEngine().Run([][]float32{{1, 2}, {3}})
	for _, method := range []string{"pca", "tsne", "umap"} {
		outcome := outcomes[method]
		require.NotNil(t, outcome.Err, method)
		assert.Equal(t, method+"_failed", outcome.Err.Reason)
		assert.Contains(t, outcome.Err.Detail, "ragged")
	}
}

func TestOutcomeJSONVariants(t *testing.T) {
	failure := Outcome{Err: &Failure{Reason: "too_few_samples", MinSamples: 3}}
	payload, err := json.Marshal(failure)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error":"too_few_samples","min_samples":3}`, string(payload))

	success := Outcome{Payload: &PCAResult{
		Coords:                 [][]float64{{0.5, -0.5}},
		ExplainedVarianceRatio: []float64{1, 0},
	}}
	payload, err = json.Marshal(success)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"coords":[[0.5,-0.5]],"explained_variance_ratio":[1,0]}`,
		string(payload))
}
