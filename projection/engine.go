package projection

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const maxFailureDetail = 200

// Engine runs every registered reducer over one embedding matrix. Reducers
// are independent: a numerical failure or panic in one is converted into the
// Failure variant of its own outcome and never affects the others.
type Engine struct {
	reducers []Reducer
}

// NewEngine returns an engine with the default reducer set: PCA always,
// t-SNE and UMAP guarded by their minimum sample sizes.
func NewEngine() *Engine {
	return &Engine{reducers: []Reducer{PCA{}, TSNE{}, UMAP{}}}
}

// NewEngineWith builds an engine from an explicit reducer set. An empty set
// is valid and yields an empty outcome map.
func NewEngineWith(reducers ...Reducer) *Engine {
	return &Engine{reducers: reducers}
}

// Methods lists the registered reducer names in registration order.
func (e *Engine) Methods() []string {
	names := make([]string, len(e.reducers))
	for i, r := range e.reducers {
		names[i] = r.Name()
	}
	return names
}

// Run reduces the batch with every registered method and returns one outcome
// per method, keyed by name.
func (e *Engine) Run(embeddings [][]float32) map[string]Outcome {
	out := make(map[string]Outcome, len(e.reducers))
	n := len(embeddings)

	x, err := validateMatrix(embeddings)
	for _, r := range e.reducers {
		if err != nil {
			out[r.Name()] = Outcome{Err: &Failure{Reason: r.Name() + "_failed", Detail: truncateDetail(err.Error())}}
			continue
		}
		if n < r.MinSamples() {
			out[r.Name()] = Outcome{Err: &Failure{Reason: "too_few_samples", MinSamples: r.MinSamples()}}
			continue
		}
		out[r.Name()] = runReducer(r, x)
	}
	return out
}

func runReducer(r Reducer, x *mat.Dense) (outcome Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			outcome = Outcome{Err: &Failure{
				Reason: r.Name() + "_failed",
				Detail: truncateDetail(fmt.Sprintf("panic: %v", rec)),
			}}
		}
	}()
	payload, err := r.Reduce(x)
	if err != nil {
		return Outcome{Err: &Failure{Reason: r.Name() + "_failed", Detail: truncateDetail(err.Error())}}
	}
	return Outcome{Payload: payload}
}

func truncateDetail(s string) string {
	if len(s) > maxFailureDetail {
		return s[:maxFailureDetail]
	}
	return s
}
