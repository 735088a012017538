package projection

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Payload is the success variant of a reducer outcome. Every payload carries
// the projected 2D coordinates, one point per input row, in input order.
type Payload interface {
	ProjectedCoords() [][]float64
}

// Failure is the error variant of a reducer outcome. It is a structured
// value surfaced in the response, never a Go error that aborts the request.
type Failure struct {
	Reason     string `json:"error"`
	Detail     string `json:"detail,omitempty"`
	MinSamples int    `json:"min_samples,omitempty"`
}

// Outcome is a tagged union: exactly one of Payload or Err is set.
type Outcome struct {
	Payload Payload
	Err     *Failure
}

// OK reports whether the outcome carries coordinates.
func (o Outcome) OK() bool {
	return o.Err == nil && o.Payload != nil
}

// Coords returns the projected points, or nil for the error variant.
func (o Outcome) Coords() [][]float64 {
	if !o.OK() {
		return nil
	}
	return o.Payload.ProjectedCoords()
}

// MarshalJSON flattens the union so clients see either the method payload
// or an {error, detail} object under the same key.
func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Err != nil {
		return json.Marshal(o.Err)
	}
	if o.Payload == nil {
		return json.Marshal(&Failure{Reason: "not_computed"})
	}
	return json.Marshal(o.Payload)
}

// Reducer maps an [n,d] embedding matrix to 2D coordinates. Implementations
// must be safe to call sequentially with matrices of any n >= MinSamples.
type Reducer interface {
	Name() string
	MinSamples() int
	Reduce(x *mat.Dense) (Payload, error)
}

func validateMatrix(embeddings [][]float32) (*mat.Dense, error) {
	n := len(embeddings)
	if n == 0 {
		return nil, fmt.Errorf("empty embedding batch")
	}
	d := len(embeddings[0])
	if d == 0 {
		return nil, fmt.Errorf("zero-width embedding")
	}
	data := make([]float64, n*d)
	for i, row := range embeddings {
		if len(row) != d {
			return nil, fmt.Errorf("ragged embedding batch: row %d has %d dims, want %d", i, len(row), d)
		}
		for j, v := range row {
			data[i*d+j] = float64(v)
		}
	}
	return mat.NewDense(n, d, data), nil
}

func matrixToCoords(y mat.Matrix) [][]float64 {
	n, _ := y.Dims()
	coords := make([][]float64, n)
	for i := 0; i < n; i++ {
		coords[i] = []float64{y.At(i, 0), y.At(i, 1)}
	}
	return coords
}
