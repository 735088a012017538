package leaning

import (
	"encoding/json"
	"fmt"
	"os"
)

// Head holds the output-layer parameters of the sequence classifier,
// exported alongside the ONNX model. Weight rows follow the class order
// left, center, right.
type Head struct {
	Weight [][]float64 `json:"weight"`
	Bias   []float64   `json:"bias"`
}

// LoadHead reads and validates the classifier head sidecar file.
func LoadHead(path string) (*Head, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read head file: %w", err)
	}
	var h Head
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("decode head file: %w", err)
	}
	if err := h.validate(); err != nil {
		return nil, fmt.Errorf("invalid head file %s: %w", path, err)
	}
	return &h, nil
}

func (h *Head) validate() error {
	if len(h.Weight) != NumClasses {
		return fmt.Errorf("weight has %d rows, want %d", len(h.Weight), NumClasses)
	}
	if len(h.Bias) != NumClasses {
		return fmt.Errorf("bias has %d entries, want %d", len(h.Bias), NumClasses)
	}
	width := len(h.Weight[0])
	if width == 0 {
		return fmt.Errorf("weight rows are empty")
	}
	for i, row := range h.Weight {
		if len(row) != width {
			return fmt.Errorf("weight row %d has %d entries, want %d", i, len(row), width)
		}
	}
	return nil
}

// HiddenSize returns the hidden width the head was trained against. The
// classifier's embeddings must have the same width.
func (h *Head) HiddenSize() int {
	return len(h.Weight[0])
}

// Axis derives the continuous ideology direction from the head itself: the
// difference between the "right" and "left" class rows, with the matching
// bias difference as scalar offset. No separate regressor is involved; the
// axis moves monotonically with the model's own right-vs-left confidence and
// ignores the center class.
func (h *Head) Axis() (vec []float64, offset float64) {
	width := h.HiddenSize()
	vec = make([]float64, width)
	for j := 0; j < width; j++ {
		vec[j] = h.Weight[ClassRight][j] - h.Weight[ClassLeft][j]
	}
	return vec, h.Bias[ClassRight] - h.Bias[ClassLeft]
}
