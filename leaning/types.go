package leaning

import (
	"voxlab/leanscope/projection"
)

// Class indices of the pretrained sequence classifier. The output head is
// fixed at three classes in this order.
const (
	ClassLeft = iota
	ClassCenter
	ClassRight
	NumClasses
)

// Labels maps class indices to their wire labels.
var Labels = [NumClasses]string{"left", "center", "right"}

// QAItem is a single question/answer pair submitted for analysis. Identity
// defaults to the positional index when ID is empty.
type QAItem struct {
	ID       string `json:"id,omitempty"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Probs is the softmax distribution over the three leaning classes. The
// components are non-negative and sum to 1 within floating tolerance.
type Probs struct {
	Left   float64 `json:"left"`
	Center float64 `json:"center"`
	Right  float64 `json:"right"`
}

// ItemResult is the per-item record of the analysis response. Items appear
// in the response in exactly the order they were submitted.
type ItemResult struct {
	ID          string  `json:"id"`
	Question    string  `json:"question"`
	Answer      string  `json:"answer"`
	PredIndex   int     `json:"pred_index"`
	PredLabel   string  `json:"pred_label"`
	Probs       Probs   `json:"probs"`
	PredScore   float64 `json:"pred_score"`
	Margin      float64 `json:"margin"`
	Entropy     float64 `json:"entropy"`
	Extremeness float64 `json:"extremeness"`

	// IdeologyRaw is the signed projection of the item's embedding onto the
	// right-minus-left axis of the classifier head. Comparable across
	// requests for a fixed model.
	IdeologyRaw float64 `json:"ideology_raw"`

	// IdeologyScore is IdeologyRaw normalized relative to the current batch
	// (tanh of half the z-score). It is rank-preserving within one request
	// and NOT comparable across requests with different batch composition.
	IdeologyScore float64 `json:"ideology_score"`

	// Projections holds the item's 2D point for each reducer that produced
	// coordinates. Failed methods are absent here and reported under
	// aggregates.projections instead.
	Projections map[string][]float64 `json:"projections"`

	Embedding []float32 `json:"embedding"`
}

// Aggregates bundles the batch-level results.
type Aggregates struct {
	CountsByPredLabel map[string]int                `json:"counts_by_pred_label,omitempty"`
	Projections       map[string]projection.Outcome `json:"projections,omitempty"`
}

// BatchResult is the full analysis response for one request.
type BatchResult struct {
	Items      []ItemResult `json:"items"`
	Aggregates Aggregates   `json:"aggregates"`
}

// ModelOutput is the raw result of one classifier forward pass.
type ModelOutput struct {
	// Logits has shape [B][NumClasses].
	Logits [][]float32
	// Embeddings has shape [B][H]: the final-layer hidden state at the
	// first token position of each sequence.
	Embeddings [][]float32
}

// ModelConfig wraps the settings for the ONNX classifier runtime.
type ModelConfig struct {
	OrtSharedLib  string `json:"ortSharedLib"`
	ModelPath     string `json:"modelPath"`
	TokenizerPath string `json:"tokenizerPath"`
	HeadPath      string `json:"headPath"`
	MaxSeqLen     int    `json:"maxSeqLen"`
	ModelID       string `json:"modelId"`
}

// ApplyDefaults populates zero values with the fixed pipeline defaults.
func (c *ModelConfig) ApplyDefaults() {
	if c.MaxSeqLen <= 0 {
		c.MaxSeqLen = 256
	}
}
