package leaning

import (
	"context"
	"errors"
	"math"
	"path/filepath"

	"voxlab/leanscope/model"
)

// Classifier exposes the minimal inference surface required by the service
// layer: one stateless forward pass over a normalized text batch.
type Classifier interface {
	Classify(ctx context.Context, texts []string) (*ModelOutput, error)
	Close() error
	ModelID() string
}

// OrtClassifier is a thin wrapper over model.Encoder.
type OrtClassifier struct {
	enc *model.Encoder
	cfg ModelConfig
}

// NewOrtClassifier initializes the ONNX session and tokenizer once; the
// resulting classifier is shared read-only across requests.
func NewOrtClassifier(cfg ModelConfig) (*OrtClassifier, error) {
	if cfg.ModelID == "" && cfg.ModelPath != "" {
		cfg.ModelID = filepath.Base(cfg.ModelPath)
	}
	cfg.ApplyDefaults()
	encoder := &model.Encoder{}
	if err := encoder.Init(model.Config{
		OrtDLL:        cfg.OrtSharedLib,
		ModelPath:     cfg.ModelPath,
		TokenizerPath: cfg.TokenizerPath,
		MaxSeqLen:     cfg.MaxSeqLen,
		NumLabels:     NumClasses,
	}); err != nil {
		return nil, err
	}
	return &OrtClassifier{enc: encoder, cfg: cfg}, nil
}

// Close releases ORT resources.
func (o *OrtClassifier) Close() error {
	if o == nil || o.enc == nil {
		return nil
	}
	o.enc.Close()
	o.enc = nil
	return nil
}

// ModelID returns the identifier reported in logs and diagnostics.
func (o *OrtClassifier) ModelID() string {
	return o.cfg.ModelID
}

// Classify runs one forward pass over the batch. A model fault fails the
// whole request; there is no partial-batch fallback at this layer.
func (o *OrtClassifier) Classify(_ context.Context, texts []string) (*ModelOutput, error) {
	if o == nil || o.enc == nil {
		return nil, errors.New("classifier is not initialized")
	}
	out, err := o.enc.Forward(texts)
	if err != nil {
		return nil, err
	}
	return &ModelOutput{Logits: out.Logits, Embeddings: out.Embeddings}, nil
}

// softmax converts one logits row into a stable probability vector.
func softmax(logits []float32) [NumClasses]float64 {
	var probs [NumClasses]float64
	if len(logits) == 0 {
		return probs
	}
	maxLogit := float64(logits[0])
	for _, v := range logits[1:] {
		if float64(v) > maxLogit {
			maxLogit = float64(v)
		}
	}
	var sum float64
	n := NumClasses
	if len(logits) < n {
		n = len(logits)
	}
	for i := 0; i < n; i++ {
		probs[i] = math.Exp(float64(logits[i]) - maxLogit)
		sum += probs[i]
	}
	for i := 0; i < n; i++ {
		probs[i] /= sum
	}
	return probs
}

// argmax returns the index of the highest probability.
func argmax(probs [NumClasses]float64) int {
	best := 0
	for i := 1; i < NumClasses; i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return best
}
