package leaning

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"voxlab/leanscope/pkg/logger"
	"voxlab/leanscope/pkg/metrics"
	"voxlab/leanscope/projection"
)

// Service orchestrates the analysis pipeline: normalize, classify, project
// onto the ideology axis, compute uncertainty and reduce the embedding
// matrix to 2D. All state is request-scoped except the classifier and head,
// which are loaded once and never mutated.
type Service struct {
	clf        Classifier
	head       *Head
	axis       []float64
	axisOffset float64
	engine     *projection.Engine
}

// NewService constructs a service around a ready classifier and head.
func NewService(clf Classifier, head *Head) (*Service, error) {
	if clf == nil {
		return nil, errors.New("classifier is required")
	}
	if head == nil {
		return nil, errors.New("classifier head is required")
	}
	axis, offset := head.Axis()
	return &Service{
		clf:        clf,
		head:       head,
		axis:       axis,
		axisOffset: offset,
		engine:     projection.NewEngine(),
	}, nil
}

// Close releases classifier resources.
func (s *Service) Close() error {
	if s.clf != nil {
		return s.clf.Close()
	}
	return nil
}

// Analyze runs the full pipeline over one ordered batch. Output items match
// the input order one to one; an all-empty batch short-circuits to an empty
// result without a classifier call.
func (s *Service) Analyze(ctx context.Context, items []QAItem) (*BatchResult, error) {
	texts, any := AnswerTexts(items)
	if !any {
		return &BatchResult{Items: []ItemResult{}}, nil
	}

	out, err := s.clf.Classify(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("classify batch: %w", err)
	}
	if len(out.Logits) != len(items) || len(out.Embeddings) != len(items) {
		return nil, fmt.Errorf("classifier returned %d logits and %d embeddings for %d items",
			len(out.Logits), len(out.Embeddings), len(items))
	}

	// The head sidecar and the ONNX model are separate artifacts; a width
	// mismatch means they belong to different exports and the whole request
	// must fail rather than score against a partial axis.
	want := s.head.HiddenSize()
	raw := make([]float64, len(items))
	for i, emb := range out.Embeddings {
		if len(emb) != want {
			return nil, fmt.Errorf("item %d: embedding width %d does not match head hidden size %d",
				i, len(emb), want)
		}
		raw[i] = ideologyRaw(s.axis, s.axisOffset, emb)
	}
	scores := normalizeIdeology(raw)

	results := make([]ItemResult, len(items))
	counts := make(map[string]int)
	for i, item := range items {
		probs := softmax(out.Logits[i])
		pred := argmax(probs)
		label := Labels[pred]
		unc := ComputeUncertainty(probs)

		id := item.ID
		if id == "" {
			id = strconv.Itoa(i)
		}
		results[i] = ItemResult{
			ID:            id,
			Question:      item.Question,
			Answer:        item.Answer,
			PredIndex:     pred,
			PredLabel:     label,
			Probs:         Probs{Left: probs[ClassLeft], Center: probs[ClassCenter], Right: probs[ClassRight]},
			PredScore:     probs[pred],
			Margin:        unc.Margin,
			Entropy:       unc.Entropy,
			Extremeness:   unc.Extremeness,
			IdeologyRaw:   raw[i],
			IdeologyScore: scores[i],
			Projections:   make(map[string][]float64, 3),
			Embedding:     out.Embeddings[i],
		}
		counts[label]++
	}

	outcomes := s.engine.Run(out.Embeddings)
	for method, outcome := range outcomes {
		if coords := outcome.Coords(); coords != nil {
			for i := range results {
				results[i].Projections[method] = coords[i]
			}
			continue
		}
		if outcome.Err != nil && outcome.Err.Reason != "too_few_samples" {
			metrics.ReducerFailures.WithLabelValues(method).Inc()
			logger.Warn("projection reducer failed",
				"method", method, "reason", outcome.Err.Reason, "detail", outcome.Err.Detail)
		}
	}

	metrics.ItemsClassified.Add(float64(len(items)))

	return &BatchResult{
		Items: results,
		Aggregates: Aggregates{
			CountsByPredLabel: counts,
			Projections:       outcomes,
		},
	}, nil
}
