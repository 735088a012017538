package leaning

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClassifier produces deterministic logits and embeddings from marker
// words in the text, so pipeline behavior is fully reproducible.
type stubClassifier struct {
	calls int
	fail  error
}

func (s *stubClassifier) Classify(_ context.Context, texts []string) (*ModelOutput, error) {
	s.calls++
	if s.fail != nil {
		return nil, s.fail
	}
	out := &ModelOutput{
		Logits:     make([][]float32, len(texts)),
		Embeddings: make([][]float32, len(texts)),
	}
	for i, t := range texts {
		var lean float32
		switch {
		case strings.Contains(t, "right"):
			lean = 1
		case strings.Contains(t, "left"):
			lean = -1
		}
		out.Logits[i] = []float32{-2 * lean, 0.5, 2 * lean}
		out.Embeddings[i] = []float32{
			lean + 0.01*float32(i),
			0.1 * float32(i),
			float32(i%3) * 0.2,
			0.3,
		}
	}
	return out, nil
}

func (s *stubClassifier) Close() error    { return nil }
func (s *stubClassifier) ModelID() string { return "stub" }

// fixedWidthClassifier emits embeddings of an arbitrary width, standing in
// for a model export that does not match the head sidecar.
type fixedWidthClassifier struct {
	width int
}

func (f *fixedWidthClassifier) Classify(_ context.Context, texts []string) (*ModelOutput, error) {
	out := &ModelOutput{
		Logits:     make([][]float32, len(texts)),
		Embeddings: make([][]float32, len(texts)),
	}
	for i := range texts {
		out.Logits[i] = []float32{0, 1, 0}
		out.Embeddings[i] = make([]float32, f.width)
	}
	return out, nil
}

func (f *fixedWidthClassifier) Close() error    { return nil }
func (f *fixedWidthClassifier) ModelID() string { return "fixed-width" }

func testHead(t *testing.T) *Head {
	t.Helper()
	return &Head{
		Weight: [][]float64{
			{-1, 0, 0, 0},
			{0, 0, 0, 0},
			{1, 0, 0, 0},
		},
		Bias: []float64{0, 0, 0},
	}
}

func newTestService(t *testing.T) (*Service, *stubClassifier) {
	t.Helper()
	clf := &stubClassifier{}
	svc, err := NewService(clf, testHead(t))
	require.NoError(t, err)
	return svc, clf
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, testHead(t))
	assert.Error(t, err)
	_, err = NewService(&stubClassifier{}, nil)
	assert.Error(t, err)
}

func TestAnalyzeAllEmptyShortCircuits(t *testing.T) {
	svc, clf := newTestService(t)
	result, err := svc.Analyze(context.Background(), []QAItem{
		{Question: "q", Answer: ""},
		{Question: "q", Answer: "   "},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Zero(t, clf.calls, "classifier must not run for an all-empty batch")

	payload, err := json.Marshal(result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"aggregates":{}}`, string(payload))
}

func TestAnalyzeSingleItem(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.Analyze(context.Background(), []QAItem{{Question: "q", Answer: "hello"}})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)

	item := result.Items[0]
	assert.Equal(t, "0", item.ID, "missing id defaults to positional index")
	assert.Equal(t, "center", item.PredLabel)
	assert.InDelta(t, 1.0, item.Probs.Left+item.Probs.Center+item.Probs.Right, 1e-4)
	assert.Zero(t, item.IdeologyScore, "single-item batch is its own mean")
	assert.Equal(t, []float64{0, 0}, item.Projections["pca"])

	projections := result.Aggregates.Projections
	require.Contains(t, projections, "pca")
	assert.True(t, projections["pca"].OK())

	for _, method := range []string{"tsne", "umap"} {
		outcome := projections[method]
		require.NotNil(t, outcome.Err, method)
		assert.Equal(t, "too_few_samples", outcome.Err.Reason)
		assert.Equal(t, 3, outcome.Err.MinSamples)
		assert.NotContains(t, result.Items[0].Projections, method)
	}
}

func TestAnalyzeTwoItems(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.Analyze(context.Background(), []QAItem{
		{Answer: "strongly left take"},
		{Answer: "strongly right take"},
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 2)

	pca := result.Aggregates.Projections["pca"]
	require.True(t, pca.OK())
	assert.Len(t, pca.Coords(), 2)

	for _, method := range []string{"tsne", "umap"} {
		outcome := result.Aggregates.Projections[method]
		require.NotNil(t, outcome.Err, method)
		assert.Equal(t, "too_few_samples", outcome.Err.Reason)
	}
}

func TestAnalyzeBatchOrderCountsAndAxis(t *testing.T) {
	items := []QAItem{
		{ID: "a", Answer: "right answer one"},
		{Answer: "left answer one"},
		{Answer: "neutral answer"},
		{ID: "b", Answer: "right answer two"},
		{Answer: "left answer two"},
		{Answer: "another neutral"},
		{Answer: "right answer three"},
		{Answer: "left answer three"},
		{Answer: "more neutral text"},
		{Answer: "still neutral"},
	}
	svc, _ := newTestService(t)
	result, err := svc.Analyze(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, result.Items, len(items))

	// Order fidelity: explicit ids survive, missing ids are positional.
	assert.Equal(t, "a", result.Items[0].ID)
	assert.Equal(t, "1", result.Items[1].ID)
	assert.Equal(t, "b", result.Items[3].ID)
	for i, item := range result.Items {
		assert.Equal(t, items[i].Answer, item.Answer)
		assert.Equal(t, Labels[item.PredIndex], item.PredLabel)
		assert.InDelta(t, 1.0, item.Probs.Left+item.Probs.Center+item.Probs.Right, 1e-4)
		assert.GreaterOrEqual(t, item.Margin, 0.0)
		assert.LessOrEqual(t, item.Margin, 1.0)
		assert.GreaterOrEqual(t, item.Entropy, 0.0)
		assert.LessOrEqual(t, item.Entropy, 1.0)
	}

	counts := result.Aggregates.CountsByPredLabel
	assert.Equal(t, 3, counts["right"])
	assert.Equal(t, 3, counts["left"])
	assert.Equal(t, 4, counts["center"])

	var rightMean, leftMean float64
	for _, item := range result.Items {
		switch item.PredLabel {
		case "right":
			rightMean += item.IdeologyRaw / 3
		case "left":
			leftMean += item.IdeologyRaw / 3
		}
	}
	assert.Greater(t, rightMean, leftMean)

	// All three reducers run at this batch size; every item gets a point
	// from each.
	for _, method := range []string{"pca", "tsne", "umap"} {
		outcome := result.Aggregates.Projections[method]
		require.True(t, outcome.OK(), method)
		require.Len(t, outcome.Coords(), len(items), method)
		for _, item := range result.Items {
			assert.Len(t, item.Projections[method], 2, method)
		}
	}
}

func TestAnalyzeIdempotent(t *testing.T) {
	items := []QAItem{
		{Answer: "right leaning text"},
		{Answer: "left leaning text"},
		{Answer: "something neutral"},
		{Answer: "one more neutral"},
	}
	svc, _ := newTestService(t)
	first, err := svc.Analyze(context.Background(), items)
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), items)
	require.NoError(t, err)

	require.Len(t, second.Items, len(first.Items))
	for i := range first.Items {
		assert.Equal(t, first.Items[i].PredLabel, second.Items[i].PredLabel)
		assert.Equal(t, first.Items[i].Probs, second.Items[i].Probs)
		assert.Equal(t, first.Items[i].Margin, second.Items[i].Margin)
		assert.Equal(t, first.Items[i].Entropy, second.Items[i].Entropy)
		assert.Equal(t, first.Items[i].IdeologyScore, second.Items[i].IdeologyScore)
	}

	// The reducers run seeded, so repeated calls over the same batch must
	// reproduce the layouts bit for bit.
	for _, method := range []string{"pca", "tsne", "umap"} {
		firstOutcome := first.Aggregates.Projections[method]
		secondOutcome := second.Aggregates.Projections[method]
		require.True(t, firstOutcome.OK(), method)
		assert.Equal(t, firstOutcome.Coords(), secondOutcome.Coords(), method)
	}
	for i := range first.Items {
		assert.Equal(t, first.Items[i].Projections, second.Items[i].Projections)
	}
}

func TestAnalyzeRejectsEmbeddingWidthMismatch(t *testing.T) {
	svc, err := NewService(&fixedWidthClassifier{width: 2}, testHead(t))
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), []QAItem{{Answer: "text"}})
	require.Error(t, err)
	assert.ErrorContains(t, err, "head hidden size")
}

func TestAnalyzeClassifierFailureFailsRequest(t *testing.T) {
	clf := &stubClassifier{fail: errors.New("tensor shape mismatch")}
	svc, err := NewService(clf, testHead(t))
	require.NoError(t, err)

	_, err = svc.Analyze(context.Background(), []QAItem{{Answer: "text"}})
	assert.ErrorContains(t, err, "classify batch")
}

func TestAnalyzeEmbeddingPassthrough(t *testing.T) {
	svc, _ := newTestService(t)
	result, err := svc.Analyze(context.Background(), []QAItem{{Answer: "right text"}})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, []float32{1, 0, 0, 0.3}, result.Items[0].Embedding)
}
