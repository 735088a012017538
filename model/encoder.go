// Package model runs a pretrained ONNX sequence classifier exported with two
// outputs: the classification logits and the final-layer hidden states. The
// session and tokenizer are initialized once and shared read-only; forward
// passes are serialized by a mutex.
package model

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultMaxSeqLen = 256
	defaultNumLabels = 3

	inputIDsName      = "input_ids"
	attentionMaskName = "attention_mask"
	logitsName        = "logits"
	hiddenStateName   = "last_hidden_state"
)

// Config wires the encoder to its model artifacts.
type Config struct {
	// OrtDLL is the path to the ONNX Runtime shared library. Empty means the
	// library default lookup.
	OrtDLL string
	// ModelPath points at the exported .onnx file.
	ModelPath string
	// TokenizerPath points at the HuggingFace tokenizer.json.
	TokenizerPath string
	// MaxSeqLen is the fixed padding/truncation window (default 256). Every
	// sequence in a batch is aligned to this length.
	MaxSeqLen int
	// NumLabels is the width of the logits output (default 3).
	NumLabels int
}

// Output is the result of one forward pass.
type Output struct {
	Logits     [][]float32
	Embeddings [][]float32
}

// Encoder owns the tokenizer and ONNX session.
type Encoder struct {
	tk      *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession
	cfg     Config

	mu sync.Mutex
}

// Init loads the tokenizer and creates the inference session. It must be
// called once before Forward.
func (e *Encoder) Init(cfg Config) error {
	if cfg.ModelPath == "" {
		return errors.New("model path is required")
	}
	if cfg.TokenizerPath == "" {
		return errors.New("tokenizer path is required")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = defaultMaxSeqLen
	}
	if cfg.NumLabels <= 0 {
		cfg.NumLabels = defaultNumLabels
	}

	if cfg.OrtDLL != "" {
		ort.SetSharedLibraryPath(cfg.OrtDLL)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return fmt.Errorf("load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(
		cfg.ModelPath,
		[]string{inputIDsName, attentionMaskName},
		[]string{logitsName, hiddenStateName},
		nil,
	)
	if err != nil {
		return fmt.Errorf("create onnx session: %w", err)
	}

	e.tk = tk
	e.session = session
	e.cfg = cfg
	return nil
}

// Close releases the session. The process-wide ONNX environment stays alive
// for other sessions.
func (e *Encoder) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session != nil {
		_ = e.session.Destroy()
		e.session = nil
	}
	e.tk = nil
}

// Forward tokenizes the batch, pads every sequence to the fixed window and
// runs one inference pass. The returned embedding per item is the hidden
// state at the first token position of the final layer.
func (e *Encoder) Forward(texts []string) (*Output, error) {
	if e.session == nil || e.tk == nil {
		return nil, errors.New("encoder is not initialized")
	}
	b := len(texts)
	if b == 0 {
		return &Output{Logits: [][]float32{}, Embeddings: [][]float32{}}, nil
	}

	seqLen := e.cfg.MaxSeqLen
	ids := make([]int64, b*seqLen)
	mask := make([]int64, b*seqLen)
	for i, text := range texts {
		enc, err := e.tk.EncodeSingle(text, true)
		if err != nil {
			return nil, fmt.Errorf("tokenize item %d: %w", i, err)
		}
		fillWindow(ids[i*seqLen:(i+1)*seqLen], mask[i*seqLen:(i+1)*seqLen], enc.Ids)
	}

	shape := ort.NewShape(int64(b), int64(seqLen))
	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()

	outputs := []ort.Value{nil, nil}
	e.mu.Lock()
	err = e.session.Run([]ort.Value{idsTensor, maskTensor}, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run inference: %w", err)
	}
	defer func() {
		for _, v := range outputs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	logitsTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("logits output is not a float32 tensor")
	}
	hiddenTensor, ok := outputs[1].(*ort.Tensor[float32])
	if !ok {
		return nil, errors.New("hidden state output is not a float32 tensor")
	}

	return gatherOutputs(logitsTensor, hiddenTensor, b, e.cfg.NumLabels)
}

// fillWindow truncates or zero-pads one token sequence into the fixed
// window, writing the matching attention mask.
func fillWindow(ids, mask []int64, tokens []int) {
	n := len(tokens)
	if n > len(ids) {
		n = len(ids)
	}
	for i := 0; i < n; i++ {
		ids[i] = int64(tokens[i])
		mask[i] = 1
	}
	for i := n; i < len(ids); i++ {
		ids[i] = 0
		mask[i] = 0
	}
}

func gatherOutputs(logitsTensor, hiddenTensor *ort.Tensor[float32], b, numLabels int) (*Output, error) {
	logitsShape := logitsTensor.GetShape()
	if len(logitsShape) != 2 || int(logitsShape[0]) != b || int(logitsShape[1]) != numLabels {
		return nil, fmt.Errorf("unexpected logits shape %v, want [%d %d]", logitsShape, b, numLabels)
	}
	hiddenShape := hiddenTensor.GetShape()
	if len(hiddenShape) != 3 || int(hiddenShape[0]) != b {
		return nil, fmt.Errorf("unexpected hidden state shape %v", hiddenShape)
	}
	seq := int(hiddenShape[1])
	width := int(hiddenShape[2])

	logitsData := logitsTensor.GetData()
	hiddenData := hiddenTensor.GetData()

	out := &Output{
		Logits:     make([][]float32, b),
		Embeddings: make([][]float32, b),
	}
	for i := 0; i < b; i++ {
		logits := make([]float32, numLabels)
		copy(logits, logitsData[i*numLabels:(i+1)*numLabels])
		out.Logits[i] = logits

		// First token position of the final layer.
		start := i * seq * width
		embedding := make([]float32, width)
		copy(embedding, hiddenData[start:start+width])
		out.Embeddings[i] = embedding
	}
	return out, nil
}
