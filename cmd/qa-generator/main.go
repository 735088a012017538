// Command qa-generator produces synthetic political question/answer data by
// prompting a chat-completion model with persona templates. Each output line
// is one JSON record with three answered questions.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/openai/openai-go"
)

type generatorOptions struct {
	numLines        int
	model           string
	temperature     float64
	maxOutputTokens int
	mode            string
	outputPath      string
	seed            int64
	concurrent      int
	batchSize       int
}

const (
	maxAttempts = 5
	baseBackoff = 750 * time.Millisecond
)

type questionSlot struct {
	Question string `json:"question"`
	Ideology string `json:"ideology,omitempty"`
	Position int    `json:"position"`
	Answer   string `json:"answer"`
}

type record struct {
	Row int          `json:"row"`
	Q1  questionSlot `json:"q1"`
	Q2  questionSlot `json:"q2"`
	Q3  questionSlot `json:"q3"`
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("qa-generator: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("qa-generator: %v", err)
	}
}

func parseFlags() (generatorOptions, error) {
	var opts generatorOptions
	flag.IntVar(&opts.numLines, "num-lines", 1000, "Number of JSONL lines to generate")
	flag.StringVar(&opts.model, "model", "gpt-4.1-nano", "Chat-completion model name")
	flag.Float64Var(&opts.temperature, "temperature", 1.5, "Sampling temperature")
	flag.IntVar(&opts.maxOutputTokens, "max-output-tokens", 80, "Max tokens per answer")
	flag.StringVar(&opts.mode, "mode", "spectrum", "Generation mode: spectrum or ideology")
	flag.StringVar(&opts.outputPath, "output", "data/political_qa.jsonl", "Output JSONL path")
	flag.Int64Var(&opts.seed, "seed", 42, "RNG seed for persona sampling")
	flag.IntVar(&opts.concurrent, "concurrent", 10, "Max concurrent API requests")
	flag.IntVar(&opts.batchSize, "batch-size", 50, "Rows generated and flushed per batch")
	flag.Parse()

	if opts.mode != "spectrum" && opts.mode != "ideology" {
		return opts, fmt.Errorf("invalid --mode %q: want spectrum or ideology", opts.mode)
	}
	if opts.numLines <= 0 {
		return opts, errors.New("--num-lines must be positive")
	}
	if opts.concurrent <= 0 {
		opts.concurrent = 1
	}
	if opts.batchSize <= 0 {
		opts.batchSize = 50
	}
	return opts, nil
}

func run(opts generatorOptions) error {
	if os.Getenv("OPENAI_API_KEY") == "" {
		return errors.New("OPENAI_API_KEY is not set in the environment")
	}

	rng := rand.New(rand.NewSource(opts.seed))
	client := openai.NewClient()

	if err := os.MkdirAll(filepath.Dir(opts.outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(opts.outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()
	enc := json.NewEncoder(out)

	for batchStart := 0; batchStart < opts.numLines; batchStart += opts.batchSize {
		batchEnd := batchStart + opts.batchSize
		if batchEnd > opts.numLines {
			batchEnd = opts.numLines
		}
		log.Printf("processing rows %d to %d...", batchStart+1, batchEnd)

		records, err := generateBatch(&client, opts, rng, batchStart, batchEnd)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("write record: %w", err)
			}
		}
		if err := out.Sync(); err != nil {
			return fmt.Errorf("flush output: %w", err)
		}
	}

	log.Printf("wrote %d lines to %s", opts.numLines, opts.outputPath)
	return nil
}

func generateBatch(client *openai.Client, opts generatorOptions, rng *rand.Rand, start, end int) ([]record, error) {
	// Persona sampling happens up front, single-threaded, so the record
	// layout is reproducible for a fixed seed even though completions run
	// concurrently.
	records := make([]record, end-start)
	prompts := make([][3]string, end-start)
	for i := range records {
		records[i], prompts[i] = sampleRow(opts.mode, start+i, rng)
	}

	sem := make(chan struct{}, opts.concurrent)
	var wg sync.WaitGroup
	errs := make([]error, len(records))
	for i := range records {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			slots := [3]*questionSlot{&records[i].Q1, &records[i].Q2, &records[i].Q3}
			for q, slot := range slots {
				answer, err := queryModel(client, opts, prompts[i][q])
				if err != nil {
					errs[i] = fmt.Errorf("row %d question %d: %w", records[i].Row, q+1, err)
					return
				}
				slot.Answer = answer
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return records, nil
}

// queryModel calls the chat-completions API with bounded exponential backoff
// and jitter. The attempt cap is hard: after maxAttempts failures the row is
// given up and the run aborts.
func queryModel(client *openai.Client, opts generatorOptions, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			sleep := time.Duration(float64(baseBackoff) * float64(int(1)<<attempt) * (1 + 0.2*rand.Float64()))
			time.Sleep(sleep)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model: openai.ChatModel(opts.model),
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			MaxTokens:   openai.Int(int64(opts.maxOutputTokens)),
			Temperature: openai.Float(opts.temperature),
		})
		cancel()
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = errors.New("empty response choices from model")
			continue
		}
		text := strings.TrimSpace(resp.Choices[0].Message.Content)
		if text == "" {
			lastErr = errors.New("empty response text from model")
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("model call failed after %d attempts: %w", maxAttempts, lastErr)
}
