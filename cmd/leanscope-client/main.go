// Command leanscope-client reads question/answer records from a JSONL or
// CSV file, sends them to a running leanscope server in batches and writes
// one merged JSON line per input item.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"voxlab/leanscope/leaning"
)

type cliOptions struct {
	serverURL  string
	inputPath  string
	outputPath string
	batchSize  int
	textColumn string
	timeout    time.Duration
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("leanscope-client: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("leanscope-client: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	flag.StringVar(&opts.serverURL, "server", "http://127.0.0.1:8000", "Base URL of the leanscope server")
	flag.StringVar(&opts.inputPath, "input", "", "JSONL or CSV file containing texts to classify")
	flag.StringVar(&opts.outputPath, "output", "", "JSONL file to write results (default: <input>_classified.jsonl)")
	flag.IntVar(&opts.batchSize, "batch-size", 64, "Number of items per API call")
	flag.StringVar(&opts.textColumn, "text-column", "", "Column name or #index holding the answer text (CSV inputs)")
	flag.DurationVar(&opts.timeout, "timeout", 60*time.Second, "HTTP timeout per batch")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --input FILE [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.serverURL = strings.TrimRight(strings.TrimSpace(opts.serverURL), "/")
	opts.inputPath = strings.TrimSpace(opts.inputPath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)

	if opts.inputPath == "" {
		flag.Usage()
		return opts, errors.New("missing required --input file")
	}
	if opts.batchSize <= 0 {
		return opts, errors.New("--batch-size must be positive")
	}
	if opts.outputPath == "" {
		base := strings.TrimSuffix(opts.inputPath, filepath.Ext(opts.inputPath))
		opts.outputPath = base + "_classified.jsonl"
	}
	return opts, nil
}

func run(opts cliOptions) error {
	items, err := readItems(opts.inputPath, opts.textColumn)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if len(items) == 0 {
		return errors.New("input file does not contain any texts")
	}

	if err := os.MkdirAll(filepath.Dir(opts.outputPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(opts.outputPath)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	client := &http.Client{Timeout: opts.timeout}
	endpoint := opts.serverURL + "/api/v1/analyze"
	enc := json.NewEncoder(out)

	written := 0
	for start := 0; start < len(items); start += opts.batchSize {
		end := start + opts.batchSize
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]
		result, err := postBatch(client, endpoint, batch)
		if err != nil {
			return fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		for _, item := range result.Items {
			if err := enc.Encode(item); err != nil {
				return fmt.Errorf("write result line: %w", err)
			}
			written++
		}
		log.Printf("classified %d/%d", end, len(items))
	}

	log.Printf("wrote %d results to %s", written, opts.outputPath)
	return nil
}

func postBatch(client *http.Client, endpoint string, batch []leaning.QAItem) (*leaning.BatchResult, error) {
	body, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("encode batch: %w", err)
	}
	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("post batch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}
	var result leaning.BatchResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &result, nil
}
