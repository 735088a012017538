package main

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"voxlab/leanscope/leaning"
)

// qaField is one nested question/answer object of a generator record.
type qaField struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// generatorRecord matches the qa-generator output: one row with up to three
// nested question slots. Flat {question, answer} records are also accepted.
type generatorRecord struct {
	Q1       *qaField `json:"q1"`
	Q2       *qaField `json:"q2"`
	Q3       *qaField `json:"q3"`
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	ID       string   `json:"id"`
}

func readItems(path, textColumn string) ([]leaning.QAItem, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return readCSVItems(path, textColumn)
	default:
		return readJSONLItems(path)
	}
}

func readJSONLItems(path string) ([]leaning.QAItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var items []leaning.QAItem
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec generatorRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			// Skip unparseable lines rather than aborting a long run.
			continue
		}
		for _, q := range []*qaField{rec.Q1, rec.Q2, rec.Q3} {
			if q != nil && strings.TrimSpace(q.Answer) != "" {
				items = append(items, leaning.QAItem{Question: q.Question, Answer: q.Answer})
			}
		}
		if rec.Q1 == nil && rec.Q2 == nil && rec.Q3 == nil && strings.TrimSpace(rec.Answer) != "" {
			items = append(items, leaning.QAItem{ID: rec.ID, Question: rec.Question, Answer: rec.Answer})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func readCSVItems(path, textColumn string) ([]leaning.QAItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	col, err := resolveColumn(header, textColumn)
	if err != nil {
		return nil, err
	}

	var items []leaning.QAItem
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		text := strings.TrimSpace(row[col])
		if text == "" {
			continue
		}
		items = append(items, leaning.QAItem{Answer: text})
	}
	return items, nil
}

// resolveColumn accepts a header name or a #index reference; empty selects
// the first column.
func resolveColumn(header []string, spec string) (int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, nil
	}
	if strings.HasPrefix(spec, "#") {
		idx, err := strconv.Atoi(spec[1:])
		if err != nil || idx < 0 {
			return 0, fmt.Errorf("invalid column index %q", spec)
		}
		return idx, nil
	}
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), spec) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not found in header", spec)
}
