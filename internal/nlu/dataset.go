package nlu

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadCorpus reads a CSV file whose header names a "sentence" and an
// "intent" column. Other columns are ignored, as are rows missing either.
func LoadCorpus(path string) ([]Example, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	examples, err := ReadCorpus(f)
	if err != nil {
		return nil, fmt.Errorf("read corpus %s: %w", path, err)
	}
	return examples, nil
}

func ReadCorpus(r io.Reader) ([]Example, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyCorpus
	}
	if err != nil {
		return nil, err
	}

	sentCol, intentCol := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "sentence":
			sentCol = i
		case "intent":
			intentCol = i
		}
	}
	if sentCol < 0 || intentCol < 0 {
		return nil, fmt.Errorf("header %v lacks sentence/intent columns", header)
	}

	var out []Example
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if sentCol >= len(rec) || intentCol >= len(rec) {
			continue
		}

		ex := Example{
			Sentence: strings.TrimSpace(rec[sentCol]),
			Intent:   strings.TrimSpace(rec[intentCol]),
		}
		if ex.Sentence == "" || ex.Intent == "" {
			continue
		}
		out = append(out, ex)
	}

	if len(out) == 0 {
		return nil, ErrEmptyCorpus
	}
	return out, nil
}
