// Package ner holds the entity extractors consulted by the classification
// service after an intent has been predicted.
package ner

import (
	"context"
	"errors"
	log "log/slog"
	"sort"
)

// Entity is a labelled span of the input sentence. Start and End are byte
// offsets, End exclusive.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Labels used by the built-in extractors. They follow the OntoNotes names
// the action handlers look for.
const (
	LabelGPE  = "GPE"
	LabelLOC  = "LOC"
	LabelTime = "TIME"
	LabelDate = "DATE"
)

// Extractor returns the entities of a sentence in order of appearance.
type Extractor interface {
	Extract(ctx context.Context, sentence string) ([]Entity, error)
}

// Chain asks each extractor in turn and returns the first successful answer.
type Chain []Extractor

func (c Chain) Extract(ctx context.Context, sentence string) ([]Entity, error) {
	if len(c) == 0 {
		return nil, errors.New("no extractors configured")
	}

	var err error
	for i, ex := range c {
		var ents []Entity
		ents, err = ex.Extract(ctx, sentence)
		if err == nil {
			return ents, nil
		}
		log.Warn("Entity extractor failed", "index", i, "err", err)
	}
	return nil, err
}

// ordered sorts by start offset and drops spans overlapping an earlier one.
func ordered(ents []Entity) []Entity {
	sort.SliceStable(ents, func(i, j int) bool {
		if ents[i].Start != ents[j].Start {
			return ents[i].Start < ents[j].Start
		}
		return ents[i].End > ents[j].End
	})

	out := ents[:0]
	end := -1
	for _, e := range ents {
		if e.Start < end {
			continue
		}
		out = append(out, e)
		end = e.End
	}
	return out
}
