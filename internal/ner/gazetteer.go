package ner

import (
	"context"
	"regexp"
	"strings"
)

var (
	wordRe = regexp.MustCompile(`[\p{L}\p{N}'.-]+`)
	timeRe = regexp.MustCompile(`(?i)\b\d{1,2}(:\d{2})?\s?(am|pm)\b`)
	dateRe = regexp.MustCompile(`(?i)\b(today|tomorrow|tonight|yesterday)\b`)
)

// DefaultPlaces is the place list used when a Gazetteer is built without one.
var DefaultPlaces = []string{
	"Amsterdam", "Athens", "Bangkok", "Barcelona", "Beijing", "Belfast", "Berlin",
	"Boston", "Brussels", "Budapest", "Buenos Aires", "Cairo", "Chicago", "Copenhagen",
	"Cork", "Delhi", "Dubai", "Dublin", "Edinburgh", "Galway", "Hong Kong", "Istanbul",
	"Lisbon", "London", "Los Angeles", "Madrid", "Melbourne", "Mexico City", "Miami",
	"Milan", "Moscow", "Mumbai", "Munich", "New York", "Oslo", "Paris", "Prague", "Rome",
	"San Francisco", "Seoul", "Singapore", "Stockholm", "Sydney", "Tokyo", "Toronto",
	"Vancouver", "Vienna", "Warsaw", "Zurich",
	"Australia", "Canada", "China", "France", "Germany", "India", "Ireland", "Italy",
	"Japan", "Northern Ireland", "Poland", "Russia", "Spain", "United Kingdom",
	"United States",
}

// Gazetteer is a rule-based extractor: known place names become GPE, clock
// phrases TIME and relative day words DATE.
type Gazetteer struct {
	places   map[string]bool
	maxWords int
}

func NewGazetteer(places []string) *Gazetteer {
	if len(places) == 0 {
		places = DefaultPlaces
	}

	g := &Gazetteer{places: make(map[string]bool, len(places)), maxWords: 1}
	for _, p := range places {
		words := strings.Fields(strings.ToLower(p))
		if len(words) == 0 {
			continue
		}
		g.places[strings.Join(words, " ")] = true
		g.maxWords = max(g.maxWords, len(words))
	}
	return g
}

func (g *Gazetteer) Extract(_ context.Context, sentence string) ([]Entity, error) {
	var ents []Entity

	words := wordRe.FindAllStringIndex(sentence, -1)
	for i := 0; i < len(words); {
		n := g.matchPlace(sentence, words[i:])
		if n == 0 {
			i++
			continue
		}
		last := words[i+n-1]
		start, end := words[i][0], last[0]+len(strings.TrimRight(sentence[last[0]:last[1]], ".'"))
		ents = append(ents, Entity{Text: sentence[start:end], Label: LabelGPE, Start: start, End: end})
		i += n
	}

	for _, loc := range timeRe.FindAllStringIndex(sentence, -1) {
		ents = append(ents, Entity{Text: sentence[loc[0]:loc[1]], Label: LabelTime, Start: loc[0], End: loc[1]})
	}
	for _, loc := range dateRe.FindAllStringIndex(sentence, -1) {
		ents = append(ents, Entity{Text: sentence[loc[0]:loc[1]], Label: LabelDate, Start: loc[0], End: loc[1]})
	}

	return ordered(ents), nil
}

// matchPlace returns how many of words, longest first, form a known place.
func (g *Gazetteer) matchPlace(sentence string, words [][]int) int {
	for n := min(g.maxWords, len(words)); n > 0; n-- {
		parts := make([]string, n)
		for k := 0; k < n; k++ {
			w := sentence[words[k][0]:words[k][1]]
			parts[k] = strings.ToLower(strings.TrimRight(w, ".'"))
		}
		if g.places[strings.Join(parts, " ")] {
			return n
		}
	}
	return 0
}
