package nlu

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// PadID is the id used for padding and for tokens outside the vocabulary.
const PadID = 0

// Sequence is a sentence encoded to a fixed number of token ids.
type Sequence []int

// Vocabulary maps tokens to dense ids starting at 1.
type Vocabulary struct {
	ids map[string]int
}

// Tokenize lower-cases s and splits it on everything that is not a letter,
// digit or apostrophe.
func Tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'')
	})
}

// BuildVocabulary assigns ids by descending token frequency, ties broken by
// first appearance in the corpus.
func BuildVocabulary(corpus []string) *Vocabulary {
	counts := make(map[string]int)
	var order []string
	for _, sentence := range corpus {
		for _, tok := range Tokenize(sentence) {
			if _, ok := counts[tok]; !ok {
				order = append(order, tok)
			}
			counts[tok]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	ids := make(map[string]int, len(order))
	for i, tok := range order {
		ids[tok] = i + 1
	}
	return &Vocabulary{ids: ids}
}

// NewVocabulary wraps an existing token->id mapping after checking that the
// ids are dense and start at 1.
func NewVocabulary(ids map[string]int) (*Vocabulary, error) {
	seen := make([]bool, len(ids)+1)
	for tok, id := range ids {
		if tok == "" {
			return nil, fmt.Errorf("empty token")
		}
		if id < 1 || id > len(ids) {
			return nil, fmt.Errorf("token %q: id %d outside 1..%d", tok, id, len(ids))
		}
		if seen[id] {
			return nil, fmt.Errorf("token %q: duplicate id %d", tok, id)
		}
		seen[id] = true
	}

	cp := make(map[string]int, len(ids))
	for tok, id := range ids {
		cp[tok] = id
	}
	return &Vocabulary{ids: cp}, nil
}

// Size is the model input dimension: every id plus the padding id.
func (v *Vocabulary) Size() int {
	return len(v.ids) + 1
}

func (v *Vocabulary) Len() int {
	return len(v.ids)
}

// ID returns the id of tok, or PadID when it is unknown.
func (v *Vocabulary) ID(tok string) int {
	if id, ok := v.ids[tok]; ok {
		return id
	}
	return PadID
}

// Encode turns a sentence into exactly length ids. Unknown tokens become
// PadID in place; long sentences keep their last length tokens; short ones
// are right-padded.
func (v *Vocabulary) Encode(sentence string, length int) Sequence {
	if length <= 0 {
		return Sequence{}
	}

	toks := Tokenize(sentence)
	if len(toks) > length {
		toks = toks[len(toks)-length:]
	}

	seq := make(Sequence, length)
	for i, tok := range toks {
		seq[i] = v.ID(tok)
	}
	return seq
}

func (v *Vocabulary) Equal(o *Vocabulary) bool {
	if v == nil || o == nil {
		return v == o
	}
	if len(v.ids) != len(o.ids) {
		return false
	}
	for tok, id := range v.ids {
		if o.ids[tok] != id {
			return false
		}
	}
	return true
}

func (v *Vocabulary) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ids)
}

func (v *Vocabulary) UnmarshalJSON(data []byte) error {
	var ids map[string]int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	nv, err := NewVocabulary(ids)
	if err != nil {
		return err
	}
	*v = *nv
	return nil
}

// MaxSequenceLength is the token count of the longest sentence, at least 1.
func MaxSequenceLength(corpus []string) int {
	longest := 1
	for _, s := range corpus {
		if n := len(Tokenize(s)); n > longest {
			longest = n
		}
	}
	return longest
}
