package nlu

import (
	"errors"
	"fmt"
)

var (
	ErrClassOutOfRange = errors.New("class id out of range")
	ErrUnknownLabel    = errors.New("unknown label")
)

// LabelSet is the ordered set of intent names; the index is the class id.
type LabelSet []string

// FitLabels keeps the first occurrence of every intent, in order.
func FitLabels(intents []string) LabelSet {
	seen := make(map[string]bool, len(intents))
	var out LabelSet
	for _, in := range intents {
		if seen[in] {
			continue
		}
		seen[in] = true
		out = append(out, in)
	}
	return out
}

func (ls LabelSet) Len() int { return len(ls) }

func (ls LabelSet) Encode(intent string) (int, error) {
	for i, l := range ls {
		if l == intent {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownLabel, intent)
}

func (ls LabelSet) Decode(id int) (string, error) {
	if id < 0 || id >= len(ls) {
		return "", fmt.Errorf("%w: %d not in [0,%d)", ErrClassOutOfRange, id, len(ls))
	}
	return ls[id], nil
}

func (ls LabelSet) validate() error {
	if len(ls) == 0 {
		return errors.New("empty label set")
	}
	seen := make(map[string]bool, len(ls))
	for i, l := range ls {
		if l == "" {
			return fmt.Errorf("label %d is empty", i)
		}
		if seen[l] {
			return fmt.Errorf("duplicate label %q", l)
		}
		seen[l] = true
	}
	return nil
}
