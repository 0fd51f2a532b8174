package nlu

import (
	"errors"
	"testing"
)

func TestFitLabelsFirstSeen(t *testing.T) {
	ls := FitLabels([]string{"weather_query", "greet", "weather_query", "datetime_query", "greet"})

	want := []string{"weather_query", "greet", "datetime_query"}
	if ls.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", ls.Len(), len(want))
	}
	for i, name := range want {
		id, err := ls.Encode(name)
		if err != nil || id != i {
			t.Errorf("Encode(%q) = %d, %v; want %d", name, id, err, i)
		}
		got, err := ls.Decode(i)
		if err != nil || got != name {
			t.Errorf("Decode(%d) = %q, %v; want %q", i, got, err, name)
		}
	}
}

func TestLabelSetErrors(t *testing.T) {
	ls := FitLabels([]string{"a", "b"})

	for _, id := range []int{-1, 2, 100} {
		if _, err := ls.Decode(id); !errors.Is(err, ErrClassOutOfRange) {
			t.Errorf("Decode(%d) err = %v, want ErrClassOutOfRange", id, err)
		}
	}
	if _, err := ls.Encode("c"); !errors.Is(err, ErrUnknownLabel) {
		t.Errorf("Encode(c) err = %v, want ErrUnknownLabel", err)
	}
}
