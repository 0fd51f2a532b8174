package nlu

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"What's the weather in Dublin?", []string{"what's", "the", "weather", "in", "dublin"}},
		{"  hello,world!  ", []string{"hello", "world"}},
		{"", nil},
		{"...", nil},
		{"set alarm for 7:30", []string{"set", "alarm", "for", "7", "30"}},
	}

	for _, tt := range tests {
		got := Tokenize(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("Tokenize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildVocabularyOrdersByFrequency(t *testing.T) {
	v := BuildVocabulary([]string{"b a", "a c", "a b"})

	want := map[string]int{"a": 1, "b": 2, "c": 3}
	for tok, id := range want {
		if got := v.ID(tok); got != id {
			t.Errorf("ID(%q) = %d, want %d", tok, got, id)
		}
	}
	if v.Size() != 4 {
		t.Errorf("Size() = %d, want 4", v.Size())
	}
	if v.ID("zzz") != PadID {
		t.Errorf("unknown token should map to PadID")
	}
}

func TestEncodeLength(t *testing.T) {
	v := BuildVocabulary([]string{"what is the weather in dublin"})

	sentences := []string{
		"",
		"weather",
		"what is the weather in dublin",
		"what is the weather in dublin today and tomorrow and the day after",
		"completely unseen words here",
	}
	for _, L := range []int{1, 3, 6, 10} {
		for _, s := range sentences {
			if got := len(v.Encode(s, L)); got != L {
				t.Errorf("len(Encode(%q, %d)) = %d", s, L, got)
			}
		}
	}
}

func TestEncodePadTruncate(t *testing.T) {
	v := BuildVocabulary([]string{"a b c d"})

	got := v.Encode("a b", 4)
	if want := (Sequence{1, 2, 0, 0}); !seqEqual(got, want) {
		t.Errorf("padded = %v, want %v", got, want)
	}

	got = v.Encode("a b c d", 2)
	if want := (Sequence{3, 4}); !seqEqual(got, want) {
		t.Errorf("truncated = %v, want %v", got, want)
	}

	got = v.Encode("a unknown d", 3)
	if want := (Sequence{1, 0, 4}); !seqEqual(got, want) {
		t.Errorf("unknown = %v, want %v", got, want)
	}

	for _, id := range v.Encode("", 5) {
		if id != PadID {
			t.Fatalf("empty sentence should encode to zeros")
		}
	}
}

func TestVocabularyJSON(t *testing.T) {
	v := BuildVocabulary([]string{"turn on the lamp", "turn off the lamp"})

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}

	var back Vocabulary
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if !v.Equal(&back) {
		t.Errorf("vocabulary changed over JSON: %s", data)
	}
}

func TestNewVocabularyRejectsSparseIDs(t *testing.T) {
	bad := []map[string]int{
		{"a": 0},
		{"a": 1, "b": 3},
		{"a": 1, "b": 1},
		{"": 1},
	}
	for _, ids := range bad {
		if _, err := NewVocabulary(ids); err == nil {
			t.Errorf("NewVocabulary(%v) should fail", ids)
		}
	}
}

func seqEqual(a, b Sequence) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
