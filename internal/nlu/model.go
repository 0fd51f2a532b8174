package nlu

import (
	"fmt"
	"math"
	"sort"
)

// Model is a bag-of-words softmax classifier. Weights is classes x inputs,
// where inputs is the vocabulary size including the padding id.
type Model struct {
	Weights [][]float64
	Bias    []float64
}

func NewModel(inputs, classes int) *Model {
	w := make([][]float64, classes)
	for c := range w {
		w[c] = make([]float64, inputs)
	}
	return &Model{Weights: w, Bias: make([]float64, classes)}
}

func (m *Model) Inputs() int {
	if len(m.Weights) == 0 {
		return 0
	}
	return len(m.Weights[0])
}

func (m *Model) Classes() int {
	return len(m.Weights)
}

func (m *Model) validate() error {
	if m.Classes() == 0 {
		return fmt.Errorf("model has no classes")
	}
	if len(m.Bias) != m.Classes() {
		return fmt.Errorf("bias size %d, want %d", len(m.Bias), m.Classes())
	}
	in := m.Inputs()
	for c, row := range m.Weights {
		if len(row) != in {
			return fmt.Errorf("weight row %d has %d inputs, want %d", c, len(row), in)
		}
	}
	return nil
}

type feature struct {
	id int
	x  float64
}

// features returns the normalised term frequencies of the non-padding ids,
// ordered by id. Ids the model has no column for are ignored.
func (m *Model) features(seq Sequence) []feature {
	counts := make(map[int]int, len(seq))
	var n int
	in := m.Inputs()
	for _, id := range seq {
		if id <= PadID || id >= in {
			continue
		}
		counts[id]++
		n++
	}

	f := make([]feature, 0, len(counts))
	for id, c := range counts {
		f = append(f, feature{id: id, x: float64(c) / float64(n)})
	}
	sort.Slice(f, func(i, j int) bool { return f[i].id < f[j].id })
	return f
}

func (m *Model) logits(f []feature) []float64 {
	out := make([]float64, m.Classes())
	for c, row := range m.Weights {
		z := m.Bias[c]
		for _, ft := range f {
			z += row[ft.id] * ft.x
		}
		out[c] = z
	}
	return out
}

// Probabilities is the softmax distribution over classes for seq.
func (m *Model) Probabilities(seq Sequence) []float64 {
	return softmax(m.logits(m.features(seq)))
}

// Predict returns the most probable class id; ties go to the lowest id.
func (m *Model) Predict(seq Sequence) int {
	return argmax(m.logits(m.features(seq)))
}

func softmax(z []float64) []float64 {
	maxZ := math.Inf(-1)
	for _, v := range z {
		maxZ = math.Max(maxZ, v)
	}
	out := make([]float64, len(z))
	var sum float64
	for i, v := range z {
		out[i] = math.Exp(v - maxZ)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
