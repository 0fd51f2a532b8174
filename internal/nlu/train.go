package nlu

import (
	"errors"
	"fmt"
	log "log/slog"
	"math"
	"math/rand/v2"
)

var ErrEmptyCorpus = errors.New("empty training corpus")

// Example is one labelled training row.
type Example struct {
	Sentence string
	Intent   string
}

type TrainOptions struct {
	Epochs       int
	LearningRate float64
	BatchSize    int
	L2           float64
	TestSplit    float64
	Seed         uint64
}

func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:       30,
		LearningRate: 0.5,
		BatchSize:    32,
		L2:           1e-4,
		TestSplit:    0.2,
		Seed:         10,
	}
}

func (o *TrainOptions) fill() {
	d := DefaultTrainOptions()
	if o.Epochs <= 0 {
		o.Epochs = d.Epochs
	}
	if o.LearningRate <= 0 {
		o.LearningRate = d.LearningRate
	}
	if o.BatchSize <= 0 {
		o.BatchSize = d.BatchSize
	}
	if o.L2 < 0 {
		o.L2 = 0
	}
	if o.TestSplit < 0 || o.TestSplit >= 1 {
		o.TestSplit = d.TestSplit
	}
}

type Result struct {
	Bundle *Bundle
	Report *Report
}

// Train builds the vocabulary and label set, fits a model on the training
// split and evaluates it on the held out test split. The same examples and
// options always produce the same bundle.
func Train(examples []Example, opts TrainOptions) (*Result, error) {
	opts.fill()

	rows := make([]Example, 0, len(examples))
	for _, ex := range examples {
		if ex.Sentence == "" || ex.Intent == "" {
			continue
		}
		rows = append(rows, ex)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCorpus
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

	nTest := int(math.Round(float64(len(rows)) * opts.TestSplit))
	if nTest >= len(rows) {
		nTest = len(rows) - 1
	}
	train, test := rows[:len(rows)-nTest], rows[len(rows)-nTest:]

	sentences := make([]string, 0, len(rows))
	intents := make([]string, 0, len(rows))
	for _, ex := range rows {
		sentences = append(sentences, ex.Sentence)
		intents = append(intents, ex.Intent)
	}
	trainSentences := sentences[:len(train)]

	vocab := BuildVocabulary(trainSentences)
	labels := FitLabels(intents)
	maxSeq := MaxSequenceLength(sentences)

	log.Info("Training intent model",
		"examples", len(rows), "train", len(train), "test", len(test),
		"vocab", vocab.Len(), "classes", labels.Len(), "max_seq_size", maxSeq)

	xs, ys, err := encodeExamples(train, vocab, labels, maxSeq)
	if err != nil {
		return nil, err
	}

	model := NewModel(vocab.Size(), labels.Len())
	fit(model, xs, ys, opts, rng)

	b := &Bundle{Model: model, Vocabulary: vocab, Labels: labels, MaxSeqSize: maxSeq}

	eval := test
	if len(eval) == 0 {
		eval = train
	}
	report, err := Evaluate(b, eval)
	if err != nil {
		return nil, err
	}

	return &Result{Bundle: b, Report: report}, nil
}

func encodeExamples(rows []Example, vocab *Vocabulary, labels LabelSet, maxSeq int) ([][]feature, []int, error) {
	xs := make([][]feature, len(rows))
	ys := make([]int, len(rows))
	probe := &Model{Weights: [][]float64{make([]float64, vocab.Size())}}
	for i, ex := range rows {
		y, err := labels.Encode(ex.Intent)
		if err != nil {
			return nil, nil, err
		}
		xs[i] = probe.features(vocab.Encode(ex.Sentence, maxSeq))
		ys[i] = y
	}
	return xs, ys, nil
}

// fit runs mini-batch SGD on the softmax cross-entropy loss.
func fit(m *Model, xs [][]feature, ys []int, opts TrainOptions, rng *rand.Rand) {
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}

	classes := m.Classes()
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

		var loss float64
		for start := 0; start < len(order); start += opts.BatchSize {
			end := min(start+opts.BatchSize, len(order))
			batch := order[start:end]

			gradW := make(map[int][]float64)
			gradB := make([]float64, classes)
			var touched []int

			for _, idx := range batch {
				p := softmax(m.logits(xs[idx]))
				loss -= math.Log(math.Max(p[ys[idx]], 1e-12))
				p[ys[idx]] -= 1

				for c := 0; c < classes; c++ {
					gradB[c] += p[c]
				}
				for _, ft := range xs[idx] {
					g, ok := gradW[ft.id]
					if !ok {
						g = make([]float64, classes)
						gradW[ft.id] = g
						touched = append(touched, ft.id)
					}
					for c := 0; c < classes; c++ {
						g[c] += p[c] * ft.x
					}
				}
			}

			scale := opts.LearningRate / float64(len(batch))
			for c := 0; c < classes; c++ {
				m.Bias[c] -= scale * gradB[c]
			}
			for _, id := range touched {
				g := gradW[id]
				for c := 0; c < classes; c++ {
					w := m.Weights[c][id]
					m.Weights[c][id] = w - scale*g[c] - opts.LearningRate*opts.L2*w
				}
			}
		}

		log.Debug("Epoch done", "epoch", epoch+1, "loss", loss/float64(len(order)))
	}
}

// Evaluate predicts every example with b and builds a classification report.
func Evaluate(b *Bundle, examples []Example) (*Report, error) {
	truth := make([]int, 0, len(examples))
	pred := make([]int, 0, len(examples))
	for _, ex := range examples {
		y, err := b.Labels.Encode(ex.Intent)
		if err != nil {
			return nil, fmt.Errorf("evaluate: %w", err)
		}
		truth = append(truth, y)
		pred = append(pred, b.Model.Predict(b.Vocabulary.Encode(ex.Sentence, b.MaxSeqSize)))
	}
	return NewReport(b.Labels, truth, pred), nil
}
