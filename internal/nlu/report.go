package nlu

import (
	"fmt"
	"strings"
)

// ClassMetrics holds the scores of one intent on the evaluation split.
type ClassMetrics struct {
	Class     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report summarises a model's predictions on held out examples.
type Report struct {
	Accuracy  float64
	Precision float64 // macro average
	Recall    float64 // macro average
	F1        float64 // macro average
	Total     int
	Classes   []ClassMetrics
	Confusion [][]int // [truth][predicted]
}

func NewReport(labels LabelSet, truth, pred []int) *Report {
	n := labels.Len()
	r := &Report{
		Total:     len(truth),
		Confusion: make([][]int, n),
	}
	for i := range r.Confusion {
		r.Confusion[i] = make([]int, n)
	}

	var correct int
	for i := range truth {
		r.Confusion[truth[i]][pred[i]]++
		if truth[i] == pred[i] {
			correct++
		}
	}
	if r.Total > 0 {
		r.Accuracy = float64(correct) / float64(r.Total)
	}

	var present int
	for c := 0; c < n; c++ {
		tp := r.Confusion[c][c]
		var predicted, support int
		for k := 0; k < n; k++ {
			predicted += r.Confusion[k][c]
			support += r.Confusion[c][k]
		}

		m := ClassMetrics{Class: labels[c], Support: support}
		if predicted > 0 {
			m.Precision = float64(tp) / float64(predicted)
		}
		if support > 0 {
			m.Recall = float64(tp) / float64(support)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes = append(r.Classes, m)

		if support > 0 {
			present++
			r.Precision += m.Precision
			r.Recall += m.Recall
			r.F1 += m.F1
		}
	}
	if present > 0 {
		r.Precision /= float64(present)
		r.Recall /= float64(present)
		r.F1 /= float64(present)
	}

	return r
}

// String renders a per-class precision/recall/f1 table.
func (r *Report) String() string {
	width := len("macro avg")
	for _, c := range r.Classes {
		width = max(width, len(c.Class))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%*s %9s %9s %9s %9s\n", width, "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		if c.Support == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%*s %9.2f %9.2f %9.2f %9d\n", width, c.Class, c.Precision, c.Recall, c.F1, c.Support)
	}
	fmt.Fprintf(&sb, "\n%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Total)
	fmt.Fprintf(&sb, "%*s %9.2f %9.2f %9.2f %9d\n", width, "macro avg", r.Precision, r.Recall, r.F1, r.Total)
	return sb.String()
}
