package action

import "azura/internal/ner"

// locationOf returns the first entity labelled as a place.
func locationOf(entities, labels []string) (string, bool) {
	n := min(len(entities), len(labels))
	for i := 0; i < n; i++ {
		switch labels[i] {
		case ner.LabelGPE, ner.LabelLOC:
			if entities[i] != "" {
				return entities[i], true
			}
		}
	}
	return "", false
}
