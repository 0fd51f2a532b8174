// Package assistant runs the client side of one interaction: classify the
// utterance on the server, dispatch the intent to its action, speak the result.
package assistant

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"sync"
	"time"

	"azura/internal/action"
	"azura/internal/tts"
	"azura/pkg/protocol"
)

// Classifier is satisfied by protocol.Client and protocol.WSClient.
type Classifier interface {
	Classify(ctx context.Context, text string) (protocol.ClassifyResponse, error)
}

type Assistant struct {
	classifier Classifier
	factory    *action.Factory
	speaker    tts.Speaker

	mu sync.Mutex
}

func New(c Classifier, f *action.Factory, s tts.Speaker) *Assistant {
	return &Assistant{classifier: c, factory: f, speaker: s}
}

// Cycle handles one utterance and returns the response that was spoken.
// Cycles never overlap; concurrent callers wait their turn.
func (a *Assistant) Cycle(ctx context.Context, utterance string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	started := time.Now()
	log.Info("Classifying", "text", utterance)

	resp, err := a.classifier.Classify(ctx, utterance)
	if err != nil {
		var pe *protocol.ProtocolError
		switch {
		case errors.Is(err, protocol.ErrTimeout):
			log.Error("Classification timed out", "err", err)
		case errors.As(err, &pe):
			log.Error("Bad classification exchange", "err", err)
		default:
			log.Error("Classification failed", "err", err)
		}
		return "", fmt.Errorf("classify: %w", err)
	}

	log.Info("Classified", "intent", resp.Intent, "entities", resp.Entities, "labels", resp.Labels)

	result, err := a.factory.Dispatch(ctx, resp.Intent, resp.Entities, resp.Labels)
	if errors.Is(err, action.ErrActionNotImplemented) {
		log.Warn("No action for intent", "intent", resp.Intent)
		result = resp.Intent + " action not implemented yet"
	} else if err != nil {
		return "", fmt.Errorf("dispatch: %w", err)
	}

	log.Info("Responding", "text", result, "took", time.Since(started))

	if err := a.speaker.Speak(ctx, result); err != nil {
		return result, fmt.Errorf("speak: %w", err)
	}
	return result, nil
}
