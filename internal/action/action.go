// Package action turns a classified intent into a spoken response.
//
// Handlers are registered by intent name on a Factory built once at startup.
// Every dispatch builds a fresh handler, so handlers may keep per-request
// state without locking.
package action

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"math/rand/v2"
	"sort"

	"azura/internal/source"
)

var ErrActionNotImplemented = errors.New("action not implemented")

// NotImplementedError is returned by Resolve for intents without a handler.
type NotImplementedError struct {
	Intent string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("action not implemented: %q", e.Intent)
}

func (e *NotImplementedError) Is(target error) bool {
	return target == ErrActionNotImplemented
}

// Handler produces the response for one intent. PerformAction never fails:
// data errors are turned into a fallback sentence inside the handler.
type Handler interface {
	PerformAction(ctx context.Context, entities, labels []string) string
}

type Constructor func() Handler

// Picker returns an index in [0, n). It chooses between equivalent phrasings.
type Picker func(n int) int

// Deps are the collaborators shared by the built-in handlers.
type Deps struct {
	Weather         source.WeatherSource
	Clock           source.Clock
	DefaultLocation string
	Pick            Picker
}

type Factory struct {
	ctors map[string]Constructor
}

func NewFactory() *Factory {
	return &Factory{ctors: make(map[string]Constructor)}
}

// Default registers the built-in handlers under their intent names.
func Default(deps Deps) *Factory {
	if deps.Pick == nil {
		deps.Pick = rand.IntN
	}

	f := NewFactory()
	f.Register(IntentWeather, func() Handler { return newWeatherQueryAction(deps) })
	f.Register(IntentDatetime, func() Handler { return newDatetimeQueryAction(deps) })
	return f
}

// Register binds intent to ctor, replacing any previous binding.
func (f *Factory) Register(intent string, ctor Constructor) {
	f.ctors[intent] = ctor
}

func (f *Factory) Intents() []string {
	out := make([]string, 0, len(f.ctors))
	for in := range f.ctors {
		out = append(out, in)
	}
	sort.Strings(out)
	return out
}

// Resolve returns a new handler for intent.
func (f *Factory) Resolve(intent string) (Handler, error) {
	ctor, ok := f.ctors[intent]
	if !ok {
		return nil, &NotImplementedError{Intent: intent}
	}
	return ctor(), nil
}

// Dispatch resolves intent and returns the handler's response unchanged.
func (f *Factory) Dispatch(ctx context.Context, intent string, entities, labels []string) (string, error) {
	h, err := f.Resolve(intent)
	if err != nil {
		return "", err
	}

	log.Debug("Dispatching", "intent", intent, "entities", entities, "labels", labels)
	return h.PerformAction(ctx, entities, labels), nil
}
