package action

import (
	"errors"
	"fmt"
	log "log/slog"

	"azura/internal/source"
)

// Fallback sentences spoken when a handler step fails.
const (
	FallbackInsufficient = "Did not provide sufficient data"
	FallbackNotFound     = "Sorry, I couldn't find that place"
	FallbackUnavailable  = "Sorry, I couldn't get that information right now"
)

// DataSourceError is returned by a handler step. Step names the step that
// failed (location, fetch, parse, render).
type DataSourceError struct {
	Step string
	Kind source.Kind
	Err  error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Step, e.Kind, e.Err)
}

func (e *DataSourceError) Unwrap() error { return e.Err }

func stepErr(step string, err error) *DataSourceError {
	return &DataSourceError{Step: step, Kind: source.KindOf(err), Err: err}
}

func missing(step, what string) *DataSourceError {
	return &DataSourceError{Step: step, Kind: source.KindMissingData, Err: errors.New(what)}
}

// fallback picks the sentence for a failed request and logs the failure.
func fallback(intent string, err error) string {
	var de *DataSourceError
	if !errors.As(err, &de) {
		de = &DataSourceError{Step: "unknown", Kind: source.KindNetwork, Err: err}
	}

	log.Warn("Action failed, using fallback", "intent", intent, "step", de.Step, "kind", de.Kind, "err", de.Err)

	switch de.Kind {
	case source.KindMissingData:
		return FallbackInsufficient
	case source.KindNotFound:
		return FallbackNotFound
	default:
		return FallbackUnavailable
	}
}
