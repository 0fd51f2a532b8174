// Package source talks to the external data providers used by the action
// handlers.
package source

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindNetwork Kind = iota
	KindNotFound
	KindDecode
	KindMissingData
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	case KindDecode:
		return "decode"
	case KindMissingData:
		return "missing_data"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is returned by every data source.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of a source error. Anything that is not a *Error
// counts as a network failure.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindNetwork
}
