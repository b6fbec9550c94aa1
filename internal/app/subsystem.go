// Package app assembles the independently constructed subsystems of the service.
package app

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks a subsystem that failed to start
var ErrUnavailable = errors.New("service unavailable")

// Subsystem is either an available value or the error that prevented its construction
type Subsystem[T any] struct {
	name  string
	value T
	err   error
	ready bool
}

// Available wraps a constructed value
func Available[T any](name string, v T) Subsystem[T] {
	return Subsystem[T]{name: name, value: v, ready: true}
}

// Unavailable records why a subsystem could not be constructed
func Unavailable[T any](name string, err error) Subsystem[T] {
	if err == nil {
		err = errors.New("not configured")
	}
	return Subsystem[T]{name: name, err: err}
}

// Get returns the value, or an error wrapping ErrUnavailable
func (s Subsystem[T]) Get() (T, error) {
	if !s.ready {
		var zero T
		return zero, fmt.Errorf("%w: %s: %v", ErrUnavailable, s.name, s.err)
	}
	return s.value, nil
}

// Ready reports whether the subsystem is available
func (s Subsystem[T]) Ready() bool { return s.ready }

// Name returns the subsystem name
func (s Subsystem[T]) Name() string { return s.name }

// Err returns the construction error, nil when available
func (s Subsystem[T]) Err() error { return s.err }
