package domain

// Outcome is the result of a fail-soft operation: either a value or Empty.
// An Empty outcome keeps its cause so callers can log it; the view state only
// ever sees the value or its zero.
type Outcome[T any] struct {
	value T
	ok    bool
	err   error
}

// Success wraps a value.
func Success[T any](v T) Outcome[T] {
	return Outcome[T]{value: v, ok: true}
}

// Empty records a failed or empty result. err may be nil for a legitimately
// empty answer.
func Empty[T any](err error) Outcome[T] {
	return Outcome[T]{err: err}
}

// Get returns the value and whether the outcome succeeded.
func (o Outcome[T]) Get() (T, bool) { return o.value, o.ok }

// OrZero returns the value, or T's zero value when empty.
func (o Outcome[T]) OrZero() T { return o.value }

// OK reports success.
func (o Outcome[T]) OK() bool { return o.ok }

// Err is the cause of an empty outcome.
func (o Outcome[T]) Err() error { return o.err }

// Label is used as a metrics label.
func (o Outcome[T]) Label() string {
	switch {
	case o.ok:
		return "success"
	case o.err != nil:
		return "error"
	default:
		return "empty"
	}
}
