// Package outcome describes how a computation ended.
//
// An Outcome is a closed union over three kinds: Success carries the
// computed value, Failure carries a typed, expected error value, and
// Defect carries an untyped escaped failure such as a recovered panic.
// Outcomes are immutable; construct them with Succeed, Fail, or Die.
package outcome

import (
	"fmt"
	"runtime/debug"
)

// Kind identifies which variant an Outcome holds.
type Kind int

const (
	// KindSuccess marks an outcome carrying a value.
	KindSuccess Kind = iota
	// KindFailure marks an outcome carrying a typed error value.
	KindFailure
	// KindDefect marks an outcome carrying an untyped escaped failure.
	KindDefect
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindDefect:
		return "defect"
	default:
		return "unknown"
	}
}

// Defect is an untyped failure that escaped the typed error channel,
// typically a recovered panic. The stack is captured at construction.
type Defect struct {
	Value any
	Stack []byte
}

// Error implements error so defects compose with the errors package.
func (d *Defect) Error() string {
	return fmt.Sprintf("defect: %v", d.Value)
}

// Unwrap exposes the payload when it is itself an error.
func (d *Defect) Unwrap() error {
	if err, ok := d.Value.(error); ok {
		return err
	}
	return nil
}

// Outcome is the result of a computation with error type E and value
// type V. The zero value is a Success carrying V's zero value.
type Outcome[E, V any] struct {
	kind   Kind
	value  V
	err    E
	defect *Defect
}

// Succeed returns a Success outcome carrying v.
func Succeed[E, V any](v V) Outcome[E, V] {
	return Outcome[E, V]{kind: KindSuccess, value: v}
}

// Fail returns a Failure outcome carrying the typed error value e.
func Fail[E, V any](e E) Outcome[E, V] {
	return Outcome[E, V]{kind: KindFailure, err: e}
}

// Die returns a Defect outcome carrying cause. A *Defect cause is kept
// as-is so the original stack survives rethrows; any other cause gets
// the current stack attached.
func Die[E, V any](cause any) Outcome[E, V] {
	if d, ok := cause.(*Defect); ok {
		return Outcome[E, V]{kind: KindDefect, defect: d}
	}
	return Outcome[E, V]{kind: KindDefect, defect: &Defect{Value: cause, Stack: debug.Stack()}}
}

// Kind reports which variant o holds.
func (o Outcome[E, V]) Kind() Kind { return o.kind }

// IsSuccess reports whether o is a Success.
func (o Outcome[E, V]) IsSuccess() bool { return o.kind == KindSuccess }

// IsFailure reports whether o is a Failure.
func (o Outcome[E, V]) IsFailure() bool { return o.kind == KindFailure }

// IsDefect reports whether o is a Defect.
func (o Outcome[E, V]) IsDefect() bool { return o.kind == KindDefect }

// Value returns the success value when o is a Success.
func (o Outcome[E, V]) Value() (V, bool) {
	return o.value, o.kind == KindSuccess
}

// Err returns the typed error value when o is a Failure.
func (o Outcome[E, V]) Err() (E, bool) {
	return o.err, o.kind == KindFailure
}

// Cause returns the defect when o is a Defect.
func (o Outcome[E, V]) Cause() (*Defect, bool) {
	if o.kind != KindDefect {
		return nil, false
	}
	return o.defect, true
}

// String renders o for logs and test failures.
func (o Outcome[E, V]) String() string {
	switch o.kind {
	case KindFailure:
		return fmt.Sprintf("Failure(%v)", o.err)
	case KindDefect:
		return fmt.Sprintf("Defect(%v)", o.defect.Value)
	default:
		return fmt.Sprintf("Success(%v)", o.value)
	}
}

// Fold eliminates o by calling exactly one of the three functions and
// returning its result.
func Fold[E, V, R any](o Outcome[E, V], onSuccess func(V) R, onFailure func(E) R, onDefect func(*Defect) R) R {
	switch o.kind {
	case KindFailure:
		return onFailure(o.err)
	case KindDefect:
		return onDefect(o.defect)
	default:
		return onSuccess(o.value)
	}
}

// Run invokes fn and returns its outcome, converting a panic inside fn
// into a Defect outcome.
func Run[E, V any](fn func() Outcome[E, V]) (out Outcome[E, V]) {
	defer func() {
		if r := recover(); r != nil {
			out = Die[E, V](r)
		}
	}()
	return fn()
}
