// Package orany provides a value that may be wildcarded.
//
// OrAny is akin to an optional value, except that rather than "value or none"
// it represents "value or any value". The wildcard state is a pattern, not an absence:
// it contains every probe and compares equal to every other OrAny.
//
// As a consequence Equal is NOT an equivalence relation:
// Some(1) and Some(2) are both equal to Any(), but not to each other.
// Use Equal, EqualFunc or Matches for wildcard aware comparison.
// The == operator on two OrAny values compares their structure and does not know about wildcards.
package orany

import (
	"errors"
	"fmt"

	"github.com/distribution-auth/ruleauth/pkg/option"
)

// OrAny is either a concrete value or a wildcard matching any value.
//
// The zero value is the wildcard.
type OrAny[T any] struct {
	value T
	some  bool
}

var _ option.Option[struct{}] = OrAny[struct{}]{}

// Any returns a wildcard.
func Any[T any]() OrAny[T] {
	return OrAny[T]{}
}

// Some returns an OrAny holding v.
func Some[T any](v T) OrAny[T] {
	return OrAny[T]{value: v, some: true}
}

// ErrUnwrapAny is matched (using errors.Is) by the value Unwrap and Expect panic with.
var ErrUnwrapAny = errors.New("unwrap on any value")

// UnwrapError is the panic value of Unwrap and Expect when called on a wildcard.
type UnwrapError struct {
	msg string
}

func (e *UnwrapError) Error() string {
	return e.msg
}

// Is reports whether target is ErrUnwrapAny.
func (e *UnwrapError) Is(target error) bool {
	return target == ErrUnwrapAny
}

const unwrapMessage = "called `OrAny.Unwrap()` on an `Any` value"

// Ref returns a pointer to the held value or nil for a wildcard.
func (o *OrAny[T]) Ref() *T {
	if !o.some {
		return nil
	}

	return &o.value
}

// Get returns the held value and true, or the zero value and false for a wildcard.
func (o OrAny[T]) Get() (T, bool) {
	return o.value, o.some
}

// Replace stores v in o and returns the previous state.
func (o *OrAny[T]) Replace(v T) OrAny[T] {
	old := *o
	*o = Some(v)

	return old
}

// IsAny returns true for a wildcard.
func (o OrAny[T]) IsAny() bool {
	return !o.some
}

// IsSome returns true if o holds a concrete value.
func (o OrAny[T]) IsSome() bool {
	return o.some
}

// HasValue implements option.Option.
func (o OrAny[T]) HasValue() bool {
	return o.some
}

// Value implements option.Option.
// It returns the held value or the zero value of T for a wildcard.
func (o OrAny[T]) Value() T {
	return o.value
}

// Filter keeps the value if predicate returns true for it and returns a wildcard otherwise.
func (o OrAny[T]) Filter(predicate func(*T) bool) OrAny[T] {
	if o.some && predicate(&o.value) {
		return o
	}

	return Any[T]()
}

// Expect returns the held value.
//
// It panics with msg (as an *UnwrapError) for a wildcard.
func (o OrAny[T]) Expect(msg string) T {
	if !o.some {
		panic(&UnwrapError{msg: msg})
	}

	return o.value
}

// Unwrap returns the held value.
//
// It panics with an *UnwrapError for a wildcard.
// Use UnwrapOr or Get if o may be a wildcard.
func (o OrAny[T]) Unwrap() T {
	return o.Expect(unwrapMessage)
}

// UnwrapOr returns the held value or def for a wildcard.
func (o OrAny[T]) UnwrapOr(def T) T {
	if !o.some {
		return def
	}

	return o.value
}

// UnwrapOrDefault returns the held value or the zero value of T for a wildcard.
func (o OrAny[T]) UnwrapOrDefault() T {
	var def T

	return o.UnwrapOr(def)
}

// Matches compares o and other using eq for concrete values.
// A wildcard on either side always matches.
func (o OrAny[T]) Matches(other OrAny[T], eq func(a, b T) bool) bool {
	if !o.some || !other.some {
		return true
	}

	return eq(o.value, other.value)
}

func (o OrAny[T]) String() string {
	if !o.some {
		return Wildcard
	}

	return fmt.Sprint(o.value)
}

// AsRef returns an OrAny pointing at the value held by o.
func AsRef[T any](o *OrAny[T]) OrAny[*T] {
	if !o.some {
		return Any[*T]()
	}

	return Some(&o.value)
}

// AsMut returns an OrAny pointing at the value held by o.
// Writing through the pointer changes the value, but never the state of o.
func AsMut[T any](o *OrAny[T]) OrAny[*T] {
	return AsRef(o)
}

// Map applies f to the value held by o. A wildcard stays a wildcard.
func Map[T any, U any](o OrAny[T], f func(T) U) OrAny[U] {
	if !o.some {
		return Any[U]()
	}

	return Some(f(o.value))
}

// MapOr returns f applied to the value held by o or def for a wildcard.
func MapOr[T any, U any](o OrAny[T], def U, f func(T) U) U {
	if !o.some {
		return def
	}

	return f(o.value)
}

// Contains reports whether x is matched by o.
// A wildcard contains everything.
func Contains[T comparable](o OrAny[T], x T) bool {
	return ContainsFunc(o, x, equal[T])
}

// ContainsFunc is like Contains, but compares concrete values using eq.
func ContainsFunc[T any](o OrAny[T], x T, eq func(a, b T) bool) bool {
	if !o.some {
		return true
	}

	return eq(o.value, x)
}

// Equal reports whether a and b are equal.
// A wildcard on either side is equal to anything.
//
// Equal is symmetric, but not transitive.
func Equal[T comparable](a OrAny[T], b OrAny[T]) bool {
	return a.Matches(b, equal[T])
}

// EqualFunc is like Equal, but compares concrete values using eq.
func EqualFunc[T any](a OrAny[T], b OrAny[T], eq func(a, b T) bool) bool {
	return a.Matches(b, eq)
}

func equal[T comparable](a, b T) bool {
	return a == b
}
