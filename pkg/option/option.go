// Package option describes optional values.
package option

// Option represents an optional value.
// It either contains a value or it does not.
//
// This interface is modeled after github.com/sagikazarmark/go-option.Option
type Option[T any] interface {
	// HasValue returns true if the Option contains a value.
	HasValue() bool

	// Value returns the value (or its default) stored in the Option.
	Value() T
}

// ValueOr returns the value stored in o or def if o does not contain a value.
func ValueOr[T any](o Option[T], def T) T {
	if !o.HasValue() {
		return def
	}

	return o.Value()
}
