// Package slices contains generic helpers missing from golang.org/x/exp/slices.
package slices

// Map returns a new slice containing the results of applying fn to each element of s.
func Map[S ~[]E, E any, R any](s S, fn func(E) R) []R {
	if s == nil {
		return nil
	}

	result := make([]R, 0, len(s))

	for _, v := range s {
		result = append(result, fn(v))
	}

	return result
}

// Filter returns the elements of s for which keep returns true.
func Filter[S ~[]E, E any](s S, keep func(E) bool) S {
	var result S

	for _, v := range s {
		if keep(v) {
			result = append(result, v)
		}
	}

	return result
}
