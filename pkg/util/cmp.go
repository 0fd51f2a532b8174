package util

import "slices"

// EqualSlices compares a and b element-wise, in order.
func EqualSlices[T any](a, b []T, equal func(x, y T) bool) bool {
	return len(a) == len(b) && slices.EqualFunc(a, b, equal)
}

// Unzip splits pairs into two slices of the same length and order.
func Unzip[T, A, B any](pairs []T, split func(T) (A, B)) ([]A, []B) {
	as := make([]A, 0, len(pairs))
	bs := make([]B, 0, len(pairs))
	for _, p := range pairs {
		a, b := split(p)
		as = append(as, a)
		bs = append(bs, b)
	}
	return as, bs
}
