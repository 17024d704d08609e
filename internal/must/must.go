// Package must provides runtime assertions for invariants that should
// never be violated by valid input. A panic here indicates a bug in rung
// itself, not a user error.
package must

import "fmt"

// Bef panics if b is false.
func Bef(b bool, format string, args ...any) {
	if !b {
		panic(fmt.Errorf(format, args...))
	}
}

// NotBeBlankf panics if s is empty.
func NotBeBlankf(s string, format string, args ...any) {
	if s == "" {
		panic(fmt.Errorf(format, args...))
	}
}

// NotBeEmptyf panics if s has no elements.
func NotBeEmptyf[T any](s []T, format string, args ...any) {
	if len(s) == 0 {
		panic(fmt.Errorf(format, args...))
	}
}
