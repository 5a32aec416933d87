package patterntree

import (
	"strings"
)

// joinFunc returns the elements of xs formatted with f and
// separated by sep.
func joinFunc[T any](xs []T, sep string, f func(T) string) string {
	var buf strings.Builder
	for i, x := range xs {
		if i > 0 {
			buf.WriteString(sep)
		}
		buf.WriteString(f(x))
	}
	return buf.String()
}
