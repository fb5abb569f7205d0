// Package stacktrace trims runtime stacks down to the frames of this module.
package stacktrace

import "strings"

// InternalPaths returns the "internal/<pkg>/<file>.go:<line>" location of
// every frame under an internal/ directory, innermost first.
func InternalPaths(stack []byte) []string {
	var paths []string
	for line := range strings.Lines(string(stack)) {
		loc, _, _ := strings.Cut(strings.TrimSpace(line), " +0x")
		if !strings.Contains(loc, ".go:") {
			continue
		}
		if i := strings.Index(loc, "/internal/"); i >= 0 {
			paths = append(paths, loc[i+1:])
		}
	}

	return paths
}
