package classify

import "path/filepath"

// Result is the outcome of one classification run.
type Result struct {
	Segments []Segment
	Path     string
}

// Changed reports whether the path gained any directory level.
func (r Result) Changed() bool {
	return len(r.Segments) > 0
}

// Evaluate runs every rule in order and returns the segments that fired.
func Evaluate(a Attributes, cfg Config) []Segment {
	var segments []Segment
	for _, rule := range Rules {
		if seg, ok := rule.Apply(a, cfg); ok {
			segments = append(segments, seg)
		}
	}
	return segments
}

// Compose inserts segments between the directory and the filename of
// original. With no segments original is returned untouched.
func Compose(original string, segments []Segment) string {
	if len(segments) == 0 {
		return original
	}
	dir, file := filepath.Split(original)
	parts := []string{dir}
	for _, seg := range segments {
		parts = append(parts, seg.Dirs...)
	}
	parts = append(parts, file)
	return filepath.Join(parts...)
}

// Classify evaluates the rules for a and rewrites original accordingly.
func Classify(a Attributes, cfg Config, original string) Result {
	segments := Evaluate(a, cfg)
	return Result{Segments: segments, Path: Compose(original, segments)}
}
