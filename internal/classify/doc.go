// Package classify maps media attributes onto extra directory levels.
//
// Three independent axes are evaluated in a fixed order: series, year and
// score. Each produces at most one Segment. A movie that lands in a series
// directory is never additionally sorted by score. Compose inserts the
// produced segments directly above the filename; with no segments the
// original path is returned unchanged.
//
// Everything here is pure computation over values. Callers may classify
// concurrently with a shared Config.
package classify
