// Package metrics turns decoded ECE infrastructure documents into flat,
// render-ready metric families. The transform is pure and deterministic:
// the same document and options always produce the same MetricSet, in the
// same order, with no I/O and no shared state.
package metrics
