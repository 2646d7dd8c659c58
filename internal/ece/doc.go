// Package ece is the HTTP client for the ECE platform administration API.
// It fetches the allocator and proxy infrastructure documents, classifies
// failures into a small set of matchable error kinds, and decodes responses
// defensively — unknown fields are ignored and optional fields stay nil.
package ece
