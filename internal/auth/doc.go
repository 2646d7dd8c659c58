// Package auth provides optional API-key authentication for the exporter's
// own HTTP surface.
package auth
