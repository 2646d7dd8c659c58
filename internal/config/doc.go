// Package config loads and validates the exporter configuration from a YAML
// file. Secrets are never stored in the file itself — they are resolved from
// environment variables at use time. Watch provides hot-reload of the
// settings that are safe to change while running.
package config
