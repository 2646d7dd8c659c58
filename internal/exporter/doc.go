// Package exporter is the HTTP surface of the exporter. Each /metrics scrape
// triggers or joins one collection cycle, merges fresh families with cached
// ones that are still within the staleness ceiling, and renders the result in
// the Prometheus text exposition format. A scrape fails outright only when no
// usable data exists for any resource at all.
package exporter
