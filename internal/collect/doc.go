// Package collect runs collection cycles against the ECE admin API. A cycle
// fetches allocators and proxies in parallel under one deadline and records
// each outcome independently. Concurrent callers share a single in-flight
// cycle; the upstream is never queried twice at once for the same pair.
package collect
