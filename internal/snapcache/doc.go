// Package snapcache holds the most recent successfully-normalized metric
// families per upstream resource, so a scrape can still serve allocator or
// proxy data when the current collection cycle partially fails. Entries are
// replaced wholesale, guarded by a cycle sequence number, and served only
// while younger than the configured staleness ceiling.
package snapcache
