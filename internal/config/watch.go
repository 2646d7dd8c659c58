package config

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the config file and calls onChange with each successfully
// reloaded Config. Only the hot-reloadable settings (stale_after, eru_cost,
// cluster_name, log_level) take effect through onChange; changes to anything
// else are detected and logged as requiring a restart. current is the config
// the process started with, used as the comparison baseline.
//
// A reload that fails to parse or validate is logged and dropped; the running
// config stays active. Watch returns when ctx is cancelled.
func Watch(ctx context.Context, path string, current *Config, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("config: watching for changes", "path", path)
	prev := current

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Atomic saves replace the file via rename, which surfaces as a
			// create event, so both kinds trigger a reload.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			next, err := Load(path)
			if err != nil {
				slog.Error("config: reload rejected, keeping running config",
					"path", path, "err", err)
				continue
			}

			if fields := restartOnlyChanges(prev, next); len(fields) > 0 {
				slog.Warn("config: changed fields take effect only after restart",
					"fields", fields)
			}

			slog.Info("config: reloaded", "path", path)
			prev = next
			onChange(next)

			// The rename of an atomic save detaches the watch from the new
			// inode, so re-register the path.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("config: watcher error", "err", err)
		}
	}
}

// restartOnlyChanges lists the fields that differ between two configs but are
// fixed at process start: the listen port, the upstream URL and credentials,
// the collection timeout, TLS and inbound auth.
func restartOnlyChanges(prev, next *Config) []string {
	p, n := prev.Exporter, next.Exporter

	var fields []string
	if p.Port != n.Port {
		fields = append(fields, "exporter.port")
	}
	if p.URL != n.URL {
		fields = append(fields, "exporter.url")
	}
	if p.Timeout != n.Timeout {
		fields = append(fields, "exporter.timeout")
	}
	if p.Auth != n.Auth {
		fields = append(fields, "exporter.auth")
	}
	if p.TLS != n.TLS {
		fields = append(fields, "exporter.tls")
	}
	if p.InboundAuth != n.InboundAuth {
		fields = append(fields, "exporter.inbound_auth")
	}
	return fields
}
