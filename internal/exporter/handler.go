package exporter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/marocz/ece-exporter/internal/collect"
	"github.com/marocz/ece-exporter/internal/config"
	"github.com/marocz/ece-exporter/internal/ece"
	"github.com/marocz/ece-exporter/internal/metrics"
	"github.com/marocz/ece-exporter/internal/snapcache"
)

const description = "Prometheus exporter for the ECE platform administration API"

// resources is the fixed serving order of the two cached family groups.
var resources = []snapcache.Resource{snapcache.ResourceAllocators, snapcache.ResourceProxies}

// Handler serves /metrics, /health and the info root. It owns the aggregator
// and the snapshot cache; the cache is written only from the aggregator's
// cycle-completion callback and read here.
type Handler struct {
	agg     *collect.Aggregator
	cache   *snapcache.Cache
	self    *selfMetrics
	mux     *http.ServeMux
	version string

	mu          sync.RWMutex
	clusterName string
	eruCost     uint64
}

// New wires a Handler to the given upstream fetcher. The collection timeout
// is fixed at construction; the staleness ceiling, cluster name and ERU cost
// can be changed later via ApplyConfig.
func New(fetcher collect.Fetcher, cfg config.ExporterConfig, version string) *Handler {
	h := &Handler{
		cache:       snapcache.New(cfg.EffectiveStaleAfter()),
		self:        newSelfMetrics(),
		mux:         http.NewServeMux(),
		version:     version,
		clusterName: cfg.ClusterName,
		eruCost:     cfg.ERUCost,
	}
	h.agg = collect.New(fetcher, cfg.Timeout, h.onCycle)

	h.mux.HandleFunc("/metrics", h.metrics)
	h.mux.HandleFunc("/health", h.health)
	h.mux.HandleFunc("/", h.root) // catch-all — also serves the JSON 404

	return h
}

// ApplyConfig adopts the hot-reloadable settings from a freshly loaded
// config. Listen port, upstream URL, credentials and the collection timeout
// require a restart and are deliberately not touched here.
func (h *Handler) ApplyConfig(cfg *config.Config) {
	h.mu.Lock()
	h.clusterName = cfg.Exporter.ClusterName
	h.eruCost = cfg.Exporter.ERUCost
	h.mu.Unlock()

	h.cache.SetStaleAfter(cfg.Exporter.EffectiveStaleAfter())
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.mux.ServeHTTP(rec, r)
	h.self.httpRequests.WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(rec.status)).Inc()
}

// onCycle runs once per settled collection cycle. It normalizes whatever
// fetched successfully and updates the cache; failed resources only bump the
// failure counter, leaving the previous cached families in place.
func (h *Handler) onCycle(snap *collect.Snapshot) {
	h.self.cycles.Inc()
	opts := h.normalizeOptions(snap.FetchedAt)

	if snap.AllocatorsErr != nil {
		h.self.fetchFailures.WithLabelValues(string(snapcache.ResourceAllocators), ece.Reason(snap.AllocatorsErr)).Inc()
		slog.Warn("exporter: allocator fetch failed", "seq", snap.Seq, "err", snap.AllocatorsErr)
	} else {
		set := metrics.NormalizeAllocators(snap.Allocators, opts)
		if !h.cache.Update(snapcache.ResourceAllocators, set, snap.FetchedAt, snap.Seq) {
			slog.Debug("exporter: allocator update superseded by newer cycle", "seq", snap.Seq)
		}
	}

	if snap.ProxiesErr != nil {
		h.self.fetchFailures.WithLabelValues(string(snapcache.ResourceProxies), ece.Reason(snap.ProxiesErr)).Inc()
		slog.Warn("exporter: proxy fetch failed", "seq", snap.Seq, "err", snap.ProxiesErr)
	} else {
		set := metrics.NormalizeProxies(snap.Proxies, opts)
		if !h.cache.Update(snapcache.ResourceProxies, set, snap.FetchedAt, snap.Seq) {
			slog.Debug("exporter: proxy update superseded by newer cycle", "seq", snap.Seq)
		}
	}
}

func (h *Handler) normalizeOptions(now time.Time) metrics.Options {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return metrics.Options{
		ClusterName: h.clusterName,
		ERUCost:     h.eruCost,
		Now:         now,
	}
}

// --- route handlers ---------------------------------------------------------

// metrics serves GET /metrics: trigger or join a cycle, then serve every
// resource family that is fresh or cached within the staleness ceiling.
func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, err := h.agg.Collect(r.Context())
	if err != nil {
		// The scraper's own deadline won — serve whatever the cache has.
		// The cycle keeps running and updates the cache for the next scrape.
		slog.Warn("exporter: scrape deadline elapsed before cycle settled — serving cached data", "err", err)
	}
	up := err == nil && snap.Complete()

	var sets []metrics.MetricSet
	for _, res := range resources {
		if set, ok := h.cache.Fresh(res); ok {
			sets = append(sets, set)
			continue
		}
		if e, found := h.cache.Get(res); found {
			h.self.staleOmitted.WithLabelValues(string(res)).Inc()
			slog.Warn("exporter: cached families past staleness ceiling — omitting",
				"resource", res, "age", e.Age, "ceiling", h.cache.StaleAfter())
		}
	}

	if len(sets) == 0 {
		jsonErr(w, http.StatusServiceUnavailable, "no upstream data available")
		return
	}

	sets = append(sets, metrics.MetricSet{metrics.ClusterUpFamily(up)})
	fams := toMetricFamilies(sets...)
	if selfFams, gerr := h.self.registry.Gather(); gerr == nil {
		fams = append(fams, selfFams...)
	}

	format := expositionFormat()
	w.Header().Set("Content-Type", format)
	if werr := writeText(w, fams); werr != nil {
		slog.Error("exporter: rendering exposition failed", "err", werr)
	}
}

// health serves GET /health for liveness probes. It never touches upstream.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"msg": "Healthy"})
}

// root serves GET / with build information, and the JSON 404 for every
// unknown path.
func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		slog.Info("exporter: unknown path", "path", r.URL.Path)
		jsonErr(w, http.StatusNotFound, "HTTP 404 Not Found")
		return
	}
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{
		"name":        "ece-exporter",
		"version":     h.version,
		"description": description,
	})
}

// --- helpers ----------------------------------------------------------------

// statusRecorder captures the response status for the request counter.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// routeLabel collapses unknown paths into one label value so a port scan
// cannot blow up the counter's cardinality.
func routeLabel(path string) string {
	switch path {
	case "/metrics", "/health", "/":
		return path
	default:
		return "other"
	}
}

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, map[string]any{"error_code": code, "message": msg})
}
