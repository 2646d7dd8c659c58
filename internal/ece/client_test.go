package ece

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// allocatorsBody is a trimmed-down but structurally faithful allocators
// response: one zone, one allocator, one instance with a pending plan.
const allocatorsBody = `{
  "zones": [
    {
      "zone_id": "us-east-1a",
      "allocators": [
        {
          "allocator_id": "alloc-0001",
          "zone_id": "us-east-1a",
          "host_ip": "10.0.0.15",
          "public_hostname": "10.0.0.15",
          "status": {"connected": true, "healthy": true, "maintenance_mode": false},
          "capacity": {"memory": {"total": 262144, "used": 65536}},
          "metadata": [{"key": "rack", "value": "r12"}],
          "instances": [
            {
              "cluster_type": "elasticsearch",
              "cluster_id": "a1b2c3",
              "cluster_name": "logging-prod",
              "instance_name": "instance-0000000001",
              "node_memory": 8192,
              "healthy": true,
              "moving": false,
              "instance_configuration_id": "data.default",
              "deployment_id": "d-0001",
              "plans_info": {"pending": true, "version": "8.6.2", "zone_count": 2},
              "unknown_future_field": {"ignored": true}
            }
          ]
        }
      ]
    }
  ]
}`

const proxiesBody = `{
  "proxies_count": 1,
  "proxies": [
    {
      "proxy_id": "proxy-0001",
      "proxy_ip": null,
      "public_hostname": "10.0.0.99",
      "healthy": true,
      "zone": "us-east-1a"
    }
  ]
}`

func newTestClient(t *testing.T, srv *httptest.Server, opts Options) *Client {
	t.Helper()
	opts.BaseURL = srv.URL
	c, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestFetchAllocators_Decodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/platform/infrastructure/allocators" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(allocatorsBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Username: "admin", Password: "secret"})
	doc, err := c.FetchAllocators(context.Background())
	if err != nil {
		t.Fatalf("FetchAllocators() error = %v", err)
	}

	if len(doc.Zones) != 1 {
		t.Fatalf("zones = %d, want 1", len(doc.Zones))
	}
	alloc := doc.Zones[0].Allocators[0]
	if alloc.PublicHostname != "10.0.0.15" {
		t.Errorf("hostname = %q", alloc.PublicHostname)
	}
	if !alloc.Status.Connected || !alloc.Status.Healthy {
		t.Errorf("status = %+v, want connected+healthy", alloc.Status)
	}
	if alloc.Capacity.Memory.Total != 262144 {
		t.Errorf("memory total = %d, want 262144", alloc.Capacity.Memory.Total)
	}

	inst := alloc.Instances[0]
	if inst.ClusterName == nil || *inst.ClusterName != "logging-prod" {
		t.Errorf("cluster name = %v, want logging-prod", inst.ClusterName)
	}
	if inst.PlansInfo == nil || !inst.PlansInfo.Pending {
		t.Errorf("plans info = %+v, want pending", inst.PlansInfo)
	}
	if inst.PlansInfo.ZoneCount == nil || *inst.PlansInfo.ZoneCount != 2 {
		t.Errorf("zone count = %v, want 2", inst.PlansInfo.ZoneCount)
	}
}

func TestFetchProxies_NullOptionalField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(proxiesBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Username: "admin", Password: "secret"})
	doc, err := c.FetchProxies(context.Background())
	if err != nil {
		t.Fatalf("FetchProxies() error = %v", err)
	}
	if doc.ProxiesCount != 1 || len(doc.Proxies) != 1 {
		t.Fatalf("proxies = %+v, want exactly one", doc)
	}
	if doc.Proxies[0].ProxyIP != nil {
		t.Errorf("proxy_ip = %v, want nil for JSON null", doc.Proxies[0].ProxyIP)
	}
}

func TestClient_APIKeyHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(proxiesBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{APIKey: "k3y", Username: "ignored", Password: "ignored"})
	if _, err := c.FetchProxies(context.Background()); err != nil {
		t.Fatalf("FetchProxies() error = %v", err)
	}
	if gotAuth != "ApiKey k3y" {
		t.Errorf("Authorization = %q, want ApiKey k3y (api key wins over basic auth)", gotAuth)
	}
}

func TestClient_BasicAuthHeader(t *testing.T) {
	var user, pass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ = r.BasicAuth()
		_, _ = w.Write([]byte(proxiesBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Username: "admin", Password: "s3cret"})
	if _, err := c.FetchProxies(context.Background()); err != nil {
		t.Fatalf("FetchProxies() error = %v", err)
	}
	if user != "admin" || pass != "s3cret" {
		t.Errorf("basic auth = %q/%q", user, pass)
	}
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
		reason string
	}{
		{"unauthorized", http.StatusUnauthorized, "{}", ErrAuth, "auth"},
		{"forbidden", http.StatusForbidden, "{}", ErrAuth, "auth"},
		{"server error", http.StatusInternalServerError, "{}", ErrTransport, "transport"},
		{"not found", http.StatusNotFound, "{}", ErrTransport, "transport"},
		{"bad json", http.StatusOK, "<html>gateway</html>", ErrDecode, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newTestClient(t, srv, Options{Username: "u", Password: "p"})
			_, err := c.FetchAllocators(context.Background())
			if !errors.Is(err, tt.want) {
				t.Fatalf("error = %v, want kind %v", err, tt.want)
			}
			if got := Reason(err); got != tt.reason {
				t.Errorf("Reason() = %q, want %q", got, tt.reason)
			}
		})
	}
}

func TestClient_DeadlineExceeded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(proxiesBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, Options{Username: "u", Password: "p"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.FetchProxies(ctx)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("error = %v, want ErrTimeout", err)
	}
	if got := Reason(err); got != "timeout" {
		t.Errorf("Reason() = %q, want timeout", got)
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	// A server that is already closed refuses connections.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: url, Username: "u", Password: "p"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = c.FetchAllocators(context.Background())
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("error = %v, want ErrTransport", err)
	}
}

func TestNew_RequiresBaseURL(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatal("New() with empty base url: expected error, got nil")
	}
}
