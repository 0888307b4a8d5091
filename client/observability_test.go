package client_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/adamwoolhether/httpcli/client"
)

func gatherMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}

	return nil
}

// counterValue sums the counter samples of name whose labels include want.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, want map[string]string) float64 {
	t.Helper()

	mf := gatherMetric(t, reg, name)
	if mf == nil {
		return 0
	}

	var total float64
	for _, m := range mf.GetMetric() {
		labels := make(map[string]string)
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}

		match := true
		for k, v := range want {
			if labels[k] != v {
				match = false
				break
			}
		}
		if match {
			total += m.GetCounter().GetValue()
		}
	}

	return total
}

func TestClient_Metrics(t *testing.T) {
	small := []byte("tiny")
	large := bytes.Repeat([]byte("z"), 2048)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/large":
			_, _ = w.Write(large)
		case "/missing":
			http.NotFound(w, r)
		default:
			_, _ = w.Write(small)
		}
	}))
	defer ts.Close()

	base, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}

	reg := prometheus.NewRegistry()
	c, err := client.Build(
		client.WithMetrics(reg),
		client.WithMemoryLimit(1024),
		client.WithSpillDir(t.TempDir()),
	)
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	for _, path := range []string{"/small", "/large", "/missing"} {
		u := *base
		u.Path = path

		req, err := c.Request(t.Context(), &u, http.MethodGet)
		if err != nil {
			t.Fatalf("creating request: %v", err)
		}
		c.Execute(req).Delete()
	}

	if got := counterValue(t, reg, "httpcli_requests_total", map[string]string{"status": "200"}); got != 2 {
		t.Errorf("exp 2 requests with status 200, got %v", got)
	}
	if got := counterValue(t, reg, "httpcli_requests_total", map[string]string{"status": "404"}); got != 1 {
		t.Errorf("exp 1 request with status 404, got %v", got)
	}
	if got := counterValue(t, reg, "httpcli_response_bodies_total", map[string]string{"backing": "file"}); got != 1 {
		t.Errorf("exp 1 file backed body, got %v", got)
	}
	if got := counterValue(t, reg, "httpcli_response_bodies_total", map[string]string{"backing": "memory"}); got != 2 {
		t.Errorf("exp 2 memory backed bodies, got %v", got)
	}
	if got := counterValue(t, reg, "httpcli_body_spills_total", nil); got != 1 {
		t.Errorf("exp 1 spill, got %v", got)
	}

	_, err = client.Build(client.WithMetrics(reg))
	if err == nil {
		t.Error("exp error registering the same collectors twice")
	}
}

func TestClient_Tracing(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))
	defer ts.Close()

	testURL, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("parsing test server URL: %v", err)
	}

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	c, err := client.Build(client.WithTracerProvider(tp))
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}

	req, err := c.Request(t.Context(), testURL, http.MethodGet)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	c.Execute(req).Delete()

	var execSpan sdktrace.ReadOnlySpan
	var transportSpans int
	for _, s := range sr.Ended() {
		if s.Name() == "httpcli.Execute" {
			execSpan = s
			continue
		}
		transportSpans++
	}

	if execSpan == nil {
		t.Fatal("exp an httpcli.Execute span")
	}
	if transportSpans == 0 {
		t.Error("exp the transport to record a client span")
	}

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range execSpan.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if got := attrs["http.response.status_code"].AsInt64(); got != http.StatusTeapot {
		t.Errorf("exp status attribute %d, got %d", http.StatusTeapot, got)
	}
	if got := attrs["httpcli.body.backing"].AsString(); got != "memory" {
		t.Errorf("exp backing attribute memory, got %q", got)
	}
	if got := attrs["httpcli.body.size"].AsInt64(); got != 15 {
		t.Errorf("exp body size attribute 15, got %d", got)
	}
}
