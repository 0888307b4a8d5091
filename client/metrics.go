package client

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/adamwoolhether/httpcli/client/content"
)

// metrics holds the client collectors. A nil *metrics records nothing.
type metrics struct {
	requests  *prometheus.CounterVec
	bodies    *prometheus.CounterVec
	spills    prometheus.Counter
	bodyBytes prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "httpcli_requests_total",
			Help: "Total executed requests by response status (\"error\" when no response arrived)",
		}, []string{"status"}),
		bodies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "httpcli_response_bodies_total",
			Help: "Total materialized response bodies by backing storage",
		}, []string{"backing"}),
		spills: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "httpcli_body_spills_total",
			Help: "Total response bodies that exceeded the memory limit and spilled to disk",
		}),
		bodyBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "httpcli_response_body_bytes_total",
			Help: "Total bytes of materialized response bodies",
		}),
	}

	for _, c := range []prometheus.Collector{m.requests, m.bodies, m.spills, m.bodyBytes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *metrics) observeResponse(res *Response) {
	if m == nil {
		return
	}

	status := "error"
	if res.StatusCode != 0 {
		status = strconv.Itoa(res.StatusCode)
	}
	m.requests.WithLabelValues(status).Inc()
}

func (m *metrics) observeBody(body *content.Content, spilled bool) {
	if m == nil {
		return
	}

	backing := body.Kind().String()
	if body.IsEmpty() {
		backing = "empty"
	}
	m.bodies.WithLabelValues(backing).Inc()
	m.bodyBytes.Add(float64(body.Size()))

	if spilled {
		m.spills.Inc()
	}
}
