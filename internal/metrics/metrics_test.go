package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PublicView()
	m.PublicView()
	m.Response("accept", "ok")
	m.Response("accept", "already_responded")
	m.Response("accept", "ok")
	m.DocumentSent()
	m.Request("GET", "/public/proposal/:token", 200, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.publicViews))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.responses.WithLabelValues("accept", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.responses.WithLabelValues("accept", "already_responded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.documentsSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("GET", "/public/proposal/:token", "200")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PublicView()
		m.Response("reject", "ok")
		m.DocumentSent()
		m.Request("GET", "", 404, time.Millisecond)
	})
}
