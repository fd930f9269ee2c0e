package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	r := NewPrometheusRecorder()

	r.ObserveTool("updateWorkloadRequirements", nil, 10*time.Millisecond)
	r.ObserveTool("updateWorkloadRequirements", errors.New("bad"), time.Millisecond)
	r.ObserveTool("generateArchitecturePlans", nil, time.Second)
	r.ObservePhase("collecting-requirements", "generating-architectures")
	r.ObserveGeneration("gemini/gemini-2.5-flash", 3, nil, 2*time.Second)
	r.ObserveChatTurn(4, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolInvocations.WithLabelValues("updateWorkloadRequirements", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.toolInvocations.WithLabelValues("updateWorkloadRequirements", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.phaseTransitions.WithLabelValues("collecting-requirements", "generating-architectures")))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "cloudarchitect_tool_invocations_total")
	assert.Contains(t, body, "cloudarchitect_architecture_generation_duration_seconds")
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	r.ObserveTool("x", nil, 0)
	r.ObserveGeneration("m", 0, nil, 0)
	r.ObservePhase("a", "b")
	r.ObserveChatTurn(1, nil)
}
