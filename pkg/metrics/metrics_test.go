package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordFinalization(t *testing.T) {
	updatedAt := time.Unix(1_700_000_000, 0)
	RecordFinalization("metrics-test", "capacity", 3, 101.5, updatedAt)

	assert.Equal(t, 1.0, testutil.ToFloat64(RoundsFinalizedTotal.WithLabelValues("metrics-test", "capacity")))
	assert.Equal(t, 101.5, testutil.ToFloat64(FeedAnswer.WithLabelValues("metrics-test")))
	assert.Equal(t, float64(updatedAt.Unix()), testutil.ToFloat64(FeedLastUpdate.WithLabelValues("metrics-test")))
}

func TestCounters(t *testing.T) {
	RecordSubmission("metrics-test", "accepted")
	RecordSubmission("metrics-test", "accepted")
	RecordSubmission("metrics-test", "duplicate")
	RecordRoundOpened("metrics-test")
	RecordStaleRollover("metrics-test")
	RecordRoundDiscarded("metrics-test")
	RecordEventDropped("metrics-test")

	assert.Equal(t, 2.0, testutil.ToFloat64(SubmissionsTotal.WithLabelValues("metrics-test", "accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(SubmissionsTotal.WithLabelValues("metrics-test", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RoundsOpenedTotal.WithLabelValues("metrics-test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(StaleRolloversTotal.WithLabelValues("metrics-test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RoundsDiscardedTotal.WithLabelValues("metrics-test")))
	assert.Equal(t, 1.0, testutil.ToFloat64(EventsDroppedTotal.WithLabelValues("metrics-test")))
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("/metrics-test", "200", 20*time.Millisecond)

	expected := `
# HELP http_requests_total Total number of HTTP requests
# TYPE http_requests_total counter
http_requests_total{endpoint="/metrics-test",status="200"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(HTTPRequestsTotal, strings.NewReader(expected)))
}
