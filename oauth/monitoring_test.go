package oauth

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewPrometheusCollector(reg)
	require.NoError(t, err)

	c.RecordAuthRequest("linkedin", true, 10*time.Millisecond)
	c.RecordTokenExchange("linkedin", false, 20*time.Millisecond)
	c.RecordTokenExchange("linkedin", true, 20*time.Millisecond)
	c.RecordError("linkedin", OperationExchange, "invalid_grant")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("linkedin", OperationAuthURL, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("linkedin", OperationExchange, "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues("linkedin", OperationExchange, "invalid_grant")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))

	_, err = NewPrometheusCollector(reg)
	assert.Error(t, err)
}

func TestServiceRecordsMetrics(t *testing.T) {
	server := newFakeLinkedIn(t)
	c, err := NewPrometheusCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	s := newTestService(t, testServiceConfig(server.URL), WithMetrics(c))
	ctx := context.Background()

	_, state, err := s.GetAuthURL(ctx)
	require.NoError(t, err)
	token, err := s.Exchange(ctx, "good-code", state)
	require.NoError(t, err)
	_, err = s.GetResourceOwner(ctx, token)
	require.NoError(t, err)

	_, err = s.Exchange(ctx, "good-code", state)
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("linkedin", OperationAuthURL, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("linkedin", OperationExchange, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("linkedin", OperationExchange, "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("linkedin", OperationResourceOwner, "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.errors.WithLabelValues("linkedin", OperationExchange, "invalid_state")))
}
