package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestStoreCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := New(reg)

	s.IncCheckout("success")
	s.IncCheckout("success")
	s.IncStatusUpdate("payment", "accepted")
	s.AddExpired(3)
	s.IncRateLimited("")
	s.ObserveJob("expiry", time.Millisecond, errors.New("boom"))
	s.IncEvent("sunik.transaction.created", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.checkouts.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.statusUpdates.WithLabelValues("payment", "accepted")))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.expired))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.rateLimited.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.jobResult.WithLabelValues("expiry", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.eventsPublished.WithLabelValues("sunik.transaction.created", "success")))
}

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	assert.NotPanics(t, func() {
		s.IncCheckout("success")
		s.AddExpired(1)
		s.ObserveJob("x", time.Second, nil)
	})

	unregistered := New(nil)
	assert.NotPanics(t, func() { unregistered.IncRateLimited("api") })
}
