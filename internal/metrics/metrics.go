package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Store records storefront business and job metrics. A nil *Store is a no-op.
type Store struct {
	checkouts       *prometheus.CounterVec
	statusUpdates   *prometheus.CounterVec
	expired         prometheus.Counter
	rateLimited     *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	jobResult       *prometheus.CounterVec
	eventsPublished *prometheus.CounterVec
}

// New registers the metrics on reg.
func New(reg prometheus.Registerer) *Store {
	if reg == nil {
		return &Store{}
	}
	s := &Store{
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_submissions_total",
			Help: "Checkout submissions by result.",
		}, []string{"result"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transaction_status_updates_total",
			Help: "Admin status updates by kind and target status.",
		}, []string{"kind", "status"}),
		expired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "transactions_expired_total",
			Help: "Unpaid transactions expired by the sweeper.",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limit_rejections_total",
			Help: "Requests rejected by the API rate limiter.",
		}, []string{"policy"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Duration of background jobs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		jobResult: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "job_runs_total",
			Help: "Background job runs by result.",
		}, []string{"job", "result"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Domain events handed to the broker by topic and result.",
		}, []string{"topic", "result"}),
	}
	reg.MustRegister(s.checkouts, s.statusUpdates, s.expired, s.rateLimited, s.jobDuration, s.jobResult, s.eventsPublished)
	return s
}

func (s *Store) IncCheckout(result string) {
	if s == nil || s.checkouts == nil {
		return
	}
	s.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
}

func (s *Store) IncStatusUpdate(kind, status string) {
	if s == nil || s.statusUpdates == nil {
		return
	}
	s.statusUpdates.WithLabelValues(normalizeLabel(kind), normalizeLabel(status)).Inc()
}

func (s *Store) AddExpired(n int64) {
	if s == nil || s.expired == nil || n <= 0 {
		return
	}
	s.expired.Add(float64(n))
}

func (s *Store) IncRateLimited(policy string) {
	if s == nil || s.rateLimited == nil {
		return
	}
	s.rateLimited.WithLabelValues(normalizeLabel(policy)).Inc()
}

// ObserveJob records one run of a background job.
func (s *Store) ObserveJob(job string, duration time.Duration, err error) {
	if s == nil || s.jobDuration == nil {
		return
	}
	job = normalizeLabel(job)
	s.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	s.jobResult.WithLabelValues(job, result).Inc()
}

func (s *Store) IncEvent(topic string, err error) {
	if s == nil || s.eventsPublished == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	s.eventsPublished.WithLabelValues(normalizeLabel(topic), result).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
