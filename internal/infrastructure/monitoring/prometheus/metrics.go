package prometheus

import (
	"strconv"
	"time"

	appmembership "github.com/turtacn/ClubDues/internal/application/membership"
	domain "github.com/turtacn/ClubDues/internal/domain/membership"
)

// Buckets.
var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultRollupDurationBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}
	DefaultSweepDurationBuckets  = []float64{.1, .5, 1, 5, 10, 30, 60, 300, 900}
)

// AppMetrics holds every metric the service records.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Reconciliation
	RegistrationsTotal      CounterVec
	SubmissionsTotal        CounterVec
	DecisionsTotal          CounterVec
	SideEffectFailuresTotal CounterVec
	StatusTransitionsTotal  CounterVec
	RollupDuration          HistogramVec

	// Sweep
	SweepRunsTotal        CounterVec
	SweepMembershipsTotal CounterVec
	SweepDuration         HistogramVec

	// Worker
	EventsConsumedTotal CounterVec

	// Health
	HealthCheckStatus GaugeVec
}

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "route", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "route")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.RegistrationsTotal = collector.RegisterCounter("membership_registrations_total", "Register calls by outcome", "result")
	m.SubmissionsTotal = collector.RegisterCounter("payment_submissions_total", "Payment submissions by outcome", "result")
	m.DecisionsTotal = collector.RegisterCounter("submission_decisions_total", "Admin decisions on submissions", "decision", "degraded")
	m.SideEffectFailuresTotal = collector.RegisterCounter("side_effect_failures_total", "Secondary writes that failed after the primary write", "side_effect")
	m.StatusTransitionsTotal = collector.RegisterCounter("membership_status_transitions_total", "Membership status changes", "from", "to")
	m.RollupDuration = collector.RegisterHistogram("rollup_duration_seconds", "Rollup recompute latency", DefaultRollupDurationBuckets)

	m.SweepRunsTotal = collector.RegisterCounter("sweep_runs_total", "Completed sweep runs", "result")
	m.SweepMembershipsTotal = collector.RegisterCounter("sweep_memberships_total", "Memberships visited by sweeps", "result")
	m.SweepDuration = collector.RegisterHistogram("sweep_duration_seconds", "Sweep run duration", DefaultSweepDurationBuckets)

	m.EventsConsumedTotal = collector.RegisterCounter("events_consumed_total", "Events handled by the worker", "topic", "result")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	return m
}

// ObserveRegistration implements the membership Metrics port.
func (m *AppMetrics) ObserveRegistration(created bool) {
	result := "reused"
	if created {
		result = "created"
	}
	m.RegistrationsTotal.WithLabelValues(result).Inc()
}

func (m *AppMetrics) ObserveSubmission(result string) {
	m.SubmissionsTotal.WithLabelValues(result).Inc()
}

func (m *AppMetrics) ObserveDecision(decision string, degraded bool) {
	m.DecisionsTotal.WithLabelValues(decision, strconv.FormatBool(degraded)).Inc()
}

func (m *AppMetrics) ObserveSideEffectFailure(name string) {
	m.SideEffectFailuresTotal.WithLabelValues(name).Inc()
}

func (m *AppMetrics) ObserveStatusChange(from, to domain.MembershipStatus) {
	m.StatusTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
}

func (m *AppMetrics) ObserveRollup(d time.Duration) {
	m.RollupDuration.WithLabelValues().Observe(d.Seconds())
}

func (m *AppMetrics) ObserveSweep(report *appmembership.SweepReport, d time.Duration) {
	m.SweepDuration.WithLabelValues().Observe(d.Seconds())
	if report == nil {
		m.SweepRunsTotal.WithLabelValues("aborted").Inc()
		return
	}
	result := "ok"
	if report.Failed > 0 {
		result = "partial"
	}
	m.SweepRunsTotal.WithLabelValues(result).Inc()
	m.SweepMembershipsTotal.WithLabelValues("scanned").Add(float64(report.Scanned))
	m.SweepMembershipsTotal.WithLabelValues("status_changed").Add(float64(report.StatusChanged))
	m.SweepMembershipsTotal.WithLabelValues("rollup_changed").Add(float64(report.RollupChanged))
	m.SweepMembershipsTotal.WithLabelValues("failed").Add(float64(report.Failed))
}

// RecordHTTPRequest records one finished request.  route is the matched
// route pattern, never the raw path, to bound label cardinality.
func (m *AppMetrics) RecordHTTPRequest(method, route string, statusCode int, d time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// InFlight increments the active request gauge and returns its decrement.
func (m *AppMetrics) InFlight(method string) func() {
	g := m.HTTPActiveRequests.WithLabelValues(method)
	g.Inc()
	return g.Dec
}

// RecordEvent counts a worker event by handling result.
func (m *AppMetrics) RecordEvent(topic string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventsConsumedTotal.WithLabelValues(topic, result).Inc()
}

// SetHealth records a component's health.
func (m *AppMetrics) SetHealth(component string, up bool) {
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

var _ appmembership.Metrics = (*AppMetrics)(nil)

//Personal.AI order the ending
