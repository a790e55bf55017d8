package services

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Movement kinds for withdrawal funds parked in and released from
// pendingBalance. Other movements are labelled with their transaction type.
const (
	movementWithdrawHold    = "withdraw_hold"
	movementWithdrawRelease = "withdraw_release"
)

// Metrics holds the Prometheus collectors for wallet and tournament
// activity. A nil *Metrics is valid and records nothing.
type Metrics struct {
	LedgerMovements *prometheus.CounterVec
	LedgerAmount    *prometheus.CounterVec
	Decisions       *prometheus.CounterVec
	StatusUpdates   prometheus.Counter
	StatusRuns      prometheus.Counter
}

// NewMetrics creates and registers the collectors.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewMetrics(registerer ...prometheus.Registerer) *Metrics {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	m := &Metrics{
		LedgerMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_ledger_movements_total",
			Help: "Settled wallet ledger movements by kind.",
		}, []string{"type"}),
		LedgerAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_ledger_amount_total",
			Help: "Sum of settled amounts moved through the wallet ledger by kind.",
		}, []string{"type"}),
		Decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "arena_admin_decisions_total",
			Help: "Admin approval decisions by record kind and outcome.",
		}, []string{"kind", "decision"}),
		StatusUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_tournament_status_updates_total",
			Help: "Tournament status changes written by the scheduler.",
		}),
		StatusRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "arena_tournament_status_runs_total",
			Help: "Times the tournament status refresh has run.",
		}),
	}

	reg.MustRegister(m.LedgerMovements, m.LedgerAmount, m.Decisions, m.StatusUpdates, m.StatusRuns)
	return m
}

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

func (m *Metrics) recordMovement(kind string, amount int64) {
	if m == nil {
		return
	}
	m.LedgerMovements.WithLabelValues(kind).Inc()
	m.LedgerAmount.WithLabelValues(kind).Add(float64(amount))
}

func (m *Metrics) recordDecision(kind string, decision string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(kind, decision).Inc()
}

func (m *Metrics) recordStatusRun(updated int) {
	if m == nil {
		return
	}
	m.StatusRuns.Inc()
	m.StatusUpdates.Add(float64(updated))
}
