package metrics

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recalculation outcome labels.
const (
	RecalcOutcomeSkipped   = "skipped"
	RecalcOutcomeUnchanged = "unchanged"
	RecalcOutcomeApplied   = "applied"
)

// Ledger mutation labels.
const (
	LedgerMutationRelease  = "release"
	LedgerMutationConsume  = "consume"
	LedgerMutationRejected = "rejected"
	LedgerMutationNoop     = "noop"
)

// Collector aggregates limit-engine metrics on its own registry.
type Collector struct {
	registry             *prometheus.Registry
	generationsTotal     *prometheus.CounterVec
	rejectionsTotal      *prometheus.CounterVec
	recalcOutcomes       *prometheus.CounterVec
	ledgerMutations      *prometheus.CounterVec
	setLimitDistribution prometheus.Histogram
	logger               *slog.Logger
}

// NewCollector creates a Collector with a fresh registry.
func NewCollector(logger *slog.Logger) *Collector {
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()

	return &Collector{
		registry: registry,
		generationsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "credit_limit_generations_total",
			Help: "Total number of credit limit generation records written",
		}, []string{"reason"}),
		rejectionsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "credit_limit_rejections_total",
			Help: "Total number of applications rejected with zero limits",
		}, []string{"reason"}),
		recalcOutcomes: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "credit_limit_recalculations_total",
			Help: "Recalculation passes by outcome",
		}, []string{"outcome"}),
		ledgerMutations: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "usage_ledger_mutations_total",
			Help: "Usage ledger updates by kind",
		}, []string{"kind"}),
		setLimitDistribution: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "credit_limit_set_limit_distribution",
			Help:    "Distribution of granted set limits",
			Buckets: []float64{300_000, 500_000, 1_000_000, 2_000_000, 5_000_000, 10_000_000, 20_000_000, 50_000_000},
		}),
		logger: logger,
	}
}

// RecordGeneration counts a written generation and observes its set limit.
func (c *Collector) RecordGeneration(reason string, setLimit float64) {
	c.generationsTotal.WithLabelValues(reason).Inc()
	c.setLimitDistribution.Observe(setLimit)
}

// RecordRejection counts a zero-limit rejection.
func (c *Collector) RecordRejection(reason string) {
	c.rejectionsTotal.WithLabelValues(reason).Inc()
}

// RecordRecalc counts a recalculation pass outcome.
func (c *Collector) RecordRecalc(outcome string) {
	c.recalcOutcomes.WithLabelValues(outcome).Inc()
}

// RecordLedgerMutation counts a usage ledger update.
func (c *Collector) RecordLedgerMutation(kind string) {
	c.ledgerMutations.WithLabelValues(kind).Inc()
}

// Handler returns the scrape handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// StartServer serves /metrics on addr in a background goroutine.
func (c *Collector) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		c.logger.Info("starting metrics server", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			c.logger.Error("metrics server failed", slog.String("error", err.Error()))
		}
	}()

	return server
}

// Shutdown stops the metrics server.
func (c *Collector) Shutdown(ctx context.Context, server *http.Server) error {
	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}
