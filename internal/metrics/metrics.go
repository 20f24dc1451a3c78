// Package metrics defines and registers all custom Prometheus metrics for the
// API token service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry on import, which is
// the registry served by echoprometheus.NewHandler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "apitoken"

// ── Token metrics ─────────────────────────────────────────────────────────────

// TokensIssuedTotal counts tokens minted by a committed purchase.
// Label:
//   - tier: the apiLevel embedded in the new token (e.g. "40")
var TokensIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of API tokens issued, by tier.",
	},
	[]string{"tier"},
)

// PurchaseRejectedTotal counts purchases that did not commit.
// Label:
//   - reason: "insufficient_credit", "invalid_request", "conflict", "error"
var PurchaseRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "purchase_rejected_total",
		Help:      "Total number of token purchases rejected, by reason.",
	},
	[]string{"reason"},
)

// TokenValidationsTotal counts isValid answers.
// Label:
//   - result: "valid", "invalid", "revoked", "unknown_user"
var TokenValidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "token_validations_total",
		Help:      "Total number of token validity checks, by result.",
	},
	[]string{"result"},
)

// ── Sweep metrics ─────────────────────────────────────────────────────────────

// SweepAttemptsTotal counts individual sweep attempts inside Queue.
// Label:
//   - outcome: "success", "no_utxos", "invalid_utxo", "error"
var SweepAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sweep_attempts_total",
		Help:      "Total number of sweep attempts, by outcome.",
	},
	[]string{"outcome"},
)

// SweepDuration measures a whole Queue call including retry delays.
var SweepDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sweep_duration_seconds",
		Help:      "Duration of a sweep from first attempt to final outcome.",
		Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	},
)

// ── Top-up metrics ────────────────────────────────────────────────────────────

// TopupCreditTotal accumulates the USD credit added by successful top-ups.
var TopupCreditTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "topup_credit_usd_total",
		Help:      "Total USD credit added to accounts by successful top-ups.",
	},
)

// TopupQueueDepth tracks pending top-ups in each dispatcher worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var TopupQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "topup_queue_depth",
		Help:      "Current number of top-ups pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
