package service

import (
	"errors"
	"time"

	"github.com/joeschweitzer/bayesian/internal/bayesnet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// inferenceDuration tracks belief computation latency by operation
	inferenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bayes_inference_duration_seconds",
		Help:    "Belief computation duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
	}, []string{"op"})

	inferenceErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bayes_inference_errors_total",
		Help: "Failed belief computations by error kind",
	}, []string{"op", "kind"})

	networksCompiled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bayes_networks_compiled_total",
		Help: "Networks built and compiled from a definition",
	})

	sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bayes_sessions_active",
		Help: "Open evidence sessions",
	})

	sessionsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bayes_sessions_expired_total",
		Help: "Sessions closed for inactivity",
	})
)

func observeInference(op string, start time.Time, err error) {
	inferenceDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		inferenceErrors.WithLabelValues(op, errorKind(err)).Inc()
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, bayesnet.ErrZeroProbabilityEvidence):
		return "zero_probability"
	case errors.Is(err, bayesnet.ErrUnknownVariable):
		return "unknown_variable"
	case errors.Is(err, bayesnet.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, bayesnet.ErrNumerical):
		return "numerical"
	case errors.Is(err, ErrNetworkNotFound), errors.Is(err, ErrSessionNotFound):
		return "not_found"
	default:
		return "other"
	}
}
