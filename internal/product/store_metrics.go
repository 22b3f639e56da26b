package product

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	opListAll = "list_all"
	opSave    = "save"

	resultOK          = "ok"
	resultConstraint  = "constraint"
	resultTimeout     = "timeout"
	resultUnavailable = "unavailable"
	resultError       = "error"
)

// InstrumentedStore records the outcome and latency of every store call.
type InstrumentedStore struct {
	next Store

	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

func NewInstrumentedStore(next Store, reg prometheus.Registerer) *InstrumentedStore {
	s := &InstrumentedStore{
		next: next,
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "product_store_operations_total",
				Help: "Product store calls by operation and result",
			},
			[]string{"op", "result"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "product_store_operation_duration_seconds",
				Help:    "Product store call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
	}

	reg.MustRegister(s.ops, s.latency)
	return s
}

func (s *InstrumentedStore) ListAll(ctx context.Context) ([]Product, error) {
	start := time.Now()
	out, err := s.next.ListAll(ctx)
	s.observe(opListAll, start, err)
	return out, err
}

func (s *InstrumentedStore) Save(ctx context.Context, p Product) (Product, error) {
	start := time.Now()
	out, err := s.next.Save(ctx, p)
	s.observe(opSave, start, err)
	return out, err
}

func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	s.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	s.ops.WithLabelValues(op, resultOf(err)).Inc()
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return resultOK
	case errors.Is(err, ErrConstraintViolation):
		return resultConstraint
	case isTimeoutErr(err):
		return resultTimeout
	case errors.Is(err, ErrStorageUnavailable):
		return resultUnavailable
	default:
		return resultError
	}
}
