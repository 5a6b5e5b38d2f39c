package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Observer captures telemetry for the upload pipeline. Purely observational.
type Observer interface {
	RecordStore(duration time.Duration, originalBytes, uploadedBytes int, compressed bool, attempts int, err error)
	RecordFallback(err error)
	RecordMetadataInsert(duration time.Duration, err error)
	RecordListing(duration time.Duration, err error)
}

// PrometheusObserver exports upload pipeline metrics to Prometheus.
type PrometheusObserver struct {
	operationDuration *prometheus.HistogramVec
	operationErrors   *prometheus.CounterVec
	storeAttempts     prometheus.Histogram
	originalBytes     prometheus.Counter
	uploadedBytes     prometheus.Counter
	compressedTotal   prometheus.Counter
	fallbackTotal     *prometheus.CounterVec
}

// NewPrometheusObserver registers the pipeline collectors on reg.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = "resume_intake"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	o := &PrometheusObserver{
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of upload pipeline operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		operationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Count of upload pipeline failures.",
		}, []string{"operation"}),
		storeAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_attempts",
			Help:      "Object store write attempts per upload.",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}),
		originalBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "original_bytes_total",
			Help:      "Cumulative size of received resume payloads that were stored.",
		}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Cumulative payload size written to object storage.",
		}),
		compressedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compressed_uploads_total",
			Help:      "Uploads stored in compressed form.",
		}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_uploads_total",
			Help:      "Plain uploads issued after the optimized path failed to prepare.",
		}, []string{"result"}),
	}

	if err := register(reg, &o.operationDuration); err != nil {
		return nil, err
	}
	if err := register(reg, &o.operationErrors); err != nil {
		return nil, err
	}
	if err := register(reg, &o.storeAttempts); err != nil {
		return nil, err
	}
	if err := register(reg, &o.originalBytes); err != nil {
		return nil, err
	}
	if err := register(reg, &o.uploadedBytes); err != nil {
		return nil, err
	}
	if err := register(reg, &o.compressedTotal); err != nil {
		return nil, err
	}
	if err := register(reg, &o.fallbackTotal); err != nil {
		return nil, err
	}
	return o, nil
}

// register adopts an already registered collector of the same type so two
// observers built on one registry share series.
func register[C prometheus.Collector](reg prometheus.Registerer, c *C) error {
	if err := reg.Register(*c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				*c = existing
				return nil
			}
		}
		return fmt.Errorf("register upload metric: %w", err)
	}
	return nil
}

func (o *PrometheusObserver) RecordStore(duration time.Duration, originalBytes, uploadedBytes int, compressed bool, attempts int, err error) {
	if o == nil {
		return
	}
	o.operationDuration.WithLabelValues("store").Observe(duration.Seconds())
	if attempts > 0 {
		o.storeAttempts.Observe(float64(attempts))
	}
	if err != nil {
		o.operationErrors.WithLabelValues("store").Inc()
		return
	}
	o.originalBytes.Add(float64(originalBytes))
	o.uploadedBytes.Add(float64(uploadedBytes))
	if compressed {
		o.compressedTotal.Inc()
	}
}

func (o *PrometheusObserver) RecordFallback(err error) {
	if o == nil {
		return
	}
	if err != nil {
		o.fallbackTotal.WithLabelValues("failed").Inc()
		return
	}
	o.fallbackTotal.WithLabelValues("stored").Inc()
}

func (o *PrometheusObserver) RecordMetadataInsert(duration time.Duration, err error) {
	recordOperation(o, "metadata_insert", duration, err)
}

func (o *PrometheusObserver) RecordListing(duration time.Duration, err error) {
	recordOperation(o, "listing", duration, err)
}

func recordOperation(o *PrometheusObserver, op string, duration time.Duration, err error) {
	if o == nil {
		return
	}
	o.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		o.operationErrors.WithLabelValues(op).Inc()
	}
}

type NopObserver struct{}

func (NopObserver) RecordStore(time.Duration, int, int, bool, int, error) {}

func (NopObserver) RecordFallback(error) {}

func (NopObserver) RecordMetadataInsert(time.Duration, error) {}

func (NopObserver) RecordListing(time.Duration, error) {}

var (
	_ Observer = (*PrometheusObserver)(nil)
	_ Observer = NopObserver{}
)
