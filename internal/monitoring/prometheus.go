package monitoring

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector reports the processor metrics as Prometheus counter and
// histogram vectors. Metric names other than the Metric* constants are
// ignored.
type PrometheusCollector struct {
	documents   *prometheus.CounterVec
	fields      *prometheus.CounterVec
	fieldErrors *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

var (
	documentLabels   = []string{"operation", "format", "status"}
	fieldLabels      = []string{"operation", "format"}
	fieldErrorLabels = []string{"operation", "field"}
)

// NewPrometheusCollector creates the vectors under namespace, e.g.
// affix_documents_total. Call Register before use.
func NewPrometheusCollector(namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "number of documents marshaled or unmarshaled",
		}, documentLabels),
		fields: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fields_total",
			Help:      "number of affixed fields encoded or decoded",
		}, fieldLabels),
		fieldErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "field_errors_total",
			Help:      "number of fields that failed to encode or decode",
		}, fieldErrorLabels),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "time spent marshaling or unmarshaling a document",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}, fieldLabels),
	}
}

// Collectors returns the vectors to register.
func (p *PrometheusCollector) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.documents, p.fields, p.fieldErrors, p.duration}
}

// Register registers every vector with reg. When an identical vector is
// already registered, for instance by another processor, that vector is
// adopted so both report to the same series.
func (p *PrometheusCollector) Register(reg prometheus.Registerer) error {
	var err error
	if p.documents, err = registerCounter(reg, p.documents); err != nil {
		return err
	}
	if p.fields, err = registerCounter(reg, p.fields); err != nil {
		return err
	}
	if p.fieldErrors, err = registerCounter(reg, p.fieldErrors); err != nil {
		return err
	}

	if err := reg.Register(p.duration); err != nil {
		existing, err := adopt(err)
		if err != nil {
			return err
		}
		vec, ok := existing.(*prometheus.HistogramVec)
		if !ok {
			return fmt.Errorf("collector registered as %T, expected a histogram vector", existing)
		}
		p.duration = vec
	}
	return nil
}

func registerCounter(reg prometheus.Registerer, vec *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		existing, err := adopt(err)
		if err != nil {
			return nil, err
		}
		counter, ok := existing.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("collector registered as %T, expected a counter vector", existing)
		}
		return counter, nil
	}
	return vec, nil
}

// adopt returns the collector already registered when err reports one.
func adopt(err error) (prometheus.Collector, error) {
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return already.ExistingCollector, nil
	}
	return nil, err
}

func (p *PrometheusCollector) IncrementCounter(name string, tags map[string]string) {
	p.IncrementCounterBy(name, 1, tags)
}

func (p *PrometheusCollector) IncrementCounterBy(name string, value int64, tags map[string]string) {
	switch name {
	case MetricDocuments:
		p.documents.With(labels(tags, documentLabels)).Add(float64(value))
	case MetricFields:
		p.fields.With(labels(tags, fieldLabels)).Add(float64(value))
	case MetricFieldErrors:
		p.fieldErrors.With(labels(tags, fieldErrorLabels)).Add(float64(value))
	}
}

func (p *PrometheusCollector) RecordTiming(name string, duration time.Duration, tags map[string]string) {
	if name == MetricDuration {
		p.duration.With(labels(tags, fieldLabels)).Observe(duration.Seconds())
	}
}

func (p *PrometheusCollector) Flush() error {
	return nil
}

// labels keeps exactly the label names of a vector; missing tags are empty.
func labels(tags map[string]string, names []string) prometheus.Labels {
	out := make(prometheus.Labels, len(names))
	for _, name := range names {
		out[name] = tags[name]
	}
	return out
}
