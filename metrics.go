package affix

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hengadev/affix/internal/monitoring"
)

// NewPrometheusMetrics returns a collector for WithMetrics whose counters and
// histograms are registered with reg under the affix namespace:
//
//	metrics, err := affix.NewPrometheusMetrics(prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	proc, err := affix.NewProcessor(affix.WithMetrics(metrics))
func NewPrometheusMetrics(reg prometheus.Registerer) (MetricsCollector, error) {
	collector := monitoring.NewPrometheusCollector("affix")
	if err := collector.Register(reg); err != nil {
		return nil, err
	}
	return collector, nil
}
