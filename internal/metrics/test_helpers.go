package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// CounterValue returns the current value of the counter in vec for the given labels.
// It is meant for tests in other packages that assert on recorded metrics.
func CounterValue(vec *prometheus.CounterVec, labels ...string) (float64, error) {
	pb := &dto.Metric{}
	if err := vec.WithLabelValues(labels...).Write(pb); err != nil {
		return 0, err
	}
	return pb.GetCounter().GetValue(), nil
}

// SingleCounterValue returns the current value of a counter without labels.
func SingleCounterValue(c prometheus.Counter) (float64, error) {
	pb := &dto.Metric{}
	if err := c.Write(pb); err != nil {
		return 0, err
	}
	return pb.GetCounter().GetValue(), nil
}

// GaugeValue returns the current value of a gauge without labels.
func GaugeValue(g prometheus.Gauge) (float64, error) {
	pb := &dto.Metric{}
	if err := g.Write(pb); err != nil {
		return 0, err
	}
	return pb.GetGauge().GetValue(), nil
}
