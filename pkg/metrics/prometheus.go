package metrics

import "github.com/prometheus/client_golang/prometheus"

// promCounter adapts a *prometheus.CounterVec to the Counter interface.
type promCounter struct {
	vec *prometheus.CounterVec
}

// NewCounter registers (or reuses, if already registered) a CounterVec with
// the given name, help text and label names against reg, and returns it as
// a Counter.
func NewCounter(reg prometheus.Registerer, namespace, name, help string, labels ...string) Counter {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)
	if reg != nil {
		if err := reg.Register(vec); err != nil {
			if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
				vec = are.ExistingCollector.(*prometheus.CounterVec)
			}
		}
	}
	return &promCounter{vec: vec}
}

func (c *promCounter) With(labelValues ...string) Incrementer {
	return c.vec.WithLabelValues(labelValues...)
}
