package ordering

import "github.com/prometheus/client_golang/prometheus"

var OperationCount = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "storyline",
	Subsystem: "ordering",
	Name:      "operations",
}, []string{"entity", "op", "result"})

var ShiftedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "storyline",
	Subsystem: "ordering",
	Name:      "shifted_rows",
}, []string{"entity"})

var ShiftSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "storyline",
	Subsystem: "ordering",
	Name:      "shift_size",
	Buckets:   []float64{0, 1, 5, 10, 20, 50, 100, 200, 500},
}, []string{"entity"})

var InvariantViolations = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "storyline",
	Subsystem: "ordering",
	Name:      "invariant_violations",
}, []string{"entity"})

// Collectors returns every collector of the package.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{OperationCount, ShiftedRows, ShiftSize, InvariantViolations}
}

// RegisterMetrics registers the package collectors with reg. Collectors that
// are already registered are left as they are.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range Collectors() {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}
