package metrics

import "github.com/cuemby/strata/pkg/hlc"

// ClockOptions returns the hlc.Options that wire a Clock's ticks and
// observations into ClockTicksTotal and ClockObservationsTotal, keeping
// hlc.Clock itself free of any metrics import.
func ClockOptions() []hlc.Option {
	return []hlc.Option{
		hlc.WithOnTick(func(hlc.Timestamp) {
			ClockTicksTotal.Inc()
		}),
		hlc.WithOnObserve(func(_ hlc.Timestamp, advanced bool) {
			label := "false"
			if advanced {
				label = "true"
			}
			ClockObservationsTotal.WithLabelValues(label).Inc()
		}),
	}
}
