package optoma

import "time"

// Instrument receives the outcome of every exchange.
type Instrument interface {
	RecordExchange(cmd Command, duration time.Duration, err error)
}

// InstrumentFunc adapts a function to Instrument.
type InstrumentFunc func(cmd Command, duration time.Duration, err error)

func (f InstrumentFunc) RecordExchange(cmd Command, duration time.Duration, err error) {
	f(cmd, duration, err)
}

func recordTimer(cmd Command, instrument []Instrument) func(error) {
	if len(instrument) == 0 {
		return func(error) {}
	}

	start := time.Now()
	return func(err error) {
		duration := time.Since(start)
		for i := range instrument {
			instrument[i].RecordExchange(cmd, duration, err)
		}
	}
}
