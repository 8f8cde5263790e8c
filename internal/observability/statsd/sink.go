package statsd

import "time"

// Sink receives gateway metrics. Implementations must be safe for concurrent use.
type Sink interface {
	Count(name string, value int64, tags map[string]string)
	Gauge(name string, value float64, tags map[string]string)
	Timing(name string, value time.Duration, tags map[string]string)
}

var (
	_ Sink = (*Client)(nil)
	_ Sink = Discard{}
	_ Sink = multiSink(nil)
)

// Discard drops every metric.
type Discard struct{}

func (Discard) Count(string, int64, map[string]string)          {}
func (Discard) Gauge(string, float64, map[string]string)        {}
func (Discard) Timing(string, time.Duration, map[string]string) {}

// Multi fans each metric out to every non-nil sink. With no sinks it returns
// Discard, with one it returns that sink unchanged.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return Discard{}
	case 1:
		return out[0]
	default:
		return out
	}
}

type multiSink []Sink

func (m multiSink) Count(name string, value int64, tags map[string]string) {
	for _, s := range m {
		s.Count(name, value, tags)
	}
}

func (m multiSink) Gauge(name string, value float64, tags map[string]string) {
	for _, s := range m {
		s.Gauge(name, value, tags)
	}
}

func (m multiSink) Timing(name string, value time.Duration, tags map[string]string) {
	for _, s := range m {
		s.Timing(name, value, tags)
	}
}
