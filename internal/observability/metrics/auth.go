package metrics

import (
	"time"

	obserrors "github.com/target/oidc-gate/internal/observability/errors"
	"github.com/target/oidc-gate/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultDegraded = "degraded"
	ResultNoop     = "noop"
)

// Gate names.
const (
	GateToken  = "token"
	GateBearer = "bearer"
	GateSecure = "secure_uri"
)

// GateMetric captures a single decision taken by one of the authentication gates.
type GateMetric struct {
	Gate   string
	Event  string // e.g. validate, refresh, login, callback, logout
	Result string
	Err    error
}

// EmitGateEvent emits a counter for a gate decision.
func EmitGateEvent(sink statsd.Sink, in GateMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"gate":   in.Gate,
		"event":  in.Event,
		"result": in.Result,
	}
	if in.Err != nil && in.Result != ResultSuccess {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.gate", 1, tags)
}

// ProviderMetric describes one call to the identity provider.
type ProviderMetric struct {
	Op       string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitProviderCall emits a counter and timing for a provider round trip.
func EmitProviderCall(sink statsd.Sink, in ProviderMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"op":     in.Op,
		"result": in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.provider.call", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.provider.duration", in.Duration, CloneTags(tags))
	}
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
