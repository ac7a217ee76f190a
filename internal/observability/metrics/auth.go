package metrics

import (
	"context"
	"errors"
	"time"

	obserrors "github.com/target/dns-manager-ui/internal/observability/errors"
	"github.com/target/dns-manager-ui/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
	ResultCanceled = "canceled"
	ResultNoop     = "noop"
)

// AuthMetric captures one sign-in or sign-out attempt.
type AuthMetric struct {
	Mode     string
	Result   string
	Shared   bool // the caller joined an attempt already in flight
	Duration time.Duration
	Err      error
}

// ResultFor classifies err into one of the Result constants.
// rejected reports whether err is a failure the person at the keyboard caused.
func ResultFor(err error, rejected bool) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	case rejected:
		return ResultRejected
	default:
		return ResultError
	}
}

// EmitSignIn emits auth.sign_in counters and timings.
func EmitSignIn(sink statsd.Sink, in AuthMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"mode":   in.Mode,
		"result": in.Result,
	}
	if in.Shared {
		tags["shared"] = "true"
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("auth.sign_in", 1, tags)

	if in.Duration > 0 && !in.Shared {
		sink.Timing("auth.sign_in.duration", in.Duration, CloneTags(tags))
	}
}

// EmitSignOut emits the auth.sign_out counter.
func EmitSignOut(sink statsd.Sink, result string) {
	if sink == nil {
		return
	}
	sink.Count("auth.sign_out", 1, map[string]string{"result": result})
}

// EmitSessionResolve counts identity lookups that did not find a live session.
func EmitSessionResolve(sink statsd.Sink, outcome string) {
	if sink == nil {
		return
	}
	sink.Count("auth.session.resolve", 1, map[string]string{"outcome": outcome})
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
