package metrics

import (
	"time"

	obserrors "github.com/target/helpdesk-console/internal/observability/errors"
	"github.com/target/helpdesk-console/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Session operations.
const (
	OpLogin   = "login"
	OpLogout  = "logout"
	OpRefresh = "refresh"
	OpProfile = "profile"
)

// SessionMetric describes one session store operation.
type SessionMetric struct {
	Operation string
	Result    string
	Duration  time.Duration
	Err       error
}

// EmitSession emits session.operation and, when timed, session.duration.
func EmitSession(sink statsd.Sink, in SessionMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"operation": in.Operation,
		"result":    in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("session.operation", 1, tags)
	if in.Duration > 0 {
		sink.Timing("session.duration", in.Duration, CloneTags(tags))
	}
}

// NavigationMetric describes one guard decision.
type NavigationMetric struct {
	Route    string
	Decision string
}

// EmitNavigation counts a guard decision per route.
func EmitNavigation(sink statsd.Sink, in NavigationMetric) {
	if sink == nil {
		return
	}
	sink.Count("navigation.decision", 1, map[string]string{
		"route":    in.Route,
		"decision": in.Decision,
	})
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
