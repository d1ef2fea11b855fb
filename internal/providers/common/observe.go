package common

import (
	"context"
	"errors"
	"time"

	"moviemate/apiservice/internal/metrics"
)

// Observe records one upstream call in the upstream metrics.
func Observe(service string, startedAt time.Time, err error) {
	metrics.UpstreamRequestDuration.WithLabelValues(service).Observe(time.Since(startedAt).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(service, outcome(err)).Inc()
}

func outcome(err error) string {
	var statusErr *StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &statusErr):
		return "status"
	case errors.Is(err, context.DeadlineExceeded) || IsTransientError(err):
		return "timeout"
	default:
		return "error"
	}
}
