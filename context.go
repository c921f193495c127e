package cosmic

import "context"

type contextKey struct {
	name string
}

var attemptKey = &contextKey{"attempt"}

// AttemptFromContext returns the 1-based attempt number of the current
// network exchange. It is set by the retry stage, so hooks and the
// transport see it; handlers outside the retry stage do not.
func AttemptFromContext(ctx context.Context) (int, bool) {
	n, ok := ctx.Value(attemptKey).(int)
	return n, ok
}

func withAttempt(ctx context.Context, attempt int) context.Context {
	return context.WithValue(ctx, attemptKey, attempt)
}
