package cosmic

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"strings"
	"time"
)

// RetryHandler re-runs the downstream stages when they fail with a
// retryable HTTP status. Only errors carrying a status code are retried;
// network failures without a response are returned as they are.
type RetryHandler struct {
	logger *slog.Logger
	sleep  func(time.Duration)
}

// NewRetryHandler returns a retry stage. sleep waits between attempts;
// nil means time.Sleep.
func NewRetryHandler(logger *slog.Logger, sleep func(time.Duration)) *RetryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return &RetryHandler{logger: logger, sleep: sleep}
}

func (h *RetryHandler) Handle(ctx context.Context, req *Request, next Next) (*Response, error) {
	cfg := req.Config.Retry
	for attempt := 1; ; attempt++ {
		resp, err := next(withAttempt(ctx, attempt), req)
		if err == nil {
			return resp, nil
		}
		if attempt >= cfg.Attempts || !shouldRetry(req.Method, cfg, err) {
			return nil, err
		}
		h.wait(ctx, req, cfg, attempt, err)
	}
}

// Stream restarts the whole stream after a retryable failure. Chunks
// already yielded are not replayed from a resume point.
func (h *RetryHandler) Stream(ctx context.Context, req *Request, next StreamNext) iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		cfg := req.Config.Retry
		for attempt := 1; ; attempt++ {
			var failure error
			for resp, err := range next(withAttempt(ctx, attempt), req) {
				if err != nil {
					failure = err
					break
				}
				if !yield(resp, nil) {
					return
				}
			}
			if failure == nil {
				return
			}
			if attempt >= cfg.Attempts || !shouldRetry(req.Method, cfg, failure) {
				yield(nil, failure)
				return
			}
			h.wait(ctx, req, cfg, attempt, failure)
		}
	}
}

func (h *RetryHandler) wait(ctx context.Context, req *Request, cfg RetryConfig, attempt int, err error) {
	delay := RetryDelay(cfg, attempt)
	var sc statusCoder
	errors.As(err, &sc)
	h.logger.WarnContext(ctx, "retrying request",
		slog.String("method", req.Method),
		slog.String("path", req.PathPattern),
		slog.Int("attempt", attempt),
		slog.Int("status", sc.StatusCode()),
		slog.Duration("delay", delay),
		slog.Any("error", err),
	)
	h.sleep(delay)
}

// shouldRetry reports whether err is an HTTP failure whose status and
// method are both in the retry policy.
func shouldRetry(method string, cfg RetryConfig, err error) bool {
	var sc statusCoder
	if !errors.As(err, &sc) {
		return false
	}
	if !slices.Contains(cfg.StatusCodes, sc.StatusCode()) {
		return false
	}
	return slices.ContainsFunc(cfg.Methods, func(m string) bool {
		return strings.EqualFold(m, method)
	})
}

// RetryDelay returns the wait before the retry that follows attempt
// (1-based): min(MaxDelay, Delay*BackoffFactor^(attempt-1)) plus a random
// jitter in [0, Jitter], truncated to whole milliseconds.
func RetryDelay(cfg RetryConfig, attempt int) time.Duration {
	base := float64(cfg.Delay.Milliseconds()) * math.Pow(cfg.BackoffFactor, float64(attempt-1))
	if maxMs := float64(cfg.MaxDelay.Milliseconds()); cfg.MaxDelay > 0 && base > maxMs {
		base = maxMs
	}
	if cfg.Jitter > 0 {
		base += rand.Float64() * float64(cfg.Jitter.Milliseconds())
	}
	return time.Duration(math.Floor(base)) * time.Millisecond
}
