package middleware

import (
	"context"
	"iter"
	"log/slog"
	"time"

	cosmic "github.com/cosmicbank/cosmic-go"
)

// Logging returns a handler that logs calls using slog.
// It logs the start and end of each call, including duration and error status.
func Logging(logger *slog.Logger) cosmic.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &logging{logger: logger}
}

type logging struct {
	logger *slog.Logger
}

// endpointID names a call by method and path pattern, e.g. "GET /accounts/{accountId}".
func endpointID(req *cosmic.Request) string {
	return req.Method + " " + req.PathPattern
}

func (l *logging) Handle(ctx context.Context, req *cosmic.Request, next cosmic.Next) (*cosmic.Response, error) {
	start := l.started(ctx, req)
	resp, err := next(ctx, req)
	l.finished(ctx, req, start, err, statusOf(resp))
	return resp, err
}

func (l *logging) Stream(ctx context.Context, req *cosmic.Request, next cosmic.StreamNext) iter.Seq2[*cosmic.Response, error] {
	return func(yield func(*cosmic.Response, error) bool) {
		start := l.started(ctx, req)
		var (
			failure error
			status  int
		)
		defer func() { l.finished(ctx, req, start, failure, status) }()

		for resp, err := range next(ctx, req) {
			if err != nil {
				failure = err
			} else {
				status = statusOf(resp)
			}
			if !yield(resp, err) {
				return
			}
		}
	}
}

func (l *logging) started(ctx context.Context, req *cosmic.Request) time.Time {
	l.logger.InfoContext(ctx, "request started",
		slog.String("endpoint", endpointID(req)),
	)
	return time.Now()
}

func (l *logging) finished(ctx context.Context, req *cosmic.Request, start time.Time, err error, status int) {
	duration := time.Since(start)
	if err != nil {
		l.logger.ErrorContext(ctx, "request failed",
			slog.String("endpoint", endpointID(req)),
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)
		return
	}
	l.logger.InfoContext(ctx, "request completed",
		slog.String("endpoint", endpointID(req)),
		slog.Int("status", status),
		slog.Duration("duration", duration),
	)
}

func statusOf(resp *cosmic.Response) int {
	if resp == nil {
		return 0
	}
	return resp.Metadata.Status
}
