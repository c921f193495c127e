package cosmic

import (
	"context"
	"iter"
)

// Interceptor is a Handler written as a function for unary calls:
//
//	stamp := cosmic.Interceptor(func(ctx context.Context, req *cosmic.Request, next cosmic.Next) (*cosmic.Response, error) {
//	    start := time.Now()
//	    resp, err := next(ctx, req)
//	    log.Printf("%s %s took %v", req.Method, req.PathPattern, time.Since(start))
//	    return resp, err
//	})
//
// An interceptor can:
//   - Inspect or replace the request before calling next
//   - Inspect or replace the response after calling next
//   - Short-circuit by returning an error without calling next
//
// Streams pass through an Interceptor untouched.
type Interceptor func(ctx context.Context, req *Request, next Next) (*Response, error)

func (f Interceptor) Handle(ctx context.Context, req *Request, next Next) (*Response, error) {
	return f(ctx, req, next)
}

func (f Interceptor) Stream(ctx context.Context, req *Request, next StreamNext) iter.Seq2[*Response, error] {
	return next(ctx, req)
}

var _ Handler = Interceptor(nil)
