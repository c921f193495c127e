package cosmic

import (
	"context"
	"iter"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"golang.org/x/time/rate"
)

// Client sends requests through a fixed handler chain:
//
//	[extra handlers] -> ResponseValidation -> RequestValidation -> Retry -> Hook -> Transport
//
// Extra handlers added with WithHandlers run outermost, in the order given.
// A Client is safe for concurrent use.
type Client struct {
	chain   *Chain
	options []Option
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*clientSettings)

type clientSettings struct {
	httpClient *http.Client
	logger     *slog.Logger
	hook       Hook
	handlers   []Handler
	limiter    *rate.Limiter
	options    []Option
	sleep      func(time.Duration)
}

// WithHTTPClient sets the HTTP client used by the transport.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(s *clientSettings) { s.httpClient = c }
}

// WithLogger sets the logger used by the retry stage and the transport.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(s *clientSettings) { s.logger = logger }
}

// WithHook installs a hook. The default hook passes everything through.
func WithHook(h Hook) ClientOption {
	return func(s *clientSettings) { s.hook = h }
}

// WithHandlers adds handlers outside the fixed chain. They see the request
// before it is encoded and the response after it is decoded.
func WithHandlers(handlers ...Handler) ClientOption {
	return func(s *clientSettings) { s.handlers = append(s.handlers, handlers...) }
}

// WithRateLimiter makes every network attempt, retries included, wait on l.
func WithRateLimiter(l *rate.Limiter) ClientOption {
	return func(s *clientSettings) { s.limiter = l }
}

// WithConfig adds client-level configuration. Service and call options are
// applied after these.
func WithConfig(opts ...Option) ClientOption {
	return func(s *clientSettings) { s.options = append(s.options, opts...) }
}

// WithRetrySleeper replaces the function the retry stage waits with.
func WithRetrySleeper(sleep func(time.Duration)) ClientOption {
	return func(s *clientSettings) { s.sleep = sleep }
}

// NewClient builds a client. It fails only when a nil handler was passed to
// WithHandlers.
func NewClient(opts ...ClientOption) (*Client, error) {
	s := clientSettings{logger: slog.Default()}
	for _, o := range opts {
		o(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	handlers := slices.Clone(s.handlers)
	handlers = append(handlers,
		ResponseValidationHandler{},
		RequestValidationHandler{},
		NewRetryHandler(s.logger, s.sleep),
		NewHookHandler(s.hook),
	)
	chain, err := NewChain(NewTransport(s.httpClient, s.limiter, s.logger), handlers...)
	if err != nil {
		return nil, err
	}
	return &Client{chain: chain, options: s.options, logger: s.logger}, nil
}

// Options returns the client-level configuration options.
func (c *Client) Options() []Option {
	return slices.Clone(c.options)
}

// Config returns the default configuration with the client options applied.
func (c *Client) Config() Config {
	return NewConfig(c.options...)
}

// Logger returns the client's logger.
func (c *Client) Logger() *slog.Logger {
	return c.logger
}

// Call sends req and returns the decoded response. Failure statuses are
// returned as errors: a typed error when one is declared for the status,
// otherwise *HTTPError.
func (c *Client) Call(ctx context.Context, req *Request) (*Response, error) {
	return c.chain.Handle(ctx, req)
}

// Stream sends req and yields each chunk of the response body decoded on
// its own. Iteration stops after the first error.
func (c *Client) Stream(ctx context.Context, req *Request) iter.Seq2[*Response, error] {
	return c.chain.Stream(ctx, req)
}
