package cosmic

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Transport is the terminal stage: it sends the request over HTTP and
// returns the raw response without decoding it.
type Transport struct {
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewTransport returns a terminal stage sending through client
// (http.DefaultClient when nil). A non-nil limiter is waited on before
// every network attempt.
func NewTransport(client *http.Client, limiter *rate.Limiter, logger *slog.Logger) *Transport {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{client: client, limiter: limiter, logger: logger}
}

func (t *Transport) Handle(ctx context.Context, req *Request) (*Response, error) {
	if req.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Config.Timeout)
		defer cancel()
	}
	resp, err := t.send(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cosmic: read response body: %w", err)
	}
	return &Response{Metadata: metadataOf(resp), Raw: raw}, nil
}

// Stream yields one response per chunk: one server-sent event for
// text/event-stream bodies, one line otherwise. Failure statuses yield the
// whole body as a single response.
func (t *Transport) Stream(ctx context.Context, req *Request) iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		if req.Config.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, req.Config.Timeout)
			defer cancel()
		}
		resp, err := t.send(ctx, req)
		if err != nil {
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		md := metadataOf(resp)
		if resp.StatusCode >= 400 {
			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				yield(nil, fmt.Errorf("cosmic: read response body: %w", err))
				return
			}
			yield(&Response{Metadata: md, Raw: raw}, nil)
			return
		}

		split := bufio.ScanLines
		if ClassifyContentType(resp.Header.Get(headerContentType)) == ContentTypeEventStream {
			split = scanEvents
		}
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		sc.Split(split)
		for sc.Scan() {
			chunk := bytes.TrimSpace(sc.Bytes())
			if len(chunk) == 0 {
				continue
			}
			if !yield(&Response{Metadata: md, Raw: bytes.Clone(chunk)}, nil) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			yield(nil, fmt.Errorf("cosmic: read response stream: %w", err))
		}
	}
}

// send builds and performs the HTTP request.
func (t *Transport) send(ctx context.Context, req *Request) (*http.Response, error) {
	body, err := bodyReader(req.Body)
	if err != nil {
		return nil, err
	}
	fullURL := req.ConstructFullURL()
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("cosmic: %w", err)
	}
	for k, v := range SerializeHeaders(&req.HeaderParams) {
		httpReq.Header.Set(k, v)
	}
	if cookies := cookieHeader(&req.CookieParams); cookies != "" {
		httpReq.Header.Set("Cookie", cookies)
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("cosmic: rate limit: %w", err)
		}
	}

	attrs := []slog.Attr{
		slog.String("method", req.Method),
		slog.String("url", redactURL(fullURL)),
	}
	if n, ok := AttemptFromContext(ctx); ok {
		attrs = append(attrs, slog.Int("attempt", n))
	}

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		t.logger.LogAttrs(ctx, slog.LevelDebug, "request failed", append(attrs, slog.Any("error", err))...)
		return nil, fmt.Errorf("cosmic: %s %s: %w", req.Method, req.PathPattern, err)
	}
	t.logger.LogAttrs(ctx, slog.LevelDebug, "request sent", append(attrs,
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)...)
	return resp, nil
}

func metadataOf(resp *http.Response) ResponseMetadata {
	return ResponseMetadata{
		Status:     resp.StatusCode,
		StatusText: http.StatusText(resp.StatusCode),
		Headers:    resp.Header,
	}
}

// bodyReader turns an encoded body into a reader.
func bodyReader(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case string:
		return strings.NewReader(b), nil
	case url.Values:
		return strings.NewReader(b.Encode()), nil
	case io.Reader:
		return b, nil
	default:
		return nil, configErrorf("body of type %T was not encoded; check the request content type", body)
	}
}

// redactURL drops the query string, which may carry credentials.
func redactURL(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}

// scanEvents is a bufio.SplitFunc splitting a server-sent event stream on
// blank lines.
func scanEvents(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	at, width := -1, 0
	for _, sep := range [][]byte{[]byte("\r\n\r\n"), []byte("\n\n")} {
		if i := bytes.Index(data, sep); i >= 0 && (at < 0 || i < at) {
			at, width = i, len(sep)
		}
	}
	if at >= 0 {
		return at + width, data[:at], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ Terminal = (*Transport)(nil)
