package cosmic

import (
	"context"
	"iter"
	"net/http"
)

// RequestValidationHandler validates the request body against the request
// schema and encodes it for the declared request content type.
type RequestValidationHandler struct{}

func (RequestValidationHandler) Handle(ctx context.Context, req *Request, next Next) (*Response, error) {
	out, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	return next(ctx, out)
}

func (RequestValidationHandler) Stream(ctx context.Context, req *Request, next StreamNext) iter.Seq2[*Response, error] {
	out, err := encodeRequest(req)
	if err != nil {
		return failed(err)
	}
	return next(ctx, out)
}

// ResponseValidationHandler decodes the response body according to the
// matching response definition and, unless disabled, parses it with the
// definition's schema.
type ResponseValidationHandler struct{}

func (ResponseValidationHandler) Handle(ctx context.Context, req *Request, next Next) (*Response, error) {
	resp, err := next(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeResponse(req, resp)
}

func (ResponseValidationHandler) Stream(ctx context.Context, req *Request, next StreamNext) iter.Seq2[*Response, error] {
	if req.Config.IncludeResponseHeaders {
		return failed(configErrorf("streaming does not support response header capture"))
	}
	return func(yield func(*Response, error) bool) {
		for resp, err := range next(ctx, req) {
			if err == nil {
				resp, err = decodeResponse(req, resp)
			}
			if !yield(resp, err) || err != nil {
				return
			}
		}
	}
}

// decodeResponse returns resp with Data set. Data stays nil when no
// definition matches, the definition declares no content, or the status is
// 204.
func decodeResponse(req *Request, resp *Response) (*Response, error) {
	contentType := resp.Metadata.Headers.Get(headerContentType)
	def, ok := matchResponse(req.Responses, resp.Metadata.Status, contentType)
	if !ok || def.Schema == NoContent || resp.Metadata.Status == http.StatusNoContent {
		return resp, nil
	}

	data, err := decodeBody(contentType, resp.Raw)
	if err != nil {
		return nil, err
	}
	if def.Schema != nil && req.Config.Validation.ResponseValidation {
		if data, err = def.Schema.Parse(data); err != nil {
			return nil, err
		}
	}
	if req.Config.IncludeResponseHeaders {
		data = WithHeaders{Data: data, Headers: resp.Metadata.Headers}
	}

	out := *resp
	out.Data = data
	return &out, nil
}
