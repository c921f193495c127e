package cosmic

import (
	"encoding/base64"
	"net/http"
)

const defaultAPIKeyHeader = "X-API-KEY"

// RequestBuilder accumulates the parts of a call and produces a Request.
// Generated service methods use it to describe each endpoint.
type RequestBuilder struct {
	req Request
}

// NewRequestBuilder returns a builder for a GET request with the default
// configuration and a JSON request body.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{req: Request{
		Method:             http.MethodGet,
		Config:             DefaultConfig(),
		RequestContentType: ContentTypeJSON,
	}}
}

// SetConfig applies opts to the request configuration in order. Each option
// changes only its own field, so partial retry or validation settings keep
// the other values.
func (b *RequestBuilder) SetConfig(opts ...Option) *RequestBuilder {
	b.req.Config = b.req.Config.With(opts...)
	return b
}

// SetBaseURL takes the base URL from cfg: BaseURL when set, otherwise the
// environment. A cfg with neither leaves the current base URL.
func (b *RequestBuilder) SetBaseURL(cfg Config) *RequestBuilder {
	if url := cfg.ResolvedBaseURL(); url != "" {
		b.req.BaseURL = url
	}
	return b
}

func (b *RequestBuilder) SetMethod(method string) *RequestBuilder {
	b.req.Method = method
	return b
}

func (b *RequestBuilder) SetPath(pattern string) *RequestBuilder {
	b.req.PathPattern = pattern
	return b
}

func (b *RequestBuilder) SetRequestContentType(ct ContentType) *RequestBuilder {
	b.req.RequestContentType = ct
	return b
}

func (b *RequestBuilder) SetRequestSchema(s Schema) *RequestBuilder {
	b.req.RequestSchema = s
	return b
}

func (b *RequestBuilder) AddResponse(def ResponseDefinition) *RequestBuilder {
	b.req.Responses = append(b.req.Responses, def)
	return b
}

func (b *RequestBuilder) AddError(def ErrorDefinition) *RequestBuilder {
	b.req.Errors = append(b.req.Errors, def)
	return b
}

func (b *RequestBuilder) SetPagination(p Pagination) *RequestBuilder {
	b.req.Pagination = p
	return b
}

func (b *RequestBuilder) SetFilename(name string) *RequestBuilder {
	b.req.Filename = name
	return b
}

func (b *RequestBuilder) SetFilenames(names []string) *RequestBuilder {
	b.req.Filenames = names
	return b
}

func (b *RequestBuilder) AddBody(body any) *RequestBuilder {
	b.req.AddBody(body)
	return b
}

func (b *RequestBuilder) AddPathParam(key string, value any, opts ...ParamOption) *RequestBuilder {
	b.req.AddPathParam(key, value, opts...)
	return b
}

func (b *RequestBuilder) AddQueryParam(key string, value any, opts ...ParamOption) *RequestBuilder {
	b.req.AddQueryParam(key, value, opts...)
	return b
}

func (b *RequestBuilder) AddHeaderParam(key string, value any, opts ...ParamOption) *RequestBuilder {
	b.req.AddHeaderParam(key, value, opts...)
	return b
}

func (b *RequestBuilder) AddCookieParam(key string, value any, opts ...ParamOption) *RequestBuilder {
	b.req.AddCookieParam(key, value, opts...)
	return b
}

// AddAccessTokenAuth sends token in the Authorization header behind prefix
// ("Bearer" when empty). It is a no-op when token is empty.
func (b *RequestBuilder) AddAccessTokenAuth(token, prefix string) *RequestBuilder {
	if token == "" {
		return b
	}
	if prefix == "" {
		prefix = "Bearer"
	}
	b.req.AddHeaderParam("Authorization", prefix+" "+token)
	return b
}

// AddBasicAuth sends HTTP basic credentials. It is a no-op when username
// is empty.
func (b *RequestBuilder) AddBasicAuth(username, password string) *RequestBuilder {
	if username == "" {
		return b
	}
	creds := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	b.req.AddHeaderParam("Authorization", "Basic "+creds)
	return b
}

// AddAPIKeyAuth sends key in header (X-API-KEY when empty). It is a no-op
// when key is empty.
func (b *RequestBuilder) AddAPIKeyAuth(key, header string) *RequestBuilder {
	if key == "" {
		return b
	}
	if header == "" {
		header = defaultAPIKeyHeader
	}
	b.req.AddHeaderParam(header, key)
	return b
}

// Build returns a Request independent of the builder.
func (b *RequestBuilder) Build() *Request {
	return b.req.Copy()
}
