package cosmic

import (
	"fmt"
	"slices"
)

// ResponseDefinition is a response shape an endpoint promises for a
// successful outcome.
type ResponseDefinition struct {
	Schema      Schema
	ContentType ContentType
	StatusCode  int
}

// ErrorDefinition maps a failure response to a typed error. New receives the
// "message" field of the decoded body (or "") and the raw body.
type ErrorDefinition struct {
	New         func(message string, body []byte) error
	ContentType ContentType
	StatusCode  int
}

// Pagination describes how an endpoint pages its results. It is either an
// *OffsetPagination or a *CursorPagination.
type Pagination interface {
	pagePath() []string
	pageSchema() Schema
}

// OffsetPagination pages by advancing a numeric offset parameter.
type OffsetPagination struct {
	PageSize   int
	PagePath   []string
	PageSchema Schema
}

func (p *OffsetPagination) pagePath() []string { return p.PagePath }
func (p *OffsetPagination) pageSchema() Schema { return p.PageSchema }

// CursorPagination pages by passing back an opaque cursor from the previous
// response.
type CursorPagination struct {
	PagePath     []string
	PageSchema   Schema
	CursorPath   []string
	CursorSchema Schema
}

func (p *CursorPagination) pagePath() []string { return p.PagePath }
func (p *CursorPagination) pageSchema() Schema { return p.PageSchema }

// Request describes one HTTP call. It is owned by the call site that built
// it and is never shared between concurrent calls.
type Request struct {
	BaseURL     string
	Method      string
	PathPattern string

	HeaderParams Params
	QueryParams  Params
	PathParams   Params
	CookieParams Params

	// Body is the payload before the request stage encodes it. nil means
	// no body.
	Body any

	Config             Config
	Responses          []ResponseDefinition
	Errors             []ErrorDefinition
	RequestSchema      Schema
	RequestContentType ContentType
	Pagination         Pagination

	Filename  string
	Filenames []string
}

// AddPathParam stores a path parameter (default style simple, explode
// false). It is a no-op when key is empty or value is unset.
func (r *Request) AddPathParam(key string, value any, opts ...ParamOption) {
	if key == "" {
		return
	}
	r.PathParams.add(newParameter(key, value, StyleSimple, false, opts))
}

// AddQueryParam stores a query parameter (default style form, explode
// true). It is a no-op when value is unset.
func (r *Request) AddQueryParam(key string, value any, opts ...ParamOption) {
	r.QueryParams.add(newParameter(key, value, StyleForm, true, opts))
}

// AddHeaderParam stores a header parameter (default style simple, explode
// false). It is a no-op when key is empty or value is unset.
func (r *Request) AddHeaderParam(key string, value any, opts ...ParamOption) {
	if key == "" {
		return
	}
	r.HeaderParams.add(newParameter(key, value, StyleSimple, false, opts))
}

// AddCookieParam stores a cookie parameter (default style form, explode
// false). It is a no-op when value is unset.
func (r *Request) AddCookieParam(key string, value any, opts ...ParamOption) {
	r.CookieParams.add(newParameter(key, value, StyleForm, false, opts))
}

// AddBody sets the payload. It is a no-op when body is unset; zero values
// such as 0 or "" are kept.
func (r *Request) AddBody(body any) {
	if isUnset(body) {
		return
	}
	r.Body = body
}

// ConstructPath substitutes the path parameters into PathPattern.
func (r *Request) ConstructPath() string {
	return SerializePath(r.PathPattern, &r.PathParams)
}

// ConstructFullURL returns base URL, path and query string.
func (r *Request) ConstructFullURL() string {
	return r.BaseURL + r.ConstructPath() + SerializeQuery(&r.QueryParams)
}

// Copy returns a new Request with every field taken from r and then the
// overrides applied. Parameter sets are cloned so that pagination advances
// on the copy leave r untouched; other fields are shared.
func (r *Request) Copy(overrides ...func(*Request)) *Request {
	out := *r
	out.HeaderParams = r.HeaderParams.Clone()
	out.QueryParams = r.QueryParams.Clone()
	out.PathParams = r.PathParams.Clone()
	out.CookieParams = r.CookieParams.Clone()
	out.Responses = slices.Clip(r.Responses)
	out.Errors = slices.Clip(r.Errors)
	out.Config = r.Config.clone()
	for _, o := range overrides {
		o(&out)
	}
	return &out
}

// NextPage advances the pagination parameter in place. With cursor
// pagination it sets the cursor parameter to cursor, doing nothing when
// cursor is nil or no parameter is marked as the cursor. With offset
// pagination it adds PageSize to the offset parameter and fails when no
// page size is configured.
func (r *Request) NextPage(cursor any) error {
	switch pg := r.Pagination.(type) {
	case *CursorPagination:
		if isUnset(cursor) {
			return nil
		}
		return r.updateRole(RoleCursor, func(Parameter) (any, error) { return cursor, nil })
	case *OffsetPagination:
		if pg.PageSize <= 0 {
			return configErrorf("offset pagination requires a page size")
		}
		return r.updateRole(RoleOffset, func(p Parameter) (any, error) {
			offset, err := toInt64(p.Value)
			if err != nil {
				return nil, fmt.Errorf("cosmic: offset parameter %q: %w", p.Key, err)
			}
			return offset + int64(pg.PageSize), nil
		})
	case nil:
		return configErrorf("request has no pagination")
	default:
		return configErrorf("unsupported pagination %T", pg)
	}
}

func (r *Request) updateRole(role PaginationRole, next func(Parameter) (any, error)) error {
	for _, ps := range []*Params{&r.QueryParams, &r.PathParams, &r.HeaderParams, &r.CookieParams} {
		p, ok := ps.withRole(role)
		if !ok {
			continue
		}
		v, err := next(p)
		if err != nil {
			return err
		}
		p.Value = v
		ps.Set(p)
		return nil
	}
	return nil
}

func (r *Request) hasRole(role PaginationRole) bool {
	for _, ps := range []*Params{&r.QueryParams, &r.PathParams, &r.HeaderParams, &r.CookieParams} {
		if _, ok := ps.withRole(role); ok {
			return true
		}
	}
	return false
}
