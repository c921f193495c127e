package cosmic

import (
	"context"
	"encoding/json"
	"iter"
	"maps"
	"net/http"
	"slices"
)

// HookRequest is the view of a request passed to hooks: plain values with
// no serialization metadata.
type HookRequest struct {
	BaseURL     string
	Method      string
	Path        string
	Headers     map[string]string
	QueryParams map[string]any
	PathParams  map[string]any
	Body        any
}

// HookResponse is the view of a response passed to hooks.
type HookResponse struct {
	Status     int
	StatusText string
	Headers    http.Header
	Body       []byte
}

// Hook lets callers observe and rewrite calls. Embed DefaultHook to
// implement only the methods you need.
type Hook interface {
	// BeforeRequest may return a modified request. Changed values keep the
	// serialization settings of the parameter they replace.
	BeforeRequest(ctx context.Context, req *HookRequest, params map[string]string) (*HookRequest, error)

	// AfterResponse is called for responses with status below 400.
	AfterResponse(ctx context.Context, req *HookRequest, resp *HookResponse, params map[string]string) (*HookResponse, error)

	// OnError is called for failure responses that match no typed error
	// definition. It returns the error to raise.
	OnError(ctx context.Context, req *HookRequest, resp *HookResponse, params map[string]string) error
}

// DefaultHook passes requests and responses through unchanged.
type DefaultHook struct{}

func (DefaultHook) BeforeRequest(_ context.Context, req *HookRequest, _ map[string]string) (*HookRequest, error) {
	return req, nil
}

func (DefaultHook) AfterResponse(_ context.Context, _ *HookRequest, resp *HookResponse, _ map[string]string) (*HookResponse, error) {
	return resp, nil
}

func (DefaultHook) OnError(_ context.Context, _ *HookRequest, resp *HookResponse, _ map[string]string) error {
	return &HTTPError{
		Metadata: ResponseMetadata{Status: resp.Status, StatusText: resp.StatusText, Headers: resp.Headers},
		Body:     resp.Body,
	}
}

// HookHandler runs the user hook around the network exchange and turns
// failure responses into errors.
type HookHandler struct {
	hook Hook
}

// NewHookHandler returns a hook stage. A nil hook behaves as DefaultHook.
func NewHookHandler(hook Hook) *HookHandler {
	if hook == nil {
		hook = DefaultHook{}
	}
	return &HookHandler{hook: hook}
}

func (h *HookHandler) Handle(ctx context.Context, req *Request, next Next) (*Response, error) {
	view, out, err := h.before(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := next(ctx, out)
	if err != nil {
		return nil, err
	}
	return h.after(ctx, out, view, resp)
}

func (h *HookHandler) Stream(ctx context.Context, req *Request, next StreamNext) iter.Seq2[*Response, error] {
	return func(yield func(*Response, error) bool) {
		view, out, err := h.before(ctx, req)
		if err != nil {
			yield(nil, err)
			return
		}
		for resp, err := range next(ctx, out) {
			if err == nil {
				resp, err = h.after(ctx, out, view, resp)
			}
			if !yield(resp, err) || err != nil {
				return
			}
		}
	}
}

func (h *HookHandler) before(ctx context.Context, req *Request) (*HookRequest, *Request, error) {
	view, err := h.hook.BeforeRequest(ctx, newHookRequest(req), req.Config.HookParams)
	if err != nil {
		return nil, nil, err
	}
	if view == nil {
		view = newHookRequest(req)
	}
	return view, applyHookRequest(req, view), nil
}

func (h *HookHandler) after(ctx context.Context, req *Request, view *HookRequest, resp *Response) (*Response, error) {
	hresp := &HookResponse{
		Status:     resp.Metadata.Status,
		StatusText: resp.Metadata.StatusText,
		Headers:    resp.Metadata.Headers,
		Body:       resp.Raw,
	}
	if resp.Metadata.Status >= 400 {
		return nil, h.failure(ctx, req, view, resp, hresp)
	}
	out, err := h.hook.AfterResponse(ctx, view, hresp, req.Config.HookParams)
	if err != nil {
		return nil, err
	}
	if out == nil {
		return resp, nil
	}
	return &Response{
		Data:     resp.Data,
		Metadata: ResponseMetadata{Status: out.Status, StatusText: out.StatusText, Headers: out.Headers},
		Raw:      out.Body,
	}, nil
}

// failure builds the error for a response with status >= 400: the matching
// typed error when one is declared, otherwise whatever OnError returns.
func (h *HookHandler) failure(ctx context.Context, req *Request, view *HookRequest, resp *Response, hresp *HookResponse) error {
	contentType := resp.Metadata.Headers.Get(headerContentType)
	if def, ok := matchError(req.Errors, resp.Metadata.Status, contentType); ok {
		if err := def.New(errorMessage(resp.Raw), resp.Raw); err != nil {
			if ms, ok := err.(metadataSetter); ok {
				ms.setMetadata(resp.Metadata)
			}
			return err
		}
	}
	if err := h.hook.OnError(ctx, view, hresp, req.Config.HookParams); err != nil {
		return err
	}
	return NewHTTPError(resp)
}

// errorMessage extracts the "message" field of a JSON error body.
func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Message
}

func newHookRequest(req *Request) *HookRequest {
	return &HookRequest{
		BaseURL:     req.BaseURL,
		Method:      req.Method,
		Path:        req.PathPattern,
		Headers:     SerializeHeaders(&req.HeaderParams),
		QueryParams: req.QueryParams.Values(),
		PathParams:  req.PathParams.Values(),
		Body:        req.Body,
	}
}

// applyHookRequest folds the hook's view back into a copy of req. Parameters
// keep their serialization settings; keys the hook removed are dropped and
// new keys get location defaults.
func applyHookRequest(req *Request, view *HookRequest) *Request {
	return req.Copy(func(r *Request) {
		r.BaseURL = view.BaseURL
		r.Method = view.Method
		r.PathPattern = view.Path
		r.Body = view.Body

		original := SerializeHeaders(&req.HeaderParams)
		r.HeaderParams = foldParams(&req.HeaderParams, stringValues(view.Headers), func(p Parameter, v any) bool {
			return original[p.Key] != v
		}, StyleSimple, false)
		r.QueryParams = foldParams(&req.QueryParams, view.QueryParams, always, StyleForm, true)
		r.PathParams = foldParams(&req.PathParams, view.PathParams, always, StyleSimple, false)
	})
}

func always(Parameter, any) bool { return true }

func stringValues(m map[string]string) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// foldParams rebuilds a parameter set from hook values. changed decides
// whether an existing parameter takes the hook value; new keys get the
// location defaults style and explode.
func foldParams(orig *Params, values map[string]any, changed func(Parameter, any) bool, style Style, explode bool) Params {
	var out Params
	for p := range orig.All() {
		v, ok := values[p.Key]
		if !ok || isUnset(v) {
			continue
		}
		if changed(p, v) {
			p.Value = v
		}
		out.Set(p)
	}
	for _, k := range slices.Sorted(maps.Keys(values)) {
		if _, ok := orig.Get(k); ok || k == "" || isUnset(values[k]) {
			continue
		}
		out.Set(newParameter(k, values[k], style, explode, nil))
	}
	return out
}
