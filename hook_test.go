package cosmic

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture returns a terminal recording the request it receives and
// answering with resp.
func capture(resp *Response, got **Request) Terminal {
	return terminalFunc(func(_ context.Context, req *Request) (*Response, error) {
		*got = req
		return resp, nil
	})
}

func jsonResponse(status int, body string) *Response {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	return &Response{
		Metadata: ResponseMetadata{Status: status, StatusText: http.StatusText(status), Headers: h},
		Raw:      []byte(body),
	}
}

type rewriteHook struct {
	DefaultHook
	seenParams map[string]string
}

func (h *rewriteHook) BeforeRequest(_ context.Context, req *HookRequest, params map[string]string) (*HookRequest, error) {
	h.seenParams = params
	req.BaseURL = "https://rewritten.example"
	req.Headers["X-Added"] = "yes"
	delete(req.Headers, "X-Drop")
	req.QueryParams["ids"] = []int{7, 8}
	req.QueryParams["new"] = "n"
	return req, nil
}

func TestHookHandler_BeforeRequest(t *testing.T) {
	req := NewRequestBuilder().
		SetPath("/items").
		AddHeaderParam("X-Drop", "1").
		AddHeaderParam("X-Keep", []int{1, 2}).
		AddQueryParam("ids", []int{1, 2}, WithStyle(StylePipeDelimited), WithExplode(false)).
		SetConfig(WithHookParams(map[string]string{"tenant": "acme"})).
		Build()

	hook := &rewriteHook{}
	var sent *Request
	chain, err := NewChain(capture(jsonResponse(200, `{}`), &sent), NewHookHandler(hook))
	require.NoError(t, err)

	_, err = chain.Handle(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"tenant": "acme"}, hook.seenParams)
	assert.Equal(t, "https://rewritten.example/items?ids=7|8&new=n", sent.ConstructFullURL())
	assert.Equal(t, map[string]string{"X-Keep": "1,2", "X-Added": "yes"}, SerializeHeaders(&sent.HeaderParams))

	// The header the hook left alone keeps its original value.
	keep, ok := sent.HeaderParams.Get("X-Keep")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, keep.Value)

	// The caller's request is not modified.
	assert.Equal(t, "/items?ids=1|2", req.ConstructFullURL())
}

// With the default hook a call ends with the same data as without any hook.
func TestHookHandler_PassThrough(t *testing.T) {
	def := ResponseDefinition{Schema: Model[testAccount](), ContentType: ContentTypeJSON, StatusCode: 200}
	req := NewRequestBuilder().AddResponse(def).Build()
	body := `{"owner":"John Doe","currency":"COSMIC_COINS","balance":1000}`

	run := func(handlers ...Handler) *Response {
		var sent *Request
		all := append([]Handler{ResponseValidationHandler{}}, handlers...)
		chain, err := NewChain(capture(jsonResponse(200, body), &sent), all...)
		require.NoError(t, err)
		resp, err := chain.Handle(context.Background(), req)
		require.NoError(t, err)
		return resp
	}

	withHook := run(NewHookHandler(nil))
	without := run()
	assert.Equal(t, without.Data, withHook.Data)
	assert.Equal(t, without.Metadata, withHook.Metadata)
}

type afterHook struct{ DefaultHook }

func (afterHook) AfterResponse(_ context.Context, _ *HookRequest, resp *HookResponse, _ map[string]string) (*HookResponse, error) {
	resp.Body = []byte(`{"patched":true}`)
	return resp, nil
}

func TestHookHandler_AfterResponse(t *testing.T) {
	var sent *Request
	chain, err := NewChain(capture(jsonResponse(200, `{}`), &sent), NewHookHandler(afterHook{}))
	require.NoError(t, err)

	resp, err := chain.Handle(context.Background(), NewRequestBuilder().Build())
	require.NoError(t, err)
	assert.JSONEq(t, `{"patched":true}`, string(resp.Raw))
}

type notFoundError struct {
	ErrorBase
}

func TestHookHandler_TypedError(t *testing.T) {
	req := NewRequestBuilder().
		AddError(ErrorDefinition{
			StatusCode:  404,
			ContentType: ContentTypeJSON,
			New: func(message string, _ []byte) error {
				return &notFoundError{ErrorBase: NewErrorBase(message)}
			},
		}).
		Build()

	var sent *Request
	chain, err := NewChain(capture(jsonResponse(404, `{"message":"no such account"}`), &sent), NewHookHandler(nil))
	require.NoError(t, err)

	_, err = chain.Handle(context.Background(), req)
	var nf *notFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "no such account", nf.Message)
	assert.Equal(t, http.StatusNotFound, nf.StatusCode())
	assert.Equal(t, "application/json", nf.Metadata.Headers.Get("Content-Type"))
	assert.Equal(t, "http 404: no such account", err.Error())
}

func TestHookHandler_GenericError(t *testing.T) {
	var sent *Request
	resp := jsonResponse(500, `{"oops":1}`)
	chain, err := NewChain(capture(resp, &sent), NewHookHandler(nil))
	require.NoError(t, err)

	_, err = chain.Handle(context.Background(), NewRequestBuilder().Build())
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, 500, herr.StatusCode())
	assert.Equal(t, CodeInternal, herr.Code())
	assert.Equal(t, `http 500 Internal Server Error: {"oops":1}`, herr.Error())
}

type onErrorHook struct{ DefaultHook }

var errCustom = errors.New("custom failure")

func (onErrorHook) OnError(context.Context, *HookRequest, *HookResponse, map[string]string) error {
	return errCustom
}

func TestHookHandler_OnError(t *testing.T) {
	var sent *Request
	chain, err := NewChain(capture(jsonResponse(502, `bad`), &sent), NewHookHandler(onErrorHook{}))
	require.NoError(t, err)

	_, err = chain.Handle(context.Background(), NewRequestBuilder().Build())
	assert.ErrorIs(t, err, errCustom)
}
