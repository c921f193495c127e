package cosmic

import (
	"encoding/base64"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func offsetValue(t *testing.T, r *Request) any {
	t.Helper()
	p, ok := r.QueryParams.Get("offset")
	require.True(t, ok)
	return p.Value
}

func TestNextPage_Offset(t *testing.T) {
	r := NewRequestBuilder().
		SetPath("/accounts").
		AddQueryParam("limit", 20, AsLimit()).
		AddQueryParam("offset", 0, AsOffset()).
		SetPagination(&OffsetPagination{PageSize: 20, PagePath: []string{"data"}}).
		Build()

	require.NoError(t, r.NextPage(nil))
	assert.Equal(t, int64(20), offsetValue(t, r))
	require.NoError(t, r.NextPage(nil))
	assert.Equal(t, int64(40), offsetValue(t, r))
	assert.Equal(t, "/accounts?limit=20&offset=40", r.ConstructFullURL())
}

func TestNextPage_OffsetWithoutPageSize(t *testing.T) {
	r := NewRequestBuilder().
		AddQueryParam("offset", 0, AsOffset()).
		SetPagination(&OffsetPagination{PagePath: []string{"data"}}).
		Build()

	err := r.NextPage(nil)
	require.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, 0, offsetValue(t, r))
}

func TestNextPage_Cursor(t *testing.T) {
	r := NewRequestBuilder().
		AddQueryParam("cursor", (*string)(nil), AsCursor()).
		SetPagination(&CursorPagination{PagePath: []string{"data"}, CursorPath: []string{"next"}}).
		Build()
	assert.Equal(t, "", r.ConstructFullURL())

	require.NoError(t, r.NextPage("c2"))
	assert.Equal(t, "?cursor=c2", r.ConstructFullURL())

	// A nil cursor leaves the request alone.
	require.NoError(t, r.NextPage(nil))
	assert.Equal(t, "?cursor=c2", r.ConstructFullURL())
}

func TestNextPage_CursorWithoutParameter(t *testing.T) {
	r := NewRequestBuilder().
		SetPagination(&CursorPagination{CursorPath: []string{"next"}}).
		Build()
	require.NoError(t, r.NextPage("c2"))
	assert.Equal(t, "", r.ConstructFullURL())
}

func TestNextPage_NoPagination(t *testing.T) {
	r := NewRequestBuilder().Build()
	assert.ErrorIs(t, r.NextPage(nil), ErrConfiguration)
}

func TestCopy_Independent(t *testing.T) {
	orig := NewRequestBuilder().
		AddQueryParam("offset", 0, AsOffset()).
		AddHeaderParam("X-A", "1").
		SetConfig(WithHookParams(map[string]string{"k": "v"})).
		SetPagination(&OffsetPagination{PageSize: 10}).
		Build()

	cp := orig.Copy(func(r *Request) { r.Method = http.MethodPost })
	require.NoError(t, cp.NextPage(nil))
	cp.AddHeaderParam("X-B", "2")
	cp.Config.HookParams["k"] = "changed"

	assert.Equal(t, http.MethodGet, orig.Method)
	assert.Equal(t, http.MethodPost, cp.Method)
	assert.Equal(t, 0, offsetValue(t, orig))
	assert.Equal(t, int64(10), offsetValue(t, cp))
	assert.Equal(t, 1, orig.HeaderParams.Len())
	assert.Equal(t, "v", orig.Config.HookParams["k"])
	assert.Same(t, orig.Pagination, cp.Pagination)
}

func TestRequestBuilder_Defaults(t *testing.T) {
	r := NewRequestBuilder().Build()
	assert.Equal(t, http.MethodGet, r.Method)
	assert.Equal(t, ContentTypeJSON, r.RequestContentType)
	assert.Equal(t, DefaultConfig(), r.Config)
}

func TestRequestBuilder_BaseURL(t *testing.T) {
	r := NewRequestBuilder().
		SetBaseURL(NewConfig(WithEnvironment("https://env.example"))).
		Build()
	assert.Equal(t, "https://env.example", r.BaseURL)

	r = NewRequestBuilder().
		SetBaseURL(NewConfig(WithEnvironment("https://env.example"), WithBaseURL("https://override.example"))).
		SetPath("/x").
		Build()
	assert.Equal(t, "https://override.example/x", r.ConstructFullURL())
}

func TestRequestBuilder_Auth(t *testing.T) {
	headers := func(b *RequestBuilder) map[string]string {
		r := b.Build()
		return SerializeHeaders(&r.HeaderParams)
	}

	assert.Equal(t, map[string]string{"Authorization": "Bearer tok"},
		headers(NewRequestBuilder().AddAccessTokenAuth("tok", "")))
	assert.Equal(t, map[string]string{"Authorization": "Token tok"},
		headers(NewRequestBuilder().AddAccessTokenAuth("tok", "Token")))
	assert.Empty(t, headers(NewRequestBuilder().AddAccessTokenAuth("", "")))

	creds := base64.StdEncoding.EncodeToString([]byte("ann:secret"))
	assert.Equal(t, map[string]string{"Authorization": "Basic " + creds},
		headers(NewRequestBuilder().AddBasicAuth("ann", "secret")))
	assert.Empty(t, headers(NewRequestBuilder().AddBasicAuth("", "secret")))

	assert.Equal(t, map[string]string{"X-API-KEY": "k"},
		headers(NewRequestBuilder().AddAPIKeyAuth("k", "")))
	assert.Equal(t, map[string]string{"X-Key": "k"},
		headers(NewRequestBuilder().AddAPIKeyAuth("k", "X-Key")))
}

func TestRequestBuilder_BuildIsolated(t *testing.T) {
	b := NewRequestBuilder().AddQueryParam("a", 1)
	first := b.Build()
	b.AddQueryParam("b", 2)
	second := b.Build()

	assert.Equal(t, "?a=1", first.ConstructFullURL())
	assert.Equal(t, "?a=1&b=2", second.ConstructFullURL())
}

func TestAddBody(t *testing.T) {
	r := NewRequestBuilder().AddBody(0).Build()
	assert.Equal(t, 0, r.Body)

	r = NewRequestBuilder().AddBody((*struct{})(nil)).Build()
	assert.Nil(t, r.Body)
}
