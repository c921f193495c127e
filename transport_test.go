package cosmic

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanEvents(t *testing.T) {
	in := "event: a\ndata: 1\n\ndata: 2\r\n\r\n\n\ndata: 3"
	sc := bufio.NewScanner(strings.NewReader(in))
	sc.Split(scanEvents)

	var events []string
	for sc.Scan() {
		if chunk := strings.TrimSpace(sc.Text()); chunk != "" {
			events = append(events, chunk)
		}
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, []string{"event: a\ndata: 1", "data: 2", "data: 3"}, events)
}

func TestBodyReader(t *testing.T) {
	tests := []struct {
		name string
		body any
		want string
	}{
		{"bytes", []byte("raw"), "raw"},
		{"string", "a=1", "a=1"},
		{"values", url.Values{"a": {"1"}, "b": {"x y"}}, "a=1&b=x+y"},
		{"reader", strings.NewReader("stream"), "stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := bodyReader(tt.body)
			require.NoError(t, err)
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}

	r, err := bodyReader(nil)
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = bodyReader(map[string]any{"a": 1})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://api.example/v1/accounts", redactURL("https://api.example/v1/accounts?api_key=secret"))
	assert.Equal(t, "https://api.example/v1", redactURL("https://api.example/v1"))
}

func TestTransport_Handle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("X-Echo-Method", r.Method)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	tr := NewTransport(srv.Client(), nil, discardLogger())
	req := NewRequestBuilder().
		SetBaseURL(NewConfig(WithBaseURL(srv.URL))).
		SetMethod(http.MethodPut).
		Build()
	req.Body = []byte("hello")

	resp, err := tr.Handle(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.Metadata.Status)
	assert.Equal(t, "Accepted", resp.Metadata.StatusText)
	assert.Equal(t, "PUT", resp.Metadata.Headers.Get("X-Echo-Method"))
	assert.Equal(t, "hello", string(resp.Raw))
	assert.Nil(t, resp.Data)
}

func TestTransport_UnencodedBody(t *testing.T) {
	tr := NewTransport(nil, nil, discardLogger())
	req := NewRequestBuilder().SetBaseURL(NewConfig(WithBaseURL("http://bank.invalid"))).Build()
	req.Body = struct{ A int }{1}

	_, err := tr.Handle(context.Background(), req)
	assert.ErrorIs(t, err, ErrConfiguration)
}
