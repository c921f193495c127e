// Package testutil provides a scripted HTTP server for testing code built on
// the cosmic client. It replays canned replies and records every request it
// receives.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Reply is one canned response.
type Reply struct {
	Status int
	Header http.Header
	Body   []byte
}

// JSON returns a reply with v encoded as the JSON body.
func JSON(status int, v any) Reply {
	data, _ := json.Marshal(v)
	return Raw(status, "application/json", string(data))
}

// Raw returns a reply with the given content type and body.
func Raw(status int, contentType, body string) Reply {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return Reply{Status: status, Header: h, Body: []byte(body)}
}

// Status returns a reply with no body.
func Status(status int) Reply {
	return Reply{Status: status}
}

// Recorded is a request as the server received it.
type Recorded struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Server replays replies in order; once they run out the last reply is
// repeated. With no replies it answers 200 with an empty body.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	replies  []Reply
	served   int
	requests []Recorded
}

// NewServer starts a server closed at the end of the test.
func NewServer(t testing.TB, replies ...Reply) *Server {
	t.Helper()
	s := &Server{replies: replies}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Enqueue appends replies to the script.
func (s *Server) Enqueue(replies ...Reply) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, replies...)
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Recorded{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	reply := Reply{Status: http.StatusOK}
	if n := len(s.replies); n > 0 {
		reply = s.replies[min(s.served, n-1)]
	}
	s.served++
	s.mu.Unlock()

	for k, vs := range reply.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	status := reply.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	w.Write(reply.Body)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// Attempts returns the number of requests received.
func (s *Server) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Last returns the most recent request. It fails the test when there is none.
func (s *Server) Last(t testing.TB) Recorded {
	t.Helper()
	reqs := s.Requests()
	if len(reqs) == 0 {
		t.Fatal("no request received")
	}
	return reqs[len(reqs)-1]
}

// AssertAttempts checks how many requests the server received.
func AssertAttempts(t testing.TB, s *Server, expected int) {
	t.Helper()
	if got := s.Attempts(); got != expected {
		t.Errorf("expected %d attempts, got %d", expected, got)
	}
}

// AssertJSONBody decodes the request body and compares it with expected.
func AssertJSONBody(t testing.TB, r Recorded, expected any) {
	t.Helper()

	// Compare as JSON to ignore formatting differences
	expectedJSON, _ := json.Marshal(expected)
	var expectedData, actualData any
	json.Unmarshal(expectedJSON, &expectedData)
	if err := json.Unmarshal(r.Body, &actualData); err != nil {
		t.Fatalf("failed to decode request body: %v\nBody: %s", err, r.Body)
	}

	expectedStr, _ := json.MarshalIndent(expectedData, "", "  ")
	actualStr, _ := json.MarshalIndent(actualData, "", "  ")
	if string(expectedStr) != string(actualStr) {
		t.Errorf("request body mismatch:\nExpected:\n%s\nActual:\n%s", expectedStr, actualStr)
	}
}

// AssertHeader checks that a request header has the expected value.
func AssertHeader(t testing.TB, r Recorded, key, expectedValue string) {
	t.Helper()
	if actual := r.Header.Get(key); actual != expectedValue {
		t.Errorf("expected header %s=%s, got %s", key, expectedValue, actual)
	}
}
