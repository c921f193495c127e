package cosmic

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ResponseMetadata describes the HTTP exchange that produced a response.
type ResponseMetadata struct {
	Status     int
	StatusText string
	Headers    http.Header
}

// Response is the result of one call through the handler chain.
// Data is set only after decoding; Raw keeps the body bytes so hooks and
// error handling can inspect them again.
type Response struct {
	Data     any
	Metadata ResponseMetadata
	Raw      []byte
}

// WithHeaders is the decoded data of a request made with response-header
// capture enabled.
type WithHeaders struct {
	Data    any
	Headers http.Header
}

// TypedResponse is a Response whose data has been converted to T.
type TypedResponse[T any] struct {
	Data     T
	Metadata ResponseMetadata
}

// As returns the decoded data of resp as T. Data that is not already a T,
// such as the generic value produced when response validation is disabled,
// is converted through JSON.
func As[T any](resp *Response) (T, error) {
	var zero T
	if resp == nil {
		return zero, fmt.Errorf("cosmic: nil response")
	}
	data := resp.Data
	if wh, ok := data.(WithHeaders); ok {
		data = wh.Data
	}
	switch v := data.(type) {
	case T:
		return v, nil
	case *T:
		if v != nil {
			return *v, nil
		}
		return zero, nil
	case nil:
		return zero, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return zero, fmt.Errorf("cosmic: convert %T: %w", data, err)
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return zero, fmt.Errorf("cosmic: convert %T: %w", data, err)
	}
	return out, nil
}

// Typed wraps resp as a TypedResponse[T].
func Typed[T any](resp *Response) (*TypedResponse[T], error) {
	data, err := As[T](resp)
	if err != nil {
		return nil, err
	}
	return &TypedResponse[T]{Data: data, Metadata: resp.Metadata}, nil
}
