package bank

import (
	"encoding/json"

	cosmic "github.com/cosmicbank/cosmic-go"
)

// NotFoundError is returned when the account or transaction does not exist.
type NotFoundError struct {
	cosmic.ErrorBase
}

// BadRequestError is returned when the server rejects the input.
type BadRequestError struct {
	cosmic.ErrorBase
	Details []string `json:"details"`
}

var (
	notFound = cosmic.ErrorDefinition{
		StatusCode:  404,
		ContentType: cosmic.ContentTypeJSON,
		New: func(message string, _ []byte) error {
			return &NotFoundError{ErrorBase: cosmic.NewErrorBase(message)}
		},
	}
	badRequest = cosmic.ErrorDefinition{
		StatusCode:  400,
		ContentType: cosmic.ContentTypeJSON,
		New: func(message string, body []byte) error {
			e := &BadRequestError{ErrorBase: cosmic.NewErrorBase(message)}
			e.Details = details(body)
			return e
		},
	}
)

func details(body []byte) []string {
	var v struct {
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return nil
	}
	return v.Details
}
