package middleware

import (
	"context"
	"iter"
	"net/http"
	"slices"
	"strings"

	"github.com/google/uuid"

	cosmic "github.com/cosmicbank/cosmic-go"
)

// IdempotencyHeader is the header IdempotencyKey sets.
const IdempotencyHeader = "Idempotency-Key"

// IdempotencyKey returns a handler that gives each call of one of methods
// (POST and PATCH when none are given) a random UUID in the
// Idempotency-Key header. Installed outside the retry stage, the key stays
// the same across retries of one call. Calls that already carry the header
// keep their value.
func IdempotencyKey(methods ...string) cosmic.Handler {
	if len(methods) == 0 {
		methods = []string{http.MethodPost, http.MethodPatch}
	}
	return &idempotency{methods: methods, newKey: uuid.NewString}
}

type idempotency struct {
	methods []string
	newKey  func() string
}

func (h *idempotency) Handle(ctx context.Context, req *cosmic.Request, next cosmic.Next) (*cosmic.Response, error) {
	return next(ctx, h.withKey(req))
}

func (h *idempotency) Stream(ctx context.Context, req *cosmic.Request, next cosmic.StreamNext) iter.Seq2[*cosmic.Response, error] {
	return next(ctx, h.withKey(req))
}

func (h *idempotency) withKey(req *cosmic.Request) *cosmic.Request {
	if !slices.ContainsFunc(h.methods, func(m string) bool { return strings.EqualFold(m, req.Method) }) {
		return req
	}
	for p := range req.HeaderParams.All() {
		if strings.EqualFold(p.Key, IdempotencyHeader) {
			return req
		}
	}
	return req.Copy(func(r *cosmic.Request) {
		r.AddHeaderParam(IdempotencyHeader, h.newKey())
	})
}
