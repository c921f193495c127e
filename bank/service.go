// Package bank is a typed client for the Cosmic Bank accounts API.
package bank

import (
	"context"
	"iter"
	"net/http"

	cosmic "github.com/cosmicbank/cosmic-go"
)

const (
	// Production is the live API.
	Production cosmic.Environment = "https://api.cosmicbank.example/v1"
	// Sandbox serves test data.
	Sandbox cosmic.Environment = "https://sandbox.cosmicbank.example/v1"
)

// DefaultPageSize is used by ListAccounts when no limit is given.
const DefaultPageSize = 20

// Service calls the accounts and transactions endpoints.
type Service struct {
	client  *cosmic.Client
	options []cosmic.Option
}

// NewService returns a service sending through client. opts apply to every
// call of the service, after the client options.
func NewService(client *cosmic.Client, opts ...cosmic.Option) *Service {
	return &Service{client: client, options: opts}
}

// newRequest starts a request with the configuration of the client, the
// service and the call, in that order, plus credentials.
func (s *Service) newRequest(method, path string, opts []cosmic.Option) *cosmic.RequestBuilder {
	b := cosmic.NewRequestBuilder().
		SetConfig(s.client.Options()...).
		SetConfig(s.options...).
		SetConfig(opts...).
		SetMethod(method).
		SetPath(path).
		AddError(notFound).
		AddError(badRequest)
	cfg := s.client.Config().With(s.options...).With(opts...)
	return b.SetBaseURL(withDefaultEnvironment(cfg)).
		AddAccessTokenAuth(cfg.AccessToken, "").
		AddBasicAuth(cfg.Username, cfg.Password).
		AddAPIKeyAuth(cfg.APIKey, cfg.APIKeyHeader)
}

func withDefaultEnvironment(cfg cosmic.Config) cosmic.Config {
	if cfg.ResolvedBaseURL() == "" {
		cfg.Environment = Production
	}
	return cfg
}

// CreateAccount opens an account.
func (s *Service) CreateAccount(ctx context.Context, in CreateAccountRequest, opts ...cosmic.Option) (*cosmic.TypedResponse[Account], error) {
	req := s.newRequest(http.MethodPost, "/accounts", opts).
		SetRequestSchema(cosmic.Model[CreateAccountRequest]()).
		AddBody(in).
		AddResponse(cosmic.ResponseDefinition{
			Schema:      cosmic.Model[Account](),
			ContentType: cosmic.ContentTypeJSON,
			StatusCode:  http.StatusOK,
		}).
		Build()
	return call[Account](ctx, s.client, req)
}

// GetAccount fetches one account. A missing account returns *NotFoundError.
func (s *Service) GetAccount(ctx context.Context, accountID string, opts ...cosmic.Option) (*cosmic.TypedResponse[Account], error) {
	req := s.newRequest(http.MethodGet, "/accounts/{accountId}", opts).
		AddPathParam("accountId", accountID).
		AddResponse(cosmic.ResponseDefinition{
			Schema:      cosmic.Model[Account](),
			ContentType: cosmic.ContentTypeJSON,
			StatusCode:  http.StatusOK,
		}).
		Build()
	return call[Account](ctx, s.client, req)
}

// UpdateAccount changes the owner or currency of an account. The fields
// are sent form-urlencoded.
func (s *Service) UpdateAccount(ctx context.Context, accountID string, in UpdateAccountRequest, opts ...cosmic.Option) (*cosmic.TypedResponse[Account], error) {
	req := s.newRequest(http.MethodPatch, "/accounts/{accountId}", opts).
		AddPathParam("accountId", accountID).
		SetRequestContentType(cosmic.ContentTypeFormURLEncoded).
		SetRequestSchema(cosmic.Model[UpdateAccountRequest]()).
		AddBody(in).
		AddResponse(cosmic.ResponseDefinition{
			Schema:      cosmic.Model[Account](),
			ContentType: cosmic.ContentTypeJSON,
			StatusCode:  http.StatusOK,
		}).
		Build()
	return call[Account](ctx, s.client, req)
}

// DeleteAccount closes an account. The server answers 204.
func (s *Service) DeleteAccount(ctx context.Context, accountID string, opts ...cosmic.Option) (*cosmic.Response, error) {
	req := s.newRequest(http.MethodDelete, "/accounts/{accountId}", opts).
		AddPathParam("accountId", accountID).
		AddResponse(cosmic.ResponseDefinition{
			Schema:      cosmic.NoContent,
			ContentType: cosmic.ContentTypeJSON,
			StatusCode:  http.StatusNoContent,
		}).
		Build()
	return s.client.Call(ctx, req)
}

// UploadStatement attaches a statement file to an account as
// multipart/form-data.
func (s *Service) UploadStatement(ctx context.Context, accountID, filename string, in Statement, opts ...cosmic.Option) (*cosmic.TypedResponse[StatementReceipt], error) {
	req := s.newRequest(http.MethodPost, "/accounts/{accountId}/statements", opts).
		AddPathParam("accountId", accountID).
		SetRequestContentType(cosmic.ContentTypeMultipartFormData).
		SetRequestSchema(cosmic.Model[Statement]()).
		SetFilename(filename).
		AddBody(in).
		AddResponse(cosmic.ResponseDefinition{
			Schema:      cosmic.Model[StatementReceipt](),
			ContentType: cosmic.ContentTypeJSON,
			StatusCode:  http.StatusCreated,
		}).
		Build()
	return call[StatementReceipt](ctx, s.client, req)
}

// ListAccountsParams filters ListAccounts. Nil fields are not sent.
type ListAccountsParams struct {
	Limit    *int
	Offset   *int
	Currency *Currency
}

func (s *Service) listAccountsRequest(params ListAccountsParams, opts []cosmic.Option) *cosmic.Request {
	size := DefaultPageSize
	if params.Limit != nil {
		size = *params.Limit
	}
	offset := 0
	if params.Offset != nil {
		offset = *params.Offset
	}
	return s.newRequest(http.MethodGet, "/accounts", opts).
		AddQueryParam("limit", size, cosmic.AsLimit()).
		AddQueryParam("offset", offset, cosmic.AsOffset()).
		AddQueryParam("currency", params.Currency).
		AddResponse(cosmic.ResponseDefinition{
			Schema:      cosmic.Model[AccountPage](),
			ContentType: cosmic.ContentTypeJSON,
			StatusCode:  http.StatusOK,
		}).
		SetPagination(&cosmic.OffsetPagination{
			PageSize:   size,
			PagePath:   []string{"data"},
			PageSchema: cosmic.List[Account](),
		}).
		Build()
}

// ListAccounts returns one page of accounts.
func (s *Service) ListAccounts(ctx context.Context, params ListAccountsParams, opts ...cosmic.Option) (*cosmic.TypedResponse[AccountPage], error) {
	return call[AccountPage](ctx, s.client, s.listAccountsRequest(params, opts))
}

// AllAccounts pages through every account, starting at params.Offset.
func (s *Service) AllAccounts(ctx context.Context, params ListAccountsParams, opts ...cosmic.Option) iter.Seq2[[]Account, error] {
	return pages[Account](ctx, s.client, s.listAccountsRequest(params, opts))
}

// ListTransactionsParams pages ListTransactions. Cursor is the NextCursor
// of the previous page; nil starts from the first page.
type ListTransactionsParams struct {
	Cursor *string
	Limit  *int
}

func (s *Service) listTransactionsRequest(accountID string, params ListTransactionsParams, opts []cosmic.Option) *cosmic.Request {
	return s.newRequest(http.MethodGet, "/accounts/{accountId}/transactions", opts).
		AddPathParam("accountId", accountID).
		AddQueryParam("limit", params.Limit, cosmic.AsLimit()).
		AddQueryParam("cursor", params.Cursor, cosmic.AsCursor()).
		AddResponse(cosmic.ResponseDefinition{
			Schema:      cosmic.Model[TransactionPage](),
			ContentType: cosmic.ContentTypeJSON,
			StatusCode:  http.StatusOK,
		}).
		SetPagination(&cosmic.CursorPagination{
			PagePath:     []string{"data"},
			PageSchema:   cosmic.List[Transaction](),
			CursorPath:   []string{"meta", "nextCursor"},
			CursorSchema: cosmic.Nullable(cosmic.Scalar[string]()),
		}).
		Build()
}

// ListTransactions returns one page of an account's transactions.
func (s *Service) ListTransactions(ctx context.Context, accountID string, params ListTransactionsParams, opts ...cosmic.Option) (*cosmic.TypedResponse[TransactionPage], error) {
	return call[TransactionPage](ctx, s.client, s.listTransactionsRequest(accountID, params, opts))
}

// AllTransactions pages through an account's transactions by following
// the next cursor.
func (s *Service) AllTransactions(ctx context.Context, accountID string, params ListTransactionsParams, opts ...cosmic.Option) iter.Seq2[[]Transaction, error] {
	return pages[Transaction](ctx, s.client, s.listTransactionsRequest(accountID, params, opts))
}

func call[T any](ctx context.Context, c *cosmic.Client, req *cosmic.Request) (*cosmic.TypedResponse[T], error) {
	resp, err := c.Call(ctx, req)
	if err != nil {
		return nil, err
	}
	return cosmic.Typed[T](resp)
}

func pages[T any](ctx context.Context, c *cosmic.Client, req *cosmic.Request) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		for page, err := range cosmic.Pages(ctx, c, req) {
			if err != nil {
				yield(nil, err)
				return
			}
			items, err := cosmic.Scalar[[]T]().Parse(page.Items)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(items.([]T), nil) {
				return
			}
		}
	}
}
