package bank

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cosmic "github.com/cosmicbank/cosmic-go"
	"github.com/cosmicbank/cosmic-go/testutil"
)

func newService(t *testing.T, srv *testutil.Server, opts ...cosmic.Option) *Service {
	t.Helper()
	client, err := cosmic.NewClient(
		cosmic.WithLogger(slog.New(slog.DiscardHandler)),
		cosmic.WithRetrySleeper(func(time.Duration) {}),
		cosmic.WithConfig(cosmic.WithBaseURL(srv.URL), cosmic.WithAccessToken("tok")),
	)
	require.NoError(t, err)
	return NewService(client, opts...)
}

func account(id, owner string) map[string]any {
	return map[string]any{"id": id, "owner": owner, "currency": "COSMIC_COINS", "balance": 1000}
}

func TestCreateAccount(t *testing.T) {
	srv := testutil.NewServer(t, testutil.JSON(http.StatusOK, account("a1", "John Doe")))
	svc := newService(t, srv)

	resp, err := svc.CreateAccount(context.Background(), CreateAccountRequest{
		Owner: "John Doe", Currency: CosmicCoins, Balance: 1000,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.Metadata.Status)
	assert.Equal(t, Account{ID: "a1", Owner: "John Doe", Currency: CosmicCoins, Balance: 1000}, resp.Data)

	last := srv.Last(t)
	assert.Equal(t, http.MethodPost, last.Method)
	assert.Equal(t, "/accounts", last.Path)
	testutil.AssertHeader(t, last, "Authorization", "Bearer tok")
	testutil.AssertJSONBody(t, last, map[string]any{"owner": "John Doe", "currency": "COSMIC_COINS", "balance": 1000})
}

func TestCreateAccount_InvalidInput(t *testing.T) {
	srv := testutil.NewServer(t)
	svc := newService(t, srv)

	_, err := svc.CreateAccount(context.Background(), CreateAccountRequest{Owner: "John Doe", Currency: "PESOS"})
	var verr *cosmic.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "currency", verr.Violations[0].Path)
	testutil.AssertAttempts(t, srv, 0)

	// Per-call options turn validation off.
	_, err = svc.CreateAccount(context.Background(), CreateAccountRequest{Owner: "John Doe", Currency: "PESOS"},
		cosmic.WithRequestValidation(false), cosmic.WithResponseValidation(false))
	require.NoError(t, err)
	testutil.AssertAttempts(t, srv, 1)
}

func TestCreateAccount_RetriesServerErrors(t *testing.T) {
	srv := testutil.NewServer(t, testutil.Raw(http.StatusInternalServerError, "text/plain", "down"))
	svc := newService(t, srv)

	_, err := svc.CreateAccount(context.Background(), CreateAccountRequest{Owner: "John Doe", Currency: CosmicCoins})
	var herr *cosmic.HTTPError
	require.ErrorAs(t, err, &herr)
	testutil.AssertAttempts(t, srv, 3)
}

func TestGetAccount_NotFound(t *testing.T) {
	srv := testutil.NewServer(t, testutil.JSON(http.StatusNotFound, map[string]string{"message": "no such account"}))
	svc := newService(t, srv)

	_, err := svc.GetAccount(context.Background(), "missing")

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "no such account", nf.Message)
	assert.Equal(t, http.StatusNotFound, nf.StatusCode())
	assert.Equal(t, "/accounts/missing", srv.Last(t).Path)
	testutil.AssertAttempts(t, srv, 1)
}

func TestGetAccount_BadRequest(t *testing.T) {
	srv := testutil.NewServer(t, testutil.JSON(http.StatusBadRequest, map[string]any{
		"message": "invalid id", "details": []string{"id must be alphanumeric"},
	}))
	svc := newService(t, srv)

	_, err := svc.GetAccount(context.Background(), "a-1")

	var br *BadRequestError
	require.ErrorAs(t, err, &br)
	assert.Equal(t, []string{"id must be alphanumeric"}, br.Details)
	assert.EqualError(t, err, "http 400: invalid id")
}

func TestUpdateAccount_Form(t *testing.T) {
	srv := testutil.NewServer(t, testutil.JSON(http.StatusOK, map[string]any{
		"id": "a1", "owner": "Jane Doe", "currency": "COSMIC_COINS",
	}))
	svc := newService(t, srv)

	resp, err := svc.UpdateAccount(context.Background(), "a1", UpdateAccountRequest{Owner: "Jane Doe"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", resp.Data.Owner)

	last := srv.Last(t)
	assert.Equal(t, http.MethodPatch, last.Method)
	testutil.AssertHeader(t, last, "Content-Type", "application/x-www-form-urlencoded")
	form, err := url.ParseQuery(string(last.Body))
	require.NoError(t, err)
	assert.Equal(t, url.Values{"owner": {"Jane Doe"}}, form)
}

func TestDeleteAccount(t *testing.T) {
	srv := testutil.NewServer(t, testutil.Status(http.StatusNoContent))
	svc := newService(t, srv)

	resp, err := svc.DeleteAccount(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.Metadata.Status)
	assert.Nil(t, resp.Data)
	assert.Equal(t, http.MethodDelete, srv.Last(t).Method)
}

func TestUploadStatement(t *testing.T) {
	srv := testutil.NewServer(t, testutil.JSON(http.StatusCreated, map[string]any{"id": "s1", "bytes": 14}))
	svc := newService(t, srv)
	pdf := []byte("%PDF-1.4\n%%EOF")

	resp, err := svc.UploadStatement(context.Background(), "a1", "sept.pdf", Statement{Period: "2026-09", File: pdf})
	require.NoError(t, err)
	assert.Equal(t, StatementReceipt{ID: "s1", Bytes: 14}, resp.Data)

	last := srv.Last(t)
	assert.Equal(t, "/accounts/a1/statements", last.Path)
	mediaType, params, err := mime.ParseMediaType(last.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	mr := multipart.NewReader(bytes.NewReader(last.Body), params["boundary"])
	fields := map[string]string{}
	var filename, fileType string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		fields[p.FormName()] = string(data)
		if p.FormName() == "file" {
			filename, fileType = p.FileName(), p.Header.Get("Content-Type")
		}
	}
	assert.Equal(t, map[string]string{"period": "2026-09", "file": string(pdf)}, fields)
	assert.Equal(t, "sept.pdf", filename)
	assert.Equal(t, "application/pdf", fileType)
}

func TestListAccounts(t *testing.T) {
	srv := testutil.NewServer(t, testutil.JSON(http.StatusOK, map[string]any{
		"data": []any{account("a1", "Ann")}, "total": 1,
	}))
	svc := newService(t, srv)
	gold := GalaxyGold

	resp, err := svc.ListAccounts(context.Background(), ListAccountsParams{Currency: &gold})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, "limit=20&offset=0&currency=GALAXY_GOLD", srv.Last(t).Query)
}

func TestAllAccounts(t *testing.T) {
	srv := testutil.NewServer(t,
		testutil.JSON(http.StatusOK, map[string]any{"data": []any{account("a1", "Ann"), account("a2", "Bo")}, "total": 3}),
		testutil.JSON(http.StatusOK, map[string]any{"data": []any{account("a3", "Cy")}, "total": 3}),
	)
	svc := newService(t, srv)
	limit := 2

	var ids []string
	for page, err := range svc.AllAccounts(context.Background(), ListAccountsParams{Limit: &limit}) {
		require.NoError(t, err)
		for _, a := range page {
			ids = append(ids, a.ID)
		}
	}

	assert.Equal(t, []string{"a1", "a2", "a3"}, ids)
	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "limit=2&offset=0", reqs[0].Query)
	assert.Equal(t, "limit=2&offset=2", reqs[1].Query)
}

func TestAllTransactions(t *testing.T) {
	tx := func(id string) map[string]any {
		return map[string]any{"id": id, "accountId": "a1", "amount": 5, "createdAt": "2026-10-01T12:00:00Z"}
	}
	srv := testutil.NewServer(t,
		testutil.JSON(http.StatusOK, map[string]any{"data": []any{tx("t1"), tx("t2")}, "meta": map[string]any{"nextCursor": "c2"}}),
		testutil.JSON(http.StatusOK, map[string]any{"data": []any{tx("t3")}, "meta": map[string]any{"nextCursor": nil}}),
	)
	svc := newService(t, srv)

	var ids []string
	for page, err := range svc.AllTransactions(context.Background(), "a1", ListTransactionsParams{}) {
		require.NoError(t, err)
		for _, tr := range page {
			ids = append(ids, tr.ID)
			assert.Equal(t, time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC), tr.CreatedAt)
		}
	}

	assert.Equal(t, []string{"t1", "t2", "t3"}, ids)
	reqs := srv.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "/accounts/a1/transactions", reqs[0].Path)
	assert.Equal(t, "", reqs[0].Query)
	assert.Equal(t, "cursor=c2", reqs[1].Query)
}

func TestListTransactions_LastPage(t *testing.T) {
	srv := testutil.NewServer(t, testutil.JSON(http.StatusOK, map[string]any{"data": []any{}, "meta": map[string]any{}}))
	svc := newService(t, srv)

	resp, err := svc.ListTransactions(context.Background(), "a1", ListTransactionsParams{})
	require.NoError(t, err)
	assert.Nil(t, resp.Data.Meta.NextCursor)
	assert.Empty(t, resp.Data.Data)
}

func TestService_Environment(t *testing.T) {
	client, err := cosmic.NewClient(cosmic.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, err)

	svc := NewService(client)
	req := svc.newRequest(http.MethodGet, "/accounts", nil).Build()
	assert.Equal(t, string(Production), req.BaseURL)

	req = svc.newRequest(http.MethodGet, "/accounts", []cosmic.Option{cosmic.WithEnvironment(Sandbox)}).Build()
	assert.Equal(t, string(Sandbox), req.BaseURL)
}
