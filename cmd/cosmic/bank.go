package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cosmicbank/cosmic-go/bank"
)

type AccountsCmd struct {
	List   AccountsListCmd   `cmd:"" help:"List accounts."`
	Get    AccountsGetCmd    `cmd:"" help:"Show one account."`
	Create AccountsCreateCmd `cmd:"" help:"Open an account."`
	Upload AccountsUploadCmd `cmd:"" help:"Upload a statement file."`
}

func service(g *Globals) (*bank.Service, error) {
	client, err := g.client()
	if err != nil {
		return nil, err
	}
	return bank.NewService(client), nil
}

type AccountsListCmd struct {
	Limit    int    `help:"Page size." default:"20"`
	Currency string `help:"Only accounts in this currency (COSMIC_COINS, GALAXY_GOLD or MOON_BUCKS)."`
	All      bool   `help:"Follow every page."`
}

func (c *AccountsListCmd) Run(g *Globals) error {
	svc, err := service(g)
	if err != nil {
		return err
	}
	params := bank.ListAccountsParams{Limit: &c.Limit}
	if c.Currency != "" {
		cur := bank.Currency(c.Currency)
		params.Currency = &cur
	}
	ctx := context.Background()
	if !c.All {
		resp, err := svc.ListAccounts(ctx, params)
		if err != nil {
			return err
		}
		return printJSON(resp.Data)
	}
	var all []bank.Account
	for page, err := range svc.AllAccounts(ctx, params) {
		if err != nil {
			return err
		}
		all = append(all, page...)
	}
	return printJSON(all)
}

type AccountsGetCmd struct {
	ID string `arg:"" help:"Account ID."`
}

func (c *AccountsGetCmd) Run(g *Globals) error {
	svc, err := service(g)
	if err != nil {
		return err
	}
	resp, err := svc.GetAccount(context.Background(), c.ID)
	if err != nil {
		return err
	}
	return printJSON(resp.Data)
}

type AccountsCreateCmd struct {
	Owner    string  `arg:"" help:"Account owner."`
	Currency string  `help:"Currency." enum:"COSMIC_COINS,GALAXY_GOLD,MOON_BUCKS" default:"COSMIC_COINS"`
	Balance  float64 `help:"Opening balance."`
}

func (c *AccountsCreateCmd) Run(g *Globals) error {
	svc, err := service(g)
	if err != nil {
		return err
	}
	resp, err := svc.CreateAccount(context.Background(), bank.CreateAccountRequest{
		Owner:    c.Owner,
		Currency: bank.Currency(c.Currency),
		Balance:  c.Balance,
	})
	if err != nil {
		return err
	}
	return printJSON(resp.Data)
}

type AccountsUploadCmd struct {
	ID     string `arg:"" help:"Account ID."`
	File   string `arg:"" help:"Statement file." type:"existingfile"`
	Period string `help:"Statement period, e.g. 2026-09." required:""`
}

func (c *AccountsUploadCmd) Run(g *Globals) error {
	svc, err := service(g)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return err
	}
	resp, err := svc.UploadStatement(context.Background(), c.ID, filepath.Base(c.File), bank.Statement{Period: c.Period, File: data})
	if err != nil {
		return err
	}
	return printJSON(resp.Data)
}

type TransactionsCmd struct {
	List TransactionsListCmd `cmd:"" help:"List transactions of an account."`
}

type TransactionsListCmd struct {
	Account string `arg:"" help:"Account ID."`
	Limit   int    `help:"Page size." default:"50"`
	Cursor  string `help:"Start after this cursor."`
	All     bool   `help:"Follow every page."`
}

func (c *TransactionsListCmd) Run(g *Globals) error {
	svc, err := service(g)
	if err != nil {
		return err
	}
	params := bank.ListTransactionsParams{Limit: &c.Limit}
	if c.Cursor != "" {
		params.Cursor = &c.Cursor
	}
	ctx := context.Background()
	if !c.All {
		resp, err := svc.ListTransactions(ctx, c.Account, params)
		if err != nil {
			return err
		}
		return printJSON(resp.Data)
	}
	var all []bank.Transaction
	for page, err := range svc.AllTransactions(ctx, c.Account, params) {
		if err != nil {
			return err
		}
		all = append(all, page...)
	}
	return printJSON(all)
}
