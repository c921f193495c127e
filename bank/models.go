package bank

import "time"

// Currency is a denomination accepted by the bank.
type Currency string

const (
	CosmicCoins Currency = "COSMIC_COINS"
	GalaxyGold  Currency = "GALAXY_GOLD"
	MoonBucks   Currency = "MOON_BUCKS"
)

type Account struct {
	ID       string   `json:"id" validate:"required"`
	Owner    string   `json:"owner" validate:"required"`
	Currency Currency `json:"currency" validate:"required,oneof=COSMIC_COINS GALAXY_GOLD MOON_BUCKS"`
	Balance  float64  `json:"balance"`
}

type CreateAccountRequest struct {
	Owner    string   `json:"owner" validate:"required,max=120"`
	Currency Currency `json:"currency" validate:"required,oneof=COSMIC_COINS GALAXY_GOLD MOON_BUCKS"`
	Balance  float64  `json:"balance" validate:"gte=0"`
}

// UpdateAccountRequest is sent form-urlencoded. Empty fields are left
// unchanged by the server.
type UpdateAccountRequest struct {
	Owner    string   `json:"owner,omitempty" validate:"omitempty,max=120"`
	Currency Currency `json:"currency,omitempty" validate:"omitempty,oneof=COSMIC_COINS GALAXY_GOLD MOON_BUCKS"`
}

// AccountPage is one page of ListAccounts.
type AccountPage struct {
	Data  []Account `json:"data" validate:"dive"`
	Total int       `json:"total"`
}

type Transaction struct {
	ID          string    `json:"id" validate:"required"`
	AccountID   string    `json:"accountId" validate:"required"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// TransactionPage is one page of ListTransactions. Meta.NextCursor is nil
// on the last page.
type TransactionPage struct {
	Data []Transaction `json:"data" validate:"dive"`
	Meta PageMeta      `json:"meta"`
}

type PageMeta struct {
	NextCursor *string `json:"nextCursor"`
}

// Statement is an uploaded account statement file.
type Statement struct {
	Period string `json:"period" validate:"required"`
	File   []byte `json:"file" validate:"required"`
}

type StatementReceipt struct {
	ID    string `json:"id" validate:"required"`
	Bytes int    `json:"bytes"`
}
