package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the dashboard/profile snapshot of the signed-in merchant.
type Profile struct {
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Initials         string    `json:"initials"`
	BankName         string    `json:"bank_name"`
	AccountNumber    string    `json:"account_number"`
	Balance          string    `json:"balance"`
	BalanceFormatted string    `json:"balance_formatted"`
	SessionExpiresAt time.Time `json:"session_expires_at"`
}

// Bank is a destination bank in the payout directory.
type Bank struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// ServiceOffering is a value-added service a merchant can sell.
type ServiceOffering struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Commission  string `json:"commission"`
}

// TreasuryAccount is one bank position in the treasury overview.
type TreasuryAccount struct {
	Bank      string `json:"bank"`
	Currency  string `json:"currency"`
	Balance   string `json:"balance"`
	Display   string `json:"display"`
	Position  string `json:"position"`
	Trend     string `json:"trend"`
	Change    string `json:"change"`
	USDAmount string `json:"usd_equivalent"`
}

// CurrencyShare is a currency's slice of the total treasury position.
type CurrencyShare struct {
	Currency string `json:"currency"`
	Label    string `json:"label"`
	Amount   string `json:"amount"`
	Percent  int    `json:"pct"`
}

// TreasuryOverview aggregates positions across banks and currencies.
type TreasuryOverview struct {
	TotalUSD   string            `json:"total_usd"`
	OnshoreNGN string            `json:"onshore_ngn"`
	Offshore   map[string]string `json:"offshore"`
	Accounts   []TreasuryAccount `json:"accounts"`
	Breakdown  []CurrencyShare   `json:"breakdown"`
	LastSync   time.Time         `json:"last_sync"`
}

// FlowRef identifies a flow created for a client.
type FlowRef struct {
	ID        uuid.UUID `json:"id"`
	Kind      string    `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
