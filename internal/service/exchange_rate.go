package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayo6706/merchant-gateway/internal/domain"
	"github.com/shopspring/decimal"
)

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// ExchangeRateService defines the interface for fetching FX rates.
type ExchangeRateService interface {
	// GetExchangeRate returns the rate to convert from source to target currency.
	GetExchangeRate(ctx context.Context, sourceCurrency, targetCurrency string) (decimal.Decimal, error)
}

// StaticExchangeRates quotes fixed rates relative to USD.
type StaticExchangeRates struct {
	perUSD map[string]decimal.Decimal
}

// NewStaticExchangeRates returns the rates used by the treasury overview.
// USD -> NGN: 1500
// USD -> EUR: 0.92
// USD -> GBP: 0.79
func NewStaticExchangeRates() *StaticExchangeRates {
	return &StaticExchangeRates{perUSD: map[string]decimal.Decimal{
		domain.CurrencyUSD: decimal.NewFromInt(1),
		domain.CurrencyNGN: decimal.NewFromInt(1500),
		domain.CurrencyEUR: decimal.RequireFromString("0.92"),
		domain.CurrencyGBP: decimal.RequireFromString("0.79"),
	}}
}

// GetExchangeRate returns target/source, e.g. EUR -> USD = 1 / 0.92.
func (s *StaticExchangeRates) GetExchangeRate(_ context.Context, source, target string) (decimal.Decimal, error) {
	if source == target {
		return decimal.NewFromInt(1), nil
	}
	sourceRate, ok := s.perUSD[source]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, source)
	}
	targetRate, ok := s.perUSD[target]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, target)
	}
	return targetRate.Div(sourceRate), nil
}
