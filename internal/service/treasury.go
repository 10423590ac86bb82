package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ayo6706/merchant-gateway/internal/domain"
	"github.com/ayo6706/merchant-gateway/internal/models"
	"github.com/shopspring/decimal"
)

// TreasuryPosition is one bank balance held by the treasury.
type TreasuryPosition struct {
	Bank     string
	Balance  domain.Money
	Position string
	Trend    string
	Change   string
}

var currencyLabels = []struct {
	code  string
	label string
}{
	{domain.CurrencyNGN, "Nigerian Naira"},
	{domain.CurrencyUSD, "US Dollar"},
	{domain.CurrencyGBP, "British Pound"},
	{domain.CurrencyEUR, "Euro"},
}

// SamplePositions is the demo treasury shown to every merchant.
func SamplePositions() []TreasuryPosition {
	return []TreasuryPosition{
		{Bank: "Sterling Bank", Balance: domain.FromMajor(2_450_000_000, domain.CurrencyNGN), Position: domain.PositionOnshore, Trend: domain.TrendUp, Change: "+3.2%"},
		{Bank: "Access Bank", Balance: domain.FromMajor(1_200_000_000, domain.CurrencyNGN), Position: domain.PositionOnshore, Trend: domain.TrendUp, Change: "+1.8%"},
		{Bank: "Zenith Bank", Balance: domain.FromMajor(1_200_000_000, domain.CurrencyNGN), Position: domain.PositionOnshore, Trend: domain.TrendDown, Change: "-0.5%"},
		{Bank: "Barclays UK", Balance: domain.FromMajor(1_850_000, domain.CurrencyGBP), Position: domain.PositionOffshore, Trend: domain.TrendUp, Change: "+2.1%"},
		{Bank: "Chase US", Balance: domain.FromMajor(5_400_000, domain.CurrencyUSD), Position: domain.PositionOffshore, Trend: domain.TrendUp, Change: "+4.5%"},
		{Bank: "Citi US", Balance: domain.FromMajor(3_800_000, domain.CurrencyUSD), Position: domain.PositionOffshore, Trend: domain.TrendDown, Change: "-1.2%"},
		{Bank: "Deutsche Bank", Balance: domain.FromMajor(920_000, domain.CurrencyEUR), Position: domain.PositionOffshore, Trend: domain.TrendUp, Change: "+0.8%"},
	}
}

// TreasuryService aggregates bank positions into a USD-denominated overview.
type TreasuryService struct {
	rates     ExchangeRateService
	positions []TreasuryPosition
	now       func() time.Time
}

func NewTreasuryService(rates ExchangeRateService, positions []TreasuryPosition) *TreasuryService {
	return &TreasuryService{rates: rates, positions: positions, now: time.Now}
}

// Overview converts every position to USD and derives the per-currency breakdown.
func (s *TreasuryService) Overview(ctx context.Context) (*models.TreasuryOverview, error) {
	totalUSD := decimal.Zero
	nativeTotals := make(map[string]domain.Money)
	usdTotals := make(map[string]decimal.Decimal)
	offshore := make(map[string]domain.Money)
	onshoreNGN := domain.NewMoney(0, domain.CurrencyNGN)

	accounts := make([]models.TreasuryAccount, 0, len(s.positions))
	for _, p := range s.positions {
		rate, err := s.rates.GetExchangeRate(ctx, p.Balance.Currency, domain.CurrencyUSD)
		if err != nil {
			return nil, fmt.Errorf("rate for %s: %w", p.Bank, err)
		}
		usd := p.Balance.ToDecimal().Mul(rate).Round(2)
		totalUSD = totalUSD.Add(usd)
		usdTotals[p.Balance.Currency] = usdTotals[p.Balance.Currency].Add(usd)

		if cur, ok := nativeTotals[p.Balance.Currency]; ok {
			nativeTotals[p.Balance.Currency], _ = cur.Add(p.Balance)
		} else {
			nativeTotals[p.Balance.Currency] = p.Balance
		}

		switch {
		case p.Position == domain.PositionOnshore && p.Balance.Currency == domain.CurrencyNGN:
			onshoreNGN, _ = onshoreNGN.Add(p.Balance)
		case p.Position == domain.PositionOffshore:
			if cur, ok := offshore[p.Balance.Currency]; ok {
				offshore[p.Balance.Currency], _ = cur.Add(p.Balance)
			} else {
				offshore[p.Balance.Currency] = p.Balance
			}
		}

		accounts = append(accounts, models.TreasuryAccount{
			Bank:      p.Bank,
			Currency:  p.Balance.Currency,
			Balance:   p.Balance.ToDecimal().StringFixed(2),
			Display:   domain.FormatCompact(p.Balance),
			Position:  p.Position,
			Trend:     p.Trend,
			Change:    p.Change,
			USDAmount: usd.StringFixed(2),
		})
	}

	breakdown := make([]models.CurrencyShare, 0, len(currencyLabels))
	for _, c := range currencyLabels {
		native, ok := nativeTotals[c.code]
		if !ok {
			continue
		}
		pct := 0
		if totalUSD.IsPositive() {
			pct = int(usdTotals[c.code].Div(totalUSD).Mul(decimal.NewFromInt(100)).Round(0).IntPart())
		}
		breakdown = append(breakdown, models.CurrencyShare{
			Currency: c.code,
			Label:    c.label,
			Amount:   domain.FormatCompact(native),
			Percent:  pct,
		})
	}

	offshoreDisplay := make(map[string]string, len(offshore))
	for code, m := range offshore {
		offshoreDisplay[code] = domain.FormatCompact(m)
	}

	return &models.TreasuryOverview{
		TotalUSD:   domain.NewMoney(domain.FromDecimal(totalUSD), domain.CurrencyUSD).Display(),
		OnshoreNGN: domain.FormatCompact(onshoreNGN),
		Offshore:   offshoreDisplay,
		Accounts:   accounts,
		Breakdown:  breakdown,
		LastSync:   s.now().UTC(),
	}, nil
}
