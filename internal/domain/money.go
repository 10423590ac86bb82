package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Money represents a monetary value in a specific currency.
// Amount is stored as int64 micros (10^-6) to avoid floating point errors.
type Money struct {
	Amount   int64  // micros
	Currency string // ISO 4217
}

// PayoutFee is the flat fee shown on every payout recap.
var PayoutFee = NewMoney(10_000_000, CurrencyNGN)

// NewMoney creates a new Money instance from micros.
func NewMoney(amount int64, currency string) Money {
	return Money{
		Amount:   amount,
		Currency: currency,
	}
}

// FromMajor creates Money from whole currency units.
func FromMajor(units int64, currency string) Money {
	return NewMoney(units*1_000_000, currency)
}

// ParseMoney parses a decimal string such as "1500.50". Blank or malformed
// input yields zero.
func ParseMoney(s, currency string) Money {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return NewMoney(0, currency)
	}
	return NewMoney(FromDecimal(d), currency)
}

// ToDecimal converts the int64 micros to a shopspring/decimal.Decimal.
func (m Money) ToDecimal() decimal.Decimal {
	return decimal.NewFromInt(m.Amount).Div(decimal.NewFromInt(1_000_000))
}

// FromDecimal converts a decimal.Decimal to int64 micros.
func FromDecimal(d decimal.Decimal) int64 {
	return d.Mul(decimal.NewFromInt(1_000_000)).IntPart()
}

// Add sums two amounts of the same currency.
func (m Money) Add(o Money) (Money, error) {
	if m.Currency != o.Currency {
		return Money{}, fmt.Errorf("currency mismatch: %s vs %s", m.Currency, o.Currency)
	}
	return NewMoney(m.Amount+o.Amount, m.Currency), nil
}

// Convert converts the money to a target currency using a given FX rate.
// The rate should be (Target / Source).
func (m Money) Convert(targetCurrency string, rate decimal.Decimal) Money {
	amountDec := m.ToDecimal().Mul(rate)
	return Money{
		Amount:   FromDecimal(amountDec),
		Currency: targetCurrency,
	}
}

// String returns the string representation of the money.
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.ToDecimal().StringFixed(2), m.Currency)
}

// Display renders the amount with its symbol and locale grouping, e.g. "₦1,500.5".
func (m Money) Display() string {
	return CurrencySymbol(m.Currency) + groupDigits(localeFor(m.Currency), m.ToDecimal())
}

// DisplayFixed renders the amount with exactly two decimals, e.g. "₦10.00".
func (m Money) DisplayFixed() string {
	p := message.NewPrinter(localeFor(m.Currency))
	f := m.ToDecimal().InexactFloat64()
	return CurrencySymbol(m.Currency) + p.Sprint(number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// FormatNaira formats a balance string the way the dashboard shows it.
// Unparseable balances render as zero.
func FormatNaira(balance string) string {
	return ParseMoney(balance, CurrencyNGN).Display()
}

// FormatCompact abbreviates large amounts: billions as "2.45B", millions as
// "5.40M", anything smaller with digit grouping.
func FormatCompact(m Money) string {
	d := m.ToDecimal()
	abs := d.Abs()
	symbol := CurrencySymbol(m.Currency)
	switch {
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1_000_000_000)):
		return symbol + d.Div(decimal.NewFromInt(1_000_000_000)).StringFixed(2) + "B"
	case abs.GreaterThanOrEqual(decimal.NewFromInt(1_000_000)):
		return symbol + d.Div(decimal.NewFromInt(1_000_000)).StringFixed(2) + "M"
	default:
		return symbol + groupDigits(language.English, d)
	}
}

func groupDigits(tag language.Tag, d decimal.Decimal) string {
	p := message.NewPrinter(tag)
	return p.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(3)))
}

func localeFor(currency string) language.Tag {
	if currency == CurrencyNGN {
		return language.MustParse("en-NG")
	}
	return language.English
}
