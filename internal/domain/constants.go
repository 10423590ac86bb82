package domain

const (
	CurrencyNGN = "NGN"
	CurrencyUSD = "USD"
	CurrencyGBP = "GBP"
	CurrencyEUR = "EUR"

	FlowKindOnboarding = "onboarding"
	FlowKindPayout     = "payout"

	// Event routing keys on the merchant.events exchange
	EventOnboardingSubmitted = "onboarding.submitted"
	EventOnboardingCompleted = "onboarding.completed"
	EventPayoutCompleted     = "payout.completed"
	EventSessionCreated      = "session.created"
	EventSessionEnded        = "session.ended"

	PositionOnshore  = "onshore"
	PositionOffshore = "offshore"

	TrendUp   = "up"
	TrendDown = "down"
)

var currencySymbols = map[string]string{
	CurrencyNGN: "₦",
	CurrencyUSD: "$",
	CurrencyGBP: "£",
	CurrencyEUR: "€",
}

// CurrencySymbol returns the display symbol for an ISO 4217 code, or the code itself.
func CurrencySymbol(currency string) string {
	if s, ok := currencySymbols[currency]; ok {
		return s
	}
	return currency
}
