package payout

import (
	"strings"

	"github.com/ayo6706/merchant-gateway/internal/models"
)

// Banks is the destination directory offered on the payout form.
var Banks = []models.Bank{
	{Name: "Sterling Bank", Code: "232"},
	{Name: "GTBank", Code: "058"},
	{Name: "First Bank", Code: "011"},
	{Name: "Access Bank", Code: "044"},
	{Name: "UBA", Code: "033"},
	{Name: "Zenith Bank", Code: "057"},
	{Name: "Wema Bank", Code: "035"},
	{Name: "Fidelity Bank", Code: "070"},
	{Name: "Union Bank", Code: "032"},
	{Name: "Stanbic IBTC", Code: "221"},
	{Name: "Polaris Bank", Code: "076"},
	{Name: "Keystone Bank", Code: "082"},
	{Name: "FCMB", Code: "214"},
	{Name: "Ecobank", Code: "050"},
	{Name: "Heritage Bank", Code: "030"},
	{Name: "Providus Bank", Code: "101"},
	{Name: "Kuda Bank", Code: "090267"},
	{Name: "OPay", Code: "100004"},
	{Name: "PalmPay", Code: "100033"},
	{Name: "Moniepoint", Code: "100022"},
}

// FilterBanks returns banks whose name contains query, ignoring case.
// An empty query returns the full directory.
func FilterBanks(query string) []models.Bank {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Bank, 0, len(Banks))
	for _, b := range Banks {
		if strings.Contains(strings.ToLower(b.Name), q) {
			out = append(out, b)
		}
	}
	return out
}

func BankByCode(code string) (models.Bank, bool) {
	for _, b := range Banks {
		if b.Code == code {
			return b, true
		}
	}
	return models.Bank{}, false
}
