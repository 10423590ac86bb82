package service

import (
	"strings"

	"github.com/ayo6706/merchant-gateway/internal/models"
)

// CatalogService lists the value-added services a merchant can resell.
type CatalogService struct {
	offerings []models.ServiceOffering
}

func NewCatalogService() *CatalogService {
	return &CatalogService{offerings: []models.ServiceOffering{
		{ID: "insurance", Name: "Retail Insurance", Description: "Sell insurance policies to customers", Commission: "₦500 - ₦5,000"},
		{ID: "pension", Name: "Retail Pension", Description: "Register customers for pension", Commission: "₦300 - ₦2,000"},
		{ID: "airtime", Name: "Airtime & Data", Description: "Recharge airtime and data bundles", Commission: "2% - 5%"},
		{ID: "internet", Name: "Broadband Internet", Description: "Sell internet subscriptions", Commission: "₦200 - ₦1,500"},
		{ID: "cac", Name: "CAC Registration", Description: "Business name & company reg.", Commission: "₦1,000 - ₦10,000"},
		{ID: "loans", Name: "Working Capital", Description: "Merchant loans & referrals", Commission: "₦500 - ₦20,000"},
	}}
}

// Search returns offerings whose name contains query, ignoring case.
func (s *CatalogService) Search(query string) []models.ServiceOffering {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.ServiceOffering, 0, len(s.offerings))
	for _, o := range s.offerings {
		if q == "" || strings.Contains(strings.ToLower(o.Name), q) {
			out = append(out, o)
		}
	}
	return out
}
