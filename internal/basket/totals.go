// Package basket aggregates priced articles into sale totals.
package basket

import "github.com/chandanbounteous/goldscanner/internal/pricing"

// Totals is the basket-level price summary.
type Totals struct {
	PreTaxAmount   float64 `json:"pre_tax_amount"`
	LuxuryTax      float64 `json:"luxury_tax"`
	PostTaxAmount  float64 `json:"post_tax_amount"`
	TotalAddOnCost float64 `json:"total_add_on_cost"`
	TotalAmount    float64 `json:"total_amount"`
}

// PreTaxAmount adds the old-gold trade-in credit to the articles' pre-tax
// sum and takes off the extra discount.
func PreTaxAmount(originalPreTax, oldGoldCredit, extraDiscount float64) float64 {
	return pricing.Round2(originalPreTax + oldGoldCredit - extraDiscount)
}

// ComputeTotals derives the basket totals. Tax is applied to the adjusted
// pre-tax amount; add-on costs are untaxed and added last.
func ComputeTotals(originalPreTax, oldGoldCredit, extraDiscount, totalAddOnCost float64) Totals {
	preTax := PreTaxAmount(originalPreTax, oldGoldCredit, extraDiscount)
	tax := pricing.LuxuryTax(preTax)
	postTax := pricing.CostAfterTax(preTax, tax)

	return Totals{
		PreTaxAmount:   preTax,
		LuxuryTax:      tax,
		PostTaxAmount:  postTax,
		TotalAddOnCost: pricing.Round2(totalAddOnCost),
		TotalAmount:    pricing.FinalCost(postTax, totalAddOnCost),
	}
}
