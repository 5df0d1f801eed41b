package pricing

import "github.com/shopspring/decimal"

const (
	// GramsPerTola converts grams to tolas, the unit gold rates are quoted in.
	GramsPerTola = 11.664
	// LuxuryTaxRate is the flat tax applied to the pre-tax cost.
	LuxuryTaxRate = 0.02
	// AlloyPurity is applied to every karat other than 24.
	AlloyPurity = 0.92
)

// Karat is the purity grade of a gold article.
type Karat int

const (
	// AnyKarat matches every karat in a Tier.
	AnyKarat Karat = 0
	Karat14  Karat = 14
	Karat18  Karat = 18
	Karat22  Karat = 22
	Karat24  Karat = 24
)

// Valid reports whether k is one of the karats the shop sells.
func (k Karat) Valid() bool {
	switch k {
	case Karat14, Karat18, Karat22, Karat24:
		return true
	}
	return false
}

// Purity returns the factor applied to the 24K rate.
func (k Karat) Purity() float64 {
	if k == Karat24 {
		return 1.0
	}
	return AlloyPurity
}

// Tier is one row of the wastage/making-charge lookup table.
// A weight matches when MinWeight <= weight < MaxWeight.
type Tier struct {
	MinWeight    float64
	MaxWeight    float64
	Karat        Karat
	Wastage      func(weight float64) float64
	MakingCharge func(taxable float64) float64
}

func (t Tier) matches(netWeight float64, k Karat) bool {
	return netWeight >= t.MinWeight && netWeight < t.MaxWeight && (t.Karat == AnyKarat || t.Karat == k)
}

func fixed(v float64) func(float64) float64 {
	return func(float64) float64 { return v }
}

func rate(r float64) func(float64) float64 {
	return func(x float64) float64 { return x * r }
}

// Tiers is scanned in declaration order and the first match wins, so the
// order of rows encodes their priority.
var Tiers = []Tier{
	{MinWeight: 0.0, MaxWeight: 1.0, Karat: AnyKarat, Wastage: fixed(0.39), MakingCharge: fixed(1200)},
	{MinWeight: 1.0, MaxWeight: 2.0, Karat: AnyKarat, Wastage: fixed(0.65), MakingCharge: fixed(1500)},
	{MinWeight: 2.0, MaxWeight: 3.0, Karat: AnyKarat, Wastage: fixed(0.70), MakingCharge: fixed(1700)},
	{MinWeight: 3.0, MaxWeight: 4.0, Karat: AnyKarat, Wastage: fixed(0.75), MakingCharge: fixed(1800)},
	{MinWeight: 4.0, MaxWeight: 6.0, Karat: AnyKarat, Wastage: fixed(0.95), MakingCharge: fixed(2200)},
	{MinWeight: 6.0, MaxWeight: 7.0, Karat: AnyKarat, Wastage: fixed(1.00), MakingCharge: fixed(3500)},
	{MinWeight: 7.0, MaxWeight: 999.0, Karat: Karat24, Wastage: rate(0.07), MakingCharge: rate(0.01)},
	{MinWeight: 7.0, MaxWeight: GramsPerTola, Karat: Karat22, Wastage: rate(0.07), MakingCharge: rate(0.01)},
	{MinWeight: GramsPerTola, MaxWeight: 999.0, Karat: Karat22, Wastage: rate(0.09), MakingCharge: rate(0.01)},
}

// FindTier returns the first tier matching netWeight and k.
// 14K and 18K articles of 7 g or more have no tier.
func FindTier(netWeight float64, k Karat) (Tier, bool) {
	for _, t := range Tiers {
		if t.matches(netWeight, k) {
			return t, true
		}
	}
	return Tier{}, false
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Wastage returns the crafting allowance in grams, or 0 when no tier matches.
func Wastage(netWeight float64, k Karat) float64 {
	t, ok := FindTier(netWeight, k)
	if !ok {
		return 0
	}
	return Round2(t.Wastage(netWeight))
}

// TotalWeight is the net weight plus wastage.
func TotalWeight(netWeight, wastage float64) float64 {
	return Round2(netWeight + wastage)
}

// CostByWeight prices totalWeight grams of k-karat gold at the 24K per-tola rate.
func CostByWeight(totalWeight float64, k Karat, goldRate24kPerTola float64) float64 {
	tolas := totalWeight / GramsPerTola
	return Round2(tolas * k.Purity() * goldRate24kPerTola)
}

// MakingCharge looks up the tier by netWeight and applies its charge to
// taxable, which percentage tiers use as their base.
func MakingCharge(netWeight float64, k Karat, taxable float64) float64 {
	t, ok := FindTier(netWeight, k)
	if !ok {
		return 0
	}
	return Round2(t.MakingCharge(taxable))
}

// CostBeforeTax is gold cost plus making charge, less the discount.
func CostBeforeTax(cost, makingCharge, discount float64) float64 {
	return Round2(cost + makingCharge - discount)
}

// LuxuryTax is LuxuryTaxRate of the pre-tax cost.
func LuxuryTax(costBeforeTax float64) float64 {
	return Round2(costBeforeTax * LuxuryTaxRate)
}

// CostAfterTax adds the luxury tax to the pre-tax cost.
func CostAfterTax(costBeforeTax, luxuryTax float64) float64 {
	return Round2(costBeforeTax + luxuryTax)
}

// FinalCost adds the untaxed add-on cost to the taxed cost.
func FinalCost(costAfterTax, addOnCost float64) float64 {
	return Round2(costAfterTax + addOnCost)
}

// ArticleInput holds the editable inputs of one article.
type ArticleInput struct {
	NetWeight          float64
	Karat              Karat
	GoldRate24kPerTola float64
	Discount           float64
	AddOnCost          float64
}

// Breakdown contains every derived quantity of the pricing chain.
type Breakdown struct {
	Wastage       float64
	TotalWeight   float64
	Cost          float64
	MakingCharge  float64
	CostBeforeTax float64
	LuxuryTax     float64
	CostAfterTax  float64
}

// Totals contains roll-up values from the pricing calculation.
type Totals struct {
	Final float64
}

// Result groups the full pricing output, including detailed breakdown and totals.
type Result struct {
	Breakdown Breakdown
	Totals    Totals
}

// Calculate runs the whole chain with no manual overrides.
func Calculate(in ArticleInput) Result {
	wastage := Wastage(in.NetWeight, in.Karat)
	totalWeight := TotalWeight(in.NetWeight, wastage)
	cost := CostByWeight(totalWeight, in.Karat, in.GoldRate24kPerTola)
	makingCharge := MakingCharge(in.NetWeight, in.Karat, cost)
	beforeTax := CostBeforeTax(cost, makingCharge, in.Discount)
	tax := LuxuryTax(beforeTax)
	afterTax := CostAfterTax(beforeTax, tax)

	return Result{
		Breakdown: Breakdown{
			Wastage:       wastage,
			TotalWeight:   totalWeight,
			Cost:          cost,
			MakingCharge:  makingCharge,
			CostBeforeTax: beforeTax,
			LuxuryTax:     tax,
			CostAfterTax:  afterTax,
		},
		Totals: Totals{Final: FinalCost(afterTax, in.AddOnCost)},
	}
}
