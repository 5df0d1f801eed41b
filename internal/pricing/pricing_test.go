package pricing

import (
	"math"
	"testing"
)

func nearlyEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", name, got, want)
	}
}

func TestRound2_HalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{1.005, 1.01},
		{2.675, 2.68},
		{-1.005, -1.01},
		{252.9094, 252.91},
		{0.004, 0},
		{11445.473251, 11445.47},
	}
	for _, c := range cases {
		nearlyEqual(t, "Round2", Round2(c.in), c.want)
	}
}

func TestFindTier_FirstMatchWinsAtBoundaries(t *testing.T) {
	cases := []struct {
		name    string
		weight  float64
		karat   Karat
		wastage float64
	}{
		{"zero weight", 0, Karat24, 0.39},
		{"just below 1g", 0.999, Karat18, 0.39},
		{"exactly 1g", 1.0, Karat18, 0.65},
		{"exactly 6g", 6.0, Karat14, 1.00},
		{"22K just below a tola", 11.66, Karat22, Round2(11.66 * 0.07)},
		{"22K exactly a tola", GramsPerTola, Karat22, 1.05},
		{"24K heavy", 15, Karat24, 1.05},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			nearlyEqual(t, "wastage", Wastage(c.weight, c.karat), c.wastage)
		})
	}
}

func TestFindTier_NoEntryForHeavyLowKarat(t *testing.T) {
	// 18K/14K articles of 7 g or more fall outside the table and price with
	// zero wastage and zero making charge.
	for _, k := range []Karat{Karat14, Karat18} {
		if _, ok := FindTier(7.0, k); ok {
			t.Fatalf("karat %d: expected no tier at 7g", k)
		}
		nearlyEqual(t, "wastage", Wastage(20, k), 0)
		nearlyEqual(t, "makingCharge", MakingCharge(20, k, 100000), 0)
	}
	if _, ok := FindTier(999, Karat24); ok {
		t.Fatalf("expected no tier at the 999g upper bound")
	}
}

func TestMakingCharge_FixedAndPercentageTiers(t *testing.T) {
	nearlyEqual(t, "fixed tier ignores base", MakingCharge(0.5, Karat24, 99999), 1200)
	nearlyEqual(t, "4-6g tier", MakingCharge(5, Karat22, 0), 2200)
	nearlyEqual(t, "percentage tier", MakingCharge(8, Karat22, 101275.72), 1012.76)
}

func TestCostByWeight_FlatAlloyPurity(t *testing.T) {
	pure := CostByWeight(GramsPerTola, Karat24, 150000)
	nearlyEqual(t, "24K one tola", pure, 150000)

	// Every non-24K karat uses the same 0.92 factor.
	for _, k := range []Karat{Karat22, Karat18, Karat14} {
		nearlyEqual(t, "alloy one tola", CostByWeight(GramsPerTola, k, 150000), 138000)
	}
}

func TestCalculate_HalfGram24K(t *testing.T) {
	result := Calculate(ArticleInput{NetWeight: 0.5, Karat: Karat24, GoldRate24kPerTola: 150000})

	nearlyEqual(t, "wastage", result.Breakdown.Wastage, 0.39)
	nearlyEqual(t, "totalWeight", result.Breakdown.TotalWeight, 0.89)
	nearlyEqual(t, "cost", result.Breakdown.Cost, 11445.47)
	nearlyEqual(t, "makingCharge", result.Breakdown.MakingCharge, 1200)
	nearlyEqual(t, "costBeforeTax", result.Breakdown.CostBeforeTax, 12645.47)
	nearlyEqual(t, "luxuryTax", result.Breakdown.LuxuryTax, 252.91)
	nearlyEqual(t, "costAfterTax", result.Breakdown.CostAfterTax, 12898.38)
	nearlyEqual(t, "final", result.Totals.Final, 12898.38)
}

func TestCalculate_FifteenGram22KUsesHeavyTier(t *testing.T) {
	result := Calculate(ArticleInput{
		NetWeight:          15,
		Karat:              Karat22,
		GoldRate24kPerTola: 150000,
		Discount:           100,
		AddOnCost:          500,
	})

	nearlyEqual(t, "wastage", result.Breakdown.Wastage, 1.35)
	nearlyEqual(t, "totalWeight", result.Breakdown.TotalWeight, 16.35)
	nearlyEqual(t, "cost", result.Breakdown.Cost, 193441.36)
	nearlyEqual(t, "makingCharge", result.Breakdown.MakingCharge, 1934.41)
	nearlyEqual(t, "costBeforeTax", result.Breakdown.CostBeforeTax, 195275.77)
	nearlyEqual(t, "luxuryTax", result.Breakdown.LuxuryTax, 3905.52)
	nearlyEqual(t, "costAfterTax", result.Breakdown.CostAfterTax, 199181.29)
	nearlyEqual(t, "final", result.Totals.Final, 199681.29)
}

func TestCalculate_MissingGoldRate(t *testing.T) {
	result := Calculate(ArticleInput{NetWeight: 2.5, Karat: Karat22})

	nearlyEqual(t, "cost", result.Breakdown.Cost, 0)
	nearlyEqual(t, "makingCharge", result.Breakdown.MakingCharge, 1700)
	nearlyEqual(t, "final", result.Totals.Final, CostAfterTax(1700, 34))
}

func TestKarat_Valid(t *testing.T) {
	for _, k := range []Karat{Karat14, Karat18, Karat22, Karat24} {
		if !k.Valid() {
			t.Fatalf("karat %d should be valid", k)
		}
	}
	for _, k := range []Karat{AnyKarat, 9, 21, 25} {
		if k.Valid() {
			t.Fatalf("karat %d should be invalid", k)
		}
	}
}
