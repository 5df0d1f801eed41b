package article

import (
	"math"
	"regexp"
)

const (
	MaxWeight        = 999.0
	MaxDiscount      = 5000.0
	MaxAddOnCost     = 500000.0
	MaxManualWastage = 50.0
)

var articleCodePattern = regexp.MustCompile(`^[A-Z]{3}[0-9]{4}$`)

// Rule checks one candidate value against the current snapshot.
type Rule[T any] struct {
	Check   func(v T, s Snapshot) bool
	Message string
}

func (r Rule[T]) apply(v T, s Snapshot) (string, bool) {
	if r.Check(v, s) {
		return "", true
	}
	return r.Message, false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

var (
	netWeightRule = Rule[float64]{
		Check:   func(v float64, _ Snapshot) bool { return finite(v) && v > 0 && v <= MaxWeight },
		Message: "Net weight must be greater than 0 and at most 999 g",
	}
	grossWeightRule = Rule[float64]{
		Check: func(v float64, s Snapshot) bool {
			if !finite(v) || v <= 0 || v > MaxWeight {
				return false
			}
			if s.AddOnCost == 0 {
				return v == s.NetWeight
			}
			return v >= s.NetWeight
		},
		Message: "Gross weight must equal net weight, or be at least net weight when there is an add-on cost",
	}
	addOnCostRule = Rule[float64]{
		Check:   func(v float64, _ Snapshot) bool { return finite(v) && v >= 0 && v <= MaxAddOnCost },
		Message: "Add-on cost must be between 0 and 500000",
	}
	discountRule = Rule[float64]{
		Check:   func(v float64, _ Snapshot) bool { return finite(v) && v >= 0 && v <= MaxDiscount },
		Message: "Discount must be between 0 and 5000",
	}
	wastageRule = Rule[float64]{
		Check:   func(v float64, _ Snapshot) bool { return finite(v) && v >= 0 && v <= MaxManualWastage },
		Message: "Wastage must be between 0 and 50 g",
	}
	makingChargeRule = Rule[float64]{
		Check:   func(v float64, _ Snapshot) bool { return finite(v) && v >= 0 },
		Message: "Making charge cannot be negative",
	}
	goldRateRule = Rule[float64]{
		Check:   func(v float64, _ Snapshot) bool { return finite(v) && v >= 0 },
		Message: "Gold rate cannot be negative",
	}
	karatRule = Rule[int]{
		Check: func(v int, _ Snapshot) bool {
			switch v {
			case 14, 18, 22, 24:
				return true
			}
			return false
		},
		Message: "Karat must be one of 14, 18, 22 or 24",
	}
	articleCodeRule = Rule[string]{
		Check:   func(v string, _ Snapshot) bool { return articleCodePattern.MatchString(v) },
		Message: "Article code must be 3 uppercase letters followed by 4 digits",
	}
)

// Validate checks u against the rules for its field, consulting s for
// cross-field rules. It returns the rule's message when u is rejected.
func Validate(u Update, s Snapshot) (string, bool) {
	switch u := u.(type) {
	case SetGoldRate:
		return goldRateRule.apply(u.Rate, s)
	case SetKarat:
		return karatRule.apply(int(u.Karat), s)
	case SetNetWeight:
		return netWeightRule.apply(u.Grams, s)
	case SetGrossWeight:
		return grossWeightRule.apply(u.Grams, s)
	case SetDiscount:
		return discountRule.apply(u.Amount, s)
	case SetAddOnCost:
		return addOnCostRule.apply(u.Amount, s)
	case SetArticleCode:
		return articleCodeRule.apply(u.Code, s)
	case SetWastage:
		return wastageRule.apply(u.Grams, s)
	case SetMakingCharge:
		return makingChargeRule.apply(u.Amount, s)
	}
	return "unsupported update", false
}
