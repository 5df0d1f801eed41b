package article

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/chandanbounteous/goldscanner/internal/pricing"
)

// ErrUnknownField is returned for names that are not editable fields.
var ErrUnknownField = errors.New("article: unknown field")

// Field identifies one value of a Snapshot.
type Field int

const (
	GoldRate Field = iota
	Karat
	NetWeight
	Wastage
	TotalWeight
	Cost
	MakingCharge
	Discount
	CostBeforeTax
	LuxuryTax
	CostAfterTax
	AddOnCost
	FinalCost
	GrossWeight
	ArticleCode

	fieldCount
)

var fieldNames = [fieldCount]string{
	GoldRate:      "goldRate24kPerTola",
	Karat:         "karat",
	NetWeight:     "netWeight",
	Wastage:       "wastage",
	TotalWeight:   "totalWeight",
	Cost:          "articleCostAsPerWeightAndKarat",
	MakingCharge:  "makingCharge",
	Discount:      "discount",
	CostBeforeTax: "articleCostBeforeTax",
	LuxuryTax:     "luxuryTax",
	CostAfterTax:  "articleCostAfterTax",
	AddOnCost:     "addOnCost",
	FinalCost:     "finalEstimatedCost",
	GrossWeight:   "grossWeight",
	ArticleCode:   "articleCode",
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return "Field(" + strconv.Itoa(int(f)) + ")"
	}
	return fieldNames[f]
}

// Fields returns every field in declaration order.
func Fields() []Field {
	out := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		out = append(out, f)
	}
	return out
}

// ParseField resolves a field by the name String returns.
func ParseField(name string) (Field, error) {
	for f := Field(0); f < fieldCount; f++ {
		if fieldNames[f] == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownField, name)
}

// Editable reports whether f accepts user input.
func Editable(f Field) bool {
	switch f {
	case GoldRate, Karat, NetWeight, GrossWeight, Discount, AddOnCost, ArticleCode, Wastage, MakingCharge:
		return true
	}
	return false
}

// Update is one typed edit of a snapshot. The set of implementations is closed.
type Update interface {
	Field() Field
	update()
}

// SetGoldRate sets the 24K rate per tola.
type SetGoldRate struct{ Rate float64 }

// SetKarat sets the purity grade.
type SetKarat struct{ Karat pricing.Karat }

// SetNetWeight sets the net gold weight in grams.
type SetNetWeight struct{ Grams float64 }

// SetGrossWeight sets the gross weight in grams, stones and fittings included.
type SetGrossWeight struct{ Grams float64 }

// SetDiscount sets the discount taken off before tax.
type SetDiscount struct{ Amount float64 }

// SetAddOnCost sets the untaxed cost of stones or fittings.
type SetAddOnCost struct{ Amount float64 }

// SetArticleCode sets the inventory code, three letters and four digits.
type SetArticleCode struct{ Code string }

// SetWastage pins wastage to a manual value.
type SetWastage struct{ Grams float64 }

// SetMakingCharge pins the making charge to a manual value.
type SetMakingCharge struct{ Amount float64 }

func (SetGoldRate) Field() Field     { return GoldRate }
func (SetKarat) Field() Field        { return Karat }
func (SetNetWeight) Field() Field    { return NetWeight }
func (SetGrossWeight) Field() Field  { return GrossWeight }
func (SetDiscount) Field() Field     { return Discount }
func (SetAddOnCost) Field() Field    { return AddOnCost }
func (SetArticleCode) Field() Field  { return ArticleCode }
func (SetWastage) Field() Field      { return Wastage }
func (SetMakingCharge) Field() Field { return MakingCharge }

func (SetGoldRate) update()     {}
func (SetKarat) update()        {}
func (SetNetWeight) update()    {}
func (SetGrossWeight) update()  {}
func (SetDiscount) update()     {}
func (SetAddOnCost) update()    {}
func (SetArticleCode) update()  {}
func (SetWastage) update()      {}
func (SetMakingCharge) update() {}

// ParseUpdate converts raw UI text into a typed update for f.
// Derived-only fields are rejected with ErrUnknownField.
func ParseUpdate(f Field, raw string) (Update, error) {
	raw = strings.TrimSpace(raw)
	if f == ArticleCode {
		return SetArticleCode{Code: raw}, nil
	}
	if f == Karat {
		k, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be a whole number", f)
		}
		return SetKarat{Karat: pricing.Karat(k)}, nil
	}

	var build func(float64) Update
	switch f {
	case GoldRate:
		build = func(v float64) Update { return SetGoldRate{Rate: v} }
	case NetWeight:
		build = func(v float64) Update { return SetNetWeight{Grams: v} }
	case GrossWeight:
		build = func(v float64) Update { return SetGrossWeight{Grams: v} }
	case Discount:
		build = func(v float64) Update { return SetDiscount{Amount: v} }
	case AddOnCost:
		build = func(v float64) Update { return SetAddOnCost{Amount: v} }
	case Wastage:
		build = func(v float64) Update { return SetWastage{Grams: v} }
	case MakingCharge:
		build = func(v float64) Update { return SetMakingCharge{Amount: v} }
	default:
		return nil, fmt.Errorf("%w: %s is not editable", ErrUnknownField, f)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be numeric", f)
	}
	return build(v), nil
}

// rawText renders the value carried by u the way a user would type it.
func rawText(u Update) string {
	switch u := u.(type) {
	case SetGoldRate:
		return formatFloat(u.Rate)
	case SetKarat:
		return strconv.Itoa(int(u.Karat))
	case SetNetWeight:
		return formatFloat(u.Grams)
	case SetGrossWeight:
		return formatFloat(u.Grams)
	case SetDiscount:
		return formatFloat(u.Amount)
	case SetAddOnCost:
		return formatFloat(u.Amount)
	case SetArticleCode:
		return u.Code
	case SetWastage:
		return formatFloat(u.Grams)
	case SetMakingCharge:
		return formatFloat(u.Amount)
	}
	return ""
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
