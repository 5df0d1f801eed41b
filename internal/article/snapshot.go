package article

import "github.com/chandanbounteous/goldscanner/internal/pricing"

// Input is the last value the user typed into a field and whether it was accepted.
type Input struct {
	Raw     string
	Valid   bool
	Message string
}

// Snapshot is the full state of one article being priced. It is a value:
// every engine step returns a new Snapshot and leaves its argument untouched.
type Snapshot struct {
	GoldRate24kPerTola float64
	Karat              pricing.Karat
	NetWeight          float64
	Wastage            float64
	TotalWeight        float64
	Cost               float64
	MakingCharge       float64
	Discount           float64
	CostBeforeTax      float64
	LuxuryTax          float64
	CostAfterTax       float64
	AddOnCost          float64
	FinalCost          float64
	GrossWeight        float64
	ArticleCode        string

	WastageOverridden      bool
	MakingChargeOverridden bool

	inputs [fieldCount]Input
}

// New returns a create-mode snapshot: 24K, all quantities zero.
func New(goldRate24kPerTola float64) Snapshot {
	s := Snapshot{Karat: pricing.Karat24, GoldRate24kPerTola: goldRate24kPerTola}
	for f := range s.inputs {
		s.inputs[f].Valid = true
	}
	return s
}

// Input returns what was last entered for f.
func (s Snapshot) Input(f Field) Input {
	if f < 0 || f >= fieldCount {
		return Input{}
	}
	return s.inputs[f]
}

// Valid reports whether every field's last input was accepted.
func (s Snapshot) Valid() bool {
	for _, in := range s.inputs {
		if !in.Valid {
			return false
		}
	}
	return true
}

// Errors maps each rejected field to its message.
func (s Snapshot) Errors() map[Field]string {
	out := make(map[Field]string)
	for f, in := range s.inputs {
		if !in.Valid {
			out[Field(f)] = in.Message
		}
	}
	return out
}

// Value returns the numeric value of f; ArticleCode has none and returns 0.
func (s Snapshot) Value(f Field) float64 {
	switch f {
	case GoldRate:
		return s.GoldRate24kPerTola
	case Karat:
		return float64(s.Karat)
	case NetWeight:
		return s.NetWeight
	case Wastage:
		return s.Wastage
	case TotalWeight:
		return s.TotalWeight
	case Cost:
		return s.Cost
	case MakingCharge:
		return s.MakingCharge
	case Discount:
		return s.Discount
	case CostBeforeTax:
		return s.CostBeforeTax
	case LuxuryTax:
		return s.LuxuryTax
	case CostAfterTax:
		return s.CostAfterTax
	case AddOnCost:
		return s.AddOnCost
	case FinalCost:
		return s.FinalCost
	case GrossWeight:
		return s.GrossWeight
	}
	return 0
}

func (s *Snapshot) setInput(f Field, in Input) {
	s.inputs[f] = in
}

// Record is the part of a snapshot that is persisted for an article.
type Record struct {
	ArticleCode string        `db:"article_code" json:"article_code"`
	Karat       pricing.Karat `db:"karat" json:"karat"`
	NetWeight   float64       `db:"net_weight" json:"net_weight"`
	GrossWeight float64       `db:"gross_weight" json:"gross_weight"`
	AddOnCost   float64       `db:"add_on_cost" json:"add_on_cost"`
}

// Record extracts the persistable inputs.
func (s Snapshot) Record() Record {
	return Record{
		ArticleCode: s.ArticleCode,
		Karat:       s.Karat,
		NetWeight:   s.NetWeight,
		GrossWeight: s.GrossWeight,
		AddOnCost:   s.AddOnCost,
	}
}

// Complete reports whether s can be handed to article persistence.
func (s Snapshot) Complete() bool {
	return s.Valid() && s.ArticleCode != "" && s.NetWeight > 0 && s.GrossWeight > 0
}
