package article

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/chandanbounteous/goldscanner/internal/pricing"
)

// Engine applies edits to snapshots and propagates them through the
// dependency graph. It holds no article state; callers own the snapshots.
type Engine struct {
	log zerolog.Logger
}

// NewEngine returns an Engine that traces updates to log at debug level.
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{log: log}
}

// Apply validates u against s and, when accepted, stores it and recomputes
// every impacted field. A rejected update only records the raw input and
// its message, leaving every value of s as it was.
func (e *Engine) Apply(s Snapshot, u Update) (Snapshot, bool) {
	f := u.Field()
	next := s

	if msg, ok := Validate(u, s); !ok {
		next.setInput(f, Input{Raw: rawText(u), Message: msg})
		e.log.Debug().Str("field", f.String()).Str("raw", rawText(u)).Msg("article update rejected")
		return next, false
	}

	next.setInput(f, Input{Raw: rawText(u), Valid: true})
	assign(&next, u)
	recalculated := propagate(&next, f)

	e.log.Debug().
		Str("field", f.String()).
		Strs("recalculated", fieldStrings(recalculated)).
		Msg("article update applied")
	return next, true
}

// ApplyRaw parses raw for f and applies it. Text that does not parse is
// treated like any other invalid input.
func (e *Engine) ApplyRaw(s Snapshot, f Field, raw string) (Snapshot, bool) {
	u, err := ParseUpdate(f, raw)
	if err != nil {
		next := s
		if f >= 0 && f < fieldCount && !errors.Is(err, ErrUnknownField) {
			next.setInput(f, Input{Raw: raw, Message: err.Error()})
		}
		e.log.Debug().Err(err).Str("field", f.String()).Msg("article input not parsed")
		return next, false
	}
	return e.Apply(s, u)
}

// SetManualWastage pins wastage to grams and propagates from it.
func (e *Engine) SetManualWastage(s Snapshot, grams float64) (Snapshot, bool) {
	return e.Apply(s, SetWastage{Grams: grams})
}

// SetManualMakingCharge pins the making charge to amount and propagates from it.
func (e *Engine) SetManualMakingCharge(s Snapshot, amount float64) (Snapshot, bool) {
	return e.Apply(s, SetMakingCharge{Amount: amount})
}

// RecalculateAll clears both manual overrides and recomputes every derived
// field once in CalculationOrder.
func (e *Engine) RecalculateAll(s Snapshot) Snapshot {
	next := s
	next.WastageOverridden = false
	next.MakingChargeOverridden = false
	for _, f := range CalculationOrder {
		recompute(&next, f)
	}
	return next
}

// FromRecord rebuilds a snapshot for edit mode by replaying the stored
// fields through Apply, so overrides and validation behave as if typed.
func (e *Engine) FromRecord(rec Record, goldRate24kPerTola float64) Snapshot {
	s := New(goldRate24kPerTola)
	for _, u := range []Update{
		SetKarat{Karat: rec.Karat},
		SetNetWeight{Grams: rec.NetWeight},
		SetAddOnCost{Amount: rec.AddOnCost},
		SetGrossWeight{Grams: rec.GrossWeight},
		SetArticleCode{Code: rec.ArticleCode},
	} {
		s, _ = e.Apply(s, u)
	}
	return s
}

func assign(s *Snapshot, u Update) {
	switch u := u.(type) {
	case SetGoldRate:
		s.GoldRate24kPerTola = u.Rate
	case SetKarat:
		s.Karat = u.Karat
	case SetNetWeight:
		s.NetWeight = u.Grams
	case SetGrossWeight:
		s.GrossWeight = u.Grams
	case SetDiscount:
		s.Discount = u.Amount
	case SetAddOnCost:
		s.AddOnCost = u.Amount
	case SetArticleCode:
		s.ArticleCode = u.Code
	case SetWastage:
		s.Wastage = pricing.Round2(u.Grams)
		s.WastageOverridden = true
	case SetMakingCharge:
		s.MakingCharge = pricing.Round2(u.Amount)
		s.MakingChargeOverridden = true
	}
}

// propagate recomputes the fields impacted by f, each at most once and
// only after its own inputs, skipping pinned fields. Pinned fields still
// feed the fields after them.
func propagate(s *Snapshot, f Field) []Field {
	affected := Affected(f)
	done := affected[:0]
	for _, d := range affected {
		if pinned(*s, d) {
			continue
		}
		recompute(s, d)
		done = append(done, d)
	}
	return done
}

func pinned(s Snapshot, f Field) bool {
	switch f {
	case Wastage:
		return s.WastageOverridden
	case MakingCharge:
		return s.MakingChargeOverridden
	}
	return false
}

func recompute(s *Snapshot, f Field) {
	switch f {
	case Wastage:
		s.Wastage = pricing.Wastage(s.NetWeight, s.Karat)
	case TotalWeight:
		s.TotalWeight = pricing.TotalWeight(s.NetWeight, s.Wastage)
	case Cost:
		s.Cost = pricing.CostByWeight(s.TotalWeight, s.Karat, s.GoldRate24kPerTola)
	case MakingCharge:
		s.MakingCharge = pricing.MakingCharge(s.NetWeight, s.Karat, s.Cost)
	case CostBeforeTax:
		s.CostBeforeTax = pricing.CostBeforeTax(s.Cost, s.MakingCharge, s.Discount)
	case LuxuryTax:
		s.LuxuryTax = pricing.LuxuryTax(s.CostBeforeTax)
	case CostAfterTax:
		s.CostAfterTax = pricing.CostAfterTax(s.CostBeforeTax, s.LuxuryTax)
	case FinalCost:
		s.FinalCost = pricing.FinalCost(s.CostAfterTax, s.AddOnCost)
	case GrossWeight:
		if s.AddOnCost == 0 || s.GrossWeight < s.NetWeight {
			s.GrossWeight = s.NetWeight
		}
	default:
		return
	}
	s.setInput(f, Input{Raw: formatFloat(s.Value(f)), Valid: true})
}

func fieldStrings(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.String()
	}
	return out
}
