package article

import (
	"errors"
	"fmt"
	"slices"
)

// ErrCycleDetected is returned by TopologicalOrder when DependsOn has a cycle.
var ErrCycleDetected = errors.New("article: dependency cycle detected")

// DependsOn lists the direct inputs of every derived field.
var DependsOn = map[Field][]Field{
	Wastage:       {NetWeight, Karat},
	TotalWeight:   {NetWeight, Wastage},
	Cost:          {TotalWeight, Karat, GoldRate},
	MakingCharge:  {NetWeight, Karat, Cost},
	CostBeforeTax: {Cost, MakingCharge, Discount},
	LuxuryTax:     {CostBeforeTax},
	CostAfterTax:  {CostBeforeTax, LuxuryTax},
	FinalCost:     {CostAfterTax, AddOnCost},
	GrossWeight:   {NetWeight, AddOnCost},
}

// Impacts lists the fields recalculated directly when a field changes.
var Impacts = map[Field][]Field{
	GoldRate:      {Cost},
	Karat:         {Wastage, Cost, MakingCharge},
	NetWeight:     {Wastage, TotalWeight, GrossWeight},
	Wastage:       {TotalWeight},
	TotalWeight:   {Cost},
	Cost:          {MakingCharge, CostBeforeTax},
	MakingCharge:  {CostBeforeTax},
	Discount:      {CostBeforeTax},
	CostBeforeTax: {LuxuryTax, CostAfterTax},
	LuxuryTax:     {CostAfterTax},
	CostAfterTax:  {FinalCost},
	AddOnCost:     {FinalCost, GrossWeight},
}

// CalculationOrder is the fixed order derived fields are recomputed in.
var CalculationOrder = []Field{
	Wastage,
	TotalWeight,
	Cost,
	MakingCharge,
	CostBeforeTax,
	LuxuryTax,
	CostAfterTax,
	FinalCost,
	GrossWeight,
}

type fieldSet uint32

func (s fieldSet) has(f Field) bool { return s&(1<<uint(f)) != 0 }
func (s *fieldSet) add(f Field)     { *s |= 1 << uint(f) }

// Affected returns every field transitively impacted by a change to f,
// in CalculationOrder. f itself is not included.
func Affected(f Field) []Field {
	var visited fieldSet
	var walk func(Field)
	walk = func(from Field) {
		for _, next := range Impacts[from] {
			if visited.has(next) {
				continue
			}
			visited.add(next)
			walk(next)
		}
	}
	walk(f)

	out := make([]Field, 0, len(CalculationOrder))
	for _, d := range CalculationOrder {
		if visited.has(d) {
			out = append(out, d)
		}
	}
	return out
}

const (
	white = iota
	gray
	black
)

// TopologicalOrder sorts the derived fields so that each comes after all
// of its DependsOn inputs. Ties keep CalculationOrder.
func TopologicalOrder() ([]Field, error) {
	state := make(map[Field]int, len(DependsOn))
	order := make([]Field, 0, len(DependsOn))

	var visit func(Field) error
	visit = func(f Field) error {
		switch state[f] {
		case gray:
			return fmt.Errorf("%w at %s", ErrCycleDetected, f)
		case black:
			return nil
		}
		state[f] = gray
		for _, dep := range DependsOn[f] {
			if _, derived := DependsOn[dep]; !derived {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[f] = black
		order = append(order, f)
		return nil
	}

	for _, f := range CalculationOrder {
		if err := visit(f); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// checkCalculationOrder reports an error when DependsOn has a cycle or when
// CalculationOrder would compute a field before one of its inputs.
func checkCalculationOrder() error {
	order, err := TopologicalOrder()
	if err != nil {
		return err
	}
	if !slices.Equal(order, CalculationOrder) {
		return fmt.Errorf("article: calculation order %v does not follow dependencies %v", fieldStrings(CalculationOrder), fieldStrings(order))
	}
	return nil
}

func init() {
	if err := checkCalculationOrder(); err != nil {
		panic(err)
	}
}
