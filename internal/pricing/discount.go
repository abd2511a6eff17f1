package pricing

import "github.com/shopspring/decimal"

// Discount computes a unit price from a list price and an order quantity.
// Implementations never fail; malformed configuration yields the list price.
type Discount interface {
	Kind() DiscountKind
	Apply(listPrice Money, qty int) Money
}

// Percentage takes Percent percent off the list price.
type Percentage struct {
	Percent decimal.Decimal
}

func (Percentage) Kind() DiscountKind { return DiscountKindPercentage }
func (d Percentage) Apply(listPrice Money, _ int) Money {
	return percentOff(listPrice, d.Percent)
}

// FixedAmount subtracts Value from the list price, never going below zero.
type FixedAmount struct {
	Value Money
}

func (FixedAmount) Kind() DiscountKind { return DiscountKindFixedAmount }
func (d FixedAmount) Apply(listPrice Money, _ int) Money {
	return amountOff(listPrice, d.Value)
}

// FixedPrice replaces the list price with Value, even when Value is higher.
type FixedPrice struct {
	Value Money
}

func (FixedPrice) Kind() DiscountKind { return DiscountKindFixedPrice }
func (d FixedPrice) Apply(_ Money, _ int) Money {
	return d.Value
}

// QtyBreak applies the tier with the largest MinQty not exceeding the order quantity.
// Breaks need not be sorted; on equal MinQty the first one wins.
type QtyBreak struct {
	Breaks []Break
}

func (QtyBreak) Kind() DiscountKind { return DiscountKindQtyBreak }
func (d QtyBreak) Apply(listPrice Money, qty int) Money {
	tier, ok := d.Tier(qty)
	if !ok {
		return listPrice
	}
	switch tier.Kind {
	case DiscountKindPercentage:
		return percentOff(listPrice, tier.Value)
	case DiscountKindFixedAmount:
		return amountOff(listPrice, tier.Value)
	default:
		return listPrice
	}
}

// Tier returns the break that applies at qty.
func (d QtyBreak) Tier(qty int) (Break, bool) {
	var (
		best  Break
		found bool
	)
	for _, b := range d.Breaks {
		if b.MinQty > qty {
			continue
		}
		if !found || b.MinQty > best.MinQty {
			best = b
			found = true
		}
	}
	return best, found
}

// Unapplicable stands in for a rule whose discount is missing the data its declared
// type requires, or whose type is unknown. It always returns the list price.
type Unapplicable struct {
	Declared DiscountKind
}

func (d Unapplicable) Kind() DiscountKind { return d.Declared }
func (Unapplicable) Apply(listPrice Money, _ int) Money {
	return listPrice
}

// Apply prices one unit of listPrice under rule r at quantity qty.
func Apply(listPrice Money, r Rule, qty int) Money {
	if r.Discount == nil {
		return listPrice
	}
	return r.Discount.Apply(listPrice, qty)
}

func percentOff(listPrice Money, pct decimal.Decimal) Money {
	factor := decimal.NewFromInt(1).Sub(pct.Div(hundred))
	return floorZero(listPrice.Mul(factor))
}

func amountOff(listPrice, value Money) Money {
	return floorZero(listPrice.Sub(value))
}

func floorZero(m Money) Money {
	if m.IsNegative() {
		return decimal.Zero
	}
	return m
}
