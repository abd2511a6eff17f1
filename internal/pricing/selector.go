package pricing

import "github.com/shopspring/decimal"

// SelectBest picks the rule giving v the largest absolute discount at qty.
//
// Rules are visited in the supplied order, which callers keep priority descending.
// A rule only replaces the current best when its discount is strictly greater, so
// priority decides ties and nothing else. Rules with a cart minimum are skipped
// when cartTotal is nil or below that minimum.
func SelectBest(v Variant, rules []Rule, qty int, cartTotal *Money) (Rule, bool) {
	var (
		best     Rule
		found    bool
		bestDisc = decimal.Zero
	)
	for _, r := range rules {
		if !Matches(r, v) {
			continue
		}
		if r.MinCartAmount != nil {
			if cartTotal == nil || cartTotal.LessThan(*r.MinCartAmount) {
				continue
			}
		}
		candidate := Apply(v.ListPrice, r, qty)
		discount := v.ListPrice.Sub(candidate)
		if discount.GreaterThan(bestDisc) {
			best = r
			bestDisc = discount
			found = true
		}
	}
	return best, found
}
