package pricing

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/b2b-pricing/internal/obs"
)

// RuleSource loads the active rules of a merchant. Implementations may prefilter
// coarsely; the engine re-applies eligibility in full.
type RuleSource interface {
	ActiveRules(ctx context.Context, merchantID string, buyer Buyer, now time.Time) ([]Rule, error)
}

// VariantSource resolves variants with their product tags and collections. A variant
// owned by another merchant is reported as ErrVariantNotFound.
type VariantSource interface {
	Variant(ctx context.Context, merchantID, variantID string) (Variant, error)
}

// LineRequest asks for the price of one variant at a quantity.
type LineRequest struct {
	VariantID string `json:"variantId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// CalculatedPrice is the buyer specific unit price of a variant.
type CalculatedPrice struct {
	VariantID          string          `json:"variantId"`
	Quantity           int             `json:"quantity"`
	ListPrice          Money           `json:"listPrice"`
	CompanyPrice       Money           `json:"companyPrice"`
	Discount           Money           `json:"discount"`
	DiscountPercentage decimal.Decimal `json:"discountPercentage"`
	AppliedRuleID      string          `json:"appliedRuleId,omitempty"`
	AppliedRuleName    string          `json:"appliedRuleName,omitempty"`
}

// Engine prices variants for buyers using the rules of their merchant.
type Engine struct {
	Rules    RuleSource
	Variants VariantSource
	Now      func() time.Time
	Logger   zerolog.Logger
}

func (e *Engine) now() time.Time {
	if e != nil && e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// EligibleRules returns the merchant rules usable by buyer right now, priority descending.
func (e *Engine) EligibleRules(ctx context.Context, merchantID string, buyer Buyer) ([]Rule, error) {
	if e == nil || e.Rules == nil {
		return nil, errors.New("pricing engine not configured")
	}
	now := e.now()
	rules, err := e.Rules.ActiveRules(ctx, merchantID, buyer, now)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	rules = FilterEligible(merchantID, buyer, now, rules)
	SortByPriority(rules)
	return rules, nil
}

// CalculatePrices quotes every requested line for buyer. cartTotal gates rules with a
// cart minimum; nil means unknown.
func (e *Engine) CalculatePrices(ctx context.Context, merchantID string, buyer Buyer, lines []LineRequest, cartTotal *Money) ([]CalculatedPrice, error) {
	if e == nil || e.Variants == nil {
		return nil, errors.New("pricing engine not configured")
	}
	if strings.TrimSpace(merchantID) == "" {
		return nil, fmt.Errorf("merchant id required: %w", ErrInvalidInput)
	}
	for _, line := range lines {
		if strings.TrimSpace(line.VariantID) == "" {
			return nil, fmt.Errorf("variant id required: %w", ErrInvalidInput)
		}
		if line.Quantity < 1 {
			return nil, fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
		}
	}
	rules, err := e.EligibleRules(ctx, merchantID, buyer)
	if err != nil {
		return nil, err
	}
	out := make([]CalculatedPrice, 0, len(lines))
	for _, line := range lines {
		variant, err := e.Variants.Variant(ctx, merchantID, line.VariantID)
		if err != nil {
			return nil, fmt.Errorf("variant %s: %w", line.VariantID, err)
		}
		price := Quote(variant, rules, line.Quantity, cartTotal)
		ObserveQuote(price)
		e.Logger.Debug().
			Str("merchant_id", merchantID).
			Str("variant_id", price.VariantID).
			Int("quantity", price.Quantity).
			Str("rule_id", price.AppliedRuleID).
			Str("company_price", price.CompanyPrice.String()).
			Msg("price_quoted")
		out = append(out, price)
	}
	return out, nil
}

// Quote prices v at qty using rules that already passed eligibility, ordered priority
// descending. Selection compares exact discounts; the winning company price is then
// rounded to MoneyScale, half away from zero, and the discount derived from it.
func Quote(v Variant, rules []Rule, qty int, cartTotal *Money) CalculatedPrice {
	price := CalculatedPrice{
		VariantID:          v.ID,
		Quantity:           qty,
		ListPrice:          v.ListPrice,
		CompanyPrice:       v.ListPrice,
		Discount:           decimal.Zero,
		DiscountPercentage: decimal.Zero,
	}
	rule, ok := SelectBest(v, rules, qty, cartTotal)
	if !ok {
		return price
	}
	price.CompanyPrice = Apply(v.ListPrice, rule, qty).Round(MoneyScale)
	price.Discount = v.ListPrice.Sub(price.CompanyPrice)
	price.DiscountPercentage = DiscountPercentage(v.ListPrice, price.Discount)
	price.AppliedRuleID = rule.ID
	price.AppliedRuleName = rule.Name
	return price
}

// DiscountPercentage expresses discount as a percentage of listPrice rounded to two
// decimals, half away from zero. A zero list price yields zero.
func DiscountPercentage(listPrice, discount Money) decimal.Decimal {
	if listPrice.IsZero() {
		return decimal.Zero
	}
	return discount.Mul(hundred).Div(listPrice).Round(2)
}

// SortByPriority orders rules priority descending, keeping the incoming order of equals.
func SortByPriority(rules []Rule) {
	slices.SortStableFunc(rules, func(a, b Rule) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
}

// ObserveQuote records the selection outcome of a quote.
func ObserveQuote(p CalculatedPrice) {
	if obs.PricingRuleSelections == nil {
		return
	}
	outcome := "list_price"
	if p.AppliedRuleID != "" {
		outcome = "rule_applied"
	}
	obs.PricingRuleSelections.WithLabelValues(outcome).Inc()
}
