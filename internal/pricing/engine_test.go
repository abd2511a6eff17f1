package pricing

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubRules struct {
	rules []Rule
	err   error
	calls int
}

func (s *stubRules) ActiveRules(ctx context.Context, merchantID string, buyer Buyer, now time.Time) ([]Rule, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

type stubVariants map[string]Variant

func (s stubVariants) Variant(ctx context.Context, merchantID, id string) (Variant, error) {
	v, ok := s[id]
	if !ok || merchantID != "m1" {
		return Variant{}, ErrVariantNotFound
	}
	return v, nil
}

func newTestEngine(rules []Rule) (*Engine, *stubRules) {
	src := &stubRules{rules: rules}
	return &Engine{
		Rules: src,
		Variants: stubVariants{
			"var-1": {ID: "var-1", ProductID: "prod-1", ListPrice: money("100"), Tags: "sale"},
			"var-2": {ID: "var-2", ProductID: "prod-2", ListPrice: money("40")},
		},
		Now: func() time.Time { return evalNow },
	}, src
}

func TestCalculatePricesWinnerSelection(t *testing.T) {
	engine, src := newTestEngine([]Rule{
		{ID: "A", Name: "Ten percent", MerchantID: "m1", IsActive: true, Priority: 1, Target: TargetAll{}, Scope: ScopeAll{}, Discount: Percentage{Percent: money("10")}},
		{ID: "B", Name: "Five off", MerchantID: "m1", IsActive: true, Priority: 5, Target: TargetCompany{CompanyID: "co-1"}, Scope: ScopeAll{}, Discount: FixedAmount{Value: money("5")}},
	})
	prices, err := engine.CalculatePrices(context.Background(), "m1", Buyer{CompanyID: "co-1"}, []LineRequest{
		{VariantID: "var-1", Quantity: 1},
		{VariantID: "var-2", Quantity: 3},
	}, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected rules to be loaded once, got %d", src.calls)
	}
	if len(prices) != 2 {
		t.Fatalf("expected 2 prices, got %d", len(prices))
	}
	first := prices[0]
	if first.AppliedRuleID != "A" || first.AppliedRuleName != "Ten percent" {
		t.Fatalf("expected rule A, got %+v", first)
	}
	assertMoney(t, "company price", first.CompanyPrice, "90")
	assertMoney(t, "discount", first.Discount, "10")
	assertMoney(t, "discount percentage", first.DiscountPercentage, "10")

	second := prices[1]
	if second.AppliedRuleID != "B" {
		t.Fatalf("expected five off to beat ten percent of 40, got %+v", second)
	}
	assertMoney(t, "second price", second.CompanyPrice, "35")
	assertMoney(t, "second discount", second.Discount, "5")
}

func TestCalculatePricesPriorityBreaksTiesRegardlessOfStoreOrder(t *testing.T) {
	engine, _ := newTestEngine([]Rule{
		{ID: "low", MerchantID: "m1", IsActive: true, Priority: 1, Target: TargetAll{}, Scope: ScopeAll{}, Discount: FixedAmount{Value: money("10")}},
		{ID: "high", MerchantID: "m1", IsActive: true, Priority: 5, Target: TargetAll{}, Scope: ScopeAll{}, Discount: Percentage{Percent: money("10")}},
	})
	prices, err := engine.CalculatePrices(context.Background(), "m1", Buyer{CompanyID: "co-1"}, []LineRequest{{VariantID: "var-1", Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if prices[0].AppliedRuleID != "high" {
		t.Fatalf("expected priority 5 rule to win the tie, got %s", prices[0].AppliedRuleID)
	}
}

func TestCalculatePricesExpiredRuleNeverSelected(t *testing.T) {
	expired := evalNow.Add(-time.Hour)
	engine, _ := newTestEngine([]Rule{
		{ID: "expired", MerchantID: "m1", IsActive: true, Target: TargetAll{}, Scope: ScopeAll{}, Discount: Percentage{Percent: money("50")}, ValidUntil: &expired},
		{ID: "small", MerchantID: "m1", IsActive: true, Target: TargetAll{}, Scope: ScopeAll{}, Discount: Percentage{Percent: money("1")}},
	})
	prices, err := engine.CalculatePrices(context.Background(), "m1", Buyer{CompanyID: "co-1"}, []LineRequest{{VariantID: "var-1", Quantity: 1}}, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if prices[0].AppliedRuleID != "small" {
		t.Fatalf("expected the only valid rule, got %s", prices[0].AppliedRuleID)
	}
}

func TestCalculatePricesNoRuleUsesListPrice(t *testing.T) {
	engine, _ := newTestEngine(nil)
	prices, err := engine.CalculatePrices(context.Background(), "m1", Buyer{CompanyID: "co-1"}, []LineRequest{{VariantID: "var-2", Quantity: 2}}, nil)
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	p := prices[0]
	if p.AppliedRuleID != "" {
		t.Fatalf("expected no rule, got %s", p.AppliedRuleID)
	}
	assertMoney(t, "company price", p.CompanyPrice, "40")
	assertMoney(t, "discount", p.Discount, "0")
	assertMoney(t, "discount percentage", p.DiscountPercentage, "0")
}

func TestCalculatePricesErrors(t *testing.T) {
	engine, src := newTestEngine(nil)
	ctx := context.Background()
	if _, err := engine.CalculatePrices(ctx, "m1", Buyer{}, []LineRequest{{VariantID: "missing", Quantity: 1}}, nil); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected ErrVariantNotFound, got %v", err)
	}
	if _, err := engine.CalculatePrices(ctx, "m1", Buyer{}, []LineRequest{{VariantID: "var-1", Quantity: 0}}, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for zero quantity, got %v", err)
	}
	if _, err := engine.CalculatePrices(ctx, " ", Buyer{}, []LineRequest{{VariantID: "var-1", Quantity: 1}}, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank merchant, got %v", err)
	}
	if _, err := engine.CalculatePrices(ctx, "m2", Buyer{}, []LineRequest{{VariantID: "var-1", Quantity: 1}}, nil); !errors.Is(err, ErrVariantNotFound) {
		t.Fatalf("expected another merchant's variant to be hidden, got %v", err)
	}
	src.err = errors.New("db down")
	if _, err := engine.CalculatePrices(ctx, "m1", Buyer{}, []LineRequest{{VariantID: "var-1", Quantity: 1}}, nil); err == nil {
		t.Fatal("expected rule source error to surface")
	}
}

func TestDiscountPercentageRounding(t *testing.T) {
	assertMoney(t, "third", DiscountPercentage(money("3"), money("1")), "33.33")
	assertMoney(t, "two thirds", DiscountPercentage(money("3"), money("2")), "66.67")
	assertMoney(t, "half cent", DiscountPercentage(money("200"), money("0.01")), "0.01")
	assertMoney(t, "zero list", DiscountPercentage(money("0"), money("0")), "0")
}

func TestQuoteRoundsCompanyPriceToCents(t *testing.T) {
	v := Variant{ID: "var-1", ListPrice: money("9.99")}
	rules := []Rule{{ID: "p15", Scope: ScopeAll{}, Discount: Percentage{Percent: money("15")}}}
	p := Quote(v, rules, 10, nil)
	assertMoney(t, "company price", p.CompanyPrice, "8.49")
	assertMoney(t, "discount", p.Discount, "1.5")
	assertMoney(t, "discount percentage", p.DiscountPercentage, "15.02")

	half := Quote(Variant{ID: "var-2", ListPrice: money("0.05")}, []Rule{{ID: "p50", Scope: ScopeAll{}, Discount: Percentage{Percent: money("50")}}}, 1, nil)
	assertMoney(t, "half cent rounds away from zero", half.CompanyPrice, "0.03")
}

func TestQuoteFixedPriceMayExceedListButIsNotSelected(t *testing.T) {
	v := Variant{ID: "var-1", ListPrice: money("50")}
	rules := []Rule{{ID: "fp", Scope: ScopeAll{}, Discount: FixedPrice{Value: money("30")}}}
	p := Quote(v, rules, 1, nil)
	assertMoney(t, "fixed price", p.CompanyPrice, "30")
	assertMoney(t, "discount percentage", p.DiscountPercentage, "40")
}
