package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/b2b-pricing/internal/lock"
	"github.com/noah-isme/b2b-pricing/internal/obs"
	"github.com/noah-isme/b2b-pricing/internal/pricing"
)

// ErrNotFound indicates the requested cart could not be located.
var ErrNotFound = errors.New("cart not found")

// ErrConflict is returned when the cart changed between load and persist.
var ErrConflict = errors.New("cart modified concurrently")

// Item is one cart line as loaded for pricing. Variant is nil when the variant no
// longer exists.
type Item struct {
	ID       string
	Quantity int
	Variant  *pricing.Variant
}

// Cart is the state a recalculation starts from.
type Cart struct {
	ID         string
	MerchantID string
	Buyer      pricing.Buyer
	Items      []Item
	Version    int64
}

// LineUpdate carries the recomputed pricing of one cart line.
type LineUpdate struct {
	ItemID         string
	ListPrice      pricing.Money
	UnitPrice      pricing.Money
	DiscountAmount pricing.Money
	LineTotal      pricing.Money
	AppliedRuleID  string
}

// Aggregate is the recomputed cart level state. ExpectedVersion, when set, must
// match the stored version or nothing is written.
type Aggregate struct {
	Subtotal        pricing.Money
	DiscountTotal   pricing.Money
	Total           pricing.Money
	AppliedRules    []string
	ExpectedVersion *int64
}

// Totals is what a recalculation reports back to callers.
type Totals struct {
	CartID        string        `json:"cartId"`
	Subtotal      pricing.Money `json:"subtotal"`
	DiscountTotal pricing.Money `json:"discountTotal"`
	Total         pricing.Money `json:"total"`
	AppliedRules  []string      `json:"appliedPricingRules"`
}

// Store loads carts and persists recalculations. PersistCartRecalculation must
// apply every line and the aggregate atomically.
type Store interface {
	FetchCart(ctx context.Context, cartID string) (Cart, error)
	PersistCartRecalculation(ctx context.Context, cartID string, lines []LineUpdate, agg Aggregate) error
}

// Locker serialises work on a key.
type Locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// MinCartBasis selects the cart total handed to rules with a cart minimum.
type MinCartBasis string

const (
	// BasisNone prices every line without a cart total, so cart minimum rules never apply.
	BasisNone MinCartBasis = "none"
	// BasisListSubtotal uses the sum of list price times quantity over all lines.
	BasisListSubtotal MinCartBasis = "list_subtotal"
)

// ParseMinCartBasis maps a configuration value to a basis, defaulting to BasisNone.
func ParseMinCartBasis(raw string) (MinCartBasis, error) {
	switch MinCartBasis(strings.ToLower(strings.TrimSpace(raw))) {
	case "", BasisNone:
		return BasisNone, nil
	case BasisListSubtotal:
		return BasisListSubtotal, nil
	default:
		return BasisNone, fmt.Errorf("unknown cart minimum basis %q", raw)
	}
}

// Service recalculates cart pricing.
type Service struct {
	Store  Store
	Engine *pricing.Engine
	// Locker is optional; without it concurrent recalculations of one cart are last-write-wins.
	Locker            Locker
	LockTTL           time.Duration
	MinCartBasis      MinCartBasis
	OptimisticLocking bool
	Logger            zerolog.Logger
}

var (
	durationOnce sync.Once
	durationHist metric.Float64Histogram
)

func recalcDuration() metric.Float64Histogram {
	durationOnce.Do(func() {
		h, err := otel.Meter("github.com/noah-isme/b2b-pricing/internal/cart").Float64Histogram(
			"cart.recalculation.duration",
			metric.WithDescription("Duration of cart recalculations."),
			metric.WithUnit("ms"))
		if err == nil {
			durationHist = h
		}
	})
	return durationHist
}

// RecalculateCart reprices every line of a cart and persists lines and totals as one unit.
func (s *Service) RecalculateCart(ctx context.Context, cartID string) (Totals, error) {
	if s == nil || s.Store == nil || s.Engine == nil {
		return Totals{}, errors.New("cart service not configured")
	}
	start := time.Now()
	var totals Totals
	run := func(ctx context.Context) error {
		c, lines, agg, err := s.compute(ctx, cartID)
		if err != nil {
			return err
		}
		if s.OptimisticLocking {
			version := c.Version
			agg.ExpectedVersion = &version
		}
		if err := s.Store.PersistCartRecalculation(ctx, c.ID, lines, agg); err != nil {
			return fmt.Errorf("persist cart %s: %w", c.ID, err)
		}
		totals = totalsOf(c.ID, agg)
		return nil
	}

	var err error
	if s.Locker != nil {
		err = s.Locker.WithLock(ctx, lock.CartRecalcKey(cartID), s.lockTTL(), run)
	} else {
		err = run(ctx)
	}
	s.record(ctx, start, err)
	if err != nil {
		s.Logger.Error().Err(err).Str("cart_id", cartID).Msg("cart_recalculation_failed")
		return Totals{}, err
	}
	s.Logger.Info().
		Str("cart_id", cartID).
		Str("subtotal", totals.Subtotal.String()).
		Str("discount_total", totals.DiscountTotal.String()).
		Strs("applied_rules", totals.AppliedRules).
		Msg("cart_recalculated")
	return totals, nil
}

// Preview computes the totals RecalculateCart would persist without writing anything.
func (s *Service) Preview(ctx context.Context, cartID string) (Totals, error) {
	if s == nil || s.Store == nil || s.Engine == nil {
		return Totals{}, errors.New("cart service not configured")
	}
	c, _, agg, err := s.compute(ctx, cartID)
	if err != nil {
		return Totals{}, err
	}
	return totalsOf(c.ID, agg), nil
}

func (s *Service) compute(ctx context.Context, cartID string) (Cart, []LineUpdate, Aggregate, error) {
	if strings.TrimSpace(cartID) == "" {
		return Cart{}, nil, Aggregate{}, ErrNotFound
	}
	c, err := s.Store.FetchCart(ctx, cartID)
	if err != nil {
		return Cart{}, nil, Aggregate{}, fmt.Errorf("fetch cart %s: %w", cartID, err)
	}
	for _, item := range c.Items {
		if item.Variant == nil {
			return Cart{}, nil, Aggregate{}, fmt.Errorf("cart item %s: %w", item.ID, pricing.ErrVariantNotFound)
		}
	}
	rules, err := s.Engine.EligibleRules(ctx, c.MerchantID, c.Buyer)
	if err != nil {
		return Cart{}, nil, Aggregate{}, err
	}
	cartTotal := s.cartTotal(c.Items)

	lines := make([]LineUpdate, 0, len(c.Items))
	agg := Aggregate{Subtotal: decimal.Zero, DiscountTotal: decimal.Zero, AppliedRules: []string{}}
	seen := make(map[string]struct{})
	for _, item := range c.Items {
		price := pricing.Quote(*item.Variant, rules, item.Quantity, cartTotal)
		pricing.ObserveQuote(price)
		qty := decimal.NewFromInt(int64(item.Quantity))
		line := LineUpdate{
			ItemID:         item.ID,
			ListPrice:      price.ListPrice,
			UnitPrice:      price.CompanyPrice,
			DiscountAmount: price.Discount,
			LineTotal:      price.CompanyPrice.Mul(qty),
			AppliedRuleID:  price.AppliedRuleID,
		}
		lines = append(lines, line)
		agg.Subtotal = agg.Subtotal.Add(line.LineTotal)
		agg.DiscountTotal = agg.DiscountTotal.Add(price.Discount.Mul(qty))
		if id := price.AppliedRuleID; id != "" {
			if _, dup := seen[id]; !dup {
				seen[id] = struct{}{}
				agg.AppliedRules = append(agg.AppliedRules, id)
			}
		}
	}
	agg.Total = agg.Subtotal
	return c, lines, agg, nil
}

func (s *Service) cartTotal(items []Item) *pricing.Money {
	if s.MinCartBasis != BasisListSubtotal {
		return nil
	}
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Variant.ListPrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return &total
}

func (s *Service) lockTTL() time.Duration {
	if s.LockTTL <= 0 {
		return 10 * time.Second
	}
	return s.LockTTL
}

func (s *Service) record(ctx context.Context, start time.Time, err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		result = "not_found"
	case errors.Is(err, ErrConflict), errors.Is(err, lock.ErrNotAcquired):
		result = "conflict"
	default:
		result = "error"
	}
	obs.CountCartRecalculation(result)
	if h := recalcDuration(); h != nil {
		h.Record(ctx, obs.DurationMillis(time.Since(start)), metric.WithAttributes(attribute.String("result", result)))
	}
}

func totalsOf(cartID string, agg Aggregate) Totals {
	return Totals{
		CartID:        cartID,
		Subtotal:      agg.Subtotal,
		DiscountTotal: agg.DiscountTotal,
		Total:         agg.Total,
		AppliedRules:  agg.AppliedRules,
	}
}
