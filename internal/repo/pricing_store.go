package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/b2b-pricing/internal/cache"
	"github.com/noah-isme/b2b-pricing/internal/cart"
	dbgen "github.com/noah-isme/b2b-pricing/internal/db/gen"
	"github.com/noah-isme/b2b-pricing/internal/obs"
	"github.com/noah-isme/b2b-pricing/internal/pricing"
)

// PricingQuerier defines the sqlc generated queries used by PricingStore.
type PricingQuerier interface {
	ListActivePricingRules(ctx context.Context, merchantID string) ([]dbgen.PricingRule, error)
	GetVariantForPricing(ctx context.Context, id pgtype.UUID) (dbgen.GetVariantForPricingRow, error)
	GetCart(ctx context.Context, id pgtype.UUID) (dbgen.Cart, error)
	ListCartItemsForPricing(ctx context.Context, cartID pgtype.UUID) ([]dbgen.ListCartItemsForPricingRow, error)
	UpdateCartItemPricing(ctx context.Context, arg dbgen.UpdateCartItemPricingParams) (int64, error)
	UpdateCartTotals(ctx context.Context, arg dbgen.UpdateCartTotalsParams) (int64, error)
}

// PricingStore backs the pricing engine and the cart aggregator with Postgres.
// When Pool is nil writes run directly on Q without a transaction.
type PricingStore struct {
	Q      PricingQuerier
	Pool   *pgxpool.Pool
	Rules  *cache.JSON
	Logger zerolog.Logger
}

// ActiveRules returns the merchant's active rules, read through the rule cache.
// Validity windows and targets are left to the engine.
func (s *PricingStore) ActiveRules(ctx context.Context, merchantID string, _ pricing.Buyer, _ time.Time) ([]pricing.Rule, error) {
	rows, err := s.activeRuleRows(ctx, merchantID)
	if err != nil {
		return nil, err
	}
	rules := make([]pricing.Rule, 0, len(rows))
	for _, row := range rows {
		rules = append(rules, RuleFromRow(row))
	}
	return rules, nil
}

func (s *PricingStore) activeRuleRows(ctx context.Context, merchantID string) ([]RuleRow, error) {
	key := cache.KeyActiveRules(merchantID)
	if s.Rules.Enabled() {
		var cached []RuleRow
		hit, err := s.Rules.Get(ctx, key, &cached)
		if err != nil {
			s.Logger.Warn().Err(err).Str("merchant_id", merchantID).Msg("rule_cache_read_failed")
		}
		obs.CountRuleCacheLookup(hit)
		if hit {
			return cached, nil
		}
	}
	dbRows, err := s.Q.ListActivePricingRules(ctx, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list active rules: %w", err)
	}
	rows := make([]RuleRow, 0, len(dbRows))
	for _, r := range dbRows {
		rows = append(rows, ruleRowFromDB(r))
	}
	if err := s.Rules.Set(ctx, key, rows); err != nil {
		s.Logger.Warn().Err(err).Str("merchant_id", merchantID).Msg("rule_cache_write_failed")
	}
	return rows, nil
}

// InvalidateRules drops the cached rule set of a merchant.
func (s *PricingStore) InvalidateRules(ctx context.Context, merchantID string) error {
	return s.Rules.Delete(ctx, cache.KeyActiveRules(merchantID))
}

// Variant resolves a variant of merchantID with its product tags and collections.
func (s *PricingStore) Variant(ctx context.Context, merchantID, variantID string) (pricing.Variant, error) {
	id, err := uuidValue(variantID)
	if err != nil {
		return pricing.Variant{}, pricing.ErrVariantNotFound
	}
	row, err := s.Q.GetVariantForPricing(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pricing.Variant{}, pricing.ErrVariantNotFound
		}
		return pricing.Variant{}, err
	}
	if row.MerchantID != merchantID {
		return pricing.Variant{}, pricing.ErrVariantNotFound
	}
	return pricing.Variant{
		ID:            uuidString(row.ID),
		ProductID:     uuidString(row.ProductID),
		ListPrice:     row.Price,
		Tags:          row.Tags,
		CollectionIDs: row.CollectionIds,
	}, nil
}

// FetchCart loads a cart with its items. Items whose variant was deleted carry a nil Variant.
func (s *PricingStore) FetchCart(ctx context.Context, cartID string) (cart.Cart, error) {
	id, err := uuidValue(strings.TrimSpace(cartID))
	if err != nil {
		return cart.Cart{}, cart.ErrNotFound
	}
	row, err := s.Q.GetCart(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cart.Cart{}, cart.ErrNotFound
		}
		return cart.Cart{}, err
	}
	items, err := s.Q.ListCartItemsForPricing(ctx, id)
	if err != nil {
		return cart.Cart{}, fmt.Errorf("list cart items: %w", err)
	}
	out := cart.Cart{
		ID:         uuidString(row.ID),
		MerchantID: row.MerchantID,
		Buyer: pricing.Buyer{
			CompanyID:     row.CompanyID,
			CompanyGroup:  row.CompanyGroup.String,
			CompanyUserID: row.CompanyUserID.String,
		},
		Items:   make([]cart.Item, 0, len(items)),
		Version: row.Version,
	}
	for _, it := range items {
		item := cart.Item{ID: uuidString(it.ID), Quantity: int(it.Quantity)}
		if it.VariantID.Valid && it.VariantPrice.Valid {
			item.Variant = &pricing.Variant{
				ID:            uuidString(it.VariantID),
				ProductID:     uuidString(it.VariantProductID),
				ListPrice:     it.VariantPrice.Decimal,
				Tags:          it.ProductTags.String,
				CollectionIDs: it.ProductCollectionIds,
			}
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

// PersistCartRecalculation writes the cart totals and every line in one transaction.
// A version mismatch or a line that disappeared since loading yields cart.ErrConflict.
func (s *PricingStore) PersistCartRecalculation(ctx context.Context, cartID string, lines []cart.LineUpdate, agg cart.Aggregate) error {
	cid, err := uuidValue(cartID)
	if err != nil {
		return cart.ErrNotFound
	}
	return s.inTx(ctx, func(q PricingQuerier) error {
		params := dbgen.UpdateCartTotalsParams{
			ID:                  cid,
			Subtotal:            agg.Subtotal,
			DiscountTotal:       agg.DiscountTotal,
			Total:               agg.Total,
			AppliedPricingRules: nonNil(agg.AppliedRules),
		}
		if agg.ExpectedVersion != nil {
			params.ExpectedVersion = pgtype.Int8{Int64: *agg.ExpectedVersion, Valid: true}
		}
		n, err := q.UpdateCartTotals(ctx, params)
		if err != nil {
			return fmt.Errorf("update cart totals: %w", err)
		}
		if n == 0 {
			if agg.ExpectedVersion != nil {
				return cart.ErrConflict
			}
			return cart.ErrNotFound
		}
		for _, line := range lines {
			itemID, err := uuidValue(line.ItemID)
			if err != nil {
				return fmt.Errorf("cart item %q: %w", line.ItemID, err)
			}
			n, err := q.UpdateCartItemPricing(ctx, dbgen.UpdateCartItemPricingParams{
				ID:                   itemID,
				CartID:               cid,
				ListPrice:            line.ListPrice,
				UnitPrice:            line.UnitPrice,
				DiscountAmount:       line.DiscountAmount,
				LineTotal:            line.LineTotal,
				AppliedPricingRuleID: optionalUUID(line.AppliedRuleID),
			})
			if err != nil {
				return fmt.Errorf("update cart item %s: %w", line.ItemID, err)
			}
			if n == 0 {
				return fmt.Errorf("cart item %s: %w", line.ItemID, cart.ErrConflict)
			}
		}
		return nil
	})
}

func (s *PricingStore) inTx(ctx context.Context, fn func(PricingQuerier) error) error {
	if s.Pool == nil {
		return fn(s.Q)
	}
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(dbgen.New(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
