package repo_test

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	redis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/b2b-pricing/internal/cache"
	"github.com/noah-isme/b2b-pricing/internal/cart"
	dbgen "github.com/noah-isme/b2b-pricing/internal/db/gen"
	"github.com/noah-isme/b2b-pricing/internal/pricing"
	"github.com/noah-isme/b2b-pricing/internal/repo"
)

func pgUUID(id uuid.UUID) pgtype.UUID { return pgtype.UUID{Bytes: id, Valid: true} }

type queriesStub struct {
	rules      []dbgen.PricingRule
	ruleCalls  int
	variants   map[uuid.UUID]dbgen.GetVariantForPricingRow
	cartRow    *dbgen.Cart
	items      []dbgen.ListCartItemsForPricingRow
	totals     []dbgen.UpdateCartTotalsParams
	lineWrites []dbgen.UpdateCartItemPricingParams
}

func (q *queriesStub) ListActivePricingRules(ctx context.Context, merchantID string) ([]dbgen.PricingRule, error) {
	q.ruleCalls++
	return q.rules, nil
}

func (q *queriesStub) GetVariantForPricing(ctx context.Context, id pgtype.UUID) (dbgen.GetVariantForPricingRow, error) {
	row, ok := q.variants[uuid.UUID(id.Bytes)]
	if !ok {
		return dbgen.GetVariantForPricingRow{}, pgx.ErrNoRows
	}
	return row, nil
}

func (q *queriesStub) GetCart(ctx context.Context, id pgtype.UUID) (dbgen.Cart, error) {
	if q.cartRow == nil || q.cartRow.ID != id {
		return dbgen.Cart{}, pgx.ErrNoRows
	}
	return *q.cartRow, nil
}

func (q *queriesStub) ListCartItemsForPricing(ctx context.Context, cartID pgtype.UUID) ([]dbgen.ListCartItemsForPricingRow, error) {
	return q.items, nil
}

func (q *queriesStub) UpdateCartItemPricing(ctx context.Context, arg dbgen.UpdateCartItemPricingParams) (int64, error) {
	for _, it := range q.items {
		if it.ID == arg.ID {
			q.lineWrites = append(q.lineWrites, arg)
			return 1, nil
		}
	}
	return 0, nil
}

func (q *queriesStub) UpdateCartTotals(ctx context.Context, arg dbgen.UpdateCartTotalsParams) (int64, error) {
	if q.cartRow == nil || q.cartRow.ID != arg.ID {
		return 0, nil
	}
	if arg.ExpectedVersion.Valid && arg.ExpectedVersion.Int64 != q.cartRow.Version {
		return 0, nil
	}
	q.cartRow.Version++
	q.totals = append(q.totals, arg)
	return 1, nil
}

func TestActiveRulesReadsThroughCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ruleID := uuid.New()
	stub := &queriesStub{rules: []dbgen.PricingRule{{
		ID:                 pgUUID(ruleID),
		MerchantID:         "m1",
		Name:               "Ten off",
		Priority:           4,
		TargetType:         "ALL",
		ScopeType:          "ALL",
		DiscountType:       "PERCENTAGE",
		DiscountPercentage: decimal.NullDecimal{Decimal: decimal.NewFromInt(10), Valid: true},
		IsActive:           true,
	}}}
	store := &repo.PricingStore{Q: stub, Rules: cache.New(client, time.Minute)}
	ctx := context.Background()

	first, err := store.ActiveRules(ctx, "m1", pricing.Buyer{}, time.Now())
	require.NoError(t, err)
	second, err := store.ActiveRules(ctx, "m1", pricing.Buyer{}, time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, stub.ruleCalls)
	require.True(t, mr.Exists(cache.KeyActiveRules("m1")))

	require.Len(t, second, 1)
	require.Equal(t, ruleID.String(), second[0].ID)
	require.Equal(t, first[0].Priority, second[0].Priority)
	require.Equal(t, pricing.TargetAll{}, second[0].Target)
	pct, ok := second[0].Discount.(pricing.Percentage)
	require.True(t, ok)
	require.True(t, pct.Percent.Equal(decimal.NewFromInt(10)))

	require.NoError(t, store.InvalidateRules(ctx, "m1"))
	_, err = store.ActiveRules(ctx, "m1", pricing.Buyer{}, time.Now())
	require.NoError(t, err)
	require.Equal(t, 2, stub.ruleCalls)
}

func TestActiveRulesWithoutCache(t *testing.T) {
	stub := &queriesStub{}
	store := &repo.PricingStore{Q: stub}
	for i := 0; i < 2; i++ {
		rules, err := store.ActiveRules(context.Background(), "m1", pricing.Buyer{}, time.Now())
		require.NoError(t, err)
		require.Empty(t, rules)
	}
	require.Equal(t, 2, stub.ruleCalls)
}

func TestVariantLookup(t *testing.T) {
	variantID, productID := uuid.New(), uuid.New()
	stub := &queriesStub{variants: map[uuid.UUID]dbgen.GetVariantForPricingRow{
		variantID: {ID: pgUUID(variantID), ProductID: pgUUID(productID), Price: decimal.RequireFromString("12.50"), MerchantID: "m1", Tags: "sale", CollectionIds: []string{"col-1"}},
	}}
	store := &repo.PricingStore{Q: stub}

	v, err := store.Variant(context.Background(), "m1", variantID.String())
	require.NoError(t, err)
	require.Equal(t, productID.String(), v.ProductID)
	require.True(t, v.ListPrice.Equal(decimal.RequireFromString("12.5")))
	require.Equal(t, []string{"col-1"}, v.CollectionIDs)

	_, err = store.Variant(context.Background(), "m1", uuid.NewString())
	require.ErrorIs(t, err, pricing.ErrVariantNotFound)
	_, err = store.Variant(context.Background(), "m1", "not-a-uuid")
	require.ErrorIs(t, err, pricing.ErrVariantNotFound)
}

func TestVariantLookupIsScopedToMerchant(t *testing.T) {
	variantID := uuid.New()
	stub := &queriesStub{variants: map[uuid.UUID]dbgen.GetVariantForPricingRow{
		variantID: {ID: pgUUID(variantID), ProductID: pgUUID(uuid.New()), Price: decimal.RequireFromString("80"), MerchantID: "m2"},
	}}
	store := &repo.PricingStore{Q: stub}

	_, err := store.Variant(context.Background(), "m1", variantID.String())
	require.ErrorIs(t, err, pricing.ErrVariantNotFound)

	v, err := store.Variant(context.Background(), "m2", variantID.String())
	require.NoError(t, err)
	require.True(t, v.ListPrice.Equal(decimal.NewFromInt(80)))
}

func cartFixture() (*queriesStub, uuid.UUID, uuid.UUID, uuid.UUID) {
	cartID, liveItem, orphanItem := uuid.New(), uuid.New(), uuid.New()
	variantID, productID := uuid.New(), uuid.New()
	stub := &queriesStub{
		cartRow: &dbgen.Cart{
			ID:           pgUUID(cartID),
			MerchantID:   "m1",
			CompanyID:    "co-1",
			CompanyGroup: pgtype.Text{String: "gold", Valid: true},
			Version:      7,
		},
		items: []dbgen.ListCartItemsForPricingRow{
			{
				ID:                   pgUUID(liveItem),
				VariantID:            pgUUID(variantID),
				Quantity:             2,
				VariantProductID:     pgUUID(productID),
				VariantPrice:         decimal.NullDecimal{Decimal: decimal.NewFromInt(40), Valid: true},
				ProductTags:          pgtype.Text{String: "sale", Valid: true},
				ProductCollectionIds: []string{"col-1"},
			},
			{ID: pgUUID(orphanItem), Quantity: 1},
		},
	}
	return stub, cartID, liveItem, orphanItem
}

func TestFetchCart(t *testing.T) {
	stub, cartID, liveItem, orphanItem := cartFixture()
	store := &repo.PricingStore{Q: stub}

	c, err := store.FetchCart(context.Background(), cartID.String())
	require.NoError(t, err)
	require.Equal(t, "m1", c.MerchantID)
	require.Equal(t, pricing.Buyer{CompanyID: "co-1", CompanyGroup: "gold"}, c.Buyer)
	require.Equal(t, int64(7), c.Version)
	require.Len(t, c.Items, 2)
	require.Equal(t, liveItem.String(), c.Items[0].ID)
	require.NotNil(t, c.Items[0].Variant)
	require.Equal(t, "sale", c.Items[0].Variant.Tags)
	require.Equal(t, orphanItem.String(), c.Items[1].ID)
	require.Nil(t, c.Items[1].Variant)

	_, err = store.FetchCart(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, cart.ErrNotFound)
	_, err = store.FetchCart(context.Background(), "bogus")
	require.ErrorIs(t, err, cart.ErrNotFound)
}

func TestPersistCartRecalculation(t *testing.T) {
	stub, cartID, liveItem, _ := cartFixture()
	store := &repo.PricingStore{Q: stub}
	ruleID := uuid.New()
	version := int64(7)

	lines := []cart.LineUpdate{{
		ItemID:         liveItem.String(),
		ListPrice:      decimal.NewFromInt(40),
		UnitPrice:      decimal.NewFromInt(36),
		DiscountAmount: decimal.NewFromInt(4),
		LineTotal:      decimal.NewFromInt(72),
		AppliedRuleID:  ruleID.String(),
	}}
	agg := cart.Aggregate{
		Subtotal:        decimal.NewFromInt(72),
		DiscountTotal:   decimal.NewFromInt(8),
		Total:           decimal.NewFromInt(72),
		AppliedRules:    []string{ruleID.String()},
		ExpectedVersion: &version,
	}
	require.NoError(t, store.PersistCartRecalculation(context.Background(), cartID.String(), lines, agg))
	require.Len(t, stub.totals, 1)
	require.True(t, stub.totals[0].ExpectedVersion.Valid)
	require.Len(t, stub.lineWrites, 1)
	require.Equal(t, pgUUID(ruleID), stub.lineWrites[0].AppliedPricingRuleID)

	// stored version moved to 8; replaying with 7 is stale
	err := store.PersistCartRecalculation(context.Background(), cartID.String(), lines, agg)
	require.ErrorIs(t, err, cart.ErrConflict)

	agg.ExpectedVersion = nil
	lines[0].AppliedRuleID = ""
	require.NoError(t, store.PersistCartRecalculation(context.Background(), cartID.String(), lines, agg))
	require.False(t, stub.lineWrites[1].AppliedPricingRuleID.Valid)
	require.False(t, stub.totals[1].ExpectedVersion.Valid)

	gone := []cart.LineUpdate{{ItemID: uuid.NewString()}}
	err = store.PersistCartRecalculation(context.Background(), cartID.String(), gone, cart.Aggregate{})
	require.ErrorIs(t, err, cart.ErrConflict)

	err = store.PersistCartRecalculation(context.Background(), uuid.NewString(), nil, cart.Aggregate{})
	require.ErrorIs(t, err, cart.ErrNotFound)
}
