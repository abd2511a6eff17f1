// Package seed loads YAML packs of catalog data, pricing rules and demo carts.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	dbgen "github.com/noah-isme/b2b-pricing/internal/db/gen"
	"github.com/noah-isme/b2b-pricing/internal/pricing"
	"github.com/noah-isme/b2b-pricing/internal/repo"
)

// Pack is the document layout of a seed file.
type Pack struct {
	MerchantID string         `yaml:"merchantId"`
	Products   []Product      `yaml:"products"`
	Rules      []repo.RuleRow `yaml:"rules"`
	Carts      []Cart         `yaml:"carts"`
}

type Product struct {
	Title         string    `yaml:"title"`
	Tags          string    `yaml:"tags"`
	CollectionIDs []string  `yaml:"collectionIds"`
	Variants      []Variant `yaml:"variants"`
}

type Variant struct {
	SKU   string          `yaml:"sku"`
	Price decimal.Decimal `yaml:"price"`
}

type Cart struct {
	CompanyID     string     `yaml:"companyId"`
	CompanyGroup  string     `yaml:"companyGroup"`
	CompanyUserID string     `yaml:"companyUserId"`
	Items         []CartItem `yaml:"items"`
}

type CartItem struct {
	SKU      string `yaml:"sku"`
	Quantity int    `yaml:"quantity"`
}

// Parse decodes and checks a pack. Unknown keys are rejected so typos in rule
// fields surface instead of silently producing inert rules.
func Parse(r io.Reader) (Pack, error) {
	var pack Pack
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&pack); err != nil {
		return Pack{}, fmt.Errorf("decode pack: %w", err)
	}
	return pack, pack.validate()
}

func (p Pack) validate() error {
	if strings.TrimSpace(p.MerchantID) == "" {
		return errors.New("pack: merchantId required")
	}
	skus := map[string]struct{}{}
	for _, prod := range p.Products {
		for _, v := range prod.Variants {
			if v.SKU == "" {
				return fmt.Errorf("pack: product %q has a variant without sku", prod.Title)
			}
			if _, dup := skus[v.SKU]; dup {
				return fmt.Errorf("pack: duplicate sku %q", v.SKU)
			}
			if v.Price.IsNegative() {
				return fmt.Errorf("pack: sku %q has a negative price", v.SKU)
			}
			skus[v.SKU] = struct{}{}
		}
	}
	names := map[string]struct{}{}
	for _, rule := range p.Rules {
		name := strings.TrimSpace(rule.Name)
		if name == "" {
			return errors.New("pack: rule without name")
		}
		if _, dup := names[name]; dup {
			return fmt.Errorf("pack: duplicate rule %q", name)
		}
		names[name] = struct{}{}
		for _, b := range rule.QtyBreaks {
			switch pricing.DiscountKind(strings.ToUpper(strings.TrimSpace(string(b.Kind)))) {
			case pricing.DiscountKindPercentage, pricing.DiscountKindFixedAmount:
			default:
				return fmt.Errorf("pack: rule %q has a tier with discountType %q", name, b.Kind)
			}
		}
	}
	for i, c := range p.Carts {
		if strings.TrimSpace(c.CompanyID) == "" {
			return fmt.Errorf("pack: cart %d without companyId", i)
		}
		for _, it := range c.Items {
			if _, ok := skus[it.SKU]; !ok {
				return fmt.Errorf("pack: cart %d references unknown sku %q", i, it.SKU)
			}
			if it.Quantity <= 0 {
				return fmt.Errorf("pack: cart %d sku %q needs a positive quantity", i, it.SKU)
			}
		}
	}
	return nil
}

// Writer is the set of generated queries a pack is written through.
type Writer interface {
	CreateProduct(ctx context.Context, arg dbgen.CreateProductParams) (pgtype.UUID, error)
	CreateVariant(ctx context.Context, arg dbgen.CreateVariantParams) (pgtype.UUID, error)
	UpsertPricingRule(ctx context.Context, arg dbgen.UpsertPricingRuleParams) (pgtype.UUID, error)
	CreateCart(ctx context.Context, arg dbgen.CreateCartParams) (pgtype.UUID, error)
	CreateCartItem(ctx context.Context, arg dbgen.CreateCartItemParams) (pgtype.UUID, error)
}

// Result summarises what Apply wrote.
type Result struct {
	Products int
	Variants int
	Rules    int
	CartIDs  []string
}

// Apply writes products, then rules, then carts. Rules are upserted by name so a pack
// can be re-applied; products and carts are always inserted.
func Apply(ctx context.Context, w Writer, pack Pack) (Result, error) {
	var res Result
	variantIDs := map[string]pgtype.UUID{}
	for _, prod := range pack.Products {
		productID, err := w.CreateProduct(ctx, dbgen.CreateProductParams{
			MerchantID:    pack.MerchantID,
			Title:         prod.Title,
			Tags:          prod.Tags,
			CollectionIds: nonNil(prod.CollectionIDs),
		})
		if err != nil {
			return res, fmt.Errorf("create product %q: %w", prod.Title, err)
		}
		res.Products++
		for _, v := range prod.Variants {
			id, err := w.CreateVariant(ctx, dbgen.CreateVariantParams{ProductID: productID, Sku: v.SKU, Price: v.Price})
			if err != nil {
				return res, fmt.Errorf("create variant %q: %w", v.SKU, err)
			}
			variantIDs[v.SKU] = id
			res.Variants++
		}
	}

	for _, rule := range pack.Rules {
		params, err := rule.UpsertParams(pack.MerchantID)
		if err != nil {
			return res, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
		if _, err := w.UpsertPricingRule(ctx, params); err != nil {
			return res, fmt.Errorf("upsert rule %q: %w", rule.Name, err)
		}
		res.Rules++
	}

	for _, c := range pack.Carts {
		cartID, err := w.CreateCart(ctx, dbgen.CreateCartParams{
			MerchantID:    pack.MerchantID,
			CompanyID:     c.CompanyID,
			CompanyGroup:  optionalText(c.CompanyGroup),
			CompanyUserID: optionalText(c.CompanyUserID),
		})
		if err != nil {
			return res, fmt.Errorf("create cart for %q: %w", c.CompanyID, err)
		}
		for _, it := range c.Items {
			if _, err := w.CreateCartItem(ctx, dbgen.CreateCartItemParams{
				CartID:    cartID,
				VariantID: variantIDs[it.SKU],
				Quantity:  int32(it.Quantity),
			}); err != nil {
				return res, fmt.Errorf("add %q to cart: %w", it.SKU, err)
			}
		}
		res.CartIDs = append(res.CartIDs, uuidString(cartID))
	}
	return res, nil
}

func optionalText(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	return pgtype.Text{String: s, Valid: s != ""}
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func uuidString(id pgtype.UUID) string {
	if !id.Valid {
		return ""
	}
	return uuid.UUID(id.Bytes).String()
}
