package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	dbgen "github.com/noah-isme/b2b-pricing/internal/db/gen"
	"github.com/noah-isme/b2b-pricing/internal/pricing"
)

// RuleRow is the loose stored shape of a pricing rule: which optional fields
// matter depends on the declared target, scope and discount types. It is also the
// cached and seeded representation.
type RuleRow struct {
	ID                  string           `json:"id" yaml:"id"`
	MerchantID          string           `json:"merchantId" yaml:"merchantId"`
	Name                string           `json:"name" yaml:"name"`
	Priority            int              `json:"priority" yaml:"priority"`
	TargetType          string           `json:"targetType" yaml:"targetType"`
	TargetCompanyID     string           `json:"targetCompanyId,omitempty" yaml:"targetCompanyId"`
	TargetCompanyGroup  string           `json:"targetCompanyGroup,omitempty" yaml:"targetCompanyGroup"`
	TargetCompanyUserID string           `json:"targetCompanyUserId,omitempty" yaml:"targetCompanyUserId"`
	ScopeType           string           `json:"scopeType" yaml:"scopeType"`
	ScopeVariantIDs     []string         `json:"scopeVariantIds,omitempty" yaml:"scopeVariantIds"`
	ScopeProductIDs     []string         `json:"scopeProductIds,omitempty" yaml:"scopeProductIds"`
	ScopeCollectionIDs  []string         `json:"scopeCollectionIds,omitempty" yaml:"scopeCollectionIds"`
	ScopeTags           string           `json:"scopeTags,omitempty" yaml:"scopeTags"`
	DiscountType        string           `json:"discountType" yaml:"discountType"`
	DiscountValue       *decimal.Decimal `json:"discountValue,omitempty" yaml:"discountValue"`
	DiscountPercentage  *decimal.Decimal `json:"discountPercentage,omitempty" yaml:"discountPercentage"`
	QtyBreaks           []pricing.Break  `json:"qtyBreaks,omitempty" yaml:"qtyBreaks"`
	MinCartAmount       *decimal.Decimal `json:"minCartAmount,omitempty" yaml:"minCartAmount"`
	IsActive            bool             `json:"isActive" yaml:"isActive"`
	ValidFrom           *time.Time       `json:"validFrom,omitempty" yaml:"validFrom"`
	ValidUntil          *time.Time       `json:"validUntil,omitempty" yaml:"validUntil"`
}

// RuleFromRow converts a stored row into the engine's typed rule. Unknown target
// types yield a nil target, which is never eligible; unknown scope types yield a nil
// scope, which never matches; a discount missing its payload becomes Unapplicable.
func RuleFromRow(row RuleRow) pricing.Rule {
	return pricing.Rule{
		ID:            row.ID,
		MerchantID:    row.MerchantID,
		Name:          row.Name,
		Priority:      row.Priority,
		Target:        targetFromRow(row),
		Scope:         scopeFromRow(row),
		Discount:      discountFromRow(row),
		MinCartAmount: row.MinCartAmount,
		IsActive:      row.IsActive,
		ValidFrom:     row.ValidFrom,
		ValidUntil:    row.ValidUntil,
	}
}

func targetFromRow(row RuleRow) pricing.Target {
	switch pricing.TargetKind(normalizeKind(row.TargetType)) {
	case pricing.TargetKindAll:
		return pricing.TargetAll{}
	case pricing.TargetKindCompany:
		return pricing.TargetCompany{CompanyID: row.TargetCompanyID}
	case pricing.TargetKindCompanyGroup:
		return pricing.TargetCompanyGroup{Group: row.TargetCompanyGroup}
	case pricing.TargetKindCompanyUser:
		return pricing.TargetCompanyUser{UserID: row.TargetCompanyUserID}
	default:
		return nil
	}
}

func scopeFromRow(row RuleRow) pricing.Scope {
	switch pricing.ScopeKind(normalizeKind(row.ScopeType)) {
	case pricing.ScopeKindAll:
		return pricing.ScopeAll{}
	case pricing.ScopeKindVariants:
		return pricing.ScopeVariants{IDs: row.ScopeVariantIDs}
	case pricing.ScopeKindProducts:
		return pricing.ScopeProducts{IDs: row.ScopeProductIDs}
	case pricing.ScopeKindCollections:
		return pricing.ScopeCollections{IDs: row.ScopeCollectionIDs}
	case pricing.ScopeKindTags:
		return pricing.ScopeTags{Tags: row.ScopeTags}
	default:
		return nil
	}
}

func discountFromRow(row RuleRow) pricing.Discount {
	kind := pricing.DiscountKind(normalizeKind(row.DiscountType))
	switch kind {
	case pricing.DiscountKindPercentage:
		if row.DiscountPercentage != nil {
			return pricing.Percentage{Percent: *row.DiscountPercentage}
		}
	case pricing.DiscountKindFixedAmount:
		if row.DiscountValue != nil {
			return pricing.FixedAmount{Value: *row.DiscountValue}
		}
	case pricing.DiscountKindFixedPrice:
		if row.DiscountValue != nil {
			return pricing.FixedPrice{Value: *row.DiscountValue}
		}
	case pricing.DiscountKindQtyBreak:
		if len(row.QtyBreaks) > 0 {
			return pricing.QtyBreak{Breaks: normalizeBreaks(row.QtyBreaks)}
		}
	}
	return pricing.Unapplicable{Declared: kind}
}

func normalizeKind(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func normalizeBreaks(breaks []pricing.Break) []pricing.Break {
	if len(breaks) == 0 {
		return breaks
	}
	out := make([]pricing.Break, len(breaks))
	for i, b := range breaks {
		b.Kind = pricing.DiscountKind(normalizeKind(string(b.Kind)))
		out[i] = b
	}
	return out
}

// ruleRowFromDB maps a sqlc row. Undecodable qty breaks leave the list empty, which
// makes a QTY_BREAK rule a no-op.
func ruleRowFromDB(r dbgen.PricingRule) RuleRow {
	row := RuleRow{
		ID:                  uuidString(r.ID),
		MerchantID:          r.MerchantID,
		Name:                r.Name,
		Priority:            int(r.Priority),
		TargetType:          r.TargetType,
		TargetCompanyID:     r.TargetCompanyID.String,
		TargetCompanyGroup:  r.TargetCompanyGroup.String,
		TargetCompanyUserID: r.TargetCompanyUserID.String,
		ScopeType:           r.ScopeType,
		ScopeVariantIDs:     r.ScopeVariantIds,
		ScopeProductIDs:     r.ScopeProductIds,
		ScopeCollectionIDs:  r.ScopeCollectionIds,
		ScopeTags:           r.ScopeTags.String,
		DiscountType:        r.DiscountType,
		DiscountValue:       decimalPtr(r.DiscountValue),
		DiscountPercentage:  decimalPtr(r.DiscountPercentage),
		MinCartAmount:       decimalPtr(r.MinCartAmount),
		IsActive:            r.IsActive,
		ValidFrom:           timePtr(r.ValidFrom),
		ValidUntil:          timePtr(r.ValidUntil),
	}
	if len(r.QtyBreaks) > 0 {
		var breaks []pricing.Break
		if err := json.Unmarshal(r.QtyBreaks, &breaks); err == nil {
			row.QtyBreaks = breaks
		}
	}
	return row
}

// UpsertParams builds the insert-or-update parameters of a rule row for merchantID.
func (row RuleRow) UpsertParams(merchantID string) (dbgen.UpsertPricingRuleParams, error) {
	if strings.TrimSpace(row.Name) == "" {
		return dbgen.UpsertPricingRuleParams{}, errors.New("rule name required")
	}
	var breaks []byte
	if len(row.QtyBreaks) > 0 {
		data, err := json.Marshal(normalizeBreaks(row.QtyBreaks))
		if err != nil {
			return dbgen.UpsertPricingRuleParams{}, fmt.Errorf("encode qty breaks: %w", err)
		}
		breaks = data
	}
	return dbgen.UpsertPricingRuleParams{
		MerchantID:          merchantID,
		Name:                row.Name,
		Priority:            int32(row.Priority),
		TargetType:          normalizeKind(row.TargetType),
		TargetCompanyID:     textValue(row.TargetCompanyID),
		TargetCompanyGroup:  textValue(row.TargetCompanyGroup),
		TargetCompanyUserID: textValue(row.TargetCompanyUserID),
		ScopeType:           normalizeKind(row.ScopeType),
		ScopeVariantIds:     nonNil(row.ScopeVariantIDs),
		ScopeProductIds:     nonNil(row.ScopeProductIDs),
		ScopeCollectionIds:  nonNil(row.ScopeCollectionIDs),
		ScopeTags:           textValue(row.ScopeTags),
		DiscountType:        normalizeKind(row.DiscountType),
		DiscountValue:       nullDecimal(row.DiscountValue),
		DiscountPercentage:  nullDecimal(row.DiscountPercentage),
		QtyBreaks:           breaks,
		MinCartAmount:       nullDecimal(row.MinCartAmount),
		IsActive:            row.IsActive,
		ValidFrom:           timeValue(row.ValidFrom),
		ValidUntil:          timeValue(row.ValidUntil),
	}, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
