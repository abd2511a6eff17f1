package pricing

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrVariantNotFound is returned when a requested variant cannot be resolved.
	ErrVariantNotFound = errors.New("variant not found")
	// ErrInvalidInput indicates a malformed calculation request.
	ErrInvalidInput = errors.New("invalid input")
)

// Money represents a monetary amount in the merchant currency.
type Money = decimal.Decimal

// MoneyScale is the number of decimal places a settled price carries.
const MoneyScale = 2

var hundred = decimal.NewFromInt(100)

// Buyer identifies who is asking for a price.
type Buyer struct {
	CompanyID     string `json:"companyId"`
	CompanyGroup  string `json:"companyGroup,omitempty"`
	CompanyUserID string `json:"companyUserId,omitempty"`
}

// Variant is the catalog view of a purchasable item, enriched with its product context.
type Variant struct {
	ID            string
	ProductID     string
	ListPrice     Money
	Tags          string
	CollectionIDs []string
}

// Rule is a merchant-authored discount definition.
type Rule struct {
	ID            string
	MerchantID    string
	Name          string
	Priority      int
	Target        Target
	Scope         Scope
	Discount      Discount
	MinCartAmount *Money
	IsActive      bool
	ValidFrom     *time.Time
	ValidUntil    *time.Time
}

// ActiveAt reports whether now falls inside the rule validity window. Bounds are inclusive.
func (r Rule) ActiveAt(now time.Time) bool {
	if r.ValidFrom != nil && now.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && now.After(*r.ValidUntil) {
		return false
	}
	return true
}

// TargetKind enumerates who a rule addresses.
type TargetKind string

const (
	TargetKindAll          TargetKind = "ALL"
	TargetKindCompany      TargetKind = "COMPANY"
	TargetKindCompanyGroup TargetKind = "COMPANY_GROUP"
	TargetKindCompanyUser  TargetKind = "COMPANY_USER"
)

// Target decides whether a buyer is addressed by a rule.
type Target interface {
	Kind() TargetKind
	Matches(b Buyer) bool
}

// TargetAll addresses every buyer.
type TargetAll struct{}

func (TargetAll) Kind() TargetKind { return TargetKindAll }
func (TargetAll) Matches(Buyer) bool { return true }

// TargetCompany addresses a single company.
type TargetCompany struct {
	CompanyID string
}

func (TargetCompany) Kind() TargetKind { return TargetKindCompany }
func (t TargetCompany) Matches(b Buyer) bool {
	return t.CompanyID != "" && t.CompanyID == b.CompanyID
}

// TargetCompanyGroup addresses every company tagged with a group.
type TargetCompanyGroup struct {
	Group string
}

func (TargetCompanyGroup) Kind() TargetKind { return TargetKindCompanyGroup }
func (t TargetCompanyGroup) Matches(b Buyer) bool {
	return t.Group != "" && t.Group == b.CompanyGroup
}

// TargetCompanyUser addresses one company user. Calls without a user id never match.
type TargetCompanyUser struct {
	UserID string
}

func (TargetCompanyUser) Kind() TargetKind { return TargetKindCompanyUser }
func (t TargetCompanyUser) Matches(b Buyer) bool {
	if strings.TrimSpace(b.CompanyUserID) == "" {
		return false
	}
	return t.UserID == b.CompanyUserID
}

// DiscountKind enumerates the supported discount strategies.
type DiscountKind string

const (
	DiscountKindPercentage  DiscountKind = "PERCENTAGE"
	DiscountKindFixedAmount DiscountKind = "FIXED_AMOUNT"
	DiscountKindFixedPrice  DiscountKind = "FIXED_PRICE"
	DiscountKindQtyBreak    DiscountKind = "QTY_BREAK"
)

// Break is a single quantity tier of a QTY_BREAK discount.
type Break struct {
	MinQty int          `json:"minQty" yaml:"minQty"`
	Kind   DiscountKind `json:"discountType" yaml:"discountType"`
	// Value is a percentage for PERCENTAGE tiers and an amount for FIXED_AMOUNT tiers.
	Value Money `json:"discountValue" yaml:"discountValue"`
}
