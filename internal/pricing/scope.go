package pricing

import "strings"

// ScopeKind enumerates which catalog items a rule covers.
type ScopeKind string

const (
	ScopeKindAll         ScopeKind = "ALL"
	ScopeKindProducts    ScopeKind = "PRODUCTS"
	ScopeKindCollections ScopeKind = "COLLECTIONS"
	ScopeKindTags        ScopeKind = "TAGS"
	ScopeKindVariants    ScopeKind = "VARIANTS"
)

// Scope decides whether a variant is covered by a rule.
type Scope interface {
	Kind() ScopeKind
	Contains(v Variant) bool
}

// ScopeAll covers the whole catalog.
type ScopeAll struct{}

func (ScopeAll) Kind() ScopeKind { return ScopeKindAll }
func (ScopeAll) Contains(Variant) bool { return true }

// ScopeVariants covers an explicit set of variant ids.
type ScopeVariants struct {
	IDs []string
}

func (ScopeVariants) Kind() ScopeKind { return ScopeKindVariants }
func (s ScopeVariants) Contains(v Variant) bool {
	return containsID(s.IDs, v.ID)
}

// ScopeProducts covers every variant of the listed products.
type ScopeProducts struct {
	IDs []string
}

func (ScopeProducts) Kind() ScopeKind { return ScopeKindProducts }
func (s ScopeProducts) Contains(v Variant) bool {
	return containsID(s.IDs, v.ProductID)
}

// ScopeCollections covers variants whose product belongs to any listed collection.
type ScopeCollections struct {
	IDs []string
}

func (ScopeCollections) Kind() ScopeKind { return ScopeKindCollections }
func (s ScopeCollections) Contains(v Variant) bool {
	if len(s.IDs) == 0 {
		return false
	}
	for _, id := range v.CollectionIDs {
		if containsID(s.IDs, id) {
			return true
		}
	}
	return false
}

// ScopeTags covers variants whose product shares at least one tag with Tags.
// Tags is the raw comma separated list; matching is case-sensitive.
type ScopeTags struct {
	Tags string
}

func (ScopeTags) Kind() ScopeKind { return ScopeKindTags }
func (s ScopeTags) Contains(v Variant) bool {
	ruleTags := SplitTags(s.Tags)
	if len(ruleTags) == 0 {
		return false
	}
	productTags := SplitTags(v.Tags)
	for _, want := range ruleTags {
		for _, have := range productTags {
			if want == have {
				return true
			}
		}
	}
	return false
}

// Matches reports whether rule r covers v. A rule without a scope matches nothing.
func Matches(r Rule, v Variant) bool {
	if r.Scope == nil {
		return false
	}
	return r.Scope.Contains(v)
}

// SplitTags splits a comma separated tag list, trimming whitespace and dropping empty tokens.
func SplitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsID(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
