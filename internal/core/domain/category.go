package domain

import "strings"

// Category is a storage partition label. The agent speaks in display labels
// ("Settlement Documents"); everything downstream uses slugs.
type Category string

const (
	CategorySettlement         Category = "settlement"
	CategoryIncomeVerification Category = "income-verification"
	CategoryPurchaseAgreement  Category = "purchase-agreement"
	CategoryUnclassified       Category = "unclassified"
)

var displayLabels = map[Category]string{
	CategorySettlement:         "Settlement Documents",
	CategoryIncomeVerification: "Income Verifications",
	CategoryPurchaseAgreement:  "Purchase Agreements",
	CategoryUnclassified:       "Unclassified",
}

// KnownCategories returns the routable categories in lexicographic slug
// order. Unclassified is excluded: it is the fallback, never an agent answer.
func KnownCategories() []Category {
	return []Category{
		CategoryIncomeVerification,
		CategoryPurchaseAgreement,
		CategorySettlement,
	}
}

func (c Category) String() string { return string(c) }

// DisplayLabel returns the human-facing label used in agent prompts.
func (c Category) DisplayLabel() string {
	if label, ok := displayLabels[c]; ok {
		return label
	}
	return string(c)
}

// IsKnown reports whether c is one of the routable categories.
func (c Category) IsKnown() bool {
	switch c {
	case CategorySettlement, CategoryIncomeVerification, CategoryPurchaseAgreement:
		return true
	default:
		return false
	}
}

// ParseCategory matches free-form agent output against the known categories.
// It accepts slugs, display labels, and prose containing a label. Anything
// else coerces to unclassified; when several categories match, the
// lexicographically first slug wins so identical inputs reproduce.
func ParseCategory(raw string) Category {
	normalized := normalizeLabel(raw)
	if normalized == "" {
		return CategoryUnclassified
	}

	for _, category := range KnownCategories() {
		if normalized == normalizeLabel(string(category)) || normalized == normalizeLabel(category.DisplayLabel()) {
			return category
		}
	}

	for _, category := range KnownCategories() {
		if strings.Contains(normalized, normalizeLabel(category.DisplayLabel())) ||
			strings.Contains(normalized, normalizeLabel(string(category))) {
			return category
		}
	}

	// Singular forms the agent occasionally produces.
	aliases := []struct {
		needle   string
		category Category
	}{
		{"income verification", CategoryIncomeVerification},
		{"purchase agreement", CategoryPurchaseAgreement},
		{"settlement", CategorySettlement},
	}
	for _, alias := range aliases {
		if strings.Contains(normalized, alias.needle) {
			return alias.category
		}
	}

	return CategoryUnclassified
}

func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	return strings.Join(strings.Fields(s), " ")
}
