package domain

import "testing"

func TestParseCategoryExactLabels(t *testing.T) {
	cases := map[string]Category{
		"Settlement Documents":  CategorySettlement,
		"Income Verifications":  CategoryIncomeVerification,
		"Purchase Agreements":   CategoryPurchaseAgreement,
		"settlement":            CategorySettlement,
		"income-verification":   CategoryIncomeVerification,
		"purchase_agreement":    CategoryPurchaseAgreement,
		"  Settlement Documents\n": CategorySettlement,
	}
	for input, want := range cases {
		if got := ParseCategory(input); got != want {
			t.Errorf("ParseCategory(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestParseCategoryProse(t *testing.T) {
	got := ParseCategory("The document is best described as a Purchase Agreement.")
	if got != CategoryPurchaseAgreement {
		t.Fatalf("ParseCategory() = %q, want %q", got, CategoryPurchaseAgreement)
	}
}

func TestParseCategoryUnknownCoercesToUnclassified(t *testing.T) {
	for _, input := range []string{"", "Tax Return", "I am not sure", "lease"} {
		if got := ParseCategory(input); got != CategoryUnclassified {
			t.Errorf("ParseCategory(%q) = %q, want unclassified", input, got)
		}
	}
}

func TestParseCategoryMultipleMatchesIsLexicographic(t *testing.T) {
	// Both labels present: the lexicographically first slug must win so
	// identical inputs reproduce the same route.
	got := ParseCategory("Could be Settlement Documents or Income Verifications")
	if got != CategoryIncomeVerification {
		t.Fatalf("ParseCategory() = %q, want %q", got, CategoryIncomeVerification)
	}
}

func TestContentIDIsDeterministic(t *testing.T) {
	raw := []byte("same bytes, same identity")
	if ContentID(raw) != ContentID(raw) {
		t.Fatal("ContentID not deterministic for identical content")
	}
	if ContentID(raw) == ContentID([]byte("different")) {
		t.Fatal("ContentID collision for different content")
	}
	if len(ContentID(raw)) != 64 {
		t.Fatalf("unexpected id length %d", len(ContentID(raw)))
	}
}
