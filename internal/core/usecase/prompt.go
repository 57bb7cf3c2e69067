package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mkuznecov/realdoc-classifier/internal/core/domain"
)

// Prompt snippets stay under the agent's context window.
const (
	classifySnippetLimit = 3000
	extractSnippetLimit  = 4000
)

func buildClassificationPrompt(text string) string {
	var labels strings.Builder
	for i, category := range domain.KnownCategories() {
		fmt.Fprintf(&labels, "%d. %s\n", i+1, category.DisplayLabel())
	}

	return fmt.Sprintf(`You are a document classifier for real estate documents. Classify this document into one of these categories:

%s
Respond with strict JSON only: {"category": "<exact category name>", "confidence": <number from 0 to 1>}.
No markdown, no extra keys.

Document Content:
%s`, labels.String(), snippet(text, classifySnippetLimit))
}

func buildExtractionPrompt(category domain.Category, text string) string {
	var schema string
	switch category {
	case domain.CategoryIncomeVerification:
		schema = `{
    "employee_name": "Full name of employee",
    "employer_name": "Name of employer/company",
    "annual_income": 0,
    "monthly_income": 0,
    "employment_start_date": "Start date of employment",
    "employment_status": "Employment status (full-time, part-time, etc.)",
    "job_title": "Job title/position",
    "verification_date": "Date of verification"
}`
	case domain.CategorySettlement:
		schema = `{
    "buyer_name": "Name of buyer",
    "seller_name": "Name of seller",
    "property_address": "Full property address",
    "settlement_date": "Date of settlement/closing",
    "sale_price": 0,
    "loan_amount": 0,
    "cash_to_close": 0,
    "title_company": "Title company name",
    "lender_name": "Lender/bank name"
}`
	case domain.CategoryPurchaseAgreement:
		schema = `{
    "buyer_name": "Name of buyer",
    "seller_name": "Name of seller",
    "property_address": "Full property address",
    "purchase_price": 0,
    "earnest_money": 0,
    "closing_date": "Scheduled closing date",
    "contract_date": "Contract/agreement date",
    "financing_type": "Type of financing (conventional, FHA, cash, etc.)",
    "property_type": "Type of property (single family, condo, etc.)"
}`
	default:
		schema = `{
    "document_type": "Type of document",
    "parties_involved": "Names of parties involved",
    "property_address": "Property address if mentioned",
    "summary": "Brief summary of document content"
}`
	}

	return fmt.Sprintf(`Extract the following information from this %s document and return as valid JSON:

%s

Important: Return ONLY valid JSON. If any field is not found, use empty string for text fields or 0 for numeric fields.

Document Content:
%s`, strings.ToLower(category.DisplayLabel()), schema, snippet(text, extractSnippetLimit))
}

// snippet truncates text to at most limit bytes without splitting a
// multi-byte rune.
func snippet(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
