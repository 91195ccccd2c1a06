package dataprocessing

import (
	"strings"

	apperrors "kbpulse/internal/errors"
)

// SheetRule decides whether a sheet name satisfies one matching tier
type SheetRule struct {
	Name  string
	Match func(sheet, keyword, qualifier string) bool
}

// DefaultSheetRules tries the summary sheet of a category before any sheet
// that merely mentions the category. Matching is case-sensitive.
var DefaultSheetRules = []SheetRule{
	{
		Name: "keyword_and_qualifier",
		Match: func(sheet, keyword, qualifier string) bool {
			return qualifier != "" &&
				strings.Contains(sheet, keyword) &&
				strings.Contains(sheet, qualifier)
		},
	},
	{
		Name: "keyword",
		Match: func(sheet, keyword, _ string) bool {
			return strings.Contains(sheet, keyword)
		},
	},
}

// SheetResolver picks the sheet that holds a category
type SheetResolver struct {
	Qualifier string
	Rules     []SheetRule
}

// NewSheetResolver creates a resolver using the default rule table
func NewSheetResolver(qualifier string) *SheetResolver {
	return &SheetResolver{Qualifier: qualifier, Rules: DefaultSheetRules}
}

// Resolve returns the first sheet matched by the earliest rule. Rules are
// tried in order across all sheets, so a later rule never shadows an
// earlier one. No default sheet is guessed.
func (r *SheetResolver) Resolve(sheets []string, keyword string) (string, error) {
	if keyword == "" {
		return "", apperrors.NewInputError("resolve", "category keyword is empty")
	}
	for _, rule := range r.Rules {
		for _, sheet := range sheets {
			if rule.Match(sheet, keyword, r.Qualifier) {
				return sheet, nil
			}
		}
	}
	return "", apperrors.NewSheetNotFoundError(keyword, sheets)
}

// RuleFor reports which rule accepted sheet for keyword, or "" when none did
func (r *SheetResolver) RuleFor(sheet, keyword string) string {
	for _, rule := range r.Rules {
		if rule.Match(sheet, keyword, r.Qualifier) {
			return rule.Name
		}
	}
	return ""
}
