// Package suggest ranks payers and payees by how often they appear in
// historical transactions for a given category context.
package suggest

import (
	"fmt"

	"github.com/jgv115/moneymate-engine/internal/common"
)

// Kind selects the specificity of a suggestion request.
type Kind string

const (
	// KindGeneral ranks across all transactions for the role.
	KindGeneral Kind = "general"
	// KindCategory narrows to transactions in one category.
	KindCategory Kind = "category"
	// KindSubcategory narrows to transactions in one category and subcategory.
	KindSubcategory Kind = "subcategory"
)

// Context is a validated suggestion context. Exactly one variant is
// active; the ranker switches on Kind.
type Context struct {
	Kind        Kind
	Category    string
	Subcategory string
}

// NewContext validates the caller-supplied prompt into a Context.
// A general prompt must carry no values, a category prompt needs a
// category, and a subcategory prompt needs both names.
func NewContext(kind Kind, category, subcategory string) (Context, error) {
	switch kind {
	case KindGeneral, "":
		if category != "" || subcategory != "" {
			return Context{}, fmt.Errorf("%w: category or subcategory cannot be provided for a general prompt", common.ErrInvalidContext)
		}
		return Context{Kind: KindGeneral}, nil
	case KindCategory:
		if category == "" {
			return Context{}, fmt.Errorf("%w: category cannot be empty for a category prompt", common.ErrInvalidContext)
		}
		return Context{Kind: KindCategory, Category: category}, nil
	case KindSubcategory:
		if category == "" || subcategory == "" {
			return Context{}, fmt.Errorf("%w: category and subcategory must both be provided for a subcategory prompt", common.ErrInvalidContext)
		}
		return Context{Kind: KindSubcategory, Category: category, Subcategory: subcategory}, nil
	default:
		return Context{}, fmt.Errorf("%w: unknown prompt kind %q", common.ErrInvalidContext, kind)
	}
}

// InferContext derives a Context from optional category and subcategory
// strings: both empty is general, category alone narrows to the category,
// both narrow to the subcategory. A subcategory without a category is
// invalid.
func InferContext(category, subcategory string) (Context, error) {
	switch {
	case category == "" && subcategory == "":
		return NewContext(KindGeneral, "", "")
	case subcategory == "":
		return NewContext(KindCategory, category, "")
	case category == "":
		return Context{}, fmt.Errorf("%w: subcategory provided without a category", common.ErrInvalidContext)
	default:
		return NewContext(KindSubcategory, category, subcategory)
	}
}
