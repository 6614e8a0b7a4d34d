package product

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryExtraVirgin Category = "extra-virgin"
	CategoryInfused     Category = "infused"
	CategoryOrganic     Category = "organic"
	CategoryGiftSets    Category = "gift-sets"
)

var Categories = []Category{CategoryExtraVirgin, CategoryInfused, CategoryOrganic, CategoryGiftSets}

func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	// NUMERIC in Postgres; decimal avoids float rounding on totals.
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image"`
	Category  Category        `json:"category"`
	Size      string          `json:"size"`
	InStock   bool            `json:"inStock"`
	Featured  bool            `json:"featured"`
	Rating    float64         `json:"rating"`
	Reviews   int             `json:"reviews"`
	CreatedAt time.Time       `json:"created_at,omitempty"`
	UpdatedAt time.Time       `json:"updated_at,omitempty"`
}

// Validate reports the first field that cannot be stored.
func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalid)
	case p.Price.IsNegative():
		return fmt.Errorf("%w: price must not be negative", ErrInvalid)
	case !p.Category.Valid():
		return fmt.Errorf("%w: unknown category %q", ErrInvalid, p.Category)
	case p.Rating < 0 || p.Rating > 5:
		return fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalid)
	case p.Reviews < 0:
		return fmt.Errorf("%w: reviews must not be negative", ErrInvalid)
	}
	return nil
}

// ListResponse represents a filtered product listing.
// swagger:model
type ListResponse struct {
	// search query applied
	Q string `json:"q,omitempty"`
	// category filter applied
	Category Category `json:"category,omitempty"`
	// sort applied
	Sort Sort `json:"sort"`
	// number of products in the catalog before filtering
	Total int       `json:"total"`
	Items []Product `json:"items"`
}
