package domain

import "time"

// ProductStatus is the catalog lifecycle state of a product. Only active
// products are eligible for feed inclusion.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusArchived ProductStatus = "archived"
	ProductStatusDraft    ProductStatus = "draft"
)

// Product is a catalog record as synced from the merchant's store. The
// feed engine reads products but never mutates them.
type Product struct {
	ID                 string        `json:"product_id" db:"id"`
	BusinessID         string        `json:"business_id" db:"business_id"`
	Title              string        `json:"title" db:"title"`
	Description        string        `json:"description" db:"description"`
	ProductType        string        `json:"product_type" db:"product_type"`
	Vendor             string        `json:"vendor" db:"vendor"`
	Brand              string        `json:"brand" db:"brand"`
	Handle             string        `json:"handle" db:"handle"`
	Status             ProductStatus `json:"status" db:"status"`
	Tags               []string      `json:"tags" db:"tags"`
	FeaturedImage      string        `json:"featured_image" db:"featured_image"`
	Images             []Image       `json:"images"`
	Variants           []Variant     `json:"variants"`
	Gender             string        `json:"gender" db:"gender"`
	AgeGroup           string        `json:"age_group" db:"age_group"`
	VideoLinkURL       string        `json:"video_link_url" db:"video_link_url"`
	GoogleCategoryID   string        `json:"google_category_id" db:"google_category_id"`
	GoogleCategoryName string        `json:"google_category_name" db:"google_category_name"`
	CreatedAt          time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" db:"updated_at"`
}

// Image is a product gallery entry, ordered by position.
type Image struct {
	URL      string `json:"url" db:"url"`
	Position int    `json:"position" db:"position"`
}

// Variant is a sellable unit of a product.
type Variant struct {
	ID             string   `json:"variant_id" db:"id"`
	Title          string   `json:"title" db:"title"`
	Price          *float64 `json:"price" db:"price"`
	CompareAtPrice *float64 `json:"compare_at_price" db:"compare_at_price"`
	ImageURL       string   `json:"image_url" db:"image_url"`
	Position       int      `json:"position" db:"position"`
}

// Eligible reports whether the variant can appear in a feed: its price
// must be present and strictly greater than zero.
func (v *Variant) Eligible() bool {
	return v.Price != nil && *v.Price > 0
}

// FirstVariant returns the product's representative variant for group
// mode, or nil when the product has no variants.
func (p *Product) FirstVariant() *Variant {
	if len(p.Variants) == 0 {
		return nil
	}
	return &p.Variants[0]
}
