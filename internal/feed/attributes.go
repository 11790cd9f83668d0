package feed

import (
	"strings"

	"feedforge/internal/domain"
)

// Attributes are the optional per-product feed fields. An empty string
// marks an absent attribute; absent attributes are never emitted. They
// are derived once per product and reused across every item the product
// contributes.
type Attributes struct {
	GoogleCategory string
	Gender         string
	AgeGroup       string
	VideoLink      string
}

// MapAttributes derives the optional attributes from a product record.
func MapAttributes(p *domain.Product) Attributes {
	return Attributes{
		GoogleCategory: p.GoogleCategoryID,
		Gender:         p.Gender,
		AgeGroup:       p.AgeGroup,
		VideoLink:      strings.TrimSpace(p.VideoLinkURL),
	}
}
