package feed

import "feedforge/internal/domain"

// MaxAdditionalImages caps the additional_image_link entries per item.
const MaxAdditionalImages = 10

// PrimaryImage picks the main image for an item: the per-item override
// (a variant image) wins, then the product's featured image, then the
// first gallery image. Returns "" when the product has no image at all.
func PrimaryImage(p *domain.Product, override string) string {
	if override != "" {
		return override
	}
	if p.FeaturedImage != "" {
		return p.FeaturedImage
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return ""
}

// AdditionalImages returns every gallery image whose URL differs from
// the primary, in original order, capped at MaxAdditionalImages. The
// primary is never repeated.
func AdditionalImages(p *domain.Product, primary string) []string {
	var urls []string
	for _, img := range p.Images {
		if len(urls) == MaxAdditionalImages {
			break
		}
		if img.URL == "" || img.URL == primary {
			continue
		}
		urls = append(urls, img.URL)
	}
	return urls
}
