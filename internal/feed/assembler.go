package feed

import (
	"errors"
	"fmt"
	"strings"

	"feedforge/internal/domain"
)

var (
	// ErrUnsupportedPlatform is returned when no assembler is registered
	// for the requested platform.
	ErrUnsupportedPlatform = errors.New("unsupported platform")
)

// maxCustomLabels bounds how many leading tags become custom labels.
const maxCustomLabels = 5

// Options are the per-run generation settings.
type Options struct {
	PrimaryDomain string
	CurrencyCode  string
	Mode          domain.ExplosionMode
}

// Result holds the serialized document and the run counters. A product
// counts toward ProductCount iff it contributed at least one item;
// VariantCount is only accumulated in variant mode.
type Result struct {
	ProductCount int
	VariantCount int
	ItemCount    int
	SkippedCount int
	Data         []byte
}

// Assembler builds a platform dialect's feed document from a catalog
// snapshot. Implementations are stateless and safe for reuse.
type Assembler interface {
	Platform() domain.Platform
	Assemble(products []*domain.Product, opts Options) (*Result, error)
}

// Registry holds the known assemblers keyed by platform. Adding a
// platform means registering one more Assembler; dispatch and lifecycle
// code stay untouched.
type Registry struct {
	assemblers map[domain.Platform]Assembler
}

// NewRegistry builds a registry from the given assemblers.
func NewRegistry(assemblers ...Assembler) *Registry {
	r := &Registry{assemblers: make(map[domain.Platform]Assembler, len(assemblers))}
	for _, a := range assemblers {
		r.assemblers[a.Platform()] = a
	}
	return r
}

// DefaultRegistry returns a registry with every built-in platform.
func DefaultRegistry() *Registry {
	return NewRegistry(NewFacebookAssembler(), NewPinterestAssembler())
}

// For looks up the assembler for a platform.
func (r *Registry) For(p domain.Platform) (Assembler, error) {
	a, ok := r.assemblers[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p)
	}
	return a, nil
}

// Supports reports whether a platform has a registered assembler.
func (r *Registry) Supports(p domain.Platform) bool {
	_, ok := r.assemblers[p]
	return ok
}

// merchantAssembler emits the Merchant Center dialect shared by the
// supported platforms; they differ only in channel metadata.
type merchantAssembler struct {
	platform    domain.Platform
	channelDesc string
}

// NewFacebookAssembler returns the Facebook Catalog assembler.
func NewFacebookAssembler() Assembler {
	return &merchantAssembler{
		platform:    domain.PlatformFacebook,
		channelDesc: "Product feed for Facebook Catalog",
	}
}

// NewPinterestAssembler returns the Pinterest Catalog assembler.
func NewPinterestAssembler() Assembler {
	return &merchantAssembler{
		platform:    domain.PlatformPinterest,
		channelDesc: "Product feed for Pinterest Catalog",
	}
}

func (a *merchantAssembler) Platform() domain.Platform {
	return a.platform
}

// Assemble runs a single sequential pass over the catalog snapshot.
// Products are visited in storage order and every transformation is a
// pure function of the current product and variant, so output order is
// deterministic across re-runs of an unchanged catalog.
func (a *merchantAssembler) Assemble(products []*domain.Product, opts Options) (*Result, error) {
	primaryDomain := opts.PrimaryDomain
	if primaryDomain == "" {
		primaryDomain = DefaultDomain
	}
	currency := opts.CurrencyCode
	if currency == "" {
		currency = DefaultCurrency
	}
	mode := opts.Mode
	if mode == "" {
		mode = domain.ModeGroup
	}

	doc := newDocument("Product Feed", "https://"+primaryDomain, a.channelDesc)
	res := &Result{}

	for _, p := range products {
		if p.Status != domain.ProductStatusActive {
			continue
		}

		attrs := MapAttributes(p)

		if mode == domain.ModeVariant && len(p.Variants) > 0 {
			hasEligible := false
			for i := range p.Variants {
				v := &p.Variants[i]
				if !v.Eligible() {
					res.SkippedCount++
					continue
				}
				hasEligible = true
				doc.Channel.Items = append(doc.Channel.Items, buildItem(p, v, attrs, primaryDomain, currency, true))
				res.ItemCount++
				res.VariantCount++
			}
			if hasEligible {
				res.ProductCount++
			}
			continue
		}

		rep := p.FirstVariant()
		if rep == nil || !rep.Eligible() {
			res.SkippedCount++
			continue
		}
		res.ProductCount++
		doc.Channel.Items = append(doc.Channel.Items, buildItem(p, rep, attrs, primaryDomain, currency, false))
		res.ItemCount++
	}

	data, err := doc.serialize()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s feed: %w", a.platform, err)
	}
	res.Data = data
	return res, nil
}

// buildItem populates one item node. The field set is identical in
// both explosion modes; only the item identity, link and image override
// differ.
func buildItem(p *domain.Product, v *domain.Variant, attrs Attributes, primaryDomain, currency string, variantMode bool) item {
	itemID := p.ID
	imageOverride := ""
	link := fmt.Sprintf("https://%s/products/%s", primaryDomain, p.Handle)
	if variantMode {
		itemID = v.ID
		imageOverride = v.ImageURL
		link += "?variant=" + v.ID
	}

	var price float64
	if v.Price != nil {
		price = *v.Price
	}
	tag := ResolvePrice(price, v.CompareAtPrice, currency)

	primary := PrimaryImage(p, imageOverride)

	brand := p.Brand
	if brand == "" {
		brand = p.Vendor
	}

	it := item{
		Availability:     "in stock",
		Condition:        "new",
		ID:               itemID,
		ItemGroupID:      p.ID,
		Title:            TitleCase(Sanitize(p.Title)),
		Description:      Sanitize(p.Description),
		Price:            tag.Price,
		SalePrice:        tag.SalePrice,
		Link:             link,
		ImageLink:        primary,
		AdditionalImages: AdditionalImages(p, primary),
		Brand:            brand,
		ProductType:      p.ProductType,
		GoogleCategory:   attrs.GoogleCategory,
		Gender:           attrs.Gender,
		AgeGroup:         attrs.AgeGroup,
		VideoLink:        attrs.VideoLink,
	}

	labels := customLabels(p.Tags)
	it.CustomLabel0 = labels[0]
	it.CustomLabel1 = labels[1]
	it.CustomLabel2 = labels[2]
	it.CustomLabel3 = labels[3]
	it.CustomLabel4 = labels[4]

	return it
}

// customLabels maps the first five tags to label slots keyed by their
// original position; blank tags leave their slot empty.
func customLabels(tags []string) [maxCustomLabels]string {
	var labels [maxCustomLabels]string
	for i, tag := range tags {
		if i >= maxCustomLabels {
			break
		}
		labels[i] = strings.TrimSpace(tag)
	}
	return labels
}
