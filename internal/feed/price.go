package feed

import "fmt"

const (
	// DefaultCurrency is applied when the caller leaves the currency
	// code unset.
	DefaultCurrency = "BRL"
	// DefaultDomain is the placeholder used when no primary domain was
	// configured for the business.
	DefaultDomain = "defaultdomain.com"
)

// PriceTag is the resolved pricing of one feed item. SalePrice is empty
// unless the item is on sale.
type PriceTag struct {
	Price     string
	SalePrice string
}

// ResolvePrice decides regular versus sale pricing for a sellable unit.
// A sale is recognized iff compareAt is present and strictly greater
// than the current price; the compare-at value is then advertised as the
// regular price and the current price as the sale price.
func ResolvePrice(current float64, compareAt *float64, currency string) PriceTag {
	if currency == "" {
		currency = DefaultCurrency
	}
	if compareAt != nil && *compareAt > current {
		return PriceTag{
			Price:     FormatMoney(*compareAt, currency),
			SalePrice: FormatMoney(current, currency),
		}
	}
	return PriceTag{Price: FormatMoney(current, currency)}
}

// FormatMoney renders a monetary value with exactly two decimal places
// followed by the currency code, e.g. "19.90 BRL".
func FormatMoney(v float64, currency string) string {
	return fmt.Sprintf("%.2f %s", v, currency)
}
