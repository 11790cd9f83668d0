package feed

import "encoding/xml"

// googleNamespace is the Merchant Center attribute namespace shared by
// the shopping-ad dialects this service emits.
const googleNamespace = "http://base.google.com/ns/1.0"

// document is the in-memory feed tree. It only exists for the duration
// of one run; callers persist its serialized byte form.
type document struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	Namespace string   `xml:"xmlns:g,attr"`
	Channel   channel  `xml:"channel"`
}

type channel struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Items       []item `xml:"item"`
}

// item carries the per-product (or per-variant) feed fields. Optional
// fields use omitempty so presence is decided in one place, identically
// for both explosion modes.
type item struct {
	Availability     string   `xml:"g:availability"`
	Condition        string   `xml:"g:condition"`
	ID               string   `xml:"g:id"`
	ItemGroupID      string   `xml:"g:item_group_id"`
	Title            string   `xml:"title"`
	Description      string   `xml:"description"`
	Price            string   `xml:"g:price"`
	SalePrice        string   `xml:"g:sale_price,omitempty"`
	Link             string   `xml:"link"`
	ImageLink        string   `xml:"g:image_link,omitempty"`
	AdditionalImages []string `xml:"g:additional_image_link,omitempty"`
	Brand            string   `xml:"g:brand,omitempty"`
	ProductType      string   `xml:"g:product_type,omitempty"`
	CustomLabel0     string   `xml:"g:custom_label_0,omitempty"`
	CustomLabel1     string   `xml:"g:custom_label_1,omitempty"`
	CustomLabel2     string   `xml:"g:custom_label_2,omitempty"`
	CustomLabel3     string   `xml:"g:custom_label_3,omitempty"`
	CustomLabel4     string   `xml:"g:custom_label_4,omitempty"`
	GoogleCategory   string   `xml:"g:google_product_category,omitempty"`
	Gender           string   `xml:"g:gender,omitempty"`
	AgeGroup         string   `xml:"g:age_group,omitempty"`
	VideoLink        string   `xml:"g:video_link,omitempty"`
}

func newDocument(title, link, description string) *document {
	return &document{
		Version:   "2.0",
		Namespace: googleNamespace,
		Channel: channel{
			Title:       title,
			Link:        link,
			Description: description,
		},
	}
}

// serialize renders the document with the XML declaration prepended.
func (d *document) serialize() ([]byte, error) {
	out, err := xml.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
