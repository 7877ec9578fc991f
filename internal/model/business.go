package model

// BusinessRecord is the canonical, normalized business entity derived from
// one RawFeature. Optional fields are nil when no source tag was present.
type BusinessRecord struct {
	ID           *string `json:"id"`
	Name         string  `json:"name"`
	BusinessType string  `json:"business_type"`
	PrimaryTag   string  `json:"primary_tag"`
	Address      *string `json:"address"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	Website      *string `json:"website"`
	OpeningHours *string `json:"opening_hours"`
	Brand        *string `json:"brand"`
	Cuisine      *string `json:"cuisine"`
	Wheelchair   *string `json:"wheelchair"`
	Wifi         *string `json:"wifi"`
	PaymentCards *string `json:"payment_cards"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	ElementType  *string `json:"element_type"`
	OSMType      string  `json:"osm_type"`
}

// Classification fallbacks used when no category tag matches.
const (
	UnknownBusinessType = "Unknown"
	UnknownPrimaryTag   = "unknown"
)

// HasWebsite reports whether the record already carries a usable website.
func (r BusinessRecord) HasWebsite() bool {
	return r.Website != nil && *r.Website != ""
}

// Str returns a pointer to s.
func Str(s string) *string {
	return &s
}

// Deref returns the value behind p, or "" when p is nil.
func Deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
