// Package normalize converts raw OSM-tagged features into canonical business
// records. Every multi-source field resolves through an explicit, ordered
// fallback list; the first present tag wins.
package normalize

import (
	"strings"
	"unicode/utf8"

	"github.com/twpayne/go-geom"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/ghostbiz/internal/model"
)

// Category maps a classification tag to its display label.
type Category struct {
	Tag   string
	Label string
}

// Categories is the classification priority order. Order is significant:
// the first present tag determines business_type.
var Categories = []Category{
	{Tag: "shop", Label: "Shop"},
	{Tag: "amenity", Label: "Service"},
	{Tag: "tourism", Label: "Tourism"},
	{Tag: "office", Label: "Office"},
	{Tag: "craft", Label: "Craft"},
	{Tag: "leisure", Label: "Recreation"},
}

// AddressComponents are joined in this fixed order, regardless of which are present.
var AddressComponents = []string{
	"addr:housenumber",
	"addr:housename",
	"addr:street",
	"addr:place",
	"addr:postcode",
	"addr:city",
	"addr:suburb",
	"addr:district",
	"addr:state",
	"addr:country",
}

// AddressFallbacks are consulted only when no AddressComponents are present.
var AddressFallbacks = []string{"addr:full", "address"}

// Per-field fallback lists.
var (
	IDFields           = []string{"osmid", "id"}
	PhoneFields        = []string{"phone", "contact:phone", "telephone"}
	EmailFields        = []string{"email", "contact:email"}
	WebsiteFields      = []string{"website", "url", "contact:website"}
	OpeningHoursFields = []string{"opening_hours"}
	BrandFields        = []string{"brand"}
	CuisineFields      = []string{"cuisine"}
	WheelchairFields   = []string{"wheelchair"}
	WifiFields         = []string{"internet_access", "wifi"}
	ElementTypeFields  = []string{"element_type", "element"}
)

// PaymentTags are the boolean payment tags, in label output order.
var PaymentTags = []string{
	"payment:cash",
	"payment:cards",
	"payment:credit_cards",
	"payment:debit_cards",
	"payment:contactless",
}

// OSM geometry kinds.
const (
	OSMTypeNode     = "node"
	OSMTypeWay      = "way"
	OSMTypeRelation = "relation"
	OSMTypeUnknown  = "unknown"
)

// Normalize converts one feature into a BusinessRecord. Lat and Lon are left
// zero; centroids need collection context and are filled by the builder.
func Normalize(f model.RawFeature) model.BusinessRecord {
	businessType, primaryTag := Classify(f)

	rec := model.BusinessRecord{
		ID:           featureID(f),
		Name:         f.Name(),
		BusinessType: businessType,
		PrimaryTag:   primaryTag,
		Address:      Address(f),
		Phone:        FirstPresent(f, PhoneFields),
		Email:        FirstPresent(f, EmailFields),
		Website:      FirstPresent(f, WebsiteFields),
		OpeningHours: FirstPresent(f, OpeningHoursFields),
		Brand:        FirstPresent(f, BrandFields),
		Cuisine:      FirstPresent(f, CuisineFields),
		Wheelchair:   YesNo(FirstPresent(f, WheelchairFields)),
		Wifi:         YesNo(FirstPresent(f, WifiFields)),
		PaymentCards: Payments(f),
		ElementType:  elementType(f),
		OSMType:      GeometryType(f.Geometry),
	}
	return rec
}

// FirstPresent returns the value of the first field in fields that is present
// on f, or nil.
func FirstPresent(f model.RawFeature, fields []string) *string {
	for _, field := range fields {
		if v, ok := f.Tag(field); ok {
			return &v
		}
	}
	return nil
}

// Classify returns the business type ("<Category>: <Specific>") and the tag
// that produced it.
func Classify(f model.RawFeature) (businessType, primaryTag string) {
	for _, c := range Categories {
		v, ok := f.Tag(c.Tag)
		if !ok {
			continue
		}
		return c.Label + ": " + titleCase(strings.ReplaceAll(v, "_", " ")), c.Tag
	}
	return model.UnknownBusinessType, model.UnknownPrimaryTag
}

// Address joins every present structured component with ", ". When none is
// present it falls back to the first full-address tag.
func Address(f model.RawFeature) *string {
	var parts []string
	for _, field := range AddressComponents {
		if v, ok := f.Tag(field); ok {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		joined := strings.Join(parts, ", ")
		return &joined
	}
	return FirstPresent(f, AddressFallbacks)
}

// Payments lists the accepted payment methods, e.g. "Cash, Credit Cards".
func Payments(f model.RawFeature) *string {
	var methods []string
	for _, field := range PaymentTags {
		if v, ok := f.Tag(field); ok && strings.EqualFold(v, "yes") {
			methods = append(methods, paymentLabel(field))
		}
	}
	if len(methods) == 0 {
		return nil
	}
	joined := strings.Join(methods, ", ")
	return &joined
}

// YesNo maps boolean-like values to "Yes"/"No". Anything else is nil.
func YesNo(v *string) *string {
	if v == nil {
		return nil
	}
	switch strings.ToLower(strings.TrimSpace(*v)) {
	case "yes", "true", "1":
		return model.Str("Yes")
	case "no", "false", "0":
		return model.Str("No")
	default:
		return nil
	}
}

// GeometryType maps a geometry to the OSM element kind it came from.
func GeometryType(g geom.T) string {
	switch g.(type) {
	case *geom.Point:
		return OSMTypeNode
	case *geom.LineString, *geom.Polygon:
		return OSMTypeWay
	case *geom.MultiPolygon, *geom.MultiLineString:
		return OSMTypeRelation
	default:
		return OSMTypeUnknown
	}
}

func featureID(f model.RawFeature) *string {
	if id := strings.TrimSpace(f.ID); id != "" {
		return &id
	}
	return FirstPresent(f, IDFields)
}

func elementType(f model.RawFeature) *string {
	if et := strings.TrimSpace(f.ElementType); et != "" {
		return &et
	}
	return FirstPresent(f, ElementTypeFields)
}

func paymentLabel(tag string) string {
	return titleCase(strings.ReplaceAll(strings.TrimPrefix(tag, "payment:"), "_", " "))
}

// titleCase capitalizes the first letter of every word and lowercases the
// rest. An apostrophe starts a new word, so "o'neill" becomes "O'Neill".
func titleCase(s string) string {
	c := cases.Title(language.Und)
	var b strings.Builder
	start := 0
	for i, r := range s {
		if r == '\'' || r == '’' {
			b.WriteString(c.String(s[start:i]))
			b.WriteRune(r)
			start = i + utf8.RuneLen(r)
		}
	}
	b.WriteString(c.String(s[start:]))
	return b.String()
}
