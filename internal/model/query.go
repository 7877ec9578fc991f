package model

// Query selects the features to fetch: either a free-text place name or an
// explicit bounding box, narrowed by a tag filter.
type Query struct {
	Place string
	BBox  *BBox
	Tags  TagFilter
}
