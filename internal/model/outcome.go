package model

// Status tokens written by the verification orchestrator. A FOUND outcome
// carries the verification source's own operating-status token instead.
const (
	StatusHasOSMWebsite = "HAS_OSM_WEBSITE"
	StatusNotFound      = "NOT_FOUND"
	StatusAPIError      = "API_ERROR"
)

// OutcomeColumns is the persisted checkpoint column order.
var OutcomeColumns = []string{"osm_name", "lat", "lon", "google_name", "website", "status", "not_found"}

// VerificationOutcome records the result of checking one BusinessRecord
// against the verification source. Outcomes are append-only.
type VerificationOutcome struct {
	OSMName      string  `json:"osm_name"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	ExternalName *string `json:"google_name"`
	Website      *string `json:"website"`
	Status       string  `json:"status"`
	NotFound     bool    `json:"not_found"`
}
