package geocode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ghostbiz/internal/model"
	"github.com/sells-group/ghostbiz/internal/resilience"
)

// searchHit is one element of the Nominatim jsonv2 search response.
type searchHit struct {
	PlaceID     int64    `json:"place_id"`
	OSMType     string   `json:"osm_type"`
	OSMID       int64    `json:"osm_id"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	DisplayName string   `json:"display_name"`
	BoundingBox []string `json:"boundingbox"` // south, north, west, east
}

func (n *nominatim) search(ctx context.Context, place string) (*Place, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: rate limit")
	}

	params := url.Values{
		"q":      {place},
		"format": {"jsonv2"},
		"limit":  {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(n.baseURL, "/")+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := resilience.CheckResponse("nominatim", resp); err != nil {
		return nil, eris.Wrap(err, "geocode: search")
	}

	var hits []searchHit
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return nil, eris.Wrap(err, "geocode: parse response")
	}
	if len(hits) == 0 {
		return nil, eris.Wrapf(ErrNoMatch, "geocode: %q", place)
	}
	return hits[0].toPlace()
}

func (h searchHit) toPlace() (*Place, error) {
	p := &Place{
		DisplayName: h.DisplayName,
		OSMType:     h.OSMType,
		OSMID:       h.OSMID,
	}
	var err error
	if p.Lat, err = strconv.ParseFloat(h.Lat, 64); err != nil {
		return nil, eris.Wrapf(err, "geocode: lat %q", h.Lat)
	}
	if p.Lon, err = strconv.ParseFloat(h.Lon, 64); err != nil {
		return nil, eris.Wrapf(err, "geocode: lon %q", h.Lon)
	}
	if len(h.BoundingBox) != 4 {
		return nil, eris.Errorf("geocode: bounding box has %d values", len(h.BoundingBox))
	}
	var v [4]float64
	for i, s := range h.BoundingBox {
		if v[i], err = strconv.ParseFloat(s, 64); err != nil {
			return nil, eris.Wrapf(err, "geocode: bounding box value %q", s)
		}
	}
	p.BBox = model.BBox{South: v[0], North: v[1], West: v[2], East: v[3]}
	return p, nil
}
