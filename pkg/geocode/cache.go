package geocode

import (
	"strings"
	"sync"
)

// placeCache memoizes resolved places by normalized query text.
type placeCache struct {
	mu     sync.Mutex
	places map[string]*Place
}

func newPlaceCache() *placeCache {
	return &placeCache{places: make(map[string]*Place)}
}

func cacheKey(place string) string {
	return strings.ToLower(strings.Join(strings.Fields(place), " "))
}

func (c *placeCache) get(place string) (*Place, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.places[cacheKey(place)]
	return p, ok
}

func (c *placeCache) put(place string, p *Place) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.places[cacheKey(place)] = p
}
