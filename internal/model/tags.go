package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// TagMatch constrains one tag key: either any value, or one of Values.
type TagMatch struct {
	Any    bool
	Values []string
}

// UnmarshalYAML accepts either a boolean (true = any value) or a list of
// accepted values.
func (m *TagMatch) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := value.Decode(&b); err != nil {
			return eris.Wrapf(err, "tags: line %d: expected true or a list", value.Line)
		}
		if !b {
			return eris.Errorf("tags: line %d: false is not a valid tag constraint", value.Line)
		}
		*m = TagMatch{Any: true}
	case yaml.SequenceNode:
		var vals []string
		if err := value.Decode(&vals); err != nil {
			return eris.Wrapf(err, "tags: line %d", value.Line)
		}
		*m = TagMatch{Values: vals}
	default:
		return eris.Errorf("tags: line %d: expected true or a list", value.Line)
	}
	return nil
}

// TagFilter maps an OSM tag key to its constraint.
type TagFilter map[string]TagMatch

// Keys returns the filter's tag keys in sorted order.
func (f TagFilter) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseTagFilterYAML decodes a YAML document of tag constraints.
func ParseTagFilterYAML(data []byte) (TagFilter, error) {
	var f TagFilter
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "tags: parse yaml")
	}
	if len(f) == 0 {
		return nil, eris.New("tags: filter is empty")
	}
	return f, nil
}

// ParseTagFilter converts a loosely typed map (as produced by viper) into a
// TagFilter. Values must be true or a list of strings.
func ParseTagFilter(raw map[string]any) (TagFilter, error) {
	if len(raw) == 0 {
		return nil, eris.New("tags: filter is empty")
	}
	f := make(TagFilter, len(raw))
	for key, v := range raw {
		switch t := v.(type) {
		case bool:
			if !t {
				return nil, eris.Errorf("tags: %s: false is not a valid tag constraint", key)
			}
			f[key] = TagMatch{Any: true}
		case string:
			b, err := strconv.ParseBool(t)
			if err != nil || !b {
				return nil, eris.Errorf("tags: %s: expected true or a list, got %q", key, t)
			}
			f[key] = TagMatch{Any: true}
		case []string:
			f[key] = TagMatch{Values: t}
		case []any:
			vals := make([]string, 0, len(t))
			for _, item := range t {
				vals = append(vals, fmt.Sprint(item))
			}
			f[key] = TagMatch{Values: vals}
		default:
			return nil, eris.Errorf("tags: %s: unsupported constraint type %T", key, v)
		}
	}
	return f, nil
}

// BBox is a geographic bounding box in WGS84 degrees.
type BBox struct {
	North float64 `yaml:"north" mapstructure:"north"`
	South float64 `yaml:"south" mapstructure:"south"`
	East  float64 `yaml:"east" mapstructure:"east"`
	West  float64 `yaml:"west" mapstructure:"west"`
}

// Validate checks the box is well-formed.
func (b BBox) Validate() error {
	if b.North < -90 || b.North > 90 || b.South < -90 || b.South > 90 {
		return eris.Errorf("bbox: latitude out of range (north=%v south=%v)", b.North, b.South)
	}
	if b.East < -180 || b.East > 180 || b.West < -180 || b.West > 180 {
		return eris.Errorf("bbox: longitude out of range (east=%v west=%v)", b.East, b.West)
	}
	if b.South >= b.North {
		return eris.Errorf("bbox: south %v must be below north %v", b.South, b.North)
	}
	if b.West >= b.East {
		return eris.Errorf("bbox: west %v must be below east %v", b.West, b.East)
	}
	return nil
}

// ParseBBox parses "north,south,east,west".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, eris.Errorf("bbox: expected north,south,east,west, got %q", s)
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, eris.Wrapf(err, "bbox: parse %q", p)
		}
		vals[i] = v
	}
	b := BBox{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}
	if err := b.Validate(); err != nil {
		return BBox{}, err
	}
	return b, nil
}
