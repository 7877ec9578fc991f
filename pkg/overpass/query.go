package overpass

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ghostbiz/internal/model"
)

// Request describes which tagged elements to fetch. Exactly one of BBox and
// AreaID selects the search region.
type Request struct {
	Tags        model.TagFilter
	BBox        *model.BBox
	AreaID      int64
	TimeoutSecs int
}

// BuildQuery renders r as Overpass QL. Every tag key becomes one nwr
// statement; keys are emitted in sorted order so queries are stable.
func BuildQuery(r Request) (string, error) {
	if len(r.Tags) == 0 {
		return "", eris.New("overpass: empty tag filter")
	}

	var region string
	switch {
	case r.BBox != nil && r.AreaID != 0:
		return "", eris.New("overpass: both bbox and area given")
	case r.BBox != nil:
		if err := r.BBox.Validate(); err != nil {
			return "", eris.Wrap(err, "overpass: bbox")
		}
		region = fmt.Sprintf("(%s,%s,%s,%s)",
			coord(r.BBox.South), coord(r.BBox.West), coord(r.BBox.North), coord(r.BBox.East))
	case r.AreaID != 0:
		region = "(area.searchArea)"
	default:
		return "", eris.New("overpass: no bbox or area")
	}

	timeout := r.TimeoutSecs
	if timeout <= 0 {
		timeout = 180
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n", timeout)
	if r.AreaID != 0 {
		fmt.Fprintf(&b, "area(%d)->.searchArea;\n", r.AreaID)
	}
	b.WriteString("(\n")
	n := 0
	for _, key := range r.Tags.Keys() {
		m := r.Tags[key]
		switch {
		case m.Any:
			fmt.Fprintf(&b, "  nwr[%s]%s;\n", quote(key), region)
			n++
		case len(m.Values) > 0:
			alts := make([]string, len(m.Values))
			for i, v := range m.Values {
				alts[i] = regexp.QuoteMeta(v)
			}
			fmt.Fprintf(&b, "  nwr[%s~%s]%s;\n", quote(key), quote("^("+strings.Join(alts, "|")+")$"), region)
			n++
		}
	}
	if n == 0 {
		return "", eris.New("overpass: tag filter selects nothing")
	}
	b.WriteString(");\nout geom;\n")
	return b.String(), nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// quote renders s as an Overpass QL string literal.
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}
