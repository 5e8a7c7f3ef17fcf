package ingest

import (
	"fmt"
	"regexp"

	"github.com/ledahosn/holding-graz-statistik/internal/config"
	"github.com/ledahosn/holding-graz-statistik/internal/hafas"
)

// lineTokenRe extracts the identifier token from a line name, e.g.
// "Tram 4" -> "4", "Bus 34E" -> "34E", "Regional 501" -> "501".
var lineTokenRe = regexp.MustCompile(`\d+[A-Z]?`)

// Classifier decides whether a line and a location belong to the monitored
// network. Both predicates are pure and fail closed on missing data, since
// they gate persistence as well as frontier growth.
type Classifier struct {
	products map[string]*regexp.Regexp
	box      config.BoundingBox
}

func NewClassifier(region config.Region) (*Classifier, error) {
	products := make(map[string]*regexp.Regexp, len(region.Products))
	for _, p := range region.Products {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("product %s: invalid pattern %q: %w", p.Product, p.Pattern, err)
		}
		products[p.Product] = re
	}
	return &Classifier{products: products, box: region.BoundingBox}, nil
}

// IsMonitoredLine reports whether the line's product is accepted and its
// identifier token matches the shape configured for that product.
func (c *Classifier) IsMonitoredLine(line *hafas.Line) bool {
	if line == nil || line.Name == "" || line.Product == "" {
		return false
	}
	re, ok := c.products[line.Product]
	if !ok {
		return false
	}
	token := LineNumber(line.Name)
	if token == "" {
		return false
	}
	return re.MatchString(token)
}

// IsInsideRegion is a closed bounding-box containment test; points exactly on
// an edge are inside.
func (c *Classifier) IsInsideRegion(loc *hafas.Location) bool {
	if loc == nil || loc.Latitude == nil || loc.Longitude == nil {
		return false
	}
	return *loc.Latitude <= c.box.North &&
		*loc.Latitude >= c.box.South &&
		*loc.Longitude <= c.box.East &&
		*loc.Longitude >= c.box.West
}

// LineNumber derives the display number of a line from its name.
func LineNumber(name string) string {
	return lineTokenRe.FindString(name)
}
