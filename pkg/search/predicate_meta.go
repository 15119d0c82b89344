package search

import (
	"regexp"

	"github.com/gqcore/gqcore/pkg/metadata"
	"github.com/gqcore/gqcore/pkg/similarity"
)

// KeywordsPredicate matches a file's persisted keyword list.
type KeywordsPredicate struct {
	Enabled  bool
	Keywords []string
	Op       Operator // OpAllOf, OpAnyOf, OpNoneOf

	folded []string
}

// Compile case-folds the predicate's keyword list once.
func (p *KeywordsPredicate) Compile() {
	p.folded = make([]string, len(p.Keywords))
	for i, k := range p.Keywords {
		p.folded[i] = fold(k)
	}
}

func (p *KeywordsPredicate) match(c *Candidate) bool {
	present := make(map[string]bool, len(c.Meta.Keywords))
	for _, k := range c.Meta.Keywords {
		present[fold(k)] = true
	}

	switch p.Op {
	case OpAllOf:
		for _, k := range p.folded {
			if !present[k] {
				return false
			}
		}
		return true
	case OpAnyOf:
		for _, k := range p.folded {
			if present[k] {
				return true
			}
		}
		return len(p.folded) == 0
	case OpNoneOf:
		for _, k := range p.folded {
			if present[k] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// CommentPredicate matches (or excludes) a PCRE-style pattern against a
// file's persisted comment.
type CommentPredicate struct {
	Enabled       bool
	Pattern       string
	CaseSensitive bool
	Op            Operator // OpContains, OpNoneOf (pattern absent)

	compiled *regexp.Regexp
}

// Compile prepares the predicate's pattern for matching.
func (p *CommentPredicate) Compile() error {
	pattern := p.Pattern
	if !p.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	p.compiled = re
	return nil
}

func (p *CommentPredicate) match(c *Candidate) bool {
	found := p.compiled.MatchString(c.Meta.Comment)
	if p.Op == OpNoneOf {
		return !found
	}
	return found
}

// ExifPredicate matches (or excludes) a PCRE-style pattern against the
// formatted value of a named EXIF tag. The tag name is always matched
// case-sensitively (EXIF field names are a fixed vocabulary); the value
// pattern's case sensitivity is independently configurable.
type ExifPredicate struct {
	Enabled       bool
	Tag           string
	Pattern       string
	CaseSensitive bool
	Op            Operator // OpContains, OpNoneOf

	compiled *regexp.Regexp
}

// Compile prepares the predicate's value pattern for matching.
func (p *ExifPredicate) Compile() error {
	pattern := p.Pattern
	if !p.CaseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return err
	}
	p.compiled = re
	return nil
}

func (p *ExifPredicate) match(c *Candidate) bool {
	value, ok := c.Exif.TagString(p.Tag)
	found := ok && p.compiled.MatchString(value)
	if p.Op == OpNoneOf {
		return !found
	}
	return found
}

// GPSPredicate matches a file's EXIF GPS coordinates against a radius
// around a center point, or matches files with no GPS data at all.
type GPSPredicate struct {
	Enabled     bool
	NotGeocoded bool
	CenterLat   float64
	CenterLon   float64
	RadiusValue float64
	Unit        metadata.DistanceUnit
}

func (p *GPSPredicate) match(c *Candidate) bool {
	if p.NotGeocoded {
		return !c.Exif.Geocoded
	}
	if !c.Exif.Geocoded {
		return false
	}
	return metadata.WithinRadius(c.Exif.Lat, c.Exif.Lon, p.CenterLat, p.CenterLon, p.RadiusValue, p.Unit)
}

// DimensionsPredicate matches a decoded image's width/height. Equality
// requires both dimensions to match exactly; a range matches each
// dimension independently against its own bounds.
type DimensionsPredicate struct {
	Enabled    bool
	Op         Operator // OpEqual, OpBetween
	Width      int
	Height     int
	MinW, MaxW int
	MinH, MaxH int
}

func (p *DimensionsPredicate) match(c *Candidate) bool {
	switch p.Op {
	case OpEqual:
		return c.Width == p.Width && c.Height == p.Height
	case OpBetween:
		return c.Width >= p.MinW && c.Width <= p.MaxW &&
			c.Height >= p.MinH && c.Height <= p.MaxH
	default:
		return false
	}
}

// SimilarityPredicate matches files whose fingerprint scores at or above
// Threshold (80..100, matching similarity.Rank's integer percentage)
// against Reference. RotationInvariant enables the 8-orientation
// comparison.
type SimilarityPredicate struct {
	Enabled           bool
	Reference         similarity.Fingerprint
	Threshold         int
	RotationInvariant bool
}

// rank returns the integer match rank (0..100) for c's fingerprint
// against the predicate's reference, for MatchResult.Rank.
func (p *SimilarityPredicate) rank(c *Candidate) int {
	score := p.score(c)
	return similarity.Rank(score)
}

func (p *SimilarityPredicate) score(c *Candidate) float64 {
	threshold := float64(p.Threshold) / 100.0
	if p.RotationInvariant {
		return similarity.CompareIgnoreRotation(p.Reference, c.Fingerprint, threshold)
	}
	return similarity.Compare(p.Reference, c.Fingerprint, threshold)
}

func (p *SimilarityPredicate) match(c *Candidate) bool {
	return p.rank(c) >= p.Threshold
}
