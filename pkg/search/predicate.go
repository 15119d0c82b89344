// Package search implements the predicate set and the cooperative
// evaluation engine that matches a Query against a lazily-traversed
// stream of files, emitting results incrementally.
package search

import (
	"os"
	"regexp"
	"time"

	"golang.org/x/text/cases"

	"github.com/gqcore/gqcore/pkg/filedata"
)

// Operator names the comparison an enabled predicate applies. Which
// subset is meaningful is predicate-specific; see each predicate type.
type Operator int

const (
	OpEqual Operator = iota
	OpContains
	OpNameContains
	OpPathContains
	OpNameEqual
	OpUnder
	OpOver
	OpBetween
	OpAllOf
	OpAnyOf
	OpNoneOf
	OpNotEqual
)

var foldCaser = cases.Fold()

// fold case-folds s once. KeywordsPredicate folds both its own keywords
// and the candidate's keywords with it up front rather than comparing
// with repeated per-character folding; the pattern predicates (Name,
// Comment, EXIF) use the regexp (?i) flag instead.
func fold(s string) string {
	return foldCaser.String(s)
}

// NamePredicate matches a file's basename or full path against a
// Perl-compatible pattern. Go's regexp package (RE2 syntax) stands in for
// PCRE; differences only matter for backreferences and lookaround, which
// this predicate's typical patterns (extension/keyword matching) don't
// use.
type NamePredicate struct {
	Enabled       bool
	Pattern       string
	MatchFullPath bool // false: basename only
	CaseSensitive bool
	SymlinksOnly  bool

	compiled *regexp.Regexp
}

// Compile prepares the predicate's pattern for matching. Must be called
// before match; done once per query rather than per candidate.
func (p *NamePredicate) Compile() error {
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

func (p *NamePredicate) match(c *Candidate) bool {
	fd := c.FD
	if p.SymlinksOnly {
		info, err := os.Lstat(fd.Path)
		if err != nil || info.Mode()&os.ModeSymlink == 0 {
			return false
		}
	}
	subject := fd.Name
	if p.MatchFullPath {
		subject = fd.Path
	}
	return p.compiled.MatchString(subject)
}

// SizePredicate matches a file's byte size.
type SizePredicate struct {
	Enabled bool
	Op      Operator // OpEqual, OpUnder, OpOver, OpBetween
	Value   int64
	Upper   int64 // used when Op == OpBetween
}

func (p *SizePredicate) match(c *Candidate) bool {
	fd := c.FD
	switch p.Op {
	case OpEqual:
		return fd.Size == p.Value
	case OpUnder:
		return fd.Size < p.Value
	case OpOver:
		return fd.Size > p.Value
	case OpBetween:
		return fd.Size >= p.Value && fd.Size <= p.Upper
	default:
		return false
	}
}

// DateField selects which timestamp a DatePredicate compares.
type DateField int

const (
	DateMtime DateField = iota
	DateCtime
	DateExifOriginal
	DateExifDigitized
)

// DatePredicate matches one of a file's timestamps. Equality means "same
// calendar day in local time"; range comparisons are inclusive, with the
// upper bound expanded to the end of that calendar day.
type DatePredicate struct {
	Enabled bool
	Field   DateField
	Op      Operator // OpEqual, OpUnder, OpOver, OpBetween
	Value   time.Time
	Upper   time.Time
}

func sameLocalDay(a, b time.Time) bool {
	a, b = a.Local(), b.Local()
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

func endOfDay(t time.Time) time.Time {
	t = t.Local()
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

// fieldValue resolves the timestamp a DatePredicate needs, reporting
// whether it is present (EXIF fields are lazily filled and may be
// absent).
func (p *DatePredicate) fieldValue(fd *filedata.FileData) (time.Time, bool) {
	switch p.Field {
	case DateMtime:
		return fd.Mtime, true
	case DateCtime:
		return fd.Ctime, true
	case DateExifOriginal:
		if fd.ExifOriginal != nil {
			return *fd.ExifOriginal, true
		}
		return time.Time{}, false
	case DateExifDigitized:
		if fd.ExifDigitized != nil {
			return *fd.ExifDigitized, true
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func (p *DatePredicate) match(c *Candidate) bool {
	value, ok := p.fieldValue(c.FD)
	if !ok {
		return false
	}
	switch p.Op {
	case OpEqual:
		return sameLocalDay(value, p.Value)
	case OpUnder:
		return value.Before(p.Value)
	case OpOver:
		return value.After(p.Value)
	case OpBetween:
		return !value.Before(p.Value) && !value.After(endOfDay(p.Upper))
	default:
		return false
	}
}

// RatingPredicate matches a file's rating, -1..5 (unrated is -1; -2 is
// the internal "never assigned" sentinel and never matches unless the
// predicate's range deliberately includes it).
type RatingPredicate struct {
	Enabled bool
	Op      Operator
	Value   int
	Upper   int
}

func (p *RatingPredicate) match(c *Candidate) bool {
	fd := c.FD
	switch p.Op {
	case OpEqual:
		return fd.Rating == p.Value
	case OpUnder:
		return fd.Rating < p.Value
	case OpOver:
		return fd.Rating > p.Value
	case OpBetween:
		return fd.Rating >= p.Value && fd.Rating <= p.Upper
	default:
		return false
	}
}

// ClassPredicate matches a file's format class, or the synthetic "broken"
// class (an image/video/document/raw file whose decode failed).
type ClassPredicate struct {
	Enabled bool
	Class   filedata.Class
	Broken  bool
	Op      Operator // OpEqual, OpNotEqual
}

func (p *ClassPredicate) match(c *Candidate) bool {
	var isMatch bool
	if p.Broken {
		isMatch = c.Broken
	} else {
		isMatch = c.FD.Class == p.Class
	}
	if p.Op == OpNotEqual {
		return !isMatch
	}
	return isMatch
}

// MarksPredicate matches a specific mark bit, or "any mark set".
type MarksPredicate struct {
	Enabled bool
	MarkID  int // 0-9
	AnyMark bool
	Op      Operator // OpEqual, OpNotEqual
}

func (p *MarksPredicate) match(c *Candidate) bool {
	fd := c.FD
	var isMatch bool
	if p.AnyMark {
		isMatch = fd.Marks != 0
	} else {
		isMatch = fd.Marks&(1<<uint(p.MarkID)) != 0
	}
	if p.Op == OpNotEqual {
		return !isMatch
	}
	return isMatch
}
