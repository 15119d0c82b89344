package search

import (
	"testing"
	"time"

	"github.com/gqcore/gqcore/pkg/filedata"
	"github.com/gqcore/gqcore/pkg/metastore"
)

func TestNamePredicateMatchesBasenameCaseInsensitively(t *testing.T) {
	p := &NamePredicate{Enabled: true, Pattern: `^IMG_\d+\.jpg$`}
	if err := p.Compile(); err != nil {
		t.Fatal(err)
	}
	c := &Candidate{FD: &filedata.FileData{Path: "/a/img_0001.jpg", Name: "img_0001.jpg"}}
	if !p.match(c) {
		t.Error("expected a case-insensitive match")
	}
}

func TestNamePredicateMatchFullPath(t *testing.T) {
	p := &NamePredicate{Enabled: true, Pattern: `^/photos/`, MatchFullPath: true, CaseSensitive: true}
	if err := p.Compile(); err != nil {
		t.Fatal(err)
	}
	c := &Candidate{FD: &filedata.FileData{Path: "/photos/a.jpg", Name: "a.jpg"}}
	if !p.match(c) {
		t.Error("expected full-path match")
	}
	c2 := &Candidate{FD: &filedata.FileData{Path: "/other/a.jpg", Name: "a.jpg"}}
	if p.match(c2) {
		t.Error("expected no match outside /photos/")
	}
}

func TestSizePredicateOperators(t *testing.T) {
	c := &Candidate{FD: &filedata.FileData{Size: 500}}
	cases := []struct {
		p    SizePredicate
		want bool
	}{
		{SizePredicate{Op: OpEqual, Value: 500}, true},
		{SizePredicate{Op: OpUnder, Value: 600}, true},
		{SizePredicate{Op: OpOver, Value: 600}, false},
		{SizePredicate{Op: OpBetween, Value: 100, Upper: 1000}, true},
		{SizePredicate{Op: OpBetween, Value: 501, Upper: 1000}, false},
	}
	for _, tc := range cases {
		if got := tc.p.match(c); got != tc.want {
			t.Errorf("%+v: got %v, want %v", tc.p, got, tc.want)
		}
	}
}

func TestDatePredicateEqualityIsSameCalendarDay(t *testing.T) {
	morning := time.Date(2026, 3, 5, 1, 0, 0, 0, time.Local)
	evening := time.Date(2026, 3, 5, 23, 0, 0, 0, time.Local)
	nextDay := time.Date(2026, 3, 6, 1, 0, 0, 0, time.Local)

	c := &Candidate{FD: &filedata.FileData{Mtime: evening}}
	p := DatePredicate{Enabled: true, Field: DateMtime, Op: OpEqual, Value: morning}
	if !p.match(c) {
		t.Error("expected same-day match")
	}

	c2 := &Candidate{FD: &filedata.FileData{Mtime: nextDay}}
	if p.match(c2) {
		t.Error("expected no match across a day boundary")
	}
}

func TestDatePredicateBetweenExpandsUpperToEndOfDay(t *testing.T) {
	lateInRange := time.Date(2026, 3, 10, 23, 30, 0, 0, time.Local)
	c := &Candidate{FD: &filedata.FileData{Mtime: lateInRange}}
	p := DatePredicate{
		Enabled: true, Field: DateMtime, Op: OpBetween,
		Value: time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local),
		Upper: time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local),
	}
	if !p.match(c) {
		t.Error("expected the upper bound to extend through end of its calendar day")
	}
}

func TestDatePredicateMissingExifFieldNeverMatches(t *testing.T) {
	c := &Candidate{FD: &filedata.FileData{}}
	p := DatePredicate{Enabled: true, Field: DateExifOriginal, Op: OpOver, Value: time.Now().Add(-time.Hour)}
	if p.match(c) {
		t.Error("expected no match when EXIF original time is absent")
	}
}

func TestRatingPredicateRange(t *testing.T) {
	c := &Candidate{FD: &filedata.FileData{Rating: 3}}
	p := RatingPredicate{Enabled: true, Op: OpBetween, Value: 2, Upper: 4}
	if !p.match(c) {
		t.Error("expected rating 3 to fall within [2,4]")
	}
}

func TestClassPredicateBroken(t *testing.T) {
	c := &Candidate{FD: &filedata.FileData{Class: filedata.ClassImage}, Broken: true, BrokenKnown: true}
	p := ClassPredicate{Enabled: true, Broken: true, Op: OpEqual}
	if !p.match(c) {
		t.Error("expected the broken predicate to match a broken candidate")
	}
}

func TestClassPredicateNotEqual(t *testing.T) {
	c := &Candidate{FD: &filedata.FileData{Class: filedata.ClassImage}}
	p := ClassPredicate{Enabled: true, Class: filedata.ClassVideo, Op: OpNotEqual}
	if !p.match(c) {
		t.Error("expected image to not-equal video")
	}
}

func TestMarksPredicateSpecificAndAny(t *testing.T) {
	c := &Candidate{FD: &filedata.FileData{Marks: 1 << 3}}
	specific := MarksPredicate{Enabled: true, MarkID: 3, Op: OpEqual}
	if !specific.match(c) {
		t.Error("expected mark 3 to be set")
	}
	any := MarksPredicate{Enabled: true, AnyMark: true, Op: OpEqual}
	if !any.match(c) {
		t.Error("expected any-mark to match")
	}
	none := &Candidate{FD: &filedata.FileData{}}
	if any.match(none) {
		t.Error("expected any-mark to reject an unmarked file")
	}
}

func TestKeywordsPredicateAllAnyNone(t *testing.T) {
	c := &Candidate{Meta: &metastore.Record{Keywords: []string{"Beach", "Sunset"}}}

	allOf := KeywordsPredicate{Enabled: true, Keywords: []string{"beach", "sunset"}, Op: OpAllOf}
	allOf.Compile()
	if !allOf.match(c) {
		t.Error("expected all-of to match case-insensitively")
	}

	anyOf := KeywordsPredicate{Enabled: true, Keywords: []string{"mountain", "sunset"}, Op: OpAnyOf}
	anyOf.Compile()
	if !anyOf.match(c) {
		t.Error("expected any-of to match on the second keyword")
	}

	noneOf := KeywordsPredicate{Enabled: true, Keywords: []string{"mountain"}, Op: OpNoneOf}
	noneOf.Compile()
	if !noneOf.match(c) {
		t.Error("expected none-of to match an absent keyword")
	}
}

func TestCommentPredicateContainsAndNone(t *testing.T) {
	c := &Candidate{Meta: &metastore.Record{Comment: "shot at the lake"}}

	contains := &CommentPredicate{Enabled: true, Pattern: "lake", Op: OpContains}
	if err := contains.Compile(); err != nil {
		t.Fatal(err)
	}
	if !contains.match(c) {
		t.Error("expected contains match")
	}

	none := &CommentPredicate{Enabled: true, Pattern: "mountain", Op: OpNoneOf}
	if err := none.Compile(); err != nil {
		t.Fatal(err)
	}
	if !none.match(c) {
		t.Error("expected none-of to match when pattern is absent")
	}
}
