package search

import "testing"

func TestQueryCompileRejectsSimilarityThresholdOutOfRange(t *testing.T) {
	q := &Query{Similarity: SimilarityPredicate{Enabled: true, Threshold: 50}}
	if err := q.Compile(); err == nil {
		t.Error("expected an error for a threshold below 80")
	}
}

func TestQueryCompileRejectsRatingOutOfRange(t *testing.T) {
	q := &Query{Rating: RatingPredicate{Enabled: true, Op: OpEqual, Value: 9}}
	if err := q.Compile(); err == nil {
		t.Error("expected an error for a rating above 5")
	}
}

func TestQueryCompileAcceptsValidQuery(t *testing.T) {
	q := &Query{
		Name:       NamePredicate{Enabled: true, Pattern: `\.jpg$`},
		Similarity: SimilarityPredicate{Enabled: true, Threshold: 90},
	}
	if err := q.Compile(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryAnyEnabledReflectsPredicateState(t *testing.T) {
	q := &Query{}
	if q.anyEnabled() {
		t.Error("expected an empty query to report no predicates enabled")
	}
	q.Rating.Enabled = true
	if !q.anyEnabled() {
		t.Error("expected anyEnabled to report true once a predicate is enabled")
	}
}

func TestQueryNeedsReportsMetastoreAndExifAndDimensions(t *testing.T) {
	q := &Query{
		Keywords:   KeywordsPredicate{Enabled: true},
		GPS:        GPSPredicate{Enabled: true},
		Dimensions: DimensionsPredicate{Enabled: true},
	}
	c := &Candidate{}
	needs := q.needs(c)

	want := map[Need]bool{NeedMetastore: false, NeedExif: false, NeedDimensions: false}
	for _, n := range needs {
		want[n] = true
	}
	for n, found := range want {
		if !found {
			t.Errorf("expected Need %v to be reported", n)
		}
	}
}

func TestQueryNeedsOmitsAlreadyPresentData(t *testing.T) {
	q := &Query{Keywords: KeywordsPredicate{Enabled: true}}
	c := &Candidate{HasMeta: true}
	needs := q.needs(c)
	for _, n := range needs {
		if n == NeedMetastore {
			t.Error("expected NeedMetastore to be omitted once HasMeta is set")
		}
	}
}
