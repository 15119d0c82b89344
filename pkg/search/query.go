package search

import "fmt"

// Query aggregates the optional predicates one search runs. Each
// predicate field is present unconditionally; its own Enabled flag
// decides whether the engine evaluates it. Evaluation order follows
// evaluate, cheapest-and-most-selective-first, short-circuiting
// at the first predicate that rejects a candidate.
type Query struct {
	Name       NamePredicate
	Size       SizePredicate
	Date       DatePredicate
	Marks      MarksPredicate
	Class      ClassPredicate
	Rating     RatingPredicate
	Keywords   KeywordsPredicate
	Comment    CommentPredicate
	Exif       ExifPredicate
	GPS        GPSPredicate
	Dimensions DimensionsPredicate
	Similarity SimilarityPredicate

	// Recursive descends into subdirectories when the scope is a
	// directory walk. It has no effect on refinement or all-ever-seen
	// scopes, which already enumerate a flat candidate set.
	Recursive bool
}

// Compile validates and prepares every enabled predicate's pattern
// matchers. Call once before running a Query against an Engine.
func (q *Query) Compile() error {
	if q.Name.Enabled {
		if err := q.Name.Compile(); err != nil {
			return fmt.Errorf("name pattern: %w", err)
		}
	}
	if q.Keywords.Enabled {
		q.Keywords.Compile()
	}
	if q.Comment.Enabled {
		if err := q.Comment.Compile(); err != nil {
			return fmt.Errorf("comment pattern: %w", err)
		}
	}
	if q.Exif.Enabled {
		if err := q.Exif.Compile(); err != nil {
			return fmt.Errorf("exif pattern: %w", err)
		}
	}
	if q.Similarity.Enabled && (q.Similarity.Threshold < 80 || q.Similarity.Threshold > 100) {
		return fmt.Errorf("similarity threshold %d out of range [80,100]", q.Similarity.Threshold)
	}
	if q.Rating.Enabled {
		if q.Rating.Value < -1 || q.Rating.Value > 5 {
			return fmt.Errorf("rating value %d out of range [-1,5]", q.Rating.Value)
		}
	}
	return nil
}

// needs returns the pieces of lazily-attached Candidate data c is
// missing that at least one enabled predicate of q requires, in the
// fixed cost order the engine dispatches them.
func (q *Query) needs(c *Candidate) []Need {
	var needs []Need
	if !c.HasMeta && (q.Keywords.Enabled || q.Comment.Enabled) {
		needs = append(needs, NeedMetastore)
	}
	needsExifDate := q.Date.Enabled && (q.Date.Field == DateExifOriginal || q.Date.Field == DateExifDigitized)
	if !c.HasExif && (q.Exif.Enabled || q.GPS.Enabled || needsExifDate) {
		needs = append(needs, NeedExif)
	}
	if !c.HasDims && q.Dimensions.Enabled {
		needs = append(needs, NeedDimensions)
	}
	if !c.HasFingerprint && q.Similarity.Enabled {
		needs = append(needs, NeedFingerprint)
	}
	if !c.BrokenKnown && q.Class.Enabled && q.Class.Broken {
		needs = append(needs, NeedBrokenProbe)
	}
	return needs
}

// evaluate runs the cheapest-first predicate evaluation sequence:
// in-memory FileData fields before collaborator reads, and collaborator
// reads ordered by how expensive satisfying a Need for them tends to be.
func (q *Query) evaluate(c *Candidate) bool {
	if q.Name.Enabled && !q.Name.match(c) {
		return false
	}
	if q.Size.Enabled && !q.Size.match(c) {
		return false
	}
	if q.Date.Enabled && !q.Date.match(c) {
		return false
	}
	if q.Marks.Enabled && !q.Marks.match(c) {
		return false
	}
	if q.Class.Enabled && !q.Class.match(c) {
		return false
	}
	if q.Rating.Enabled && !q.Rating.match(c) {
		return false
	}
	if q.Keywords.Enabled && !q.Keywords.match(c) {
		return false
	}
	if q.Comment.Enabled && !q.Comment.match(c) {
		return false
	}
	if q.Exif.Enabled && !q.Exif.match(c) {
		return false
	}
	if q.GPS.Enabled && !q.GPS.match(c) {
		return false
	}
	if q.Dimensions.Enabled && !q.Dimensions.match(c) {
		return false
	}
	if q.Similarity.Enabled && !q.Similarity.match(c) {
		return false
	}
	return true
}

// evaluateCheap runs only the predicates that never require collaborator
// data (a metastore read, an EXIF decode, or an image-loader decode),
// letting the engine reject an obviously-nonmatching file before paying
// for anything expensive. A pass here is not a match by itself: evaluate
// still runs once any Need the full predicate set requires is satisfied.
func (q *Query) evaluateCheap(c *Candidate) bool {
	if q.Name.Enabled && !q.Name.match(c) {
		return false
	}
	if q.Size.Enabled && !q.Size.match(c) {
		return false
	}
	if q.Date.Enabled && q.Date.Field != DateExifOriginal && q.Date.Field != DateExifDigitized && !q.Date.match(c) {
		return false
	}
	if q.Marks.Enabled && !q.Marks.match(c) {
		return false
	}
	if q.Class.Enabled && !q.Class.Broken && !q.Class.match(c) {
		return false
	}
	if q.Rating.Enabled && !q.Rating.match(c) {
		return false
	}
	return true
}

// anyEnabled reports whether at least one predicate is enabled. An empty
// Query matches every candidate; callers may want to reject that case
// explicitly for an "all ever seen" scope to avoid an accidental full
// cache walk.
func (q *Query) anyEnabled() bool {
	return q.Name.Enabled || q.Size.Enabled || q.Date.Enabled || q.Marks.Enabled ||
		q.Class.Enabled || q.Rating.Enabled || q.Keywords.Enabled || q.Comment.Enabled ||
		q.Exif.Enabled || q.GPS.Enabled || q.Dimensions.Enabled || q.Similarity.Enabled
}
