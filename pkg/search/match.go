package search

import (
	"github.com/gqcore/gqcore/pkg/filedata"
	"github.com/gqcore/gqcore/pkg/metadata"
	"github.com/gqcore/gqcore/pkg/metastore"
	"github.com/gqcore/gqcore/pkg/similarity"
)

// Need flags a piece of data a Candidate is missing that a predicate
// needs before it can be evaluated. The engine suspends a file's
// evaluation when any enabled predicate reports a Need, dispatches the
// corresponding collaborator, and resumes once satisfied.
type Need int

const (
	NeedNone Need = iota
	NeedMetastore
	NeedExif
	NeedDimensions
	NeedFingerprint
	NeedBrokenProbe
)

// Candidate aggregates everything a Query's predicates might read about
// one file: the registry's FileData plus the lazily-attached collaborator
// data (metastore record, EXIF block, similarity fingerprint), and
// whether the file's decode is known to have failed ("broken").
type Candidate struct {
	FD *filedata.FileData

	Meta    *metastore.Record
	HasMeta bool

	Exif    *metadata.Exif
	HasExif bool

	HasDims bool
	Width   int
	Height  int

	Fingerprint    similarity.Fingerprint
	HasFingerprint bool

	Broken      bool
	BrokenKnown bool
}

// MatchResult is one row of a search result: the matched file's path,
// its dimensions if known, and its similarity rank when the query has a
// Similarity predicate enabled (0 otherwise).
type MatchResult struct {
	Path   string
	Width  int
	Height int
	Rank   int
}
