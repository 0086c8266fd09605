package match

import (
	"errors"
	"sort"
	"strconv"

	"github.com/censo-link/internal/table"
)

// ErrInvariantViolation signals an internal defect, such as a pass producing
// a different number of rows than its base table holds.
var ErrInvariantViolation = errors.New("invariant violation")

// Outcome classifies how one output row came about.
type Outcome int

const (
	NoBaseName Outcome = iota
	NoCandidatesInWindow
	NameMatched
	NoNameMatch
	CommunityMatched
)

func (o Outcome) String() string {
	switch o {
	case NoBaseName:
		return "no_base_name"
	case NoCandidatesInWindow:
		return "no_candidates_in_window"
	case NameMatched:
		return "name_matched"
	case NoNameMatch:
		return "no_name_match"
	case CommunityMatched:
		return "community_matched"
	default:
		return "unknown"
	}
}

// Params holds the fixed matching thresholds.
type Params struct {
	// NameThreshold is exclusive: a best score must be strictly greater.
	NameThreshold int
	// Candidates are kept when WindowMinDays < delta < WindowMaxDays.
	WindowMinDays int
	WindowMaxDays int
	// DefaultDeltaDays stands in for a delta that cannot be computed when
	// breaking ties between same-named candidates.
	DefaultDeltaDays int
}

// DefaultParams returns the thresholds the registries were tuned with.
func DefaultParams() Params {
	return Params{
		NameThreshold:    90,
		WindowMinDays:    0,
		WindowMaxDays:    365,
		DefaultDeltaDays: 300,
	}
}

// Row is one output row of a matching pass, before flattening.
type Row struct {
	Outcome Outcome
	Base    *table.Record // nil for community rows
	Other   *table.Record // set for NameMatched and CommunityMatched
	Score   int           // best name score, meaningful for NameMatched

	// AnchorChecked is false for rows that do not report the anchor flag
	// (no base name, no candidates, community rows); HasAnchor is then
	// meaningless and a carried base value is kept.
	AnchorChecked bool
	HasAnchor     bool
}

// Diagnostic column names.
const HasAnchorDateColumn = "has-anchor-date"

func MatchColumn(tag string) string { return tag + "-match" }
func ScoreColumn(tag string) string { return tag + "-name-match-score" }
func CommunityColumn(tag string) string { return tag + "-community-match" }
func NoCandidatesColumn(tag string) string { return tag + "-no-match-candidates" }

// Layout describes how rows of one pass flatten into output columns.
type Layout struct {
	Base        *table.Schema
	BaseHeader  []string
	Other       *table.Schema
	OtherHeader []string
}

// DiagnosticColumns returns the fixed columns a pass adds.
func (l Layout) DiagnosticColumns() []string {
	tag := l.Other.Table
	return []string{
		HasAnchorDateColumn,
		MatchColumn(tag),
		ScoreColumn(tag),
		CommunityColumn(tag),
		NoCandidatesColumn(tag),
	}
}

// Columns returns the sorted union of prefixed base fields, prefixed other
// fields and diagnostic columns.
func (l Layout) Columns() []string {
	seen := make(map[string]bool)
	var cols []string
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, f := range l.BaseHeader {
		add(l.Base.Column(f))
	}
	for _, f := range l.OtherHeader {
		add(l.Other.Column(f))
	}
	for _, c := range l.DiagnosticColumns() {
		add(c)
	}
	sort.Strings(cols)
	return cols
}

// Render flattens r into a column -> value map. Other-table fields are either
// all taken from r.Other or all blank.
func (l Layout) Render(r Row) map[string]string {
	out := make(map[string]string, len(l.BaseHeader)+len(l.OtherHeader)+5)

	for _, f := range l.BaseHeader {
		v := ""
		if r.Base != nil {
			v, _ = r.Base.Get(f)
		}
		out[l.Base.Column(f)] = v
	}

	for _, f := range l.OtherHeader {
		v := ""
		if r.Other != nil {
			v, _ = r.Other.Get(f)
		}
		out[l.Other.Column(f)] = v
	}

	tag := l.Other.Table
	out[MatchColumn(tag)] = flag(r.Outcome == NameMatched)
	out[CommunityColumn(tag)] = flag(r.Outcome == CommunityMatched)
	out[NoCandidatesColumn(tag)] = flag(r.Outcome == NoCandidatesInWindow)
	out[ScoreColumn(tag)] = ""
	if r.Outcome == NameMatched {
		out[ScoreColumn(tag)] = strconv.Itoa(r.Score)
	}

	// A base table that already carries the anchor flag keeps its value
	// unless this pass evaluated the anchor itself.
	if r.AnchorChecked {
		out[HasAnchorDateColumn] = flag(r.HasAnchor)
	} else if _, ok := out[HasAnchorDateColumn]; !ok {
		out[HasAnchorDateColumn] = ""
	}

	return out
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
