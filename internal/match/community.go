package match

import (
	"github.com/censo-link/internal/diag"
)

// Communities decides whether a raw community value is in scope.
type Communities interface {
	Matches(raw string) bool
}

// MatchedIDs returns the other-table identifiers attached to name-matched rows.
func MatchedIDs(rows []Row) map[string]bool {
	ids := make(map[string]bool)
	for _, r := range rows {
		if r.Outcome == NameMatched && r.Other != nil {
			ids[r.Other.ID()] = true
		}
	}
	return ids
}

// RecoverByCommunity returns one extra row per other record that no row
// name-matched and whose community is registered. Base fields of these rows
// are blank.
func (e *Engine) RecoverByCommunity(rows []Row, p Pass, communities Communities) []Row {
	if communities == nil {
		return nil
	}

	matched := MatchedIDs(rows)
	var out []Row
	for i := range p.Other.Records {
		rec := &p.Other.Records[i]
		if matched[rec.ID()] || !communities.Matches(rec.Community()) {
			continue
		}

		ev := p.event(diag.KindCommunityMatched, diag.SeverityInfo, "community match")
		ev.OtherID, ev.OtherName = rec.ID(), rec.Name()
		e.sink.Emit(ev)

		out = append(out, Row{Outcome: CommunityMatched, Other: rec})
	}
	return out
}

// Summary counts the outcomes of one stage.
type Summary struct {
	BaseRows        int
	NoBaseName      int
	NoCandidates    int
	NameMatched     int
	NoNameMatch     int
	CommunityRows   int
	AnchorUnparsed  int
	MatchedOtherIDs int
}

// Summarize counts outcomes over rows, including community rows.
func Summarize(rows []Row) Summary {
	var s Summary
	for _, r := range rows {
		switch r.Outcome {
		case NoBaseName:
			s.NoBaseName++
		case NoCandidatesInWindow:
			s.NoCandidates++
		case NameMatched:
			s.NameMatched++
		case NoNameMatch:
			s.NoNameMatch++
		case CommunityMatched:
			s.CommunityRows++
			continue
		}
		s.BaseRows++
		if r.AnchorChecked && !r.HasAnchor {
			s.AnchorUnparsed++
		}
	}
	s.MatchedOtherIDs = len(MatchedIDs(rows))
	return s
}
