package match

import (
	"github.com/censo-link/internal/dates"
	"github.com/censo-link/internal/table"
)

// Delta returns the signed day distance from anchor to d, or the default
// delta when either date is unknown.
//
// TODO: an undated candidate (300) currently beats a dated one 301-364 days
// out; decide with the registry team whether undated should always rank last.
func Delta(anchor, d dates.Parsed, p Params) int {
	if !anchor.OK || !d.OK {
		return p.DefaultDeltaDays
	}
	return dates.DaysBetween(anchor.Time, d.Time)
}

// Choose picks among same-named candidates the one with the smallest delta
// from anchor. Ties keep input order. candidates must not be empty.
func Choose(anchor dates.Parsed, candidates []table.Record, dayFirst bool, p Params) table.Record {
	cs := make([]candidate, len(candidates))
	for i, rec := range candidates {
		cs[i] = candidate{rec: rec, date: dates.Parse(rec.Date(), dayFirst)}
	}
	return choose(anchor, cs, p).rec
}

func choose(anchor dates.Parsed, cs []candidate, p Params) candidate {
	best := 0
	bestDelta := Delta(anchor, cs[0].date, p)
	for i := 1; i < len(cs); i++ {
		if d := Delta(anchor, cs[i].date, p); d < bestDelta {
			best, bestDelta = i, d
		}
	}
	return cs[best]
}
