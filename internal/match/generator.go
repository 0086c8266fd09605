package match

import (
	"time"

	"github.com/censo-link/internal/dates"
	"github.com/censo-link/internal/normalize"
	"github.com/censo-link/internal/table"
)

// candidate is an other-table record with its name and date resolved once.
type candidate struct {
	rec  table.Record
	name string
	date dates.Parsed
}

// Index groups the records of the other table by normalized name. Buckets and
// the full candidate list keep input order.
type Index struct {
	all    []candidate
	byName map[string][]int
}

// BuildIndex normalizes every name and parses every date of t once.
func BuildIndex(t *table.Table) *Index {
	ix := &Index{
		all:    make([]candidate, len(t.Records)),
		byName: make(map[string][]int),
	}
	for i, rec := range t.Records {
		c := candidate{
			rec:  rec,
			name: normalize.Name(rec.Name()),
			date: dates.Parse(rec.Date(), t.Schema.DayFirst),
		}
		ix.all[i] = c
		ix.byName[c.name] = append(ix.byName[c.name], i)
	}
	return ix
}

// Lookup returns the records whose normalized name is name.
func (ix *Index) Lookup(name string) []table.Record {
	idx := ix.byName[name]
	out := make([]table.Record, len(idx))
	for i, j := range idx {
		out[i] = ix.all[j].rec
	}
	return out
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.all)
}

func (ix *Index) bucket(name string) []candidate {
	idx := ix.byName[name]
	out := make([]candidate, len(idx))
	for i, j := range idx {
		out[i] = ix.all[j]
	}
	return out
}

// window returns the candidates plausibly dated after anchor. Candidates whose
// date did not parse are kept.
func (ix *Index) window(anchor time.Time, p Params) []candidate {
	var out []candidate
	for _, c := range ix.all {
		if keepInWindow(anchor, c.date, p) {
			out = append(out, c)
		}
	}
	return out
}

func keepInWindow(anchor time.Time, d dates.Parsed, p Params) bool {
	if !d.OK {
		return true
	}
	days := dates.DaysBetween(anchor, d.Time)
	return days > p.WindowMinDays && days < p.WindowMaxDays
}

// FilterByWindow keeps the records whose date falls strictly inside the
// gestational-age window after anchor, plus every record whose date cannot
// be parsed.
func FilterByWindow(anchor time.Time, records []table.Record, dayFirst bool, p Params) []table.Record {
	var out []table.Record
	for _, rec := range records {
		if keepInWindow(anchor, dates.Parse(rec.Date(), dayFirst), p) {
			out = append(out, rec)
		}
	}
	return out
}
