package table

import (
	"fmt"
	"strconv"

	"github.com/censo-link/internal/dates"
	"github.com/censo-link/internal/normalize"
)

// ReferralIDs prepares a freshly read referral table: rows without a sequence
// number or without a usable name are dropped, and every remaining row gets a
// computed identifier "<year>-<sequence>" inserted as schema.IDField.
//
// The year comes from the row's own date when it parses; otherwise the last
// year parsed so far is carried forward, starting from seedYear.
func ReferralIDs(t *Table, seqField string, seedYear int) (*Table, error) {
	if !contains(t.Header, seqField) {
		return nil, fmt.Errorf("%w: table %s has no field %q", ErrSchemaMismatch, t.Schema.Table, seqField)
	}

	out := &Table{Schema: t.Schema}
	out.Header = make([]string, 0, len(t.Header)+1)
	out.Header = append(out.Header, t.Schema.IDField)
	for _, h := range t.Header {
		if h != t.Schema.IDField {
			out.Header = append(out.Header, h)
		}
	}

	lastYear := seedYear
	for _, rec := range t.Records {
		seq, _ := rec.Get(seqField)
		if seq == "" || normalize.IsBlank(rec.Name()) {
			continue
		}

		if year, ok := dates.Parse(rec.Date(), t.Schema.DayFirst).Year(); ok {
			lastYear = year
		}
		id := strconv.Itoa(lastYear) + "-" + seq
		out.Records = append(out.Records, rec.withField(t.Schema.IDField, id))
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
