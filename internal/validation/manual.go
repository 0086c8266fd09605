// Package validation scores the registry's manually curated births links
// with the automatic name scorer, to help tune the acceptance threshold.
package validation

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/censo-link/internal/match"
	"github.com/censo-link/internal/normalize"
	"github.com/censo-link/internal/phonetics"
	"github.com/censo-link/internal/table"
)

// ManualMatch is one registry row paired with the births record an operator
// linked it to.
type ManualMatch struct {
	OtherID       string
	BaseName      string // normalized
	OtherName     string // normalized
	Score         int
	Distance      int
	PhoneticAgree bool
}

// Unresolved is a manual link that points at no births record.
type Unresolved struct {
	ManualID string
	BaseName string
}

// Report lists the manual links by ascending score.
type Report struct {
	Matches    []ManualMatch
	Unresolved []Unresolved
	Threshold  int
}

// Validator resolves manual links and scores them.
type Validator struct {
	field     string
	prefix    string
	threshold int
	phonetics *phonetics.DoubleMetaphone
}

// NewValidator creates a validator reading manual links from field, whose
// values carry prefix before the births identifier.
func NewValidator(field, prefix string, threshold int) *Validator {
	return &Validator{
		field:     field,
		prefix:    prefix,
		threshold: threshold,
		phonetics: phonetics.NewDoubleMetaphone(),
	}
}

// Validate scores every registry row with a manual link against the births
// record it names.
func (v *Validator) Validate(censo, partos *table.Table) (*Report, error) {
	if !hasField(censo.Header, v.field) {
		return nil, fmt.Errorf("%w: table %s has no field %q", table.ErrSchemaMismatch, censo.Schema.Table, v.field)
	}

	byID := make(map[string]table.Record, partos.Len())
	for _, rec := range partos.Records {
		if _, seen := byID[rec.ID()]; !seen {
			byID[rec.ID()] = rec
		}
	}

	report := &Report{Threshold: v.threshold}
	for _, rec := range censo.Records {
		manual, _ := rec.Get(v.field)
		if strings.TrimSpace(manual) == "" {
			continue
		}
		baseName := normalize.Name(rec.Name())

		id := strings.ReplaceAll(manual, v.prefix, "")
		other, found := byID[id]
		if _, err := strconv.Atoi(id); err != nil || !found {
			report.Unresolved = append(report.Unresolved, Unresolved{ManualID: manual, BaseName: baseName})
			continue
		}

		otherName := normalize.Name(other.Name())
		report.Matches = append(report.Matches, ManualMatch{
			OtherID:       id,
			BaseName:      baseName,
			OtherName:     otherName,
			Score:         match.Score(baseName, otherName),
			Distance:      levenshtein.ComputeDistance(baseName, otherName),
			PhoneticAgree: v.phonetics.Match(baseName, otherName),
		})
	}

	sort.SliceStable(report.Matches, func(i, j int) bool {
		return report.Matches[i].Score < report.Matches[j].Score
	})
	return report, nil
}

// Rejected counts the manual links the automatic matcher would not accept.
func (r *Report) Rejected() int {
	n := 0
	for _, m := range r.Matches {
		if m.Score <= r.Threshold {
			n++
		}
	}
	return n
}

// Write prints the report as aligned columns.
func (r *Report) Write(w io.Writer) error {
	for _, u := range r.Unresolved {
		if _, err := fmt.Fprintf(w, "Couldn't find match for %s: %s\n", u.ManualID, u.BaseName); err != nil {
			return err
		}
	}
	for _, m := range r.Matches {
		agree := "no"
		if m.PhoneticAgree {
			agree = "yes"
		}
		_, err := fmt.Fprintf(w, "%-6s %-38s %-38s : %3d  lev=%-3d metaphone=%s\n",
			m.OtherID, m.BaseName, m.OtherName, m.Score, m.Distance, agree)
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d manual links, %d below threshold %d, %d unresolved\n",
		len(r.Matches), r.Rejected(), r.Threshold, len(r.Unresolved))
	return err
}

func hasField(header []string, field string) bool {
	for _, h := range header {
		if h == field {
			return true
		}
	}
	return false
}
