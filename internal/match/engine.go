package match

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/censo-link/internal/dates"
	"github.com/censo-link/internal/debug"
	"github.com/censo-link/internal/diag"
	"github.com/censo-link/internal/normalize"
	"github.com/censo-link/internal/table"
)

// Engine links the rows of a base table to an other table by name similarity
// within a gestational-age window.
type Engine struct {
	params Params
	sink   diag.Sink
	log    *zap.SugaredLogger
}

// NewEngine creates a matching engine. A nil sink discards diagnostics and a
// nil logger disables tracing.
func NewEngine(params Params, sink diag.Sink, log *zap.SugaredLogger) *Engine {
	if sink == nil {
		sink = diag.Discard
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Engine{params: params, sink: sink, log: log}
}

// Pass is one base/other pairing.
type Pass struct {
	Stage string
	Base  *table.Table
	Other *table.Table

	// PrimaryBase marks the registry as base table; rows without a name are
	// then hard warnings instead of soft ones.
	PrimaryBase bool
}

// Layout returns how rows of this pass flatten into columns.
func (p Pass) Layout() Layout {
	return Layout{
		Base:        p.Base.Schema,
		BaseHeader:  p.Base.Header,
		Other:       p.Other.Schema,
		OtherHeader: p.Other.Header,
	}
}

func (p Pass) event(kind diag.Kind, sev diag.Severity, msg string) diag.Event {
	return diag.Event{
		Stage:      p.Stage,
		BaseTable:  p.Base.Schema.Table,
		OtherTable: p.Other.Schema.Table,
		Kind:       kind,
		Severity:   sev,
		Message:    msg,
	}
}

// Match produces exactly one row per base record, in base order.
func (e *Engine) Match(localDebug bool, p Pass) ([]Row, error) {
	defer debug.DebugTiming(e.log, localDebug, "match "+p.Stage)()

	ix := BuildIndex(p.Other)
	debug.DebugOutput(e.log, localDebug, "Indexed %d %s records under %d names",
		ix.Len(), p.Other.Schema.Table, len(ix.byName))

	rows := make([]Row, 0, p.Base.Len())
	for i := range p.Base.Records {
		rows = append(rows, e.matchOne(localDebug, p, ix, i))
	}

	if len(rows) != p.Base.Len() {
		return nil, fmt.Errorf("%w: %s has %d rows but matching produced %d",
			ErrInvariantViolation, p.Base.Schema.Table, p.Base.Len(), len(rows))
	}
	return rows, nil
}

func (e *Engine) matchOne(localDebug bool, p Pass, ix *Index, i int) Row {
	rec := &p.Base.Records[i]
	rowNum := i + 1

	// Step 1: a usable base name
	baseName := normalize.Name(rec.Name())
	if baseName == "" {
		sev := diag.SeverityDebug
		if p.PrimaryBase {
			sev = diag.SeverityWarn
		}
		ev := p.event(diag.KindMissingName, sev, "no base name")
		ev.Row, ev.BaseID = rowNum, rec.ID()
		e.sink.Emit(ev)
		return Row{Outcome: NoBaseName, Base: rec}
	}

	// Step 2: anchor date and window
	anchor := dates.Parse(rec.Date(), p.Base.Schema.DayFirst)
	var candidates []candidate
	if anchor.OK {
		candidates = ix.window(anchor.Time, e.params)
	} else {
		candidates = ix.all
		ev := p.event(diag.KindAnchorUnparsable, diag.SeverityDebug, "anchor date unparsable, window not applied")
		ev.Row, ev.BaseID, ev.BaseName = rowNum, rec.ID(), rec.Name()
		e.sink.Emit(ev)
	}

	// Step 3: anything left to compare against
	if len(candidates) == 0 {
		ev := p.event(diag.KindNoCandidates, diag.SeverityWarn, "no match candidates based on gestational age")
		ev.Row, ev.BaseID, ev.BaseName = rowNum, rec.ID(), rec.Name()
		e.sink.Emit(ev)
		return Row{Outcome: NoCandidatesInWindow, Base: rec}
	}

	// Step 4: best name over every candidate
	names := make([]string, len(candidates))
	for j, c := range candidates {
		names[j] = c.name
	}
	best, score := Best(baseName, names)
	debug.DebugOutput(e.log, localDebug, "%s", debug.Row(rec.ID(), rec.Name(), names[best], score))

	// Step 5: accept strictly above the threshold and break ties by date
	if score > e.params.NameThreshold {
		chosen := choose(anchor, ix.bucket(names[best]), e.params)
		other := chosen.rec

		ev := p.event(diag.KindNameMatched, diag.SeverityInfo, "name match")
		ev.Row, ev.BaseID, ev.BaseName = rowNum, rec.ID(), rec.Name()
		ev.OtherID, ev.OtherName = other.ID(), other.Name()
		ev.Score, ev.HasScore = score, true
		e.sink.Emit(ev)

		return Row{
			Outcome:       NameMatched,
			Base:          rec,
			Other:         &other,
			Score:         score,
			AnchorChecked: true,
			HasAnchor:     anchor.OK,
		}
	}

	// Step 6: no acceptable name
	ev := p.event(diag.KindLowSimilarity, diag.SeverityDebug, "no name match")
	ev.Row, ev.BaseID, ev.BaseName = rowNum, rec.ID(), rec.Name()
	ev.OtherName = candidates[best].rec.Name()
	ev.Score, ev.HasScore = score, true
	e.sink.Emit(ev)

	return Row{Outcome: NoNameMatch, Base: rec, AnchorChecked: true, HasAnchor: anchor.OK}
}
