package etl

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/censo-link/internal/config"
	"github.com/censo-link/internal/debug"
	"github.com/censo-link/internal/diag"
	"github.com/censo-link/internal/match"
	"github.com/censo-link/internal/table"
)

// Stage names.
const (
	StageBirths    = "births"
	StageReferrals = "referrals"
)

// ErrUnknownStage is returned by RunStage for a name other than the stage
// constants.
var ErrUnknownStage = errors.New("unknown stage")

// StageError reports the stage and table a fatal error was raised in.
type StageError struct {
	Stage string
	Table string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s (table %s): %v", e.Stage, e.Table, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// StageResult is the flattened output of one stage.
type StageResult struct {
	Stage   string
	Columns []string
	Rows    []map[string]string
	Summary match.Summary
	Path    string // where the result was written, if it was
}

// Table reads the result back as a table bound to schema, the way the next
// stage would read it from disk.
func (r *StageResult) Table(schema *table.Schema) (*table.Table, error) {
	if err := schema.CheckHeader(r.Columns); err != nil {
		return nil, err
	}
	t := &table.Table{Schema: schema, Header: r.Columns}
	t.Records = make([]table.Record, len(r.Rows))
	for i, row := range r.Rows {
		t.Records[i] = table.FromMap(schema, r.Columns, row)
	}
	return t, nil
}

// Pipeline chains the births and referrals stages.
type Pipeline struct {
	cfg         *config.Config
	engine      *match.Engine
	communities match.Communities
	sink        diag.Sink
	log         *zap.SugaredLogger
}

// NewPipeline creates a pipeline. communities may be nil to disable the
// community fallback.
func NewPipeline(cfg *config.Config, communities match.Communities, sink diag.Sink, log *zap.SugaredLogger) *Pipeline {
	if sink == nil {
		sink = diag.Discard
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{
		cfg:         cfg,
		engine:      match.NewEngine(cfg.Params(), sink, log),
		communities: communities,
		sink:        sink,
		log:         log,
	}
}

// MergedSchema binds the stage-1 output as the base of stage 2. Its fields
// are already prefixed, so the merged table adds no prefix of its own.
func MergedSchema(cfg *config.Config) *table.Schema {
	censo := cfg.CensoSchema()
	return &table.Schema{
		Table:     censo.Table,
		IDField:   censo.Column(censo.IDField),
		NameField: censo.Column(censo.NameField),
		DateField: censo.Column(censo.DateField),
		DayFirst:  censo.DayFirst,
	}
}

// LoadCenso reads the registry table.
func (p *Pipeline) LoadCenso() (*table.Table, error) {
	return p.load(StageBirths, p.cfg.InputPath(p.cfg.Tables.Censo), p.cfg.CensoSchema())
}

// LoadPartos reads the births table.
func (p *Pipeline) LoadPartos() (*table.Table, error) {
	return p.load(StageBirths, p.cfg.InputPath(p.cfg.Tables.Partos), p.cfg.PartosSchema())
}

// LoadRefs reads the referral table and computes its identifiers.
func (p *Pipeline) LoadRefs() (*table.Table, error) {
	schema := p.cfg.RefsSchema()
	raw, err := p.load(StageReferrals, p.cfg.InputPath(p.cfg.Tables.Refs), schema)
	if err != nil {
		return nil, err
	}
	refs, err := table.ReferralIDs(raw, p.cfg.Referrals.SequenceField, p.cfg.Referrals.SeedYear)
	if err != nil {
		return nil, &StageError{Stage: StageReferrals, Table: schema.Table, Err: err}
	}
	p.log.Infow("Computed referral identifiers", "read", raw.Len(), "kept", refs.Len())
	return refs, nil
}

// LoadIntermediate reads the stage-1 artifact from disk.
func (p *Pipeline) LoadIntermediate() (*table.Table, error) {
	return p.load(StageReferrals, p.cfg.Paths.Intermediate, MergedSchema(p.cfg))
}

func (p *Pipeline) load(stage, path string, schema *table.Schema) (*table.Table, error) {
	t, err := table.Load(path, schema)
	if err != nil {
		return nil, &StageError{Stage: stage, Table: schema.Table, Err: err}
	}
	p.log.Infow("Loaded table", "table", schema.Table, "path", path, "rows", t.Len())
	return t, nil
}

// Births links the registry to the births table.
func (p *Pipeline) Births(localDebug bool, censo, partos *table.Table) (*StageResult, error) {
	return p.link(localDebug, match.Pass{Stage: StageBirths, Base: censo, Other: partos, PrimaryBase: true})
}

// Referrals links the stage-1 output to the referral table.
func (p *Pipeline) Referrals(localDebug bool, merged, refs *table.Table) (*StageResult, error) {
	return p.link(localDebug, match.Pass{Stage: StageReferrals, Base: merged, Other: refs})
}

func (p *Pipeline) link(localDebug bool, pass match.Pass) (*StageResult, error) {
	defer debug.DebugTiming(p.log, localDebug, "stage "+pass.Stage)()

	rows, err := p.engine.Match(localDebug, pass)
	if err != nil {
		return nil, &StageError{Stage: pass.Stage, Table: pass.Base.Schema.Table, Err: err}
	}
	rows = append(rows, p.engine.RecoverByCommunity(rows, pass, p.communities)...)

	layout := pass.Layout()
	res := &StageResult{
		Stage:   pass.Stage,
		Columns: layout.Columns(),
		Rows:    make([]map[string]string, len(rows)),
		Summary: match.Summarize(rows),
	}
	for i, r := range rows {
		res.Rows[i] = layout.Render(r)
	}

	if res.Summary.BaseRows != pass.Base.Len() {
		return nil, &StageError{Stage: pass.Stage, Table: pass.Base.Schema.Table,
			Err: fmt.Errorf("%w: summary counts %d base rows, table has %d",
				match.ErrInvariantViolation, res.Summary.BaseRows, pass.Base.Len())}
	}

	p.sink.Emit(diag.Event{
		Stage:      pass.Stage,
		BaseTable:  pass.Base.Schema.Table,
		OtherTable: pass.Other.Schema.Table,
		Kind:       diag.KindStageCompleted,
		Severity:   diag.SeverityInfo,
		Message: fmt.Sprintf("%d rows: %d name matches, %d community rows",
			len(rows), res.Summary.NameMatched, res.Summary.CommunityRows),
	})
	return res, nil
}

func (p *Pipeline) write(res *StageResult, path string) error {
	if err := table.Write(path, res.Columns, res.Rows); err != nil {
		return &StageError{Stage: res.Stage, Table: "output", Err: err}
	}
	res.Path = path
	p.log.Infow("Wrote stage output", "stage", res.Stage, "path", path, "rows", len(res.Rows))
	return nil
}

// RunResult holds both stage results of a full run.
type RunResult struct {
	Births    *StageResult
	Referrals *StageResult
}

// Run executes both stages, writing the intermediate and final artifacts.
// Stage 2 consumes the stage-1 rows in memory.
func (p *Pipeline) Run(localDebug bool) (*RunResult, error) {
	births, err := p.runBirths(localDebug)
	if err != nil {
		return nil, err
	}

	merged, err := births.Table(MergedSchema(p.cfg))
	if err != nil {
		return nil, &StageError{Stage: StageReferrals, Table: "merged", Err: err}
	}

	refs, err := p.runReferrals(localDebug, merged)
	if err != nil {
		return nil, err
	}
	return &RunResult{Births: births, Referrals: refs}, nil
}

// RunStage executes one stage alone. The referrals stage reads the
// intermediate artifact of an earlier births run.
func (p *Pipeline) RunStage(localDebug bool, stage string) (*StageResult, error) {
	switch stage {
	case StageBirths:
		return p.runBirths(localDebug)
	case StageReferrals:
		merged, err := p.LoadIntermediate()
		if err != nil {
			return nil, err
		}
		return p.runReferrals(localDebug, merged)
	default:
		return nil, fmt.Errorf("%w %q (want %s or %s)", ErrUnknownStage, stage, StageBirths, StageReferrals)
	}
}

func (p *Pipeline) runBirths(localDebug bool) (*StageResult, error) {
	censo, err := p.LoadCenso()
	if err != nil {
		return nil, err
	}
	partos, err := p.LoadPartos()
	if err != nil {
		return nil, err
	}

	res, err := p.Births(localDebug, censo, partos)
	if err != nil {
		return nil, err
	}
	if err := p.write(res, p.cfg.Paths.Intermediate); err != nil {
		return nil, err
	}
	return res, nil
}

func (p *Pipeline) runReferrals(localDebug bool, merged *table.Table) (*StageResult, error) {
	refs, err := p.LoadRefs()
	if err != nil {
		return nil, err
	}

	res, err := p.Referrals(localDebug, merged, refs)
	if err != nil {
		return nil, err
	}
	if err := p.write(res, p.cfg.Paths.Output); err != nil {
		return nil, err
	}
	return res, nil
}
