package etl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/censo-link/internal/community"
	"github.com/censo-link/internal/config"
	"github.com/censo-link/internal/diag"
	"github.com/censo-link/internal/match"
	"github.com/censo-link/internal/table"
)

const (
	censoCSV = "CSALMATID,Prgnc_Paciente,Prgnc_Fecha_de_ultima_menstruacion,CAMATID\n" +
		"C1,María José Pérez,01/03/2020,CAMAT-2\n" +
		"C2,J. Smith,01/03/2020,\n" +
		"C3,,01/03/2020,\n"

	partosCSV = "CAMATID,NOMBRE ,FECHA Y HORA DE NACIMIENTO,DIRECCION\n" +
		"P1,Maria Jose Perez,10/11/2020,Centro\n" +
		"P2,MARÍA JOSÉ PÉREZ,05/10/2020,Centro\n" +
		"P3,Lucia Mendez,05/10/2020,San Pedro\n"

	refsCSV = "No.,NOMBRE,FECHA,LUGAR DE PROCEDENCIA\n" +
		"1,Maria Jose Perez,11/20/2020,Centro\n" +
		"2,Ana Lopez,sin fecha,San Pedro\n" +
		",Nadie,11/20/2020,Centro\n"
)

func setup(t *testing.T, censo string) (*config.Config, string) {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "input")
	require.NoError(t, os.MkdirAll(input, 0o755))

	files := map[string]string{
		"censo.csv":        censo,
		"partos-clean.csv": partosCSV,
		"refs-clean.csv":   refsCSV,
	}
	for name, data := range files {
		require.NoError(t, os.WriteFile(filepath.Join(input, name), []byte(data), 0o644))
	}

	cfg := config.Default()
	cfg.Paths.InputDir = input
	cfg.Paths.Intermediate = filepath.Join(dir, "intermediates", "censo-parto.csv")
	cfg.Paths.Output = filepath.Join(dir, "output", "censo-parto-refs.csv")
	return cfg, dir
}

func newPipeline(cfg *config.Config, sink diag.Sink) *Pipeline {
	return NewPipeline(cfg, community.New([]string{"San Pedro"}, false), sink, nil)
}

func TestRun(t *testing.T) {
	cfg, _ := setup(t, censoCSV)
	rec := &diag.Recorder{}

	res, err := newPipeline(cfg, rec).Run(false)
	require.NoError(t, err)

	births := res.Births
	assert.Equal(t, cfg.Paths.Intermediate, births.Path)
	require.Len(t, births.Rows, 4, "three registry rows plus one community row")
	assert.Equal(t, "P2", births.Rows[0]["PARTOS-CAMATID"])
	assert.Equal(t, "100", births.Rows[0]["partos-name-match-score"])
	assert.Equal(t, "0", births.Rows[1]["partos-match"])
	assert.Equal(t, "", births.Rows[2][match.HasAnchorDateColumn])
	assert.Equal(t, "P3", births.Rows[3]["PARTOS-CAMATID"])
	assert.Equal(t, "1", births.Rows[3]["partos-community-match"])
	assert.Equal(t, "", births.Rows[3]["CENSO-CSALMATID"])

	final := res.Referrals
	require.Len(t, final.Rows, 5, "four stage-1 rows plus one community row")
	assert.Equal(t, "2020-1", final.Rows[0]["REFS-ID"])
	assert.Equal(t, "1", final.Rows[0]["refs-match"])
	assert.Equal(t, "P2", final.Rows[0]["PARTOS-CAMATID"], "stage-1 fields carry through")
	assert.Equal(t, "1", final.Rows[0][match.HasAnchorDateColumn])
	assert.Equal(t, "2020-2", final.Rows[4]["REFS-ID"], "year carried forward")
	assert.Equal(t, "1", final.Rows[4]["refs-community-match"])

	assert.Contains(t, final.Columns, "partos-match")
	assert.Contains(t, final.Columns, "refs-no-match-candidates")
	assert.IsIncreasing(t, final.Columns)

	written, err := table.Load(cfg.Paths.Output, &table.Schema{Table: "final"})
	require.NoError(t, err)
	assert.Equal(t, final.Columns, written.Header)
	assert.Equal(t, 5, written.Len())

	completed := rec.OfKind(diag.KindStageCompleted)
	require.Len(t, completed, 2)
	assert.Equal(t, StageBirths, completed[0].Stage)
	assert.Equal(t, StageReferrals, completed[1].Stage)

	assert.Equal(t, match.Summary{
		BaseRows:        3,
		NoBaseName:      1,
		NameMatched:     1,
		NoNameMatch:     1,
		CommunityRows:   1,
		MatchedOtherIDs: 1,
	}, births.Summary)
}

func TestRunStagesFromDisk(t *testing.T) {
	cfg, _ := setup(t, censoCSV)
	p := newPipeline(cfg, &diag.Recorder{})

	_, err := p.RunStage(false, StageBirths)
	require.NoError(t, err)

	res, err := p.RunStage(false, StageReferrals)
	require.NoError(t, err)
	require.Len(t, res.Rows, 5)
	assert.Equal(t, "2020-1", res.Rows[0]["REFS-ID"])
}

func TestRunStageReferralsNeedsIntermediate(t *testing.T) {
	cfg, _ := setup(t, censoCSV)

	_, err := newPipeline(cfg, nil).RunStage(false, StageReferrals)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageReferrals, se.Stage)
}

func TestRunStageUnknown(t *testing.T) {
	cfg, _ := setup(t, censoCSV)
	_, err := newPipeline(cfg, nil).RunStage(false, "deliveries")
	assert.True(t, errors.Is(err, ErrUnknownStage))
}

func TestRunMissingColumnAborts(t *testing.T) {
	cfg, _ := setup(t, "CSALMATID,Paciente,Prgnc_Fecha_de_ultima_menstruacion\nC1,Ana,01/03/2020\n")

	_, err := newPipeline(cfg, nil).Run(false)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageBirths, se.Stage)
	assert.Equal(t, "censo", se.Table)
	assert.True(t, errors.Is(err, table.ErrSchemaMismatch))
	assert.Contains(t, err.Error(), "Prgnc_Paciente")

	_, statErr := os.Stat(cfg.Paths.Output)
	assert.True(t, os.IsNotExist(statErr), "no partial output")
}

func TestRunShortRowAborts(t *testing.T) {
	cfg, _ := setup(t, "CSALMATID,Prgnc_Paciente,Prgnc_Fecha_de_ultima_menstruacion\n"+
		"C1,María José Pérez,01/03/2020\n"+
		"C2\n")

	_, err := newPipeline(cfg, nil).Run(false)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StageBirths, se.Stage)
	assert.Equal(t, "censo", se.Table)
	assert.True(t, errors.Is(err, table.ErrSchemaMismatch))

	_, statErr := os.Stat(cfg.Paths.Intermediate)
	assert.True(t, os.IsNotExist(statErr), "no intermediate written")
}

func TestMergedSchema(t *testing.T) {
	s := MergedSchema(config.Default())
	assert.Equal(t, "CENSO-Prgnc_Paciente", s.NameField)
	assert.Equal(t, "", s.Prefix)
	assert.True(t, s.DayFirst)
}
