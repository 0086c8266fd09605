package match

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/censo-link/internal/table"
)

func TestLayoutColumnsSortedUnion(t *testing.T) {
	base := censo(t, "C1,Ana,01/03/2020")
	other := partos(t, "P1,Ana,05/10/2020,")

	cols := Pass{Base: base, Other: other}.Layout().Columns()

	assert.Equal(t, []string{
		"CENSO-CSALMATID",
		"CENSO-Prgnc_Fecha_de_ultima_menstruacion",
		"CENSO-Prgnc_Paciente",
		"PARTOS-CAMATID",
		"PARTOS-DIRECCION",
		"PARTOS-FECHA Y HORA DE NACIMIENTO",
		"PARTOS-NOMBRE ",
		"has-anchor-date",
		"partos-community-match",
		"partos-match",
		"partos-name-match-score",
		"partos-no-match-candidates",
	}, cols)
}

func TestRenderKeepsCarriedAnchorFlag(t *testing.T) {
	merged := &table.Schema{
		Table:     "censo",
		IDField:   "CENSO-CSALMATID",
		NameField: "CENSO-Prgnc_Paciente",
		DateField: "CENSO-Prgnc_Fecha_de_ultima_menstruacion",
		DayFirst:  true,
	}
	header := []string{"CENSO-CSALMATID", "CENSO-Prgnc_Paciente", "CENSO-Prgnc_Fecha_de_ultima_menstruacion", HasAnchorDateColumn}
	rec := table.NewRecord(merged, header, []string{"C1", "", "01/03/2020", "1"})

	refs := &table.Schema{Table: "refs", Prefix: "REFS-", IDField: "ID", NameField: "NOMBRE", DateField: "FECHA"}
	l := Layout{Base: merged, BaseHeader: header, Other: refs, OtherHeader: []string{"ID", "NOMBRE", "FECHA"}}

	out := l.Render(Row{Outcome: NoBaseName, Base: &rec})
	assert.Equal(t, "1", out[HasAnchorDateColumn], "unevaluated rows keep the carried flag")

	out = l.Render(Row{Outcome: NoCandidatesInWindow, Base: &rec})
	assert.Equal(t, "1", out[HasAnchorDateColumn], "no-candidate rows keep the carried flag")
	assert.Equal(t, "1", out["refs-no-match-candidates"])

	out = l.Render(Row{Outcome: NoNameMatch, Base: &rec, AnchorChecked: true, HasAnchor: false})
	assert.Equal(t, "0", out[HasAnchorDateColumn], "an evaluated anchor wins")
	assert.Equal(t, "", out["REFS-ID"])
	assert.Equal(t, "0", out["refs-match"])
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "name_matched", NameMatched.String())
	assert.Equal(t, "community_matched", CommunityMatched.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
