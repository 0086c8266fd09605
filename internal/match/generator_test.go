package match

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/censo-link/internal/dates"
)

func TestFilterByWindowBoundaries(t *testing.T) {
	other := partos(t,
		"D0,Ana,2020-01-01,",
		"D1,Ana,2020-01-02,",
		"D364,Ana,2020-12-30,",
		"D365,Ana,2020-12-31,",
		"DNEG,Ana,2019-12-31,",
		"DBAD,Ana,pendiente,",
	)
	anchor := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	kept := FilterByWindow(anchor, other.Records, true, DefaultParams())

	var ids []string
	for _, r := range kept {
		ids = append(ids, r.ID())
	}
	assert.Equal(t, []string{"D1", "D364", "DBAD"}, ids)
}

func TestIndexBucketsByNormalizedName(t *testing.T) {
	other := partos(t,
		"P1,María José Pérez,05/10/2020,",
		"P2,Rosa Perez,05/10/2020,",
		"P3,MARIA JOSE PEREZ,10/11/2020,",
	)

	ix := BuildIndex(other)

	assert.Equal(t, 3, ix.Len())
	bucket := ix.Lookup("maria jose perez")
	require.Len(t, bucket, 2)
	assert.Equal(t, "P1", bucket[0].ID())
	assert.Equal(t, "P3", bucket[1].ID())
	assert.Empty(t, ix.Lookup("nadie"))
}

func TestDelta(t *testing.T) {
	p := DefaultParams()
	anchor := dates.Parse("01/03/2020", true)

	assert.Equal(t, 218, Delta(anchor, dates.Parse("05/10/2020", true), p))
	assert.Equal(t, -60, Delta(anchor, dates.Parse("01/01/2020", true), p))
	assert.Equal(t, 300, Delta(anchor, dates.Parse("", true), p))
	assert.Equal(t, 300, Delta(dates.Failed("??"), dates.Parse("05/10/2020", true), p))
}

func TestChoose(t *testing.T) {
	other := partos(t,
		"P1,Ana,10/11/2020,",
		"P2,Ana,05/10/2020,",
		"P3,Ana,05/10/2020,",
		"P4,Ana,,",
	)
	p := DefaultParams()

	got := Choose(dates.Parse("01/03/2020", true), other.Records, true, p)
	assert.Equal(t, "P2", got.ID(), "ties keep input order")

	got = Choose(dates.Failed(""), other.Records, true, p)
	assert.Equal(t, "P1", got.ID(), "all deltas default without an anchor")
}
