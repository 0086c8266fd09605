package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		dayFirst bool
		want     time.Time
		ok       bool
	}{
		{
			name:     "day first ambiguous",
			raw:      "01/03/2020",
			dayFirst: true,
			want:     time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "month first ambiguous",
			raw:      "01/03/2020",
			dayFirst: false,
			want:     time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "day first with time",
			raw:      "10/11/2020 14:30",
			dayFirst: true,
			want:     time.Date(2020, 11, 10, 14, 30, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "iso",
			raw:      "2019-07-21",
			dayFirst: true,
			want:     time.Date(2019, 7, 21, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "day first dotted",
			raw:      "5.10.2020",
			dayFirst: true,
			want:     time.Date(2020, 10, 5, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "day first dashed",
			raw:      "05-10-2020",
			dayFirst: true,
			want:     time.Date(2020, 10, 5, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "unambiguous day first dashed",
			raw:      "25-10-2020",
			dayFirst: true,
			want:     time.Date(2020, 10, 25, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "unambiguous day first dotted",
			raw:      "25.10.2020",
			dayFirst: true,
			want:     time.Date(2020, 10, 25, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "day first dotted with time",
			raw:      "05.10.2020 14:30",
			dayFirst: true,
			want:     time.Date(2020, 10, 5, 14, 30, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "month first dashed",
			raw:      "10-25-2020",
			dayFirst: false,
			want:     time.Date(2020, 10, 25, 0, 0, 0, 0, time.UTC),
			ok:       true,
		},
		{
			name:     "blank",
			raw:      "   ",
			dayFirst: true,
		},
		{
			name:     "garbage",
			raw:      "sin dato",
			dayFirst: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw, tt.dayFirst)
			require.Equal(t, tt.ok, got.OK)
			assert.Equal(t, tt.raw, got.Raw)
			if tt.ok {
				assert.True(t, tt.want.Equal(got.Time), "got %v want %v", got.Time, tt.want)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	anchor := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, DaysBetween(anchor, anchor))
	assert.Equal(t, 1, DaysBetween(anchor, anchor.AddDate(0, 0, 1)))
	assert.Equal(t, 364, DaysBetween(anchor, anchor.AddDate(0, 0, 364)))
	assert.Equal(t, 0, DaysBetween(anchor, anchor.Add(23*time.Hour)))
	assert.Equal(t, -2, DaysBetween(anchor, anchor.Add(-36*time.Hour)))
	assert.Equal(t, 218, DaysBetween(anchor, time.Date(2020, 10, 5, 0, 0, 0, 0, time.UTC)))
}

func TestYear(t *testing.T) {
	y, ok := Parse("12/31/2018", false).Year()
	require.True(t, ok)
	assert.Equal(t, 2018, y)

	_, ok = Failed("x").Year()
	assert.False(t, ok)
}
