package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tariffdesk/dutycalc/internal/model"
)

func TestNormalizeCountry(t *testing.T) {
	tables := Default()

	assert.Equal(t, "CN", tables.NormalizeCountry("HK"))
	assert.Equal(t, "CN", tables.NormalizeCountry("MO"))
	assert.Equal(t, "GB", tables.NormalizeCountry("UK"))
	assert.Equal(t, "DE", tables.NormalizeCountry("DE"))
}

func TestColumn2Countries(t *testing.T) {
	tables := Default()

	assert.True(t, tables.IsNTRSuspended("RU"))
	assert.True(t, tables.IsNTRSuspended("BY"))
	assert.False(t, tables.IsNTRSuspended("CU"))

	assert.True(t, tables.TakesColumn2("RU"))
	assert.True(t, tables.TakesColumn2("CU"))
	assert.True(t, tables.TakesColumn2("KP"))
	assert.False(t, tables.TakesColumn2("CN"))
}

func TestMaterialClassOf(t *testing.T) {
	assert.Equal(t, MaterialSteel, MaterialClassOf("72011000"))
	assert.Equal(t, MaterialSteel, MaterialClassOf("73011000"))
	assert.Equal(t, MaterialAluminum, MaterialClassOf("76011000"))
	assert.Equal(t, MaterialNone, MaterialClassOf("85411000"))
}

func TestOverQuotaRate(t *testing.T) {
	tables := Default()

	tests := []struct {
		name    string
		country string
		code    string
		want    float64
		ok      bool
	}{
		{name: "standard country steel", country: "DE", code: "72011000", want: 50, ok: true},
		{name: "standard country aluminum", country: "KR", code: "76011000", want: 50, ok: true},
		{name: "uk reduced rate", country: "GB", code: "72011000", want: 25, ok: true},
		{name: "non-quota country degrades to no quota", country: "CN", code: "72011000", ok: false},
		{name: "non-material chapter has no quota", country: "DE", code: "85411000", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rate, ok := tables.OverQuotaRate(tt.country, tt.code)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, rate, 1e-9)
			}
		})
	}
}

func TestChapterExempt(t *testing.T) {
	tables := Default()

	// Steel, aluminum, and semiconductors sit outside the reciprocal layer.
	assert.True(t, tables.ChapterExempt(model.KindReciprocal, "72011000"))
	assert.True(t, tables.ChapterExempt(model.KindReciprocal, "76011000"))
	assert.True(t, tables.ChapterExempt(model.KindReciprocal, "85411000"))
	assert.True(t, tables.ChapterExempt(model.KindReciprocal, "85423100"))
	assert.False(t, tables.ChapterExempt(model.KindReciprocal, "85044095"))

	// Energy and potash sit outside the anti-evasion layer.
	assert.True(t, tables.ChapterExempt(model.KindFentanyl, "27090020"))
	assert.True(t, tables.ChapterExempt(model.KindFentanyl, "31042000"))
	assert.False(t, tables.ChapterExempt(model.KindFentanyl, "31051000"))

	// Exemptions never cross kinds.
	assert.False(t, tables.ChapterExempt(model.KindSection232, "72011000"))
	assert.False(t, tables.ChapterExempt(model.KindIEEPA, "31042000"))
}

func TestPriorityChapters(t *testing.T) {
	chapters := Default().PriorityChapters()

	require.NotEmpty(t, chapters)
	// Electronics lead the queue; every entry is a 2-digit chapter.
	assert.Equal(t, "85", chapters[0])
	for _, c := range chapters {
		assert.Len(t, c, 2)
	}
}

func TestIsUSMCA(t *testing.T) {
	tables := Default()

	assert.True(t, tables.IsUSMCA("CA"))
	assert.True(t, tables.IsUSMCA("MX"))
	assert.False(t, tables.IsUSMCA("CN"))
}
