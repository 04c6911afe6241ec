// Package rules holds the static trade-remedy configuration: quota
// participation, chapter-level exemptions, country aliases, and the
// pre-warm priority order. Tables are loaded once and never mutated.
package rules

import (
	"log/slog"
	"strings"

	"github.com/tariffdesk/dutycalc/internal/model"
)

// MaterialClass identifies the quota-eligible chapter classes.
type MaterialClass string

const (
	MaterialNone     MaterialClass = ""
	MaterialSteel    MaterialClass = "steel"
	MaterialAluminum MaterialClass = "aluminum"
)

// QuotaCountryInfo holds the tariff-rate-quota rates for one country and
// material class. The engine has no visibility into shipped quota volume and
// always applies the over-quota rate; the in-quota rate is carried so that
// consumption tracking can be added without a schema change.
type QuotaCountryInfo struct {
	InQuotaRate   float64
	OverQuotaRate float64
}

// Tables is the full immutable rule configuration.
type Tables struct {
	// ntrSuspended is the fallback NTR-suspended list applied when a record
	// carries no per-record set.
	ntrSuspended map[string]bool
	// column2Legacy are countries that historically took Column 2 rates.
	column2Legacy map[string]bool
	// aliases maps customs territories onto the country whose trade-remedy
	// rules govern them.
	aliases map[string]string
	// usmca are countries eligible for the origin-certificate carve-out.
	usmca map[string]bool
	// quota maps country -> material class -> quota rates.
	quota map[string]map[MaterialClass]QuotaCountryInfo
	// exemptChapters maps duty kind -> code prefixes exempt from that layer.
	exemptChapters map[model.DutyKind][]string
	// priorityChapters orders chapters by historical US import volume for
	// the background pre-warmer.
	priorityChapters []string
}

// Default returns the production rule tables.
func Default() *Tables {
	t := &Tables{
		ntrSuspended:  set("RU", "BY"),
		column2Legacy: set("CU", "KP"),
		aliases: map[string]string{
			"HK": "CN",
			"MO": "CN",
			"UK": "GB",
		},
		usmca: set("CA", "MX"),
		quota: make(map[string]map[MaterialClass]QuotaCountryInfo),
		exemptChapters: map[model.DutyKind][]string{
			// Steel, aluminum, and semiconductors are carved out of the
			// reciprocal layer (steel/aluminum already carry section 232).
			model.KindReciprocal: {"72", "73", "76", "8541", "8542"},
			// Energy and potash are carved out of the anti-evasion layer.
			model.KindFentanyl: {"27", "3104"},
		},
		priorityChapters: []string{
			// Top priority by import value.
			"85", "84", "87", "94", "39", "90", "30",
			// Medium priority.
			"71", "95", "61", "62", "64", "42", "73",
			// Other major categories.
			"29", "40", "48", "72", "76", "27", "96",
		},
	}

	// Countries with both steel and aluminum quota arrangements at the
	// standard 0% in-quota / 50% over-quota rates.
	standard := []string{
		"AR", "BR", "KR",
		"AT", "BE", "BG", "HR", "CY", "CZ", "DK", "EE", "FI", "FR", "DE",
		"GR", "HU", "IE", "IT", "LV", "LT", "LU", "MT", "NL", "PL", "PT",
		"RO", "SK", "SI", "ES", "SE", "EU",
	}
	for _, c := range standard {
		t.quota[c] = map[MaterialClass]QuotaCountryInfo{
			MaterialSteel:    {InQuotaRate: 0, OverQuotaRate: 50},
			MaterialAluminum: {InQuotaRate: 0, OverQuotaRate: 50},
		}
	}
	// The UK arrangement keeps the reduced 25% over-quota rate.
	t.quota["GB"] = map[MaterialClass]QuotaCountryInfo{
		MaterialSteel:    {InQuotaRate: 0, OverQuotaRate: 25},
		MaterialAluminum: {InQuotaRate: 0, OverQuotaRate: 25},
	}

	return t
}

func set(codes ...string) map[string]bool {
	m := make(map[string]bool, len(codes))
	for _, c := range codes {
		m[c] = true
	}
	return m
}

// NormalizeCountry maps a customs territory onto the country whose additive
// duty rules govern it (e.g. HK and MO take CN rules).
func (t *Tables) NormalizeCountry(country string) string {
	if alias, ok := t.aliases[country]; ok {
		return alias
	}
	return country
}

// IsNTRSuspended reports whether the fallback NTR-suspended list covers the
// country. A record's own set, when present, takes precedence.
func (t *Tables) IsNTRSuspended(country string) bool {
	return t.ntrSuspended[country]
}

// TakesColumn2 reports whether the country takes Column 2 rates, either via
// NTR suspension or the legacy Column 2 list.
func (t *Tables) TakesColumn2(country string) bool {
	return t.ntrSuspended[country] || t.column2Legacy[country]
}

// IsUSMCA reports whether the country participates in the USMCA
// origin-certificate carve-out.
func (t *Tables) IsUSMCA(country string) bool {
	return t.usmca[country]
}

// MaterialClassOf classes a code by chapter: 72-73 steel, 76 aluminum.
func MaterialClassOf(code string) MaterialClass {
	switch {
	case strings.HasPrefix(code, "72"), strings.HasPrefix(code, "73"):
		return MaterialSteel
	case strings.HasPrefix(code, "76"):
		return MaterialAluminum
	}
	return MaterialNone
}

// OverQuotaRate returns the over-quota rate for a country and code. The
// second return is false when no quota applies: either the code's chapter is
// not a quota material class, or the country has no entry in the quota table
// (a config gap, degraded to "no quota applies" rather than an error).
func (t *Tables) OverQuotaRate(country, code string) (float64, bool) {
	class := MaterialClassOf(code)
	if class == MaterialNone {
		return 0, false
	}
	byClass, ok := t.quota[country]
	if !ok {
		slog.Debug("No quota table entry for country, quota does not apply",
			"country", country, "code", code)
		return 0, false
	}
	info, ok := byClass[class]
	if !ok {
		return 0, false
	}
	return info.OverQuotaRate, true
}

// ChapterExempt reports whether the code's chapter is statically exempt from
// the given duty kind.
func (t *Tables) ChapterExempt(kind model.DutyKind, code string) bool {
	for _, prefix := range t.exemptChapters[kind] {
		if strings.HasPrefix(code, prefix) {
			return true
		}
	}
	return false
}

// PriorityChapters returns the chapter prefixes in pre-warm order, highest
// import volume first. The returned slice must not be modified.
func (t *Tables) PriorityChapters() []string {
	return t.priorityChapters
}
