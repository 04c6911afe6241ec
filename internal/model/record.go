// Package model defines the shared data types for classification records,
// additive duty rules, and calculation results.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DutyKind identifies one trade-remedy layer.
type DutyKind string

// Canonical duty kinds. Legacy configuration sources describe some of these
// under different type strings and labels; UnmarshalJSON folds them all into
// this set so downstream code never has to match on label text.
const (
	KindSection301 DutyKind = "section301"
	KindSection232 DutyKind = "section232"
	KindReciprocal DutyKind = "reciprocal"
	KindIEEPA      DutyKind = "ieepa"
	KindFentanyl   DutyKind = "fentanyl"
	KindOther      DutyKind = "other"
)

// Base-rate component kinds. These never appear on AdditiveDutyRule; the
// engine emits exactly one of them as the first result component.
const (
	KindMFN     DutyKind = "mfn"
	KindColumn2 DutyKind = "column2"
)

// MarshalJSON emits the canonical kind string.
func (k DutyKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(k))
}

// UnmarshalJSON accepts both canonical kinds and the legacy type strings used
// by older rule tables ("section_301", "reciprocal_tariff", "ieepa_tariff").
func (k *DutyKind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("duty kind: %w", err)
	}
	*k = NormalizeKind(raw)
	return nil
}

// NormalizeKind maps a raw kind or label string onto a canonical DutyKind.
func NormalizeKind(raw string) DutyKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "section301", "section_301", "301":
		return KindSection301
	case "section232", "section_232", "232":
		return KindSection232
	case "reciprocal", "reciprocal_tariff":
		return KindReciprocal
	case "ieepa", "ieepa_tariff":
		return KindIEEPA
	case "fentanyl":
		return KindFentanyl
	}

	// Fall back to label text for sources that never set an explicit type.
	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "fentanyl"):
		return KindFentanyl
	case strings.Contains(lower, "ieepa"):
		return KindIEEPA
	case strings.Contains(lower, "reciprocal"):
		return KindReciprocal
	case strings.Contains(lower, "301"):
		return KindSection301
	case strings.Contains(lower, "232"):
		return KindSection232
	}
	return KindOther
}

// IsReciprocalFamily reports whether this kind belongs to the reciprocal
// tariff family (reciprocal and IEEPA layers), which shares the exclusion
// flag and the USMCA origin carve-out.
func (k DutyKind) IsReciprocalFamily() bool {
	return k == KindReciprocal || k == KindIEEPA
}

// CountryScope is either the sentinel "all countries" or an explicit set of
// two-letter country codes. On the wire it appears as the string "all" (or the
// legacy "global") or as a JSON array.
type CountryScope struct {
	Countries []string
	All       bool
}

// ScopeAll is the sentinel scope matching every country.
var ScopeAll = CountryScope{All: true}

// ScopeOf builds an explicit country scope.
func ScopeOf(countries ...string) CountryScope {
	return CountryScope{Countries: countries}
}

// Contains reports whether the scope covers the given country code.
func (s CountryScope) Contains(country string) bool {
	if s.All {
		return true
	}
	for _, c := range s.Countries {
		if c == country {
			return true
		}
	}
	return false
}

// MarshalJSON writes "all" for the sentinel scope, an array otherwise.
func (s CountryScope) MarshalJSON() ([]byte, error) {
	if s.All {
		return json.Marshal("all")
	}
	return json.Marshal(s.Countries)
}

// UnmarshalJSON accepts "all"/"global" or an array of country codes.
func (s *CountryScope) UnmarshalJSON(data []byte) error {
	var sentinel string
	if err := json.Unmarshal(data, &sentinel); err == nil {
		switch strings.ToLower(sentinel) {
		case "all", "global":
			*s = ScopeAll
			return nil
		default:
			// A single bare country code.
			*s = CountryScope{Countries: []string{sentinel}}
			return nil
		}
	}

	var countries []string
	if err := json.Unmarshal(data, &countries); err != nil {
		return fmt.Errorf("country scope: %w", err)
	}
	// Legacy tables used ["global"] instead of the bare sentinel.
	if len(countries) == 1 && strings.EqualFold(countries[0], "global") {
		*s = ScopeAll
		return nil
	}
	*s = CountryScope{Countries: countries}
	return nil
}

// RateException overrides a rule's default rate for a set of countries.
type RateException struct {
	Countries []string `json:"countries"`
	Rate      float64  `json:"rate"`
}

// AdditiveDutyRule is one trade-remedy layer attached to a record. The
// effective rate for a country resolves in strict priority order: matching
// exception, then quota (when QuotaEligible), then the plain Rate.
type AdditiveDutyRule struct {
	Kind          DutyKind        `json:"kind"`
	Label         string          `json:"label"`
	Scope         CountryScope    `json:"countries"`
	Rate          float64         `json:"rate"`
	Exceptions    []RateException `json:"exceptions,omitempty"`
	QuotaEligible bool            `json:"quota_eligible,omitempty"`
}

// ExceptionRate returns the override rate for a country, if one matches.
func (r *AdditiveDutyRule) ExceptionRate(country string) (float64, bool) {
	for _, ex := range r.Exceptions {
		for _, c := range ex.Countries {
			if c == country {
				return ex.Rate, true
			}
		}
	}
	return 0, false
}

// ClassificationRecord describes one 8-digit classification code. Records are
// immutable once loaded; a cache generation bump replaces them wholesale.
type ClassificationRecord struct {
	Code           string             `json:"hts8"`
	Description    string             `json:"description"`
	BaseRate       float64            `json:"base_rate"`
	Column2Rate    float64            `json:"column2_rate,omitempty"`
	NTRSuspended   []string           `json:"ntr_suspended,omitempty"`
	AdditiveDuties []AdditiveDutyRule `json:"additive_duties,omitempty"`
}

// legacyTariff is the shape older rule tables use for reciprocal and IEEPA
// layers: one entry per country rather than a scoped rule.
type legacyTariff struct {
	Country string  `json:"country"`
	Rate    float64 `json:"rate"`
	Label   string  `json:"label"`
}

// UnmarshalJSON decodes a record and normalizes every rule source it may
// carry. Legacy reciprocal_tariffs and ieepa_tariffs arrays are folded into
// AdditiveDuties as tagged rules, in document order after the shared table
// rules. Duplicate instances reached through both paths survive here; the
// engine deduplicates on (kind, effective rate).
func (rec *ClassificationRecord) UnmarshalJSON(data []byte) error {
	type alias ClassificationRecord
	aux := struct {
		*alias
		BriefDescription  string         `json:"brief_description"`
		ReciprocalTariffs []legacyTariff `json:"reciprocal_tariffs"`
		IEEPATariffs      []legacyTariff `json:"ieepa_tariffs"`
	}{alias: (*alias)(rec)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return fmt.Errorf("classification record: %w", err)
	}
	if rec.Description == "" {
		rec.Description = aux.BriefDescription
	}

	for _, t := range aux.ReciprocalTariffs {
		rec.AdditiveDuties = append(rec.AdditiveDuties, AdditiveDutyRule{
			Kind:  NormalizeKind(t.Label),
			Label: t.Label,
			Scope: ScopeOf(t.Country),
			Rate:  t.Rate,
		})
	}
	for _, t := range aux.IEEPATariffs {
		rec.AdditiveDuties = append(rec.AdditiveDuties, AdditiveDutyRule{
			Kind:  KindIEEPA,
			Label: t.Label,
			Scope: ScopeOf(t.Country),
			Rate:  t.Rate,
		})
	}
	return nil
}

// Chapter returns the 2-digit chapter prefix of the record's code.
func (rec *ClassificationRecord) Chapter() string {
	if len(rec.Code) < 2 {
		return rec.Code
	}
	return rec.Code[:2]
}

// IsNTRSuspendedFor reports whether the origin country takes the punitive
// Column 2 rate for this record.
func (rec *ClassificationRecord) IsNTRSuspendedFor(country string) bool {
	for _, c := range rec.NTRSuspended {
		if c == country {
			return true
		}
	}
	return false
}
