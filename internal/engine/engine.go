// Package engine computes landed import duty for a classification code:
// the base rate column, stacked trade-remedy layers, and statutory fees.
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tariffdesk/dutycalc/internal/common"
	"github.com/tariffdesk/dutycalc/internal/model"
	"github.com/tariffdesk/dutycalc/internal/rules"
	"github.com/tariffdesk/dutycalc/internal/service"
)

// Options adjust a single calculation.
type Options struct {
	// ExcludeReciprocalTariff drops every reciprocal-family layer, used to
	// show a shipment's cost with and without those measures.
	ExcludeReciprocalTariff bool
	// IsUSMCAOrigin asserts a valid USMCA certificate of origin. Only
	// meaningful for Canada and Mexico, where it lifts the reciprocal-family
	// layers.
	IsUSMCAOrigin bool
	// IsReciprocalAdditive is accepted for compatibility with older callers.
	// Reciprocal layers always stack additively, so the flag has no effect.
	IsReciprocalAdditive bool
}

// Engine computes duty results from classification records and the static
// rule tables. It is stateless and safe for concurrent use.
type Engine struct {
	source service.RecordSource
	tables *rules.Tables
}

// New creates an engine over the given record source and rule tables.
func New(source service.RecordSource, tables *rules.Tables) *Engine {
	return &Engine{source: source, tables: tables}
}

// Calculate computes the full duty breakdown for one shipment line: base
// rate, additive trade-remedy layers in document order, fees, and totals.
// An unknown classification code reports common.ErrNotFound.
func (e *Engine) Calculate(ctx context.Context, code string, declaredValue float64, country string, opts Options) (*model.DutyCalculationResult, error) {
	if code == "" {
		return nil, fmt.Errorf("classification code is required")
	}
	if declaredValue <= 0 {
		return nil, fmt.Errorf("declared value must be positive, got %v", declaredValue)
	}

	record, err := e.source.Lookup(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", code, err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: no classification record for %s", common.ErrNotFound, code)
	}

	value := decimal.NewFromFloat(declaredValue)

	result := &model.DutyCalculationResult{
		Code:        record.Code,
		Description: record.Description,
	}

	base := e.baseComponent(record, country, value)
	result.Components = append(result.Components, base)

	// Customs territories take the rules of their governing country for the
	// additive layers (HK and MO take CN measures).
	scopeCountry := e.tables.NormalizeCountry(country)
	usmcaCarveOut := opts.IsUSMCAOrigin && e.tables.IsUSMCA(country)

	type componentKey struct {
		kind model.DutyKind
		rate float64
	}
	seen := map[componentKey]bool{
		{kind: base.Kind, rate: base.Rate}: true,
	}

	for i := range record.AdditiveDuties {
		rule := &record.AdditiveDuties[i]

		if rule.Kind.IsReciprocalFamily() && (opts.ExcludeReciprocalTariff || usmcaCarveOut) {
			continue
		}
		if e.tables.ChapterExempt(rule.Kind, record.Code) {
			continue
		}
		if !rule.Scope.Contains(scopeCountry) && !rule.Scope.Contains(country) {
			continue
		}

		rate := e.effectiveRate(rule, country, scopeCountry, record.Code)

		key := componentKey{kind: rule.Kind, rate: rate}
		if seen[key] {
			// The same measure reachable through two rule sources counts once.
			continue
		}
		seen[key] = true

		result.Components = append(result.Components, model.DutyComponent{
			Kind:   rule.Kind,
			Label:  rule.Label,
			Rate:   rate,
			Amount: amountFor(value, rate),
		})
	}

	for _, c := range result.Components {
		result.TotalRate += c.Rate
		result.DutyOnly = result.DutyOnly.Add(c.Amount)
	}
	result.Fees = model.Fees{
		MPF: CalculateMPF(value),
		HMF: CalculateHMF(value),
	}
	result.Amount = result.DutyOnly.Add(result.Fees.MPF).Add(result.Fees.HMF)

	return result, nil
}

// baseComponent resolves the base rate column. Countries under NTR suspension
// (per-record set first, static table as fallback) take the Column 2 rate;
// everyone else takes the MFN rate.
func (e *Engine) baseComponent(record *model.ClassificationRecord, country string, value decimal.Decimal) model.DutyComponent {
	suspended := false
	if len(record.NTRSuspended) > 0 {
		suspended = record.IsNTRSuspendedFor(country)
	} else {
		suspended = e.tables.TakesColumn2(country)
	}

	if suspended {
		return model.DutyComponent{
			Kind:   model.KindColumn2,
			Label:  "Column 2 Rate (NTR Suspended)",
			Rate:   record.Column2Rate,
			Amount: amountFor(value, record.Column2Rate),
		}
	}
	return model.DutyComponent{
		Kind:   model.KindMFN,
		Label:  "Base Rate (MFN)",
		Rate:   record.BaseRate,
		Amount: amountFor(value, record.BaseRate),
	}
}

// effectiveRate resolves one rule's rate for a country in strict priority
// order: a matching per-country exception wins outright, then the over-quota
// rate for quota-eligible rules, then the rule's plain rate. The engine has no
// visibility into quota consumption, so quota-eligible shipments always price
// at the over-quota rate.
func (e *Engine) effectiveRate(rule *model.AdditiveDutyRule, country, scopeCountry, code string) float64 {
	if rate, ok := rule.ExceptionRate(country); ok {
		return rate
	}
	if country != scopeCountry {
		if rate, ok := rule.ExceptionRate(scopeCountry); ok {
			return rate
		}
	}
	if rule.QuotaEligible {
		if rate, ok := e.tables.OverQuotaRate(scopeCountry, code); ok {
			return rate
		}
	}
	return rule.Rate
}

func amountFor(value decimal.Decimal, rate float64) decimal.Decimal {
	return value.Mul(decimal.NewFromFloat(rate)).Div(decimal.NewFromInt(100))
}

// ReciprocalImpact contrasts a shipment's duty with and without the
// reciprocal-family layers.
type ReciprocalImpact struct {
	With       *model.DutyCalculationResult `json:"with"`
	Without    *model.DutyCalculationResult `json:"without"`
	Difference decimal.Decimal              `json:"difference"`
	// RateDifference is the ad-valorem percentage attributable to the
	// reciprocal-family layers.
	RateDifference float64 `json:"rate_difference"`
}

// CompareReciprocal runs the calculation twice, with and without the
// reciprocal-family layers, and reports the cost difference.
func (e *Engine) CompareReciprocal(ctx context.Context, code string, declaredValue float64, country string, isUSMCAOrigin bool) (*ReciprocalImpact, error) {
	with, err := e.Calculate(ctx, code, declaredValue, country, Options{
		IsUSMCAOrigin: isUSMCAOrigin,
	})
	if err != nil {
		return nil, err
	}
	without, err := e.Calculate(ctx, code, declaredValue, country, Options{
		ExcludeReciprocalTariff: true,
		IsUSMCAOrigin:           isUSMCAOrigin,
	})
	if err != nil {
		return nil, err
	}

	return &ReciprocalImpact{
		With:           with,
		Without:        without,
		Difference:     with.Amount.Sub(without.Amount),
		RateDifference: with.TotalRate - without.TotalRate,
	}, nil
}
