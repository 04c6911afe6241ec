package model

import "github.com/shopspring/decimal"

// DutyComponent is one line of a duty calculation: the base rate or a single
// additive layer. Rate is an ad-valorem percentage; Amount is the duty owed
// on the declared value for this component alone.
type DutyComponent struct {
	Kind   DutyKind        `json:"kind"`
	Label  string          `json:"label"`
	Rate   float64         `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Fees are the fixed processing fees applied to every import regardless of
// tariff layers.
type Fees struct {
	MPF decimal.Decimal `json:"mpf"`
	HMF decimal.Decimal `json:"hmf"`
}

// DutyCalculationResult is the structured output of one calculation. It is
// created fresh on every call and never mutated after return.
type DutyCalculationResult struct {
	Code        string          `json:"code"`
	Description string          `json:"description"`
	Components  []DutyComponent `json:"components"`
	TotalRate   float64         `json:"total_rate"`
	DutyOnly    decimal.Decimal `json:"duty_only"`
	Fees        Fees            `json:"fees"`
	Amount      decimal.Decimal `json:"amount"`
}
