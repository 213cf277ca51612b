package engine

import (
	"fmt"
	"math"
)

// Tier is one entry of a bracket table: an upper boundary plus payload
// fields such as "rate" or "value".
//
// The boundary is read from the "boundary" field, falling back to "max".
// It may be a finite number or positive infinity ("Infinity" in JSON).
type Tier map[string]any

// Boundary field names, in lookup order.
const (
	TierFieldBoundary = "boundary"
	TierFieldMax      = "max"
	TierFieldRate     = "rate"
	TierFieldValue    = "value"
)

// Boundary resolves the tier's upper boundary.
func (t Tier) Boundary() (float64, error) {
	raw, ok := t[TierFieldBoundary]
	if !ok {
		raw, ok = t[TierFieldMax]
	}
	if !ok {
		return 0, &Error{
			Code:    ErrCodeInvalidNumber,
			Message: "tier has no boundary",
			Key:     TierFieldBoundary,
		}
	}
	return ValidNumberOrInfinite(raw)
}

// Number resolves a payload field as a finite number.
func (t Tier) Number(field string) (float64, error) {
	raw, ok := t[field]
	if !ok {
		return 0, NewKeyNotFoundError(field)
	}
	f, err := ValidNumber(raw)
	if err != nil {
		return 0, NewNonNumericValueError(field, raw)
	}
	return f, nil
}

// TiersFrom converts a table value (as decoded from JSON) into tiers.
func TiersFrom(table any) ([]Tier, error) {
	switch t := table.(type) {
	case []Tier:
		return t, nil
	case []map[string]any:
		tiers := make([]Tier, len(t))
		for i, m := range t {
			tiers[i] = Tier(m)
		}
		return tiers, nil
	case []any:
		tiers := make([]Tier, len(t))
		for i, elem := range t {
			m, ok := elem.(map[string]any)
			if !ok {
				return nil, NewTypeMismatchError(fmt.Sprintf("[%d]", i), "tier object", elem)
			}
			tiers[i] = Tier(m)
		}
		return tiers, nil
	default:
		return nil, NewTypeMismatchError("", "tier table", table)
	}
}

// TierFunc folds one qualifying tier into the accumulator. prior is the
// boundary of the previous tier (0 for the first).
type TierFunc[A any] func(acc A, tier Tier, prior, input float64) (A, error)

// FoldTiers walks tiers in order, invoking fn for every tier whose lower
// bound (the previous boundary) is at or below input.
//
// Every boundary must be strictly greater than the one before it, starting
// from 0; the check covers all tiers, not only qualifying ones. An empty
// table returns zero unchanged, as does a negative input.
func FoldTiers[A any](tiers []Tier, input float64, zero A, fn TierFunc[A]) (A, error) {
	acc := zero
	prior := 0.0
	for i, tier := range tiers {
		boundary, err := tier.Boundary()
		if err != nil {
			return zero, err
		}
		if boundary <= prior {
			return zero, NewNonMonotonicTiersError(i, boundary, prior)
		}
		if input >= prior {
			acc, err = fn(acc, tier, prior, input)
			if err != nil {
				return zero, err
			}
		}
		prior = boundary
	}
	return acc, nil
}

// AdditiveTiers adds the "value" of every qualifying tier. Tiers cascade:
// an input in the third bracket collects the first three values.
func AdditiveTiers(acc float64, tier Tier, _, _ float64) (float64, error) {
	value, err := tier.Number(TierFieldValue)
	if err != nil {
		return 0, err
	}
	return acc + value, nil
}

// MarginalTax adds the tax owed within one bracket: the part of input above
// prior, capped at the bracket width, times the tier "rate" percentage.
func MarginalTax(acc float64, tier Tier, prior, input float64) (float64, error) {
	rate, err := tier.Number(TierFieldRate)
	if err != nil {
		return 0, err
	}
	boundary, err := tier.Boundary()
	if err != nil {
		return 0, err
	}
	amount := math.Max(input-prior, 0)
	limit := math.Inf(1)
	if !math.IsInf(boundary, 1) {
		limit = boundary - prior
	}
	return acc + LimitedPercentage(amount, limit, rate), nil
}

// LimitedPercentage returns rate percent of amount, with amount capped at limit.
func LimitedPercentage(amount, limit, rate float64) float64 {
	return math.Min(amount, limit) * rate / 100
}

// TaxForTiers applies the marginal fold to a table value.
func TaxForTiers(table any, input float64) (float64, error) {
	tiers, err := TiersFrom(table)
	if err != nil {
		return 0, err
	}
	return FoldTiers(tiers, input, 0.0, MarginalTax)
}

// LookupTiers applies the additive fold to a table value.
func LookupTiers(table any, input float64) (float64, error) {
	tiers, err := TiersFrom(table)
	if err != nil {
		return 0, err
	}
	return FoldTiers(tiers, input, 0.0, AdditiveTiers)
}
