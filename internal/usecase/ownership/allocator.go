package ownership

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
)

// SplitValue divides total across holders in proportion to their weights
// Returns a map of holder to allocated amount, rounded to places
// Logic:
//  1. Give each holder its proportional share rounded DOWN to places
//  2. Hand the leftover smallest units out one at a time, largest remainder first
//  3. Ties on the remainder go to the holder with the larger weight, then by name
//
// Safety: Ensures the parts add up to total (rounded to places) exactly
func SplitValue(total decimal.Decimal, weights map[string]decimal.Decimal, places int32) (map[string]decimal.Decimal, error) {
	if total.IsNegative() {
		return nil, errors.New("total value cannot be negative")
	}

	if len(weights) == 0 {
		return nil, errors.New("weights cannot be empty")
	}

	sum := decimal.Zero
	for _, w := range weights {
		if w.IsNegative() {
			return nil, errors.New("weights cannot be negative")
		}
		sum = sum.Add(w)
	}
	if sum.IsZero() {
		return nil, errors.New("weights must not all be zero")
	}

	target := total.RoundBank(places)
	step := decimal.New(1, -places)

	type share struct {
		holder    string
		weight    decimal.Decimal
		remainder decimal.Decimal
	}

	allocation := make(map[string]decimal.Decimal, len(weights))
	shares := make([]share, 0, len(weights))
	allocated := decimal.Zero

	// Step 1: Floor every proportional share
	for holder, w := range weights {
		exact := target.Mul(w).Div(sum)
		floored := exact.RoundDown(places)
		allocation[holder] = floored
		allocated = allocated.Add(floored)
		shares = append(shares, share{holder: holder, weight: w, remainder: exact.Sub(floored)})
	}

	// Step 2: Distribute the leftover, largest remainder first
	sort.Slice(shares, func(i, j int) bool {
		if c := shares[i].remainder.Cmp(shares[j].remainder); c != 0 {
			return c > 0
		}
		if c := shares[i].weight.Cmp(shares[j].weight); c != 0 {
			return c > 0
		}
		return shares[i].holder < shares[j].holder
	})

	leftover := target.Sub(allocated)
	for i := 0; leftover.GreaterThanOrEqual(step) && i < len(shares); i++ {
		allocation[shares[i].holder] = allocation[shares[i].holder].Add(step)
		leftover = leftover.Sub(step)
	}

	// Safety check: Ensure the parts equal the total exactly
	totalAllocated := decimal.Zero
	for _, amount := range allocation {
		totalAllocated = totalAllocated.Add(amount)
	}

	if !totalAllocated.Equal(target) {
		return nil, errors.New("total allocation does not equal total value")
	}

	return allocation, nil
}
