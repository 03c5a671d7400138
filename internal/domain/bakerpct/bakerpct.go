// Package bakerpct holds the baker's-percentage math used by recipes and the
// formula read-model. Everything here is pure; callers own persistence.
package bakerpct

import (
	"math"

	"github.com/google/uuid"
)

// FlourTotal is the percentage every recipe's flour entries add up to.
const FlourTotal = 100.0

// flourTolerance absorbs float drift when validating flour totals.
const flourTolerance = 0.01

// Mode says how an ingredient amount is interpreted.
type Mode string

const (
	ModePercentage  Mode = "PERCENTAGE"
	ModeFixedWeight Mode = "FIXED_WEIGHT"
)

func (m Mode) Valid() bool {
	return m == ModePercentage || m == ModeFixedWeight
}

// Entry is one ingredient line of a recipe as seen by the percentage math.
type Entry struct {
	Amount     float64
	CategoryID uuid.UUID
	Mode       Mode
}

func (e Entry) isFlour(flourCategoryID uuid.UUID) bool {
	return e.CategoryID == flourCategoryID && e.Mode == ModePercentage
}

// Round2 rounds half-up to two decimals.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return math.Floor(v*100+0.5) / 100
}

func amount(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

// flourIndexes returns indexes of flour PERCENTAGE entries in order.
func flourIndexes(entries []Entry, flourCategoryID uuid.UUID) []int {
	out := make([]int, 0, len(entries))
	for i, e := range entries {
		if e.isFlour(flourCategoryID) {
			out = append(out, i)
		}
	}
	return out
}

func sumExcept(entries []Entry, idx []int, skip ...int) float64 {
	sum := 0.0
outer:
	for _, i := range idx {
		for _, s := range skip {
			if i == s {
				continue outer
			}
		}
		sum += amount(entries[i].Amount)
	}
	return sum
}

// EnforceFlourPercentage returns the value an edit of entries[changedIndex] to
// newValue is allowed to take. NaN and negatives become 0, the value is
// clamped so the flour total never exceeds 100, and when the edited entry is
// the last of two or more flours it is forced to fill the remainder.
func EnforceFlourPercentage(entries []Entry, flourCategoryID uuid.UUID, changedIndex int, newValue float64) float64 {
	flours := flourIndexes(entries, flourCategoryID)
	sumOthers := sumExcept(entries, flours, changedIndex)

	val := amount(newValue)
	if val < 0 {
		val = 0
	}
	if val+sumOthers > FlourTotal {
		val = math.Max(0, FlourTotal-sumOthers)
	}
	if len(flours) > 1 && changedIndex == flours[len(flours)-1] {
		val = math.Max(0, FlourTotal-sumOthers)
	}
	return val
}

// RebalanceFlourEdit applies an edit and lets the last flour entry absorb the
// remainder so the flour total stays at 100. Editing the last flour entry
// itself, or a non-flour entry, only touches that entry.
func RebalanceFlourEdit(entries []Entry, flourCategoryID uuid.UUID, changedIndex int, newValue float64) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	if changedIndex < 0 || changedIndex >= len(out) {
		return out
	}
	if !out[changedIndex].isFlour(flourCategoryID) {
		out[changedIndex].Amount = math.Max(0, amount(newValue))
		return out
	}

	flours := flourIndexes(out, flourCategoryID)
	last := flours[len(flours)-1]
	if len(flours) == 1 || changedIndex == last {
		out[changedIndex].Amount = EnforceFlourPercentage(out, flourCategoryID, changedIndex, newValue)
		return out
	}

	fixed := sumExcept(out, flours, changedIndex, last)
	val := math.Max(0, amount(newValue))
	if val+fixed > FlourTotal {
		val = math.Max(0, FlourTotal-fixed)
	}
	out[changedIndex].Amount = val
	out[last].Amount = math.Max(0, FlourTotal-fixed-val)
	return out
}

// TotalFlourWeight sums flour PERCENTAGE amounts.
func TotalFlourWeight(entries []Entry, flourCategoryID uuid.UUID) float64 {
	return Round2(sumExcept(entries, flourIndexes(entries, flourCategoryID)))
}

// IsValidFlourPercentageTotal reports whether flour entries sum to 100 within tolerance.
func IsValidFlourPercentageTotal(entries []Entry, flourCategoryID uuid.UUID) bool {
	total := sumExcept(entries, flourIndexes(entries, flourCategoryID))
	return math.Abs(total-FlourTotal) < flourTolerance
}

func Hydration(flourWeight, waterWeight float64) float64 {
	if flourWeight <= 0 {
		return 0
	}
	return Round2(waterWeight / flourWeight * 100)
}

func WaterForHydration(flourWeight, hydrationPct float64) float64 {
	return Round2(flourWeight * hydrationPct / 100)
}

func BakersPercentage(ingredientWeight, flourWeight float64) float64 {
	if flourWeight <= 0 {
		return 0
	}
	return Round2(ingredientWeight / flourWeight * 100)
}

func WeightFromPercentage(pct, flourWeight float64) float64 {
	return Round2(pct * flourWeight / 100)
}

// TotalDoughWeight converts PERCENTAGE entries against flourWeight and adds
// FIXED_WEIGHT entries as-is.
func TotalDoughWeight(entries []Entry, flourWeight float64) float64 {
	total := 0.0
	for _, e := range entries {
		if e.Mode == ModePercentage {
			total += WeightFromPercentage(amount(e.Amount), flourWeight)
			continue
		}
		total += amount(e.Amount)
	}
	return Round2(total)
}
