package bakerpct

// Line is one scaled ingredient of a formula, index-aligned with the input.
type Line struct {
	Index      int     `json:"index"`
	Mode       Mode    `json:"calculation_mode"`
	Percentage float64 `json:"percentage"`
	Weight     float64 `json:"weight"`
}

type Formula struct {
	TargetWeight float64 `json:"target_weight"`
	FlourWeight  float64 `json:"flour_weight"`
	TotalWeight  float64 `json:"total_weight"`
	Lines        []Line  `json:"lines"`
}

// ScaleFormula derives the flour weight that makes the dough hit
// targetWeight and converts every entry to grams. Fixed weights are taken
// off the target first; the rest is split by percentage.
func ScaleFormula(entries []Entry, targetWeight float64) Formula {
	out := Formula{TargetWeight: Round2(amount(targetWeight)), Lines: make([]Line, 0, len(entries))}

	pctSum, fixed := 0.0, 0.0
	for _, e := range entries {
		if e.Mode == ModePercentage {
			pctSum += amount(e.Amount)
		} else {
			fixed += amount(e.Amount)
		}
	}
	if pctSum > 0 && out.TargetWeight > fixed {
		out.FlourWeight = Round2((out.TargetWeight - fixed) * 100 / pctSum)
	}

	for i, e := range entries {
		ln := Line{Index: i, Mode: e.Mode}
		if e.Mode == ModePercentage {
			ln.Percentage = Round2(amount(e.Amount))
			ln.Weight = WeightFromPercentage(amount(e.Amount), out.FlourWeight)
		} else {
			ln.Weight = Round2(amount(e.Amount))
			ln.Percentage = BakersPercentage(ln.Weight, out.FlourWeight)
		}
		out.Lines = append(out.Lines, ln)
	}
	out.TotalWeight = TotalDoughWeight(entries, out.FlourWeight)
	return out
}
