package valuation

const (
	minYears = 3
	maxYears = 15
)

// stageField identifies which assumption a stage lookup resolves
type stageField int

const (
	fieldGrowth stageField = iota
	fieldMargin
	fieldSalesToCapital
	fieldNWCRatio
)

// horizon returns the forecast length with the [minYears, maxYears] clamp
// applied. Out-of-range inputs are adjusted silently, never rejected.
func (p *Parameters) horizon() int {
	years := p.Years
	if years < minYears {
		years = minYears
	}
	if years > maxYears {
		years = maxYears
	}
	return years
}

// stageBounds clamps Stage1End/Stage2End into 1 <= s1 < s2 <= years.
// Like the horizon clamp this is silent; a zero value collapses the early
// stages to their minimum widths.
func (p *Parameters) stageBounds(years int) (int, int) {
	s1 := p.Stage1End
	if s1 < 1 {
		s1 = 1
	}
	if s1 > years-1 {
		s1 = years - 1
	}
	s2 := p.Stage2End
	if s2 < s1+1 {
		s2 = s1 + 1
	}
	if s2 > years {
		s2 = years
	}
	return s1, s2
}

// stageFor maps forecast year t (1-based) to its stage number 1..3
func stageFor(t, stage1End, stage2End int) int {
	switch {
	case t <= stage1End:
		return 1
	case t <= stage2End:
		return 2
	default:
		return 3
	}
}

// Snapshot is the fully-resolved assumption set for one stage, evaluated at
// the stage's first year. Perturbation layers use it as the anchor that
// per-stage shocks are applied to.
type Snapshot struct {
	Growth         float64 `json:"growth"`
	Margin         float64 `json:"margin"`
	SalesToCapital float64 `json:"sales_to_capital"`
	NWCRatio       float64 `json:"nwc_ratio"`
}

// StageSnapshot resolves stage 1, 2 or 3 into concrete values, overrides
// first, legacy defaults otherwise. The legacy growth line varies by year;
// the snapshot pins it at the stage's opening year.
func (p *Parameters) StageSnapshot(stage int) Snapshot {
	years := p.horizon()
	s1, s2 := p.stageBounds(years)

	t := 1
	switch stage {
	case 2:
		t = s1 + 1
	case 3:
		t = s2 + 1
	}
	if t > years {
		t = years
	}

	return Snapshot{
		Growth:         p.stageValue(t, s1, s2, fieldGrowth),
		Margin:         p.stageValue(t, s1, s2, fieldMargin),
		SalesToCapital: p.stageValue(t, s1, s2, fieldSalesToCapital),
		NWCRatio:       p.stageValue(t, s1, s2, fieldNWCRatio),
	}
}

// stageValue resolves the assumption for year t: an explicit override on the
// year's stage wins, otherwise the legacy default computed from the base
// parameters. The calculator applies its own floors on top (growth/margin/nwc
// at 0, sales-to-capital at 0.01); only the legacy growth profile carries a
// floor of its own, since the decay line goes negative eventually.
func (p *Parameters) stageValue(t, stage1End, stage2End int, field stageField) float64 {
	stage := stageFor(t, stage1End, stage2End)
	over := &p.Stages[stage-1]

	switch field {
	case fieldGrowth:
		if over.Growth != nil {
			return *over.Growth
		}
		// Legacy profile: linear decay from the year-1 rate
		g := p.GrowthY1 - p.GrowthDecay*float64(t-1)
		if g < 0 {
			g = 0
		}
		return g
	case fieldMargin:
		if over.Margin != nil {
			return *over.Margin
		}
		return p.Margin
	case fieldSalesToCapital:
		if over.SalesToCapital != nil {
			return *over.SalesToCapital
		}
		return p.SalesToCapital
	case fieldNWCRatio:
		if over.NWCRatio != nil {
			return *over.NWCRatio
		}
		return p.NWCRatio
	}
	return 0
}
