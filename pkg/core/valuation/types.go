package valuation

// TerminalMethod selects how value beyond the forecast horizon is estimated
type TerminalMethod string

const (
	TerminalPerpetuity   TerminalMethod = "perpetuity"
	TerminalExitMultiple TerminalMethod = "exit_multiple"
)

// WarningKind tags a non-fatal annotation so callers can branch on the
// category instead of parsing message text
type WarningKind string

const (
	// WarnTerminalGrowthClamped: perpetuity growth was at or above the
	// discount rate and had to be pulled back under it.
	WarnTerminalGrowthClamped WarningKind = "terminal_growth_clamped"
	// WarnNWCSwing: a single year's working-capital move exceeded 5% of
	// that year's revenue (significant cash release or absorption).
	WarnNWCSwing WarningKind = "nwc_swing"
)

// Warning is a non-fatal annotation attached to a Result. Year is 1-based;
// 0 means the warning concerns the parameter set rather than a single year.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Year    int         `json:"year"`
	Message string      `json:"message"`
}

// StageAssumptions holds the optional per-stage overrides. A nil field means
// "use the legacy default" computed from the base parameters.
type StageAssumptions struct {
	Growth         *float64 `json:"growth,omitempty"`
	Margin         *float64 `json:"margin,omitempty"`
	SalesToCapital *float64 `json:"sales_to_capital,omitempty"`
	NWCRatio       *float64 `json:"nwc_ratio,omitempty"`
}

// Parameters encapsulates all inputs for a multi-stage DCF valuation.
// Rate fields are fractions (0.09 = 9%), currency fields are in millions.
type Parameters struct {
	Ticker      string  `json:"ticker"`
	BaseRevenue float64 `json:"base_revenue"`
	Years       int     `json:"years"` // forecast horizon, clamped to [3,15]

	WACC           float64 `json:"wacc"`
	TerminalGrowth float64 `json:"terminal_growth"`
	TaxRate        float64 `json:"tax_rate"`

	// Legacy defaults, used for any year whose stage has no override
	GrowthY1       float64 `json:"growth_y1"`
	GrowthDecay    float64 `json:"growth_decay"` // linear decay per year
	Margin         float64 `json:"margin"`
	SalesToCapital float64 `json:"sales_to_capital"`
	NWCRatio       float64 `json:"nwc_ratio"`

	SharesOutstanding float64 `json:"shares_outstanding"` // Millions
	NetDebt           float64 `json:"net_debt"`           // Millions

	TerminalValueMethod TerminalMethod `json:"terminal_value_method"`
	ExitMultiple        float64        `json:"exit_multiple"`

	// Stage boundaries: years 1..Stage1End are stage 1, Stage1End+1..Stage2End
	// stage 2, the rest stage 3. Out-of-range values are silently clamped.
	Stage1End int `json:"stage1_end"`
	Stage2End int `json:"stage2_end"`

	Stages [3]StageAssumptions `json:"stages"`
}

// YearSeries holds the forecast line items as parallel slices of length
// Years; index i is forecast year i+1. Produced once per Compute call and
// never mutated afterwards.
type YearSeries struct {
	Revenue      []float64 `json:"revenue"`
	Growth       []float64 `json:"growth"`
	Margin       []float64 `json:"margin"`
	EBIT         []float64 `json:"ebit"`
	NOPAT        []float64 `json:"nopat"`
	NWC          []float64 `json:"nwc"`
	NWCRatio     []float64 `json:"nwc_ratio"`
	DeltaNWC     []float64 `json:"delta_nwc"`
	CapexProxy   []float64 `json:"capex_proxy"`
	Reinvestment []float64 `json:"reinvestment"`
	FCFF         []float64 `json:"fcff"`
	PVFCFF       []float64 `json:"pv_fcff"`
}

// Totals aggregates the series into the headline valuation numbers
type Totals struct {
	SumPVFCFF            float64 `json:"sum_pv_fcff"`
	PVTerminalValue      float64 `json:"pv_terminal_value"`
	EnterpriseValue      float64 `json:"enterprise_value"`
	EquityValue          float64 `json:"equity_value"`
	PerShareValue        float64 `json:"per_share_value"`
	TerminalValuePctOfEV float64 `json:"terminal_value_pct_of_ev"`
}

// Result is the full output of one calculator invocation
type Result struct {
	Series   YearSeries `json:"series"`
	Totals   Totals     `json:"totals"`
	Warnings []Warning  `json:"warnings"`
}
