package valuation

// CostOfCapitalInput carries the market and capital-structure inputs for a
// discount rate build-up. Rates are fractions, leverage is a target D/E.
type CostOfCapitalInput struct {
	RiskFreeRate      float64 `json:"risk_free_rate"`
	EquityRiskPremium float64 `json:"equity_risk_premium"`
	UnleveredBeta     float64 `json:"unlevered_beta"`
	SizePremium       float64 `json:"size_premium"` // optional small-cap add-on
	PretaxCostOfDebt  float64 `json:"pretax_cost_of_debt"`
	TaxRate           float64 `json:"tax_rate"`
	DebtToEquity      float64 `json:"debt_to_equity"`
}

// CostOfCapitalResult holds the intermediate rates alongside the blended WACC
type CostOfCapitalResult struct {
	LeveredBeta        float64 `json:"levered_beta"`
	CostOfEquity       float64 `json:"cost_of_equity"`
	AfterTaxCostOfDebt float64 `json:"after_tax_cost_of_debt"`
	WeightEquity       float64 `json:"weight_equity"`
	WeightDebt         float64 `json:"weight_debt"`
	WACC               float64 `json:"wacc"`
}

// ComputeWACC builds a discount rate from CAPM with Hamada relevering.
// The output WACC feeds Parameters.WACC directly.
func ComputeWACC(input CostOfCapitalInput) CostOfCapitalResult {
	// 1. Relever beta for the target structure (Hamada)
	// BetaL = BetaU * (1 + (1-t) * D/E)
	leveredBeta := input.UnleveredBeta * (1 + (1-input.TaxRate)*input.DebtToEquity)

	// 2. Cost of equity (CAPM plus any size premium)
	ke := input.RiskFreeRate + leveredBeta*input.EquityRiskPremium + input.SizePremium

	// 3. After-tax cost of debt
	kd := input.PretaxCostOfDebt * (1 - input.TaxRate)

	// 4. Capital weights from D/E: Wd = x/(1+x), We = 1/(1+x)
	wd := input.DebtToEquity / (1 + input.DebtToEquity)
	we := 1.0 / (1 + input.DebtToEquity)

	return CostOfCapitalResult{
		LeveredBeta:        leveredBeta,
		CostOfEquity:       ke,
		AfterTaxCostOfDebt: kd,
		WeightEquity:       we,
		WeightDebt:         wd,
		WACC:               ke*we + kd*wd,
	}
}
