package scoring

// Indicator names as recorded in ScoreResult for auditability.
const (
	IndicatorVolume     = "weighted-incident-volume"
	IndicatorBenchmark  = "market-benchmark-ratio"
	IndicatorStealer    = "stealer-exposure-factor"
	IndicatorEfficiency = "operational-efficiency"
	IndicatorReputation = "reputational-impact"
)

// IndicatorScore is the audited output of one KRI for a composed run.
type IndicatorScore struct {
	Name     string  `json:"name"`
	SubScore float64 `json:"sub_score"`
	Weight   float64 `json:"weight"`
	Penalty  float64 `json:"penalty"`
}

// TypeBreakdown accumulates one threat type's contribution to the weighted
// incident volume.
type TypeBreakdown struct {
	Count  int `json:"count"`
	Weight int `json:"weight"`
	Score  int `json:"score"`
}

// ScoreResult is the composed risk score for one subject (the whole tenant
// or a single brand). It is immutable once returned, and composing the same
// inputs with the same configuration yields an identical result.
type ScoreResult struct {
	Subject        string `json:"subject"`
	FormulaVersion string `json:"formula_version"`

	// Indicators lists exactly the KRIs that were active for the formula
	// version, in composition order.
	Indicators []IndicatorScore `json:"indicators"`

	BaseScore     float64 `json:"base_score"`
	PenaltyFactor float64 `json:"penalty_factor"`

	// Score is the final value clamped to [0,1000]; higher is better.
	Score  int    `json:"score"`
	Grade  string `json:"grade"`
	Status string `json:"status"`

	TotalIncidents int     `json:"total_incidents"`
	WeightedScore  int     `json:"weighted_score"`
	BenchmarkRatio float64 `json:"benchmark_ratio"`
	StealerCount   int     `json:"stealer_count"`

	Breakdown map[string]TypeBreakdown `json:"breakdown,omitempty"`

	// Skipped counts records excluded for data-shape defects (missing key
	// or type). The run continues without them.
	Skipped int `json:"skipped"`
}
