// Package scoring implements the Key Risk Indicator methodology: five
// indicator calculators, the 0–1000 score composer, and the per-brand
// partitioner. The engine is computation-only — it consumes already
// fetched, immutable record collections and performs no I/O.
package scoring

import (
	"math"

	"github.com/riskscope/riskscope/internal/config"
	"github.com/riskscope/riskscope/internal/records"
	"github.com/riskscope/riskscope/internal/taxonomy"
)

// Indicator weights per formula version, recorded in results for audit.
// Version 3.0 carries the operational-efficiency indicator; 3.1 and 4.0
// remove it and redistribute its share across the remaining four.
var (
	weightsV30 = map[string]float64{
		IndicatorVolume:     0.40,
		IndicatorBenchmark:  0.20,
		IndicatorStealer:    0.15,
		IndicatorEfficiency: 0.15,
		IndicatorReputation: 0.10,
	}
	weightsV31 = map[string]float64{
		IndicatorVolume:     0.45,
		IndicatorBenchmark:  0.25,
		IndicatorStealer:    0.20,
		IndicatorReputation: 0.10,
	}
)

// Input is one immutable snapshot of provider records for a scoring run.
// The collections are pre-filtered to the caller's date range by the
// data-access collaborator.
type Input struct {
	Incidents  []records.Incident
	Exposures  []records.CredentialExposure
	Complaints int
	Benchmark  *records.Benchmark    // nil = no benchmark available
	Uptime     records.UptimeBuckets // used by formula 3.0 only
}

// Composer combines the indicator outputs into a final ScoreResult. It is
// immutable after construction and safe for concurrent use.
type Composer struct {
	cfg *config.Config
	tab *taxonomy.Table
}

// NewComposer validates the configuration and builds a Composer.
// Configuration errors are fatal here, before any computation.
func NewComposer(cfg *config.Config) (*Composer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Composer{cfg: cfg, tab: taxonomy.New(cfg)}, nil
}

// Taxonomy exposes the resolved threat-type table for the prioritizer and
// classifier, which share it with the composer.
func (c *Composer) Taxonomy() *taxonomy.Table {
	return c.tab
}

// Config returns the composer's validated configuration.
func (c *Composer) Config() *config.Config {
	return c.cfg
}

// Score composes the risk score for one subject:
//
//	Score = clamp(1000 − BaseScore × PenaltyFactor, 0, 1000)
//	BaseScore = min(BaseScoreCap, WeightedVolume / BenchmarkDivisor)
//	PenaltyFactor = Π (1 + contribution_i) over active penalty indicators
//
// The formula version selects the indicator set; every active indicator is
// recorded on the result with its sub-score, weight, and contribution.
func (c *Composer) Score(subject string, in Input) *ScoreResult {
	cfg := c.cfg

	vol := WeightedIncidentVolume(in.Incidents, c.tab, cfg.ActiveOnly)
	ratio, benchPenalty := MarketBenchmarkRatio(vol.Total, in.Benchmark, cfg.BenchmarkBands)
	stealerCount, stealerPenalty, skippedExp := StealerExposureFactor(in.Exposures, cfg)
	repPenalty := ReputationalImpact(in.Complaints, cfg.ReputationPenaltySteps)

	weights := weightsV31
	if cfg.FormulaVersion == config.FormulaV30 {
		weights = weightsV30
	}

	indicators := []IndicatorScore{
		{Name: IndicatorVolume, SubScore: float64(vol.WeightedScore), Weight: weights[IndicatorVolume]},
		{Name: IndicatorBenchmark, SubScore: ratio, Weight: weights[IndicatorBenchmark], Penalty: benchPenalty},
		{Name: IndicatorStealer, SubScore: float64(stealerCount), Weight: weights[IndicatorStealer], Penalty: stealerPenalty},
	}

	if cfg.FormulaVersion == config.FormulaV30 {
		efficiency, effPenalty := OperationalEfficiency(in.Uptime, cfg.Efficiency)
		indicators = append(indicators, IndicatorScore{
			Name:     IndicatorEfficiency,
			SubScore: efficiency,
			Weight:   weights[IndicatorEfficiency],
			Penalty:  effPenalty,
		})
	}

	indicators = append(indicators, IndicatorScore{
		Name:     IndicatorReputation,
		SubScore: float64(in.Complaints),
		Weight:   weights[IndicatorReputation],
		Penalty:  repPenalty,
	})

	base := math.Min(cfg.BaseScoreCap, float64(vol.WeightedScore)/cfg.BenchmarkDivisor)

	penaltyFactor := 1.0
	for _, ind := range indicators {
		if ind.Name == IndicatorVolume {
			continue // volume feeds BaseScore, not the multiplier
		}
		penaltyFactor *= 1 + ind.Penalty
	}

	final := 1000 - base*penaltyFactor
	score := int(math.Round(math.Max(0, math.Min(1000, final))))
	grade, status := config.GradeFor(cfg.GradeBands, float64(score))

	return &ScoreResult{
		Subject:        subject,
		FormulaVersion: cfg.FormulaVersion,
		Indicators:     indicators,
		BaseScore:      base,
		PenaltyFactor:  penaltyFactor,
		Score:          score,
		Grade:          grade,
		Status:         status,
		TotalIncidents: vol.Total,
		WeightedScore:  vol.WeightedScore,
		BenchmarkRatio: ratio,
		StealerCount:   stealerCount,
		Breakdown:      vol.Breakdown,
		Skipped:        vol.Skipped + skippedExp,
	}
}
