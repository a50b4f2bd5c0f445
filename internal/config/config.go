// Package config defines the scoring configuration schema. All weights,
// thresholds, and band tables the engine uses are supplied here — the
// calculators themselves hard-code nothing, so new threat types or
// thresholds are a configuration change, not a code change.
//
// Validate enforces the fatal-error class of the error taxonomy: a missing
// table or a malformed band sequence aborts before any computation begins
// and is never silently defaulted.
package config

import (
	"errors"
	"fmt"
)

// Formula versions accepted by the composer.
const (
	FormulaV30 = "3.0" // includes the operational-efficiency indicator
	FormulaV31 = "3.1" // efficiency removed, weight redistributed
	FormulaV40 = "4.0" // per-brand edition of 3.1
)

// DefaultKey is the map key that supplies the fallback value for threat
// types (or collectors) absent from a lookup table.
const DefaultKey = "default"

// PenaltyStep maps a count threshold to a penalty contribution. A count
// takes the Penalty of the step with the largest From not exceeding it;
// counts below the first step contribute nothing.
type PenaltyStep struct {
	From    int     `mapstructure:"from" json:"from"`
	Penalty float64 `mapstructure:"penalty" json:"penalty"`
}

// RatioBand maps a benchmark-ratio threshold to a penalty effect. A ratio
// takes the Effect of the band with the largest From not exceeding it, so a
// boundary value belongs to the higher band. Negative effects are bonuses.
type RatioBand struct {
	From   float64 `mapstructure:"from" json:"from"`
	Effect float64 `mapstructure:"effect" json:"effect"`
}

// GradeBand maps a score threshold to a letter grade and status label.
// A score takes the band with the largest From not exceeding it, so a
// boundary score belongs to the higher band.
type GradeBand struct {
	From   float64 `mapstructure:"from" json:"from"`
	Grade  string  `mapstructure:"grade" json:"grade"`
	Status string  `mapstructure:"status" json:"status"`
}

// EfficiencyConfig parameterises the operational-efficiency indicator
// (formula 3.0 only).
type EfficiencyConfig struct {
	// SlowAfterDays marks uptime buckets counted as slow resolutions.
	SlowAfterDays int `mapstructure:"slow_after_days" json:"slow_after_days"`

	// Floor and Ceiling are efficiency fractions in [0,1]. Efficiency
	// below Floor incurs FloorPenalty; at or above Ceiling earns
	// CeilingBonus (a negative contribution). Between the two is neutral.
	Floor        float64 `mapstructure:"floor" json:"floor"`
	Ceiling      float64 `mapstructure:"ceiling" json:"ceiling"`
	FloorPenalty float64 `mapstructure:"floor_penalty" json:"floor_penalty"`
	CeilingBonus float64 `mapstructure:"ceiling_bonus" json:"ceiling_bonus"`
}

// DreadConfig supplies the five DREAD factor lookup tables. Every map must
// carry a "default" entry; factor values are clamped to [1,10].
type DreadConfig struct {
	DamageByCriticality        map[string]int `mapstructure:"damage_by_criticality" json:"damage_by_criticality"`
	ReproducibilityByType      map[string]int `mapstructure:"reproducibility_by_type" json:"reproducibility_by_type"`
	AffectedUsersByType        map[string]int `mapstructure:"affected_users_by_type" json:"affected_users_by_type"`
	DiscoverabilityByCollector map[string]int `mapstructure:"discoverability_by_collector" json:"discoverability_by_collector"`

	// ExploitabilityNeutral is used when an incident carries no predicted
	// risk.
	ExploitabilityNeutral int `mapstructure:"exploitability_neutral" json:"exploitability_neutral"`
}

// Config is the complete scoring configuration.
type Config struct {
	FormulaVersion string `mapstructure:"formula_version" json:"formula_version"`

	// IncidentWeights maps threat type to severity weight and must contain
	// a "default" entry for unknown types.
	IncidentWeights map[string]int `mapstructure:"incident_weights" json:"incident_weights"`

	// StrideMapping maps threat type to a STRIDE category letter
	// (S, T, R, I, D, E). Unmapped types land in the unclassified bucket.
	StrideMapping map[string]string `mapstructure:"stride_mapping" json:"stride_mapping"`

	StealerPenaltySteps    []PenaltyStep `mapstructure:"stealer_penalty_steps" json:"stealer_penalty_steps"`
	ReputationPenaltySteps []PenaltyStep `mapstructure:"reputation_penalty_steps" json:"reputation_penalty_steps"`
	BenchmarkBands         []RatioBand   `mapstructure:"benchmark_bands" json:"benchmark_bands"`
	GradeBands             []GradeBand   `mapstructure:"grade_bands" json:"grade_bands"`

	// ActiveOnly excludes incidents resolved as discarded from every
	// indicator, identically for tenant-level and per-brand runs.
	ActiveOnly bool `mapstructure:"active_only" json:"active_only"`

	BaseScoreCap     float64 `mapstructure:"base_score_cap" json:"base_score_cap"`
	BenchmarkDivisor float64 `mapstructure:"benchmark_divisor" json:"benchmark_divisor"`

	// StealerFormats are the credential leak formats that signal
	// active-malware origin; StealerActiveStatuses are the exposure
	// statuses still counted as live.
	StealerFormats        []string `mapstructure:"stealer_formats" json:"stealer_formats"`
	StealerActiveStatuses []string `mapstructure:"stealer_active_statuses" json:"stealer_active_statuses"`

	Efficiency EfficiencyConfig `mapstructure:"efficiency" json:"efficiency"`
	Dread      DreadConfig      `mapstructure:"dread" json:"dread"`
}

// Default returns the production configuration: the weight, mapping, and
// band tables of the v4.0 methodology, with the efficiency parameters still
// present so formula 3.0 remains selectable.
func Default() *Config {
	return &Config{
		FormulaVersion: FormulaV40,
		IncidentWeights: map[string]int{
			"ransomware-attack":         100,
			"data-exposure-message":     80,
			"infostealer-credential":    70,
			"corporate-credential-leak": 60,
			"malware":                   50,
			"phishing":                  50,
			"fake-mobile-app":           40,
			"data-exposure":             40,
			"dw-activity":               30,
			"fraudulent-brand-use":      20,
			"similar-domain-name":       15,
			DefaultKey:                  10,
		},
		StrideMapping: map[string]string{
			"phishing":                            "S",
			"fake-social-media-profile":           "S",
			"executive-fake-social-media-profile": "S",
			"similar-domain-name":                 "S",
			"fraudulent-brand-use":                "T",
			"fake-mobile-app":                     "T",
			"unauthorized-sale":                   "R",
			"unauthorized-distribution":           "R",
			"corporate-credential-leak":           "I",
			"code-secret-leak":                    "I",
			"database-exposure":                   "I",
			"data-exposure-website":               "I",
			"data-exposure-message":               "I",
			"other-sensitive-data":                "I",
			"executive-credential-leak":           "I",
			"executive-personalinfo-leak":         "I",
			"ransomware-attack":                   "D",
			"infrastructure-exposure":             "D",
			"malware":                             "D",
			"infostealer-credential":              "E",
			"executive-card-leak":                 "E",
			"executive-mobile-phone":              "E",
		},
		StealerPenaltySteps: []PenaltyStep{
			{From: 1, Penalty: 0.20},
			{From: 6, Penalty: 0.50},
			{From: 21, Penalty: 1.00},
		},
		ReputationPenaltySteps: []PenaltyStep{
			{From: 1, Penalty: 0.10},
			{From: 10, Penalty: 0.25},
			{From: 50, Penalty: 0.50},
		},
		BenchmarkBands: []RatioBand{
			{From: 0, Effect: -0.10},  // well below market median
			{From: 0.5, Effect: 0},    // neutral
			{From: 1.0, Effect: 0.25}, // above median
			{From: 2.0, Effect: 0.50}, // far above median
		},
		GradeBands: []GradeBand{
			{From: 0, Grade: "F", Status: "Critical - Multiple active attack vectors"},
			{From: 400, Grade: "D", Status: "High Risk - Immediate action required"},
			{From: 550, Grade: "C", Status: "Moderate - Requires attention"},
			{From: 700, Grade: "B", Status: "Good - Controlled risk"},
			{From: 850, Grade: "A", Status: "Excellent - Superior security posture"},
		},
		ActiveOnly:            true,
		BaseScoreCap:          500,
		BenchmarkDivisor:      1,
		StealerFormats:        []string{"STEALER LOG"},
		StealerActiveStatuses: []string{"NEW", "IN_TREATMENT"},
		Efficiency: EfficiencyConfig{
			SlowAfterDays: 30,
			Floor:         0.60,
			Ceiling:       0.90,
			FloorPenalty:  0.25,
			CeilingBonus:  -0.10,
		},
		Dread: DreadConfig{
			DamageByCriticality: map[string]int{
				"high":     9,
				"medium":   6,
				"low":      3,
				DefaultKey: 5,
			},
			ReproducibilityByType: map[string]int{
				"phishing":                  9,
				"infostealer-credential":    8,
				"similar-domain-name":       7,
				"fake-mobile-app":           7,
				"malware":                   6,
				"fraudulent-brand-use":      6,
				"ransomware-attack":         5,
				"corporate-credential-leak": 4,
				DefaultKey:                  5,
			},
			AffectedUsersByType: map[string]int{
				"ransomware-attack":         9,
				"phishing":                  8,
				"corporate-credential-leak": 7,
				"malware":                   7,
				"infostealer-credential":    6,
				"fake-mobile-app":           5,
				"fraudulent-brand-use":      4,
				"similar-domain-name":       3,
				DefaultKey:                  5,
			},
			DiscoverabilityByCollector: map[string]int{
				"open-web":     9,
				"social-media": 8,
				"app-store":    8,
				"paste-site":   6,
				"deep-web":     4,
				"dark-web":     2,
				DefaultKey:     5,
			},
			ExploitabilityNeutral: 5,
		},
	}
}

// Validate checks the configuration for the fatal error class: missing
// required tables and malformed (non-ascending) band sequences. It must be
// called before any scoring run; a non-nil error means no computation may
// proceed.
func (c *Config) Validate() error {
	switch c.FormulaVersion {
	case FormulaV30, FormulaV31, FormulaV40:
	default:
		return fmt.Errorf("formula_version %q: must be one of 3.0, 3.1, 4.0", c.FormulaVersion)
	}

	if len(c.IncidentWeights) == 0 {
		return errors.New("incident_weights: table is required")
	}
	if _, ok := c.IncidentWeights[DefaultKey]; !ok {
		return errors.New(`incident_weights: missing required "default" entry`)
	}
	for t, w := range c.IncidentWeights {
		if w < 0 {
			return fmt.Errorf("incident_weights[%s]: weight %d must be non-negative", t, w)
		}
	}

	for t, cat := range c.StrideMapping {
		switch cat {
		case "S", "T", "R", "I", "D", "E":
		default:
			return fmt.Errorf("stride_mapping[%s]: unknown category %q", t, cat)
		}
	}

	if err := validateSteps("stealer_penalty_steps", c.StealerPenaltySteps); err != nil {
		return err
	}
	if err := validateSteps("reputation_penalty_steps", c.ReputationPenaltySteps); err != nil {
		return err
	}

	if len(c.BenchmarkBands) == 0 {
		return errors.New("benchmark_bands: table is required")
	}
	for i, b := range c.BenchmarkBands {
		if i > 0 && b.From <= c.BenchmarkBands[i-1].From {
			return fmt.Errorf("benchmark_bands[%d]: thresholds must be strictly ascending", i)
		}
	}
	if c.BenchmarkBands[0].From != 0 {
		return errors.New("benchmark_bands: first band must start at ratio 0")
	}

	if len(c.GradeBands) == 0 {
		return errors.New("grade_bands: table is required")
	}
	for i, b := range c.GradeBands {
		if i > 0 && b.From <= c.GradeBands[i-1].From {
			return fmt.Errorf("grade_bands[%d]: thresholds must be strictly ascending", i)
		}
		if b.Grade == "" {
			return fmt.Errorf("grade_bands[%d]: grade label is required", i)
		}
	}
	if c.GradeBands[0].From != 0 {
		return errors.New("grade_bands: first band must start at score 0")
	}

	if c.BaseScoreCap <= 0 {
		return fmt.Errorf("base_score_cap: %v must be positive", c.BaseScoreCap)
	}
	if c.BenchmarkDivisor <= 0 {
		return fmt.Errorf("benchmark_divisor: %v must be positive", c.BenchmarkDivisor)
	}

	if c.FormulaVersion == FormulaV30 {
		e := c.Efficiency
		if e.Floor < 0 || e.Ceiling > 1 || e.Floor > e.Ceiling {
			return fmt.Errorf("efficiency: floor %v / ceiling %v must satisfy 0 <= floor <= ceiling <= 1", e.Floor, e.Ceiling)
		}
		if e.SlowAfterDays <= 0 {
			return fmt.Errorf("efficiency: slow_after_days %d must be positive", e.SlowAfterDays)
		}
	}

	for name, m := range map[string]map[string]int{
		"dread.damage_by_criticality":        c.Dread.DamageByCriticality,
		"dread.reproducibility_by_type":      c.Dread.ReproducibilityByType,
		"dread.affected_users_by_type":       c.Dread.AffectedUsersByType,
		"dread.discoverability_by_collector": c.Dread.DiscoverabilityByCollector,
	} {
		if len(m) == 0 {
			return fmt.Errorf("%s: table is required", name)
		}
		if _, ok := m[DefaultKey]; !ok {
			return fmt.Errorf(`%s: missing required "default" entry`, name)
		}
		for k, v := range m {
			if v < 1 || v > 10 {
				return fmt.Errorf("%s[%s]: value %d must be in [1,10]", name, k, v)
			}
		}
	}
	if n := c.Dread.ExploitabilityNeutral; n < 1 || n > 10 {
		return fmt.Errorf("dread.exploitability_neutral: %d must be in [1,10]", n)
	}

	return nil
}

func validateSteps(name string, steps []PenaltyStep) error {
	for i, s := range steps {
		if i > 0 && s.From <= steps[i-1].From {
			return fmt.Errorf("%s[%d]: thresholds must be strictly ascending", name, i)
		}
		if s.From < 0 {
			return fmt.Errorf("%s[%d]: threshold %d must be non-negative", name, i, s.From)
		}
	}
	return nil
}

// StepPenalty resolves count against an ascending step table: the penalty of
// the step with the largest From not exceeding count, or 0 below the first.
func StepPenalty(steps []PenaltyStep, count int) float64 {
	penalty := 0.0
	for _, s := range steps {
		if count >= s.From {
			penalty = s.Penalty
		}
	}
	return penalty
}

// BandEffect resolves ratio against ascending ratio bands: the effect of
// the band with the largest From not exceeding ratio. A boundary ratio
// therefore belongs to the higher band.
func BandEffect(bands []RatioBand, ratio float64) float64 {
	effect := 0.0
	for _, b := range bands {
		if ratio >= b.From {
			effect = b.Effect
		}
	}
	return effect
}

// GradeFor resolves score against the ascending grade bands. A boundary
// score belongs to the higher band.
func GradeFor(bands []GradeBand, score float64) (grade, status string) {
	for _, b := range bands {
		if score >= b.From {
			grade, status = b.Grade, b.Status
		}
	}
	return grade, status
}
