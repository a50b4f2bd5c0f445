package config

import (
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate, got %v", err)
	}
}

func TestValidateFatalCases(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown formula version",
			mutate:  func(c *Config) { c.FormulaVersion = "2.0" },
			wantErr: "formula_version",
		},
		{
			name:    "empty incident weights",
			mutate:  func(c *Config) { c.IncidentWeights = nil },
			wantErr: "incident_weights",
		},
		{
			name:    "missing default weight",
			mutate:  func(c *Config) { delete(c.IncidentWeights, DefaultKey) },
			wantErr: `"default"`,
		},
		{
			name:    "negative weight",
			mutate:  func(c *Config) { c.IncidentWeights["phishing"] = -1 },
			wantErr: "non-negative",
		},
		{
			name:    "bad stride letter",
			mutate:  func(c *Config) { c.StrideMapping["phishing"] = "X" },
			wantErr: "stride_mapping",
		},
		{
			name: "non-ascending stealer steps",
			mutate: func(c *Config) {
				c.StealerPenaltySteps = []PenaltyStep{{From: 5, Penalty: 0.1}, {From: 5, Penalty: 0.2}}
			},
			wantErr: "strictly ascending",
		},
		{
			name:    "empty benchmark bands",
			mutate:  func(c *Config) { c.BenchmarkBands = nil },
			wantErr: "benchmark_bands",
		},
		{
			name: "benchmark bands not starting at zero",
			mutate: func(c *Config) {
				c.BenchmarkBands = []RatioBand{{From: 0.5, Effect: 0}}
			},
			wantErr: "start at ratio 0",
		},
		{
			name: "grade band without label",
			mutate: func(c *Config) {
				c.GradeBands[1].Grade = ""
			},
			wantErr: "grade label",
		},
		{
			name:    "zero base score cap",
			mutate:  func(c *Config) { c.BaseScoreCap = 0 },
			wantErr: "base_score_cap",
		},
		{
			name:    "zero benchmark divisor",
			mutate:  func(c *Config) { c.BenchmarkDivisor = 0 },
			wantErr: "benchmark_divisor",
		},
		{
			name: "efficiency floor above ceiling on 3.0",
			mutate: func(c *Config) {
				c.FormulaVersion = FormulaV30
				c.Efficiency.Floor = 0.95
			},
			wantErr: "efficiency",
		},
		{
			name: "dread table missing default",
			mutate: func(c *Config) {
				delete(c.Dread.DamageByCriticality, DefaultKey)
			},
			wantErr: "damage_by_criticality",
		},
		{
			name: "dread value out of range",
			mutate: func(c *Config) {
				c.Dread.ReproducibilityByType["phishing"] = 11
			},
			wantErr: "[1,10]",
		},
		{
			name:    "exploitability neutral out of range",
			mutate:  func(c *Config) { c.Dread.ExploitabilityNeutral = 0 },
			wantErr: "exploitability_neutral",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestStepPenalty(t *testing.T) {
	steps := []PenaltyStep{
		{From: 1, Penalty: 0.20},
		{From: 6, Penalty: 0.50},
		{From: 21, Penalty: 1.00},
	}

	tests := []struct {
		count int
		want  float64
	}{
		{0, 0},
		{1, 0.20},
		{5, 0.20},
		{6, 0.50}, // boundary belongs to the higher step
		{20, 0.50},
		{21, 1.00},
		{500, 1.00},
	}
	for _, tt := range tests {
		if got := StepPenalty(steps, tt.count); got != tt.want {
			t.Errorf("StepPenalty(%d) = %v, want %v", tt.count, got, tt.want)
		}
	}
}

func TestStepPenaltyEmptyTable(t *testing.T) {
	if got := StepPenalty(nil, 100); got != 0 {
		t.Errorf("empty table should contribute nothing, got %v", got)
	}
}

func TestBandEffect(t *testing.T) {
	bands := []RatioBand{
		{From: 0, Effect: -0.10},
		{From: 0.5, Effect: 0},
		{From: 1.0, Effect: 0.25},
		{From: 2.0, Effect: 0.50},
	}

	tests := []struct {
		ratio float64
		want  float64
	}{
		{0, -0.10},
		{0.49, -0.10},
		{0.5, 0}, // boundary belongs to the higher band
		{0.99, 0},
		{1.0, 0.25},
		{1.99, 0.25},
		{2.0, 0.50},
		{10, 0.50},
	}
	for _, tt := range tests {
		if got := BandEffect(bands, tt.ratio); got != tt.want {
			t.Errorf("BandEffect(%v) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestGradeFor(t *testing.T) {
	bands := Default().GradeBands

	tests := []struct {
		score float64
		want  string
	}{
		{0, "F"},
		{399, "F"},
		{400, "D"}, // boundary belongs to the higher band
		{549, "D"},
		{550, "C"},
		{700, "B"},
		{849, "B"},
		{850, "A"},
		{1000, "A"},
	}
	for _, tt := range tests {
		grade, status := GradeFor(bands, tt.score)
		if grade != tt.want {
			t.Errorf("GradeFor(%v) = %q, want %q", tt.score, grade, tt.want)
		}
		if status == "" {
			t.Errorf("GradeFor(%v): empty status", tt.score)
		}
	}
}
