package stride

import (
	"testing"

	"github.com/riskscope/riskscope/internal/config"
	"github.com/riskscope/riskscope/internal/records"
	"github.com/riskscope/riskscope/internal/taxonomy"
)

func incident(key, typ string) records.Incident {
	return records.Incident{Key: key, Type: typ}
}

func TestClassify(t *testing.T) {
	tab := taxonomy.New(config.Default())

	incidents := []records.Incident{
		incident("INC-1", "phishing"),            // S
		incident("INC-2", "similar-domain-name"), // S
		incident("INC-3", "phishing"),            // S
		incident("INC-4", "ransomware-attack"),   // D
		incident("INC-5", "mystery-type"),        // unclassified
	}

	res := Classify(incidents, tab)
	if res.Total != 5 {
		t.Errorf("Total = %d, want 5", res.Total)
	}
	if res.Classified != 4 || res.Unclassified != 1 {
		t.Errorf("Classified/Unclassified = %d/%d, want 4/1", res.Classified, res.Unclassified)
	}
	if res.Classified+res.Unclassified != res.Total {
		t.Error("Classified + Unclassified must equal Total")
	}

	if len(res.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(res.Categories))
	}

	spoofing := res.Categories[0]
	if spoofing.Category != taxonomy.Spoofing || spoofing.Count != 3 {
		t.Errorf("top category = %v count %d, want S with 3", spoofing.Category, spoofing.Count)
	}
	// Percentages use the full total, unclassified included.
	if spoofing.Percentage != 60.0 {
		t.Errorf("Percentage = %v, want 60.0", spoofing.Percentage)
	}
	wantTypes := []string{"phishing", "similar-domain-name"}
	if len(spoofing.Types) != 2 || spoofing.Types[0] != wantTypes[0] || spoofing.Types[1] != wantTypes[1] {
		t.Errorf("Types = %v, want %v", spoofing.Types, wantTypes)
	}

	dos := res.Categories[1]
	if dos.Category != taxonomy.DenialOfService || dos.Count != 1 {
		t.Errorf("second category = %v count %d, want D with 1", dos.Category, dos.Count)
	}
}

func TestClassifyTiesBreakAlphabetically(t *testing.T) {
	tab := taxonomy.New(config.Default())

	incidents := []records.Incident{
		incident("INC-1", "ransomware-attack"), // Denial of Service
		incident("INC-2", "phishing"),          // Spoofing (Identity Impersonation)
	}

	res := Classify(incidents, tab)
	if len(res.Categories) != 2 {
		t.Fatalf("got %d categories, want 2", len(res.Categories))
	}
	if res.Categories[0].Name != "Denial of Service" {
		t.Errorf("equal counts should sort by name, got %q first", res.Categories[0].Name)
	}
}

func TestClassifySkipsMalformed(t *testing.T) {
	tab := taxonomy.New(config.Default())

	res := Classify([]records.Incident{
		incident("", "phishing"),
		incident("INC-2", ""),
		incident("INC-3", "phishing"),
	}, tab)

	if res.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", res.Skipped)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want 1; skipped records are not part of the total", res.Total)
	}
}

func TestClassifyEmpty(t *testing.T) {
	tab := taxonomy.New(config.Default())

	res := Classify(nil, tab)
	if res.Total != 0 || len(res.Categories) != 0 {
		t.Errorf("empty input should yield an empty result, got %+v", res)
	}
	if res.Categories == nil {
		t.Error("Categories must be non-nil so JSON renders [] instead of null")
	}
}
