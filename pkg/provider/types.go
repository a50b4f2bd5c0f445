package provider

import (
	"time"

	"github.com/riskscope/riskscope/internal/records"
)

// Wire types mirror the provider's nested JSON and are mapped into the flat
// engine records at the client boundary.

type ticketWire struct {
	Ticket struct {
		TicketKey string `json:"ticketKey"`
		Creation  struct {
			Date       string `json:"date"`
			Originator string `json:"originator"`
		} `json:"creation"`
	} `json:"ticket"`
	Detection struct {
		Type        string   `json:"type"`
		Criticality string   `json:"criticality"`
		Assets      []string `json:"assets"`
		Collector   string   `json:"collector"`
		Open        struct {
			Date string `json:"date"`
		} `json:"open"`
	} `json:"detection"`
	Current struct {
		Status     string `json:"status"`
		Resolution string `json:"resolution"`
	} `json:"current"`
	Prediction *struct {
		Risk float64 `json:"risk"`
	} `json:"prediction,omitempty"`
}

func (w ticketWire) toIncident() records.Incident {
	inc := records.Incident{
		Key:         w.Ticket.TicketKey,
		Type:        w.Detection.Type,
		Criticality: records.Criticality(w.Detection.Criticality),
		Status:      records.Status(w.Current.Status),
		Resolution:  records.Resolution(w.Current.Resolution),
		CreatedAt:   parseWireTime(w.Ticket.Creation.Date),
		OpenedAt:    parseWireTime(w.Detection.Open.Date),
		Originator:  records.Originator(w.Ticket.Creation.Originator),
		Collector:   w.Detection.Collector,
		Assets:      w.Detection.Assets,
	}
	if w.Prediction != nil {
		risk := w.Prediction.Risk
		inc.PredictedRisk = &risk
	}
	return inc
}

type credentialWire struct {
	ID           string `json:"id"`
	LeakFormat   string `json:"leakFormat"`
	PasswordType string `json:"passwordType"`
	Status       string `json:"status"`
	Created      string `json:"created"`
	Asset        string `json:"asset"`
}

func (w credentialWire) toExposure() records.CredentialExposure {
	return records.CredentialExposure{
		ID:           w.ID,
		LeakFormat:   w.LeakFormat,
		PasswordType: w.PasswordType,
		Status:       w.Status,
		CreatedAt:    parseWireTime(w.Created),
		Asset:        w.Asset,
	}
}

type customerWire struct {
	Key    string `json:"key"`
	Assets []struct {
		Category string `json:"category"`
		Name     string `json:"name"`
		Key      string `json:"key"`
		Active   bool   `json:"active"`
	} `json:"assets"`
}

// parseWireTime accepts the timestamp formats the provider emits; an
// unparseable or empty value yields the zero time rather than an error —
// downstream data-shape checks decide what to do with the record.
func parseWireTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
