package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/riskscope/riskscope/internal/config"
	"github.com/riskscope/riskscope/internal/history"
	"github.com/riskscope/riskscope/internal/records"
	"github.com/riskscope/riskscope/internal/scoring"
	"github.com/riskscope/riskscope/pkg/provider"
	"go.uber.org/zap"
)

type stubFetcher struct {
	incidents []records.Incident
	exposures []records.CredentialExposure
	brands    []records.Brand

	ticketsErr error
}

func (s *stubFetcher) Tickets(context.Context, provider.TicketQuery) ([]records.Incident, error) {
	return s.incidents, s.ticketsErr
}

func (s *stubFetcher) Credentials(context.Context, provider.CredentialQuery) ([]records.CredentialExposure, error) {
	return s.exposures, nil
}

func (s *stubFetcher) Brands(context.Context) ([]records.Brand, error) {
	return s.brands, nil
}

func newTestRouter(t *testing.T, fetcher Fetcher, store history.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	composer, err := scoring.NewComposer(config.Default())
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}

	router := gin.New()
	h := NewScoreHandler(composer, fetcher, store, zap.NewNop())
	h.Register(router.Group("/api/v1"))
	return router
}

func doGet(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestGetScore(t *testing.T) {
	fetcher := &stubFetcher{
		incidents: []records.Incident{
			{Key: "INC-1", Type: "phishing"},
			{Key: "INC-2", Type: "ransomware-attack"},
		},
	}
	store := history.NewMemoryStore()
	router := newTestRouter(t, fetcher, store)

	w := doGet(t, router, "/api/v1/score?days=7")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body)
	}

	var result scoring.ScoreResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Subject != TenantSubject {
		t.Errorf("Subject = %q, want tenant", result.Subject)
	}
	if result.TotalIncidents != 2 || result.WeightedScore != 150 {
		t.Errorf("counts = %d/%d, want 2/150", result.TotalIncidents, result.WeightedScore)
	}

	// The run must also land in history.
	recs, err := store.List(context.Background(), TenantSubject, 0)
	if err != nil || len(recs) != 1 {
		t.Errorf("history records = %d (%v), want 1", len(recs), err)
	}
}

func TestGetScoreProviderFailure(t *testing.T) {
	fetcher := &stubFetcher{ticketsErr: errors.New("upstream down")}
	router := newTestRouter(t, fetcher, nil)

	w := doGet(t, router, "/api/v1/score")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestGetBrandScores(t *testing.T) {
	shared := records.Incident{Key: "INC-1", Type: "phishing", Assets: []string{"acme", "globex"}}
	fetcher := &stubFetcher{
		incidents: []records.Incident{shared},
		brands:    []records.Brand{{Name: "acme"}, {Name: "globex"}},
	}
	router := newTestRouter(t, fetcher, nil)

	w := doGet(t, router, "/api/v1/score/brands")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var resp struct {
		Brands []scoring.ScoreResult `json:"brands"`
		Count  int                   `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 {
		t.Errorf("Count = %d, want 2", resp.Count)
	}
	for _, b := range resp.Brands {
		if b.TotalIncidents != 1 {
			t.Errorf("brand %q incidents = %d, want the shared incident in both", b.Subject, b.TotalIncidents)
		}
	}
}

func TestGetPriorities(t *testing.T) {
	fetcher := &stubFetcher{
		incidents: []records.Incident{
			{Key: "INC-1", Type: "ransomware-attack", Criticality: records.CriticalityHigh},
			{Key: "INC-2", Type: "similar-domain-name", Criticality: records.CriticalityLow},
			{Key: "INC-3", Type: "phishing", Criticality: records.CriticalityMedium},
		},
	}
	router := newTestRouter(t, fetcher, nil)

	w := doGet(t, router, "/api/v1/priorities?top=2")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var resp struct {
		Results []struct {
			Key  string `json:"key"`
			Rank int    `json:"rank"`
		} `json:"results"`
		Total int `json:"total"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 || resp.Total != 3 {
		t.Errorf("got %d results of total %d, want 2 of 3", len(resp.Results), resp.Total)
	}
	if resp.Results[0].Key != "INC-1" {
		t.Errorf("top priority = %s, want the high-criticality ransomware", resp.Results[0].Key)
	}
}

func TestGetClassification(t *testing.T) {
	fetcher := &stubFetcher{
		incidents: []records.Incident{
			{Key: "INC-1", Type: "phishing"},
			{Key: "INC-2", Type: "mystery-type"},
		},
	}
	router := newTestRouter(t, fetcher, nil)

	w := doGet(t, router, "/api/v1/classification")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var resp struct {
		Total        int `json:"total"`
		Classified   int `json:"classified"`
		Unclassified int `json:"unclassified"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 || resp.Classified != 1 || resp.Unclassified != 1 {
		t.Errorf("distribution = %+v", resp)
	}
}

func TestGetHistoryDisabled(t *testing.T) {
	router := newTestRouter(t, &stubFetcher{}, nil)

	w := doGet(t, router, "/api/v1/score/history")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 when history is disabled", w.Code)
	}
}

func TestGetHistory(t *testing.T) {
	store := history.NewMemoryStore()
	rec := &history.Record{Subject: TenantSubject, Result: &scoring.ScoreResult{Score: 900}}
	if err := store.Save(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	router := newTestRouter(t, &stubFetcher{}, store)

	w := doGet(t, router, "/api/v1/score/history?subject=tenant")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body)
	}

	var resp struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 {
		t.Errorf("Count = %d, want 1", resp.Count)
	}
}

func TestIntQueryFallbacks(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/t", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"v": intQuery(c, "n", 30)})
	})

	tests := []struct {
		query string
		want  int
	}{
		{"", 30},
		{"?n=7", 7},
		{"?n=junk", 30},
		{"?n=-3", 30},
	}
	for _, tt := range tests {
		w := doGet(t, router, "/t"+tt.query)
		var resp struct {
			V int `json:"v"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.V != tt.want {
			t.Errorf("query %q: got %d, want %d", tt.query, resp.V, tt.want)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	const secret = "test-secret"

	router := gin.New()
	router.Use(RequireToken(secret))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	t.Run("missing token", func(t *testing.T) {
		w := doGet(t, router, "/protected")
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := IssueToken(secret, "tester", time.Hour)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := IssueToken("other-secret", "tester", time.Hour)
		if err != nil {
			t.Fatalf("IssueToken: %v", err)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("open mode", func(t *testing.T) {
		open := gin.New()
		open.Use(RequireToken(""))
		open.GET("/protected", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})
		w := doGet(t, open, "/protected")
		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 in open mode", w.Code)
		}
	})
}
