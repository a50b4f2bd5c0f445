package history

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/riskscope/riskscope/internal/scoring"
)

func save(t *testing.T, s *MemoryStore, subject string, score int) *Record {
	t.Helper()
	rec := &Record{
		Subject: subject,
		Result:  &scoring.ScoreResult{Subject: subject, Score: score},
	}
	if err := s.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return rec
}

func TestMemoryStoreSaveAssignsIdentity(t *testing.T) {
	s := NewMemoryStore()
	rec := save(t, s, "tenant", 900)

	if rec.ID == uuid.Nil {
		t.Error("Save should assign an ID")
	}
	if rec.CreatedAt.IsZero() {
		t.Error("Save should stamp CreatedAt")
	}
}

func TestMemoryStoreGet(t *testing.T) {
	s := NewMemoryStore()
	rec := save(t, s, "tenant", 900)

	got, err := s.Get(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Result.Score != 900 {
		t.Errorf("Score = %d, want 900", got.Result.Score)
	}

	_, err = s.Get(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(unknown) = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	save(t, s, "tenant", 900)
	save(t, s, "acme", 700)
	save(t, s, "tenant", 850)

	all, err := s.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d records, want 3", len(all))
	}
	if all[0].Result.Score != 850 || all[2].Result.Score != 900 {
		t.Errorf("records not newest first: %d, %d, %d",
			all[0].Result.Score, all[1].Result.Score, all[2].Result.Score)
	}
}

func TestMemoryStoreListFilterAndLimit(t *testing.T) {
	s := NewMemoryStore()
	save(t, s, "tenant", 900)
	save(t, s, "acme", 700)
	save(t, s, "tenant", 850)
	save(t, s, "tenant", 800)

	got, err := s.List(context.Background(), "tenant", 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	for _, r := range got {
		if r.Subject != "tenant" {
			t.Errorf("subject filter leaked record for %q", r.Subject)
		}
	}
	if got[0].Result.Score != 800 || got[1].Result.Score != 850 {
		t.Errorf("limited list = %d, %d; want 800, 850", got[0].Result.Score, got[1].Result.Score)
	}
}
