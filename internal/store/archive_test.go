package store

import (
	"testing"
	"time"

	"github.com/dmelo/feirinha/internal/model"
)

func testArchive(id string, finishedAt time.Time) model.ArchivedList {
	return model.ArchivedList{
		ID:         id,
		Name:       "Lista " + id,
		StartedAt:  finishedAt.Add(-48 * time.Hour),
		FinishedAt: finishedAt,
		Items: []model.ArchivedItem{
			{Code: 1, Name: "Leite", Quantity: 2, UnitPrice: 4, Purchased: true, Category: "Laticínios & Padaria"},
		},
		TotalSpent:      8,
		ItemCount:       1,
		PercentComplete: 100,
	}
}

func TestArchiveInsertAndList(t *testing.T) {
	s := NewArchiveStore(setupTestDB(t))
	now := time.Now().UTC()

	if err := s.Insert(testArchive("a1", now.Add(-time.Hour))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := s.Insert(testArchive("a2", now)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	archives, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(archives) != 2 {
		t.Fatalf("len = %d, want 2", len(archives))
	}
	if archives[0].ID != "a2" {
		t.Errorf("first = %q, want newest a2", archives[0].ID)
	}
	if len(archives[0].Items) != 1 || archives[0].Items[0].Name != "Leite" {
		t.Errorf("items round-trip failed: %+v", archives[0].Items)
	}
}

func TestArchiveListByMonth(t *testing.T) {
	s := NewArchiveStore(setupTestDB(t))

	jan := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 3, 12, 0, 0, 0, time.UTC)
	s.Insert(testArchive("jan", jan))
	s.Insert(testArchive("fev", feb))

	got, err := s.ListByMonth("2026-01")
	if err != nil {
		t.Fatalf("list by month: %v", err)
	}
	if len(got) != 1 || got[0].ID != "jan" {
		t.Errorf("got = %+v, want only jan", got)
	}
}

func TestSummaryUpsert(t *testing.T) {
	s := NewArchiveStore(setupTestDB(t))

	m := model.MonthlySummary{
		Key: "2026-01", Month: "Janeiro", Year: 2026,
		TotalSpent: 10, ListCount: 1, ItemCount: 3, AvgPerList: 10,
		CategorySpend: map[string]float64{"Bebidas": 10},
	}
	if err := s.UpsertSummary(m); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	m.TotalSpent = 25
	m.ListCount = 2
	m.AvgPerList = 12.5
	m.CategorySpend["Bebidas"] = 25
	if err := s.UpsertSummary(m); err != nil {
		t.Fatalf("upsert update: %v", err)
	}

	got, err := s.GetSummary("2026-01")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.TotalSpent != 25 || got.ListCount != 2 {
		t.Errorf("got = %+v", got)
	}
	if got.CategorySpend["Bebidas"] != 25 {
		t.Errorf("category spend = %v", got.CategorySpend)
	}

	missing, err := s.GetSummary("2025-12")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing summary")
	}
}

func TestDeleteMonth(t *testing.T) {
	s := NewArchiveStore(setupTestDB(t))

	jan := time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)
	s.Insert(testArchive("jan", jan))
	s.UpsertSummary(model.MonthlySummary{Key: "2026-01", Month: "Janeiro", Year: 2026, CategorySpend: map[string]float64{}})

	if err := s.DeleteMonth("2026-01"); err != nil {
		t.Fatalf("delete month: %v", err)
	}
	sum, _ := s.GetSummary("2026-01")
	if sum != nil {
		t.Error("summary not deleted")
	}
	archives, _ := s.ListByMonth("2026-01")
	if len(archives) != 0 {
		t.Error("archives not deleted")
	}
}
