package history

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dmelo/feirinha/internal/catalog"
	"github.com/dmelo/feirinha/internal/database"
	"github.com/dmelo/feirinha/internal/model"
	"github.com/dmelo/feirinha/internal/store"
)

func setupArchiver(t *testing.T) *Archiver {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewArchiver(store.NewArchiveStore(db), catalog.New(), logger)
}

func TestArchiveListTotalsAndClassification(t *testing.T) {
	a := setupArchiver(t)

	items := []model.Item{
		{Code: 1, Name: "Leite", Quantity: 2, UnitPrice: 4, Purchased: true},
		{Code: 2, Name: "Arroz", Quantity: 1, UnitPrice: 5},
	}
	archive, err := a.ArchiveList(context.Background(), items, "")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}

	if archive.TotalSpent != 13 {
		t.Errorf("total spent = %v, want 13", archive.TotalSpent)
	}
	if archive.ItemCount != 2 {
		t.Errorf("item count = %d, want 2", archive.ItemCount)
	}
	if archive.PercentComplete != 50 {
		t.Errorf("percent complete = %d, want 50", archive.PercentComplete)
	}
	if archive.Items[0].Category != catalog.CategoryDairyBakery {
		t.Errorf("Leite category = %q, want %q", archive.Items[0].Category, catalog.CategoryDairyBakery)
	}
	if archive.Items[1].Category != catalog.CategoryStaples {
		t.Errorf("Arroz category = %q, want %q", archive.Items[1].Category, catalog.CategoryStaples)
	}
	if archive.Items[0].PurchasedAt == nil {
		t.Error("purchased item missing purchase time")
	}
	if archive.Items[1].PurchasedAt != nil {
		t.Error("pending item has purchase time")
	}
}

func TestArchiveNameDefaultsToDate(t *testing.T) {
	a := setupArchiver(t)
	a.now = func() time.Time { return time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC) }

	archive, err := a.ArchiveList(context.Background(), []model.Item{{Code: 1, Name: "Café"}}, "")
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if archive.Name != "Lista 09/03/2026" {
		t.Errorf("name = %q, want %q", archive.Name, "Lista 09/03/2026")
	}

	custom, err := a.ArchiveList(context.Background(), nil, "Compra do mês")
	if err != nil {
		t.Fatalf("archive custom: %v", err)
	}
	if custom.Name != "Compra do mês" {
		t.Errorf("name = %q, want custom", custom.Name)
	}
}

func TestArchiveStartEstimate(t *testing.T) {
	a := setupArchiver(t)
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	items := make([]model.Item, 3)
	for i := range items {
		items[i] = model.Item{Code: int64(i + 1), Name: "x"}
	}
	archive, _ := a.ArchiveList(context.Background(), items, "")
	if want := now.AddDate(0, 0, -3); !archive.StartedAt.Equal(want) {
		t.Errorf("started at = %v, want %v", archive.StartedAt, want)
	}

	// Estimation caps at 7 days.
	items = make([]model.Item, 20)
	for i := range items {
		items[i] = model.Item{Code: int64(i + 1), Name: "x"}
	}
	archive, _ = a.ArchiveList(context.Background(), items, "")
	if want := now.AddDate(0, 0, -7); !archive.StartedAt.Equal(want) {
		t.Errorf("started at = %v, want %v", archive.StartedAt, want)
	}
}

func TestMonthlyRollupAccumulates(t *testing.T) {
	a := setupArchiver(t)
	a.now = func() time.Time { return time.Date(2026, 7, 10, 9, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	a.ArchiveList(ctx, []model.Item{{Code: 1, Name: "Leite", Quantity: 2, UnitPrice: 4, Purchased: true}}, "")
	a.ArchiveList(ctx, []model.Item{
		{Code: 1, Name: "Cerveja", Quantity: 6, UnitPrice: 3, Purchased: true},
		{Code: 2, Name: "Arroz", Quantity: 1, UnitPrice: 6},
	}, "")

	summary, err := a.Monthly(2026, 7)
	if err != nil {
		t.Fatalf("monthly: %v", err)
	}
	if summary == nil {
		t.Fatal("missing summary")
	}
	if summary.Month != "Julho" || summary.Year != 2026 {
		t.Errorf("month/year = %q/%d", summary.Month, summary.Year)
	}
	if summary.ListCount != 2 {
		t.Errorf("list count = %d, want 2", summary.ListCount)
	}
	if summary.ItemCount != 3 {
		t.Errorf("item count = %d, want 3", summary.ItemCount)
	}
	if summary.TotalSpent != 32 { // 8 + 18 + 6
		t.Errorf("total spent = %v, want 32", summary.TotalSpent)
	}
	if summary.AvgPerList != 16 {
		t.Errorf("avg per list = %v, want 16", summary.AvgPerList)
	}
	if summary.CategorySpend[catalog.CategoryDairyBakery] != 8 {
		t.Errorf("dairy spend = %v, want 8", summary.CategorySpend[catalog.CategoryDairyBakery])
	}
	if summary.CategorySpend[catalog.CategoryBeverages] != 18 {
		t.Errorf("beverage spend = %v, want 18", summary.CategorySpend[catalog.CategoryBeverages])
	}

	missing, err := a.Monthly(2025, 1)
	if err != nil {
		t.Fatalf("monthly missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for month without data")
	}
}

func TestStats(t *testing.T) {
	a := setupArchiver(t)
	ctx := context.Background()

	a.now = func() time.Time { return time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC) }
	a.ArchiveList(ctx, []model.Item{{Code: 1, Name: "Leite", Quantity: 1, UnitPrice: 10, Purchased: true}}, "")

	a.now = func() time.Time { return time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC) }
	a.ArchiveList(ctx, []model.Item{{Code: 1, Name: "Carne", Quantity: 2, UnitPrice: 20, Purchased: true}}, "")

	stats, err := a.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalSpent != 50 {
		t.Errorf("total = %v, want 50", stats.TotalSpent)
	}
	if stats.TotalLists != 2 {
		t.Errorf("lists = %d, want 2", stats.TotalLists)
	}
	if stats.AvgMonthlySpend != 25 {
		t.Errorf("avg monthly = %v, want 25", stats.AvgMonthlySpend)
	}
	if stats.TopMonth == nil || stats.TopMonth.Key != "2026-02" {
		t.Errorf("top month = %+v, want 2026-02", stats.TopMonth)
	}
	if stats.TopCategory != catalog.CategoryProteins {
		t.Errorf("top category = %q, want proteins", stats.TopCategory)
	}
}

func TestStatsEmptyHistory(t *testing.T) {
	a := setupArchiver(t)
	stats, err := a.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalSpent != 0 || stats.TotalLists != 0 || stats.TopMonth != nil {
		t.Errorf("stats = %+v, want zero values", stats)
	}
}

func TestPruneOld(t *testing.T) {
	a := setupArchiver(t)
	ctx := context.Background()

	for month := 1; month <= 4; month++ {
		m := month
		a.now = func() time.Time { return time.Date(2026, time.Month(m), 5, 9, 0, 0, 0, time.UTC) }
		a.ArchiveList(ctx, []model.Item{{Code: 1, Name: "Café", Quantity: 1, UnitPrice: 9}}, "")
	}

	if err := a.PruneOld(2); err != nil {
		t.Fatalf("prune: %v", err)
	}
	months, _ := a.Months()
	if len(months) != 2 {
		t.Fatalf("months = %d, want 2", len(months))
	}
	if months[0].Key != "2026-04" || months[1].Key != "2026-03" {
		t.Errorf("kept months = %q, %q", months[0].Key, months[1].Key)
	}
}

func TestWriteCSV(t *testing.T) {
	a := setupArchiver(t)
	a.now = func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) }
	a.ArchiveList(context.Background(), []model.Item{
		{Code: 1, Name: "Leite", Quantity: 2, UnitPrice: 4, Purchased: true},
	}, "Feira")

	var sb strings.Builder
	if err := a.WriteCSV(&sb); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	out := sb.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("csv lines = %d, want 2\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "Feira") || !strings.Contains(lines[1], "Comprado") {
		t.Errorf("row = %q", lines[1])
	}
}
