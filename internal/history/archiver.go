// Package history converts finished lists into immutable archived records and
// maintains monthly spending rollups.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmelo/feirinha/internal/catalog"
	"github.com/dmelo/feirinha/internal/model"
	"github.com/dmelo/feirinha/internal/store"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

var monthNames = []string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// MonthKey formats a time as the "YYYY-MM" rollup key.
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

type Archiver struct {
	store   *store.ArchiveStore
	catalog *catalog.Catalog
	logger  *slog.Logger
	now     func() time.Time
}

func NewArchiver(s *store.ArchiveStore, c *catalog.Catalog, logger *slog.Logger) *Archiver {
	return &Archiver{
		store:   s,
		catalog: c,
		logger:  logger,
		now:     time.Now,
	}
}

// ArchiveList builds and persists an archive from a finished list's items and
// rolls it into the matching monthly summary. The start time is estimated at
// now minus min(7, item count) days; it is not a tracked value. The rollup
// write retries on failure, but archive and rollup are still two separate
// writes with no transactional link.
func (a *Archiver) ArchiveList(ctx context.Context, items []model.Item, customName string) (model.ArchivedList, error) {
	now := a.now().UTC()

	name := customName
	if name == "" {
		name = "Lista " + now.Format("02/01/2006")
	}

	archived := make([]model.ArchivedItem, 0, len(items))
	purchased := 0
	var totalSpent float64
	for _, it := range items {
		ai := model.ArchivedItem{
			Code:      it.Code,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Purchased: it.Purchased,
			Category:  a.catalog.Classify(it.Name),
		}
		if it.Purchased {
			t := now
			ai.PurchasedAt = &t
			purchased++
		}
		totalSpent += it.Total()
		archived = append(archived, ai)
	}

	percent := 0
	if len(items) > 0 {
		percent = int(float64(purchased)/float64(len(items))*100 + 0.5)
	}

	archive := model.ArchivedList{
		ID:              uuid.NewString(),
		Name:            name,
		StartedAt:       now.AddDate(0, 0, -minInt(7, len(items))),
		FinishedAt:      now,
		Items:           archived,
		TotalSpent:      totalSpent,
		ItemCount:       len(items),
		PercentComplete: percent,
	}

	if err := a.store.Insert(archive); err != nil {
		return model.ArchivedList{}, fmt.Errorf("archive list: %w", err)
	}

	if err := a.rollup(ctx, archive); err != nil {
		// The archive itself is already durable; surface the rollup
		// failure so the caller can retry the summary later.
		return archive, fmt.Errorf("monthly rollup: %w", err)
	}
	return archive, nil
}

// rollup accumulates the archive into its month's summary, retrying the
// read-modify-write a few times before giving up.
func (a *Archiver) rollup(ctx context.Context, archive model.ArchivedList) error {
	backoff := retry.WithMaxRetries(4, retry.NewFibonacci(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		key := MonthKey(archive.FinishedAt)

		summary, err := a.store.GetSummary(key)
		if err != nil {
			return retry.RetryableError(err)
		}
		if summary == nil {
			summary = &model.MonthlySummary{
				Key:           key,
				Month:         monthNames[int(archive.FinishedAt.Month())-1],
				Year:          archive.FinishedAt.Year(),
				CategorySpend: make(map[string]float64),
			}
		}

		summary.TotalSpent += archive.TotalSpent
		summary.ListCount++
		summary.ItemCount += archive.ItemCount
		summary.AvgPerList = summary.TotalSpent / float64(summary.ListCount)
		for _, it := range archive.Items {
			cat := it.Category
			if cat == "" {
				cat = catalog.CategoryOther
			}
			summary.CategorySpend[cat] += it.Quantity * it.UnitPrice
		}

		if err := a.store.UpsertSummary(*summary); err != nil {
			a.logger.Warn("rollup write failed, retrying", "key", key, "error", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Monthly returns the summary for one month, or nil when the month has no
// archived lists.
func (a *Archiver) Monthly(year, month int) (*model.MonthlySummary, error) {
	key := fmt.Sprintf("%04d-%02d", year, month)
	return a.store.GetSummary(key)
}

// Months returns every month with data, newest first.
func (a *Archiver) Months() ([]model.MonthlySummary, error) {
	return a.store.ListSummaries()
}

// Archives returns the archived lists for one "YYYY-MM" month.
func (a *Archiver) Archives(key string) ([]model.ArchivedList, error) {
	return a.store.ListByMonth(key)
}

// PruneOld keeps the most recent monthsToKeep months of history and deletes
// the rest.
func (a *Archiver) PruneOld(monthsToKeep int) error {
	summaries, err := a.store.ListSummaries()
	if err != nil {
		return err
	}
	if len(summaries) <= monthsToKeep {
		return nil
	}
	for _, m := range summaries[monthsToKeep:] {
		if err := a.store.DeleteMonth(m.Key); err != nil {
			return fmt.Errorf("prune %s: %w", m.Key, err)
		}
		a.logger.Info("pruned history month", "key", m.Key)
	}
	return nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
