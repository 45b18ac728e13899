package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmelo/feirinha/internal/model"
)

type ArchiveStore struct {
	db *sql.DB
}

func NewArchiveStore(db *sql.DB) *ArchiveStore {
	return &ArchiveStore{db: db}
}

func scanArchive(scanner interface{ Scan(...any) error }) (*model.ArchivedList, error) {
	var a model.ArchivedList
	var itemsJSON string
	err := scanner.Scan(
		&a.ID, &a.Name, &a.StartedAt, &a.FinishedAt, &itemsJSON,
		&a.TotalSpent, &a.ItemCount, &a.PercentComplete,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(itemsJSON), &a.Items); err != nil {
		return nil, fmt.Errorf("decode archived items: %w", err)
	}
	return &a, nil
}

const archiveCols = `id, name, started_at, finished_at, items, total_spent, item_count, percent_complete`

func (s *ArchiveStore) Insert(a model.ArchivedList) error {
	itemsJSON, err := json.Marshal(a.Items)
	if err != nil {
		return fmt.Errorf("encode archived items: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO archives (id, name, started_at, finished_at, items, total_spent, item_count, percent_complete)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.StartedAt, a.FinishedAt, string(itemsJSON),
		a.TotalSpent, a.ItemCount, a.PercentComplete,
	)
	if err != nil {
		return fmt.Errorf("insert archive: %w", err)
	}
	return nil
}

// List returns all archives, most recently finished first.
func (s *ArchiveStore) List() ([]model.ArchivedList, error) {
	rows, err := s.db.Query(`SELECT ` + archiveCols + ` FROM archives ORDER BY finished_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list archives: %w", err)
	}
	defer rows.Close()

	var archives []model.ArchivedList
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		archives = append(archives, *a)
	}
	return archives, rows.Err()
}

// ListByMonth returns the archives finished in the given "YYYY-MM" month.
func (s *ArchiveStore) ListByMonth(key string) ([]model.ArchivedList, error) {
	rows, err := s.db.Query(
		`SELECT `+archiveCols+` FROM archives WHERE strftime('%Y-%m', finished_at) = ? ORDER BY finished_at DESC`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("list archives by month: %w", err)
	}
	defer rows.Close()

	var archives []model.ArchivedList
	for rows.Next() {
		a, err := scanArchive(rows)
		if err != nil {
			return nil, fmt.Errorf("scan archive: %w", err)
		}
		archives = append(archives, *a)
	}
	return archives, rows.Err()
}

func scanSummary(scanner interface{ Scan(...any) error }) (*model.MonthlySummary, error) {
	var m model.MonthlySummary
	var catJSON string
	err := scanner.Scan(
		&m.Key, &m.Month, &m.Year, &m.TotalSpent, &m.ListCount,
		&m.ItemCount, &m.AvgPerList, &catJSON,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(catJSON), &m.CategorySpend); err != nil {
		return nil, fmt.Errorf("decode category spend: %w", err)
	}
	return &m, nil
}

const summaryCols = `key, month, year, total_spent, list_count, item_count, avg_per_list, category_spend`

func (s *ArchiveStore) GetSummary(key string) (*model.MonthlySummary, error) {
	row := s.db.QueryRow(`SELECT `+summaryCols+` FROM monthly_summaries WHERE key = ?`, key)
	m, err := scanSummary(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get summary: %w", err)
	}
	return m, nil
}

func (s *ArchiveStore) UpsertSummary(m model.MonthlySummary) error {
	catJSON, err := json.Marshal(m.CategorySpend)
	if err != nil {
		return fmt.Errorf("encode category spend: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO monthly_summaries (key, month, year, total_spent, list_count, item_count, avg_per_list, category_spend)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		   total_spent = excluded.total_spent,
		   list_count = excluded.list_count,
		   item_count = excluded.item_count,
		   avg_per_list = excluded.avg_per_list,
		   category_spend = excluded.category_spend`,
		m.Key, m.Month, m.Year, m.TotalSpent, m.ListCount, m.ItemCount, m.AvgPerList, string(catJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

// ListSummaries returns every monthly summary, newest first.
func (s *ArchiveStore) ListSummaries() ([]model.MonthlySummary, error) {
	rows, err := s.db.Query(`SELECT ` + summaryCols + ` FROM monthly_summaries ORDER BY key DESC`)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var summaries []model.MonthlySummary
	for rows.Next() {
		m, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, *m)
	}
	return summaries, rows.Err()
}

// DeleteMonth removes a monthly summary and its archives.
func (s *ArchiveStore) DeleteMonth(key string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM monthly_summaries WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete summary: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM archives WHERE strftime('%Y-%m', finished_at) = ?`, key); err != nil {
		return fmt.Errorf("delete month archives: %w", err)
	}
	return tx.Commit()
}
