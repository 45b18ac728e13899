package history

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dmelo/feirinha/internal/model"
)

// Export is the serializable dump of the full history.
type Export struct {
	Months     []model.MonthlySummary `json:"months"`
	Archives   []model.ArchivedList   `json:"archives"`
	Stats      Stats                  `json:"stats"`
	ExportedAt time.Time              `json:"exported_at"`
}

// BuildExport assembles the complete history dump.
func (a *Archiver) BuildExport() (Export, error) {
	months, err := a.store.ListSummaries()
	if err != nil {
		return Export{}, err
	}
	archives, err := a.store.List()
	if err != nil {
		return Export{}, err
	}
	stats, err := a.Stats()
	if err != nil {
		return Export{}, err
	}
	return Export{
		Months:     months,
		Archives:   archives,
		Stats:      stats,
		ExportedAt: a.now().UTC(),
	}, nil
}

// WriteJSON writes the full history as indented JSON.
func (a *Archiver) WriteJSON(w io.Writer) error {
	export, err := a.BuildExport()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

// WriteCSV writes one row per archived item.
func (a *Archiver) WriteCSV(w io.Writer) error {
	archives, err := a.store.List()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	header := []string{"Lista", "Data", "Item", "Quantidade", "Valor Unitário", "Total", "Categoria", "Status"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, archive := range archives {
		for _, item := range archive.Items {
			status := "Pendente"
			if item.Purchased {
				status = "Comprado"
			}
			row := []string{
				archive.Name,
				archive.FinishedAt.Format(time.RFC3339),
				item.Name,
				strconv.FormatFloat(item.Quantity, 'f', -1, 64),
				strconv.FormatFloat(item.UnitPrice, 'f', -1, 64),
				strconv.FormatFloat(item.Quantity*item.UnitPrice, 'f', -1, 64),
				item.Category,
				status,
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv row: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
