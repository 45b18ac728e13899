package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmelo/feirinha/internal/export"
	"github.com/dmelo/feirinha/internal/history"
	"github.com/dmelo/feirinha/internal/model"
	"github.com/dmelo/feirinha/internal/sync"
)

type HistoryHandler struct {
	archiver *history.Archiver
	syncer   *sync.Syncer
	exporter *export.Manager
	logger   *slog.Logger
}

func NewHistoryHandler(a *history.Archiver, s *sync.Syncer, e *export.Manager, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{archiver: a, syncer: s, exporter: e, logger: logger}
}

type archiveRequest struct {
	Name string `json:"name"`
}

// Archive snapshots the current list into history and clears it so a new
// shopping run can start.
func (h *HistoryHandler) Archive(w http.ResponseWriter, r *http.Request) {
	var req archiveRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	items, err := h.syncer.Items()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read items"})
		return
	}
	if len(items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nothing to archive"})
		return
	}

	archive, err := h.archiver.ArchiveList(r.Context(), items, req.Name)
	if err != nil {
		h.logger.Error("archive list", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to archive list"})
		return
	}
	if err := h.syncer.ClearAll(); err != nil {
		h.logger.Warn("clear after archive", "error", err)
	}
	writeJSON(w, http.StatusCreated, archive)
}

func (h *HistoryHandler) Months(w http.ResponseWriter, r *http.Request) {
	months, err := h.archiver.Months()
	if err != nil {
		h.logger.Error("list months", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list months"})
		return
	}
	if months == nil {
		months = []model.MonthlySummary{}
	}
	writeJSON(w, http.StatusOK, months)
}

type monthResponse struct {
	Summary  *model.MonthlySummary `json:"summary"`
	Archives []model.ArchivedList  `json:"archives"`
}

// Month returns one month's rollup and its archived lists. Key is "YYYY-MM".
func (h *HistoryHandler) Month(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	var year, month int
	if n, err := fmt.Sscanf(key, "%4d-%2d", &year, &month); err != nil || n != 2 || month < 1 || month > 12 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month key, want YYYY-MM"})
		return
	}

	summary, err := h.archiver.Monthly(year, month)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load month"})
		return
	}
	if summary == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no data for this month"})
		return
	}
	archives, err := h.archiver.Archives(key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load archives"})
		return
	}
	if archives == nil {
		archives = []model.ArchivedList{}
	}
	writeJSON(w, http.StatusOK, monthResponse{Summary: summary, Archives: archives})
}

func (h *HistoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.archiver.Stats()
	if err != nil {
		h.logger.Error("history stats", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *HistoryHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="historico.csv"`)
	if err := h.archiver.WriteCSV(w); err != nil {
		h.logger.Error("export csv", "error", err)
	}
}

func (h *HistoryHandler) ExportJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="historico.json"`)
	if err := h.archiver.WriteJSON(w); err != nil {
		h.logger.Error("export json", "error", err)
	}
}

// ExportS3 uploads the current history dump to configured object storage.
func (h *HistoryHandler) ExportS3(w http.ResponseWriter, r *http.Request) {
	if !h.exporter.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "object storage export is not configured"})
		return
	}
	keys, err := h.exporter.RunNow(r.Context())
	if err != nil {
		h.logger.Error("s3 export", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "export failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"keys": keys})
}

func (h *HistoryHandler) ExportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.exporter.Status())
}
