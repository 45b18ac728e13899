package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/dmelo/feirinha/internal/auth"
	"github.com/dmelo/feirinha/internal/model"
	"github.com/dmelo/feirinha/internal/sharing"
	"github.com/dmelo/feirinha/internal/sync"
)

type ListHandler struct {
	sharing *sharing.Service
	syncer  *sync.Syncer
	logger  *slog.Logger
}

func NewListHandler(svc *sharing.Service, syncer *sync.Syncer, logger *slog.Logger) *ListHandler {
	return &ListHandler{sharing: svc, syncer: syncer, logger: logger}
}

type createListRequest struct {
	Name string `json:"name"`
}

func (h *ListHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	ac, _ := auth.FromContext(r.Context())
	list, err := h.sharing.CreateList(ac.UserID, ac.Email, req.Name)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, list)
}

func (h *ListHandler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.sharing.ListsFor(auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("list lists", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list lists"})
		return
	}
	if lists == nil {
		lists = []model.ShoppingList{}
	}
	writeJSON(w, http.StatusOK, lists)
}

func (h *ListHandler) Get(w http.ResponseWriter, r *http.Request) {
	list, err := h.sharing.GetList(auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeSharingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("id")
	if err := h.sharing.DeleteList(auth.UserID(r.Context()), listID); err != nil {
		writeSharingError(w, err)
		return
	}
	// If this device was following the deleted list, fall back to local.
	if h.syncer.ActiveListID() == listID {
		if err := h.syncer.SetActiveList(""); err != nil {
			h.logger.Warn("reset active list", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *ListHandler) Leave(w http.ResponseWriter, r *http.Request) {
	listID := r.PathValue("id")
	if err := h.sharing.Leave(auth.UserID(r.Context()), listID); err != nil {
		writeSharingError(w, err)
		return
	}
	if h.syncer.ActiveListID() == listID {
		if err := h.syncer.SetActiveList(""); err != nil {
			h.logger.Warn("reset active list", "error", err)
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

func (h *ListHandler) Members(w http.ResponseWriter, r *http.Request) {
	members, err := h.sharing.Members(auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeSharingError(w, err)
		return
	}
	if members == nil {
		members = []model.ListMember{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *ListHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := strconv.ParseInt(r.PathValue("user_id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid user_id"})
		return
	}
	if err := h.sharing.RemoveMember(auth.UserID(r.Context()), r.PathValue("id"), memberID); err != nil {
		writeSharingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

type setActiveRequest struct {
	ListID string `json:"list_id"`
}

// SetActive switches which list this device follows. An empty list ID
// returns to the default local list.
func (h *ListHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	userID := auth.UserID(r.Context())
	if err := h.sharing.SetActive(userID, req.ListID); err != nil {
		writeSharingError(w, err)
		return
	}
	if err := h.syncer.SetActiveList(req.ListID); err != nil {
		h.logger.Error("switch active list", "list_id", req.ListID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to switch list"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"active_list_id": req.ListID,
		"sync_state":     h.syncer.State(),
	})
}

func (h *ListHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.sharing.Active(auth.UserID(r.Context()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to read active list"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active_list_id": active})
}

func writeSharingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sharing.ErrListNotFound), errors.Is(err, sharing.ErrInviteNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, sharing.ErrNotOwner), errors.Is(err, sharing.ErrNotMember),
		errors.Is(err, sharing.ErrInviteWrongEmail):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.Is(err, sharing.ErrOwnerCannotLeave), errors.Is(err, sharing.ErrSelfInvite),
		errors.Is(err, sharing.ErrAlreadyMember), errors.Is(err, sharing.ErrDuplicateInvite),
		errors.Is(err, sharing.ErrInviteNotPending), errors.Is(err, sharing.ErrInviteExpired):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
