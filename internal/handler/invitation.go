package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmelo/feirinha/internal/auth"
	"github.com/dmelo/feirinha/internal/model"
	"github.com/dmelo/feirinha/internal/sharing"
)

type InvitationHandler struct {
	sharing *sharing.Service
	logger  *slog.Logger
}

func NewInvitationHandler(svc *sharing.Service, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{sharing: svc, logger: logger}
}

type inviteRequest struct {
	Email string `json:"email"`
}

// Create invites an email address to the list in the path. Owner only.
func (h *InvitationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req inviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	inv, err := h.sharing.Invite(auth.UserID(r.Context()), r.PathValue("id"), req.Email)
	if err != nil {
		writeSharingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// Pending lists the open invitations addressed to the logged-in user's email.
func (h *InvitationHandler) Pending(w http.ResponseWriter, r *http.Request) {
	invs, err := h.sharing.PendingFor(auth.Email(r.Context()))
	if err != nil {
		h.logger.Error("pending invitations", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list invitations"})
		return
	}
	if invs == nil {
		invs = []model.Invitation{}
	}
	writeJSON(w, http.StatusOK, invs)
}

func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	list, err := h.sharing.Accept(ac.UserID, ac.Email, r.PathValue("id"))
	if err != nil {
		writeSharingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *InvitationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ac, _ := auth.FromContext(r.Context())
	if err := h.sharing.Reject(ac.UserID, ac.Email, r.PathValue("id")); err != nil {
		writeSharingError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
