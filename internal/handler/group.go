package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Gauravprp/localNetChatBygs/internal/directory"
	"github.com/Gauravprp/localNetChatBygs/internal/ws"
)

type GroupHandler struct {
	dir directory.Directory
	hub *ws.Hub
}

func NewGroupHandler(dir directory.Directory, hub *ws.Hub) *GroupHandler {
	return &GroupHandler{dir: dir, hub: hub}
}

func (h *GroupHandler) GetGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.dir.ListGroups(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list groups failed")
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

type AddMemberRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
}

// AddMember adds a user to a group. Adding an existing member is a no-op;
// the resulting member set receives a groupUpdate either way.
func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	var req AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "username required")
		return
	}
	group, err := h.hub.AddGroupMember(r.Context(), groupID, req.Username)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to add member")
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// RemoveMember removes a user from a group. Removing an absent member is a
// no-op.
func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	groupID := chi.URLParam(r, "id")
	username := chi.URLParam(r, "username")
	if username == "" {
		writeError(w, http.StatusBadRequest, "username required")
		return
	}
	group, err := h.hub.RemoveGroupMember(r.Context(), groupID, username)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			writeError(w, http.StatusNotFound, "group not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to remove member")
		return
	}
	writeJSON(w, http.StatusOK, group)
}
