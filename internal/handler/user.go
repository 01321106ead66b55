package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Gauravprp/localNetChatBygs/internal/directory"
	"github.com/Gauravprp/localNetChatBygs/internal/model"
	"github.com/Gauravprp/localNetChatBygs/internal/ws"
)

var validate = validator.New()

type UserHandler struct {
	dir directory.Directory
	hub *ws.Hub
}

func NewUserHandler(dir directory.Directory, hub *ws.Hub) *UserHandler {
	return &UserHandler{dir: dir, hub: hub}
}

// CreateUserRequest registers a username in the directory. First writer of a
// name wins; a duplicate is a conflict.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid username")
		return
	}
	// The group id namespace is reserved; a username may not collide with it.
	if strings.Contains(req.Username, ":") {
		writeError(w, http.StatusBadRequest, "invalid username")
		return
	}

	user, err := h.dir.CreateUser(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, directory.ErrUserExists) {
			writeError(w, http.StatusConflict, "username already taken")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUsers lists all users, reconciled against the connection registry so
// that anyone without a live connection shows as offline.
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.dir.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list users failed")
		return
	}
	reg := h.hub.Registry()
	for i := range users {
		if !reg.Connected(users[i].Username) {
			users[i] = users[i].WithStatus(model.StatusOffline)
		}
	}
	writeJSON(w, http.StatusOK, users)
}
