package handler

import (
	"net/http"

	"carbon-tracker-go/internal/transport/httpserver/middleware"
)

type authMeResponse struct {
	ID     int64  `json:"id"`
	AuthID string `json:"auth_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) AuthMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		unauthorized(w)
		return
	}

	writeJSON(w, http.StatusOK, authMeResponse{
		ID:     user.ID,
		AuthID: user.AuthID,
		Email:  user.Email,
		Name:   user.Name,
	})
}
