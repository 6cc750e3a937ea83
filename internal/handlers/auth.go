package handlers

import (
	"net/http"

	"github.com/AnshRaj112/inframonitor-backend/internal/middleware"
	"github.com/AnshRaj112/inframonitor-backend/internal/models"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in models.RegisterInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.Auth.Register(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger().Infow("👤 user registered", "user", res.User.ID.Hex())
	writeData(w, http.StatusCreated, "User created successfully", res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var in models.LoginInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.Auth.Login(r.Context(), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Login successful", res)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, "", middleware.UserFromContext(r.Context()))
}

// ChangePassword revokes every token issued before the change and returns a fresh one.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in models.ChangePasswordInput
	if err := decode(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.Auth.ChangePassword(r.Context(), middleware.UserFromContext(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, "Password changed successfully", res)
}
