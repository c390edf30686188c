package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diewo77/freelance/auth"
	"github.com/diewo77/freelance/internal/models"
	"github.com/diewo77/freelance/view"
)

type AuthHandler struct {
	db      *gorm.DB
	limiter *auth.Limiter
}

func NewAuthHandler(db *gorm.DB, limiter *auth.Limiter) *AuthHandler {
	return &AuthHandler{db: db, limiter: limiter}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if _, ok := auth.UserIDFromContext(r.Context()); ok {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		view.Render(w, r, "login.html", nil)
		return
	}

	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	if h.limiter != nil && !h.limiter.Allow(r) {
		w.WriteHeader(http.StatusTooManyRequests)
		view.Render(w, r, "login.html", map[string]any{"Error": "login.throttled", "Username": username})
		return
	}

	var user models.User
	err := h.db.Where("username = ?", username).First(&user).Error
	if err == nil {
		err = auth.CheckPassword(user.Password, password)
	}
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, auth.ErrInvalidCredentials) {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("login lookup failed")
		}
		zerolog.Ctx(r.Context()).Info().Str("username", username).Msg("login failed")
		view.Render(w, r, "login.html", map[string]any{"Error": "login.invalid", "Username": username})
		return
	}

	auth.CreateSession(w, user.ID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
