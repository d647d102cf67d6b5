package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/AgentPisite999/Car-Site/internal/http/views"
	"github.com/AgentPisite999/Car-Site/internal/identity"
	"github.com/AgentPisite999/Car-Site/internal/session"
)

type Notifier interface {
	NotifyLogin(ctx context.Context, name, email string) error
}

type AuthHandler struct {
	sessions       session.Store
	cookies        *session.CookieManager
	notifier       Notifier
	views          *views.Views
	googleClientID string
	notifyTimeout  time.Duration
	logger         *slog.Logger
}

func NewAuthHandler(sessions session.Store, cookies *session.CookieManager, notifier Notifier, v *views.Views, googleClientID string, notifyTimeout time.Duration, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		sessions:       sessions,
		cookies:        cookies,
		notifier:       notifier,
		views:          v,
		googleClientID: googleClientID,
		notifyTimeout:  notifyTimeout,
		logger:         logger,
	}
}

func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := currentIdentity(r, h.cookies, h.sessions); ok {
		http.Redirect(w, r, "/home", http.StatusFound)
		return
	}
	h.render(w, http.StatusOK, "")
}

// GoogleCallback receives the credential posted by the Google sign-in
// widget, caches the decoded identity for the session, and tells the
// backend about the login before moving to the dashboard. A failed notify
// blocks the login: the backend relies on it to know the identity exists.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	decoded, err := identity.Decode(r.PostFormValue("credential"))
	if err != nil {
		h.logger.Warn("login credential rejected", slog.String("error", err.Error()))
		h.render(w, http.StatusUnauthorized, "Login failed. Please try again.")
		return
	}

	id := h.cookies.Issue(w)
	if err := h.sessions.Put(r.Context(), id, session.Data{Name: decoded.Name, Email: decoded.Email}); err != nil {
		h.logger.Error("session write failed", slog.String("error", err.Error()))
		h.cookies.Clear(w)
		h.render(w, http.StatusInternalServerError, "Login failed. Please try again.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.notifyTimeout)
	defer cancel()
	if err := h.notifier.NotifyLogin(ctx, decoded.Name, decoded.Email); err != nil {
		h.logger.Error("login notify failed", slog.String("email", decoded.Email), slog.String("error", err.Error()))
		_ = h.sessions.Delete(r.Context(), id)
		h.cookies.Clear(w)
		h.render(w, http.StatusBadGateway, "Login failed. Please try again.")
		return
	}

	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

// Logout clears the whole session and sends the browser through a full
// navigation back to the landing page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := h.cookies.Read(r); ok {
		if err := h.sessions.Delete(r.Context(), id); err != nil {
			h.logger.Error("session delete failed", slog.String("error", err.Error()))
		}
	}
	h.cookies.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) render(w http.ResponseWriter, status int, message string) {
	data := views.LoginData{GoogleClientID: h.googleClientID, Error: message}
	if err := h.views.Render(w, status, "login.tmpl", data); err != nil {
		h.logger.Error("login render failed", slog.String("error", err.Error()))
	}
}
