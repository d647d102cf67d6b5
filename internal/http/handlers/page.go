package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/AgentPisite999/Car-Site/internal/enrollment"
	"github.com/AgentPisite999/Car-Site/internal/http/views"
	"github.com/AgentPisite999/Car-Site/internal/session"
)

type PageHandler struct {
	sessions    session.Store
	cookies     *session.CookieManager
	enrollments *enrollment.Service
	views       *views.Views
	logger      *slog.Logger
}

func NewPageHandler(sessions session.Store, cookies *session.CookieManager, enrollments *enrollment.Service, v *views.Views, logger *slog.Logger) *PageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PageHandler{sessions: sessions, cookies: cookies, enrollments: enrollments, views: v, logger: logger}
}

// Home renders the dashboard. Identity comes from query parameters first,
// then the session; query parameters are persisted back into the session.
// Without both name and email the user is sent to the landing page.
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	queryName := strings.TrimSpace(query.Get("name"))
	queryEmail := strings.TrimSpace(query.Get("email"))

	id, hasCookie := h.cookies.Read(r)
	var cached session.Data
	if hasCookie {
		data, found, err := h.sessions.Get(r.Context(), id)
		if err != nil {
			h.logger.Error("session read failed", slog.String("error", err.Error()))
		} else if found {
			cached = data
		}
	}

	name := queryName
	if name == "" {
		name = cached.Name
	}
	email := queryEmail
	if email == "" {
		email = cached.Email
	}
	if name == "" || email == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if name != cached.Name || email != cached.Email {
		if !hasCookie {
			id = h.cookies.Issue(w)
		}
		if err := h.sessions.Put(r.Context(), id, session.Data{Name: name, Email: email}); err != nil {
			h.logger.Error("session write failed", slog.String("error", err.Error()))
		}
	}

	data := homeData(r.Context(), session.Data{Name: name, Email: email}, h.enrollments)
	if err := h.views.Render(w, http.StatusOK, "home.tmpl", data); err != nil {
		h.logger.Error("home render failed", slog.String("error", err.Error()))
	}
}
