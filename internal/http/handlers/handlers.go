package handlers

import (
	"context"
	"net/http"

	"github.com/AgentPisite999/Car-Site/internal/enrollment"
	"github.com/AgentPisite999/Car-Site/internal/http/views"
	"github.com/AgentPisite999/Car-Site/internal/screening"
	"github.com/AgentPisite999/Car-Site/internal/session"
)

// currentIdentity resolves the signed-in user from the session cookie. Both
// name and email must be present for any authenticated page.
func currentIdentity(r *http.Request, cookies *session.CookieManager, sessions session.Store) (session.Data, string, bool) {
	id, ok := cookies.Read(r)
	if !ok {
		return session.Data{}, "", false
	}
	data, found, err := sessions.Get(r.Context(), id)
	if err != nil || !found {
		return session.Data{}, "", false
	}
	if data.Name == "" || data.Email == "" {
		return session.Data{}, "", false
	}
	return data, id, true
}

// homeData assembles the dashboard model, re-reading both lists from the
// backend on every render.
func homeData(ctx context.Context, identity session.Data, enrollments *enrollment.Service) views.HomeData {
	return views.HomeData{
		Name:        identity.Name,
		Email:       identity.Email,
		Enrollments: enrollments.Enrollments(ctx, identity.Email),
		Screenings:  enrollments.Screenings(ctx, identity.Email),
		Positions:   screening.Positions,
		Durations:   screening.Durations,
	}
}
