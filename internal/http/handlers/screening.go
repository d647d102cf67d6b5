package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/AgentPisite999/Car-Site/internal/common"
	"github.com/AgentPisite999/Car-Site/internal/enrollment"
	"github.com/AgentPisite999/Car-Site/internal/http/views"
	"github.com/AgentPisite999/Car-Site/internal/screening"
	"github.com/AgentPisite999/Car-Site/internal/session"
)

type ScreeningHandler struct {
	sessions       session.Store
	cookies        *session.CookieManager
	screenings     *screening.Service
	enrollments    *enrollment.Service
	views          *views.Views
	maxResumeBytes int64
	logger         *slog.Logger
}

func NewScreeningHandler(sessions session.Store, cookies *session.CookieManager, screenings *screening.Service, enrollments *enrollment.Service, v *views.Views, maxResumeBytes int64, logger *slog.Logger) *ScreeningHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScreeningHandler{
		sessions:       sessions,
		cookies:        cookies,
		screenings:     screenings,
		enrollments:    enrollments,
		views:          v,
		maxResumeBytes: maxResumeBytes,
		logger:         logger,
	}
}

// Submit accepts the screening form, validates it, and forwards it to the
// backend as one multipart request. A successful submission clears the form
// and re-reads the submission list; duplicates and failures keep the
// entered values so the user can correct and retry by hand.
func (h *ScreeningHandler) Submit(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := currentIdentity(r, h.cookies, h.sessions)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(h.maxResumeBytes); err != nil {
		h.logger.Warn("screening form parse failed", slog.String("error", err.Error()))
		h.renderHome(w, r, identity, views.ScreeningFormData{}, &views.Message{Kind: "error", Text: "Submission failed. Try again later."}, http.StatusBadRequest)
		return
	}

	form := screening.Form{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Phone:    r.PostFormValue("phone"),
		Position: r.PostFormValue("position"),
		Duration: r.PostFormValue("duration"),
	}
	file, header, err := r.FormFile("resume")
	if err == nil {
		defer file.Close()
		form.Resume = file
		form.ResumeName = header.Filename
	}

	userEmail := identity.Email
	if userEmail == "" {
		userEmail = form.Email
	}

	result, err := h.screenings.Submit(r.Context(), userEmail, form)
	if err != nil {
		var coded *common.Error
		switch {
		case errors.As(err, &coded) && coded.Code == common.CodeValidation:
			h.renderHome(w, r, identity, formData(form, coded.Fields), nil, http.StatusBadRequest)
		case common.Is(err, common.CodeConflict):
			h.renderHome(w, r, identity, formData(form, nil), &views.Message{Kind: "warn", Text: "A submission is already in progress."}, http.StatusConflict)
		default:
			h.logger.Error("screening submit error", slog.String("error", err.Error()))
			h.renderHome(w, r, identity, formData(form, nil), &views.Message{Kind: "error", Text: "Submission failed. Try again later."}, http.StatusInternalServerError)
		}
		return
	}

	switch result.Outcome {
	case screening.OutcomeAccepted:
		message := &views.Message{Kind: "success", Text: fmt.Sprintf("Screening submitted successfully! Enrollment ID: %s", result.EnrollmentID)}
		h.renderHome(w, r, identity, views.ScreeningFormData{}, message, http.StatusOK)
	case screening.OutcomeDuplicate:
		message := &views.Message{Kind: "warn", Text: "You've already submitted for the same role and duration."}
		h.renderHome(w, r, identity, formData(form, nil), message, http.StatusOK)
	default:
		message := &views.Message{Kind: "error", Text: "Submission failed. Try again later."}
		h.renderHome(w, r, identity, formData(form, nil), message, http.StatusOK)
	}
}

func (h *ScreeningHandler) renderHome(w http.ResponseWriter, r *http.Request, identity session.Data, form views.ScreeningFormData, message *views.Message, status int) {
	data := homeData(r.Context(), identity, h.enrollments)
	data.Form = form
	data.Message = message
	if err := h.views.Render(w, status, "home.tmpl", data); err != nil {
		h.logger.Error("home render failed", slog.String("error", err.Error()))
	}
}

func formData(form screening.Form, fields map[string]string) views.ScreeningFormData {
	return views.ScreeningFormData{
		Name:     form.Name,
		Email:    form.Email,
		Phone:    form.Phone,
		Position: form.Position,
		Duration: form.Duration,
		Errors:   fields,
	}
}
