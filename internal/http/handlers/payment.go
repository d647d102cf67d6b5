package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/AgentPisite999/Car-Site/internal/common"
	"github.com/AgentPisite999/Car-Site/internal/enrollment"
	"github.com/AgentPisite999/Car-Site/internal/http/views"
	"github.com/AgentPisite999/Car-Site/internal/payment"
	"github.com/AgentPisite999/Car-Site/internal/session"
)

type PaymentHandler struct {
	sessions      session.Store
	cookies       *session.CookieManager
	payments      *payment.Service
	enrollments   *enrollment.Service
	views         *views.Views
	razorpayKeyID string
	redirectDelay time.Duration
	logger        *slog.Logger
}

func NewPaymentHandler(sessions session.Store, cookies *session.CookieManager, payments *payment.Service, enrollments *enrollment.Service, v *views.Views, razorpayKeyID string, redirectDelay time.Duration, logger *slog.Logger) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{
		sessions:      sessions,
		cookies:       cookies,
		payments:      payments,
		enrollments:   enrollments,
		views:         v,
		razorpayKeyID: razorpayKeyID,
		redirectDelay: redirectDelay,
		logger:        logger,
	}
}

// Lookup starts a payment attempt for the entered enrollment ID and renders
// the resulting display state on the dashboard.
func (h *PaymentHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := currentIdentity(r, h.cookies, h.sessions)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	attempt, err := h.payments.Lookup(r.Context(), identity.Email, r.PostFormValue("enrollment_id"))
	if err != nil {
		message := &views.Message{Kind: "error", Text: "Enter an enrollment ID first."}
		h.renderHome(w, r, identity, nil, message, http.StatusBadRequest)
		return
	}
	h.renderHome(w, r, identity, paymentData(attempt, ""), nil, http.StatusOK)
}

// Order creates the backend order and hands the browser to the checkout
// widget. When the backend yields no order ID the attempt stays retryable
// and the failure is shown on the found panel.
func (h *PaymentHandler) Order(w http.ResponseWriter, r *http.Request) {
	identity, _, ok := currentIdentity(r, h.cookies, h.sessions)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	attemptID := r.PostFormValue("attempt_id")
	attempt, err := h.payments.Get(attemptID)
	if err != nil || attempt.UserEmail != identity.Email {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	attempt, err = h.payments.StartOrder(r.Context(), attemptID)
	if err != nil {
		switch {
		case attempt == nil || common.Is(err, common.CodeNotFound):
			http.Redirect(w, r, "/home", http.StatusSeeOther)
		case common.Is(err, common.CodeConflict):
			// Double submit; show the attempt in whatever state the
			// first request left it.
			h.renderHome(w, r, identity, paymentData(attempt, ""), nil, http.StatusConflict)
		default:
			h.renderHome(w, r, identity, paymentData(attempt, "Payment initiation failed."), nil, http.StatusBadGateway)
		}
		return
	}
	data := views.CheckoutData{
		RazorpayKeyID: h.razorpayKeyID,
		OrderID:       attempt.OrderID,
		AttemptID:     attempt.ID,
		Amount:        attempt.Amount,
		Student:       attempt.Student,
	}
	if err := h.views.Render(w, http.StatusOK, "checkout.tmpl", data); err != nil {
		h.logger.Error("checkout render failed", slog.String("error", err.Error()))
	}
}

// Verify receives the checkout completion callback and submits it to the
// backend. Success caches the applicant identity and moves back to the
// dashboard after a fixed delay; anything else is a terminal failure that
// requires a fresh lookup.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	identity, sessionID, ok := currentIdentity(r, h.cookies, h.sessions)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	attemptID := r.PostFormValue("attempt_id")
	attempt, err := h.payments.Get(attemptID)
	if err != nil || attempt.UserEmail != identity.Email {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	attempt, err = h.payments.Verify(r.Context(), attemptID, r.PostFormValue("razorpay_payment_id"), r.PostFormValue("razorpay_signature"))
	if err != nil {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	if attempt.State != payment.StateSuccess {
		data := views.PaymentResultData{Success: false, Message: "Payment verification failed."}
		if err := h.views.Render(w, http.StatusOK, "payment_result.tmpl", data); err != nil {
			h.logger.Error("payment result render failed", slog.String("error", err.Error()))
		}
		return
	}
	if err := h.sessions.Put(r.Context(), sessionID, session.Data{Name: attempt.Student.Name, Email: identity.Email}); err != nil {
		h.logger.Error("session write failed", slog.String("error", err.Error()))
	}
	data := views.PaymentResultData{
		Success:         true,
		Message:         "Payment Successful!",
		RedirectDelayMs: h.redirectDelay.Milliseconds(),
	}
	if err := h.views.Render(w, http.StatusOK, "payment_result.tmpl", data); err != nil {
		h.logger.Error("payment result render failed", slog.String("error", err.Error()))
	}
}

func (h *PaymentHandler) renderHome(w http.ResponseWriter, r *http.Request, identity session.Data, paymentView *views.PaymentData, message *views.Message, status int) {
	data := homeData(r.Context(), identity, h.enrollments)
	data.Payment = paymentView
	data.Message = message
	if err := h.views.Render(w, status, "home.tmpl", data); err != nil {
		h.logger.Error("home render failed", slog.String("error", err.Error()))
	}
}

func paymentData(attempt *payment.Attempt, errorText string) *views.PaymentData {
	if attempt == nil {
		return nil
	}
	data := &views.PaymentData{
		State:        string(attempt.State),
		EnrollmentID: attempt.EnrollmentID,
		Amount:       attempt.Amount,
		AttemptID:    attempt.ID,
		Error:        errorText,
	}
	if attempt.State == payment.StateFound || attempt.State == payment.StateAlreadyPaid {
		student := attempt.Student
		data.Student = &student
	}
	return data
}
