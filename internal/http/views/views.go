package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/AgentPisite999/Car-Site/internal/backend"
)

//go:embed templates/*.tmpl
var files embed.FS

type Views struct {
	templates *template.Template
}

func New() (*Views, error) {
	templates, err := template.ParseFS(files, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Views{templates: templates}, nil
}

// Render buffers the template output so a render failure never leaves a
// half-written page behind.
func (v *Views) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := v.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

type LoginData struct {
	GoogleClientID string
	Error          string
}

type Message struct {
	Kind string
	Text string
}

type ScreeningFormData struct {
	Name     string
	Email    string
	Phone    string
	Position string
	Duration string
	Errors   map[string]string
}

type PaymentData struct {
	State        string
	EnrollmentID string
	Student      *backend.Student
	Amount       int64
	AttemptID    string
	Error        string
}

type HomeData struct {
	Name        string
	Email       string
	Enrollments []backend.EnrollmentRecord
	Screenings  []backend.ScreeningRecord
	Positions   []string
	Durations   []string
	Form        ScreeningFormData
	Message     *Message
	Payment     *PaymentData
}

type CheckoutData struct {
	RazorpayKeyID string
	OrderID       string
	AttemptID     string
	Amount        int64
	Student       backend.Student
}

type PaymentResultData struct {
	Success         bool
	Message         string
	RedirectDelayMs int64
}
