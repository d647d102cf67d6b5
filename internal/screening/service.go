package screening

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"sync"

	"github.com/AgentPisite999/Car-Site/internal/backend"
	"github.com/AgentPisite999/Car-Site/internal/common"
)

var Positions = []string{
	"Data Analyst",
	"Data Scientist",
	"AI Engineer",
	"Android Developer",
	"Website Developer",
}

var Durations = []string{"1 month", "3 month", "6 month"}

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// Form is one screening application as entered by the user.
type Form struct {
	Name       string
	Email      string
	Phone      string
	Position   string
	Duration   string
	ResumeName string
	Resume     io.Reader
}

type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeDuplicate
	OutcomeFailed
)

type Result struct {
	Outcome      Outcome
	EnrollmentID string
}

type Submitter interface {
	SubmitScreening(ctx context.Context, submission backend.ScreeningSubmission) (backend.SubmitResult, error)
}

// Service validates and submits screening applications. One submission per
// user may be in flight at a time; the backend decides acceptance and
// duplicate detection.
type Service struct {
	submitter Submitter
	logger    *slog.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

func NewService(submitter Submitter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{submitter: submitter, logger: logger, inFlight: make(map[string]bool)}
}

// Validate reports per-field problems. An empty map means the form may be
// submitted; nothing here reaches the network.
func Validate(form Form) map[string]string {
	fields := map[string]string{}
	if strings.TrimSpace(form.Name) == "" {
		fields["name"] = "name is required"
	}
	if strings.TrimSpace(form.Email) == "" {
		fields["email"] = "email is required"
	}
	if !phonePattern.MatchString(strings.TrimSpace(form.Phone)) {
		fields["phone"] = "phone must be exactly 10 digits"
	}
	if !contains(Positions, form.Position) {
		fields["position"] = "select a position"
	}
	if !contains(Durations, form.Duration) {
		fields["duration"] = "select a duration"
	}
	if form.Resume == nil || strings.TrimSpace(form.ResumeName) == "" {
		fields["resume"] = "resume file is required"
	}
	return fields
}

func (s *Service) Submit(ctx context.Context, userEmail string, form Form) (Result, error) {
	if fields := Validate(form); len(fields) > 0 {
		return Result{}, common.NewValidationError("invalid screening form", fields)
	}
	if !s.begin(userEmail) {
		return Result{}, common.NewError(common.CodeConflict, "submission already in flight", nil)
	}
	defer s.end(userEmail)

	submitted, err := s.submitter.SubmitScreening(ctx, backend.ScreeningSubmission{
		Name:       strings.TrimSpace(form.Name),
		Email:      strings.TrimSpace(form.Email),
		Phone:      strings.TrimSpace(form.Phone),
		Position:   form.Position,
		Duration:   form.Duration,
		UserEmail:  userEmail,
		ResumeName: form.ResumeName,
		Resume:     form.Resume,
	})
	if err != nil {
		s.logger.Error("screening submit failed", slog.String("email", userEmail), slog.String("error", err.Error()))
		return Result{Outcome: OutcomeFailed}, nil
	}
	switch submitted.Outcome {
	case backend.SubmitAccepted:
		return Result{Outcome: OutcomeAccepted, EnrollmentID: submitted.EnrollmentID}, nil
	case backend.SubmitDuplicate:
		return Result{Outcome: OutcomeDuplicate}, nil
	default:
		return Result{Outcome: OutcomeFailed}, nil
	}
}

func (s *Service) begin(userEmail string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[userEmail] {
		return false
	}
	s.inFlight[userEmail] = true
	return true
}

func (s *Service) end(userEmail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, userEmail)
}

func contains(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}
	return false
}
