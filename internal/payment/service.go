package payment

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AgentPisite999/Car-Site/internal/backend"
	"github.com/AgentPisite999/Car-Site/internal/common"
	"github.com/AgentPisite999/Car-Site/internal/pricing"
)

// attemptTTL bounds how long a finished attempt is kept for rendering
// before settle drops it.
const attemptTTL = time.Hour

// Attempt is the transient state of one payment attempt. It lives in
// memory only; a new lookup by the same user discards the previous one.
// Callers always receive snapshots, never the stored record.
type Attempt struct {
	ID           string
	UserEmail    string
	EnrollmentID string
	Student      backend.Student
	Amount       int64
	OrderID      string
	State        State
	CreatedAt    time.Time
}

type Gateway interface {
	GetStudent(ctx context.Context, enrollmentID string) (backend.StudentLookup, error)
	CheckEnrollment(ctx context.Context, email string) (backend.EnrollmentList, error)
	CreateOrder(ctx context.Context, amount int64) (backend.Order, error)
	VerifyPayment(ctx context.Context, request backend.VerifyRequest) (backend.VerifyOutcome, error)
}

type Service struct {
	gateway Gateway
	logger  *slog.Logger

	mu       sync.Mutex
	attempts map[string]*Attempt
	byUser   map[string]string
}

func NewService(gateway Gateway, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		gateway:  gateway,
		logger:   logger,
		attempts: make(map[string]*Attempt),
		byUser:   make(map[string]string),
	}
}

// Lookup starts a fresh attempt for the entered enrollment ID. The
// returned attempt carries the display state; only StateFound exposes a
// payable student. When the caller's own enrollment history already holds
// the ID, the attempt short-circuits to StateAlreadyPaid and order
// creation is never reached.
func (s *Service) Lookup(ctx context.Context, userEmail, enrollmentID string) (*Attempt, error) {
	enrollmentID = strings.TrimSpace(enrollmentID)
	if enrollmentID == "" {
		return nil, common.NewValidationError("invalid request", map[string]string{"enrollment_id": "enrollment id is required"})
	}
	attempt := &Attempt{
		ID:           uuid.NewString(),
		UserEmail:    userEmail,
		EnrollmentID: enrollmentID,
		State:        StateFetching,
		CreatedAt:    time.Now().UTC(),
	}

	lookup, err := s.gateway.GetStudent(ctx, enrollmentID)
	if err != nil {
		s.logger.Error("student lookup failed", slog.String("enrollment_id", enrollmentID), slog.String("error", err.Error()))
		return s.settle(attempt, StateError), nil
	}
	switch lookup.Outcome {
	case backend.LookupNotApproved:
		return s.settle(attempt, StateNotApproved), nil
	case backend.LookupApproved:
	default:
		return s.settle(attempt, StateNotFound), nil
	}
	attempt.Student = lookup.Student

	history, err := s.gateway.CheckEnrollment(ctx, userEmail)
	if err != nil {
		s.logger.Error("enrollment cross-check failed", slog.String("email", userEmail), slog.String("error", err.Error()))
		return s.settle(attempt, StateError), nil
	}
	if history.Enrolled {
		for _, record := range history.Records {
			if record.EnrollmentID == enrollmentID {
				return s.settle(attempt, StateAlreadyPaid), nil
			}
		}
	}

	attempt.Amount = pricing.Amount(lookup.Student.Position, lookup.Student.Duration)
	if attempt.Amount == 0 {
		s.logger.Warn("no fee mapped for position and duration",
			slog.String("position", lookup.Student.Position),
			slog.String("duration", lookup.Student.Duration))
	}
	return s.settle(attempt, StateFound), nil
}

// StartOrder requests a backend order for a found attempt. On failure the
// attempt returns to StateFound and may be retried by the user.
func (s *Service) StartOrder(ctx context.Context, attemptID string) (*Attempt, error) {
	attempt, err := s.transition(attemptID, StatePaying)
	if err != nil {
		return attempt, err
	}
	order, err := s.gateway.CreateOrder(ctx, attempt.Amount)
	if err != nil {
		s.logger.Error("order creation failed", slog.String("attempt_id", attempt.ID), slog.String("error", err.Error()))
		attempt, _ = s.transition(attemptID, StateFound)
		return attempt, common.NewError(common.CodeUnavailable, "payment initiation failed", err)
	}
	return s.setOrder(attemptID, order.ID)
}

// Verify submits the checkout result to the backend. Anything but an
// accepted verification lands the attempt in StateFailed; the user must
// restart from a new lookup.
func (s *Service) Verify(ctx context.Context, attemptID, paymentID, signature string) (*Attempt, error) {
	attempt, err := s.transition(attemptID, StateVerifying)
	if err != nil {
		return attempt, err
	}
	outcome, err := s.gateway.VerifyPayment(ctx, backend.VerifyRequest{
		Student:      attempt.Student,
		EnrollmentID: attempt.EnrollmentID,
		OrderID:      attempt.OrderID,
		PaymentID:    paymentID,
		Signature:    signature,
		UserEmail:    attempt.UserEmail,
	})
	if err != nil {
		s.logger.Error("payment verification failed", slog.String("attempt_id", attempt.ID), slog.String("error", err.Error()))
		attempt, _ = s.transition(attemptID, StateFailed)
		return attempt, nil
	}
	if outcome == backend.VerifyAccepted {
		attempt, _ = s.transition(attemptID, StateSuccess)
	} else {
		attempt, _ = s.transition(attemptID, StateFailed)
	}
	return attempt, nil
}

// Get returns a snapshot of an attempt by ID for rendering.
func (s *Service) Get(attemptID string) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "payment attempt not found", nil)
	}
	snapshot := *attempt
	return &snapshot, nil
}

// settle publishes the attempt's first display state, replaces any
// previous attempt by the same user, and drops terminal attempts older
// than attemptTTL. The stored record never leaves the lock; callers get a
// snapshot.
func (s *Service) settle(attempt *Attempt, to State) *Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt.State = to
	if previous, ok := s.byUser[attempt.UserEmail]; ok {
		delete(s.attempts, previous)
	}
	cutoff := time.Now().Add(-attemptTTL)
	for id, old := range s.attempts {
		if old.State.Terminal() && old.CreatedAt.Before(cutoff) {
			delete(s.attempts, id)
			if s.byUser[old.UserEmail] == id {
				delete(s.byUser, old.UserEmail)
			}
		}
	}
	s.byUser[attempt.UserEmail] = attempt.ID
	s.attempts[attempt.ID] = attempt
	snapshot := *attempt
	return &snapshot
}

// transition moves the stored attempt to the target state and returns a
// snapshot. A disallowed move returns the unchanged snapshot with a
// conflict error.
func (s *Service) transition(attemptID string, to State) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "payment attempt not found", nil)
	}
	snapshot := *attempt
	if !isAllowedTransition(attempt.State, to) {
		return &snapshot, common.NewError(common.CodeConflict, "invalid payment state transition", nil)
	}
	attempt.State = to
	snapshot.State = to
	return &snapshot, nil
}

func (s *Service) setOrder(attemptID, orderID string) (*Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attempt, ok := s.attempts[attemptID]
	if !ok {
		return nil, common.NewError(common.CodeNotFound, "payment attempt not found", nil)
	}
	attempt.OrderID = orderID
	snapshot := *attempt
	return &snapshot, nil
}
