package enrollment

import (
	"context"
	"log/slog"

	"github.com/AgentPisite999/Car-Site/internal/backend"
)

type Reader interface {
	CheckEnrollment(ctx context.Context, email string) (backend.EnrollmentList, error)
	AllScreenings(ctx context.Context, email string) (backend.ScreeningList, error)
}

// Service exposes the two read-only lists shown on the dashboard. Read
// failures degrade to empty lists; the dashboard renders without the
// affected section and the error is only logged.
type Service struct {
	reader Reader
	logger *slog.Logger
}

func NewService(reader Reader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{reader: reader, logger: logger}
}

func (s *Service) Enrollments(ctx context.Context, email string) []backend.EnrollmentRecord {
	if email == "" {
		return nil
	}
	list, err := s.reader.CheckEnrollment(ctx, email)
	if err != nil {
		s.logger.Error("enrollment check failed", slog.String("email", email), slog.String("error", err.Error()))
		return nil
	}
	if !list.Enrolled {
		return nil
	}
	return list.Records
}

func (s *Service) Screenings(ctx context.Context, email string) []backend.ScreeningRecord {
	if email == "" {
		return nil
	}
	list, err := s.reader.AllScreenings(ctx, email)
	if err != nil {
		s.logger.Error("screening fetch failed", slog.String("email", email), slog.String("error", err.Error()))
		return nil
	}
	if !list.Found {
		return nil
	}
	return list.Records
}
