package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

type ParticipantService struct {
	participants    repository.ParticipantRepository
	registrationURL string
}

func NewParticipantService(r repository.ParticipantRepository) *ParticipantService {
	return &ParticipantService{participants: r}
}

// WithRegistrationURL sets the link returned with EMAIL_NOT_REGISTERED.
func (p *ParticipantService) WithRegistrationURL(url string) *ParticipantService {
	p.registrationURL = url
	return p
}

func (p *ParticipantService) IsEmailRegistered(ctx context.Context, email string) (bool, *Error) {
	l := logger.FromContext(ctx)
	email = model.NormalizeEmail(email)

	ok, err := p.participants.Exists(ctx, email)
	if err != nil {
		l.Error("failed to check participant", zap.String("email", email), zap.Error(err))
		return false, NewError(ErrorCodeUnspecified, "failed to check participant registration")
	}
	return ok, nil
}

// RequireRegistered fails with EMAIL_NOT_REGISTERED naming the email when it is not on the allow-list.
func (p *ParticipantService) RequireRegistered(ctx context.Context, email string) *Error {
	ok, serr := p.IsEmailRegistered(ctx, email)
	if serr != nil {
		return serr
	}
	if !ok {
		logger.FromContext(ctx).Warn("email not registered", zap.String("email", email))
		res := NewErrorf(ErrorCodeEmailNotRegistered, "%s is not registered for the hackathon", email)
		res.Link = p.registrationURL
		return res
	}
	return nil
}

// ImportParticipants adds every email not yet on the allow-list. It does not
// stop on bad entries; each one is reported in the summary.
func (p *ParticipantService) ImportParticipants(ctx context.Context, emails []string) *model.ImportSummary {
	l := logger.FromContext(ctx)
	summary := &model.ImportSummary{Errors: []string{}}

	for _, raw := range emails {
		email := model.NormalizeEmail(raw)
		if !validEmail(email) {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: invalid email", raw))
			continue
		}

		err := p.participants.Create(ctx, &repository.Participant{Email: email})
		switch {
		case errors.Is(err, repository.ErrAlreadyExists):
			summary.Skipped++
		case err != nil:
			l.Error("failed to import participant", zap.String("email", email), zap.Error(err))
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", email, err))
		default:
			summary.Added++
		}
	}

	l.Info("participants imported",
		zap.Int("added", summary.Added),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", len(summary.Errors)))

	return summary
}

func (p *ParticipantService) ListParticipants(ctx context.Context) ([]*model.RegisteredParticipant, *Error) {
	rows, err := p.participants.GetAll(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list participants", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list participants")
	}

	res := make([]*model.RegisteredParticipant, 0, len(rows))
	for _, r := range rows {
		res = append(res, &model.RegisteredParticipant{Email: r.Email, RegisteredAt: r.RegisteredAt})
	}
	return res, nil
}
