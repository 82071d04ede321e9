package service

import (
	"context"

	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

type FeedbackService struct {
	feedback   repository.FeedbackRepository
	galleryURL string
}

func NewFeedbackService(r repository.FeedbackRepository) *FeedbackService {
	return &FeedbackService{feedback: r}
}

func (f *FeedbackService) WithGalleryURL(url string) *FeedbackService {
	f.galleryURL = url
	return f
}

func (f *FeedbackService) HasFeedback(ctx context.Context, email string) (bool, *Error) {
	email = model.NormalizeEmail(email)

	ok, err := f.feedback.Exists(ctx, email)
	if err != nil {
		logger.FromContext(ctx).Error("failed to check feedback", zap.String("email", email), zap.Error(err))
		return false, NewError(ErrorCodeUnspecified, "failed to check feedback")
	}
	return ok, nil
}

// SaveFeedback stores the record once per email. A second call fails with
// ALREADY_SUBMITTED even when two requests race.
func (f *FeedbackService) SaveFeedback(ctx context.Context, fb *model.HackathonFeedback) (*model.HackathonFeedback, *Error) {
	l := logger.FromContext(ctx)

	fb.Normalize()

	if err := validate.Struct(fb); err != nil {
		l.Warn("invalid feedback", zap.String("email", fb.Email), zap.Error(err))
		return nil, validationError(err)
	}

	row := feedbackToRepo(fb)
	err := f.feedback.Create(ctx, row)
	if errors.Is(err, repository.ErrAlreadyExists) {
		l.Warn("feedback already submitted", zap.String("email", fb.Email))
		return nil, NewError(ErrorCodeAlreadySubmitted, "feedback was already submitted for this email")
	}
	if err != nil {
		l.Error("failed to save feedback", zap.String("email", fb.Email), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to save feedback")
	}

	l.Info("feedback saved", zap.String("email", fb.Email))

	return feedbackFromRepo(row), nil
}

func (f *FeedbackService) ListFeedback(ctx context.Context) ([]*model.HackathonFeedback, *Error) {
	rows, err := f.feedback.GetAll(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list feedback", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list feedback")
	}

	res := make([]*model.HackathonFeedback, 0, len(rows))
	for _, r := range rows {
		res = append(res, feedbackFromRepo(r))
	}
	return res, nil
}

func (f *FeedbackService) DeleteFeedback(ctx context.Context, email string) *Error {
	l := logger.FromContext(ctx)
	email = model.NormalizeEmail(email)

	err := f.feedback.Delete(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "feedback not found")
	}
	if err != nil {
		l.Error("failed to delete feedback", zap.String("email", email), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete feedback")
	}

	l.Info("feedback deleted", zap.String("email", email))
	return nil
}

// PhotoAccess returns the gallery link to anyone who has left feedback.
func (f *FeedbackService) PhotoAccess(ctx context.Context, email string) (string, *Error) {
	ok, serr := f.HasFeedback(ctx, email)
	if serr != nil {
		return "", serr
	}
	if !ok {
		return "", NewError(ErrorCodeFeedbackRequired, "submit your feedback to unlock the photos")
	}
	if f.galleryURL == "" {
		return "", NewError(ErrorCodeNotFound, "photos are not available yet")
	}
	return f.galleryURL, nil
}
