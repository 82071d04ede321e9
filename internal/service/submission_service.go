package service

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/aarondl/opt/omitnull"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/db"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/internal/storage"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

// Upload is one file attached to a submission save.
type Upload struct {
	Kind        model.FileKind
	FileName    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

type SubmissionService struct {
	tx db.Transactor

	teams       repository.TeamRepository
	submissions repository.SubmissionRepository
	store       storage.ObjectStore

	now func() time.Time
}

func NewSubmissionService(tx db.Transactor) *SubmissionService {
	return &SubmissionService{
		tx:  tx,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// OpenSubmission is the entry point of the submission form: email must be the
// lead of a team. The submission is nil when the team has not saved one yet.
func (s *SubmissionService) OpenSubmission(ctx context.Context, email string) (*model.TeamSubmission, *Error) {
	team, serr := s.leadTeam(ctx, email)
	if serr != nil {
		return nil, serr
	}

	sub, serr := s.getSubmission(ctx, team.ID)
	if serr != nil && serr.Code != ErrorCodeNotFound {
		return nil, serr
	}

	return &model.TeamSubmission{Team: team, Submission: sub}, nil
}

func (s *SubmissionService) GetSubmissionByTeamID(ctx context.Context, teamID string) (*model.ProjectSubmission, *Error) {
	return s.getSubmission(ctx, teamID)
}

// SaveSubmission upserts the whole document as given. File lists must already
// hold every reference to keep.
func (s *SubmissionService) SaveSubmission(ctx context.Context, sub *model.ProjectSubmission) (*model.ProjectSubmission, *Error) {
	l := logger.FromContext(ctx)
	l.Info("saving submission", zap.String("team_id", sub.TeamID))

	if strings.TrimSpace(sub.ProjectName) == "" || strings.TrimSpace(sub.ProjectDescription) == "" {
		return nil, NewError(ErrorCodeValidation, "project name and description are required")
	}

	if _, err := s.teams.Get(ctx, sub.TeamID); errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "team not found")
	} else if err != nil {
		l.Error("failed to get team", zap.String("team_id", sub.TeamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to save submission")
	}

	row := submissionToRepo(sub)
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.submissions.Upsert(txCtx, row); err != nil {
			l.Error("failed to upsert submission", zap.String("team_id", sub.TeamID), zap.Error(err))
			return NewError(ErrorCodeSaveFailed, "failed to save submission")
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "failed to save submission")
	}

	return submissionFromRepo(row), nil
}

// SubmitProject is the lead-facing save: uploads go out one at a time, then
// the stored document is merged with input and the new file references.
// Nothing is written if any upload fails.
func (s *SubmissionService) SubmitProject(
	ctx context.Context,
	email string,
	in *model.SubmissionInput,
	uploads []*Upload,
) (*model.ProjectSubmission, *Error) {
	l := logger.FromContext(ctx)

	if err := validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	for _, u := range uploads {
		if !u.Kind.Valid() {
			return nil, NewErrorf(ErrorCodeValidation, "unknown file kind %q", u.Kind)
		}
	}

	team, serr := s.leadTeam(ctx, email)
	if serr != nil {
		return nil, serr
	}

	current, serr := s.getSubmission(ctx, team.ID)
	switch {
	case serr != nil && serr.Code == ErrorCodeNotFound:
		current = &model.ProjectSubmission{TeamID: team.ID}
	case serr != nil:
		return nil, serr
	}

	uploaded, serr := s.uploadAll(ctx, team.ID, uploads)
	if serr != nil {
		return nil, serr
	}

	merged := mergeSubmission(current, in, uploaded)

	saved, serr := s.SaveSubmission(ctx, merged)
	if serr != nil {
		s.removeKeys(ctx, uploadedKeys(uploaded))
		return nil, serr
	}

	l.Info("project submitted",
		zap.String("team_id", team.ID),
		zap.Int("uploads", len(uploaded)))

	return saved, nil
}

type uploadedFile struct {
	kind model.FileKind
	key  string
	ref  model.FileRef
}

func uploadedKeys(files []uploadedFile) []string {
	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.key)
	}
	return keys
}

func (s *SubmissionService) uploadAll(ctx context.Context, teamID string, uploads []*Upload) ([]uploadedFile, *Error) {
	l := logger.FromContext(ctx)

	done := make([]uploadedFile, 0, len(uploads))
	for _, u := range uploads {
		f, err := s.upload(ctx, teamID, u)
		if err != nil {
			l.Error("upload failed, aborting batch",
				zap.String("team_id", teamID),
				zap.String("file_name", u.FileName),
				zap.Int("already_uploaded", len(done)),
				zap.Error(err))
			s.removeKeys(ctx, uploadedKeys(done))

			if storage.IsPermissionDenied(err) {
				return nil, NewErrorf(ErrorCodeStorageDenied, "storage refused %s, contact the organizers", u.FileName)
			}
			return nil, NewErrorf(ErrorCodeUploadFailed, "failed to upload %s", u.FileName)
		}
		done = append(done, f)
	}
	return done, nil
}

func (s *SubmissionService) upload(ctx context.Context, teamID string, u *Upload) (uploadedFile, error) {
	key, err := storage.SubmissionKey(teamID, u.Kind, u.FileName, s.now())
	if err != nil {
		return uploadedFile{}, errors.Wrap(err, "build object key")
	}

	body, err := u.Open()
	if err != nil {
		return uploadedFile{}, errors.Wrap(err, "open upload")
	}
	defer body.Close()

	url, err := s.store.Put(ctx, key, u.ContentType, body)
	if err != nil {
		return uploadedFile{}, err
	}

	return uploadedFile{
		kind: u.Kind,
		key:  key,
		ref:  model.FileRef{URL: url, FileName: u.FileName},
	}, nil
}

// removeKeys deletes objects best-effort; failures are only logged.
func (s *SubmissionService) removeKeys(ctx context.Context, keys []string) {
	l := logger.FromContext(ctx)
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			l.Warn("failed to clean up object", zap.String("key", key), zap.Error(err))
		}
	}
}

// RemoveObjects deletes every stored object referenced by sub, best-effort.
func (s *SubmissionService) RemoveObjects(ctx context.Context, sub *model.ProjectSubmission) {
	if sub == nil {
		return
	}

	var keys []string
	for _, kind := range []model.FileKind{model.FileKindSlide, model.FileKindVideo, model.FileKindImage} {
		for _, ref := range *sub.Files(kind) {
			if key, ok := s.store.KeyFromURL(ref.URL); ok {
				keys = append(keys, key)
			}
		}
	}
	s.removeKeys(ctx, keys)
}

func mergeSubmission(current *model.ProjectSubmission, in *model.SubmissionInput, uploaded []uploadedFile) *model.ProjectSubmission {
	merged := *current
	merged.ProjectName = strings.TrimSpace(in.ProjectName)
	merged.ProjectDescription = strings.TrimSpace(in.ProjectDescription)

	merged.GithubURL = mergeURL(current.GithubURL, in.GithubURL)
	merged.DeployedURL = mergeURL(current.DeployedURL, in.DeployedURL)

	merged.Slides = append([]model.FileRef{}, current.Slides...)
	merged.Videos = append([]model.FileRef{}, current.Videos...)
	merged.Images = append([]model.FileRef{}, current.Images...)
	for _, f := range uploaded {
		list := merged.Files(f.kind)
		*list = append(*list, f.ref)
	}
	return &merged
}

// mergeURL keeps the stored value for unset or blank input. Only an explicit null clears it.
func mergeURL(stored *string, in omitnull.Val[string]) *string {
	if in.IsNull() {
		return nil
	}
	v, ok := in.Get()
	if !ok {
		return stored
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return stored
	}
	return &v
}

func (s *SubmissionService) ListSubmissions(ctx context.Context) ([]*model.ProjectSubmission, *Error) {
	rows, err := s.submissions.GetAll(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list submissions", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list submissions")
	}

	res := make([]*model.ProjectSubmission, 0, len(rows))
	for _, r := range rows {
		res = append(res, submissionFromRepo(r))
	}
	return res, nil
}

func (s *SubmissionService) DeleteSubmission(ctx context.Context, teamID string) *Error {
	l := logger.FromContext(ctx)
	l.Info("deleting submission", zap.String("team_id", teamID))

	sub, serr := s.getSubmission(ctx, teamID)
	if serr != nil {
		return serr
	}

	err := s.submissions.Delete(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return NewError(ErrorCodeNotFound, "submission not found")
	}
	if err != nil {
		l.Error("failed to delete submission", zap.String("team_id", teamID), zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to delete submission")
	}

	s.RemoveObjects(ctx, sub)
	return nil
}

func (s *SubmissionService) getSubmission(ctx context.Context, teamID string) (*model.ProjectSubmission, *Error) {
	row, err := s.submissions.Get(ctx, teamID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, NewError(ErrorCodeNotFound, "submission not found")
	}
	if err != nil {
		logger.FromContext(ctx).Error("failed to get submission", zap.String("team_id", teamID), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get submission")
	}
	return submissionFromRepo(row), nil
}

// leadTeam resolves the team email leads. Lookup is by creator, so a plain
// member gets NOT_FOUND rather than access.
func (s *SubmissionService) leadTeam(ctx context.Context, email string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	email = model.NormalizeEmail(email)

	row, err := s.teams.GetByCreator(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("no team led by email", zap.String("email", email))
		return nil, NewError(ErrorCodeNotFound, "no team found for this email, only the team lead can submit")
	}
	if err != nil {
		l.Error("failed to get team by email", zap.String("email", email), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}

	team := teamFromRepo(row)
	if lead := team.Lead(); lead == nil || lead.Email != email {
		return nil, NewError(ErrorCodeNotTeamLead, "only the team lead can submit")
	}
	return team, nil
}

func (s *SubmissionService) WithTeamRepo(r repository.TeamRepository) *SubmissionService {
	s.teams = r
	return s
}

func (s *SubmissionService) WithSubmissionRepo(r repository.SubmissionRepository) *SubmissionService {
	s.submissions = r
	return s
}

func (s *SubmissionService) WithObjectStore(store storage.ObjectStore) *SubmissionService {
	s.store = store
	return s
}

func (s *SubmissionService) WithClock(now func() time.Time) *SubmissionService {
	s.now = now
	return s
}
