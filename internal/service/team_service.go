package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/challenge"
	"github.com/yakoovad/hackathon-portal/internal/db"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

const (
	DefaultMaxMembers = 5
	maxUpdateAttempts = 3
)

type TeamService struct {
	tx db.Transactor

	teams       repository.TeamRepository
	submissions repository.SubmissionRepository
	gate        *ParticipantService
	challenges  *challenge.Catalog

	maxMembers int
	now        func() time.Time
}

func NewTeamService(tx db.Transactor) *TeamService {
	return &TeamService{
		tx:         tx,
		maxMembers: DefaultMaxMembers,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (t *TeamService) CreateTeam(ctx context.Context, in *model.CreateTeamInput) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	l.Info("creating team", zap.String("team_name", in.TeamName), zap.String("creator", in.CreatorEmail))

	in.Normalize()
	if err := validate.Struct(in); err != nil {
		l.Warn("invalid team input", zap.Error(err))
		return nil, validationError(err)
	}

	name := in.TeamName
	if !t.challenges.Contains(in.Challenge) {
		return nil, NewErrorf(ErrorCodeValidation, "unknown challenge %q", in.Challenge)
	}

	creator := in.CreatorEmail
	if in.Members[0].Email != creator {
		return nil, NewError(ErrorCodeValidation, "the first member must be the team lead using the creator email")
	}
	if len(in.Members) > t.maxMembers {
		return nil, NewErrorf(ErrorCodeTeamFull, "a team can have at most %d members", t.maxMembers)
	}

	now := t.now()
	team := &model.Team{
		ID:         uuid.NewString(),
		Name:       name,
		Challenge:  in.Challenge,
		CreatedBy:  creator,
		Members:    make([]*model.Member, 0, len(in.Members)),
		MaxMembers: t.maxMembers,
	}
	for i, m := range in.Members {
		email := m.Email
		if team.HasMember(email) {
			return nil, NewErrorf(ErrorCodeDuplicateEmail, "%s is listed more than once", email)
		}
		role := model.RoleMember
		if i == 0 {
			role = model.RoleTeamLead
		}
		team.Members = append(team.Members, &model.Member{
			ID:      uuid.NewString(),
			Name:    m.Name,
			Email:   email,
			Role:    role,
			AddedAt: now,
		})
	}

	if _, err := t.teams.GetByCreator(ctx, creator); err == nil {
		l.Warn("creator already has a team", zap.String("creator", creator))
		return nil, NewError(ErrorCodeTeamExists, "a team already exists for this email")
	} else if !errors.Is(err, repository.ErrNotFound) {
		l.Error("failed to look up team by creator", zap.String("creator", creator), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to create team")
	}

	// Sequential so the first unregistered email is the one reported.
	for _, m := range team.Members {
		if serr := t.gate.RequireRegistered(ctx, m.Email); serr != nil {
			return nil, serr
		}
	}

	row := teamToRepo(team)
	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		err := t.teams.Create(txCtx, row)
		if errors.Is(err, repository.ErrAlreadyExists) {
			l.Warn("team already exists", zap.String("creator", creator))
			return NewError(ErrorCodeTeamExists, "a team already exists for this email")
		}
		if err != nil {
			l.Error("failed to create team", zap.String("team_name", name), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to create team")
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "failed to create team")
	}

	l.Debug("team created", zap.String("team_id", row.ID))

	return teamFromRepo(row), nil
}

func (t *TeamService) GetTeam(ctx context.Context, id string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	l.Debug("getting team", zap.String("team_id", id))

	row, err := t.teams.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		l.Warn("team not found", zap.String("team_id", id))
		return nil, NewError(ErrorCodeNotFound, "team not found")
	}
	if err != nil {
		l.Error("failed to get team", zap.String("team_id", id), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}

	return teamFromRepo(row), nil
}

// GetTeamByEmail finds the team created by email. Plain members are not found this way.
func (t *TeamService) GetTeamByEmail(ctx context.Context, email string) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	email = model.NormalizeEmail(email)

	row, err := t.teams.GetByCreator(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		l.Debug("no team for email", zap.String("email", email))
		return nil, NewError(ErrorCodeNotFound, "no team found for this email")
	}
	if err != nil {
		l.Error("failed to get team by email", zap.String("email", email), zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to get team")
	}

	return teamFromRepo(row), nil
}

func (t *TeamService) ListTeams(ctx context.Context) ([]*model.Team, *Error) {
	rows, err := t.teams.GetAll(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list teams", zap.Error(err))
		return nil, NewError(ErrorCodeUnspecified, "failed to list teams")
	}

	teams := make([]*model.Team, 0, len(rows))
	for _, r := range rows {
		teams = append(teams, teamFromRepo(r))
	}
	return teams, nil
}

func (t *TeamService) UpdateTeamName(ctx context.Context, actor model.Actor, teamID, name string) (*model.Team, *Error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewError(ErrorCodeValidation, "team name must not be empty")
	}

	return t.mutateTeam(ctx, teamID, func(_ context.Context, team *model.Team) *Error {
		if serr := checkMutable(actor, team); serr != nil {
			return serr
		}
		team.Name = name
		return nil
	})
}

func (t *TeamService) UpdateTeamChallenge(ctx context.Context, actor model.Actor, teamID, challengeID string) (*model.Team, *Error) {
	if !t.challenges.Contains(challengeID) {
		return nil, NewErrorf(ErrorCodeValidation, "unknown challenge %q", challengeID)
	}

	return t.mutateTeam(ctx, teamID, func(_ context.Context, team *model.Team) *Error {
		if serr := checkMutable(actor, team); serr != nil {
			return serr
		}
		team.Challenge = challengeID
		return nil
	})
}

// AddTeamMember appends a member. Admin actors skip the participant gate but not capacity or lock.
func (t *TeamService) AddTeamMember(ctx context.Context, actor model.Actor, teamID string, member *model.NewMember) (*model.Team, *Error) {
	l := logger.FromContext(ctx)
	l.Info("adding team member", zap.String("team_id", teamID), zap.String("email", member.Email))

	m := *member
	m.Normalize()
	if err := validate.Struct(&m); err != nil {
		return nil, validationError(err)
	}
	email := m.Email

	gateChecked := actor.Admin
	return t.mutateTeam(ctx, teamID, func(ctx context.Context, team *model.Team) *Error {
		if serr := checkMutable(actor, team); serr != nil {
			return serr
		}
		if team.IsFull() {
			l.Warn("team is full", zap.String("team_id", teamID), zap.Int("max_members", team.MaxMembers))
			return NewErrorf(ErrorCodeTeamFull, "team is full (max %d members)", team.MaxMembers)
		}
		if team.HasMember(email) {
			return NewErrorf(ErrorCodeDuplicateEmail, "%s is already on the team", email)
		}
		if !gateChecked {
			if serr := t.gate.RequireRegistered(ctx, email); serr != nil {
				return serr
			}
			gateChecked = true
		}

		team.Members = append(team.Members, &model.Member{
			ID:      uuid.NewString(),
			Name:    m.Name,
			Email:   email,
			Role:    model.RoleMember,
			AddedAt: t.now(),
		})
		return nil
	})
}

func (t *TeamService) RemoveTeamMember(ctx context.Context, actor model.Actor, teamID, memberID string) (*model.Team, *Error) {
	logger.FromContext(ctx).Info("removing team member", zap.String("team_id", teamID), zap.String("member_id", memberID))

	return t.mutateTeam(ctx, teamID, func(_ context.Context, team *model.Team) *Error {
		if serr := checkMutable(actor, team); serr != nil {
			return serr
		}
		target := team.Member(memberID)
		if target == nil {
			return NewError(ErrorCodeNotFound, "member not found")
		}
		if target.Role == model.RoleTeamLead {
			return NewError(ErrorCodeLeadRemoval, "the team lead cannot be removed")
		}

		kept := make([]*model.Member, 0, len(team.Members)-1)
		for _, m := range team.Members {
			if m.ID != memberID {
				kept = append(kept, m)
			}
		}
		team.Members = kept
		return nil
	})
}

// ToggleTeamLock sets the lock flag. It is the only mutation allowed on a locked team.
func (t *TeamService) ToggleTeamLock(ctx context.Context, teamID string, locked bool) (*model.Team, *Error) {
	logger.FromContext(ctx).Info("setting team lock", zap.String("team_id", teamID), zap.Bool("locked", locked))

	return t.mutateTeam(ctx, teamID, func(_ context.Context, team *model.Team) *Error {
		team.Locked = locked
		return nil
	})
}

// DeleteTeam removes the team and its submission together. The removed
// submission is returned so its objects can be cleaned up.
func (t *TeamService) DeleteTeam(ctx context.Context, teamID string) (*model.ProjectSubmission, *Error) {
	l := logger.FromContext(ctx)
	l.Info("deleting team", zap.String("team_id", teamID))

	var removed *model.ProjectSubmission
	err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		sub, err := t.submissions.Get(txCtx, teamID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
		case err != nil:
			l.Error("failed to get submission", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to delete team")
		default:
			if err = t.submissions.Delete(txCtx, teamID); err != nil && !errors.Is(err, repository.ErrNotFound) {
				l.Error("failed to delete submission", zap.String("team_id", teamID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to delete team submission")
			}
			removed = submissionFromRepo(sub)
		}

		err = t.teams.Delete(txCtx, teamID)
		if errors.Is(err, repository.ErrNotFound) {
			return NewError(ErrorCodeNotFound, "team not found")
		}
		if err != nil {
			l.Error("failed to delete team", zap.String("team_id", teamID), zap.Error(err))
			return NewError(ErrorCodeUnspecified, "failed to delete team")
		}
		return nil
	})
	if err != nil {
		return nil, asServiceError(err, "failed to delete team")
	}

	l.Debug("team deleted", zap.String("team_id", teamID))

	return removed, nil
}

// mutateTeam reads the team, applies fn and writes it back conditioned on the
// version it read. On a version conflict it starts over from fresh state.
func (t *TeamService) mutateTeam(
	ctx context.Context,
	teamID string,
	fn func(ctx context.Context, team *model.Team) *Error,
) (*model.Team, *Error) {
	l := logger.FromContext(ctx)

	for attempt := 1; ; attempt++ {
		var updated *model.Team
		err := t.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
			row, err := t.teams.Get(txCtx, teamID)
			if errors.Is(err, repository.ErrNotFound) {
				return NewError(ErrorCodeNotFound, "team not found")
			}
			if err != nil {
				l.Error("failed to get team", zap.String("team_id", teamID), zap.Error(err))
				return NewError(ErrorCodeUnspecified, "failed to get team")
			}

			team := teamFromRepo(row)
			if serr := fn(txCtx, team); serr != nil {
				return serr
			}

			next := teamToRepo(team)
			if err = t.teams.Update(txCtx, next); err != nil {
				return err
			}
			updated = teamFromRepo(next)
			return nil
		})

		switch {
		case err == nil:
			l.Debug("team updated", zap.String("team_id", teamID), zap.Int("version", updated.Version))
			return updated, nil
		case errors.Is(err, repository.ErrConflict):
			if attempt >= maxUpdateAttempts {
				l.Warn("giving up on concurrent team update", zap.String("team_id", teamID))
				return nil, NewError(ErrorCodeConflict, "team was modified concurrently, try again")
			}
			l.Debug("team version conflict, retrying", zap.String("team_id", teamID), zap.Int("attempt", attempt))
		case errors.Is(err, repository.ErrNotFound):
			return nil, NewError(ErrorCodeNotFound, "team not found")
		default:
			var serr *Error
			if !errors.As(err, &serr) {
				l.Error("failed to update team", zap.String("team_id", teamID), zap.Error(err))
			}
			return nil, asServiceError(err, "failed to update team")
		}
	}
}

// checkMutable applies the lock and lead-identity rules shared by every member and identity edit.
func checkMutable(actor model.Actor, team *model.Team) *Error {
	if team.Locked {
		return NewError(ErrorCodeTeamLocked, "team is locked")
	}
	if !actor.Admin && !team.IsLead(actor.Email) {
		return NewError(ErrorCodeNotTeamLead, "only the team lead can change the team")
	}
	return nil
}

func (t *TeamService) WithTeamRepo(r repository.TeamRepository) *TeamService {
	t.teams = r
	return t
}

func (t *TeamService) WithSubmissionRepo(r repository.SubmissionRepository) *TeamService {
	t.submissions = r
	return t
}

func (t *TeamService) WithParticipantGate(g *ParticipantService) *TeamService {
	t.gate = g
	return t
}

func (t *TeamService) WithChallenges(c *challenge.Catalog) *TeamService {
	t.challenges = c
	return t
}

func (t *TeamService) WithMaxMembers(n int) *TeamService {
	t.maxMembers = n
	return t
}

func (t *TeamService) WithClock(now func() time.Time) *TeamService {
	t.now = now
	return t
}
