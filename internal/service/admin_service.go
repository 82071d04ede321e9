package service

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

// AdminService composes the registries for the admin console. It adds bulk
// operations and exports but no rules of its own.
type AdminService struct {
	teams        *TeamService
	submissions  *SubmissionService
	feedback     *FeedbackService
	participants *ParticipantService
}

func NewAdminService(
	teams *TeamService,
	submissions *SubmissionService,
	feedback *FeedbackService,
	participants *ParticipantService,
) *AdminService {
	return &AdminService{
		teams:        teams,
		submissions:  submissions,
		feedback:     feedback,
		participants: participants,
	}
}

type LockFailure struct {
	TeamID string `json:"team_id"`
	Error  string `json:"error"`
}

type LockAllReport struct {
	Locked        []string      `json:"locked"`
	AlreadyLocked []string      `json:"already_locked"`
	Failed        []LockFailure `json:"failed"`
}

// LockAllTeams locks every team one by one. A failure does not undo earlier
// locks; the report names each team that failed.
func (a *AdminService) LockAllTeams(ctx context.Context) (*LockAllReport, *Error) {
	l := logger.FromContext(ctx)

	teams, serr := a.teams.ListTeams(ctx)
	if serr != nil {
		return nil, serr
	}

	report := &LockAllReport{
		Locked:        []string{},
		AlreadyLocked: []string{},
		Failed:        []LockFailure{},
	}
	for _, team := range teams {
		if team.Locked {
			report.AlreadyLocked = append(report.AlreadyLocked, team.ID)
			continue
		}
		if _, serr = a.teams.ToggleTeamLock(ctx, team.ID, true); serr != nil {
			report.Failed = append(report.Failed, LockFailure{TeamID: team.ID, Error: serr.Message})
			continue
		}
		report.Locked = append(report.Locked, team.ID)
	}

	l.Info("lock all teams finished",
		zap.Int("locked", len(report.Locked)),
		zap.Int("already_locked", len(report.AlreadyLocked)),
		zap.Int("failed", len(report.Failed)))

	return report, nil
}

func (a *AdminService) SetTeamLock(ctx context.Context, teamID string, locked bool) (*model.Team, *Error) {
	return a.teams.ToggleTeamLock(ctx, teamID, locked)
}

func (a *AdminService) AddMember(ctx context.Context, teamID string, member *model.NewMember) (*model.Team, *Error) {
	return a.teams.AddTeamMember(ctx, model.AdminActor(), teamID, member)
}

func (a *AdminService) RemoveMember(ctx context.Context, teamID, memberID string) (*model.Team, *Error) {
	return a.teams.RemoveTeamMember(ctx, model.AdminActor(), teamID, memberID)
}

// DeleteTeam removes the team with its submission, then the submission's files.
func (a *AdminService) DeleteTeam(ctx context.Context, teamID string) *Error {
	removed, serr := a.teams.DeleteTeam(ctx, teamID)
	if serr != nil {
		return serr
	}
	a.submissions.RemoveObjects(ctx, removed)
	return nil
}

func (a *AdminService) DeleteSubmission(ctx context.Context, teamID string) *Error {
	return a.submissions.DeleteSubmission(ctx, teamID)
}

func (a *AdminService) DeleteFeedback(ctx context.Context, email string) *Error {
	return a.feedback.DeleteFeedback(ctx, email)
}

func (a *AdminService) ImportParticipants(ctx context.Context, emails []string) *model.ImportSummary {
	return a.participants.ImportParticipants(ctx, emails)
}

// ExportTeams writes one row per member.
func (a *AdminService) ExportTeams(ctx context.Context, w io.Writer) *Error {
	teams, serr := a.teams.ListTeams(ctx)
	if serr != nil {
		return serr
	}

	rows := [][]string{{"team_id", "team_name", "challenge", "locked", "created_by", "member_name", "member_email", "member_role", "created_at"}}
	for _, t := range teams {
		for _, m := range t.Members {
			rows = append(rows, []string{
				t.ID, t.Name, t.Challenge, strconv.FormatBool(t.Locked), t.CreatedBy,
				m.Name, m.Email, string(m.Role), formatTime(t.CreatedAt),
			})
		}
	}
	return writeCSV(ctx, w, rows)
}

func (a *AdminService) ExportSubmissions(ctx context.Context, w io.Writer) *Error {
	subs, serr := a.submissions.ListSubmissions(ctx)
	if serr != nil {
		return serr
	}

	rows := [][]string{{"team_id", "project_name", "project_description", "github_url", "deployed_url", "slides", "videos", "images", "submitted_at", "updated_at"}}
	for _, s := range subs {
		rows = append(rows, []string{
			s.TeamID, s.ProjectName, s.ProjectDescription, deref(s.GithubURL), deref(s.DeployedURL),
			joinURLs(s.Slides), joinURLs(s.Videos), joinURLs(s.Images),
			formatTime(s.SubmittedAt), formatTime(s.UpdatedAt),
		})
	}
	return writeCSV(ctx, w, rows)
}

func (a *AdminService) ExportFeedback(ctx context.Context, w io.Writer) *Error {
	all, serr := a.feedback.ListFeedback(ctx)
	if serr != nil {
		return serr
	}

	rows := [][]string{{
		"email", "overall_experience", "organization", "challenge_quality", "mentor_support", "communication",
		"highlights", "improvements", "challenge_comments", "mentor_comments", "additional_comments",
		"would_participate_again", "submitted_at",
	}}
	for _, f := range all {
		rows = append(rows, []string{
			f.Email,
			strconv.Itoa(f.OverallExperience), strconv.Itoa(f.Organization), strconv.Itoa(f.ChallengeQuality),
			strconv.Itoa(f.MentorSupport), strconv.Itoa(f.Communication),
			f.Highlights, f.Improvements, f.ChallengeComments, f.MentorComments, f.AdditionalComments,
			string(f.WouldParticipateAgain), formatTime(f.SubmittedAt),
		})
	}
	return writeCSV(ctx, w, rows)
}

func (a *AdminService) ExportParticipants(ctx context.Context, w io.Writer) *Error {
	all, serr := a.participants.ListParticipants(ctx)
	if serr != nil {
		return serr
	}

	rows := [][]string{{"email", "registered_at"}}
	for _, p := range all {
		rows = append(rows, []string{p.Email, formatTime(&p.RegisteredAt)})
	}
	return writeCSV(ctx, w, rows)
}

func writeCSV(ctx context.Context, w io.Writer, rows [][]string) *Error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		logger.FromContext(ctx).Error("failed to write csv", zap.Error(err))
		return NewError(ErrorCodeUnspecified, "failed to write export")
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func joinURLs(files []model.FileRef) string {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, f.URL)
	}
	return strings.Join(urls, " ")
}
