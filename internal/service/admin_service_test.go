package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/repository"
)

type adminFixture struct {
	teams        *MockTeamRepository
	submissions  *MockSubmissionRepository
	feedback     *MockFeedbackRepository
	participants *MockParticipantRepository
	store        *MockObjectStore
	service      *AdminService
}

func newAdminFixture(t *testing.T) *adminFixture {
	f := &adminFixture{
		teams:        new(MockTeamRepository),
		submissions:  new(MockSubmissionRepository),
		feedback:     new(MockFeedbackRepository),
		participants: new(MockParticipantRepository),
		store:        new(MockObjectStore),
	}

	gate := NewParticipantService(f.participants)
	teams := newTestTeamService(t, f.teams, f.participants).
		WithParticipantGate(gate).
		WithSubmissionRepo(f.submissions)
	subs := newTestSubmissionService(f.teams, f.submissions, f.store)

	f.service = NewAdminService(teams, subs, NewFeedbackService(f.feedback), gate)
	return f
}

func withID(team *repository.Team, id string) *repository.Team {
	team.ID = id
	return team
}

func TestAdminService_LockAllTeams(t *testing.T) {
	f := newAdminFixture(t)

	f.teams.On("GetAll", mock.Anything).Return([]*repository.Team{
		withID(storedTeam(2, false, 1), "t1"),
		withID(storedTeam(2, true, 1), "t2"),
		withID(storedTeam(2, false, 1), "t3"),
	}, nil)
	f.teams.On("Get", mock.Anything, "t1").Return(withID(storedTeam(2, false, 1), "t1"), nil)
	f.teams.On("Update", mock.Anything, mock.MatchedBy(func(r *repository.Team) bool {
		return r.ID == "t1" && r.Locked
	})).Return(nil)
	f.teams.On("Get", mock.Anything, "t3").Return(nil, errors.New("timeout"))

	report, serr := f.service.LockAllTeams(context.Background())

	require.Nil(t, serr)
	assert.Equal(t, []string{"t1"}, report.Locked)
	assert.Equal(t, []string{"t2"}, report.AlreadyLocked)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "t3", report.Failed[0].TeamID)
	assert.NotEmpty(t, report.Failed[0].Error)
	f.teams.AssertExpectations(t)
}

func TestAdminService_LockAllTeams_ListFailure(t *testing.T) {
	f := newAdminFixture(t)
	f.teams.On("GetAll", mock.Anything).Return(nil, errors.New("timeout"))

	report, serr := f.service.LockAllTeams(context.Background())

	requireCode(t, serr, ErrorCodeUnspecified)
	assert.Nil(t, report)
}

func TestAdminService_DeleteTeamRemovesObjects(t *testing.T) {
	f := newAdminFixture(t)

	f.submissions.On("Get", mock.Anything, "t1").Return(&repository.Submission{
		TeamID: "t1",
		Videos: []model.FileRef{{URL: "https://cdn/submissions/t1/v.mp4"}},
	}, nil)
	f.submissions.On("Delete", mock.Anything, "t1").Return(nil)
	f.teams.On("Delete", mock.Anything, "t1").Return(nil)
	f.store.On("KeyFromURL", "https://cdn/submissions/t1/v.mp4").Return("submissions/t1/v.mp4", true)
	f.store.On("Delete", mock.Anything, "submissions/t1/v.mp4").Return(errors.New("not found"))

	assert.Nil(t, f.service.DeleteTeam(context.Background(), "t1"))
	f.store.AssertExpectations(t)
}

func TestAdminService_AddMemberSkipsGate(t *testing.T) {
	f := newAdminFixture(t)
	f.teams.On("Get", mock.Anything, "t1").Return(storedTeam(3, false, 1), nil)
	f.teams.On("Update", mock.Anything, mock.Anything).Return(nil)

	team, serr := f.service.AddMember(context.Background(), "t1", &model.NewMember{Name: "Eve", Email: "eve@x.com"})

	require.Nil(t, serr)
	assert.Len(t, team.Members, 4)
	f.participants.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestAdminService_ExportTeams(t *testing.T) {
	f := newAdminFixture(t)
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	team := storedTeam(2, true, 1)
	team.CreatedAt = created
	f.teams.On("GetAll", mock.Anything).Return([]*repository.Team{team}, nil)

	var buf bytes.Buffer
	require.Nil(t, f.service.ExportTeams(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "team_id", records[0][0])
	assert.Equal(t, []string{"t1", "Rocket", "fintech", "true", "lead@x.com", "Lead", "lead@x.com", "Team Lead", "2026-03-01T12:00:00Z"}, records[1])
	assert.Equal(t, "member1@x.com", records[2][6])
}

func TestAdminService_ExportFeedback(t *testing.T) {
	f := newAdminFixture(t)
	f.feedback.On("GetAll", mock.Anything).Return([]*repository.Feedback{{
		Email:                 "a@b.com",
		OverallExperience:     5,
		Organization:          4,
		ChallengeQuality:      3,
		MentorSupport:         2,
		Communication:         1,
		Highlights:            "pizza, people",
		Improvements:          "wifi",
		WouldParticipateAgain: model.ParticipateMaybe,
	}}, nil)

	var buf bytes.Buffer
	require.Nil(t, f.service.ExportFeedback(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "pizza, people", records[1][6])
	assert.Equal(t, "maybe", records[1][11])
	assert.Equal(t, "", records[1][12])
}

func TestAdminService_ExportSubmissions(t *testing.T) {
	f := newAdminFixture(t)
	github := "https://github.com/x/rover"
	f.submissions.On("GetAll", mock.Anything).Return([]*repository.Submission{{
		TeamID:      "t1",
		ProjectName: "Rover",
		GithubURL:   &github,
		Slides:      []model.FileRef{{URL: "https://cdn/a"}, {URL: "https://cdn/b"}},
	}}, nil)

	var buf bytes.Buffer
	require.Nil(t, f.service.ExportSubmissions(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, github, records[1][3])
	assert.Equal(t, "", records[1][4])
	assert.Equal(t, "https://cdn/a https://cdn/b", records[1][5])
}
