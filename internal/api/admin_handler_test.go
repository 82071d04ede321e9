package api

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/internal/service"
)

func TestHandler_AdminRoutesRequireSession(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{name: "no token", token: ""},
		{name: "garbage token", token: "not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(http.MethodGet, "/admin/teams", nil, tt.token)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, service.ErrorCodeUnauthorized, errorCode(t, rec))
			f.teams.AssertNotCalled(t, "GetAll", mock.Anything)
		})
	}
}

func TestHandler_AdminLoginLogout(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/admin/login", map[string]string{"password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, service.ErrorCodeUnauthorized, errorCode(t, rec))

	token := f.login(t)

	f.teams.On("GetAll", mock.Anything).Return([]*repository.Team{leadTeam()}, nil)
	rec = f.do(http.MethodGet, "/admin/teams", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"team_name":"Rocket"`)

	rec = f.do(http.MethodPost, "/admin/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/admin/teams", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a revoked session must not be accepted")
}

func TestHandler_LockAllTeams(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	open := leadTeam()
	locked := leadTeam()
	locked.ID = "t2"
	locked.Locked = true
	broken := leadTeam()
	broken.ID = "t3"

	f.teams.On("GetAll", mock.Anything).Return([]*repository.Team{open, locked, broken}, nil)
	f.teams.On("Get", mock.Anything, "t1").Return(leadTeam(), nil)
	f.teams.On("Update", mock.Anything, mock.MatchedBy(func(r *repository.Team) bool { return r.ID == "t1" })).Return(nil)
	f.teams.On("Get", mock.Anything, "t3").Return(nil, errors.New("connection reset"))

	rec := f.do(http.MethodPost, "/admin/teams/lock-all", nil, token)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"locked": ["t1"],
		"already_locked": ["t2"],
		"failed": [{"team_id": "t3", "error": "failed to get team"}]
	}`, rec.Body.String())
}

func TestHandler_SetTeamLock(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	rec := f.do(http.MethodPut, "/admin/teams/t1/lock", map[string]any{}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "locked is required")

	f.teams.On("Get", mock.Anything, "t1").Return(leadTeam(), nil)
	f.teams.On("Update", mock.Anything, mock.MatchedBy(func(r *repository.Team) bool { return r.Locked })).Return(nil)

	rec = f.do(http.MethodPut, "/admin/teams/t1/lock", map[string]any{"locked": true}, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"locked":true`)
}

func TestHandler_AdminAddMemberSkipsGate(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	f.teams.On("Get", mock.Anything, "t1").Return(leadTeam(), nil)
	f.teams.On("Update", mock.Anything, mock.Anything).Return(nil)

	rec := f.do(http.MethodPost, "/admin/teams/t1/members", map[string]string{"name": "Walk In", "email": " WalkIn@x.com "}, token)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "walkin@x.com")
	f.participants.AssertNotCalled(t, "Exists", mock.Anything, mock.Anything)
}

func TestHandler_ImportParticipants(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	f.participants.On("Create", mock.Anything, &repository.Participant{Email: "ann@x.com"}).Return(nil)
	f.participants.On("Create", mock.Anything, &repository.Participant{Email: "bob@x.com"}).Return(repository.ErrAlreadyExists)

	rec := f.do(http.MethodPost, "/admin/participants/bulk",
		map[string][]string{"emails": {"Ann@X.com", "bob@x.com", "nope"}}, token)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"added":1,"skipped":1,"errors":["nope: invalid email"]}`, rec.Body.String())
}

func TestHandler_Export(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	registered := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	f.participants.On("GetAll", mock.Anything).Return([]*repository.Participant{
		{Email: "ann@x.com", RegisteredAt: registered},
	}, nil)

	rec := f.do(http.MethodGet, "/admin/export/participants", nil, token)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "participants.csv")
	assert.Equal(t, "email,registered_at\nann@x.com,2025-03-01T09:00:00Z\n", rec.Body.String())

	rec = f.do(http.MethodGet, "/admin/export/everything", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_ExportFailureIsJSON(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	f.feedback.On("GetAll", mock.Anything).Return(nil, errors.New("scan failed"))

	rec := f.do(http.MethodGet, "/admin/export/feedback", nil, token)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, service.ErrorCodeUnspecified, errorCode(t, rec))
}

func TestHandler_DeleteTeamRemovesFiles(t *testing.T) {
	f := newFixture(t)
	token := f.login(t)

	f.submissions.On("Get", mock.Anything, "t1").Return(&repository.Submission{
		TeamID: "t1",
		Images: nil,
		Slides: nil,
		Videos: []model.FileRef{{URL: "https://cdn.example/submissions/t1/video_1_abc.mp4", FileName: "demo.mp4"}},
	}, nil)
	f.submissions.On("Delete", mock.Anything, "t1").Return(nil)
	f.teams.On("Delete", mock.Anything, "t1").Return(nil)
	f.store.On("KeyFromURL", "https://cdn.example/submissions/t1/video_1_abc.mp4").Return("submissions/t1/video_1_abc.mp4", true)
	f.store.On("Delete", mock.Anything, "submissions/t1/video_1_abc.mp4").Return(nil)

	rec := f.do(http.MethodDelete, "/admin/teams/t1", nil, token)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	f.store.AssertExpectations(t)
}
