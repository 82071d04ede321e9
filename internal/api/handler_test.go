package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/challenge"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/repository"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "correct horse"

type memSessions struct {
	mu  sync.Mutex
	ids map[string]bool
}

func (m *memSessions) Create(_ context.Context, _ time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.ids[id] = true
	return id, nil
}

func (m *memSessions) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[id], nil
}

func (m *memSessions) Revoke(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.ids, id)
	return nil
}

type fixture struct {
	e *echo.Echo

	teams        *service.MockTeamRepository
	submissions  *service.MockSubmissionRepository
	feedback     *service.MockFeedbackRepository
	participants *service.MockParticipantRepository
	store        *service.MockObjectStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	auth.TokenSecretKey = "handler-test-secret"

	catalog, err := challenge.Default()
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)

	f := &fixture{
		teams:        &service.MockTeamRepository{},
		submissions:  &service.MockSubmissionRepository{},
		feedback:     &service.MockFeedbackRepository{},
		participants: &service.MockParticipantRepository{},
		store:        &service.MockObjectStore{},
	}

	tx := &service.MockTransactor{}
	participants := service.NewParticipantService(f.participants).WithRegistrationURL("https://register.example")
	teams := service.NewTeamService(tx).
		WithTeamRepo(f.teams).
		WithSubmissionRepo(f.submissions).
		WithParticipantGate(participants).
		WithChallenges(catalog)
	submissions := service.NewSubmissionService(tx).
		WithTeamRepo(f.teams).
		WithSubmissionRepo(f.submissions).
		WithObjectStore(f.store)
	feedback := service.NewFeedbackService(f.feedback).WithGalleryURL("https://photos.example/album")

	h := NewHandler(zap.NewNop()).
		WithTeamService(teams).
		WithSubmissionService(submissions).
		WithFeedbackService(feedback).
		WithParticipantService(participants).
		WithAdminService(service.NewAdminService(teams, submissions, feedback, participants)).
		WithAuthenticator(auth.NewAdminAuthenticator(string(hash), &memSessions{ids: map[string]bool{}}, time.Hour)).
		WithChallenges(catalog)

	f.e = echo.New()
	h.RegisterRoutes(f.e)
	return f
}

func (f *fixture) do(method, target string, body any, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) login(t *testing.T) string {
	t.Helper()
	rec := f.do(http.MethodPost, "/admin/login", map[string]string{"password": adminPassword}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotEmpty(t, res.Token)
	return res.Token
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) service.ErrorCode {
	t.Helper()
	var res errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Error)
	return res.Error.Code
}

func leadTeam() *repository.Team {
	return &repository.Team{
		ID:        "t1",
		Name:      "Rocket",
		Challenge: "fintech",
		CreatedBy: "lead@x.com",
		Members: []*repository.TeamMember{
			{ID: "m0", Name: "Lead", Email: "lead@x.com", Role: model.RoleTeamLead},
		},
		MaxMembers: 5,
		Version:    1,
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		code service.ErrorCode
		want int
	}{
		{service.ErrorCodeInvalidBody, http.StatusBadRequest},
		{service.ErrorCodeValidation, http.StatusBadRequest},
		{service.ErrorCodeUnauthorized, http.StatusUnauthorized},
		{service.ErrorCodeEmailNotRegistered, http.StatusForbidden},
		{service.ErrorCodeNotTeamLead, http.StatusForbidden},
		{service.ErrorCodeFeedbackRequired, http.StatusForbidden},
		{service.ErrorCodeStorageDenied, http.StatusForbidden},
		{service.ErrorCodeNotFound, http.StatusNotFound},
		{service.ErrorCodeTeamExists, http.StatusConflict},
		{service.ErrorCodeTeamFull, http.StatusConflict},
		{service.ErrorCodeTeamLocked, http.StatusConflict},
		{service.ErrorCodeConflict, http.StatusConflict},
		{service.ErrorCodeAlreadySubmitted, http.StatusConflict},
		{service.ErrorCodeUploadFailed, http.StatusBadGateway},
		{service.ErrorCodeSaveFailed, http.StatusInternalServerError},
		{service.ErrorCodeUnspecified, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, statusOf(tt.code))
		})
	}
}

func TestHandler_CreateTeam(t *testing.T) {
	validBody := func() map[string]any {
		return map[string]any{
			"team_name":     "Rocket",
			"challenge":     "fintech",
			"creator_email": "lead@x.com",
			"members": []map[string]string{
				{"name": "Lead", "email": "lead@x.com"},
			},
		}
	}

	tests := []struct {
		name       string
		body       map[string]any
		setupMocks func(f *fixture)
		wantStatus int
		wantCode   service.ErrorCode
	}{
		{
			name: "created",
			body: validBody(),
			setupMocks: func(f *fixture) {
				f.teams.On("GetByCreator", mock.Anything, "lead@x.com").Return(nil, repository.ErrNotFound)
				f.participants.On("Exists", mock.Anything, "lead@x.com").Return(true, nil)
				f.teams.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "padded emails are accepted",
			body: map[string]any{
				"team_name":     " Rocket ",
				"challenge":     "fintech",
				"creator_email": " Lead@X.com ",
				"members": []map[string]string{
					{"name": " Lead ", "email": "lead@x.com\t"},
				},
			},
			setupMocks: func(f *fixture) {
				f.teams.On("GetByCreator", mock.Anything, "lead@x.com").Return(nil, repository.ErrNotFound)
				f.participants.On("Exists", mock.Anything, "lead@x.com").Return(true, nil)
				f.teams.On("Create", mock.Anything, mock.Anything).Return(nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "blank member name",
			body: func() map[string]any {
				b := validBody()
				b["members"] = []map[string]string{{"name": "  ", "email": "lead@x.com"}}
				return b
			}(),
			setupMocks: func(*fixture) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   service.ErrorCodeInvalidBody,
		},
		{
			name: "missing members",
			body: func() map[string]any {
				b := validBody()
				delete(b, "members")
				return b
			}(),
			setupMocks: func(*fixture) {},
			wantStatus: http.StatusBadRequest,
			wantCode:   service.ErrorCodeInvalidBody,
		},
		{
			name: "unregistered lead",
			body: validBody(),
			setupMocks: func(f *fixture) {
				f.teams.On("GetByCreator", mock.Anything, "lead@x.com").Return(nil, repository.ErrNotFound)
				f.participants.On("Exists", mock.Anything, "lead@x.com").Return(false, nil)
			},
			wantStatus: http.StatusForbidden,
			wantCode:   service.ErrorCodeEmailNotRegistered,
		},
		{
			name: "lead already has a team",
			body: validBody(),
			setupMocks: func(f *fixture) {
				f.teams.On("GetByCreator", mock.Anything, "lead@x.com").Return(leadTeam(), nil)
			},
			wantStatus: http.StatusConflict,
			wantCode:   service.ErrorCodeTeamExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setupMocks(f)

			rec := f.do(http.MethodPost, "/teams", tt.body, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, errorCode(t, rec))
				return
			}

			var team model.Team
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &team))
			assert.Equal(t, "Rocket", team.Name)
			assert.Equal(t, "lead@x.com", team.CreatedBy)
			f.teams.AssertExpectations(t)
		})
	}
}

func TestHandler_NotRegisteredCarriesLink(t *testing.T) {
	f := newFixture(t)
	f.participants.On("Exists", mock.Anything, "eve@x.com").Return(false, nil)
	f.teams.On("Get", mock.Anything, "t1").Return(leadTeam(), nil)

	rec := f.do(http.MethodPost, "/teams/t1/members",
		map[string]string{"lead_email": "lead@x.com", "name": "Eve", "email": "eve@x.com"}, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var res errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, service.ErrorCodeEmailNotRegistered, res.Error.Code)
	assert.Equal(t, "https://register.example", res.Error.Link)
}

func TestHandler_MemberRoutesRequireLeadEmail(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/teams/t1/members", map[string]string{"name": "Bob", "email": "bob@x.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrorCodeInvalidBody, errorCode(t, rec))

	rec = f.do(http.MethodDelete, "/teams/t1/members/m1", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.teams.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestHandler_RemoveTeamMemberByNonLead(t *testing.T) {
	f := newFixture(t)
	team := leadTeam()
	team.Members = append(team.Members, &repository.TeamMember{ID: "m1", Email: "bob@x.com", Role: model.RoleMember})
	f.teams.On("Get", mock.Anything, "t1").Return(team, nil)

	rec := f.do(http.MethodDelete, "/teams/t1/members/m1?lead_email=bob@x.com", nil, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, service.ErrorCodeNotTeamLead, errorCode(t, rec))
	f.teams.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestHandler_SubmitProject(t *testing.T) {
	f := newFixture(t)

	stored := "https://github.com/old/repo"
	f.teams.On("GetByCreator", mock.Anything, "lead@x.com").Return(leadTeam(), nil)
	f.teams.On("Get", mock.Anything, "t1").Return(leadTeam(), nil)
	storedDeploy := "https://old.example.com"
	f.submissions.On("Get", mock.Anything, "t1").Return(&repository.Submission{
		TeamID:             "t1",
		ProjectName:        "Old",
		ProjectDescription: "Old description",
		GithubURL:          &stored,
		DeployedURL:        &storedDeploy,
	}, nil)
	f.store.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "submissions/t1/slide_") && strings.HasSuffix(key, ".pdf")
	}), "application/pdf", mock.Anything).Return("https://cdn.example/deck.pdf", nil)
	f.submissions.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("email", "Lead@X.com"))
	require.NoError(t, w.WriteField("project_name", "Rocket Pay"))
	require.NoError(t, w.WriteField("project_description", "Payments for rockets"))
	require.NoError(t, w.WriteField("github_url", ""))
	require.NoError(t, w.WriteField("clear", "deployed_url"))

	part, err := w.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="slides"; filename="Deck.PDF"`},
		"Content-Type":        {"application/pdf"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/submissions", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sub model.ProjectSubmission
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, "Rocket Pay", sub.ProjectName)
	require.NotNil(t, sub.GithubURL)
	assert.Equal(t, stored, *sub.GithubURL)
	assert.Nil(t, sub.DeployedURL)
	require.Len(t, sub.Slides, 1)
	assert.Equal(t, "https://cdn.example/deck.pdf", sub.Slides[0].URL)
	assert.Equal(t, "Deck.PDF", sub.Slides[0].FileName)
	f.store.AssertExpectations(t)
}

func TestHandler_SubmitProjectRejectsJSON(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/submissions", map[string]string{"email": "lead@x.com"}, "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, service.ErrorCodeInvalidBody, errorCode(t, rec))
}

func TestOptionalFormValue(t *testing.T) {
	tests := []struct {
		name      string
		values    map[string][]string
		wantValue string
		wantNull  bool
		wantUnset bool
	}{
		{name: "absent", values: map[string][]string{}, wantUnset: true},
		{name: "empty", values: map[string][]string{"github_url": {""}}, wantUnset: true},
		{name: "whitespace", values: map[string][]string{"github_url": {"  "}}, wantUnset: true},
		{
			name:      "value is trimmed",
			values:    map[string][]string{"github_url": {" https://github.com/x/y "}},
			wantValue: "https://github.com/x/y",
		},
		{
			name:     "named in clear",
			values:   map[string][]string{"github_url": {"https://github.com/x/y"}, "clear": {"deployed_url", "github_url"}},
			wantNull: true,
		},
		{
			name:      "clear names another field",
			values:    map[string][]string{"github_url": {"https://github.com/x/y"}, "clear": {"deployed_url"}},
			wantValue: "https://github.com/x/y",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := optionalFormValue(&multipart.Form{Value: tt.values}, "github_url")

			assert.Equal(t, tt.wantNull, got.IsNull())
			assert.Equal(t, tt.wantUnset, got.IsUnset())
			v, ok := got.Get()
			assert.Equal(t, tt.wantValue != "", ok)
			assert.Equal(t, tt.wantValue, v)
		})
	}
}

func TestHandler_FeedbackAndPhotos(t *testing.T) {
	f := newFixture(t)

	f.feedback.On("Exists", mock.Anything, "ann@x.com").Return(false, nil).Once()
	rec := f.do(http.MethodGet, "/photos?email=ann@x.com", nil, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, service.ErrorCodeFeedbackRequired, errorCode(t, rec))

	f.feedback.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	rec = f.do(http.MethodPost, "/feedback", map[string]any{
		"email":                   " Ann@X.com ",
		"overall_experience":      5,
		"organization":            4,
		"challenge_quality":       4,
		"mentor_support":          3,
		"communication":           5,
		"highlights":              "demos",
		"improvements":            "wifi",
		"would_participate_again": "yes",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	f.feedback.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists).Once()
	rec = f.do(http.MethodPost, "/feedback", map[string]any{
		"email":                   "ann@x.com",
		"overall_experience":      1,
		"organization":            1,
		"challenge_quality":       1,
		"mentor_support":          1,
		"communication":           1,
		"highlights":              "again",
		"improvements":            "again",
		"would_participate_again": "no",
	}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, service.ErrorCodeAlreadySubmitted, errorCode(t, rec))

	f.feedback.On("Exists", mock.Anything, "ann@x.com").Return(true, nil)
	rec = f.do(http.MethodGet, "/photos?email=ann@x.com", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url":"https://photos.example/album"}`, rec.Body.String())

	rec = f.do(http.MethodGet, "/feedback/status?email=ann@x.com", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"submitted":true}`, rec.Body.String())
}

func TestHandler_ListChallenges(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/challenges", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	var res []challenge.Challenge
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.NotEmpty(t, res)
}
