package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/challenge"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

type Handler struct {
	team         *service.TeamService
	submission   *service.SubmissionService
	feedback     *service.FeedbackService
	participants *service.ParticipantService
	admin        *service.AdminService

	authn      *auth.AdminAuthenticator
	challenges *challenge.Catalog

	healthChecker HealthChecker
	bodyLimit     string

	logger *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{
		logger:    logger,
		bodyLimit: "100M",
	}
}

func (h *Handler) WithHealthChecker(c HealthChecker) *Handler {
	h.healthChecker = c
	return h
}

func (h *Handler) WithTeamService(team *service.TeamService) *Handler {
	h.team = team
	return h
}

func (h *Handler) WithSubmissionService(s *service.SubmissionService) *Handler {
	h.submission = s
	return h
}

func (h *Handler) WithFeedbackService(f *service.FeedbackService) *Handler {
	h.feedback = f
	return h
}

func (h *Handler) WithParticipantService(p *service.ParticipantService) *Handler {
	h.participants = p
	return h
}

func (h *Handler) WithAdminService(a *service.AdminService) *Handler {
	h.admin = a
	return h
}

func (h *Handler) WithAuthenticator(a *auth.AdminAuthenticator) *Handler {
	h.authn = a
	return h
}

func (h *Handler) WithChallenges(c *challenge.Catalog) *Handler {
	h.challenges = c
	return h
}

// WithBodyLimit caps request bodies, e.g. "100M".
func (h *Handler) WithBodyLimit(limit string) *Handler {
	h.bodyLimit = limit
	return h
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.Validator = NewValidator()
	e.Use(middleware.RequestID())
	e.Use(ZapLoggerMiddleware(h.logger))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(h.bodyLimit))

	if h.healthChecker != nil {
		e.GET("/health", h.healthChecker.HealthCheck())
	}

	e.GET("/challenges", h.ListChallenges)
	e.GET("/participants/registered", h.CheckRegistration)

	e.POST("/teams", h.CreateTeam)
	e.GET("/teams/mine", h.GetMyTeam)
	e.PATCH("/teams/:id/name", h.UpdateTeamName(leadActor))
	e.PATCH("/teams/:id/challenge", h.UpdateTeamChallenge(leadActor))
	e.POST("/teams/:id/members", h.AddTeamMember)
	e.DELETE("/teams/:id/members/:member_id", h.RemoveTeamMember)

	e.GET("/submissions/mine", h.OpenSubmission)
	e.POST("/submissions", h.SubmitProject)

	e.GET("/feedback/status", h.FeedbackStatus)
	e.POST("/feedback", h.SaveFeedback)
	e.GET("/photos", h.PhotoAccess)

	h.registerAdminRoutes(e)
}

func (h *Handler) ListChallenges(e echo.Context) error {
	return e.JSON(http.StatusOK, h.challenges.All())
}

func (h *Handler) CheckRegistration(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	email := e.QueryParam("email")
	if email == "" {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "email is required"))
	}

	registered, err := h.participants.IsEmailRegistered(e.Request().Context(), email)
	if err != nil {
		l.Error("failed to check registration", zap.String("email", email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]bool{"registered": registered})
}

func (h *Handler) CreateTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req model.CreateTeamInput
	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("creating team",
		zap.String("team_name", req.TeamName),
		zap.String("creator_email", req.CreatorEmail))

	team, err := h.team.CreateTeam(e.Request().Context(), &req)
	if err != nil {
		l.Error("failed to create team", zap.String("team_name", req.TeamName), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, team)
}

func (h *Handler) GetMyTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	email := e.QueryParam("email")
	if email == "" {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "email is required"))
	}

	team, err := h.team.GetTeamByEmail(e.Request().Context(), email)
	if err != nil {
		l.Error("failed to get team", zap.String("email", email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

// actorFunc decides who performs a team mutation from the request.
type actorFunc func(e echo.Context, leadEmail string) (model.Actor, *service.Error)

func leadActor(_ echo.Context, leadEmail string) (model.Actor, *service.Error) {
	if leadEmail == "" {
		return model.Actor{}, service.NewError(service.ErrorCodeInvalidBody, "lead_email is required")
	}
	return model.LeadActor(leadEmail), nil
}

func adminActor(echo.Context, string) (model.Actor, *service.Error) {
	return model.AdminActor(), nil
}

func (h *Handler) UpdateTeamName(actorOf actorFunc) echo.HandlerFunc {
	return func(e echo.Context) error {
		l := logger.FromContext(e.Request().Context())

		var req struct {
			LeadEmail string `json:"lead_email"`
			TeamName  string `json:"team_name" validate:"required"`
		}
		if err := decodeRequest(e, &req); err != nil {
			l.Error("invalid request", zap.Any("error", err))
			return h.transportError(e, err)
		}

		actor, err := actorOf(e, req.LeadEmail)
		if err != nil {
			return h.transportError(e, err)
		}

		teamID := e.Param("id")
		l.Info("renaming team", zap.String("team_id", teamID), zap.String("team_name", req.TeamName))

		team, err := h.team.UpdateTeamName(e.Request().Context(), actor, teamID, req.TeamName)
		if err != nil {
			l.Error("failed to rename team", zap.String("team_id", teamID), zap.Any("error", err))
			return h.transportError(e, err)
		}

		return e.JSON(http.StatusOK, team)
	}
}

func (h *Handler) UpdateTeamChallenge(actorOf actorFunc) echo.HandlerFunc {
	return func(e echo.Context) error {
		l := logger.FromContext(e.Request().Context())

		var req struct {
			LeadEmail string `json:"lead_email"`
			Challenge string `json:"challenge" validate:"required"`
		}
		if err := decodeRequest(e, &req); err != nil {
			l.Error("invalid request", zap.Any("error", err))
			return h.transportError(e, err)
		}

		actor, err := actorOf(e, req.LeadEmail)
		if err != nil {
			return h.transportError(e, err)
		}

		teamID := e.Param("id")
		l.Info("changing team challenge", zap.String("team_id", teamID), zap.String("challenge", req.Challenge))

		team, err := h.team.UpdateTeamChallenge(e.Request().Context(), actor, teamID, req.Challenge)
		if err != nil {
			l.Error("failed to change challenge", zap.String("team_id", teamID), zap.Any("error", err))
			return h.transportError(e, err)
		}

		return e.JSON(http.StatusOK, team)
	}
}

type memberRequest struct {
	LeadEmail string `json:"lead_email"`
	model.NewMember
}

func (h *Handler) AddTeamMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req memberRequest
	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	actor, err := leadActor(e, req.LeadEmail)
	if err != nil {
		return h.transportError(e, err)
	}

	teamID := e.Param("id")
	l.Info("adding team member", zap.String("team_id", teamID), zap.String("email", req.Email))

	team, err := h.team.AddTeamMember(e.Request().Context(), actor, teamID, &req.NewMember)
	if err != nil {
		l.Error("failed to add team member", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) RemoveTeamMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	actor, err := leadActor(e, e.QueryParam("lead_email"))
	if err != nil {
		return h.transportError(e, err)
	}

	teamID, memberID := e.Param("id"), e.Param("member_id")
	l.Info("removing team member", zap.String("team_id", teamID), zap.String("member_id", memberID))

	team, err := h.team.RemoveTeamMember(e.Request().Context(), actor, teamID, memberID)
	if err != nil {
		l.Error("failed to remove team member",
			zap.String("team_id", teamID),
			zap.String("member_id", memberID),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) FeedbackStatus(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	email := e.QueryParam("email")
	if email == "" {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "email is required"))
	}

	submitted, err := h.feedback.HasFeedback(e.Request().Context(), email)
	if err != nil {
		l.Error("failed to check feedback", zap.String("email", email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]bool{"submitted": submitted})
}

func (h *Handler) SaveFeedback(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req model.HackathonFeedback
	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	l.Info("saving feedback", zap.String("email", req.Email))

	saved, err := h.feedback.SaveFeedback(e.Request().Context(), &req)
	if err != nil {
		l.Error("failed to save feedback", zap.String("email", req.Email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusCreated, saved)
}

func (h *Handler) PhotoAccess(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	email := e.QueryParam("email")
	if email == "" {
		return h.transportError(e, service.NewError(service.ErrorCodeInvalidBody, "email is required"))
	}

	url, err := h.feedback.PhotoAccess(e.Request().Context(), email)
	if err != nil {
		l.Warn("photo access refused", zap.String("email", email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, map[string]string{"url": url})
}

type errorResponse struct {
	Error *service.Error `json:"error"`
}

func (h *Handler) transportError(e echo.Context, err *service.Error) error {
	return e.JSON(statusOf(err.Code), errorResponse{Error: err})
}

func statusOf(code service.ErrorCode) int {
	switch code {
	case service.ErrorCodeInvalidBody, service.ErrorCodeValidation:
		return http.StatusBadRequest
	case service.ErrorCodeUnauthorized:
		return http.StatusUnauthorized
	case service.ErrorCodeEmailNotRegistered, service.ErrorCodeNotTeamLead,
		service.ErrorCodeFeedbackRequired, service.ErrorCodeStorageDenied:
		return http.StatusForbidden
	case service.ErrorCodeNotFound:
		return http.StatusNotFound
	case service.ErrorCodeTeamExists, service.ErrorCodeDuplicateEmail, service.ErrorCodeTeamFull,
		service.ErrorCodeTeamLocked, service.ErrorCodeLeadRemoval, service.ErrorCodeConflict,
		service.ErrorCodeAlreadySubmitted:
		return http.StatusConflict
	case service.ErrorCodeUploadFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
