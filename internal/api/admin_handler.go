package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/model"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

func (h *Handler) registerAdminRoutes(e *echo.Echo) {
	e.POST("/admin/login", h.AdminLogin)

	admin := e.Group("/admin", AuthMiddleware(h.authn))

	admin.POST("/logout", h.AdminLogout)

	admin.GET("/teams", h.ListTeams)
	admin.GET("/teams/:id", h.GetTeam)
	admin.POST("/teams/lock-all", h.LockAllTeams)
	admin.PUT("/teams/:id/lock", h.SetTeamLock)
	admin.DELETE("/teams/:id", h.DeleteTeam)
	admin.PATCH("/teams/:id/name", h.UpdateTeamName(adminActor))
	admin.PATCH("/teams/:id/challenge", h.UpdateTeamChallenge(adminActor))
	admin.POST("/teams/:id/members", h.AdminAddMember)
	admin.DELETE("/teams/:id/members/:member_id", h.AdminRemoveMember)

	admin.GET("/submissions", h.ListSubmissions)
	admin.GET("/submissions/:team_id", h.GetSubmission)
	admin.PUT("/submissions/:team_id", h.SaveSubmission)
	admin.DELETE("/submissions/:team_id", h.DeleteSubmission)

	admin.GET("/feedback", h.ListFeedback)
	admin.DELETE("/feedback/:email", h.DeleteFeedback)

	admin.GET("/participants", h.ListParticipants)
	admin.POST("/participants/bulk", h.ImportParticipants)

	admin.GET("/export/:dataset", h.Export)
}

func (h *Handler) AdminLogin(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Password string `json:"password" validate:"required"`
	}
	if serr := decodeRequest(e, &req); serr != nil {
		l.Error("invalid request", zap.Any("error", serr))
		return h.transportError(e, serr)
	}

	token, expires, err := h.authn.Login(e.Request().Context(), req.Password)
	if errors.Is(err, auth.ErrInvalidPassword) {
		l.Warn("admin login rejected")
		return h.transportError(e, service.NewError(service.ErrorCodeUnauthorized, "invalid password"))
	}
	if err != nil {
		l.Error("admin login failed", zap.Error(err))
		return h.transportError(e, service.NewError(service.ErrorCodeUnspecified, "failed to log in"))
	}

	l.Info("admin logged in", zap.Time("expires_at", expires))

	return e.JSON(http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
	})
}

func (h *Handler) AdminLogout(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	token, _ := bearerToken(e.Request())
	if err := h.authn.Logout(e.Request().Context(), token); err != nil {
		l.Error("admin logout failed", zap.Error(err))
		return h.transportError(e, service.NewError(service.ErrorCodeUnspecified, "failed to log out"))
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) ListTeams(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teams, err := h.team.ListTeams(e.Request().Context())
	if err != nil {
		l.Error("failed to list teams", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, teams)
}

func (h *Handler) GetTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("id")

	team, err := h.team.GetTeam(e.Request().Context(), teamID)
	if err != nil {
		l.Error("failed to get team", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) LockAllTeams(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	report, err := h.admin.LockAllTeams(e.Request().Context())
	if err != nil {
		l.Error("failed to lock teams", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, report)
}

func (h *Handler) SetTeamLock(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Locked *bool `json:"locked" validate:"required"`
	}
	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	teamID := e.Param("id")
	l.Info("setting team lock", zap.String("team_id", teamID), zap.Bool("locked", *req.Locked))

	team, err := h.admin.SetTeamLock(e.Request().Context(), teamID, *req.Locked)
	if err != nil {
		l.Error("failed to set team lock", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) DeleteTeam(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("id")
	l.Info("deleting team", zap.String("team_id", teamID))

	if err := h.admin.DeleteTeam(e.Request().Context(), teamID); err != nil {
		l.Error("failed to delete team", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) AdminAddMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req model.NewMember
	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	teamID := e.Param("id")

	team, err := h.admin.AddMember(e.Request().Context(), teamID, &req)
	if err != nil {
		l.Error("failed to add team member", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) AdminRemoveMember(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID, memberID := e.Param("id"), e.Param("member_id")

	team, err := h.admin.RemoveMember(e.Request().Context(), teamID, memberID)
	if err != nil {
		l.Error("failed to remove team member",
			zap.String("team_id", teamID),
			zap.String("member_id", memberID),
			zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, team)
}

func (h *Handler) ListSubmissions(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	subs, err := h.submission.ListSubmissions(e.Request().Context())
	if err != nil {
		l.Error("failed to list submissions", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, subs)
}

func (h *Handler) GetSubmission(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("team_id")

	sub, err := h.submission.GetSubmissionByTeamID(e.Request().Context(), teamID)
	if err != nil {
		l.Error("failed to get submission", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, sub)
}

// SaveSubmission replaces the stored document as sent, file lists included.
func (h *Handler) SaveSubmission(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req model.ProjectSubmission
	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}
	req.TeamID = e.Param("team_id")

	sub, err := h.submission.SaveSubmission(e.Request().Context(), &req)
	if err != nil {
		l.Error("failed to save submission", zap.String("team_id", req.TeamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, sub)
}

func (h *Handler) DeleteSubmission(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	teamID := e.Param("team_id")
	l.Info("deleting submission", zap.String("team_id", teamID))

	if err := h.admin.DeleteSubmission(e.Request().Context(), teamID); err != nil {
		l.Error("failed to delete submission", zap.String("team_id", teamID), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) ListFeedback(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	all, err := h.feedback.ListFeedback(e.Request().Context())
	if err != nil {
		l.Error("failed to list feedback", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, all)
}

func (h *Handler) DeleteFeedback(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	email := e.Param("email")
	l.Info("deleting feedback", zap.String("email", email))

	if err := h.admin.DeleteFeedback(e.Request().Context(), email); err != nil {
		l.Error("failed to delete feedback", zap.String("email", email), zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.NoContent(http.StatusNoContent)
}

func (h *Handler) ListParticipants(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	all, err := h.participants.ListParticipants(e.Request().Context())
	if err != nil {
		l.Error("failed to list participants", zap.Any("error", err))
		return h.transportError(e, err)
	}

	return e.JSON(http.StatusOK, all)
}

func (h *Handler) ImportParticipants(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	var req struct {
		Emails []string `json:"emails" validate:"required,min=1"`
	}
	if err := decodeRequest(e, &req); err != nil {
		l.Error("invalid request", zap.Any("error", err))
		return h.transportError(e, err)
	}

	summary := h.admin.ImportParticipants(e.Request().Context(), req.Emails)
	return e.JSON(http.StatusOK, summary)
}

type exportFunc func(ctx context.Context, w io.Writer) *service.Error

// Export streams one dataset as CSV. The body is buffered so a failure can
// still be reported as JSON.
func (h *Handler) Export(e echo.Context) error {
	l := logger.FromContext(e.Request().Context())

	exports := map[string]exportFunc{
		"teams":        h.admin.ExportTeams,
		"submissions":  h.admin.ExportSubmissions,
		"feedback":     h.admin.ExportFeedback,
		"participants": h.admin.ExportParticipants,
	}

	dataset := e.Param("dataset")
	export, ok := exports[dataset]
	if !ok {
		return h.transportError(e, service.NewErrorf(service.ErrorCodeNotFound, "unknown export %q", dataset))
	}

	var buf bytes.Buffer
	if err := export(e.Request().Context(), &buf); err != nil {
		l.Error("export failed", zap.String("dataset", dataset), zap.Any("error", err))
		return h.transportError(e, err)
	}

	e.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+dataset+`.csv"`)
	return e.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
