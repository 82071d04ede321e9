package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yakoovad/hackathon-portal/internal/auth"
	"github.com/yakoovad/hackathon-portal/internal/service"
	"github.com/yakoovad/hackathon-portal/pkg/logger"
	"go.uber.org/zap"
)

const adminClaimsKey = "admin_claims"

// ZapLoggerMiddleware puts a request-scoped logger into the request context
// and writes one access line per request. Server errors log at error level,
// client errors at warn.
func ZapLoggerMiddleware(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			reqLogger := base.With(zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)))
			c.SetRequest(c.Request().WithContext(logger.WithLogger(c.Request().Context(), reqLogger)))

			err := next(c)
			if err != nil {
				// Let echo write the response so the logged status is the real one.
				c.Error(err)
			}

			fields := accessFields(c, time.Since(start))
			switch status := c.Response().Status; {
			case status >= http.StatusInternalServerError:
				reqLogger.Error("request failed", append(fields, zap.Error(err))...)
			case status >= http.StatusBadRequest:
				reqLogger.Warn("request rejected", fields...)
			default:
				reqLogger.Info("request completed", fields...)
			}
			return nil
		}
	}
}

func accessFields(c echo.Context, latency time.Duration) []zap.Field {
	req, res := c.Request(), c.Response()
	return []zap.Field{
		zap.String("method", req.Method),
		zap.String("route", c.Path()),
		zap.String("uri", req.RequestURI),
		zap.String("remote_ip", c.RealIP()),
		zap.Int("status", res.Status),
		zap.Duration("latency", latency),
		zap.Int64("bytes_out", res.Size),
	}
}

// AuthMiddleware admits requests carrying a bearer token of a live admin session.
func AuthMiddleware(authn *auth.AdminAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			l := logger.FromContext(c.Request().Context())

			token, ok := bearerToken(c.Request())
			if !ok {
				return unauthorized(c, "missing bearer token")
			}

			claims, err := authn.Authorize(c.Request().Context(), token)
			if err != nil {
				l.Warn("admin authorization failed", zap.Error(err))
				return unauthorized(c, "invalid or expired session")
			}

			c.Set(adminClaimsKey, claims)
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get(echo.HeaderAuthorization), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, errorResponse{
		Error: service.NewError(service.ErrorCodeUnauthorized, msg),
	})
}
