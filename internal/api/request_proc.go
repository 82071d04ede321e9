package api

import (
	"github.com/labstack/echo/v4"
	"github.com/yakoovad/hackathon-portal/internal/service"
)

type step[T any] func(echo.Context, *T) *service.Error

// ProcessRequest runs steps in order and stops at the first failure.
func ProcessRequest[T any](e echo.Context, req *T, steps ...step[T]) *service.Error {
	for _, s := range steps {
		if err := s(e, req); err != nil {
			return err
		}
	}
	return nil
}

func bind[T any](e echo.Context, req *T) *service.Error {
	if err := e.Bind(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "invalid request body")
	}
	return nil
}

type normalizer interface {
	Normalize()
}

// normalize lets request types trim their fields before validation.
func normalize[T any](_ echo.Context, req *T) *service.Error {
	if n, ok := any(req).(normalizer); ok {
		n.Normalize()
	}
	return nil
}

func validate[T any](e echo.Context, req *T) *service.Error {
	if err := e.Validate(req); err != nil {
		return service.NewError(service.ErrorCodeInvalidBody, "request validation failed: "+err.Error())
	}
	return nil
}

// decodeRequest binds, normalizes and validates req.
func decodeRequest[T any](e echo.Context, req *T) *service.Error {
	return ProcessRequest(e, req, bind[T], normalize[T], validate[T])
}
