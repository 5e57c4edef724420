package server

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pollwave/pollwave/internal/auth"
	apperrors "github.com/pollwave/pollwave/internal/errors"
	"github.com/pollwave/pollwave/internal/logging"
)

const contextKeyUserID = "userID"

// requestID tags every request with a short ID so log lines from one
// request can be tied together. The ID is echoed back to the client.
func requestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := logging.NewRequestID()
		ctx := logging.WithRequestID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(echo.HeaderXRequestID, id)
		return next(c)
	}
}

// requireAuth verifies the bearer token and stores the caller's user ID in
// the request context for handlers.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return apperrors.UnauthorizedError("missing bearer token")
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				return apperrors.UnauthorizedError("token expired")
			}
			return apperrors.UnauthorizedError("invalid token")
		}

		c.Set(contextKeyUserID, userID)
		return next(c)
	}
}

// optionalUserID resolves the caller from a bearer token when one is sent.
// No Authorization header means an anonymous caller (uuid.Nil); a header
// that fails verification is still rejected.
func (s *Server) optionalUserID(c echo.Context) (uuid.UUID, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return uuid.Nil, nil
	}

	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return uuid.Nil, apperrors.UnauthorizedError("missing bearer token")
	}

	userID, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return uuid.Nil, apperrors.UnauthorizedError("token expired")
		}
		return uuid.Nil, apperrors.UnauthorizedError("invalid token")
	}
	return userID, nil
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := c.Get(contextKeyUserID).(uuid.UUID)
	if !ok {
		return uuid.Nil, apperrors.InternalError("invalid user ID in context", nil)
	}
	return userID, nil
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid UUID format").WithContext(name, raw)
	}
	return id, nil
}
