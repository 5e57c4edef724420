package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pollwave/pollwave/internal/auth"
	"github.com/pollwave/pollwave/internal/domain"
	apperrors "github.com/pollwave/pollwave/internal/errors"
)

type createUserRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(user *domain.User) userResponse {
	return userResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if len(req.Secret) < 8 {
		return apperrors.ValidationError("secret must be at least 8 characters")
	}

	// The email salts the secret hash and is stored trimmed and lowercased,
	// so the hash must be minted from that same form or login can never
	// verify it.
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.app.CreateUser(c.Request().Context(), req.Name, email, auth.HashSecret(req.Secret, email))
	if err != nil {
		return apperrors.FromDomain(err)
	}

	if err := c.JSON(http.StatusCreated, toUserResponse(user)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListUsers(c echo.Context) error {
	users, err := s.app.ListUsers(c.Request().Context())
	if err != nil {
		return apperrors.FromDomain(err)
	}

	response := make([]userResponse, 0, len(users))
	for _, user := range users {
		response = append(response, toUserResponse(user))
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

type loginRequest struct {
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type loginResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"userId"`
	ExpiresIn int64  `json:"expiresIn"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	user, err := s.app.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same response as a bad secret so login never leaks which emails exist.
			return apperrors.UnauthorizedError("invalid credentials")
		}
		return apperrors.FromDomain(err)
	}

	if !auth.VerifySecret(req.Secret, user.Email, user.SecretHash) {
		return apperrors.UnauthorizedError("invalid credentials")
	}

	response := loginResponse{
		Token:     s.tokens.Mint(user.ID),
		UserID:    user.ID.String(),
		ExpiresIn: int64(s.config.TokenTTL.Seconds()),
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
