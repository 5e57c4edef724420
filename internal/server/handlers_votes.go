package server

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/pollwave/pollwave/internal/errors"
)

type castVoteRequest struct {
	OptionID uuid.UUID `json:"optionId"`
}

type voteResponse struct {
	VoterID  string `json:"voterId"`
	PollID   string `json:"pollId"`
	OptionID string `json:"optionId"`
}

func (s *Server) handleCastVote(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	pollID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req castVoteRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.OptionID == uuid.Nil {
		return apperrors.ValidationError("optionId is required")
	}

	vote, err := s.app.CastVote(c.Request().Context(), userID, pollID, req.OptionID)
	if err != nil {
		return apperrors.FromDomain(err)
	}

	response := voteResponse{
		VoterID:  vote.VoterID.String(),
		PollID:   vote.PollID.String(),
		OptionID: vote.OptionID.String(),
	}
	if err := c.JSON(http.StatusCreated, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleRetractVote(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	pollID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.RetractVote(c.Request().Context(), userID, pollID); err != nil {
		return apperrors.FromDomain(err)
	}

	return c.NoContent(http.StatusNoContent)
}
