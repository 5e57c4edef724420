package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pollwave/pollwave/internal/app"
	"github.com/pollwave/pollwave/internal/domain"
	apperrors "github.com/pollwave/pollwave/internal/errors"
)

type createPollRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Visibility  string     `json:"visibility"`
	ExpiresAt   *time.Time `json:"expiresAt"`
	Options     []string   `json:"options"`
}

type optionResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type pollResponse struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	Visibility  string           `json:"visibility"`
	Status      string           `json:"status"`
	ExpiresAt   *time.Time       `json:"expiresAt,omitempty"`
	CreatorID   string           `json:"creatorId"`
	Options     []optionResponse `json:"options"`
	CreatedAt   time.Time        `json:"createdAt"`
}

type pollWithResultsResponse struct {
	pollResponse
	Results       *domain.ResultSnapshot `json:"results"`
	VotedOptionID *string                `json:"votedOptionId,omitempty"`
}

type pollListResponse struct {
	Polls []pollResponse `json:"polls"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
}

func toPollResponse(p *domain.Poll, now time.Time) pollResponse {
	status := p.Status
	if p.EffectivelyClosed(now) {
		status = domain.PollStatusClosed
	}

	options := make([]optionResponse, 0, len(p.Options))
	for _, option := range p.Options {
		options = append(options, optionResponse{ID: option.ID.String(), Text: option.Text})
	}

	return pollResponse{
		ID:          p.ID.String(),
		Title:       p.Title,
		Description: p.Description,
		Visibility:  string(p.Visibility),
		Status:      string(status),
		ExpiresAt:   p.ExpiresAt,
		CreatorID:   p.CreatorID.String(),
		Options:     options,
		CreatedAt:   p.CreatedAt,
	}
}

func (s *Server) handleCreatePoll(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req createPollRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	poll, err := s.app.CreatePoll(c.Request().Context(), userID, app.CreatePollRequest{
		Title:       req.Title,
		Description: req.Description,
		Visibility:  domain.PollVisibility(req.Visibility),
		ExpiresAt:   req.ExpiresAt,
		Options:     req.Options,
	})
	if err != nil {
		return apperrors.FromDomain(err)
	}

	if err := c.JSON(http.StatusCreated, toPollResponse(poll, time.Now())); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetPoll(c echo.Context) error {
	pollID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	// Auth is optional here: anyone may read public polls, but private
	// polls and the caller's own vote need an identified viewer.
	viewerID, err := s.optionalUserID(c)
	if err != nil {
		return err
	}

	poll, snapshot, votedOption, err := s.app.GetPoll(c.Request().Context(), pollID, viewerID)
	if err != nil {
		return apperrors.FromDomain(err)
	}

	response := pollWithResultsResponse{
		pollResponse: toPollResponse(poll, time.Now()),
		Results:      snapshot,
	}
	if votedOption != nil {
		id := votedOption.String()
		response.VotedOptionID = &id
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListPolls(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	params := domain.ListPollsParams{
		Page:   page,
		Limit:  limit,
		Search: c.QueryParam("search"),
	}

	polls, total, err := s.app.ListPolls(c.Request().Context(), params)
	if err != nil {
		return apperrors.FromDomain(err)
	}

	now := time.Now()
	response := pollListResponse{
		Polls: make([]pollResponse, 0, len(polls)),
		Page:  params.Page,
		Limit: params.Limit,
		Total: total,
	}
	for _, poll := range polls {
		response.Polls = append(response.Polls, toPollResponse(poll, now))
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handlePollResults(c echo.Context) error {
	pollID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	snapshot, err := s.app.Results(c.Request().Context(), pollID)
	if err != nil {
		return apperrors.FromDomain(err)
	}

	if err := c.JSON(http.StatusOK, snapshot); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleClosePoll(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	pollID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.ClosePoll(c.Request().Context(), pollID, userID); err != nil {
		return apperrors.FromDomain(err)
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "closed"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
