package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/playpoints/xo-backend/internal/apperror"
	"github.com/playpoints/xo-backend/internal/entity"
	"github.com/playpoints/xo-backend/internal/usecase"
)

type handlers struct {
	uMatch usecase.MatchUseCase
}

func newHandlers(uMatch usecase.MatchUseCase) *handlers {
	return &handlers{
		uMatch: uMatch,
	}
}

type createChallengeRequest struct {
	ChallengerID string `json:"challenger_id"`
	OpponentID   string `json:"opponent_id"`
	Wager        int64  `json:"wager"`
	Difficulty   string `json:"difficulty,omitempty"`
}

type acceptChallengeRequest struct {
	AccepterID string `json:"accepter_id"`
}

type submitMoveRequest struct {
	UserID string `json:"user_id"`
	Cell   int    `json:"cell"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

type adjustBalanceRequest struct {
	Delta  int64  `json:"delta"`
	Reason string `json:"reason"`
}

type balanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (that *handlers) Ping(c echo.Context) error {
	return c.String(http.StatusOK, "pong")
}

func (that *handlers) CreateChallenge(c echo.Context) error {
	var req createChallengeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	state, err := that.uMatch.CreateChallenge(c.Request().Context(), req.ChallengerID, req.OpponentID, req.Wager, entity.Difficulty(req.Difficulty))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, state)
}

func (that *handlers) AcceptChallenge(c echo.Context) error {
	var req acceptChallengeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	state, err := that.uMatch.AcceptChallenge(c.Request().Context(), c.Param("id"), req.AccepterID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, state)
}

func (that *handlers) GetMatch(c echo.Context) error {
	state, err := that.uMatch.GetMatch(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, state)
}

func (that *handlers) SubmitMove(c echo.Context) error {
	var req submitMoveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	state, err := that.uMatch.SubmitMove(c.Request().Context(), c.Param("id"), req.UserID, req.Cell)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, state)
}

func (that *handlers) CancelMatch(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	state, err := that.uMatch.CancelMatch(c.Request().Context(), c.Param("id"), req.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, state)
}

func (that *handlers) AcknowledgeMatch(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	if err := that.uMatch.AcknowledgeMatch(c.Request().Context(), c.Param("id"), req.UserID); err != nil {
		return writeError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (that *handlers) GetBalance(c echo.Context) error {
	userID := c.Param("id")
	balance := that.uMatch.GetBalance(c.Request().Context(), userID)

	return c.JSON(http.StatusOK, balanceResponse{UserID: userID, Balance: balance})
}

func (that *handlers) AdjustBalance(c echo.Context) error {
	var req adjustBalanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}

	userID := c.Param("id")
	balance, err := that.uMatch.AdjustBalance(c.Request().Context(), userID, req.Delta, req.Reason)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, balanceResponse{UserID: userID, Balance: balance})
}

// writeError - maps engine error kinds to HTTP statuses. The engine never
// produces user-facing text, so the sentinel message is all a caller gets.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, apperror.ErrMatchNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperror.ErrInvalidMove),
		errors.Is(err, apperror.ErrWagerOutOfRange),
		errors.Is(err, apperror.ErrWagerNotAllowed),
		errors.Is(err, apperror.ErrNegativeAmount),
		errors.Is(err, apperror.ErrInvalidOpponent):
		status = http.StatusBadRequest
	case errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrNotYourMatch):
		status = http.StatusForbidden
	case errors.Is(err, apperror.ErrMatchNotActive),
		errors.Is(err, apperror.ErrAlreadyInMatch),
		errors.Is(err, apperror.ErrAlreadySettled),
		errors.Is(err, apperror.ErrUnknownMatch):
		status = http.StatusConflict
	case errors.Is(err, apperror.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	}

	return c.JSON(status, errorResponse{Error: err.Error()})
}
