package apperror

import "errors"

var (
	ErrInvalidMove       = errors.New("invalid move")
	ErrNotYourTurn       = errors.New("it's not your turn")
	ErrMatchNotActive    = errors.New("match is not active")
	ErrMatchNotFound     = errors.New("match not found")
	ErrNotYourMatch      = errors.New("you are not a participant of this match")
	ErrAlreadyInMatch    = errors.New("user already has an active match")
	ErrInvalidOpponent   = errors.New("invalid opponent")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownMatch      = errors.New("no held wager for this match")
	ErrAlreadySettled    = errors.New("wager is already settled")
	ErrNoLegalMoves      = errors.New("no legal moves")
	ErrWagerOutOfRange   = errors.New("wager amount out of range")
	ErrWagerNotAllowed   = errors.New("wagers are not allowed for this match")
	ErrNegativeAmount    = errors.New("amount must not be negative")
)
