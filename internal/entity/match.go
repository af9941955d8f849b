package entity

import (
	"fmt"
	"time"

	"github.com/playpoints/xo-backend/internal/apperror"
)

type MatchStatus string

const (
	StatusWaiting    MatchStatus = "waiting_for_opponent"
	StatusInProgress MatchStatus = "in_progress"
	StatusFinished   MatchStatus = "finished"
	StatusCancelled  MatchStatus = "cancelled"
)

type Outcome string

const (
	OutcomeWinX    Outcome = "win_x"
	OutcomeWinO    Outcome = "win_o"
	OutcomeDraw    Outcome = "draw"
	OutcomeAborted Outcome = "aborted"
)

type WagerStatus string

const (
	WagerNone     WagerStatus = "none"
	WagerHeld     WagerStatus = "held"
	WagerSettled  WagerStatus = "settled"
	WagerRefunded WagerStatus = "refunded"
)

// Wager is the stake attached to a match. The points themselves are held by
// the ledger; the match only mirrors the amount and the escrow status.
type Wager struct {
	Amount int64       `json:"amount"`
	Status WagerStatus `json:"status"`
}

// Match is the state machine for a single game session. It is pure state:
// all ledger side effects are driven by the caller, and the caller is
// responsible for serializing access (one exclusive lock per match).
type Match struct {
	ID        string
	PlayerX   *Player
	PlayerO   *Player
	Board     Board
	Turn      Mark
	Status    MatchStatus
	Outcome   Outcome
	Wager     Wager
	InvitedID string

	CreatedAt  time.Time
	LastMoveAt time.Time
	FinishedAt time.Time
}

// NewMatch - creates a challenge waiting for an opponent. The challenger
// always plays X; invitedID may be empty for an open challenge.
func NewMatch(id, challengerID, invitedID string, amount int64) *Match {
	now := time.Now()

	return &Match{
		ID:         id,
		PlayerX:    NewHumanPlayer(challengerID, MarkX),
		Turn:       MarkX,
		Status:     StatusWaiting,
		// the stake is only held by the ledger once the challenge is accepted
		Wager:      Wager{Amount: amount, Status: WagerNone},
		InvitedID:  invitedID,
		CreatedAt:  now,
		LastMoveAt: now,
	}
}

// NewAgentMatch - creates a match against the computer agent. There is no
// waiting phase: the agent is always ready, so the match starts in progress
// with the human on X and on turn.
func NewAgentMatch(id, challengerID string, amount int64, difficulty Difficulty) *Match {
	now := time.Now()

	return &Match{
		ID:         id,
		PlayerX:    NewHumanPlayer(challengerID, MarkX),
		PlayerO:    NewAgentPlayer(difficulty, MarkO),
		Turn:       MarkX,
		Status:     StatusInProgress,
		Wager:      Wager{Amount: amount, Status: WagerNone},
		CreatedAt:  now,
		LastMoveAt: now,
	}
}

// CanJoin - checks whether the user may accept this challenge. Kept separate
// from Join so escrow can run between validation and seating.
func (that *Match) CanJoin(userID string) error {
	if that.Status != StatusWaiting {
		return fmt.Errorf("%w: status %s", apperror.ErrMatchNotActive, that.Status)
	}

	if userID == that.PlayerX.UserID {
		return fmt.Errorf("%w: cannot accept your own challenge", apperror.ErrInvalidOpponent)
	}

	if that.InvitedID != "" && userID != that.InvitedID {
		return apperror.ErrNotYourMatch
	}

	return nil
}

// Join - seats a second human on O and starts the match.
func (that *Match) Join(userID string) error {
	if err := that.CanJoin(userID); err != nil {
		return err
	}

	that.PlayerO = NewHumanPlayer(userID, MarkO)
	that.Status = StatusInProgress
	that.LastMoveAt = time.Now()

	return nil
}

// Submit - applies one placement for the given mark and advances the state
// machine. On a terminal board the match finishes with the matching outcome,
// otherwise the turn flips.
func (that *Match) Submit(mark Mark, cell int) error {
	if that.Status != StatusInProgress {
		return fmt.Errorf("%w: status %s", apperror.ErrMatchNotActive, that.Status)
	}

	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if err := that.Board.Place(cell, mark); err != nil {
		return err
	}

	that.LastMoveAt = time.Now()

	switch winner := that.Board.Winner(); {
	case winner != EmptyCell:
		that.finish(outcomeForWinner(winner))
	case that.Board.IsDraw():
		that.finish(OutcomeDraw)
	default:
		that.Turn = mark.Opposite()
	}

	return nil
}

// Forfeit - abandons an in-progress match; the forfeiting mark loses.
func (that *Match) Forfeit(mark Mark) error {
	if that.Status != StatusInProgress {
		return fmt.Errorf("%w: status %s", apperror.ErrMatchNotActive, that.Status)
	}

	that.finish(outcomeForWinner(mark.Opposite()))

	return nil
}

// Cancel - withdraws a challenge that nobody accepted yet.
func (that *Match) Cancel() error {
	if that.Status != StatusWaiting {
		return fmt.Errorf("%w: status %s", apperror.ErrMatchNotActive, that.Status)
	}

	that.Status = StatusCancelled
	that.Outcome = OutcomeAborted
	that.FinishedAt = time.Now()

	return nil
}

func (that *Match) finish(outcome Outcome) {
	that.Status = StatusFinished
	that.Outcome = outcome
	that.Turn = EmptyCell
	that.FinishedAt = time.Now()
}

func (that *Match) IsTerminal() bool {
	return that.Status == StatusFinished || that.Status == StatusCancelled
}

// PlayerByUser - resolves a human participant; nil when the user is not seated.
func (that *Match) PlayerByUser(userID string) *Player {
	for _, player := range []*Player{that.PlayerX, that.PlayerO} {
		if player != nil && !player.IsAgent() && player.UserID == userID {
			return player
		}
	}
	return nil
}

// PlayerByMark - resolves the player holding the given mark; nil until seated.
func (that *Match) PlayerByMark(mark Mark) *Player {
	if mark == MarkX {
		return that.PlayerX
	}
	return that.PlayerO
}

// Agent - returns the computer player, nil for human-vs-human matches.
func (that *Match) Agent() *Player {
	for _, player := range []*Player{that.PlayerX, that.PlayerO} {
		if player != nil && player.IsAgent() {
			return player
		}
	}
	return nil
}

// WinnerPlayer - the player corresponding to a decisive outcome, nil otherwise.
func (that *Match) WinnerPlayer() *Player {
	switch that.Outcome {
	case OutcomeWinX:
		return that.PlayerX
	case OutcomeWinO:
		return that.PlayerO
	default:
		return nil
	}
}

// Participants - user ids of the seated humans.
func (that *Match) Participants() []string {
	ids := make([]string, 0, 2)
	for _, player := range []*Player{that.PlayerX, that.PlayerO} {
		if player != nil && !player.IsAgent() {
			ids = append(ids, player.UserID)
		}
	}
	return ids
}

func outcomeForWinner(mark Mark) Outcome {
	if mark == MarkX {
		return OutcomeWinX
	}
	return OutcomeWinO
}

// MatchState is the snapshot handed to callers. It carries everything a
// transport needs to render the match without reaching into the engine.
type MatchState struct {
	ID         string           `json:"id"`
	Board      [BoardCells]Mark `json:"board"`
	Turn       Mark             `json:"turn,omitempty"`
	Status     MatchStatus      `json:"status"`
	Outcome    Outcome          `json:"outcome,omitempty"`
	Wager      Wager            `json:"wager"`
	PlayerX    *Player          `json:"player_x,omitempty"`
	PlayerO    *Player          `json:"player_o,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	FinishedAt time.Time        `json:"finished_at,omitempty"`
}

// State - copies the externally visible part of the match.
func (that *Match) State() *MatchState {
	state := &MatchState{
		ID:         that.ID,
		Board:      that.Board.Cells,
		Turn:       that.Turn,
		Status:     that.Status,
		Outcome:    that.Outcome,
		Wager:      that.Wager,
		CreatedAt:  that.CreatedAt,
		FinishedAt: that.FinishedAt,
	}

	if that.PlayerX != nil {
		playerX := *that.PlayerX
		state.PlayerX = &playerX
	}
	if that.PlayerO != nil {
		playerO := *that.PlayerO
		state.PlayerO = &playerO
	}

	return state
}
