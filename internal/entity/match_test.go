package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/playpoints/xo-backend/internal/apperror"
)

func TestNewMatch(t *testing.T) {
	// Given: a fresh challenge
	match := NewMatch("m1", "alice", "bob", 30)

	// Then: the challenger holds X and waits for the invited opponent
	require.Equal(t, StatusWaiting, match.Status)
	require.Equal(t, MarkX, match.PlayerX.Mark)
	require.Equal(t, "alice", match.PlayerX.UserID)
	require.Nil(t, match.PlayerO)
	require.Equal(t, "bob", match.InvitedID)
	require.Equal(t, Wager{Amount: 30, Status: WagerNone}, match.Wager)
	require.Equal(t, MarkX, match.Turn)
}

func TestNewAgentMatch(t *testing.T) {
	// Given: a challenge against the computer
	match := NewAgentMatch("m1", "alice", 0, DifficultyHard)

	// Then: there is no waiting phase, the human opens on X
	require.Equal(t, StatusInProgress, match.Status)
	require.Equal(t, "alice", match.PlayerX.UserID)
	require.NotNil(t, match.PlayerO)
	require.True(t, match.PlayerO.IsAgent())
	require.Equal(t, DifficultyHard, match.PlayerO.Difficulty)
	require.NotNil(t, match.Agent())
	require.Equal(t, []string{"alice"}, match.Participants())
}

func TestMatch_Join(t *testing.T) {
	t.Run("invited opponent joins and the match starts", func(t *testing.T) {
		match := NewMatch("m1", "alice", "bob", 0)

		require.NoError(t, match.Join("bob"))

		require.Equal(t, StatusInProgress, match.Status)
		require.Equal(t, "bob", match.PlayerO.UserID)
		require.Equal(t, MarkO, match.PlayerO.Mark)
	})

	t.Run("anyone may accept an open challenge", func(t *testing.T) {
		match := NewMatch("m1", "alice", "", 0)

		require.NoError(t, match.Join("carol"))
		require.Equal(t, "carol", match.PlayerO.UserID)
	})

	t.Run("error when accepting your own challenge", func(t *testing.T) {
		match := NewMatch("m1", "alice", "", 0)

		require.ErrorIs(t, match.Join("alice"), apperror.ErrInvalidOpponent)
		require.Equal(t, StatusWaiting, match.Status)
	})

	t.Run("error when the challenge was aimed at someone else", func(t *testing.T) {
		match := NewMatch("m1", "alice", "bob", 0)

		require.ErrorIs(t, match.Join("carol"), apperror.ErrNotYourMatch)
	})

	t.Run("error when the match already started", func(t *testing.T) {
		match := NewMatch("m1", "alice", "", 0)
		require.NoError(t, match.Join("bob"))

		require.ErrorIs(t, match.Join("carol"), apperror.ErrMatchNotActive)
	})
}

func TestMatch_Submit(t *testing.T) {
	t.Run("moves alternate and the turn flips", func(t *testing.T) {
		match := startedMatch(t)

		require.NoError(t, match.Submit(MarkX, 0))
		require.Equal(t, MarkO, match.Turn)

		require.NoError(t, match.Submit(MarkO, 4))
		require.Equal(t, MarkX, match.Turn)
	})

	t.Run("error on moving out of turn", func(t *testing.T) {
		match := startedMatch(t)

		require.ErrorIs(t, match.Submit(MarkO, 0), apperror.ErrNotYourTurn)
	})

	t.Run("error on a waiting match", func(t *testing.T) {
		match := NewMatch("m1", "alice", "", 0)

		require.ErrorIs(t, match.Submit(MarkX, 0), apperror.ErrMatchNotActive)
	})

	t.Run("winning move finishes the match", func(t *testing.T) {
		match := startedMatch(t)
		playMoves(t, match, 0, 3, 1, 4)

		// When: X completes the top row
		require.NoError(t, match.Submit(MarkX, 2))

		// Then: the match is finished and X is the winner
		require.Equal(t, StatusFinished, match.Status)
		require.Equal(t, OutcomeWinX, match.Outcome)
		require.Equal(t, "alice", match.WinnerPlayer().UserID)
		require.True(t, match.IsTerminal())
		require.False(t, match.FinishedAt.IsZero())
	})

	t.Run("filling the board without a line is a draw", func(t *testing.T) {
		match := startedMatch(t)
		playMoves(t, match, 0, 1, 2, 4, 3, 5, 7, 6, 8)

		require.Equal(t, StatusFinished, match.Status)
		require.Equal(t, OutcomeDraw, match.Outcome)
		require.Nil(t, match.WinnerPlayer())
	})

	t.Run("error on moving after the match finished", func(t *testing.T) {
		match := startedMatch(t)
		playMoves(t, match, 0, 3, 1, 4, 2)
		require.Equal(t, StatusFinished, match.Status)

		require.ErrorIs(t, match.Submit(MarkO, 5), apperror.ErrMatchNotActive)
	})
}

func TestMatch_Forfeit(t *testing.T) {
	t.Run("forfeiting mark loses", func(t *testing.T) {
		match := startedMatch(t)

		require.NoError(t, match.Forfeit(MarkX))

		require.Equal(t, StatusFinished, match.Status)
		require.Equal(t, OutcomeWinO, match.Outcome)
		require.Equal(t, "bob", match.WinnerPlayer().UserID)
	})

	t.Run("error on a waiting match", func(t *testing.T) {
		match := NewMatch("m1", "alice", "", 0)

		require.ErrorIs(t, match.Forfeit(MarkX), apperror.ErrMatchNotActive)
	})
}

func TestMatch_Cancel(t *testing.T) {
	t.Run("waiting challenge can be withdrawn", func(t *testing.T) {
		match := NewMatch("m1", "alice", "", 0)

		require.NoError(t, match.Cancel())

		require.Equal(t, StatusCancelled, match.Status)
		require.Equal(t, OutcomeAborted, match.Outcome)
		require.True(t, match.IsTerminal())
	})

	t.Run("error once the match started", func(t *testing.T) {
		match := startedMatch(t)

		require.ErrorIs(t, match.Cancel(), apperror.ErrMatchNotActive)
	})
}

func TestMatch_State(t *testing.T) {
	// Given: an in-progress match with one move played
	match := startedMatch(t)
	require.NoError(t, match.Submit(MarkX, 0))

	// When: taking a snapshot
	state := match.State()

	// Then: the snapshot mirrors the match
	require.Equal(t, match.ID, state.ID)
	require.Equal(t, match.Board.Cells, state.Board)
	require.Equal(t, MarkO, state.Turn)
	require.Equal(t, StatusInProgress, state.Status)

	// Then: mutating the snapshot players does not leak into the match
	state.PlayerX.UserID = "mallory"
	require.Equal(t, "alice", match.PlayerX.UserID)
}

func startedMatch(t *testing.T) *Match {
	t.Helper()

	match := NewMatch("m1", "alice", "", 0)
	require.NoError(t, match.Join("bob"))

	return match
}

func playMoves(t *testing.T, match *Match, cells ...int) {
	t.Helper()

	for _, cell := range cells {
		require.NoError(t, match.Submit(match.Turn, cell))
	}
}
