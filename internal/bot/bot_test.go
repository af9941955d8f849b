package bot

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/playpoints/xo-backend/internal/apperror"
	"github.com/playpoints/xo-backend/internal/entity"
)

// stubRand pins the randomness so difficulty branches are deterministic.
type stubRand struct {
	n int
	f float64
}

func (that *stubRand) Intn(int) int     { return that.n }
func (that *stubRand) Float64() float64 { return that.f }

func TestAgent_ChooseMove(t *testing.T) {
	t.Run("error when the board is full", func(t *testing.T) {
		board := boardFromMoves(t, 0, 1, 2, 4, 3, 5, 7, 6, 8)

		_, err := New(&stubRand{}).ChooseMove(board, entity.MarkX, entity.DifficultyHard)

		require.ErrorIs(t, err, apperror.ErrNoLegalMoves)
	})

	t.Run("error when the game is already decided", func(t *testing.T) {
		board := boardFromMoves(t, 0, 3, 1, 4, 2)
		require.Equal(t, entity.MarkX, board.Winner())

		_, err := New(&stubRand{}).ChooseMove(board, entity.MarkO, entity.DifficultyHard)

		require.ErrorIs(t, err, apperror.ErrNoLegalMoves)
	})

	t.Run("easy picks a legal cell", func(t *testing.T) {
		agent := New(rand.New(rand.NewSource(1)))
		board := boardFromMoves(t, 0, 4, 8)

		for n := 0; n < 50; n++ {
			cell, err := agent.ChooseMove(board, entity.MarkO, entity.DifficultyEasy)
			require.NoError(t, err)
			require.Equal(t, entity.EmptyCell, board.Cells[cell])
		}
	})

	t.Run("medium plays the optimal move most of the time", func(t *testing.T) {
		// Given: O must block X's open top row, random roll below the mix threshold
		agent := New(&stubRand{f: 0.0})
		board := boardFromMoves(t, 0, 4, 1)

		cell, err := agent.ChooseMove(board, entity.MarkO, entity.DifficultyMedium)

		require.NoError(t, err)
		require.Equal(t, 2, cell)
	})

	t.Run("medium falls back to a random cell on a high roll", func(t *testing.T) {
		agent := New(&stubRand{f: 0.99, n: 1})
		board := boardFromMoves(t, 0, 4, 1)

		cell, err := agent.ChooseMove(board, entity.MarkO, entity.DifficultyMedium)

		require.NoError(t, err)
		// second available cell, not the blocking one
		require.Equal(t, 3, cell)
	})
}

func TestAgent_Hard(t *testing.T) {
	t.Run("takes the winning move over everything else", func(t *testing.T) {
		// Given: X holds 0 and 1 and can close the row on 2
		board := boardFromMoves(t, 0, 3, 1, 4)

		cell, err := New(&stubRand{}).ChooseMove(board, entity.MarkX, entity.DifficultyHard)

		require.NoError(t, err)
		require.Equal(t, 2, cell)
	})

	t.Run("blocks an immediate loss", func(t *testing.T) {
		// Given: X threatens the top row, O to move
		board := boardFromMoves(t, 0, 4, 1)

		cell, err := New(&stubRand{}).ChooseMove(board, entity.MarkO, entity.DifficultyHard)

		require.NoError(t, err)
		require.Equal(t, 2, cell)
	})

	t.Run("prefers its own win over blocking", func(t *testing.T) {
		// Given: both sides have two in a row, O to move wins on 5
		// X X .
		// O O .
		// . . .
		board := boardFromMoves(t, 0, 3, 1, 4)
		require.NoError(t, board.Place(8, entity.MarkX))

		cell, err := New(&stubRand{}).ChooseMove(board, entity.MarkO, entity.DifficultyHard)

		require.NoError(t, err)
		require.Equal(t, 5, cell)
	})

	t.Run("opens deterministically on the lowest cell", func(t *testing.T) {
		board := entity.Board{}

		cell, err := New(&stubRand{}).ChooseMove(board, entity.MarkX, entity.DifficultyHard)

		require.NoError(t, err)
		require.Equal(t, 0, cell)
	})

	t.Run("hard versus hard always ends in a draw", func(t *testing.T) {
		agent := New(&stubRand{})
		board := entity.Board{}

		for !board.IsTerminal() {
			mark := board.Turn()
			cell, err := agent.ChooseMove(board, mark, entity.DifficultyHard)
			require.NoError(t, err)
			require.NoError(t, board.Place(cell, mark))
		}

		require.Equal(t, entity.EmptyCell, board.Winner())
		require.True(t, board.IsDraw())
	})
}

// boardFromMoves plays the given cells in strict alternation starting with X.
func boardFromMoves(t *testing.T, cells ...int) entity.Board {
	t.Helper()

	board := entity.Board{}
	for _, cell := range cells {
		require.NoError(t, board.Place(cell, board.Turn()))
	}

	return board
}
