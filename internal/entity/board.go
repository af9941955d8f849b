package entity

import (
	"fmt"

	"github.com/playpoints/xo-backend/internal/apperror"
)

type Mark string

const (
	MarkX Mark = "X"
	MarkO Mark = "O"

	EmptyCell Mark = ""
)

const BoardCells = 9

var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Opposite - returns the mark of the other side.
func (that Mark) Opposite() Mark {
	if that == MarkX {
		return MarkO
	}
	return MarkX
}

// Board is a plain 3x3 grid value. X always moves first, so whose turn it is
// follows from the number of marks already placed.
type Board struct {
	Cells [BoardCells]Mark `json:"cells"`
}

func (that *Board) MoveCount() int {
	count := 0
	for _, cell := range that.Cells {
		if cell != EmptyCell {
			count++
		}
	}
	return count
}

// Turn - returns the mark that moves next on this board.
func (that *Board) Turn() Mark {
	if that.MoveCount()%2 == 0 {
		return MarkX
	}
	return MarkO
}

// Place - puts mark on the given cell. The board is left untouched on any error.
func (that *Board) Place(cell int, mark Mark) error {
	if that.IsTerminal() {
		return fmt.Errorf("%w: board is terminal", apperror.ErrInvalidMove)
	}

	if cell < 0 || cell >= BoardCells {
		return fmt.Errorf("%w: cell %d out of range", apperror.ErrInvalidMove, cell)
	}

	if that.Cells[cell] != EmptyCell {
		return fmt.Errorf("%w: cell %d is occupied", apperror.ErrInvalidMove, cell)
	}

	if that.Turn() != mark {
		return fmt.Errorf("%w: mark %s is not on turn", apperror.ErrInvalidMove, mark)
	}

	that.Cells[cell] = mark

	return nil
}

// Winner - checks the 8 winning lines and returns X, O or EmptyCell.
func (that *Board) Winner() Mark {
	for _, combo := range WinCombos {
		a, b, c := that.Cells[combo[0]], that.Cells[combo[1]], that.Cells[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return a
		}
	}

	return EmptyCell
}

func (that *Board) IsDraw() bool {
	return that.MoveCount() == BoardCells && that.Winner() == EmptyCell
}

func (that *Board) IsTerminal() bool {
	return that.Winner() != EmptyCell || that.IsDraw()
}

// AvailableMoves - returns the empty cell indices in ascending order.
// It is recomputed from the current state on every call.
func (that *Board) AvailableMoves() []int {
	moves := make([]int, 0, BoardCells-that.MoveCount())
	for i, cell := range that.Cells {
		if cell == EmptyCell {
			moves = append(moves, i)
		}
	}
	return moves
}
