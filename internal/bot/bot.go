package bot

import (
	"math"
	"sync"

	"github.com/playpoints/xo-backend/internal/apperror"
	"github.com/playpoints/xo-backend/internal/entity"
)

// maxScore bounds the depth-adjusted minimax values: an immediate win scores
// maxScore-1, later wins score less, so the agent always takes the fastest win.
const maxScore = 10

// mediumBestMoveProb is how often the medium agent plays the optimal move
// instead of a random legal one.
const mediumBestMoveProb = 0.75

// Rand is the injected randomness source; *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type Agent struct {
	mu  sync.Mutex
	rng Rand
}

func New(rng Rand) *Agent {
	return &Agent{rng: rng}
}

// ChooseMove - picks a legal cell for the given mark. Hard is full-depth
// minimax with a fixed tie-break, medium mixes in random moves, easy is
// uniformly random. The board is taken by value and never mutated.
func (that *Agent) ChooseMove(board entity.Board, mark entity.Mark, difficulty entity.Difficulty) (int, error) {
	moves := board.AvailableMoves()
	if len(moves) == 0 || board.IsTerminal() {
		return 0, apperror.ErrNoLegalMoves
	}

	switch difficulty {
	case entity.DifficultyEasy:
		return moves[that.intn(len(moves))], nil
	case entity.DifficultyMedium:
		if that.float64() < mediumBestMoveProb {
			return bestMove(board, mark), nil
		}
		return moves[that.intn(len(moves))], nil
	default:
		return bestMove(board, mark), nil
	}
}

func (that *Agent) intn(n int) int {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.rng.Intn(n)
}

func (that *Agent) float64() float64 {
	that.mu.Lock()
	defer that.mu.Unlock()
	return that.rng.Float64()
}

// bestMove - evaluates every legal move with minimax and applies the fixed
// tie-break among equally valued moves: complete a win this turn, then block
// the opponent's immediate win, then the lowest-indexed cell.
func bestMove(board entity.Board, mark entity.Mark) int {
	bestScore := math.MinInt
	var candidates []int

	for _, cell := range board.AvailableMoves() {
		next := board
		next.Cells[cell] = mark

		score := -negamax(next, mark.Opposite(), 1)
		switch {
		case score > bestScore:
			bestScore = score
			candidates = []int{cell}
		case score == bestScore:
			candidates = append(candidates, cell)
		}
	}

	for _, cell := range candidates {
		if completesLine(board, cell, mark) {
			return cell
		}
	}

	for _, cell := range candidates {
		if completesLine(board, cell, mark.Opposite()) {
			return cell
		}
	}

	// AvailableMoves is ascending, so the first candidate is the lowest cell
	return candidates[0]
}

// negamax - value of the position from the perspective of the mark to move.
// A position where the previous mover just won is a loss, discounted by depth.
func negamax(board entity.Board, mark entity.Mark, depth int) int {
	if winner := board.Winner(); winner != entity.EmptyCell {
		return depth - maxScore
	}

	if board.IsDraw() {
		return 0
	}

	best := math.MinInt
	for _, cell := range board.AvailableMoves() {
		next := board
		next.Cells[cell] = mark

		if score := -negamax(next, mark.Opposite(), depth+1); score > best {
			best = score
		}
	}

	return best
}

// completesLine - reports whether placing mark on cell wins for mark.
func completesLine(board entity.Board, cell int, mark entity.Mark) bool {
	board.Cells[cell] = mark
	return board.Winner() == mark
}
