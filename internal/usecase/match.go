package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playpoints/xo-backend/internal/apperror"
	"github.com/playpoints/xo-backend/internal/entity"
	"github.com/playpoints/xo-backend/pkg"
)

// AgentOpponentID is the opponent marker a caller passes to challenge the
// computer instead of another user.
const AgentOpponentID = "@agent"

// MatchUseCase is the engine API consumed by transports. All operations are
// synchronous; MatchState snapshots are the only thing handed back.
type MatchUseCase interface {
	CreateChallenge(ctx context.Context, challengerID, opponentID string, amount int64, difficulty entity.Difficulty) (*entity.MatchState, error)
	AcceptChallenge(ctx context.Context, matchID, accepterID string) (*entity.MatchState, error)
	SubmitMove(ctx context.Context, matchID, userID string, cell int) (*entity.MatchState, error)
	CancelMatch(ctx context.Context, matchID, userID string) (*entity.MatchState, error)
	AcknowledgeMatch(ctx context.Context, matchID, userID string) error
	GetMatch(ctx context.Context, matchID string) (*entity.MatchState, error)

	GetBalance(ctx context.Context, userID string) int64
	AdjustBalance(ctx context.Context, userID string, delta int64, reason string) (int64, error)

	// Run blocks, driving lifecycle sweeps until ctx is cancelled.
	Run(ctx context.Context)
}

type pointsLedger interface {
	Balance(ctx context.Context, userID string) int64
	Adjust(ctx context.Context, userID string, delta int64, reason string) (int64, error)
	Escrow(ctx context.Context, matchID string, contributors []string, amount int64) error
	Settle(ctx context.Context, matchID, winnerID string) error
	SettleDraw(ctx context.Context, matchID string) error
	Refund(ctx context.Context, matchID string) error
}

type matchRegistry interface {
	Add(match *entity.Match) error
	Reserve(userID, matchID string) (bool, error)
	ReleaseUsers(userIDs ...string)
	ActiveMatchID(userID string) (string, bool)
	WithMatch(matchID string, fn func(match *entity.Match) error) error
	Evict(matchID string)
	MatchIDs() []string
}

type agentMover interface {
	ChooseMove(board entity.Board, mark entity.Mark, difficulty entity.Difficulty) (int, error)
}

type matchRepo interface {
	Save(ctx context.Context, state *entity.MatchState) error
	DeleteByID(ctx context.Context, id string) error
}

// Config carries the wager and lifecycle policies the caller fixes.
type Config struct {
	MinWager         int64
	MaxWager         int64
	AllowAgentWagers bool

	ChallengeTTL  time.Duration // 0 disables challenge expiry
	MoveTimeout   time.Duration // 0 disables inactivity forfeits
	FinishedGrace time.Duration // how long terminal matches stay queryable
	SweepInterval time.Duration
}

type matchUseCase struct {
	logger *slog.Logger
	config Config

	ledger   pointsLedger
	registry matchRegistry
	agent    agentMover
	repo     matchRepo
}

func NewMatchUseCase(logger *slog.Logger, config Config, ledger pointsLedger, registry matchRegistry, agent agentMover, repo matchRepo) MatchUseCase {
	if config.SweepInterval <= 0 {
		config.SweepInterval = 5 * time.Second
	}

	return &matchUseCase{
		logger:   logger.With("component", "engine"),
		config:   config,
		ledger:   ledger,
		registry: registry,
		agent:    agent,
		repo:     repo,
	}
}

// CreateChallenge - opens a match. A named opponent makes a private
// challenge, an empty opponent an open one, and AgentOpponentID starts an
// in-progress match against the computer. The challenger always plays X.
func (that *matchUseCase) CreateChallenge(ctx context.Context, challengerID, opponentID string, amount int64, difficulty entity.Difficulty) (*entity.MatchState, error) {
	if challengerID == "" {
		return nil, fmt.Errorf("%w: empty challenger id", apperror.ErrInvalidOpponent)
	}

	if err := that.validateWager(amount); err != nil {
		return nil, err
	}

	if opponentID == AgentOpponentID {
		return that.createAgentMatch(ctx, challengerID, amount, difficulty)
	}

	if opponentID == challengerID {
		return nil, fmt.Errorf("%w: cannot challenge yourself", apperror.ErrInvalidOpponent)
	}

	if opponentID != "" {
		if _, busy := that.registry.ActiveMatchID(opponentID); busy {
			return nil, fmt.Errorf("%w: opponent %s", apperror.ErrAlreadyInMatch, opponentID)
		}
	}

	// escrow happens at acceptance; this is only a fail-fast balance check
	if amount > 0 && that.ledger.Balance(ctx, challengerID) < amount {
		return nil, fmt.Errorf("%w: user %s", apperror.ErrInsufficientFunds, challengerID)
	}

	match := entity.NewMatch(pkg.GenerateMatchID(), challengerID, opponentID, amount)
	if err := that.registry.Add(match); err != nil {
		return nil, err
	}

	state := match.State()
	that.persist(ctx, state)

	that.logger.Info("challenge created", "matchID", match.ID, "challenger", challengerID, "wager", amount)

	return state, nil
}

func (that *matchUseCase) createAgentMatch(ctx context.Context, challengerID string, amount int64, difficulty entity.Difficulty) (*entity.MatchState, error) {
	if amount > 0 && !that.config.AllowAgentWagers {
		return nil, fmt.Errorf("%w: wagers against the computer are disabled", apperror.ErrWagerNotAllowed)
	}

	if difficulty == "" {
		difficulty = entity.DifficultyHard
	}
	if !difficulty.IsValid() {
		return nil, fmt.Errorf("%w: unknown difficulty %q", apperror.ErrInvalidOpponent, difficulty)
	}

	match := entity.NewAgentMatch(pkg.GenerateMatchID(), challengerID, amount, difficulty)
	if err := that.registry.Add(match); err != nil {
		return nil, err
	}

	// the house backs the agent's side, so only the human stake is held
	if amount > 0 {
		if err := that.ledger.Escrow(ctx, match.ID, []string{challengerID}, amount); err != nil {
			that.registry.Evict(match.ID)
			return nil, err
		}
		match.Wager.Status = entity.WagerHeld
	}

	state := match.State()
	that.persist(ctx, state)

	that.logger.Info("agent match created", "matchID", match.ID, "challenger", challengerID, "difficulty", difficulty, "wager", amount)

	return state, nil
}

// AcceptChallenge - seats the accepter as O and starts the match. With a
// wager, both stakes are escrowed here, all-or-nothing, before anyone is
// seated, so a failed escrow leaves the challenge untouched.
func (that *matchUseCase) AcceptChallenge(ctx context.Context, matchID, accepterID string) (*entity.MatchState, error) {
	if accepterID == "" {
		return nil, fmt.Errorf("%w: empty accepter id", apperror.ErrInvalidOpponent)
	}

	reserved, err := that.registry.Reserve(accepterID, matchID)
	if err != nil {
		return nil, err
	}

	var state *entity.MatchState
	err = that.registry.WithMatch(matchID, func(match *entity.Match) error {
		if err := match.CanJoin(accepterID); err != nil {
			return err
		}

		if match.Wager.Amount > 0 {
			contributors := []string{match.PlayerX.UserID, accepterID}
			if err := that.ledger.Escrow(ctx, match.ID, contributors, match.Wager.Amount); err != nil {
				return err
			}
			match.Wager.Status = entity.WagerHeld
		}

		if err := match.Join(accepterID); err != nil {
			return err
		}

		state = match.State()

		return nil
	})
	if err != nil {
		if reserved {
			that.registry.ReleaseUsers(accepterID)
		}
		return nil, err
	}

	that.persist(ctx, state)

	that.logger.Info("challenge accepted", "matchID", matchID, "accepter", accepterID)

	return state, nil
}

// SubmitMove - applies the user's placement. Against the computer the agent's
// reply is computed and applied before returning, so the match never rests on
// the agent's turn. Terminal transitions settle the wager in the same call.
func (that *matchUseCase) SubmitMove(ctx context.Context, matchID, userID string, cell int) (*entity.MatchState, error) {
	var state *entity.MatchState
	err := that.registry.WithMatch(matchID, func(match *entity.Match) error {
		player := match.PlayerByUser(userID)
		if player == nil {
			return apperror.ErrNotYourMatch
		}

		if err := match.Submit(player.Mark, cell); err != nil {
			return err
		}

		if agent := match.Agent(); agent != nil && match.Status == entity.StatusInProgress && match.Turn == agent.Mark {
			agentCell, err := that.agent.ChooseMove(match.Board, agent.Mark, agent.Difficulty)
			if err != nil {
				return fmt.Errorf("agent failed to choose a move: %w", err)
			}
			if err := match.Submit(agent.Mark, agentCell); err != nil {
				return fmt.Errorf("agent move rejected: %w", err)
			}
		}

		if match.Status == entity.StatusFinished {
			that.settle(ctx, match)
		}

		state = match.State()

		return nil
	})
	if err != nil {
		return nil, err
	}

	that.persist(ctx, state)

	return state, nil
}

// CancelMatch - withdrawing a waiting challenge refunds the stake; abandoning
// an in-progress match is a forfeit and settles for the opponent.
func (that *matchUseCase) CancelMatch(ctx context.Context, matchID, userID string) (*entity.MatchState, error) {
	var state *entity.MatchState
	err := that.registry.WithMatch(matchID, func(match *entity.Match) error {
		player := match.PlayerByUser(userID)
		if player == nil {
			return apperror.ErrNotYourMatch
		}

		switch match.Status {
		case entity.StatusWaiting:
			that.abort(ctx, match)
		case entity.StatusInProgress:
			if err := match.Forfeit(player.Mark); err != nil {
				return err
			}
			that.logger.Info("match forfeited", "matchID", matchID, "by", userID)
			that.settle(ctx, match)
		default:
			return fmt.Errorf("%w: status %s", apperror.ErrMatchNotActive, match.Status)
		}

		state = match.State()

		return nil
	})
	if err != nil {
		return nil, err
	}

	that.persist(ctx, state)

	return state, nil
}

// AcknowledgeMatch - a participant confirms they saw the result; the match is
// evicted right away instead of waiting out the grace period.
func (that *matchUseCase) AcknowledgeMatch(ctx context.Context, matchID, userID string) error {
	err := that.registry.WithMatch(matchID, func(match *entity.Match) error {
		if match.PlayerByUser(userID) == nil {
			return apperror.ErrNotYourMatch
		}

		if !match.IsTerminal() {
			return fmt.Errorf("%w: status %s", apperror.ErrMatchNotActive, match.Status)
		}

		return nil
	})
	if err != nil {
		return err
	}

	that.evict(ctx, matchID)

	return nil
}

func (that *matchUseCase) GetMatch(_ context.Context, matchID string) (*entity.MatchState, error) {
	var state *entity.MatchState
	err := that.registry.WithMatch(matchID, func(match *entity.Match) error {
		state = match.State()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return state, nil
}

func (that *matchUseCase) GetBalance(ctx context.Context, userID string) int64 {
	return that.ledger.Balance(ctx, userID)
}

// AdjustBalance - the hook for the admin surface and the deposit/withdrawal
// collaborator; routed through the ledger so the non-negative invariant holds.
func (that *matchUseCase) AdjustBalance(ctx context.Context, userID string, delta int64, reason string) (int64, error) {
	balance, err := that.ledger.Adjust(ctx, userID, delta, reason)
	if err != nil {
		return 0, err
	}

	that.logger.Info("balance adjusted", "user", userID, "delta", delta, "reason", reason)

	return balance, nil
}

func (that *matchUseCase) validateWager(amount int64) error {
	if amount < 0 {
		return fmt.Errorf("%w: wager %d", apperror.ErrNegativeAmount, amount)
	}

	if amount == 0 {
		return nil
	}

	if amount < that.config.MinWager {
		return fmt.Errorf("%w: wager %d is below the minimum %d", apperror.ErrWagerOutOfRange, amount, that.config.MinWager)
	}

	if that.config.MaxWager > 0 && amount > that.config.MaxWager {
		return fmt.Errorf("%w: wager %d is above the maximum %d", apperror.ErrWagerOutOfRange, amount, that.config.MaxWager)
	}

	return nil
}

// settle - distributes a held wager for a finished match and frees the
// participants for new matches. Called under the match lock.
func (that *matchUseCase) settle(ctx context.Context, match *entity.Match) {
	if match.Wager.Status == entity.WagerHeld {
		var err error
		if match.Outcome == entity.OutcomeDraw {
			err = that.ledger.SettleDraw(ctx, match.ID)
		} else {
			var winnerID string
			if winner := match.WinnerPlayer(); winner != nil {
				winnerID = winner.UserID // empty for the agent: the house keeps the pot
			}
			err = that.ledger.Settle(ctx, match.ID, winnerID)
		}

		if err != nil {
			that.logger.Error("failed to settle wager", "matchID", match.ID, "error", err)
		} else {
			match.Wager.Status = entity.WagerSettled
		}
	}

	that.registry.ReleaseUsers(match.Participants()...)

	that.logger.Info("match finished", "matchID", match.ID, "outcome", match.Outcome)
}

// abort - cancels a waiting challenge and refunds anything held.
func (that *matchUseCase) abort(ctx context.Context, match *entity.Match) {
	if err := match.Cancel(); err != nil {
		that.logger.Error("failed to cancel match", "matchID", match.ID, "error", err)
		return
	}

	if match.Wager.Status == entity.WagerHeld {
		if err := that.ledger.Refund(ctx, match.ID); err != nil {
			that.logger.Error("failed to refund wager", "matchID", match.ID, "error", err)
		} else {
			match.Wager.Status = entity.WagerRefunded
		}
	}

	that.registry.ReleaseUsers(match.Participants()...)

	that.logger.Info("match cancelled", "matchID", match.ID)
}

func (that *matchUseCase) persist(ctx context.Context, state *entity.MatchState) {
	if that.repo == nil {
		return
	}

	if err := that.repo.Save(ctx, state); err != nil {
		that.logger.Error("failed to persist match snapshot", "matchID", state.ID, "error", err)
	}
}

func (that *matchUseCase) evict(ctx context.Context, matchID string) {
	that.registry.Evict(matchID)

	if that.repo != nil {
		if err := that.repo.DeleteByID(ctx, matchID); err != nil {
			that.logger.Error("failed to delete match snapshot", "matchID", matchID, "error", err)
		}
	}
}
