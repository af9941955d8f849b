package entity

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (that Difficulty) IsValid() bool {
	switch that {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

type PlayerKind string

const (
	PlayerHuman PlayerKind = "human"
	PlayerAgent PlayerKind = "agent"
)

// Player is one side of a match: either a human identified by a user id,
// or the computer agent with a difficulty level.
type Player struct {
	Kind       PlayerKind `json:"kind"`
	UserID     string     `json:"user_id,omitempty"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	Mark       Mark       `json:"mark"`
}

func NewHumanPlayer(userID string, mark Mark) *Player {
	return &Player{
		Kind:   PlayerHuman,
		UserID: userID,
		Mark:   mark,
	}
}

func NewAgentPlayer(difficulty Difficulty, mark Mark) *Player {
	return &Player{
		Kind:       PlayerAgent,
		Difficulty: difficulty,
		Mark:       mark,
	}
}

func (that *Player) IsAgent() bool {
	return that.Kind == PlayerAgent
}
