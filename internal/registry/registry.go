package registry

import (
	"fmt"
	"sync"

	"github.com/playpoints/xo-backend/internal/apperror"
	"github.com/playpoints/xo-backend/internal/entity"
)

type matchEntry struct {
	mu    sync.Mutex
	match *entity.Match
}

// Registry owns the table of live matches and the one-active-match-per-user
// index. Every match mutation runs under that match's exclusive lock via
// WithMatch; the index has its own lock and is never held across match locks.
type Registry struct {
	mu      sync.RWMutex
	matches map[string]*matchEntry
	byUser  map[string]string
}

func New() *Registry {
	return &Registry{
		matches: make(map[string]*matchEntry),
		byUser:  make(map[string]string),
	}
}

// Add - registers a new match and indexes its seated humans.
// Fails with ErrAlreadyInMatch when any of them already has an active entry.
func (that *Registry) Add(match *entity.Match) error {
	participants := match.Participants()

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.matches[match.ID]; ok {
		return fmt.Errorf("%w: duplicate match id %s", apperror.ErrAlreadyInMatch, match.ID)
	}

	for _, userID := range participants {
		if _, ok := that.byUser[userID]; ok {
			return fmt.Errorf("%w: user %s", apperror.ErrAlreadyInMatch, userID)
		}
	}

	that.matches[match.ID] = &matchEntry{match: match}
	for _, userID := range participants {
		that.byUser[userID] = match.ID
	}

	return nil
}

// Reserve - claims the user for the given match before they are seated, so
// two concurrent accepts cannot put one user into two matches. The boolean
// reports whether a new claim was made: callers roll back only their own.
func (that *Registry) Reserve(userID, matchID string) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.matches[matchID]; !ok {
		return false, fmt.Errorf("%w: id %s", apperror.ErrMatchNotFound, matchID)
	}

	if held, ok := that.byUser[userID]; ok {
		if held != matchID {
			return false, fmt.Errorf("%w: user %s", apperror.ErrAlreadyInMatch, userID)
		}
		return false, nil
	}

	that.byUser[userID] = matchID

	return true, nil
}

// ReleaseUsers - drops index entries, e.g. when a match reaches a terminal
// state or a reservation fell through. The match itself stays queryable.
func (that *Registry) ReleaseUsers(userIDs ...string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for _, userID := range userIDs {
		delete(that.byUser, userID)
	}
}

// ActiveMatchID - the match currently claimed by the user, if any.
func (that *Registry) ActiveMatchID(userID string) (string, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	matchID, ok := that.byUser[userID]

	return matchID, ok
}

// WithMatch - runs fn under the match's exclusive lock. No two operations on
// the same match id ever interleave.
func (that *Registry) WithMatch(matchID string, fn func(match *entity.Match) error) error {
	that.mu.RLock()
	entry, ok := that.matches[matchID]
	that.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: id %s", apperror.ErrMatchNotFound, matchID)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	return fn(entry.match)
}

// Evict - removes the match and any index entries still pointing at it.
func (that *Registry) Evict(matchID string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.matches, matchID)

	for userID, held := range that.byUser {
		if held == matchID {
			delete(that.byUser, userID)
		}
	}
}

// MatchIDs - ids of all live matches, for janitor sweeps.
func (that *Registry) MatchIDs() []string {
	that.mu.RLock()
	defer that.mu.RUnlock()

	ids := make([]string, 0, len(that.matches))
	for id := range that.matches {
		ids = append(ids, id)
	}

	return ids
}

// Len - number of live matches.
func (that *Registry) Len() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.matches)
}
