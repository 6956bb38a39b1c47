package session

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/partykit/neverhaveiever/game/engine"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrRoomNotFound = errors.New("room not found")
)

// Manager owns the registry of live games. It indexes games by ID and by
// room code and is safe for concurrent use; per-game state is guarded by
// the game's own mutex, so the manager's lock only covers the indexes.
type Manager struct {
	games     map[string]*engine.Game // gameID -> game
	roomCodes map[string]string       // roomCode -> gameID
	mu        sync.RWMutex
}

// NewManager creates a new game registry.
func NewManager() *Manager {
	return &Manager{
		games:     make(map[string]*engine.Game),
		roomCodes: make(map[string]string),
	}
}

// Create creates a new game with the given player as host. The room code
// is generated fresh and retried until it does not collide with a live
// game; codes freed by deleted games may be reused.
func (m *Manager) Create(hostName string) (*engine.Game, engine.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roomCode := generateRoomCode()
	for {
		if _, taken := m.roomCodes[roomCode]; !taken {
			break
		}
		roomCode = generateRoomCode()
	}

	game := engine.NewGame(NewID(), roomCode)
	host, err := game.AddPlayer(NewID(), hostName)
	if err != nil {
		return nil, engine.Player{}, err
	}

	m.games[game.ID()] = game
	m.roomCodes[roomCode] = game.ID()

	return game, host, nil
}

// Get retrieves a game by ID.
func (m *Manager) Get(gameID string) (*engine.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	game, exists := m.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}
	return game, nil
}

// GetByRoomCode retrieves a game by its join code (case-insensitive).
func (m *Manager) GetByRoomCode(roomCode string) (*engine.Game, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	gameID, exists := m.roomCodes[strings.ToUpper(roomCode)]
	if !exists {
		return nil, ErrRoomNotFound
	}
	game, exists := m.games[gameID]
	if !exists {
		return nil, ErrRoomNotFound
	}
	return game, nil
}

// Delete removes a game and frees its room code.
func (m *Manager) Delete(gameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	game, exists := m.games[gameID]
	if !exists {
		return ErrGameNotFound
	}
	delete(m.games, gameID)
	delete(m.roomCodes, game.RoomCode())
	return nil
}

// ListOpen returns a snapshot of games still in the WAITING phase, for
// lobby discovery.
func (m *Manager) ListOpen() []engine.LobbyInfo {
	m.mu.RLock()
	games := make([]*engine.Game, 0, len(m.games))
	for _, game := range m.games {
		games = append(games, game)
	}
	m.mu.RUnlock()

	// Per-game locks are taken outside the index lock.
	open := make([]engine.LobbyInfo, 0, len(games))
	for _, game := range games {
		info := game.LobbyInfo()
		if info.Phase == engine.PhaseWaiting {
			open = append(open, info)
		}
	}
	return open
}

// CleanupExpired removes every game idle for longer than maxAge,
// regardless of phase, and returns how many were removed. This is the
// registry's only garbage collection.
func (m *Manager) CleanupExpired(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for gameID, game := range m.games {
		if game.IdleSince(cutoff) {
			delete(m.games, gameID)
			delete(m.roomCodes, game.RoomCode())
			removed++
		}
	}
	return removed
}

// Count returns the number of live games.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.games)
}
