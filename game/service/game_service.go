package service

import (
	"context"

	"github.com/partykit/neverhaveiever/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Room lifecycle
	CreateRoom(ctx context.Context, hostName string) (*RoomInfo, error)
	JoinRoomByCode(ctx context.Context, roomCode, playerName string) (*RoomInfo, error)
	JoinRoomByID(ctx context.Context, gameID, playerName string) (*RoomInfo, error)
	ListLobbies(ctx context.Context) ([]engine.LobbyInfo, error)

	// Game actions
	StartGame(ctx context.Context, gameID, playerID string) (*engine.Snapshot, error)
	SubmitStatement(ctx context.Context, gameID, playerID, text string) (*engine.Snapshot, error)
	SubmitGuess(ctx context.Context, gameID, playerID, statementID, guessedAuthorID string) (*engine.Snapshot, error)
	RecordDrink(ctx context.Context, gameID, playerID, statementID string) (*engine.Snapshot, error)

	// Views
	GameState(ctx context.Context, gameID string) (*engine.Snapshot, error)
	CurrentStatement(ctx context.Context, gameID string) (*StatementView, error)
	Results(ctx context.Context, gameID string) (*engine.Results, error)

	// Connection lifecycle
	MarkDisconnected(ctx context.Context, gameID, playerID string) error

	// AdvanceRound closes the drinking window for a game. It is invoked by
	// the scheduler; a missing or already-advanced game is a no-op.
	AdvanceRound(gameID string)
}

// Notifier receives game events for fan-out to connected clients. The
// WebSocket hub implements it; a no-op implementation is used until a
// transport registers itself.
type Notifier interface {
	GameState(gameID string, state *engine.Snapshot, excludePlayerIDs ...string)
	PhaseChanged(gameID string, phase engine.Phase, state *engine.Snapshot)
	StatementRevealed(gameID string, statement *RevealedStatement)
	ScoresUpdated(gameID string, scores map[string]engine.PlayerScore)
	GameEnded(gameID string, results *engine.Results)
}
