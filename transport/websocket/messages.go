package websocket

import (
	"github.com/partykit/neverhaveiever/game/engine"
	"github.com/partykit/neverhaveiever/game/service"
)

// Client -> server message types. The set is closed; handleMessage
// dispatches over it exhaustively.
const (
	MsgCreateRoom      = "create-room"
	MsgJoinRoom        = "join-room"
	MsgStartPhase      = "start-phase"
	MsgSubmitStatement = "submit-statement"
	MsgSubmitGuess     = "submit-guess"
	MsgDrinkAction     = "drink-action"
)

// Server -> client message types.
const (
	MsgRoomCreated       = "room-created"
	MsgPlayerJoined      = "player-joined"
	MsgPhaseChanged      = "phase-changed"
	MsgStatementRevealed = "statement-revealed"
	MsgScoresUpdated     = "scores-updated"
	MsgGameEnded         = "game-ended"
	MsgGameState         = "game-state"
	MsgError             = "error"
)

// ClientMessage is an inbound client action. Type selects the variant;
// the payload fields used depend on it.
type ClientMessage struct {
	Type            string       `json:"type"`
	PlayerName      string       `json:"playerName,omitempty"`
	RoomCode        string       `json:"roomCode,omitempty"`
	Statement       string       `json:"statement,omitempty"`
	StatementID     string       `json:"statementId,omitempty"`
	GuessedAuthorID string       `json:"guessedAuthorId,omitempty"`
	Phase           engine.Phase `json:"phase,omitempty"`
}

// ServerMessage is an outbound event. Type selects the variant; unused
// fields are omitted from the wire.
type ServerMessage struct {
	Type      string                        `json:"type"`
	Message   string                        `json:"message,omitempty"`
	RoomCode  string                        `json:"roomCode,omitempty"`
	PlayerID  string                        `json:"playerId,omitempty"`
	Player    *engine.Player                `json:"player,omitempty"`
	Phase     engine.Phase                  `json:"phase,omitempty"`
	GameState *engine.Snapshot              `json:"gameState,omitempty"`
	Statement *service.RevealedStatement    `json:"statement,omitempty"`
	Scores    map[string]engine.PlayerScore `json:"scores,omitempty"`
	Results   *engine.Results               `json:"results,omitempty"`
}
