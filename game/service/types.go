package service

import (
	"github.com/partykit/neverhaveiever/game/engine"
)

// RoomInfo is returned to the player who created or joined a room.
type RoomInfo struct {
	GameID    string           `json:"gameId"`
	PlayerID  string           `json:"playerId"`
	RoomCode  string           `json:"roomCode"`
	Player    engine.Player    `json:"player"`
	GameState *engine.Snapshot `json:"gameState"`
}

// StatementView is the guessing-phase view of the current statement; the
// author is withheld.
type StatementView struct {
	ID        string `json:"statementId"`
	Text      string `json:"text"`
	VoteCount int    `json:"voteCount"`
}

// RevealedStatement is the statement payload broadcast when a guessing
// round opens. Votes and drinkers are included, the author is not.
type RevealedStatement struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	Votes    map[string]string `json:"votes"`
	Drinkers []string          `json:"drinkers"`
}
