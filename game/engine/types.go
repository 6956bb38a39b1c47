package engine

import (
	"sync"
	"time"
)

// Phase represents the lifecycle stage of a game
type Phase string

const (
	PhaseWaiting              Phase = "waiting"
	PhaseSubmittingStatements Phase = "submitting_statements"
	PhaseGuessing             Phase = "guessing"
	PhaseDrinking             Phase = "drinking"
	PhaseFinished             Phase = "finished"

	// Game limits
	MinPlayers         = 2
	MaxPlayers         = 4
	MaxStatementLength = 200
)

// Player represents a participant in a game
type Player struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	IsHost                bool   `json:"isHost"`
	DrinkCount            int    `json:"drinkCount"`
	GuessScore            int    `json:"guessScore"`
	Connected             bool   `json:"connected"`
	HasSubmittedStatement bool   `json:"hasSubmittedStatement"`
}

// Statement is a "never have I ever" statement submitted by one player.
// Votes maps a voter's player ID to the author they guessed; the author
// never appears as a key. Drinkers lists player IDs who drank for it.
type Statement struct {
	ID       string            `json:"id"`
	Text     string            `json:"text"`
	AuthorID string            `json:"authorId"`
	Votes    map[string]string `json:"votes"`
	Drinkers []string          `json:"drinkers"`
}

// Game is the authoritative state of one room. All reads and mutations go
// through the exported methods, which serialize access per game; callers
// never hold references into the internal collections.
type Game struct {
	mu sync.Mutex

	id           string
	roomCode     string
	players      []*Player // join order, host first
	statements   []*Statement
	currentIndex int
	phase        Phase
	createdAt    time.Time
	lastActivity time.Time
}

// Snapshot is the public view of a game broadcast to clients.
type Snapshot struct {
	RoomCode              string   `json:"roomCode"`
	Players               []Player `json:"players"`
	Phase                 Phase    `json:"phase"`
	CurrentStatementIndex int      `json:"currentStatementIndex"`
	TotalStatements       int      `json:"totalStatements"`
	CanStart              bool     `json:"canStart"`
}

// LobbyInfo describes a joinable game for lobby discovery.
type LobbyInfo struct {
	GameID      string    `json:"gameId"`
	RoomCode    string    `json:"roomCode"`
	HostName    string    `json:"hostName"`
	PlayerCount int       `json:"playerCount"`
	MaxPlayers  int       `json:"maxPlayers"`
	Phase       Phase     `json:"phase"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FinalScore is one player's line in the end-of-game ranking.
type FinalScore struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	DrinkCount int    `json:"drinkCount"`
	GuessScore int    `json:"guessScore"`
	TotalScore int    `json:"totalScore"`
}

// StatementResult reveals one statement after the game finishes.
type StatementResult struct {
	Statement       string            `json:"statement"`
	ActualAuthor    string            `json:"actualAuthor"`
	Guesses         map[string]string `json:"guesses"` // voter name -> guessed name
	CorrectGuessers []string          `json:"correctGuessers"`
	Drinkers        []string          `json:"drinkers"`
}

// Results is the terminal results view for a finished game.
type Results struct {
	FinalScores      []FinalScore      `json:"finalScores"`
	StatementResults []StatementResult `json:"statementResults"`
}

// PlayerScore is the per-player score pair pushed on scores-updated events.
type PlayerScore struct {
	DrinkCount int `json:"drinkCount"`
	GuessScore int `json:"guessScore"`
}
