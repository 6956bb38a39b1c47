package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"
)

// Validation errors: the input is malformed and state was never touched.
var (
	ErrInvalidName      = errors.New("player name must not be empty")
	ErrInvalidStatement = fmt.Errorf("statement must be 1-%d characters", MaxStatementLength)
)

// Guard violations: the action is well-formed but the rules reject it in
// the current state. The game is left unmodified.
var (
	ErrGameStarted         = errors.New("game has already started")
	ErrGameFull            = errors.New("game is full")
	ErrNameTaken           = errors.New("name already taken")
	ErrNotHost             = errors.New("only the host can start the game")
	ErrNotEnoughPlayers    = errors.New("not enough players to start")
	ErrWrongPhase          = errors.New("action not allowed in current phase")
	ErrAlreadySubmitted    = errors.New("player already submitted a statement")
	ErrAlreadyVoted        = errors.New("player already voted on this statement")
	ErrSelfGuess           = errors.New("players cannot guess themselves")
	ErrAuthorCannotVote    = errors.New("the author does not vote on their own statement")
	ErrAlreadyDrank        = errors.New("player already drank for this statement")
	ErrNotCurrentStatement = errors.New("statement is not the current one")
)

// Not-found errors: the referenced entity does not exist.
var (
	ErrPlayerNotFound    = errors.New("player not found")
	ErrStatementNotFound = errors.New("statement not found")
)

// NewGame creates an empty game in the WAITING phase. Players are admitted
// through AddPlayer; the first admitted player becomes the host.
func NewGame(id, roomCode string) *Game {
	now := time.Now()
	return &Game{
		id:           id,
		roomCode:     roomCode,
		players:      make([]*Player, 0, MaxPlayers),
		phase:        PhaseWaiting,
		createdAt:    now,
		lastActivity: now,
	}
}

// ID returns the game's identifier.
func (g *Game) ID() string { return g.id }

// RoomCode returns the game's short join code.
func (g *Game) RoomCode() string { return g.roomCode }

// AddPlayer admits a new player. The first player becomes the host.
// Admission is rejected once the game has started, once the room is full,
// or when the name duplicates an existing player's (case-insensitive).
func (g *Game) AddPlayer(id, name string) (Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, ErrInvalidName
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseWaiting {
		return Player{}, ErrGameStarted
	}
	if len(g.players) >= MaxPlayers {
		return Player{}, ErrGameFull
	}
	for _, p := range g.players {
		if strings.EqualFold(p.Name, name) {
			return Player{}, ErrNameTaken
		}
	}

	player := &Player{
		ID:        id,
		Name:      name,
		IsHost:    len(g.players) == 0,
		Connected: true,
	}
	g.players = append(g.players, player)
	g.touch()

	return *player, nil
}

// Start moves the game from WAITING to SUBMITTING_STATEMENTS. Only the
// host may start, and only once the minimum player count is reached.
func (g *Game) Start(playerID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	player := g.playerByID(playerID)
	if player == nil {
		return ErrPlayerNotFound
	}
	if !player.IsHost {
		return ErrNotHost
	}
	if g.phase != PhaseWaiting {
		return ErrWrongPhase
	}
	if len(g.players) < MinPlayers {
		return ErrNotEnoughPlayers
	}

	g.phase = PhaseSubmittingStatements
	g.touch()
	return nil
}

// SubmitStatement records one player's statement. Each player submits
// exactly once; once every player has submitted, the game shuffles the
// statements and advances to GUESSING. The resulting phase is returned so
// callers can observe the auto-transition.
func (g *Game) SubmitStatement(playerID, statementID, text string) (Phase, error) {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > MaxStatementLength {
		return "", ErrInvalidStatement
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseSubmittingStatements {
		return g.phase, ErrWrongPhase
	}
	player := g.playerByID(playerID)
	if player == nil {
		return g.phase, ErrPlayerNotFound
	}
	if player.HasSubmittedStatement {
		return g.phase, ErrAlreadySubmitted
	}

	g.statements = append(g.statements, &Statement{
		ID:       statementID,
		Text:     text,
		AuthorID: playerID,
		Votes:    make(map[string]string),
		Drinkers: []string{},
	})
	player.HasSubmittedStatement = true
	g.touch()

	if len(g.statements) == len(g.players) {
		g.beginGuessing()
	}

	return g.phase, nil
}

// beginGuessing shuffles the statements exactly once and enters GUESSING.
// Statement identity is unchanged; only presentation order moves.
func (g *Game) beginGuessing() {
	rand.Shuffle(len(g.statements), func(i, j int) {
		g.statements[i], g.statements[j] = g.statements[j], g.statements[i]
	})
	g.currentIndex = 0
	g.phase = PhaseGuessing
}

// SubmitGuess records a vote on the current statement. The author does not
// vote, self-guesses are rejected, and each voter votes at most once. When
// every eligible voter (playerCount - 1) has voted, correct guessers gain a
// point and the game advances to DRINKING. Returns the resulting phase.
func (g *Game) SubmitGuess(playerID, statementID, guessedAuthorID string) (Phase, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseGuessing {
		return g.phase, ErrWrongPhase
	}
	statement, err := g.resolveCurrent(statementID)
	if err != nil {
		return g.phase, err
	}
	if g.playerByID(playerID) == nil {
		return g.phase, ErrPlayerNotFound
	}
	if g.playerByID(guessedAuthorID) == nil {
		return g.phase, ErrPlayerNotFound
	}
	if playerID == guessedAuthorID {
		return g.phase, ErrSelfGuess
	}
	if playerID == statement.AuthorID {
		return g.phase, ErrAuthorCannotVote
	}
	if _, voted := statement.Votes[playerID]; voted {
		return g.phase, ErrAlreadyVoted
	}

	statement.Votes[playerID] = guessedAuthorID
	g.touch()

	// The author doesn't vote, so the round closes at playerCount - 1.
	if len(statement.Votes) == len(g.players)-1 {
		g.applyGuessScores(statement)
		g.phase = PhaseDrinking
	}

	return g.phase, nil
}

// applyGuessScores awards a point to every voter who named the true author.
func (g *Game) applyGuessScores(statement *Statement) {
	for voterID, guessedID := range statement.Votes {
		if guessedID == statement.AuthorID {
			if voter := g.playerByID(voterID); voter != nil {
				voter.GuessScore++
			}
		}
	}
}

// RecordDrink records that a player drank for the current statement.
// A player drinks at most once per statement.
func (g *Game) RecordDrink(playerID, statementID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseDrinking {
		return ErrWrongPhase
	}
	statement, err := g.resolveCurrent(statementID)
	if err != nil {
		return err
	}
	player := g.playerByID(playerID)
	if player == nil {
		return ErrPlayerNotFound
	}
	for _, id := range statement.Drinkers {
		if id == playerID {
			return ErrAlreadyDrank
		}
	}

	statement.Drinkers = append(statement.Drinkers, playerID)
	player.DrinkCount++
	g.touch()
	return nil
}

// AdvanceRound closes the drinking window: the round pointer moves to the
// next statement (back to GUESSING) or, past the last statement, the game
// finishes. Returns the resulting phase.
func (g *Game) AdvanceRound() (Phase, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseDrinking {
		return g.phase, ErrWrongPhase
	}

	g.currentIndex++
	if g.currentIndex >= len(g.statements) {
		g.phase = PhaseFinished
	} else {
		g.phase = PhaseGuessing
	}
	g.touch()
	return g.phase, nil
}

// CurrentStatement returns a copy of the statement currently being played.
// Valid only during GUESSING and DRINKING.
func (g *Game) CurrentStatement() (Statement, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase != PhaseGuessing && g.phase != PhaseDrinking {
		return Statement{}, ErrWrongPhase
	}
	return copyStatement(g.statements[g.currentIndex]), nil
}

// SetConnected flips a player's connection-liveness flag. Disconnected
// players keep their roster slot and still count toward vote thresholds.
func (g *Game) SetConnected(playerID string, connected bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	player := g.playerByID(playerID)
	if player == nil {
		return ErrPlayerNotFound
	}
	player.Connected = connected
	return nil
}

// Snapshot returns the public state view broadcast to clients.
func (g *Game) Snapshot() *Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	players := make([]Player, len(g.players))
	for i, p := range g.players {
		players[i] = *p
	}

	return &Snapshot{
		RoomCode:              g.roomCode,
		Players:               players,
		Phase:                 g.phase,
		CurrentStatementIndex: g.currentIndex,
		TotalStatements:       len(g.statements),
		CanStart:              len(g.players) >= MinPlayers,
	}
}

// Scores returns the current drink/guess tallies keyed by player ID.
func (g *Game) Scores() map[string]PlayerScore {
	g.mu.Lock()
	defer g.mu.Unlock()

	scores := make(map[string]PlayerScore, len(g.players))
	for _, p := range g.players {
		scores[p.ID] = PlayerScore{DrinkCount: p.DrinkCount, GuessScore: p.GuessScore}
	}
	return scores
}

// Phase returns the game's current phase.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

// LobbyInfo returns the lobby-discovery view of the game.
func (g *Game) LobbyInfo() LobbyInfo {
	g.mu.Lock()
	defer g.mu.Unlock()

	hostName := ""
	if len(g.players) > 0 {
		hostName = g.players[0].Name
	}
	return LobbyInfo{
		GameID:      g.id,
		RoomCode:    g.roomCode,
		HostName:    hostName,
		PlayerCount: len(g.players),
		MaxPlayers:  MaxPlayers,
		Phase:       g.phase,
		CreatedAt:   g.createdAt,
	}
}

// IdleSince reports whether the game has seen no player activity since
// the cutoff.
func (g *Game) IdleSince(cutoff time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastActivity.Before(cutoff)
}

// touch records player activity. Callers must hold g.mu.
func (g *Game) touch() {
	g.lastActivity = time.Now()
}

// playerByID finds a player in the roster. Callers must hold g.mu.
func (g *Game) playerByID(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// resolveCurrent maps a client-supplied statement ID to the current
// statement, distinguishing unknown IDs from stale ones. Callers must
// hold g.mu.
func (g *Game) resolveCurrent(statementID string) (*Statement, error) {
	current := g.statements[g.currentIndex]
	if statementID == current.ID {
		return current, nil
	}
	for _, s := range g.statements {
		if s.ID == statementID {
			return nil, ErrNotCurrentStatement
		}
	}
	return nil, ErrStatementNotFound
}

func copyStatement(s *Statement) Statement {
	votes := make(map[string]string, len(s.Votes))
	for k, v := range s.Votes {
		votes[k] = v
	}
	drinkers := make([]string, len(s.Drinkers))
	copy(drinkers, s.Drinkers)
	return Statement{
		ID:       s.ID,
		Text:     s.Text,
		AuthorID: s.AuthorID,
		Votes:    votes,
		Drinkers: drinkers,
	}
}
