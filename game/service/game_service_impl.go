package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/partykit/neverhaveiever/game/engine"
	"github.com/partykit/neverhaveiever/game/scheduler"
	"github.com/partykit/neverhaveiever/game/session"
)

// DrinkWindow is how long a game stays in DRINKING before the round
// auto-advances.
const DrinkWindow = 10 * time.Second

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	store    *session.Manager
	sched    *scheduler.Scheduler
	notifier Notifier
}

// NewGameService creates a new game service instance. Events are dropped
// until a transport registers itself via SetNotifier.
func NewGameService(store *session.Manager, sched *scheduler.Scheduler) *gameServiceImpl {
	return &gameServiceImpl{
		store:    store,
		sched:    sched,
		notifier: noopNotifier{},
	}
}

// SetNotifier registers the transport that fans game events out to
// connected clients. Call before serving traffic.
func (s *gameServiceImpl) SetNotifier(n Notifier) {
	if n == nil {
		n = noopNotifier{}
	}
	s.notifier = n
}

// CreateRoom creates a new game with the caller as host.
func (s *gameServiceImpl) CreateRoom(ctx context.Context, hostName string) (*RoomInfo, error) {
	game, host, err := s.store.Create(hostName)
	if err != nil {
		return nil, err
	}

	log.Printf("Room %s created by %q (game %s)", game.RoomCode(), host.Name, game.ID())

	return &RoomInfo{
		GameID:    game.ID(),
		PlayerID:  host.ID,
		RoomCode:  game.RoomCode(),
		Player:    host,
		GameState: game.Snapshot(),
	}, nil
}

// JoinRoomByCode admits a player into the game behind a join code.
func (s *gameServiceImpl) JoinRoomByCode(ctx context.Context, roomCode, playerName string) (*RoomInfo, error) {
	game, err := s.store.GetByRoomCode(roomCode)
	if err != nil {
		return nil, err
	}
	return s.join(game, playerName)
}

// JoinRoomByID admits a player into the game with the given ID.
func (s *gameServiceImpl) JoinRoomByID(ctx context.Context, gameID, playerName string) (*RoomInfo, error) {
	game, err := s.store.Get(gameID)
	if err != nil {
		return nil, err
	}
	return s.join(game, playerName)
}

func (s *gameServiceImpl) join(game *engine.Game, playerName string) (*RoomInfo, error) {
	player, err := game.AddPlayer(session.NewID(), playerName)
	if err != nil {
		return nil, err
	}

	state := game.Snapshot()
	// The joiner gets a dedicated acknowledgement from the transport, so
	// the roster update skips them.
	s.notifier.GameState(game.ID(), state, player.ID)

	return &RoomInfo{
		GameID:    game.ID(),
		PlayerID:  player.ID,
		RoomCode:  game.RoomCode(),
		Player:    player,
		GameState: state,
	}, nil
}

// ListLobbies returns the games still waiting for players.
func (s *gameServiceImpl) ListLobbies(ctx context.Context) ([]engine.LobbyInfo, error) {
	return s.store.ListOpen(), nil
}

// StartGame moves a game into the statement-submission phase. Only the
// host may start.
func (s *gameServiceImpl) StartGame(ctx context.Context, gameID, playerID string) (*engine.Snapshot, error) {
	game, err := s.store.Get(gameID)
	if err != nil {
		return nil, err
	}
	if err := game.Start(playerID); err != nil {
		return nil, err
	}

	state := game.Snapshot()
	s.notifier.PhaseChanged(gameID, engine.PhaseSubmittingStatements, state)
	return state, nil
}

// SubmitStatement records a player's statement. When the last statement
// lands, the game shuffles into the guessing phase and the first statement
// is revealed.
func (s *gameServiceImpl) SubmitStatement(ctx context.Context, gameID, playerID, text string) (*engine.Snapshot, error) {
	game, err := s.store.Get(gameID)
	if err != nil {
		return nil, err
	}

	phase, err := game.SubmitStatement(playerID, session.NewID(), text)
	if err != nil {
		return nil, err
	}

	state := game.Snapshot()
	s.notifier.GameState(gameID, state)

	if phase == engine.PhaseGuessing {
		s.revealCurrent(game, state)
	}
	return state, nil
}

// SubmitGuess records a vote on the current statement. When the last
// eligible vote lands, scores are applied and the drinking window opens.
func (s *gameServiceImpl) SubmitGuess(ctx context.Context, gameID, playerID, statementID, guessedAuthorID string) (*engine.Snapshot, error) {
	game, err := s.store.Get(gameID)
	if err != nil {
		return nil, err
	}

	phase, err := game.SubmitGuess(playerID, statementID, guessedAuthorID)
	if err != nil {
		return nil, err
	}

	s.notifier.ScoresUpdated(gameID, game.Scores())

	state := game.Snapshot()
	if phase == engine.PhaseDrinking {
		s.notifier.PhaseChanged(gameID, engine.PhaseDrinking, state)
		s.sched.After(gameID, DrinkWindow, func() {
			s.AdvanceRound(gameID)
		})
	}
	return state, nil
}

// RecordDrink records that a player drank for the current statement.
func (s *gameServiceImpl) RecordDrink(ctx context.Context, gameID, playerID, statementID string) (*engine.Snapshot, error) {
	game, err := s.store.Get(gameID)
	if err != nil {
		return nil, err
	}
	if err := game.RecordDrink(playerID, statementID); err != nil {
		return nil, err
	}

	s.notifier.ScoresUpdated(gameID, game.Scores())
	return game.Snapshot(), nil
}

// AdvanceRound closes the drinking window: either the next guessing round
// opens or the game finishes and results are broadcast. A game deleted by
// the idle sweep before the timer fired is a benign no-op.
func (s *gameServiceImpl) AdvanceRound(gameID string) {
	game, err := s.store.Get(gameID)
	if err != nil {
		log.Printf("Advance for game %s skipped: %v", gameID, err)
		return
	}

	phase, err := game.AdvanceRound()
	if err != nil {
		// Already advanced or never reached drinking; nothing to do.
		log.Printf("Advance for game %s skipped: %v", gameID, err)
		return
	}

	if phase == engine.PhaseFinished {
		results, err := game.Results()
		if err != nil {
			log.Printf("ERROR: results for game %s: %v", gameID, err)
			return
		}
		s.notifier.GameEnded(gameID, results)
		return
	}

	s.revealCurrent(game, game.Snapshot())
}

// revealCurrent announces a new guessing round and its statement.
func (s *gameServiceImpl) revealCurrent(game *engine.Game, state *engine.Snapshot) {
	statement, err := game.CurrentStatement()
	if err != nil {
		log.Printf("ERROR: current statement for game %s: %v", game.ID(), err)
		return
	}

	s.notifier.PhaseChanged(game.ID(), engine.PhaseGuessing, state)
	s.notifier.StatementRevealed(game.ID(), &RevealedStatement{
		ID:       statement.ID,
		Text:     statement.Text,
		Votes:    statement.Votes,
		Drinkers: statement.Drinkers,
	})
}

// GameState returns the public state of a game.
func (s *gameServiceImpl) GameState(ctx context.Context, gameID string) (*engine.Snapshot, error) {
	game, err := s.store.Get(gameID)
	if err != nil {
		return nil, err
	}
	return game.Snapshot(), nil
}

// CurrentStatement returns the statement being guessed, with the author
// withheld.
func (s *gameServiceImpl) CurrentStatement(ctx context.Context, gameID string) (*StatementView, error) {
	game, err := s.store.Get(gameID)
	if err != nil {
		return nil, err
	}
	statement, err := game.CurrentStatement()
	if err != nil {
		return nil, err
	}
	return &StatementView{
		ID:        statement.ID,
		Text:      statement.Text,
		VoteCount: len(statement.Votes),
	}, nil
}

// Results returns the terminal results view for a finished game.
func (s *gameServiceImpl) Results(ctx context.Context, gameID string) (*engine.Results, error) {
	game, err := s.store.Get(gameID)
	if err != nil {
		return nil, err
	}
	results, err := game.Results()
	if err != nil {
		return nil, fmt.Errorf("results for game %s: %w", gameID, err)
	}
	return results, nil
}

// MarkDisconnected clears a player's liveness flag and pushes the updated
// roster to the remaining connections. The player keeps their slot.
func (s *gameServiceImpl) MarkDisconnected(ctx context.Context, gameID, playerID string) error {
	game, err := s.store.Get(gameID)
	if err != nil {
		return err
	}
	if err := game.SetConnected(playerID, false); err != nil {
		return err
	}

	s.notifier.GameState(gameID, game.Snapshot())
	return nil
}

// noopNotifier drops every event; used until a transport registers.
type noopNotifier struct{}

func (noopNotifier) GameState(string, *engine.Snapshot, ...string)       {}
func (noopNotifier) PhaseChanged(string, engine.Phase, *engine.Snapshot) {}
func (noopNotifier) StatementRevealed(string, *RevealedStatement)        {}
func (noopNotifier) ScoresUpdated(string, map[string]engine.PlayerScore) {}
func (noopNotifier) GameEnded(string, *engine.Results)                   {}
