package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/partykit/neverhaveiever/game/engine"
	"github.com/partykit/neverhaveiever/game/service"
)

// stubService satisfies service.GameService and records disconnects and
// room entries.
type stubService struct {
	disconnected chan string
	createCalls  int
	joinCalls    int
}

func newStubService() *stubService {
	return &stubService{disconnected: make(chan string, 8)}
}

func (s *stubService) CreateRoom(ctx context.Context, hostName string) (*service.RoomInfo, error) {
	s.createCalls++
	return nil, nil
}
func (s *stubService) JoinRoomByCode(ctx context.Context, roomCode, playerName string) (*service.RoomInfo, error) {
	s.joinCalls++
	return nil, nil
}
func (s *stubService) JoinRoomByID(ctx context.Context, gameID, playerName string) (*service.RoomInfo, error) {
	return nil, nil
}
func (s *stubService) ListLobbies(ctx context.Context) ([]engine.LobbyInfo, error) {
	return nil, nil
}
func (s *stubService) StartGame(ctx context.Context, gameID, playerID string) (*engine.Snapshot, error) {
	return nil, nil
}
func (s *stubService) SubmitStatement(ctx context.Context, gameID, playerID, text string) (*engine.Snapshot, error) {
	return nil, nil
}
func (s *stubService) SubmitGuess(ctx context.Context, gameID, playerID, statementID, guessedAuthorID string) (*engine.Snapshot, error) {
	return nil, nil
}
func (s *stubService) RecordDrink(ctx context.Context, gameID, playerID, statementID string) (*engine.Snapshot, error) {
	return nil, nil
}
func (s *stubService) GameState(ctx context.Context, gameID string) (*engine.Snapshot, error) {
	return nil, nil
}
func (s *stubService) CurrentStatement(ctx context.Context, gameID string) (*service.StatementView, error) {
	return nil, nil
}
func (s *stubService) Results(ctx context.Context, gameID string) (*engine.Results, error) {
	return nil, nil
}
func (s *stubService) MarkDisconnected(ctx context.Context, gameID, playerID string) error {
	s.disconnected <- playerID
	return nil
}
func (s *stubService) AdvanceRound(gameID string) {}

func newBoundClient(h *Hub, gameID, playerID string) *Client {
	return &Client{
		hub:      h,
		send:     make(chan []byte, 8),
		gameID:   gameID,
		playerID: playerID,
	}
}

func receive(t *testing.T, c *Client) *ServerMessage {
	t.Helper()
	select {
	case data := <-c.send:
		var msg ServerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return &msg
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
		return nil
	}
}

func expectSilence(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("unexpected message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBroadcastToGame(t *testing.T) {
	h := NewHub()
	h.SetService(newStubService())

	a := newBoundClient(h, "g1", "pa")
	b := newBoundClient(h, "g1", "pb")
	other := newBoundClient(h, "g2", "pc")
	h.registerClient(a)
	h.registerClient(b)
	h.registerClient(other)

	t.Run("delivers to every connection of the game", func(t *testing.T) {
		h.broadcastToGame(&broadcastMessage{gameID: "g1", data: []byte(`{"type":"game-state"}`)})

		if msg := receive(t, a); msg.Type != MsgGameState {
			t.Errorf("type = %s, want %s", msg.Type, MsgGameState)
		}
		receive(t, b)
		expectSilence(t, other)
	})

	t.Run("skips excluded players", func(t *testing.T) {
		h.broadcastToGame(&broadcastMessage{
			gameID:  "g1",
			data:    []byte(`{"type":"game-state"}`),
			exclude: []string{"pa"},
		})

		receive(t, b)
		expectSilence(t, a)
	})

	t.Run("unknown game is a no-op", func(t *testing.T) {
		h.broadcastToGame(&broadcastMessage{gameID: "g9", data: []byte(`{}`)})
	})
}

func TestUnregisterMarksDisconnected(t *testing.T) {
	h := NewHub()
	svc := newStubService()
	h.SetService(svc)

	c := newBoundClient(h, "g1", "pa")
	h.registerClient(c)
	h.unregisterClient(c)

	select {
	case playerID := <-svc.disconnected:
		if playerID != "pa" {
			t.Errorf("disconnected player = %s, want pa", playerID)
		}
	case <-time.After(time.Second):
		t.Fatal("MarkDisconnected never called")
	}

	if _, open := <-c.send; open {
		t.Error("send channel not closed on unregister")
	}
	if len(h.games["g1"]) != 0 {
		t.Error("client still registered after unregister")
	}

	// Unregistering twice must not panic or double-report.
	h.unregisterClient(c)
	select {
	case <-svc.disconnected:
		t.Error("duplicate disconnect reported")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBoundConnectionCannotRebind(t *testing.T) {
	h := NewHub()
	svc := newStubService()
	h.SetService(svc)

	c := newBoundClient(h, "g1", "pa")
	h.registerClient(c)

	c.handleMessage(&ClientMessage{Type: MsgJoinRoom, RoomCode: "XYZ789", PlayerName: "Ben"})
	if msg := receive(t, c); msg.Type != MsgError || msg.Message != "Already connected to a game" {
		t.Errorf("join on bound connection: got %s/%q", msg.Type, msg.Message)
	}

	c.handleMessage(&ClientMessage{Type: MsgCreateRoom, PlayerName: "Ben"})
	if msg := receive(t, c); msg.Type != MsgError {
		t.Errorf("create on bound connection: got %s", msg.Type)
	}

	if svc.createCalls != 0 || svc.joinCalls != 0 {
		t.Errorf("service reached despite rejection (create=%d join=%d)", svc.createCalls, svc.joinCalls)
	}
	if c.gameID != "g1" || c.playerID != "pa" {
		t.Errorf("identity changed to (%s, %s)", c.gameID, c.playerID)
	}
	if !h.games["g1"][c] {
		t.Error("client no longer registered under its game")
	}

	// The connection's one registration goes away cleanly, so a later
	// broadcast to the game finds no stale entry with a closed channel.
	h.unregisterClient(c)
	h.broadcastToGame(&broadcastMessage{gameID: "g1", data: []byte(`{"type":"game-state"}`)})
	if len(h.games["g1"]) != 0 {
		t.Error("stale registration left behind")
	}
}

func TestUnregisterUnboundClient(t *testing.T) {
	h := NewHub()
	svc := newStubService()
	h.SetService(svc)

	c := &Client{hub: h, send: make(chan []byte, 8)}
	h.unregisterClient(c)

	if _, open := <-c.send; open {
		t.Error("send channel not closed for a client that never joined")
	}
	select {
	case playerID := <-svc.disconnected:
		t.Errorf("disconnect reported for unbound client %q", playerID)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotifierEvents(t *testing.T) {
	h := NewHub()
	h.SetService(newStubService())
	go h.Run()

	c := newBoundClient(h, "g1", "pa")
	h.register <- c

	snapshot := &engine.Snapshot{RoomCode: "ABC123", Phase: engine.PhaseWaiting}

	t.Run("game state", func(t *testing.T) {
		h.GameState("g1", snapshot)
		msg := receive(t, c)
		if msg.Type != MsgGameState {
			t.Errorf("type = %s, want %s", msg.Type, MsgGameState)
		}
		if msg.GameState == nil || msg.GameState.RoomCode != "ABC123" {
			t.Errorf("game state payload missing: %+v", msg.GameState)
		}
	})

	t.Run("phase changed", func(t *testing.T) {
		h.PhaseChanged("g1", engine.PhaseGuessing, snapshot)
		msg := receive(t, c)
		if msg.Type != MsgPhaseChanged || msg.Phase != engine.PhaseGuessing {
			t.Errorf("got %s/%s, want %s/%s", msg.Type, msg.Phase, MsgPhaseChanged, engine.PhaseGuessing)
		}
	})

	t.Run("statement revealed", func(t *testing.T) {
		h.StatementRevealed("g1", &service.RevealedStatement{ID: "s1", Text: "gone surfing"})
		msg := receive(t, c)
		if msg.Type != MsgStatementRevealed || msg.Statement == nil || msg.Statement.Text != "gone surfing" {
			t.Errorf("unexpected reveal payload: %+v", msg)
		}
	})

	t.Run("scores updated", func(t *testing.T) {
		h.ScoresUpdated("g1", map[string]engine.PlayerScore{"pa": {GuessScore: 2}})
		msg := receive(t, c)
		if msg.Type != MsgScoresUpdated || msg.Scores["pa"].GuessScore != 2 {
			t.Errorf("unexpected scores payload: %+v", msg)
		}
	})

	t.Run("game ended", func(t *testing.T) {
		h.GameEnded("g1", &engine.Results{})
		msg := receive(t, c)
		if msg.Type != MsgGameEnded || msg.Results == nil {
			t.Errorf("unexpected end payload: %+v", msg)
		}
	})
}
