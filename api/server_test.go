package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/partykit/neverhaveiever/game/engine"
	"github.com/partykit/neverhaveiever/game/scheduler"
	"github.com/partykit/neverhaveiever/game/service"
	"github.com/partykit/neverhaveiever/game/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	sched := scheduler.New()
	t.Cleanup(sched.Stop)
	svc := service.NewGameService(session.NewManager(), sched)
	return NewServer(svc, nil)
}

// doJSON performs a request with a JSON body and decodes the JSON response
// into out (when out is non-nil). It returns the status code.
func doJSON(t *testing.T, srv *Server, method, path string, body, out interface{}) int {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&reqBody).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if out != nil && rec.Code < 400 {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode response (%s %s): %v", method, path, err)
		}
	}
	return rec.Code
}

// errorBody extracts the error envelope from a failed request.
func errorBody(t *testing.T, srv *Server, method, path string, body interface{}) (int, string) {
	t.Helper()

	var reqBody bytes.Buffer
	if body != nil {
		json.NewEncoder(&reqBody).Encode(body)
	}
	req := httptest.NewRequest(method, path, &reqBody)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var envelope map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return rec.Code, envelope["error"]
}

func createRoom(t *testing.T, srv *Server, name string) service.RoomInfo {
	t.Helper()
	var room service.RoomInfo
	code := doJSON(t, srv, "POST", "/api/rooms", map[string]string{"playerName": name}, &room)
	if code != http.StatusCreated {
		t.Fatalf("create room status = %d, want 201", code)
	}
	return room
}

func joinRoom(t *testing.T, srv *Server, roomCode, name string) service.RoomInfo {
	t.Helper()
	var room service.RoomInfo
	code := doJSON(t, srv, "POST", "/api/rooms/join",
		map[string]string{"roomCode": roomCode, "playerName": name}, &room)
	if code != http.StatusOK {
		t.Fatalf("join room status = %d, want 200", code)
	}
	return room
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]string
	code := doJSON(t, srv, "GET", "/health", nil, &body)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("status body = %q, want healthy", body["status"])
	}
}

func TestCreateRoom(t *testing.T) {
	srv := newTestServer(t)

	room := createRoom(t, srv, "Ava")
	if room.GameID == "" || room.PlayerID == "" || len(room.RoomCode) != 6 {
		t.Errorf("incomplete room info: %+v", room)
	}
	if !room.Player.IsHost {
		t.Error("creator should be host")
	}

	t.Run("empty name is 400", func(t *testing.T) {
		code, msg := errorBody(t, srv, "POST", "/api/rooms", map[string]string{"playerName": ""})
		if code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", code)
		}
		if msg == "" {
			t.Error("error envelope missing message")
		}
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/rooms", bytes.NewBufferString("{nope"))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestJoinRoom(t *testing.T) {
	srv := newTestServer(t)
	room := createRoom(t, srv, "Ava")

	joined := joinRoom(t, srv, room.RoomCode, "Ben")
	if joined.GameID != room.GameID {
		t.Errorf("joined game %s, want %s", joined.GameID, room.GameID)
	}

	t.Run("unknown room code is 404", func(t *testing.T) {
		code, _ := errorBody(t, srv, "POST", "/api/rooms/join",
			map[string]string{"roomCode": "ZZZZZZ", "playerName": "Cleo"})
		if code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", code)
		}
	})

	t.Run("duplicate name is 409", func(t *testing.T) {
		code, _ := errorBody(t, srv, "POST", "/api/rooms/join",
			map[string]string{"roomCode": room.RoomCode, "playerName": "ava"})
		if code != http.StatusConflict {
			t.Errorf("status = %d, want 409", code)
		}
	})

	t.Run("missing identifiers is 400", func(t *testing.T) {
		code, _ := errorBody(t, srv, "POST", "/api/rooms/join",
			map[string]string{"playerName": "Cleo"})
		if code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", code)
		}
	})

	t.Run("full room is 409", func(t *testing.T) {
		joinRoom(t, srv, room.RoomCode, "Cleo")
		joinRoom(t, srv, room.RoomCode, "Dan")
		code, _ := errorBody(t, srv, "POST", "/api/rooms/join",
			map[string]string{"roomCode": room.RoomCode, "playerName": "Eve"})
		if code != http.StatusConflict {
			t.Errorf("status = %d, want 409", code)
		}
	})
}

func TestListLobbies(t *testing.T) {
	srv := newTestServer(t)
	createRoom(t, srv, "Ava")

	var body struct {
		Count   int                `json:"count"`
		Lobbies []engine.LobbyInfo `json:"lobbies"`
	}
	code := doJSON(t, srv, "GET", "/api/lobbies", nil, &body)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if body.Count != 1 || len(body.Lobbies) != 1 {
		t.Errorf("count = %d with %d lobbies, want 1/1", body.Count, len(body.Lobbies))
	}
}

func TestStartGame(t *testing.T) {
	srv := newTestServer(t)
	room := createRoom(t, srv, "Ava")
	other := joinRoom(t, srv, room.RoomCode, "Ben")

	t.Run("non-host is 403", func(t *testing.T) {
		code, _ := errorBody(t, srv, "POST", "/api/games/"+room.GameID+"/start",
			map[string]string{"playerId": other.PlayerID})
		if code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", code)
		}
	})

	t.Run("unknown game is 404", func(t *testing.T) {
		code, _ := errorBody(t, srv, "POST", "/api/games/missing/start",
			map[string]string{"playerId": room.PlayerID})
		if code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", code)
		}
	})

	var state engine.Snapshot
	code := doJSON(t, srv, "POST", "/api/games/"+room.GameID+"/start",
		map[string]string{"playerId": room.PlayerID}, &state)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if state.Phase != engine.PhaseSubmittingStatements {
		t.Errorf("phase = %s, want %s", state.Phase, engine.PhaseSubmittingStatements)
	}

	t.Run("double start is 409", func(t *testing.T) {
		code, _ := errorBody(t, srv, "POST", "/api/games/"+room.GameID+"/start",
			map[string]string{"playerId": room.PlayerID})
		if code != http.StatusConflict {
			t.Errorf("status = %d, want 409", code)
		}
	})
}

func TestFullGameOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	host := createRoom(t, srv, "Ava")
	guest := joinRoom(t, srv, host.RoomCode, "Ben")
	players := []service.RoomInfo{host, guest}
	gamePath := "/api/games/" + host.GameID

	t.Run("results before finish is 409", func(t *testing.T) {
		code, _ := errorBody(t, srv, "GET", gamePath+"/results", nil)
		if code != http.StatusConflict {
			t.Errorf("status = %d, want 409", code)
		}
	})

	// Start and submit statements.
	doJSON(t, srv, "POST", gamePath+"/start", map[string]string{"playerId": host.PlayerID}, nil)
	for i, p := range players {
		var state engine.Snapshot
		code := doJSON(t, srv, "POST", gamePath+"/statements",
			map[string]string{"playerId": p.PlayerID, "statement": fmt.Sprintf("done thing %d", i)}, &state)
		if code != http.StatusOK {
			t.Fatalf("submit statement status = %d, want 200", code)
		}
	}

	var state engine.Snapshot
	doJSON(t, srv, "GET", gamePath, nil, &state)
	if state.Phase != engine.PhaseGuessing {
		t.Fatalf("phase = %s after all statements, want %s", state.Phase, engine.PhaseGuessing)
	}

	// Play both rounds. With two players the sole voter must guess the
	// other player, which is always the author.
	for round := 0; round < 2; round++ {
		var current service.StatementView
		code := doJSON(t, srv, "GET", gamePath+"/current-statement", nil, &current)
		if code != http.StatusOK {
			t.Fatalf("current statement status = %d, want 200", code)
		}

		advanced := false
		for _, voter := range players {
			for _, guessed := range players {
				if guessed.PlayerID == voter.PlayerID {
					continue
				}
				code := doJSON(t, srv, "POST", gamePath+"/guess", map[string]string{
					"playerId":        voter.PlayerID,
					"statementId":     current.ID,
					"guessedAuthorId": guessed.PlayerID,
				}, &state)
				if code == http.StatusOK && state.Phase == engine.PhaseDrinking {
					advanced = true
				}
			}
		}
		if !advanced {
			t.Fatal("round never reached the drinking phase")
		}

		// One player owns up.
		code = doJSON(t, srv, "POST", gamePath+"/drink", map[string]string{
			"playerId":    host.PlayerID,
			"statementId": current.ID,
		}, &state)
		if code != http.StatusOK {
			t.Fatalf("drink status = %d, want 200", code)
		}

		// Close the round directly rather than waiting out the timer.
		svcGame(t, srv, host.GameID)
	}

	doJSON(t, srv, "GET", gamePath, nil, &state)
	if state.Phase != engine.PhaseFinished {
		t.Fatalf("phase = %s, want %s", state.Phase, engine.PhaseFinished)
	}

	var results engine.Results
	code := doJSON(t, srv, "GET", gamePath+"/results", nil, &results)
	if code != http.StatusOK {
		t.Fatalf("results status = %d, want 200", code)
	}
	if len(results.FinalScores) != 2 || len(results.StatementResults) != 2 {
		t.Errorf("results have %d scores and %d statements, want 2/2",
			len(results.FinalScores), len(results.StatementResults))
	}
}

// svcGame advances the named game's round through the service, standing in
// for the drink-window timer.
func svcGame(t *testing.T, srv *Server, gameID string) {
	t.Helper()
	srv.service.AdvanceRound(gameID)
}

func TestCORSHeaders(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("OPTIONS", "/api/rooms", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
}
