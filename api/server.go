package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/partykit/neverhaveiever/game/engine"
	"github.com/partykit/neverhaveiever/game/service"
	"github.com/partykit/neverhaveiever/game/session"
	"github.com/partykit/neverhaveiever/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
}

// NewServer creates a new API server
func NewServer(gameService service.GameService, hub *websocket.Hub) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(corsMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	// Room management
	api.HandleFunc("/rooms", s.handleCreateRoom).Methods("POST", "OPTIONS")
	api.HandleFunc("/rooms/join", s.handleJoinRoom).Methods("POST", "OPTIONS")
	api.HandleFunc("/lobbies", s.handleListLobbies).Methods("GET")

	// Game operations
	api.HandleFunc("/games/{id}", s.handleGameState).Methods("GET")
	api.HandleFunc("/games/{id}/start", s.handleStart).Methods("POST", "OPTIONS")
	api.HandleFunc("/games/{id}/statements", s.handleSubmitStatement).Methods("POST", "OPTIONS")
	api.HandleFunc("/games/{id}/current-statement", s.handleCurrentStatement).Methods("GET")
	api.HandleFunc("/games/{id}/guess", s.handleSubmitGuess).Methods("POST", "OPTIONS")
	api.HandleFunc("/games/{id}/drink", s.handleDrink).Methods("POST", "OPTIONS")
	api.HandleFunc("/games/{id}/results", s.handleResults).Methods("GET")

	// WebSocket
	if s.hub != nil {
		s.router.HandleFunc("/ws", s.hub.ServeWS)
	}

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Response helpers

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps game errors onto HTTP statuses: malformed input
// is 400, host-only actions are 403, missing things are 404, and rule
// conflicts with current game state are 409.
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrInvalidName),
		errors.Is(err, engine.ErrInvalidStatement):
		return http.StatusBadRequest

	case errors.Is(err, engine.ErrNotHost):
		return http.StatusForbidden

	case errors.Is(err, session.ErrGameNotFound),
		errors.Is(err, session.ErrRoomNotFound),
		errors.Is(err, engine.ErrPlayerNotFound),
		errors.Is(err, engine.ErrStatementNotFound):
		return http.StatusNotFound

	case errors.Is(err, engine.ErrGameStarted),
		errors.Is(err, engine.ErrGameFull),
		errors.Is(err, engine.ErrNameTaken),
		errors.Is(err, engine.ErrNotEnoughPlayers),
		errors.Is(err, engine.ErrWrongPhase),
		errors.Is(err, engine.ErrAlreadySubmitted),
		errors.Is(err, engine.ErrAlreadyVoted),
		errors.Is(err, engine.ErrSelfGuess),
		errors.Is(err, engine.ErrAuthorCannotVote),
		errors.Is(err, engine.ErrAlreadyDrank),
		errors.Is(err, engine.ErrNotCurrentStatement):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Room Handlers

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	room, err := s.service.CreateRoom(r.Context(), req.PlayerName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, room)
}

func (s *Server) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RoomCode   string `json:"roomCode"`
		GameID     string `json:"gameId"`
		PlayerName string `json:"playerName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var (
		room *service.RoomInfo
		err  error
	)
	if req.RoomCode != "" {
		room, err = s.service.JoinRoomByCode(r.Context(), req.RoomCode, req.PlayerName)
	} else if req.GameID != "" {
		room, err = s.service.JoinRoomByID(r.Context(), req.GameID, req.PlayerName)
	} else {
		respondError(w, http.StatusBadRequest, "roomCode or gameId is required")
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, room)
}

func (s *Server) handleListLobbies(w http.ResponseWriter, r *http.Request) {
	lobbies, err := s.service.ListLobbies(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(lobbies),
		"lobbies": lobbies,
	})
}

// Game Operation Handlers

func (s *Server) handleGameState(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	state, err := s.service.GameState(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.StartGame(r.Context(), gameID, req.PlayerID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleSubmitStatement(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		PlayerID  string `json:"playerId"`
		Statement string `json:"statement"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.SubmitStatement(r.Context(), gameID, req.PlayerID, req.Statement)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleCurrentStatement(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	statement, err := s.service.CurrentStatement(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, statement)
}

func (s *Server) handleSubmitGuess(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		PlayerID        string `json:"playerId"`
		StatementID     string `json:"statementId"`
		GuessedAuthorID string `json:"guessedAuthorId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.SubmitGuess(r.Context(), gameID, req.PlayerID, req.StatementID, req.GuessedAuthorID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleDrink(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	var req struct {
		PlayerID    string `json:"playerId"`
		StatementID string `json:"statementId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := s.service.RecordDrink(r.Context(), gameID, req.PlayerID, req.StatementID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	gameID := mux.Vars(r)["id"]

	results, err := s.service.Results(r.Context(), gameID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
