package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/partykit/neverhaveiever/game/engine"
	"github.com/partykit/neverhaveiever/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins in development
		return true
	},
}

// Client represents a WebSocket connection. It is unbound until its first
// successful create-room or join-room action, after which it belongs to
// exactly one (game, player) pair.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	gameID   string
	playerID string
}

// broadcastMessage carries an encoded event to every connection bound to
// a game, minus the excluded player IDs.
type broadcastMessage struct {
	gameID  string
	data    []byte
	exclude []string
}

// Hub maintains the set of active clients grouped by game and fans game
// events out to them. It implements service.Notifier.
type Hub struct {
	// Bound clients by game ID
	games map[string]map[*Client]bool

	// Inbound requests from client goroutines
	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastMessage

	service service.GameService
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		games:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastMessage, 64),
	}
}

// SetService wires the game service the hub dispatches client actions to.
// Call before ServeWS.
func (h *Hub) SetService(svc service.GameService) {
	h.service = svc
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToGame(message)
		}
	}
}

// ServeWS handles WebSocket upgrade requests from clients.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	go client.writePump()
	go client.readPump()
}

// registerClient binds a client to its game's broadcast set.
func (h *Hub) registerClient(client *Client) {
	if h.games[client.gameID] == nil {
		h.games[client.gameID] = make(map[*Client]bool)
	}
	h.games[client.gameID][client] = true

	log.Printf("Player %s bound to game %s (connections: %d)",
		client.playerID, client.gameID, len(h.games[client.gameID]))
}

// unregisterClient drops a client and, if it was bound to a player, marks
// that player disconnected. The player keeps their roster slot.
func (h *Hub) unregisterClient(client *Client) {
	if client.gameID == "" {
		// Never bound, so never registered. Closing send lets writePump
		// exit without waiting for the next ping to fail.
		close(client.send)
		return
	}

	if clients, ok := h.games[client.gameID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.games, client.gameID)
			}

			log.Printf("Player %s disconnected from game %s (remaining connections: %d)",
				client.playerID, client.gameID, len(clients))

			// MarkDisconnected re-enters the hub through the notifier, so
			// it must not run on the event loop itself.
			gameID, playerID := client.gameID, client.playerID
			go func() {
				if err := h.service.MarkDisconnected(context.Background(), gameID, playerID); err != nil {
					log.Printf("Disconnect handling for game %s: %v", gameID, err)
				}
			}()
		}
	}
}

// broadcastToGame delivers an encoded event to every connection bound to
// the game, skipping excluded player IDs.
func (h *Hub) broadcastToGame(message *broadcastMessage) {
	clients, ok := h.games[message.gameID]
	if !ok {
		return
	}

	for client := range clients {
		if excluded(message.exclude, client.playerID) {
			continue
		}
		select {
		case client.send <- message.data:
		default:
			// Client's send channel is full, close it
			h.unregisterClient(client)
		}
	}
}

func excluded(exclude []string, playerID string) bool {
	for _, id := range exclude {
		if id == playerID {
			return true
		}
	}
	return false
}

// enqueue encodes a server message and hands it to the event loop.
func (h *Hub) enqueue(gameID string, msg *ServerMessage, exclude ...string) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal broadcast message: %v", err)
		return
	}

	select {
	case h.broadcast <- &broadcastMessage{gameID: gameID, data: data, exclude: exclude}:
	default:
		log.Printf("Broadcast queue full, dropping %s for game %s", msg.Type, gameID)
	}
}

// GameState implements service.Notifier.
func (h *Hub) GameState(gameID string, state *engine.Snapshot, excludePlayerIDs ...string) {
	h.enqueue(gameID, &ServerMessage{Type: MsgGameState, GameState: state}, excludePlayerIDs...)
}

// PhaseChanged implements service.Notifier.
func (h *Hub) PhaseChanged(gameID string, phase engine.Phase, state *engine.Snapshot) {
	h.enqueue(gameID, &ServerMessage{Type: MsgPhaseChanged, Phase: phase, GameState: state})
}

// StatementRevealed implements service.Notifier.
func (h *Hub) StatementRevealed(gameID string, statement *service.RevealedStatement) {
	h.enqueue(gameID, &ServerMessage{Type: MsgStatementRevealed, Statement: statement})
}

// ScoresUpdated implements service.Notifier.
func (h *Hub) ScoresUpdated(gameID string, scores map[string]engine.PlayerScore) {
	h.enqueue(gameID, &ServerMessage{Type: MsgScoresUpdated, Scores: scores})
}

// GameEnded implements service.Notifier.
func (h *Hub) GameEnded(gameID string, results *engine.Results) {
	h.enqueue(gameID, &ServerMessage{Type: MsgGameEnded, Results: results})
}

// handleMessage dispatches one inbound client action. Every action either
// fully applies (the service broadcasts the outcome) or is rejected with
// an error notification to this connection only.
func (c *Client) handleMessage(msg *ClientMessage) {
	ctx := context.Background()

	switch msg.Type {
	case MsgCreateRoom:
		if c.bound() {
			c.sendErrorText("Already connected to a game")
			return
		}
		room, err := c.hub.service.CreateRoom(ctx, msg.PlayerName)
		if err != nil {
			c.sendError(err)
			return
		}
		c.bind(room)
		c.sendMessage(&ServerMessage{
			Type:      MsgRoomCreated,
			RoomCode:  room.RoomCode,
			PlayerID:  room.PlayerID,
			GameState: room.GameState,
		})

	case MsgJoinRoom:
		if c.bound() {
			c.sendErrorText("Already connected to a game")
			return
		}
		room, err := c.hub.service.JoinRoomByCode(ctx, msg.RoomCode, msg.PlayerName)
		if err != nil {
			c.sendError(err)
			return
		}
		c.bind(room)
		c.sendMessage(&ServerMessage{
			Type:      MsgPlayerJoined,
			Player:    &room.Player,
			GameState: room.GameState,
		})

	case MsgStartPhase:
		if !c.bound() {
			c.sendErrorText("Not connected to a game")
			return
		}
		if msg.Phase != engine.PhaseSubmittingStatements {
			c.sendErrorText("Invalid phase transition")
			return
		}
		if _, err := c.hub.service.StartGame(ctx, c.gameID, c.playerID); err != nil {
			c.sendError(err)
		}

	case MsgSubmitStatement:
		if !c.bound() {
			c.sendErrorText("Not connected to a game")
			return
		}
		if _, err := c.hub.service.SubmitStatement(ctx, c.gameID, c.playerID, msg.Statement); err != nil {
			c.sendError(err)
		}

	case MsgSubmitGuess:
		if !c.bound() {
			c.sendErrorText("Not connected to a game")
			return
		}
		if _, err := c.hub.service.SubmitGuess(ctx, c.gameID, c.playerID, msg.StatementID, msg.GuessedAuthorID); err != nil {
			c.sendError(err)
		}

	case MsgDrinkAction:
		if !c.bound() {
			c.sendErrorText("Not connected to a game")
			return
		}
		if _, err := c.hub.service.RecordDrink(ctx, c.gameID, c.playerID, msg.StatementID); err != nil {
			c.sendError(err)
		}

	default:
		c.sendErrorText("Unknown message type")
	}
}

// bind attaches the connection to its (game, player) identity and
// registers it for broadcasts.
func (c *Client) bind(room *service.RoomInfo) {
	c.gameID = room.GameID
	c.playerID = room.PlayerID
	c.hub.register <- c
}

func (c *Client) bound() bool {
	return c.gameID != "" && c.playerID != ""
}

// sendMessage delivers a message to this connection only.
func (c *Client) sendMessage(msg *ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to marshal message: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("Send buffer full for player %s", c.playerID)
	}
}

func (c *Client) sendError(err error) {
	c.sendMessage(&ServerMessage{Type: MsgError, Message: err.Error()})
}

func (c *Client) sendErrorText(text string) {
	c.sendMessage(&ServerMessage{Type: MsgError, Message: text})
}

// readPump pumps messages from the WebSocket connection into the game
// service. Each action completes, including its broadcasts, before the
// next message from this connection is read.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendErrorText("Invalid message format")
			continue
		}
		c.handleMessage(&msg)
	}
}

// writePump pumps messages from the hub to the WebSocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
