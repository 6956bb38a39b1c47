package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/partykit/neverhaveiever/game/engine"
	"github.com/partykit/neverhaveiever/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Never Have I Ever",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Never Have I Ever - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OVERVIEW:
A party game for 2-4 players. Everyone writes one "Never have I ever..."
statement, the statements are shuffled, and each round the group guesses
who wrote the revealed statement. A correct guess is worth 1 point. After
the guesses, players who have done the thing take a drink, which costs
1 point each. Highest net score wins.

AVAILABLE TOOLS:
- create_room: Create a new game room and become its host
- join_room: Join an existing room by its 6-character code
- list_lobbies: List rooms still waiting for players
- game_state: Get the current state of a game
- start_game: Start the game (host only, needs at least 2 players)
- submit_statement: Submit your "Never have I ever..." statement
- current_statement: Get the statement currently being guessed
- submit_guess: Guess who wrote the current statement
- record_drink: Admit to the current statement and take a drink
- game_results: Get the final scoreboard of a finished game

Keep the playerId returned by create_room/join_room; every later action
needs it.`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Room management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_room",
		Description: "Create a new game room. The creator becomes the host.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_name": map[string]interface{}{
					"type":        "string",
					"description": "Display name for the host player",
				},
			},
			Required: []string{"player_name"},
		},
	}, c.handleCreateRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_room",
		Description: "Join an existing room by its 6-character room code",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"room_code": map[string]interface{}{
					"type":        "string",
					"description": "6-character room code (case-insensitive)",
				},
				"player_name": map[string]interface{}{
					"type":        "string",
					"description": "Display name for the joining player",
				},
			},
			Required: []string{"room_code", "player_name"},
		},
	}, c.handleJoinRoom)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_lobbies",
		Description: "List rooms that are still waiting for players",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLobbies)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current state of a game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start the game. Only the host can start, and at least 2 players must be in the room.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Player ID of the host",
				},
			},
			Required: []string{"game_id", "player_id"},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_statement",
		Description: "Submit your \"Never have I ever...\" statement. One per player, at most 200 characters.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Your player ID",
				},
				"text": map[string]interface{}{
					"type":        "string",
					"description": "The statement text",
				},
			},
			Required: []string{"game_id", "player_id", "text"},
		},
	}, c.handleSubmitStatement)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "current_statement",
		Description: "Get the statement currently up for guessing",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleCurrentStatement)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "submit_guess",
		Description: "Guess who wrote the current statement. You cannot guess yourself, and the author does not guess.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Your player ID",
				},
				"statement_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the statement being guessed (must be the current one)",
				},
				"guessed_author_id": map[string]interface{}{
					"type":        "string",
					"description": "Player ID you believe wrote the statement",
				},
			},
			Required: []string{"game_id", "player_id", "statement_id", "guessed_author_id"},
		},
	}, c.handleSubmitGuess)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "record_drink",
		Description: "Admit to the current statement and take a drink (costs 1 point)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Your player ID",
				},
				"statement_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the current statement",
				},
			},
			Required: []string{"game_id", "player_id", "statement_id"},
		},
	}, c.handleRecordDrink)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_results",
		Description: "Get the final scoreboard of a finished game",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": map[string]interface{}{
					"type":        "string",
					"description": "Game ID",
				},
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameResults)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	playerName, _ := args["player_name"].(string)

	var room service.RoomInfo
	err := c.apiCall("POST", "/api/rooms", map[string]string{"playerName": playerName}, &room)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created room %s\nGame ID: %s\nYour player ID: %s (host)\n\n%s",
		room.RoomCode, room.GameID, room.PlayerID, formatSnapshot(room.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleJoinRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	roomCode, _ := args["room_code"].(string)
	playerName, _ := args["player_name"].(string)

	body := map[string]string{
		"roomCode":   roomCode,
		"playerName": playerName,
	}

	var room service.RoomInfo
	err := c.apiCall("POST", "/api/rooms/join", body, &room)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Joined room %s\nGame ID: %s\nYour player ID: %s\n\n%s",
		room.RoomCode, room.GameID, room.PlayerID, formatSnapshot(room.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListLobbies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int                `json:"count"`
		Lobbies []engine.LobbyInfo `json:"lobbies"`
	}

	err := c.apiCall("GET", "/api/lobbies", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if response.Count == 0 {
		return mcp.NewToolResultText("No open lobbies."), nil
	}

	result := fmt.Sprintf("Open Lobbies (%d):\n\n", response.Count)
	for _, lobby := range response.Lobbies {
		result += fmt.Sprintf("- %s (%d/%d players, host: %s)\n",
			lobby.RoomCode, lobby.PlayerCount, engine.MaxPlayers, lobby.HostName)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var state engine.Snapshot
	err := c.apiCall("GET", fmt.Sprintf("/api/games/%s", gameID), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSnapshot(&state)), nil
}

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	playerID, _ := args["player_id"].(string)

	var state engine.Snapshot
	err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/start", gameID),
		map[string]string{"playerId": playerID}, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Game started. Everyone submits a statement now.\n\n" + formatSnapshot(&state)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSubmitStatement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	playerID, _ := args["player_id"].(string)
	text, _ := args["text"].(string)

	body := map[string]string{
		"playerId":  playerID,
		"statement": text,
	}

	var state engine.Snapshot
	err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/statements", gameID), body, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Statement submitted.\n\n" + formatSnapshot(&state)
	if state.Phase == engine.PhaseGuessing {
		result += "\nAll statements are in. Use current_statement to see the first one."
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleCurrentStatement(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var statement service.StatementView
	err := c.apiCall("GET", fmt.Sprintf("/api/games/%s/current-statement", gameID), nil, &statement)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Current statement (%s):\n\n  \"Never have I ever %s\"\n\nGuesses so far: %d",
		statement.ID, statement.Text, statement.VoteCount)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSubmitGuess(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	playerID, _ := args["player_id"].(string)
	statementID, _ := args["statement_id"].(string)
	guessedAuthorID, _ := args["guessed_author_id"].(string)

	body := map[string]string{
		"playerId":        playerID,
		"statementId":     statementID,
		"guessedAuthorId": guessedAuthorID,
	}

	var state engine.Snapshot
	err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/guess", gameID), body, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Guess recorded.\n\n" + formatSnapshot(&state)
	if state.Phase == engine.PhaseDrinking {
		result += "\nAll guesses are in. Anyone who has done it: record_drink before the round advances."
	}
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleRecordDrink(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)
	playerID, _ := args["player_id"].(string)
	statementID, _ := args["statement_id"].(string)

	body := map[string]string{
		"playerId":    playerID,
		"statementId": statementID,
	}

	var state engine.Snapshot
	err := c.apiCall("POST", fmt.Sprintf("/api/games/%s/drink", gameID), body, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Drink recorded. Cheers!\n\n" + formatSnapshot(&state)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameResults(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	gameID, _ := args["game_id"].(string)

	var results engine.Results
	err := c.apiCall("GET", fmt.Sprintf("/api/games/%s/results", gameID), nil, &results)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatResults(&results)), nil
}

// Formatting helpers

func formatSnapshot(state *engine.Snapshot) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder

	b.WriteString(fmt.Sprintf("Room: %s | Phase: %s\n", state.RoomCode, state.Phase))
	if state.TotalStatements > 0 {
		b.WriteString(fmt.Sprintf("Statement %d of %d\n",
			state.CurrentStatementIndex+1, state.TotalStatements))
	}
	b.WriteString("\nPlayers:\n")

	for _, p := range state.Players {
		marker := ""
		if p.IsHost {
			marker = " (host)"
		}
		status := ""
		if !p.Connected {
			status = " [disconnected]"
		}
		submitted := ""
		if state.Phase == engine.PhaseSubmittingStatements && p.HasSubmittedStatement {
			submitted = " ✓"
		}
		b.WriteString(fmt.Sprintf("- %s%s%s%s | guesses: %d, drinks: %d\n",
			p.Name, marker, status, submitted, p.GuessScore, p.DrinkCount))
	}

	if state.Phase == engine.PhaseWaiting {
		if state.CanStart {
			b.WriteString("\nReady to start (host can start_game).")
		} else {
			b.WriteString(fmt.Sprintf("\nWaiting for players (%d/%d minimum).",
				len(state.Players), engine.MinPlayers))
		}
	}

	return b.String()
}

func formatResults(results *engine.Results) string {
	var b strings.Builder

	b.WriteString("🏆 Final Results\n\n")
	for i, score := range results.FinalScores {
		b.WriteString(fmt.Sprintf("%d. %s: %d points (%d correct guesses, %d drinks)\n",
			i+1, score.PlayerName, score.TotalScore, score.GuessScore, score.DrinkCount))
	}

	if len(results.StatementResults) > 0 {
		b.WriteString("\nStatements:\n")
		for _, s := range results.StatementResults {
			b.WriteString(fmt.Sprintf("- \"Never have I ever %s\" by %s (%d guessed right, %d drank)\n",
				s.Statement, s.ActualAuthor, len(s.CorrectGuessers), len(s.Drinkers)))
		}
	}

	return b.String()
}
