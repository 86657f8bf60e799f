package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/yassinfayed/sakoban/game/engine"
	"github.com/yassinfayed/sakoban/game/service"
)

func corridorState() *engine.PuzzleState {
	def, _ := engine.ParseLayout(1, []string{
		"#######",
		"#@ $ .#",
		"#######",
	})
	state := engine.Initialize(*def, "")
	return &state
}

func callTool(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil || len(result.Content) == 0 {
		t.Fatal("Expected result content")
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatal("Expected text content in result")
	}
	return text.Text
}

func TestNewClient(t *testing.T) {
	baseURL := "http://localhost:8080/"
	client := NewClient(baseURL)

	if client == nil {
		t.Fatal("Expected client to be created")
	}

	if client.baseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash to be trimmed, got %s", client.baseURL)
	}

	if client.httpClient == nil {
		t.Error("Expected HTTP client to be initialized")
	}

	if client.mcpServer == nil {
		t.Error("Expected MCP server to be initialized")
	}
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"status": "healthy"})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var response map[string]interface{}
	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, &response); err != nil {
		t.Fatalf("apiCall failed: %v", err)
	}

	if response["status"] != "healthy" {
		t.Errorf("Expected status healthy, got %v", response["status"])
	}
}

func TestClient_apiCall_Error(t *testing.T) {
	client := NewClient("http://invalid-url-that-does-not-exist:9999")

	if err := client.apiCall(context.Background(), "GET", "/api/health", nil, nil); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestClient_apiCall_HTTPError(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"plain body", "Internal Server Error", "API error: 500"},
		{"json error", `{"error": "session not found"}`, "session not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api/health", nil, nil)
			if err == nil || !strings.Contains(err.Error(), tt.expected) {
				t.Errorf("Expected error containing %q, got %v", tt.expected, err)
			}
		})
	}
}

func TestClient_createSession(t *testing.T) {
	var got service.CreateSessionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/api/sessions" {
			t.Errorf("Expected POST /api/sessions, got %s %s", r.Method, r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)

		resp := service.SessionInfo{
			ID:          "test-session-123",
			LevelID:     got.LevelID,
			LevelName:   "Corridor",
			DisplayName: "Ada",
			GameState:   corridorState(),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.handleCreateSession(context.Background(), callTool("create_session", map[string]interface{}{
		"level_id":     float64(2),
		"display_name": "Ada",
	}))
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}

	text := resultText(t, result)
	for _, expected := range []string{"test-session-123", "Level: 2 (Corridor)", "#@ $ .#"} {
		if !strings.Contains(text, expected) {
			t.Errorf("Expected %q in result, got: %s", expected, text)
		}
	}
	if got.LevelID != 2 || got.DisplayName != "Ada" {
		t.Errorf("Unexpected request body %+v", got)
	}
}

func TestClient_move(t *testing.T) {
	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/abcd/move" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(service.MoveResult{
			Success:     false,
			Outcome:     engine.BlockedWall,
			Message:     "Cannot move up: wall",
			AttemptedTo: &service.AttemptInfo{X: 1, Y: 0, Cell: "wall"},
			GameState:   corridorState(),
		})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleMove(context.Background(), callTool("move", map[string]interface{}{
		"session_id": "abcd",
		"direction":  "up",
		"intent":     "check the wall",
	}))
	if err != nil {
		t.Fatalf("handleMove failed: %v", err)
	}

	text := resultText(t, result)
	for _, expected := range []string{"✗ Move rejected (blocked_wall)", "attempted (1,0) cell=wall", "Moves: 0"} {
		if !strings.Contains(text, expected) {
			t.Errorf("Expected %q in result, got: %s", expected, text)
		}
	}
	if body["direction"] != "up" || body["reset"] != false {
		t.Errorf("Unexpected request body %v", body)
	}
}

func TestClient_toolErrorsAreResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
	}))
	defer server.Close()

	result, err := NewClient(server.URL).handleGameState(context.Background(), callTool("game_state", map[string]interface{}{
		"session_id": "nope",
	}))
	if err != nil {
		t.Fatalf("Expected tool error as result, got %v", err)
	}
	if !result.IsError {
		t.Error("Expected IsError to be set")
	}
	if !strings.Contains(resultText(t, result), "session not found") {
		t.Errorf("Expected API error message in result")
	}
}

func TestClient_leaderboardQuery(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]interface{}{
			"level": 1,
			"entries": []service.ProgressRecord{
				{OwnerID: "u1", DisplayName: "Ada", LevelID: 1, Moves: 12, Rank: 1},
			},
		})
	}))
	defer server.Close()

	result, _ := NewClient(server.URL).handleLeaderboard(context.Background(), callTool("leaderboard", map[string]interface{}{
		"level_id": float64(1),
		"limit":    float64(5),
	}))

	if query != "level=1&limit=5" {
		t.Errorf("Unexpected query %q", query)
	}
	if text := resultText(t, result); !strings.Contains(text, "1. Ada - Level 1 in 12 moves") {
		t.Errorf("Unexpected leaderboard text: %s", text)
	}
}

func TestFormatGameState(t *testing.T) {
	state := corridorState()
	state.Moves = 4

	result := formatGameState(state)

	for _, field := range []string{"Level: 1", "Position: (1,1)", "Moves: 4", "Blocks on target: 0/1", "#@ $ .#"} {
		if !strings.Contains(result, field) {
			t.Errorf("Expected field '%s' in formatted output, got: %s", field, result)
		}
	}
	if strings.Contains(result, "LEVEL COMPLETE") {
		t.Error("Unfinished level should not be reported complete")
	}
}

func TestFormatGameState_Complete(t *testing.T) {
	state := corridorState()
	state.Blocks = []engine.Position{{X: 5, Y: 1}}
	state.Player = engine.Position{X: 4, Y: 1}
	state.Moves = 3
	state.IsComplete = true

	result := formatGameState(state)

	for _, field := range []string{"🎉 LEVEL COMPLETE in 3 moves!", "#   @*#", "Blocks on target: 1/1"} {
		if !strings.Contains(result, field) {
			t.Errorf("Expected %q in result, got: %s", field, result)
		}
	}
}

func TestFormatBulkMoveResult(t *testing.T) {
	result := &service.BulkMoveResult{
		MovesExecuted:  1,
		RequestedMoves: 3,
		StoppedReason:  "Cannot move up: wall",
		StopReasonCode: string(engine.BlockedWall),
		StoppedOnMove:  2,
		Steps: []service.StepInfo{
			{Idx: 1, Dir: "right", From: engine.Position{X: 1, Y: 1}, To: engine.Position{X: 2, Y: 1}, Outcome: engine.Walked},
		},
		PossibleMoves: []string{"left", "right"},
		GameState:     corridorState(),
	}

	text := formatBulkMoveResult("abcd", result)
	for _, expected := range []string{
		"Session: abcd • Level: 1",
		"Executed 1/3 moves",
		"Stopped on move 2: Cannot move up: wall [blocked_wall]",
		"1. right (1,1)→(2,1) walked",
		"Possible moves: left,right",
	} {
		if !strings.Contains(text, expected) {
			t.Errorf("Expected %q in output, got: %s", expected, text)
		}
	}
}

func TestDescribeCell(t *testing.T) {
	state := corridorState()

	tests := []struct {
		pos      engine.Position
		expected string
	}{
		{engine.Position{X: 0, Y: 0}, "Type: Wall"},
		{engine.Position{X: 1, Y: 1}, "Type: Player"},
		{engine.Position{X: 3, Y: 1}, "Type: Block"},
		{engine.Position{X: 5, Y: 1}, "Type: Target"},
		{engine.Position{X: 2, Y: 1}, "Type: Floor"},
		{engine.Position{X: 9, Y: 1}, "out of bounds"},
	}

	for _, tt := range tests {
		if got := describeCell(state, tt.pos); !strings.Contains(got, tt.expected) {
			t.Errorf("describeCell(%s): expected %q, got: %s", tt.pos, tt.expected, got)
		}
	}
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), callTool("game_instructions", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("handleGameInstructions failed: %v", err)
	}

	text := resultText(t, result)
	for _, content := range []string{
		"Sokoban - Complete Instructions",
		"GAME OBJECTIVE:",
		"BOARD LEGEND:",
		"MOVEMENT RULES:",
		"MOVE OUTCOMES:",
		"blocked_boundary",
		"already_complete",
	} {
		if !strings.Contains(text, content) {
			t.Errorf("Expected '%s' in instructions", content)
		}
	}
}

func TestClient_HTTPHandler(t *testing.T) {
	handler := NewClient("http://localhost:8080").HTTPHandler()

	body := `{"jsonrpc": "2.0", "id": 1, "method": "tools/list"}`
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/mcp", bytes.NewBufferString(body)))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var resp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	names := map[string]bool{}
	for _, tool := range resp.Result.Tools {
		names[tool.Name] = true
	}
	for _, name := range []string{"create_session", "move", "bulk_move", "reset_level", "select_level", "leaderboard", "describe_cell"} {
		if !names[name] {
			t.Errorf("Expected tool %s to be registered", name)
		}
	}
}
