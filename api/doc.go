// Package api provides HTTP REST API handlers for the Sokoban game.
//
// The api package implements:
//   - Session management endpoints
//   - Move, bulk move, restart and level switching per session
//   - Level catalog listing, lookup and authoring
//   - Leaderboard and progress endpoints
//   - WebSocket upgrade handling for live board updates
//
// Endpoints:
//
// Sessions:
//   - POST /api/sessions - Create new session
//   - GET /api/sessions - List sessions (sort=created|accessed, order, limit)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current puzzle state
//   - POST /api/sessions/{id}/move - {"direction": "up", "reset": false}
//   - POST /api/sessions/{id}/bulk-move - {"moves": ["up", "left"]}
//   - POST /api/sessions/{id}/reset - Restart the level
//   - POST /api/sessions/{id}/level - {"level_id": 2}
//   - POST /api/sessions/{id}/next-level - Advance in catalog order
//   - GET /api/sessions/{id}/history - Paginated move history
//
// Levels and Progress:
//   - GET /api/levels, GET /api/levels/{id}, POST /api/levels
//   - GET /api/leaderboard?level=&limit=&offset=
//   - POST /api/progress, GET /api/progress/{owner}
//
// A rejected move is not an HTTP error: it returns 200 with success false and
// an outcome code. Service errors map to 404 (unknown session or level), 400
// (invalid input), 503 (no progress store or levels directory) and 500 otherwise.
//
// Usage:
//
//	server := api.NewServer(gameService, hub)
//	server.HandleMCP(mcpHandler)
//	http.ListenAndServe(":8080", server)
package api
