// Package mcp provides a Model Context Protocol server for the Sokoban game.
//
// The server is a thin client: every tool call is proxied to the REST API, so
// an MCP agent and a browser can play the same session side by side.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state: Board as layout symbols with move count
//   - move, bulk_move: Moves with outcome codes for rejected moves
//   - reset_level, select_level, next_level
//   - move_history: Paginated move log
//   - list_levels, leaderboard
//   - describe_cell: What occupies one board cell
//   - game_instructions: Rules and symbol legend
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: client.HTTPHandler() mounted at POST /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	apiServer.HandleMCP(client.HTTPHandler())
package mcp
