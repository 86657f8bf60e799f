// Package websocket provides live updates for the Sokoban game.
//
// Clients connect with a session id (/ws?session=abc1) and receive a JSON
// message whenever that session changes:
//
//	{"session_id": "abc1", "event": "state", "game_state": {...}, "board": [...]}
//	{"session_id": "abc1", "event": "level_complete", "data": {...}}
//
// Architecture:
//
// A single Hub goroutine owns the per-session client sets. Registration,
// unregistration, broadcasts and client counts all go through its channels,
// so callers never touch the sets directly. Each connection runs a read pump
// (keep-alive only; incoming messages are ignored) and a write pump that
// batches queued messages and sends pings.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
//	hub.BroadcastState(sessionID, state)
package websocket
