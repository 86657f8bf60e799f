// Package session provides session management for the Sokoban game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Short random session IDs
//   - Optional JSON file persistence with invariant checks on load
//   - Expiry of idle sessions
//
// Core Types:
//
// Manager owns the in-memory sessions. Each service.Session wraps one
// engine.GameEngine together with the owner id and display name used when the
// session's completions are recorded. FilePersistence stores one JSON document
// per session, including the level definition, so a session can be restored
// even if the level catalog changed in between.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	if err := manager.LoadPersistedSessions(); err != nil {
//		log.Warn("could not restore sessions", "error", err)
//	}
//
//	sess, err := manager.Create("", level, "anon_42", "Anonymous 42")
//
// Cleanup:
//
// CleanupExpiredSessions only evicts sessions from memory. Their files stay
// on disk and Get reloads them on the next access.
package session
