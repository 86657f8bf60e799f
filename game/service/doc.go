// Package service provides the business logic layer for the Sokoban game.
//
// The service package implements:
//   - Multi-session game management with per-session owners
//   - Move processing with reason codes for rejected moves
//   - Level selection and progression through the catalog
//   - Recording completions in the progress store
//   - Move history tracking
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// LevelManager serves the level catalog.
// ProgressStore keeps the best result per owner and level.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Each session owns its own engine instance. When a move
// completes a level the service submits the result to the progress store once
// per attempt; a store failure is logged and never fails the move.
//
// Usage:
//
//	levels, _ := config.NewManager("levels")
//	store, _ := progress.Open("sakoban.db")
//	gameService := service.NewGameService(session.NewManager(), levels, store, identity.NewProvider())
//
//	info, err := gameService.CreateSession(ctx, service.CreateSessionRequest{LevelID: 1})
//	result, err := gameService.Move(ctx, info.ID, "right", false)
package service
