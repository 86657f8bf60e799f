package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/yassinfayed/sakoban/game/engine"
	"github.com/yassinfayed/sakoban/game/identity"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	levels   LevelManager
	progress ProgressStore
	identity IdentityProvider
	mu       sync.RWMutex
}

// NewGameService creates a new game service instance. progress may be nil, in
// which case completions are not recorded and the progress operations return
// ErrProgressUnavailable. A nil identity provider falls back to anonymous ids.
func NewGameService(sessions SessionManager, levels LevelManager, progress ProgressStore, ids IdentityProvider) GameService {
	if ids == nil {
		ids = identity.NewProvider()
	}
	return &gameServiceImpl{
		sessions: sessions,
		levels:   levels,
		progress: progress,
		identity: ids,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, req CreateSessionRequest) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	level, err := s.resolveLevel(req.LevelID)
	if err != nil {
		return nil, err
	}

	ownerID := req.OwnerID
	if ownerID == "" {
		ownerID = s.identity.NewAnonymousID()
	}
	displayName := s.identity.DisplayName(ownerID, req.DisplayName)

	session, err := s.sessions.Create("", level, ownerID, displayName)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info("session created", "id", session.ID, "level", level.Level, "owner", ownerID)
	return s.sessionInfo(session), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return s.sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		info := s.sessionInfo(sess)
		info.Board = nil
		result = append(result, info)
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// Move executes a single move for a session
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, reset bool) (*MoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	events := []GameEvent{}
	if reset {
		events = append(events, s.restart(sess))
	}

	prev := sess.Engine.GetState()
	success := sess.Engine.Move(direction)
	outcome := sess.Engine.LastOutcome()
	state := sess.Engine.GetState()

	result := &MoveResult{
		Success:   success,
		Outcome:   outcome,
		GameState: &state,
		Message:   outcomeMessage(outcome, direction),
		Board:     engine.RenderRows(state),
	}

	if success {
		step := stepInfo(1, sess.Engine.GetLastMove(), state.IsComplete)
		result.Step = &step
		result.Events = append(events, moveEvent(step))
		if !prev.IsComplete && state.IsComplete {
			result.Events = append(result.Events, s.completeLevel(ctx, sess)...)
			result.Message = fmt.Sprintf("Level %d complete in %d moves!", state.Level, state.Moves)
		}
	} else {
		result.Events = events
		if outcome != engine.AlreadyComplete {
			result.AttemptedTo = attemptInfo(state, direction)
		}
	}

	s.persist(sess.ID, "move")
	return result, nil
}

// BulkMove executes multiple moves in sequence, stopping at the first rejected
// move or once the level is complete
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string, reset bool) (*BulkMoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Events:         make([]GameEvent, 0),
		Success:        true,
	}

	if reset {
		result.Events = append(result.Events, s.restart(sess))
	}

	start := sess.Engine.GetState()
	result.StartPos = start.Player
	result.StartMoves = start.Moves

	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	attempted := sess.Engine.BulkMove(moves, func(i int, accepted bool) bool {
		move := moves[i]
		if !accepted {
			outcome := sess.Engine.LastOutcome()
			result.Success = false
			result.StoppedReason = fmt.Sprintf("move %d %s: %s", i+1, move, outcomeMessage(outcome, move))
			result.StopReasonCode = string(outcome)
			result.StoppedOnMove = i + 1
			result.AttemptedTo = attemptInfo(sess.Engine.GetState(), move)
			return false
		}

		result.MovesExecuted++
		state := sess.Engine.GetState()
		step := stepInfo(i+1, sess.Engine.GetLastMove(), state.IsComplete)
		result.Steps = append(result.Steps, step)
		result.Events = append(result.Events, moveEvent(step))

		if state.IsComplete {
			result.Events = append(result.Events, s.completeLevel(ctx, sess)...)
		}
		return true
	})

	// The engine stops early only once the level is complete
	if result.Success && attempted < len(moves) {
		result.StoppedReason = "level already complete"
		result.StopReasonCode = "complete"
		result.StoppedOnMove = attempted + 1
	}

	end := sess.Engine.GetState()
	result.GameState = &end
	result.EndPos = end.Player
	result.EndMoves = end.Moves
	result.BlocksOnTarget = engine.CountBlocksOnTarget(end)
	result.IsComplete = end.IsComplete
	result.PossibleMoves = sess.Engine.GetPossibleMoves()
	result.Board = engine.RenderRows(end)

	switch {
	case end.IsComplete:
		if result.StopReasonCode == "" {
			result.StopReasonCode = "complete"
		}
		result.Message = fmt.Sprintf("Level %d complete in %d moves!", end.Level, end.Moves)
	case result.Success:
		result.Message = fmt.Sprintf("Executed %d moves, %d/%d blocks on target", result.MovesExecuted, result.BlocksOnTarget, len(end.Targets))
	default:
		result.Message = result.StoppedReason
	}

	s.persist(sess.ID, "bulk move")
	return result, nil
}

// Reset restarts the current level of a session
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*engine.PuzzleState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	s.restart(sess)
	state := sess.Engine.GetState()

	s.persist(sess.ID, "reset")
	return &state, nil
}

// SelectLevel switches a session to another level and starts it fresh
func (s *gameServiceImpl) SelectLevel(ctx context.Context, sessionID string, levelID int) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	level, err := s.levels.LoadLevel(levelID)
	if err != nil {
		return nil, err
	}
	return s.switchLevel(sess, level)
}

// NextLevel moves a session on to the level after the one it is playing
func (s *gameServiceImpl) NextLevel(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	level, err := s.levels.NextLevel(sess.Level().Level)
	if err != nil {
		return nil, err
	}
	return s.switchLevel(sess, level)
}

// GetGameState retrieves the current puzzle state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.PuzzleState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	state := sess.Engine.GetState()
	return &state, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return paginateHistory(sess.Engine.GetMoveHistory(), opts), nil
}

// ListLevels returns the level catalog
func (s *gameServiceImpl) ListLevels(ctx context.Context) ([]*LevelInfo, error) {
	return s.levels.ListLevels()
}

// LoadLevel returns one level definition
func (s *gameServiceImpl) LoadLevel(ctx context.Context, levelID int) (*engine.LevelDefinition, error) {
	return s.levels.LoadLevel(levelID)
}

// SaveLevel validates and stores a level definition
func (s *gameServiceImpl) SaveLevel(ctx context.Context, def *engine.LevelDefinition) error {
	return s.levels.SaveLevel(def)
}

// Leaderboard returns the best completions, fewest moves first
func (s *gameServiceImpl) Leaderboard(ctx context.Context, query LeaderboardQuery) ([]*ProgressRecord, error) {
	if s.progress == nil {
		return nil, ErrProgressUnavailable
	}
	records, err := s.progress.Leaderboard(ctx, query.Normalize())
	if err != nil {
		return nil, err
	}
	s.fillLevelNames(records)
	return records, nil
}

// SubmitProgress records a result reported by a client
func (s *gameServiceImpl) SubmitProgress(ctx context.Context, record ProgressRecord) (*SubmitResult, error) {
	if s.progress == nil {
		return nil, ErrProgressUnavailable
	}
	if record.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidProgress)
	}
	if _, err := s.levels.LoadLevel(record.LevelID); err != nil {
		if errors.Is(err, ErrLevelNotFound) {
			return nil, fmt.Errorf("%w: unknown level %d", ErrInvalidProgress, record.LevelID)
		}
		return nil, err
	}

	record.IsAnonymous = s.identity.IsAnonymous(record.OwnerID)
	record.DisplayName = s.identity.DisplayName(record.OwnerID, record.DisplayName)
	record.Rank = 0

	saved, err := s.progress.Submit(ctx, record)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Saved: saved, Record: &record}, nil
}

// UserProgress returns every stored result of one owner
func (s *gameServiceImpl) UserProgress(ctx context.Context, ownerID string) ([]*ProgressRecord, error) {
	if s.progress == nil {
		return nil, ErrProgressUnavailable
	}
	records, err := s.progress.ForOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.fillLevelNames(records)
	return records, nil
}

// getSession looks up a session and marks it as accessed
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) resolveLevel(levelID int) (*engine.LevelDefinition, error) {
	if levelID == 0 {
		level := s.levels.GetDefault()
		if level == nil {
			return nil, fmt.Errorf("%w: catalog is empty", ErrLevelNotFound)
		}
		return level, nil
	}
	return s.levels.LoadLevel(levelID)
}

// restart resets the current attempt so a new completion can be recorded
func (s *gameServiceImpl) restart(sess *Session) GameEvent {
	state := sess.Engine.Reset()
	sess.CompletionRecorded = false
	return GameEvent{
		Type:      "reset",
		Message:   fmt.Sprintf("Level %d restarted", state.Level),
		Timestamp: time.Now(),
		Position:  state.Player,
	}
}

func (s *gameServiceImpl) switchLevel(sess *Session, level *engine.LevelDefinition) (*SessionInfo, error) {
	if err := sess.Engine.SetLevel(level); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, err)
	}
	sess.CompletionRecorded = false

	log.Info("level changed", "session", sess.ID, "level", level.Level)
	s.persist(sess.ID, "level change")
	return s.sessionInfo(sess), nil
}

// completeLevel records the finished attempt once and returns the events to report
func (s *gameServiceImpl) completeLevel(ctx context.Context, sess *Session) []GameEvent {
	state := sess.Engine.GetState()
	events := []GameEvent{{
		Type:      "level_complete",
		Message:   fmt.Sprintf("All %d blocks on target in %d moves", len(state.Blocks), state.Moves),
		Timestamp: time.Now(),
		Position:  state.Player,
	}}

	if sess.CompletionRecorded || s.progress == nil {
		return events
	}

	record := ProgressRecord{
		OwnerID:     sess.OwnerID,
		LevelID:     state.Level,
		Moves:       state.Moves,
		IsComplete:  true,
		IsAnonymous: s.identity.IsAnonymous(sess.OwnerID),
		DisplayName: s.identity.DisplayName(sess.OwnerID, sess.DisplayName),
	}
	saved, err := s.progress.Submit(ctx, record)
	if err != nil {
		log.Warn("failed to record completion", "session", sess.ID, "level", state.Level, "error", err)
		return events
	}
	sess.CompletionRecorded = true

	if saved {
		events = append(events, GameEvent{
			Type:      "progress_saved",
			Message:   fmt.Sprintf("New best for level %d: %d moves", state.Level, state.Moves),
			Timestamp: time.Now(),
		})
	}
	return events
}

func (s *gameServiceImpl) persist(sessionID, op string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Warn("failed to persist session", "id", sessionID, "after", op, "error", err)
	}
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	state := sess.Engine.GetState()
	level := sess.Level()
	lastAccessed, err := s.sessions.LastAccessed(sess.ID)
	if err != nil {
		lastAccessed = sess.CreatedAt
	}
	return &SessionInfo{
		ID:             sess.ID,
		LevelID:        level.Level,
		LevelName:      levelName(level),
		OwnerID:        sess.OwnerID,
		DisplayName:    sess.DisplayName,
		IsAnonymous:    s.identity.IsAnonymous(sess.OwnerID),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: lastAccessed,
		GameState:      &state,
		Board:          engine.RenderRows(state),
	}
}

func (s *gameServiceImpl) fillLevelNames(records []*ProgressRecord) {
	for _, r := range records {
		if level, err := s.levels.LoadLevel(r.LevelID); err == nil {
			r.LevelName = levelName(level)
		}
	}
}

func levelName(level *engine.LevelDefinition) string {
	if level.Name != "" {
		return level.Name
	}
	return fmt.Sprintf("Level %d", level.Level)
}

func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultHistoryLimit
	}
	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}

func stepInfo(idx int, entry *engine.MoveHistoryEntry, complete bool) StepInfo {
	return StepInfo{
		Idx:       idx,
		Dir:       entry.Action,
		From:      entry.FromPosition,
		To:        entry.ToPosition,
		Outcome:   entry.Outcome,
		BlockFrom: entry.BlockFrom,
		BlockTo:   entry.BlockTo,
		Complete:  complete,
	}
}

func moveEvent(step StepInfo) GameEvent {
	if step.Outcome == engine.Pushed {
		return GameEvent{
			Type:      "push",
			Message:   fmt.Sprintf("Pushed block %s from %s to %s", step.Dir, step.BlockFrom, step.BlockTo),
			Timestamp: time.Now(),
			Position:  step.To,
		}
	}
	return GameEvent{
		Type:      "move",
		Message:   fmt.Sprintf("Moved %s to %s", step.Dir, step.To),
		Timestamp: time.Now(),
		Position:  step.To,
	}
}

func outcomeMessage(outcome engine.Outcome, direction string) string {
	switch outcome {
	case engine.Walked:
		return fmt.Sprintf("Moved %s", direction)
	case engine.Pushed:
		return fmt.Sprintf("Pushed a block %s", direction)
	case engine.BlockedWall:
		return "Blocked by a wall"
	case engine.BlockedBoundary:
		return "Cannot leave the grid"
	case engine.BlockedBlock:
		return "The block cannot move there"
	case engine.InvalidDirection:
		return fmt.Sprintf("Invalid direction %q (use up, down, left or right)", direction)
	case engine.AlreadyComplete:
		return "Level already complete; reset or pick another level"
	default:
		return string(outcome)
	}
}

// attemptInfo describes the cell a rejected move tried to enter
func attemptInfo(state engine.PuzzleState, direction string) *AttemptInfo {
	dir := engine.ParseDirection(direction)
	if !dir.Valid() {
		return nil
	}
	target := state.Player.Add(dir.Delta())
	info := &AttemptInfo{X: target.X, Y: target.Y}

	switch {
	case !engine.InBounds(state, target):
		info.Cell = "boundary"
	case engine.IsWall(state, target):
		info.Cell = "wall"
	case engine.BlockAt(state.Blocks, target) >= 0:
		info.Cell = "block"
	case engine.IsOnTarget(target, state.Targets):
		info.Cell, info.Passable = "target", true
	default:
		info.Cell, info.Passable = "floor", true
	}
	return info
}
