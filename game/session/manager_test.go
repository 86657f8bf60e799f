package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yassinfayed/sakoban/game/engine"
)

func createTestLevel() *engine.LevelDefinition {
	def, err := engine.ParseLayout(1, []string{
		"#######",
		"#@ $ .#",
		"#######",
	})
	if err != nil {
		panic(err)
	}
	return def
}

func TestManager_Create(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	t.Run("create with custom ID", func(t *testing.T) {
		session, err := manager.Create("test-session", level, "anon_1", "Anonymous 1")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if session.ID != "test-session" {
			t.Errorf("Expected session ID 'test-session', got '%s'", session.ID)
		}
		if session.Engine == nil {
			t.Fatal("Expected engine to be initialized")
		}
		if session.Engine.GetState().UserID != "anon_1" {
			t.Errorf("Expected owner to reach the engine state, got %q", session.Engine.GetState().UserID)
		}
		if session.Level() != level {
			t.Error("Expected session to expose its level")
		}
	})

	t.Run("create with auto-generated ID", func(t *testing.T) {
		session, err := manager.Create("", level, "", "")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 4 {
			t.Errorf("Expected 4-character session ID, got %q", session.ID)
		}
	})

	t.Run("case-insensitive duplicate check", func(t *testing.T) {
		_, err := manager.Create("TEST-SESSION", level, "", "")
		if !errors.Is(err, ErrSessionAlreadyExists) {
			t.Errorf("Expected ErrSessionAlreadyExists for case variant, got %v", err)
		}
	})

	t.Run("invalid level", func(t *testing.T) {
		bad := *level
		bad.Width = 0
		if _, err := manager.Create("invalid-test", &bad, "", ""); err == nil {
			t.Error("Expected error for invalid level")
		}
	})
}

func TestManager_Get(t *testing.T) {
	manager := NewManager()
	created, _ := manager.Create("get-test", createTestLevel(), "", "")

	session, err := manager.Get("GET-TEST")
	if err != nil {
		t.Fatalf("Failed to get session with different case: %v", err)
	}
	if session != created {
		t.Error("Expected the same session regardless of case")
	}

	if _, err := manager.Get("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_Delete(t *testing.T) {
	manager := NewManager()
	manager.Create("del", createTestLevel(), "", "")

	if err := manager.Delete("DEL"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if manager.Count() != 0 {
		t.Errorf("Expected 0 sessions, got %d", manager.Count())
	}
	if err := manager.Delete("del"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	first, _ := manager.Create("aaaa", level, "", "")
	second, _ := manager.Create("bbbb", level, "", "")
	first.CreatedAt = time.Now().Add(time.Minute)

	sessions := manager.List()
	if len(sessions) != 2 {
		t.Fatalf("Expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0] != second || sessions[1] != first {
		t.Error("Expected sessions ordered by creation time")
	}
}

func TestManager_CleanupExpired(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	old, _ := manager.Create("old", level, "", "")
	manager.Create("new", level, "", "")
	old.LastAccessedAt = time.Now().Add(-2 * time.Hour)

	removed := manager.CleanupExpiredSessions(time.Hour)
	if removed != 1 {
		t.Errorf("Expected 1 removed session, got %d", removed)
	}
	if _, err := manager.Get("old"); !errors.Is(err, ErrSessionNotFound) {
		t.Error("Expected expired session to be gone")
	}
	if _, err := manager.Get("new"); err != nil {
		t.Errorf("Expected fresh session to survive: %v", err)
	}
}

func TestManager_UpdateLastAccessed(t *testing.T) {
	manager := NewManager()
	session, _ := manager.Create("touch", createTestLevel(), "", "")
	session.LastAccessedAt = time.Now().Add(-time.Hour)
	before := session.LastAccessedAt

	if err := manager.UpdateLastAccessed("touch"); err != nil {
		t.Fatalf("UpdateLastAccessed failed: %v", err)
	}
	got, err := manager.LastAccessed("TOUCH")
	if err != nil {
		t.Fatalf("LastAccessed failed: %v", err)
	}
	if !got.After(before) {
		t.Error("Expected last accessed time to move forward")
	}
	if _, err := manager.LastAccessed("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if err := manager.UpdateLastAccessed("missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	var wg sync.WaitGroup
	ids := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			session, err := manager.Create("", level, "", "")
			if err != nil {
				t.Errorf("Create failed: %v", err)
				return
			}
			ids <- session.ID
			manager.Get(session.ID)
			manager.UpdateLastAccessed(session.ID)
			manager.List()
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("Duplicate session ID %s", id)
		}
		seen[id] = true
	}
	if manager.Count() != 50 {
		t.Errorf("Expected 50 sessions, got %d", manager.Count())
	}
}

func TestManager_SessionIsolation(t *testing.T) {
	manager := NewManager()
	level := createTestLevel()

	a, _ := manager.Create("a", level, "", "")
	b, _ := manager.Create("b", level, "", "")

	a.Engine.Move("right")
	if b.Engine.GetState().Moves != 0 {
		t.Error("Moves in one session leaked into another")
	}
	if a.Engine.GetState().Moves != 1 {
		t.Errorf("Expected 1 move in session a, got %d", a.Engine.GetState().Moves)
	}
}
