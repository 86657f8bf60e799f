package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/yassinfayed/sakoban/game/config"
	"github.com/yassinfayed/sakoban/game/service"
	"github.com/yassinfayed/sakoban/game/session"
)

// Run with -race: reads touch the session while other readers report its
// last access time.
func TestGameService_ConcurrentReads(t *testing.T) {
	levels, err := config.NewManager("")
	if err != nil {
		t.Fatalf("Failed to create level catalog: %v", err)
	}
	svc := service.NewGameService(session.NewManager(), levels, nil, nil)
	ctx := context.Background()

	info, err := svc.CreateSession(ctx, service.CreateSessionRequest{})
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, err := svc.GetSession(ctx, info.ID); err != nil {
					errs <- err
					return
				}
				if _, err := svc.ListSessions(ctx); err != nil {
					errs <- err
					return
				}
				if _, err := svc.GetGameState(ctx, info.ID); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent read failed: %v", err)
	}

	got, err := svc.GetSession(ctx, info.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.LastAccessedAt.Before(info.LastAccessedAt) {
		t.Errorf("Last access went backwards: %v before %v", got.LastAccessedAt, info.LastAccessedAt)
	}
}
