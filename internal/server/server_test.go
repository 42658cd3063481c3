package server

import (
	"context"
	"testing"
	"time"

	"github.com/brightling/companiond/internal/storage/memory"
)

func TestServer_Shutdown_GracefulStop(t *testing.T) {
	srv := newTestServer(t, memory.New())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Give the listener a moment to come up on its ephemeral port.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start must return nil after a graceful shutdown, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
