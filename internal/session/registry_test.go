package session

import (
	"sync"
	"testing"
	"time"
)

func TestRegistry_Acquire_AssignsMonotonicSequences(t *testing.T) {
	r := NewRegistry()

	for want := int64(1); want <= 3; want++ {
		lease := r.Acquire("sess-1", "user-1")
		if lease.Seq != want {
			t.Errorf("expected seq %d, got %d", want, lease.Seq)
		}
		lease.Release()
	}
}

func TestRegistry_Acquire_CreatesSessionOnFirstUse(t *testing.T) {
	r := NewRegistry()

	if _, ok := r.Snapshot("sess-1"); ok {
		t.Fatal("session should not exist before first acquire")
	}

	lease := r.Acquire("sess-1", "user-1")
	lease.Release()

	record, ok := r.Snapshot("sess-1")
	if !ok {
		t.Fatal("session should exist after first acquire")
	}
	if record.ID != "sess-1" || record.UserID != "user-1" {
		t.Errorf("unexpected record: %+v", record)
	}
	if record.NextSeq != 2 {
		t.Errorf("expected next seq 2, got %d", record.NextSeq)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 session, got %d", r.Len())
	}
}

func TestRegistry_Acquire_SerializesWithinSession(t *testing.T) {
	r := NewRegistry()

	first := r.Acquire("sess-1", "user-1")

	acquired := make(chan *Lease, 1)
	go func() {
		acquired <- r.Acquire("sess-1", "user-1")
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire must block while the first lease is held")
	case <-time.After(30 * time.Millisecond):
	}

	first.Release()

	select {
	case second := <-acquired:
		if second.Seq != first.Seq+1 {
			t.Errorf("expected seq %d, got %d", first.Seq+1, second.Seq)
		}
		second.Release()
	case <-time.After(time.Second):
		t.Fatal("second acquire should proceed after release")
	}
}

func TestRegistry_Acquire_IndependentSessionsDoNotBlock(t *testing.T) {
	r := NewRegistry()

	first := r.Acquire("sess-a", "user-1")
	defer first.Release()

	done := make(chan struct{})
	go func() {
		lease := r.Acquire("sess-b", "user-2")
		lease.Release()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("acquiring a different session must not block")
	}
}

func TestRegistry_Acquire_ConcurrentSequencesAreDistinct(t *testing.T) {
	r := NewRegistry()

	const workers = 16
	seqs := make(chan int64, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lease := r.Acquire("sess-1", "user-1")
			seqs <- lease.Seq
			lease.Release()
		}()
	}
	wg.Wait()
	close(seqs)

	seen := make(map[int64]bool)
	for seq := range seqs {
		if seen[seq] {
			t.Errorf("duplicate sequence %d", seq)
		}
		seen[seq] = true
	}
	if len(seen) != workers {
		t.Errorf("expected %d distinct sequences, got %d", workers, len(seen))
	}
}

func TestLease_Release_Idempotent(t *testing.T) {
	r := NewRegistry()

	lease := r.Acquire("sess-1", "user-1")
	lease.Release()
	lease.Release() // must not panic or unlock twice

	next := r.Acquire("sess-1", "user-1")
	next.Release()
}
