package state

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestStoreGetOrCreate(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(10)

	st, err := store.GetOrCreate("s1", "u1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if st.SessionID != "s1" || st.UserID != "u1" {
		t.Fatalf("fresh state mismatch: %+v", st)
	}
	if st.Status != StatusActive {
		t.Fatalf("fresh state status = %q", st.Status)
	}
	if store.Len() != 1 {
		t.Fatalf("fresh state not committed, len=%d", store.Len())
	}

	again, err := store.GetOrCreate("s1", "")
	if err != nil {
		t.Fatalf("GetOrCreate existing: %v", err)
	}
	if again.UserID != "u1" {
		t.Fatalf("existing state not returned: %+v", again)
	}

	if _, err := store.GetOrCreate("", ""); err != ErrInvalidSession {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(10)
	snap, _ := store.GetOrCreate("s1", "")

	now := time.Now().UTC()
	snap.Apply(Delta{Messages: []Message{NewMessage(RoleUser, "hi", now)}})

	stored, ok := store.Get("s1")
	if !ok {
		t.Fatal("session missing")
	}
	if len(stored.Messages) != 0 {
		t.Fatalf("snapshot mutation leaked into store: %d messages", len(stored.Messages))
	}

	if err := store.Put("s1", snap); err != nil {
		t.Fatalf("Put: %v", err)
	}
	snap.Apply(Delta{Messages: []Message{NewMessage(RoleUser, "again", now)}})

	stored, _ = store.Get("s1")
	if len(stored.Messages) != 1 {
		t.Fatalf("Put must store a copy, got %d messages", len(stored.Messages))
	}
}

func TestStoreEviction(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(100)
	for i := 0; i < 101; i++ {
		if _, err := store.GetOrCreate(fmt.Sprintf("session-%03d", i), ""); err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
	}

	if got := store.Len(); got != 51 {
		t.Fatalf("expected 51 sessions after eviction, got %d", got)
	}

	// The 50 lexicographically-smallest ids are gone, the rest survive.
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("session-%03d", i)
		if _, ok := store.Get(id); ok {
			t.Fatalf("%s should have been evicted", id)
		}
	}
	for i := 50; i < 101; i++ {
		id := fmt.Sprintf("session-%03d", i)
		if _, ok := store.Get(id); !ok {
			t.Fatalf("%s should have survived", id)
		}
	}
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(10)
	store.GetOrCreate("s1", "")

	if !store.Delete("s1") {
		t.Fatal("Delete existing returned false")
	}
	if store.Delete("s1") {
		t.Fatal("Delete absent returned true")
	}
}

func TestStoreTotalMessages(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(10)
	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("s%d", i)
		st, _ := store.GetOrCreate(id, "")
		st.Apply(Delta{Messages: []Message{
			NewMessage(RoleUser, "q", now),
			NewMessage(RoleAssistant, "a", now),
		}})
		store.Put(id, st)
	}

	if got := store.TotalMessages(); got != 6 {
		t.Fatalf("TotalMessages = %d, want 6", got)
	}
}

func TestStoreLockSerializesSameSession(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(10)

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := store.Lock("s1")
			defer release()

			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxActive != 1 {
		t.Fatalf("same-session turns overlapped, max concurrent = %d", maxActive)
	}
}

func TestStoreLockAllowsDistinctSessions(t *testing.T) {
	t.Parallel()

	store := NewSessionStore(10)

	releaseA := store.Lock("a")
	done := make(chan struct{})
	go func() {
		releaseB := store.Lock("b")
		releaseB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("distinct-session lock blocked")
	}
	releaseA()
}
