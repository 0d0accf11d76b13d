package storage

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eugenenazirov/box-packer/internal/packing"
)

func item(name string) packing.ItemSpec {
	return packing.ItemSpec{Name: name, Width: 10, Height: 10, Depth: 10, Weight: 1}
}

func mustCreate(t *testing.T, store *MemoryStorage) Session {
	t.Helper()
	sess, err := store.CreateSession()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return sess
}

func TestCreateSessionAssignsUUID(t *testing.T) {
	t.Parallel()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStorage(WithClock(func() time.Time { return created }))

	sess := mustCreate(t, store)
	if _, err := uuid.Parse(sess.ID); err != nil {
		t.Fatalf("expected uuid session id, got %q", sess.ID)
	}
	if !sess.CreatedAt.Equal(created) {
		t.Fatalf("expected creation time %v, got %v", created, sess.CreatedAt)
	}
	if len(sess.Items) != 0 {
		t.Fatalf("expected empty session, got %v", sess.Items)
	}

	other := mustCreate(t, store)
	if other.ID == sess.ID {
		t.Fatalf("expected distinct session ids")
	}
}

func TestAddListRemoveClear(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	sess := mustCreate(t, store)

	for _, name := range []string{"books", "lamp", "mugs"} {
		if _, err := store.AddItem(sess.ID, item(name)); err != nil {
			t.Fatalf("AddItem(%s) failed: %v", name, err)
		}
	}

	got, err := store.RemoveItem(sess.ID, "lamp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Items) != 2 || got.Items[0].Name != "books" || got.Items[1].Name != "mugs" {
		t.Fatalf("expected [books mugs] in order, got %v", got.Items)
	}

	if _, err := store.RemoveItem(sess.ID, "lamp"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}

	cleared, err := store.ClearItems(sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cleared.Items) != 0 {
		t.Fatalf("expected no items after clear, got %v", cleared.Items)
	}

	if _, err := store.GetSession(sess.ID); err != nil {
		t.Fatalf("cleared session should still exist: %v", err)
	}
}

func TestAddItemRejectsInvalidAndDuplicates(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	sess := mustCreate(t, store)

	bad := item("broken")
	bad.Weight = 0
	if _, err := store.AddItem(sess.ID, bad); !errors.Is(err, packing.ErrInvalidItem) {
		t.Fatalf("expected ErrInvalidItem, got %v", err)
	}

	if _, err := store.AddItem(sess.ID, item("books")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := store.AddItem(sess.ID, item("books"))
	if !errors.Is(err, packing.ErrDuplicateItem) || !packing.IsValidation(err) {
		t.Fatalf("expected duplicate validation error, got %v", err)
	}
}

func TestAddItemRespectsLimit(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage(WithMaxItems(2))
	sess := mustCreate(t, store)

	for i := 0; i < 2; i++ {
		if _, err := store.AddItem(sess.ID, item(fmt.Sprintf("item-%d", i))); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := store.AddItem(sess.ID, item("overflow")); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("expected ErrSessionFull, got %v", err)
	}
}

func TestSessionLimit(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage(WithMaxSessions(1))
	sess := mustCreate(t, store)

	if _, err := store.CreateSession(); !errors.Is(err, ErrTooManySessions) {
		t.Fatalf("expected ErrTooManySessions, got %v", err)
	}
	if err := store.DeleteSession(sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mustCreate(t, store)
}

func TestUnknownSession(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	const id = "missing"

	if _, err := store.GetSession(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("GetSession: expected ErrSessionNotFound, got %v", err)
	}
	if err := store.DeleteSession(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("DeleteSession: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.AddItem(id, item("x")); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("AddItem: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.RemoveItem(id, "x"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("RemoveItem: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := store.ClearItems(id); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("ClearItems: expected ErrSessionNotFound, got %v", err)
	}
}

func TestGetSessionReturnsDefensiveCopy(t *testing.T) {
	t.Parallel()

	store := NewMemoryStorage()
	sess := mustCreate(t, store)
	if _, err := store.AddItem(sess.ID, item("books")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got.Items[0].Name = "tampered"

	again, err := store.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Items[0].Name != "books" {
		t.Fatalf("expected defensive copy, got %v", again.Items)
	}
}

func TestMemoryStorageConcurrentAccess(t *testing.T) {
	store := NewMemoryStorage(WithMaxItems(1000))
	sess := mustCreate(t, store)
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(2)

		go func(offset int) {
			defer wg.Done()
			if _, err := store.AddItem(sess.ID, item(fmt.Sprintf("item-%d", offset))); err != nil {
				t.Errorf("AddItem failed: %v", err)
			}
		}(i)

		go func() {
			defer wg.Done()
			if _, err := store.GetSession(sess.ID); err != nil {
				t.Errorf("GetSession failed: %v", err)
			}
		}()
	}

	wg.Wait()

	final, err := store.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(final.Items) != 32 {
		t.Fatalf("expected 32 items, got %d", len(final.Items))
	}
}
