package sessions

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()

	sess := &Session{ID: "s1", Email: "a@b.com", UserID: 7}
	if err := s.Put(ctx, sess); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != "a@b.com" || got.UserID != 7 {
		t.Errorf("got %+v", got)
	}
	// The store hands out copies, not aliases.
	got.Email = "mutated@b.com"
	again, _ := s.Get(ctx, "s1")
	if again.Email != "a@b.com" {
		t.Error("stored session aliased to the returned one")
	}
}

func TestMemoryStoreMissing(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	if _, err := s.Get(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	ctx := context.Background()
	_ = s.Put(ctx, &Session{ID: "s1"})
	time.Sleep(5 * time.Millisecond)
	if _, err := s.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session still served, err = %v", err)
	}
}

func TestMemoryStoreDestroy(t *testing.T) {
	s := NewMemoryStore(time.Hour)
	ctx := context.Background()
	_ = s.Put(ctx, &Session{ID: "s1"})
	if err := s.Destroy(ctx, "s1"); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if _, err := s.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatal("destroyed session still served")
	}
	// Destroying an unknown id is not an error.
	if err := s.Destroy(ctx, "nope"); err != nil {
		t.Errorf("Destroy(unknown) = %v", err)
	}
}
