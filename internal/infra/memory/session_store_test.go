package memory

import (
	"testing"

	"sail-quiz-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	store.Put(app.NewLiveSession("s1", "sailing", 3))
	session, ok := store.Get("s1")
	if !ok || session.BankID() != "sailing" {
		t.Fatalf("expected session present, got %v %v", session, ok)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}

	store.Delete("s1")
	if _, ok := store.Get("s1"); ok {
		t.Fatalf("expected session removed")
	}
}
