package memory

import "testing"

func TestSessionStoreReusesSessions(t *testing.T) {
	store := NewSessionStore()

	session := store.GetOrCreate("quiz-1")
	if session == nil {
		t.Fatalf("expected session")
	}
	if again := store.GetOrCreate("quiz-1"); again != session {
		t.Fatalf("expected the same session on repeated lookups")
	}
	if _, ok := store.Get("quiz-1"); !ok {
		t.Fatalf("expected session present")
	}
}

func TestSessionStoreDropsIdleSessions(t *testing.T) {
	store := NewSessionStore()

	// A freshly created session has no participants and no viewers.
	_ = store.GetOrCreate("quiz-1")
	store.DropIdle("quiz-1")
	if _, ok := store.Get("quiz-1"); ok {
		t.Fatalf("expected idle session removed")
	}

	// Unknown quizzes are a no-op.
	store.DropIdle("quiz-unknown")
}
