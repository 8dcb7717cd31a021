package reqid

import (
	"context"
	"testing"
)

func TestNewMintsDistinctIDs(t *testing.T) {
	a, b := New(), New()
	if a == "" || b == "" {
		t.Fatal("New returned an empty id")
	}
	if a == b {
		t.Fatalf("two New() calls returned the same id: %s", a)
	}
}

func TestWithIDRoundTrips(t *testing.T) {
	id := New()
	ctx := WithID(context.Background(), id)
	got, ok := FromContext(ctx)
	if !ok || got != id {
		t.Fatalf("FromContext = %q, %v, want %q, true", got, ok, id)
	}
}

func TestFromContextWithoutIDIsAbsent(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("FromContext reported an id on a bare context")
	}
}
