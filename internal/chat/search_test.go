package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/brunodmn/threadchat/internal/bus"
)

func searchFixture(t *testing.T, resolver ProfileResolver) (*SearchResolver, *Store, *Coordinator) {
	t.Helper()
	b := bus.New()
	store := NewStore(b)
	store.ReplaceAll(sampleConvs())
	selection := NewCoordinator(b)
	return NewSearchResolver(store, selection, resolver, "u1", nil), store, selection
}

func TestResolveNotFound(t *testing.T) {
	r, store, selection := searchFixture(t, newFakeResolver())

	_, err := r.Resolve(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if store.Len() != 2 {
		t.Errorf("store size changed to %d on NotFound", store.Len())
	}
	if _, ok := selection.Current(); ok {
		t.Error("selection changed on NotFound")
	}
}

func TestResolveSelf(t *testing.T) {
	resolver := newFakeResolver(&Profile{ID: "u1", Username: "alice"})
	r, store, selection := searchFixture(t, resolver)

	_, err := r.Resolve(context.Background(), "alice")
	if !errors.Is(err, ErrSelfMessage) {
		t.Errorf("error = %v, want ErrSelfMessage", err)
	}
	if store.Len() != 2 {
		t.Errorf("store size changed to %d on self-message", store.Len())
	}
	if _, ok := selection.Current(); ok {
		t.Error("selection changed on self-message")
	}
}

func TestResolveExistingSelectsWithoutMutating(t *testing.T) {
	resolver := newFakeResolver(&Profile{ID: "u2", Username: "bob", ProfilePic: "pic"})
	r, store, selection := searchFixture(t, resolver)

	outcome, err := r.Resolve(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if outcome != SearchSelected {
		t.Errorf("outcome = %v, want SearchSelected", outcome)
	}
	if store.Len() != 2 {
		t.Errorf("store size = %d, want 2 (no duplicate)", store.Len())
	}

	sel, ok := selection.Current()
	if !ok {
		t.Fatal("no selection after found-branch")
	}
	want := Selected{ConversationID: "c1", UserID: "u2", Username: "bob", ProfilePic: "pic"}
	if sel != want {
		t.Errorf("selection = %+v, want %+v", sel, want)
	}
}

func TestResolveNewAppendsProvisionalWithoutSelecting(t *testing.T) {
	resolver := newFakeResolver(&Profile{ID: "u9", Username: "dave"})
	r, store, selection := searchFixture(t, resolver)

	outcome, err := r.Resolve(context.Background(), "dave")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if outcome != SearchCreated {
		t.Errorf("outcome = %v, want SearchCreated", outcome)
	}
	if store.Len() != 3 {
		t.Fatalf("store size = %d, want 3", store.Len())
	}

	got := store.Snapshot()[2]
	if !got.Mock {
		t.Error("new entry not marked provisional")
	}
	if !strings.HasPrefix(got.ID, "local-") {
		t.Errorf("provisional id = %q, want local- prefix", got.ID)
	}
	if got.Counterpart().ID != "u9" {
		t.Errorf("counterpart = %q, want u9", got.Counterpart().ID)
	}
	if got.LastMessage.Text != "" || got.LastMessage.Sender != "" {
		t.Errorf("provisional last message not empty: %+v", got.LastMessage)
	}

	// Create-branch deliberately does not select.
	if _, ok := selection.Current(); ok {
		t.Error("selection moved on create-branch")
	}
}

func TestResolveProvisionalIDsAreUnique(t *testing.T) {
	resolver := newFakeResolver(
		&Profile{ID: "u9", Username: "dave"},
		&Profile{ID: "u10", Username: "erin"},
	)
	r, store, _ := searchFixture(t, resolver)

	if _, err := r.Resolve(context.Background(), "dave"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Resolve(context.Background(), "erin"); err != nil {
		t.Fatal(err)
	}

	snap := store.Snapshot()
	if snap[2].ID == snap[3].ID {
		t.Errorf("provisional ids collide: %q", snap[2].ID)
	}
}

func TestResolveSecondSearchFindsProvisional(t *testing.T) {
	resolver := newFakeResolver(&Profile{ID: "u9", Username: "dave"})
	r, store, selection := searchFixture(t, resolver)

	if _, err := r.Resolve(context.Background(), "dave"); err != nil {
		t.Fatal(err)
	}
	provisional := store.Snapshot()[2]

	// Searching again finds the provisional entry and selects it.
	outcome, err := r.Resolve(context.Background(), "dave")
	if err != nil {
		t.Fatal(err)
	}
	if outcome != SearchSelected {
		t.Errorf("outcome = %v, want SearchSelected", outcome)
	}
	if store.Len() != 3 {
		t.Errorf("store size = %d, want 3 (no second provisional)", store.Len())
	}
	sel, _ := selection.Current()
	if sel.ConversationID != provisional.ID {
		t.Errorf("selection = %q, want %q", sel.ConversationID, provisional.ID)
	}
}
