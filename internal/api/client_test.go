package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brunodmn/threadchat/internal/chat"
	"github.com/brunodmn/threadchat/internal/profilecache"
	"go.uber.org/zap"
)

func testServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(srv.URL, "tok", zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestConversations(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/messages/conversations" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q, want Bearer tok", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"_id":"c1","participants":[{"_id":"u2","username":"bob","profilePic":"p"}],"lastMessage":{"text":"hi","sender":"u2","seen":false}},
			{"_id":"c2","participants":[{"_id":"u3","username":"carol"}],"lastMessage":{"text":"yo","sender":"u1","seen":true},"mock":true}
		]`))
	})

	convs, err := c.Conversations(context.Background())
	if err != nil {
		t.Fatalf("Conversations() error = %v", err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations, want 2", len(convs))
	}
	if convs[0].ID != "c1" || convs[0].Counterpart().Username != "bob" {
		t.Errorf("first = %+v", convs[0])
	}
	if convs[0].LastMessage.Seen || !convs[1].LastMessage.Seen {
		t.Error("seen flags decoded wrong")
	}
	if !convs[1].Mock {
		t.Error("mock flag lost")
	}
}

func TestConversationsServerError(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"database down"}`))
	})

	_, err := c.Conversations(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error type = %T, want StatusError", err)
	}
	// The service's message is surfaced verbatim.
	if se.Message != "database down" {
		t.Errorf("message = %q, want %q", se.Message, "database down")
	}
}

func TestProfile(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/profile/bob" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"_id":"u2","username":"bob","profilePic":"p","isFrozen":true}`))
	})

	p, err := c.Profile(context.Background(), "bob")
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if p.ID != "u2" || !p.IsFrozen {
		t.Errorf("profile = %+v", p)
	}
}

func TestProfileNotFound(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"User not found"}`))
	})

	_, err := c.Profile(context.Background(), "ghost")
	if !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	// The server's wording matches the sentinel's; surfacing both would
	// stutter ("User not found: user not found").
	if got := err.Error(); got != chat.ErrNotFound.Error() {
		t.Errorf("error message = %q, want %q", got, chat.ErrNotFound.Error())
	}
}

func TestProfileNotFoundKeepsDistinctServerMessage(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Invalid user id"}`))
	})

	_, err := c.Profile(context.Background(), "???")
	if !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if got, want := err.Error(), "Invalid user id: user not found"; got != want {
		t.Errorf("error message = %q, want %q", got, want)
	}
}

func TestProfileErrorEnvelopeWith200(t *testing.T) {
	c := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"User not found"}`))
	})

	_, err := c.Profile(context.Background(), "ghost")
	if !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestProfileCacheHitSkipsNetwork(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"_id":"u2","username":"bob"}`))
	}))
	t.Cleanup(srv.Close)

	cache, err := profilecache.Open(filepath.Join(t.TempDir(), "profiles.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cache.Close() })

	c, err := New(srv.URL, "", zap.NewNop(), WithCache(cache, time.Minute))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := c.Profile(context.Background(), "bob"); err != nil {
		t.Fatal(err)
	}
	// Second lookup by id is served from cache.
	p, err := c.Profile(context.Background(), "u2")
	if err != nil {
		t.Fatal(err)
	}
	if p.Username != "bob" {
		t.Errorf("cached profile = %+v", p)
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
}
