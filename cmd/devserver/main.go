// Command devserver is a throwaway in-memory chat service used to
// exercise the client end to end without a real deployment. It serves
// the snapshot and profile endpoints plus a WebSocket push channel that
// periodically marks conversations as seen and rotates presence.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
)

type user struct {
	ID         string `json:"_id"`
	Username   string `json:"username"`
	ProfilePic string `json:"profilePic"`
	IsFrozen   bool   `json:"isFrozen"`
}

type lastMessage struct {
	Text   string `json:"text"`
	Sender string `json:"sender"`
	Seen   bool   `json:"seen"`
}

type conversation struct {
	ID           string      `json:"_id"`
	Participants []user      `json:"participants"`
	LastMessage  lastMessage `json:"lastMessage"`
}

type server struct {
	mu    sync.Mutex
	users []user
	convs []conversation

	upgrader websocket.Upgrader
}

func newServer() *server {
	users := []user{
		{ID: "u1", Username: "self", ProfilePic: "https://pics.example/self.png"},
		{ID: "u2", Username: "bob", ProfilePic: "https://pics.example/bob.png"},
		{ID: "u3", Username: "carol", ProfilePic: "https://pics.example/carol.png"},
		{ID: "u4", Username: "dave", ProfilePic: "https://pics.example/dave.png", IsFrozen: true},
		{ID: "u5", Username: "erin", ProfilePic: "https://pics.example/erin.png"},
	}
	convs := []conversation{
		{ID: "c1", Participants: []user{users[1]}, LastMessage: lastMessage{Text: "hey, lunch?", Sender: "u2"}},
		{ID: "c2", Participants: []user{users[2]}, LastMessage: lastMessage{Text: "shipped it", Sender: "u1", Seen: true}},
		{ID: "c3", Participants: []user{users[3]}, LastMessage: lastMessage{Text: "you there?", Sender: "u4"}},
	}
	return &server{users: users, convs: convs}
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET"},
		AllowedHeaders: []string{"Authorization"},
	}))

	r.Get("/api/messages/conversations", s.handleConversations)
	r.Get("/api/users/profile/{query}", s.handleProfile)
	r.Get("/ws", s.handleWS)
	return r
}

func (s *server) handleConversations(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.convs)
}

func (s *server) handleProfile(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(chi.URLParam(r, "query"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == query || strings.ToLower(u.Username) == query {
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
}

// handleWS upgrades the connection and pushes periodic events: every
// few seconds an unseen conversation flips to seen, and the online set
// rotates.
func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(4 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if err := s.pushOne(conn); err != nil {
			return
		}
	}
}

func (s *server) pushOne(conn *websocket.Conn) error {
	s.mu.Lock()
	var seenID string
	for i := range s.convs {
		if !s.convs[i].LastMessage.Seen {
			s.convs[i].LastMessage.Seen = true
			seenID = s.convs[i].ID
			break
		}
	}
	online := []string{}
	for _, u := range s.users[1:] {
		if rand.Intn(2) == 0 {
			online = append(online, u.ID)
		}
	}
	s.mu.Unlock()

	if seenID != "" {
		if err := writeEvent(conn, "messagesSeen", map[string]string{"conversationId": seenID}); err != nil {
			return err
		}
	}
	return writeEvent(conn, "onlineUsers", online)
}

func writeEvent(conn *websocket.Conn, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return conn.WriteJSON(map[string]any{"event": event, "data": json.RawMessage(raw)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func main() {
	addr := flag.String("addr", ":8090", "listen address")
	flag.Parse()

	srv := newServer()
	fmt.Printf("devserver listening on %s\n", *addr)
	log.Fatal(http.ListenAndServe(*addr, srv.routes()))
}
