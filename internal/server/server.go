// Package server exposes the scene over HTTP: a JSON API for managing
// participants and a websocket feed that streams frames and accepts
// pointer input.
package server

import (
	"context"
	"log"
	"net/http"
	"sync"

	"spheretree/internal/config"
	"spheretree/internal/scene"
	"spheretree/internal/sim"
	"spheretree/internal/store"
)

// ParticipantStore is the persistence surface the server needs. The
// Postgres store satisfies it; tests substitute an in-memory fake.
type ParticipantStore interface {
	List(ctx context.Context) ([]store.Participant, error)
	Get(ctx context.Context, id string) (*store.Participant, error)
	Create(ctx context.Context, p store.Participant) (*store.Participant, error)
	Delete(ctx context.Context, id string) error
	SetFailed(ctx context.Context, id string, failed bool) error
	UpdatePosition(ctx context.Context, id string, x, y, z float64) error
}

type Server struct {
	cfg   *config.Config
	loop  *sim.Loop
	reg   *scene.Registry
	store ParticipantStore

	clientsMu sync.Mutex
	clients   map[*client]struct{}
}

func New(cfg *config.Config, loop *sim.Loop, reg *scene.Registry, st ParticipantStore) *Server {
	s := &Server{
		cfg:     cfg,
		loop:    loop,
		reg:     reg,
		store:   st,
		clients: make(map[*client]struct{}),
	}
	loop.AddObserver(s)
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.healthHandler())
	mux.HandleFunc("/api/participants", s.participantsHandler())
	mux.HandleFunc("/api/participants/", s.participantHandler())
	mux.HandleFunc("/ws", s.wsHandler())
	return mux
}

// LoadScene fills the registry from the store. Call before the loop
// starts; spheres with a persisted position keep it, the rest fall
// into tree slots in creation order.
func (s *Server) LoadScene(ctx context.Context) error {
	participants, err := s.store.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range participants {
		if err := s.reg.Add(sphereFromParticipant(p)); err != nil {
			return err
		}
	}
	log.Printf("scene loaded: %d participants", len(participants))
	return nil
}

// OnFrame fans a frame out to every connected client. Slow clients
// drop frames rather than stall the loop.
func (s *Server) OnFrame(snap sim.Snapshot) {
	s.broadcast(sceneMessage(snap))
}

// broadcast queues a message for every connected client; a client with
// a full queue misses it and resynchronizes on the next frame.
func (s *Server) broadcast(msg interface{}) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- msg:
		default:
		}
	}
}

func (s *Server) addClient(c *client) {
	s.clientsMu.Lock()
	s.clients[c] = struct{}{}
	s.clientsMu.Unlock()
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	delete(s.clients, c)
	s.clientsMu.Unlock()
}
