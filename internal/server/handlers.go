package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"spheretree/internal/scene"
	"spheretree/internal/store"
)

type ParticipantView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Bio       string    `json:"bio"`
	ImageURL  string    `json:"imageUrl"`
	Failed    bool      `json:"failed"`
	PosX      float64   `json:"posX"`
	PosY      float64   `json:"posY"`
	PosZ      float64   `json:"posZ"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateParticipantRequest struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	ImageURL string `json:"imageUrl"`
}

type SetFailedRequest struct {
	Failed bool `json:"failed"`
}

func participantView(p *store.Participant) ParticipantView {
	return ParticipantView{
		ID:        p.ID,
		Name:      p.Name,
		Bio:       p.Bio,
		ImageURL:  p.ImageURL,
		Failed:    p.Failed,
		PosX:      p.PosX,
		PosY:      p.PosY,
		PosZ:      p.PosZ,
		CreatedAt: p.CreatedAt,
	}
}

func sphereFromParticipant(p store.Participant) *scene.Sphere {
	return &scene.Sphere{
		ID:       p.ID,
		Name:     p.Name,
		Bio:      p.Bio,
		ImageURL: p.ImageURL,
		Failed:   p.Failed,
		Position: mgl64.Vec3{p.PosX, p.PosY, p.PosZ},
		Placed:   p.Placed,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Println("failed to encode response:", err)
	}
}

func writeErr(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"ok": false, "error": msg})
}

// checkAdmin gates mutating endpoints on the X-Admin-Password header.
func (s *Server) checkAdmin(w http.ResponseWriter, r *http.Request) bool {
	want := s.cfg.Server.AdminPassword
	if want == "" {
		writeErr(w, http.StatusServiceUnavailable, "admin password not configured")
		return false
	}
	got := r.Header.Get("X-Admin-Password")
	if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
		writeErr(w, http.StatusUnauthorized, "unauthorized")
		return false
	}
	return true
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
	}
}

// participantsHandler serves the collection: GET lists, POST creates.
func (s *Server) participantsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.listParticipants(w, r)
		case http.MethodPost:
			s.createParticipant(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

// participantHandler serves /api/participants/{id} and
// /api/participants/{id}/failed.
func (s *Server) participantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/participants/")
		id, sub, _ := strings.Cut(rest, "/")
		if id == "" {
			writeErr(w, http.StatusBadRequest, "missing participant id")
			return
		}

		switch {
		case sub == "" && r.Method == http.MethodGet:
			s.getParticipant(w, r, id)
		case sub == "" && r.Method == http.MethodDelete:
			s.deleteParticipant(w, r, id)
		case sub == "failed" && r.Method == http.MethodPost:
			s.setFailed(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) listParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := s.store.List(r.Context())
	if err != nil {
		log.Println("failed to list participants:", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	views := make([]ParticipantView, len(participants))
	for i := range participants {
		views[i] = participantView(&participants[i])
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":           true,
		"participants": views,
	})
}

func (s *Server) getParticipant(w http.ResponseWriter, r *http.Request, id string) {
	p, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "participant not found")
		return
	}
	if err != nil {
		log.Println("failed to get participant:", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ok":          true,
		"participant": participantView(p),
	})
}

func (s *Server) createParticipant(w http.ResponseWriter, r *http.Request) {
	if !s.checkAdmin(w, r) {
		return
	}
	var req CreateParticipantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeErr(w, http.StatusBadRequest, "name is required")
		return
	}

	p, err := s.store.Create(r.Context(), store.Participant{
		Name:     req.Name,
		Bio:      req.Bio,
		ImageURL: req.ImageURL,
	})
	if err != nil {
		log.Println("failed to create participant:", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.loop.Do(func() {
		sphere := sphereFromParticipant(*p)
		if err := s.reg.Add(sphere); err != nil {
			log.Println("failed to add sphere:", err)
			return
		}
		s.broadcast(CreateMessage{Type: MessageTypeCreate, Sphere: sphereView(sphere)})
	})

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"ok":          true,
		"participant": participantView(p),
	})
}

func (s *Server) deleteParticipant(w http.ResponseWriter, r *http.Request, id string) {
	if !s.checkAdmin(w, r) {
		return
	}
	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "participant not found")
		return
	}
	if err != nil {
		log.Println("failed to delete participant:", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.loop.Do(func() {
		if err := s.reg.Remove(id); err != nil {
			log.Println("failed to remove sphere:", err)
			return
		}
		s.broadcast(RemoveMessage{Type: MessageTypeRemove, ID: id})
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}

func (s *Server) setFailed(w http.ResponseWriter, r *http.Request, id string) {
	if !s.checkAdmin(w, r) {
		return
	}
	var req SetFailedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.store.SetFailed(r.Context(), id, req.Failed)
	if errors.Is(err, store.ErrNotFound) {
		writeErr(w, http.StatusNotFound, "participant not found")
		return
	}
	if err != nil {
		log.Println("failed to set failed flag:", err)
		writeErr(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.loop.Do(func() {
		if err := s.reg.SetFailed(id, req.Failed); err != nil {
			log.Println("failed to flag sphere:", err)
			return
		}
		s.broadcast(FailedMessage{Type: MessageTypeFailed, ID: id, Failed: req.Failed})
	})

	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true})
}
