package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"

	"spheretree/internal/camera"
	"spheretree/internal/gesture"
	"spheretree/internal/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client is one websocket session: its own camera and gesture machine
// over the shared registry, plus a buffered outbound queue.
type client struct {
	writer  *SafeWriter
	send    chan interface{}
	done    chan struct{}
	machine *gesture.Machine
}

func (s *Server) wsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("websocket upgrade failed:", err)
			return
		}

		cam := gesture.NewCamera(s.cfg.Camera.Zoom, s.cfg.Camera.MinZoom, s.cfg.Camera.MaxZoom)
		center := mgl64.Vec2{float64(s.cfg.Camera.Width) / 2, float64(s.cfg.Camera.Height) / 2}
		proj := camera.NewPinhole(cam, s.reg, s.cfg.Camera.Focal, center, s.cfg.Physics.Radius)

		c := &client{
			writer:  NewSafeWriter(conn),
			send:    make(chan interface{}, 16),
			done:    make(chan struct{}),
			machine: gesture.NewMachine(s.cfg.GestureConfig(), s.reg, proj, cam),
		}
		s.addClient(c)
		log.Println("client connected:", r.RemoteAddr)

		// Greet, then hand the new session the full scene without
		// waiting for the next broadcast.
		c.trySend(HelloMessage{
			Type:   MessageTypeHello,
			TPS:    s.cfg.TPS,
			Width:  s.cfg.Camera.Width,
			Height: s.cfg.Camera.Height,
		})
		s.loop.Do(func() { c.trySend(sceneMessage(s.loop.Current())) })

		go c.writePump()
		s.readLoop(c)

		s.removeClient(c)
		close(c.done)
		// Drop whatever this session was holding so the scene thaws.
		s.loop.Do(func() { s.releaseGrab(c) })
		log.Println("client disconnected:", r.RemoteAddr)
	}
}

func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.writer.WriteJSON(msg); err != nil {
				return
			}
		}
	}
}

func (s *Server) readLoop(c *client) {
	defer c.writer.Close()
	for {
		_, data, err := c.writer.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("websocket read:", err)
			}
			return
		}

		msg, err := ParseMessage(data)
		if err != nil {
			c.trySend(ErrorMessage{Type: MessageTypeError, Message: err.Error()})
			continue
		}

		switch m := msg.(type) {
		case *PointerMessage:
			s.handlePointer(c, m)
		case *PingMessage:
			c.trySend(PongMessage{Type: MessageTypePong, Seq: m.Seq})
		}
	}
}

func (s *Server) handlePointer(c *client, msg *PointerMessage) {
	ev, err := msg.Event(time.Now())
	if err != nil {
		c.trySend(ErrorMessage{Type: MessageTypeError, Message: err.Error()})
		return
	}

	// The machine mutates the registry, so it runs on the loop
	// goroutine; effects come back here for the slow work.
	s.loop.Do(func() {
		for _, effect := range c.machine.Handle(ev) {
			go s.applyEffect(c, effect)
		}
	})
}

func (s *Server) applyEffect(c *client, effect gesture.Effect) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	switch e := effect.(type) {
	case gesture.OpenDetail:
		p, err := s.store.Get(ctx, e.ID)
		if errors.Is(err, store.ErrNotFound) {
			return
		}
		if err != nil {
			log.Println("failed to load detail:", err)
			return
		}
		c.trySend(DetailMessage{Type: MessageTypeDetail, Participant: participantView(p)})

	case gesture.PersistPosition:
		err := s.store.UpdatePosition(ctx, e.ID, e.Position.X(), e.Position.Y(), e.Position.Z())
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			log.Println("failed to persist position:", err)
		}
	}
}

// releaseGrab frees the registry grab if this session holds it. Runs
// on the loop goroutine.
func (s *Server) releaseGrab(c *client) {
	if grabbed := s.reg.Grabbed(); grabbed != nil && c.machine.State() == gesture.StateDragging {
		s.reg.Release()
	}
}

func (c *client) trySend(msg interface{}) {
	select {
	case c.send <- msg:
	default:
	}
}
