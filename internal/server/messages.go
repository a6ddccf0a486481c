package server

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"spheretree/internal/gesture"
	"spheretree/internal/scene"
	"spheretree/internal/sim"
)

const (
	MessageTypePointer = "pointer"
	MessageTypePing    = "ping"
	MessageTypePong    = "pong"
	MessageTypeHello   = "hello"
	MessageTypeScene   = "scene"
	MessageTypeCreate  = "create"
	MessageTypeRemove  = "remove"
	MessageTypeFailed  = "failed"
	MessageTypeDetail  = "detail"
	MessageTypeError   = "error"
)

// PointerMessage is one pointer sample from the client: press, move,
// release or a synthesized click. X2/Y2 carry the second finger while
// pinching.
type PointerMessage struct {
	Type    string   `json:"type"`
	Phase   string   `json:"phase"`
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	X2      *float64 `json:"x2,omitempty"`
	Y2      *float64 `json:"y2,omitempty"`
	Touches int      `json:"touches"`
}

type PingMessage struct {
	Type string `json:"type"`
	Seq  int    `json:"seq"`
}

type PongMessage struct {
	Type string `json:"type"`
	Seq  int    `json:"seq"`
}

type SphereView struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Failed  bool    `json:"failed"`
	Grabbed bool    `json:"grabbed"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
}

// SceneMessage is one broadcast frame.
type SceneMessage struct {
	Type    string       `json:"type"`
	Frame   int          `json:"frame"`
	Kinetic float64      `json:"kinetic"`
	Spheres []SphereView `json:"spheres"`
}

// HelloMessage opens every session: the tick rate and the screen
// dimensions the server projects against.
type HelloMessage struct {
	Type   string `json:"type"`
	TPS    int    `json:"tps"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// CreateMessage announces a sphere added through the admin API, with
// its assigned position.
type CreateMessage struct {
	Type   string     `json:"type"`
	Sphere SphereView `json:"sphere"`
}

type RemoveMessage struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type FailedMessage struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Failed bool   `json:"failed"`
}

type DetailMessage struct {
	Type        string          `json:"type"`
	Participant ParticipantView `json:"participant"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ParseMessage decodes an incoming client message by its type tag.
func ParseMessage(data []byte) (interface{}, error) {
	var base struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("error parsing message: %w", err)
	}

	switch base.Type {
	case MessageTypePointer:
		var msg PointerMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("error parsing pointer message: %w", err)
		}
		return &msg, nil

	case MessageTypePing:
		var msg PingMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("error parsing ping message: %w", err)
		}
		return &msg, nil

	default:
		return nil, fmt.Errorf("unknown message type: %q", base.Type)
	}
}

// Event converts a pointer sample to a gesture event, stamped with the
// server's receive time.
func (m *PointerMessage) Event(now time.Time) (gesture.Event, error) {
	var phase gesture.Phase
	switch m.Phase {
	case "press":
		phase = gesture.Press
	case "move":
		phase = gesture.Move
	case "release":
		phase = gesture.Release
	case "click":
		phase = gesture.Click
	default:
		return gesture.Event{}, fmt.Errorf("unknown pointer phase: %q", m.Phase)
	}

	ev := gesture.Event{
		Phase:   phase,
		Point:   mgl64.Vec2{m.X, m.Y},
		Touches: m.Touches,
		Time:    now,
	}
	if m.X2 != nil && m.Y2 != nil {
		second := mgl64.Vec2{*m.X2, *m.Y2}
		ev.Second = &second
	}
	return ev, nil
}

func sphereView(s *scene.Sphere) SphereView {
	return SphereView{
		ID:      s.ID,
		Name:    s.Name,
		Failed:  s.Failed,
		Grabbed: s.Grabbed,
		X:       s.Position.X(),
		Y:       s.Position.Y(),
		Z:       s.Position.Z(),
	}
}

func sceneMessage(snap sim.Snapshot) SceneMessage {
	msg := SceneMessage{
		Type:    MessageTypeScene,
		Frame:   snap.Frame,
		Kinetic: snap.Kinetic,
		Spheres: make([]SphereView, len(snap.Spheres)),
	}
	for i, s := range snap.Spheres {
		msg.Spheres[i] = SphereView{
			ID:      s.ID,
			Name:    s.Name,
			Failed:  s.Failed,
			Grabbed: s.Grabbed,
			X:       s.Position.X(),
			Y:       s.Position.Y(),
			Z:       s.Position.Z(),
		}
	}
	return msg
}
