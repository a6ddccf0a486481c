package server

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"spheretree/internal/gesture"
	"spheretree/internal/sim"
)

func TestParseMessagePointer(t *testing.T) {
	data := []byte(`{"type":"pointer","phase":"press","x":10,"y":20,"touches":1}`)
	msg, err := ParseMessage(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ptr, ok := msg.(*PointerMessage)
	if !ok {
		t.Fatalf("expected *PointerMessage, got %T", msg)
	}
	if ptr.Phase != "press" || ptr.X != 10 || ptr.Y != 20 {
		t.Errorf("unexpected fields: %+v", ptr)
	}
}

func TestParseMessagePing(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"ping","seq":7}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	ping, ok := msg.(*PingMessage)
	if !ok || ping.Seq != 7 {
		t.Errorf("expected ping seq 7, got %T %+v", msg, msg)
	}
}

func TestParseMessageUnknownType(t *testing.T) {
	if _, err := ParseMessage([]byte(`{"type":"bogus"}`)); err == nil {
		t.Error("expected an error for an unknown type")
	}
}

func TestParseMessageBadJSON(t *testing.T) {
	if _, err := ParseMessage([]byte(`{`)); err == nil {
		t.Error("expected an error for truncated json")
	}
}

func TestPointerMessageEvent(t *testing.T) {
	x2, y2 := 30.0, 40.0
	msg := &PointerMessage{Type: MessageTypePointer, Phase: "move", X: 1, Y: 2, X2: &x2, Y2: &y2, Touches: 2}

	now := time.Now()
	ev, err := msg.Event(now)
	if err != nil {
		t.Fatalf("event: %v", err)
	}
	if ev.Phase != gesture.Move {
		t.Errorf("phase = %v, want move", ev.Phase)
	}
	if ev.Point != (mgl64.Vec2{1, 2}) {
		t.Errorf("point = %v", ev.Point)
	}
	if ev.Second == nil || *ev.Second != (mgl64.Vec2{30, 40}) {
		t.Errorf("second = %v", ev.Second)
	}
	if ev.Touches != 2 || !ev.Time.Equal(now) {
		t.Errorf("touches/time wrong: %+v", ev)
	}
}

func TestPointerMessageEventBadPhase(t *testing.T) {
	msg := &PointerMessage{Phase: "hover"}
	if _, err := msg.Event(time.Now()); err == nil {
		t.Error("expected an error for an unknown phase")
	}
}

func TestSceneMessage(t *testing.T) {
	snap := sim.Snapshot{
		Frame:   42,
		Kinetic: 1.5,
		Spheres: []sim.SphereState{
			{ID: "a", Name: "alice", Failed: true, Position: mgl64.Vec3{1, 2, 3}},
		},
	}

	msg := sceneMessage(snap)
	if msg.Type != MessageTypeScene || msg.Frame != 42 || msg.Kinetic != 1.5 {
		t.Errorf("header wrong: %+v", msg)
	}
	if len(msg.Spheres) != 1 {
		t.Fatalf("spheres = %d, want 1", len(msg.Spheres))
	}
	v := msg.Spheres[0]
	if v.ID != "a" || !v.Failed || v.X != 1 || v.Y != 2 || v.Z != 3 {
		t.Errorf("view wrong: %+v", v)
	}
}
