package export

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestSceneSVG(t *testing.T) {
	positions := []mgl64.Vec3{
		{0, 10, 0},
		{-1.1, 8, 0},
		{1.1, 8, -2},
	}

	svg := SceneSVG(positions, 1.0, 640, 480)
	if !strings.HasPrefix(svg, `<?xml version="1.0"`) {
		t.Error("missing xml header")
	}
	if strings.Count(svg, "<circle") != 3 {
		t.Errorf("expected 3 circles, got %d", strings.Count(svg, "<circle"))
	}
	if !strings.Contains(svg, `fill-opacity="0.5"`) {
		t.Error("behind-plane sphere should render translucent")
	}
	if !strings.Contains(svg, "</svg>") {
		t.Error("unterminated svg")
	}
}

func TestSceneSVGEmpty(t *testing.T) {
	if svg := SceneSVG(nil, 1.0, 640, 480); svg != "" {
		t.Errorf("expected empty string, got %q", svg)
	}
}
