// Package export renders recorded scene frames to SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// SceneSVG draws sphere positions as discs on a dark canvas. The
// viewport is fitted to the positions with 10% padding; depth (Z) maps
// to opacity so the plane-locked case renders fully opaque.
func SceneSVG(positions []mgl64.Vec3, radius float64, width, height int) string {
	if len(positions) == 0 {
		return ""
	}

	minX, maxX := positions[0].X(), positions[0].X()
	minY, maxY := positions[0].Y(), positions[0].Y()
	for _, p := range positions {
		if p.X()-radius < minX {
			minX = p.X() - radius
		}
		if p.X()+radius > maxX {
			maxX = p.X() + radius
		}
		if p.Y()-radius < minY {
			minY = p.Y() - radius
		}
		if p.Y()+radius > maxY {
			maxY = p.Y() + radius
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	scale := float64(width) / rangeX
	if s := float64(height) / rangeY; s < scale {
		scale = s
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff88">
`, width, height, width, height))

	for _, p := range positions {
		cx := (p.X() - minX) * scale
		cy := float64(height) - (p.Y()-minY)*scale
		opacity := 1.0
		if p.Z() < 0 {
			opacity = 0.5
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill-opacity="%.1f"/>
`, cx, cy, radius*scale, opacity))
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
