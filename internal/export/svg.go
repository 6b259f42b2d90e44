// Package export renders configurations to SVG.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/discmc/internal/ensemble"
)

// Palette supplies atom radii and display colors for rendering.
type Palette interface {
	Size(t int) float64
	Color(t int) string
}

// ConfigurationSVG draws every atom of every object as a filled circle,
// scaled by scale pixels per length unit. Atoms cut by the domain border
// get ghost copies on the opposite side, the way a periodic tiling shows
// them; the same copies are drawn for hard walls, where they are simply
// clipped away by the viewport.
func ConfigurationSVG(cfg *ensemble.Configuration, pal Palette, scale float64) string {
	w := cfg.XSize * scale
	h := cfg.YSize * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#ffffff" stroke="#333333"/>
`, w, h, w, h))

	topo := cfg.Topology()
	for i := 0; i < cfg.NObjects(); i++ {
		obj := cfg.Object(i)
		for j := 0; j < topo.NAtoms(obj.Type); j++ {
			x, y := obj.AtomPosition(topo, j)
			t := topo.Atom(obj.Type, j).Type
			r := pal.Size(t)
			writeAtom(&sb, cfg, x, y, r, pal.Color(t), scale)
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// writeAtom emits a circle plus border ghosts. The y axis is flipped so the
// domain origin sits bottom-left.
func writeAtom(sb *strings.Builder, cfg *ensemble.Configuration, x, y, r float64, color string, scale float64) {
	circle := func(cx, cy float64) {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, cx*scale, (cfg.YSize-cy)*scale, r*scale, color))
	}

	circle(x, y)

	lr, tb := 0.0, 0.0
	if x < r {
		lr = cfg.XSize
	}
	if x > cfg.XSize-r {
		lr = -cfg.XSize
	}
	if y < r {
		tb = cfg.YSize
	}
	if y > cfg.YSize-r {
		tb = -cfg.YSize
	}
	if lr != 0 {
		circle(x+lr, y)
	}
	if tb != 0 {
		circle(x, y+tb)
	}
	if lr != 0 && tb != 0 {
		circle(x+lr, y+tb)
	}
}
