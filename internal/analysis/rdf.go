// Package analysis provides structural and statistical analysis of Monte
// Carlo configurations and energy traces.
package analysis

import (
	"math"

	"github.com/san-kum/discmc/internal/ensemble"
)

// RDF is a radial distribution function histogram over object centers.
type RDF struct {
	RMax float64
	Bins []float64
}

// RadialDistribution histograms center-to-center distances in cfg out to
// rMax, normalized by the ideal-gas expectation so an uncorrelated fluid
// gives g(r) ~ 1. Each unordered pair is visited once and adds 2 to its bin
// (one count per ordered pair); the minimum-image convention is applied
// under periodic boundaries.
func RadialDistribution(cfg *ensemble.Configuration, bins int, rMax float64) *RDF {
	h := &RDF{RMax: rMax, Bins: make([]float64, bins)}
	n := cfg.NObjects()
	if n < 2 || bins == 0 || rMax <= 0 {
		return h
	}

	dr := rMax / float64(bins)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := cfg.Object(i).Distance(cfg.Object(j), cfg.XSize, cfg.YSize, cfg.Periodic)
			b := int(d / dr)
			if b < bins {
				h.Bins[b] += 2 // each pair contributes to both ends
			}
		}
	}

	density := float64(n) / cfg.Area()
	for b := range h.Bins {
		rLo := float64(b) * dr
		rHi := rLo + dr
		shell := math.Pi * (rHi*rHi - rLo*rLo)
		h.Bins[b] /= float64(n) * density * shell
	}
	return h
}

// Center returns the midpoint radius of bin b.
func (h *RDF) Center(b int) float64 {
	if len(h.Bins) == 0 {
		return 0
	}
	dr := h.RMax / float64(len(h.Bins))
	return (float64(b) + 0.5) * dr
}
