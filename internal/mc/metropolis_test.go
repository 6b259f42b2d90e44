package mc_test

import (
	"context"
	"math/rand"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/discmc/internal/ensemble"
	"github.com/san-kum/discmc/internal/forcefield"
	"github.com/san-kum/discmc/internal/mc"
	"github.com/san-kum/discmc/internal/topology"
)

func mustRead(text string) *ensemble.Configuration {
	cfg, err := ensemble.Read(strings.NewReader(text))
	Expect(err).NotTo(HaveOccurred())
	cfg.AttachTopology(topology.Default())
	return cfg
}

var _ = Describe("Metropolis sampling", func() {
	var ff *forcefield.Table

	BeforeEach(func() {
		ff = forcefield.Default()
	})

	Describe("two attractive discs at low temperature", func() {
		It("spend most of the run bound inside the well", func() {
			// Small periodic box so the bound state dominates the free
			// volume at beta = 5.
			cfg := mustRead("8 8\n2\n0 2 4 0\n0 6 4 0\n")
			in := mc.New(ff, rand.New(rand.NewSource(12345)))

			ctx := context.Background()
			_, err := in.Run(ctx, cfg, 5, 1, 10000) // burn-in
			Expect(err).NotTo(HaveOccurred())

			var seps []float64
			for i := 0; i < 8000; i++ {
				_, err := in.Run(ctx, cfg, 5, 1, 10)
				Expect(err).NotTo(HaveOccurred())
				d := cfg.Object(0).Distance(cfg.Object(1), cfg.XSize, cfg.YSize, true)
				seps = append(seps, d)
			}

			bound := 0
			sum := 0.0
			for _, d := range seps {
				if d < ff.Cutoff() {
					bound++
				}
				sum += d
			}
			boundFraction := float64(bound) / float64(len(seps))
			mean := sum / float64(len(seps))

			// The flat well bottom spans separations 1.0 to 1.5 at depth
			// 1; with beta 5 the Boltzmann weight there outweighs the
			// remaining free area by well over an order of magnitude.
			Expect(boundFraction).To(BeNumerically(">", 0.6))
			Expect(mean).To(BeNumerically(">", 1.0))
			Expect(mean).To(BeNumerically("<", 3.0))
		})
	})

	Describe("step-width adaptation", func() {
		It("recovers from a badly seeded step width", func() {
			// Dense enough that large steps collide and get rejected.
			cfg := mustRead("8 8\n9\n" +
				"0 1.2 1.2 0\n0 3.5 1.2 0\n0 5.8 1.2 0\n" +
				"0 1.2 3.5 0\n0 3.5 3.5 0\n0 5.8 3.5 0\n" +
				"0 1.2 5.8 0\n0 3.5 5.8 0\n0 5.8 5.8 0\n")
			in := mc.New(ff, rand.New(rand.NewSource(777)))
			in.DlMax = 1e-5 // badly seeded: nearly every move accepted

			ctx := context.Background()
			_, err := in.Run(ctx, cfg, 1, 1, 20000) // let dl_max find its level
			Expect(err).NotTo(HaveOccurred())

			in.NGood, in.NBad = 0, 0
			res, err := in.Run(ctx, cfg, 1, 1, 5000)
			Expect(err).NotTo(HaveOccurred())

			frac := float64(res.Accepted) / float64(res.Steps)
			Expect(frac).To(BeNumerically(">", 0.2))
			Expect(frac).To(BeNumerically("<", 0.8))
			Expect(in.DlMax).To(BeNumerically(">", 1e-5))
			Expect(in.DlMax).To(BeNumerically("<=", 4))
		})
	})

	Describe("detailed balance bookkeeping", func() {
		It("keeps the cached energy consistent with a fresh recomputation", func() {
			cfg := mustRead("10 10\n3\n0 2 2 0\n0 5 5 0\n0 8 8 0\n")
			in := mc.New(ff, rand.New(rand.NewSource(31)))

			res, err := in.Run(context.Background(), cfg, 2, 1, 3000)
			Expect(err).NotTo(HaveOccurred())

			clone := cfg.Clone()
			for k := 0; k < clone.NObjects(); k++ {
				clone.MarkDirty(k)
			}
			Expect(res.Energy).To(BeNumerically("~", clone.Energy(ff), 1e-6))
		})
	})
})
