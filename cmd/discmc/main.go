package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/discmc/internal/analysis"
	"github.com/san-kum/discmc/internal/config"
	"github.com/san-kum/discmc/internal/ensemble"
	"github.com/san-kum/discmc/internal/export"
	"github.com/san-kum/discmc/internal/forcefield"
	"github.com/san-kum/discmc/internal/mc"
	"github.com/san-kum/discmc/internal/metrics"
	"github.com/san-kum/discmc/internal/storage"
	"github.com/san-kum/discmc/internal/topology"
	"github.com/san-kum/discmc/internal/viz"
)

var (
	dataDir string

	steps      int
	printEvery int
	beta       float64
	pressure   float64
	seed       int64
	dlMax      float64
	ffFile     string
	topoFile   string
	initial    string
	final      string
	configFile string
	preset     string
	periodic   bool

	svgOut   string
	svgScale float64
	rdfBins  int
	batch    int
	fps      int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "discmc",
		Short: "2D coarse-grained Metropolis Monte Carlo lab",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".discmc", "data directory")

	nvtCmd := &cobra.Command{
		Use:   "nvt n_steps print_frequency beta pressure initial_config final_config",
		Short: "run a canonical-ensemble trajectory (positional form)",
		Args:  cobra.ExactArgs(6),
		RunE:  runNVT,
	}
	nvtCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a trajectory from flags, a YAML config, or a preset",
		RunE:  runFromConfig,
	}
	runCmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "number of Monte Carlo steps")
	runCmd.Flags().IntVar(&printEvery, "print-every", config.DefaultPrintEvery, "steps between progress reports")
	runCmd.Flags().Float64Var(&beta, "beta", config.DefaultBeta, "inverse temperature 1/(kB T)")
	runCmd.Flags().Float64Var(&pressure, "pressure", config.DefaultPressure, "pressure (stored, inert in NVT)")
	runCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	runCmd.Flags().Float64Var(&dlMax, "dl-max", 0, "initial proposal half-width (0 = auto)")
	runCmd.Flags().StringVar(&ffFile, "forcefield", "", "force-field YAML file (empty = builtin)")
	runCmd.Flags().StringVar(&topoFile, "topology", "", "topology YAML file (empty = builtin)")
	runCmd.Flags().StringVar(&initial, "in", "", "initial configuration file")
	runCmd.Flags().StringVar(&final, "out", "", "final configuration file")
	runCmd.Flags().StringVar(&configFile, "config", "", "run config YAML file")
	runCmd.Flags().StringVar(&preset, "preset", "", "named preset")
	runCmd.Flags().BoolVar(&periodic, "periodic", true, "periodic boundary conditions")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the energy trace of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run metadata and trace to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	rdfCmd := &cobra.Command{
		Use:   "rdf [config_file]",
		Short: "radial distribution function of a configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRDF,
	}
	rdfCmd.Flags().IntVar(&rdfBins, "bins", 50, "histogram bins")

	svgCmd := &cobra.Command{
		Use:   "svg [config_file]",
		Short: "render a configuration to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  renderSVG,
	}
	svgCmd.Flags().StringVarP(&svgOut, "out", "o", "", "output file (empty = stdout)")
	svgCmd.Flags().Float64Var(&svgScale, "scale", 40, "pixels per length unit")
	svgCmd.Flags().StringVar(&ffFile, "forcefield", "", "force-field YAML file")
	svgCmd.Flags().StringVar(&topoFile, "topology", "", "topology YAML file")

	liveCmd := &cobra.Command{
		Use:   "live [config_file]",
		Short: "watch a trajectory evolve in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&beta, "beta", config.DefaultBeta, "inverse temperature")
	liveCmd.Flags().Float64Var(&pressure, "pressure", config.DefaultPressure, "pressure (inert)")
	liveCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	liveCmd.Flags().IntVar(&batch, "batch", 0, "steps per frame (0 = N objects)")
	liveCmd.Flags().IntVar(&fps, "fps", 30, "frame rate")
	liveCmd.Flags().StringVar(&ffFile, "forcefield", "", "force-field YAML file")
	liveCmd.Flags().StringVar(&topoFile, "topology", "", "topology YAML file")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list named presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				fmt.Println(name)
			}
		},
	}

	rootCmd.AddCommand(nvtCmd, runCmd, listCmd, plotCmd, exportJSONCmd, rdfCmd, svgCmd, liveCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadTables resolves the force field and topology, falling back to the
// built-in tables when no files are given.
func loadTables() (*forcefield.Table, *topology.Topology, error) {
	ff := forcefield.Default()
	topo := topology.Default()
	var err error
	if ffFile != "" {
		if ff, err = forcefield.Load(ffFile); err != nil {
			return nil, nil, err
		}
	}
	if topoFile != "" {
		if topo, err = topology.Load(topoFile); err != nil {
			return nil, nil, err
		}
	}
	return ff, topo, nil
}

func loadConfiguration(path string, topo *topology.Topology) (*ensemble.Configuration, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s for reading: %w", path, err)
	}
	defer file.Close()

	cfg, err := ensemble.Read(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.AttachTopology(topo)
	return cfg, nil
}

func runNVT(cmd *cobra.Command, args []string) error {
	run := config.Default()

	var err error
	if run.Steps, err = strconv.Atoi(args[0]); err != nil || run.Steps < 1 {
		return fmt.Errorf("too few iterations: %s", args[0])
	}
	if run.PrintEvery, err = strconv.Atoi(args[1]); err != nil {
		return fmt.Errorf("bad print frequency: %s", args[1])
	}
	if run.Beta, err = strconv.ParseFloat(args[2], 64); err != nil {
		return fmt.Errorf("bad beta: %s", args[2])
	}
	if run.Pressure, err = strconv.ParseFloat(args[3], 64); err != nil {
		return fmt.Errorf("bad pressure: %s", args[3])
	}
	run.Initial = args[4]
	run.Final = args[5]
	run.Seed = seed

	_, err = drive(run, false)
	return err
}

func runFromConfig(cmd *cobra.Command, args []string) error {
	run := config.Default()

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		*run = *p
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		run = loaded
	}

	// CLI flags override config and preset values.
	if cmd.Flags().Changed("steps") {
		run.Steps = steps
	}
	if cmd.Flags().Changed("print-every") {
		run.PrintEvery = printEvery
	}
	if cmd.Flags().Changed("beta") {
		run.Beta = beta
	}
	if cmd.Flags().Changed("pressure") {
		run.Pressure = pressure
	}
	if cmd.Flags().Changed("seed") {
		run.Seed = seed
	}
	if cmd.Flags().Changed("dl-max") {
		run.DlMax = dlMax
	}
	if cmd.Flags().Changed("forcefield") {
		run.ForceField = ffFile
	}
	if cmd.Flags().Changed("topology") {
		run.Topology = topoFile
	}
	if cmd.Flags().Changed("in") {
		run.Initial = initial
	}
	if cmd.Flags().Changed("out") {
		run.Final = final
	}
	if cmd.Flags().Changed("periodic") {
		p := periodic
		run.Periodic = &p
	}

	if run.Initial == "" {
		return fmt.Errorf("no initial configuration (use --in or a config file)")
	}

	runID, err := drive(run, true)
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

// drive executes one full trajectory: load, report, overlap relief, the
// main Metropolis loop with periodic reports, and the final write. When
// save is set the run is also recorded in the store.
func drive(run *config.Run, save bool) (string, error) {
	ffFile, topoFile = run.ForceField, run.Topology
	ff, topo, err := loadTables()
	if err != nil {
		return "", err
	}

	state, err := loadConfiguration(run.Initial, topo)
	if err != nil {
		return "", err
	}
	if run.Periodic != nil {
		state.Periodic = *run.Periodic
	}

	u := state.Energy(ff)
	v := state.Area()
	n := state.NObjects()

	fmt.Println("Configuration loaded")
	report(n, run.Pressure, run.Beta, v, u)

	rng := rand.New(rand.NewSource(run.Seed))
	integ := mc.New(ff, rng)
	integ.DlMax = run.DlMax
	if integ.DlMax <= 0 {
		integ.DlMax = math.Min(state.XSize, state.YSize) / 2
	}
	disp := metrics.NewDisplacement(state)
	integ.AddMetric(disp)

	ctx := context.Background()

	if n > 0 && u >= ff.BigEnergy() {
		taken, err := integ.Relax(ctx, state, run.Beta, run.Pressure)
		if err != nil {
			return "", err
		}
		u = state.Energy(ff)
		integ.NGood, integ.NBad = 0, 0
		fmt.Printf("After initial adjustments (%d steps):\n", taken)
		report(n, run.Pressure, run.Beta, v, u)
	}

	var trace []mc.TracePoint
	if n > 0 {
		batch := min(run.PrintEvery, run.Steps)
		if batch < 1 {
			batch = run.Steps
		}
		for done := 0; done < run.Steps; {
			b := min(batch, run.Steps-done)
			res, err := integ.Run(ctx, state, run.Beta, run.Pressure, b)
			if err != nil {
				return "", err
			}
			u = res.Energy
			done += b

			fmt.Printf("After %d steps:\n", done)
			report(n, run.Pressure, run.Beta, v, u)
			fmt.Printf("Moves %d in %d, Dist_max = %g\n",
				integ.NGood, integ.NGood+integ.NBad, integ.DlMax)

			trace = append(trace, mc.TracePoint{
				Step:       done,
				Energy:     u,
				Acceptance: integ.Acceptance(),
				DlMax:      integ.DlMax,
			})
		}
		fmt.Printf("RMS displacement = %g\n", disp.Value())
	}

	if run.Final != "" {
		dest, err := os.Create(run.Final)
		if err != nil {
			return "", fmt.Errorf("unable to open %s for writing: %w", run.Final, err)
		}
		defer dest.Close()
		if err := state.Write(dest); err != nil {
			return "", err
		}
	}

	runID := ""
	if save {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return "", err
		}
		meta := storage.RunMetadata{
			Steps:       run.Steps,
			Beta:        run.Beta,
			Pressure:    run.Pressure,
			Seed:        run.Seed,
			NObjects:    n,
			Area:        v,
			Periodic:    state.Periodic,
			FinalEnergy: u,
			Acceptance:  integ.Acceptance(),
			DlMax:       integ.DlMax,
			Metrics:     map[string]float64{disp.Name(): disp.Value()},
		}
		if runID, err = st.Save(meta, trace, state); err != nil {
			return "", err
		}
	}

	fmt.Println("\n...Done...")
	return runID, nil
}

func report(n int, p, beta, area, energy float64) {
	density := 0.0
	if area > 0 {
		density = float64(n) / area
	}
	fmt.Printf("N objects = %9d Pressure = %9g   Beta = %9g\n", n, p, beta)
	fmt.Printf("Area      = %9g  Density = %9g Energy = %9g\n", area, density, energy)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSTEPS\tN\tBETA\tENERGY\tACCEPT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%g\t%.4f\t%.1f%%\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.NObjects,
			run.Beta,
			run.FinalEnergy,
			100*run.Acceptance,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return fmt.Errorf("no trace to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("steps: %d  beta: %g  N: %d\n\n", meta.Steps, meta.Beta, meta.NObjects)

	energies := make([]float64, len(trace))
	for i, p := range trace {
		energies[i] = p.Energy
	}
	mean, stderr := analysis.BlockAverage(energies, 10)

	fmt.Println(asciigraph.Plot(energies,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption("energy vs step"),
	))
	fmt.Printf("\nmean energy: %.6f +/- %.6f\n", mean, stderr)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return storage.ExportJSON(enc, meta, trace)
}

func plotRDF(cmd *cobra.Command, args []string) error {
	_, topo, err := loadTables()
	if err != nil {
		return err
	}
	state, err := loadConfiguration(args[0], topo)
	if err != nil {
		return err
	}
	if state.NObjects() < 2 {
		return fmt.Errorf("need at least two objects for g(r)")
	}

	rMax := math.Min(state.XSize, state.YSize) / 2
	rdf := analysis.RadialDistribution(state, rdfBins, rMax)

	fmt.Println(asciigraph.Plot(rdf.Bins,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("g(r), r in [0, %.2f]", rMax)),
	))
	return nil
}

func renderSVG(cmd *cobra.Command, args []string) error {
	ff, topo, err := loadTables()
	if err != nil {
		return err
	}
	state, err := loadConfiguration(args[0], topo)
	if err != nil {
		return err
	}

	svg := export.ConfigurationSVG(state, ff, svgScale)
	if svgOut == "" {
		fmt.Print(svg)
		return nil
	}
	return os.WriteFile(svgOut, []byte(svg), 0644)
}

func runLive(cmd *cobra.Command, args []string) error {
	ff, topo, err := loadTables()
	if err != nil {
		return err
	}
	state, err := loadConfiguration(args[0], topo)
	if err != nil {
		return err
	}

	if seed == config.DefaultSeed && !cmd.Flags().Changed("seed") {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	integ := mc.New(ff, rng)

	if batch == 0 {
		batch = state.NObjects()
		if batch < 1 {
			batch = 1
		}
	}

	m := viz.NewModel(state, integ, beta, pressure, batch, fps)
	p := tea.NewProgram(m)
	_, err = p.Run()
	return err
}
