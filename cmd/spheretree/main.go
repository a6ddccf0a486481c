package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"spheretree/internal/config"
	"spheretree/internal/export"
	"spheretree/internal/record"
	"spheretree/internal/scene"
	"spheretree/internal/server"
	"spheretree/internal/sim"
	"spheretree/internal/store"
	"spheretree/internal/sweep"
	"spheretree/internal/viz"
)

var (
	configFile string
	preset     string
	dataDir    string
	// serve
	addr          string
	databaseURL   string
	adminPassword string
	// live / record
	count  int
	seed   int64
	frames int
	// export / snapshot
	outFile  string
	frameIdx int
	// sweep
	maxFrames    int
	restitutions string
	dampings     string
)

// main registers the CLI commands. Without a subcommand the live demo
// view starts.
func main() {
	rootCmd := &cobra.Command{
		Use:   "spheretree",
		Short: "decorative participant sphere scene",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, args)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory for recordings")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the scene server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address")
	serveCmd.Flags().StringVar(&databaseURL, "db", "", "postgres connection url")
	serveCmd.Flags().StringVar(&adminPassword, "admin-password", "", "admin api password")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a demo scene with live visualization",
		RunE:  runLive,
	}
	liveCmd.Flags().IntVar(&count, "count", 10, "number of demo spheres")
	liveCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	rootCmd.Flags().IntVar(&count, "count", 10, "number of demo spheres")
	rootCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "record a headless demo run",
		RunE:  runRecord,
	}
	recordCmd.Flags().IntVar(&count, "count", 10, "number of demo spheres")
	recordCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	recordCmd.Flags().IntVar(&frames, "frames", 300, "frames to record")

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recorded run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outFile, "out", "", "output file (defaults to <run_id>.json)")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid-search physics parameters for fastest settling",
		RunE:  runSweep,
	}
	sweepCmd.Flags().IntVar(&count, "count", 10, "number of demo spheres")
	sweepCmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	sweepCmd.Flags().IntVar(&maxFrames, "max-frames", 2000, "frame budget per cell")
	sweepCmd.Flags().StringVar(&restitutions, "restitution", "0.5,0.8,0.95", "restitution values")
	sweepCmd.Flags().StringVar(&dampings, "damping", "0.9,0.95,0.98", "damping values")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "export one recorded frame as svg",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().IntVar(&frameIdx, "frame", -1, "frame index (-1 for the last)")
	snapshotCmd.Flags().StringVar(&outFile, "out", "", "output file (defaults to <run_id>.svg)")

	rootCmd.AddCommand(serveCmd, liveCmd, recordCmd, runsCmd, plotCmd, exportCmd, sweepCmd, snapshotCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves preset, config file and flag overrides, in that
// order of increasing precedence.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (have: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = addr
	}
	if cmd.Flags().Changed("db") {
		cfg.Server.DatabaseURL = databaseURL
	}
	if cmd.Flags().Changed("admin-password") {
		cfg.Server.AdminPassword = adminPassword
	}

	// Environment fallbacks for the deployment path.
	if cfg.Server.DatabaseURL == "" {
		cfg.Server.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.Server.AdminPassword == "" {
		cfg.Server.AdminPassword = os.Getenv("ADMIN_PASSWORD")
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Server.DatabaseURL == "" {
		return fmt.Errorf("database url not set (use --db or DATABASE_URL)")
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Server.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()
	log.Println("connected to postgres")

	reg := scene.NewRegistry(cfg.SceneLayout())
	loop := sim.New(reg, cfg.Physics, cfg.TPS)
	srv := server.New(cfg, loop, reg, st)

	if err := srv.LoadScene(ctx); err != nil {
		return err
	}

	go func() {
		if err := loop.Run(ctx); err != nil && err != context.Canceled {
			log.Fatal("simulation loop:", err)
		}
	}()

	log.Printf("listening on %s (tps=%d)", cfg.Server.Addr, cfg.TPS)
	return http.ListenAndServe(cfg.Server.Addr, srv.Handler())
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	model := viz.NewModel(cfg, count, seed)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	reg := scene.DemoRegistry(cfg.SceneLayout(), count, seed)
	loop := sim.New(reg, cfg.Physics, cfg.TPS)
	snaps := loop.RunFrames(frames)

	st := record.New(cfg.DataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(presetName(), cfg.TPS, snaps)
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	fmt.Printf("recorded %s: %d frames, %d spheres\n", runID, meta.Frames, meta.Spheres)
	for name, value := range meta.Metrics {
		fmt.Printf("  %s: %.4f\n", name, value)
	}
	return nil
}

func presetName() string {
	if preset == "" {
		return "tree"
	}
	return preset
}

func listRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := record.New(cfg.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tTPS\tFRAMES\tSPHERES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.TPS,
			run.Frames,
			run.Spheres,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runID := args[0]

	st := record.New(cfg.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	header, recs, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d\n\n", len(recs))

	kinetic := make([]float64, len(recs))
	for i, rec := range recs {
		kinetic[i] = rec.Kinetic
	}
	fmt.Println(asciigraph.Plot(kinetic,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("kinetic energy"),
	))
	fmt.Println()

	// Plot up to two spheres' heights over time.
	maxPlots := 2
	plotted := 0
	for col := 2; col < len(header) && plotted < maxPlots; col++ {
		name := header[col]
		if len(name) < 2 || name[len(name)-2:] != "_y" {
			continue
		}
		data := make([]float64, len(recs))
		for i, rec := range recs {
			data[i] = rec.Values[col-2]
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs frame"),
		))
		fmt.Println()
		plotted++
	}
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	rVals, err := parseFloats(restitutions)
	if err != nil {
		return fmt.Errorf("restitution: %w", err)
	}
	dVals, err := parseFloats(dampings)
	if err != nil {
		return fmt.Errorf("damping: %w", err)
	}

	runner := sweep.NewRunner(cfg, count, seed, maxFrames)
	params := []sweep.Param{
		{Name: "restitution", Values: rVals},
		{Name: "damping", Values: dVals},
	}

	results, best, err := sweep.Grid(context.Background(), params, runner)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RESTITUTION\tDAMPING\tSETTLE FRAME\tFINAL KINETIC")
	for _, res := range results {
		settle := fmt.Sprintf("%d", res.SettleFrame)
		if res.SettleFrame > maxFrames {
			settle = "never"
		}
		fmt.Fprintf(w, "%.3f\t%.3f\t%s\t%.6f\n",
			res.Params["restitution"], res.Params["damping"], settle, res.FinalKinetic)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if best != nil && best.SettleFrame <= maxFrames {
		fmt.Printf("\nbest: restitution=%.3f damping=%.3f (settled at frame %d)\n",
			best.Params["restitution"], best.Params["damping"], best.SettleFrame)
	} else {
		fmt.Println("\nno cell settled within the frame budget")
	}
	return nil
}

func parseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runID := args[0]

	st := record.New(cfg.DataDir)
	_, recs, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no frames in run %s", runID)
	}

	idx := frameIdx
	if idx < 0 || idx >= len(recs) {
		idx = len(recs) - 1
	}
	rec := recs[idx]

	positions := make([]mgl64.Vec3, 0, len(rec.Values)/3)
	for i := 0; i+2 < len(rec.Values); i += 3 {
		positions = append(positions, mgl64.Vec3{rec.Values[i], rec.Values[i+1], rec.Values[i+2]})
	}

	path := outFile
	if path == "" {
		path = runID + ".svg"
	}
	svg := export.SceneSVG(positions, cfg.Physics.Radius, 640, 480)
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote frame %d of %s to %s\n", rec.Frame, runID, path)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runID := args[0]

	path := outFile
	if path == "" {
		path = runID + ".json"
	}

	st := record.New(cfg.DataDir)
	if err := st.ExportJSON(path, runID); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", runID, path)
	return nil
}
