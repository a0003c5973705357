package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/fieldsim/internal/analysis"
	"github.com/san-kum/fieldsim/internal/automation"
	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/server"
	"github.com/san-kum/fieldsim/internal/sim"
	"github.com/san-kum/fieldsim/internal/store"
)

var (
	every    int
	jsonOut  string
	csvOut   string
	svgOut   string
	save     bool
	noPlot   bool
	param    string
	pmin     float64
	pmax     float64
	steps    int
	workers  int
	trials   int
	perturb  float64
	svgAxisA int
	svgAxisB int
	analyze  bool

	bifParam string
	bifMin   float64
	bifMax   float64
	bifSteps int
	settle   float64
	record   float64
)

func outputFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&every, "every", 1, "keep one sample per this many advancing frames")
	cmd.Flags().StringVar(&jsonOut, "json", "", "write the recording as JSON")
	cmd.Flags().StringVar(&csvOut, "csv", "", "write the samples as CSV")
	cmd.Flags().StringVar(&svgOut, "svg", "", "write the trail as SVG")
	cmd.Flags().IntVar(&svgAxisA, "svg-x", 0, "state component on the SVG x axis")
	cmd.Flags().IntVar(&svgAxisB, "svg-y", 1, "state component on the SVG y axis")
	cmd.Flags().BoolVar(&save, "save", false, "archive the run under the data directory")
	cmd.Flags().BoolVar(&noPlot, "no-plot", false, "skip the terminal plot")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "print the dominant frequency and a phase portrait")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	clock := sim.NewManualClock(time.Unix(0, 0))
	exp, err := experiment.NewRegistry().Build(cfg, experiment.Options{Clock: clock, Logger: log})
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	rec := store.NewRecorder(exp.Runner, every)
	exp.Runner.SetRunning(true)
	start := time.Now()
	pacing := automation.Pacing{FPS: cfg.FPS, Jitter: cfg.Jitter, Rand: rand.New(rand.NewSource(cfg.Seed))}
	frames, err := automation.Drive(ctx, exp.Runner, clock, sim.Step(cfg.Duration), pacing, func(time.Duration) {
		rec.Observe()
	})
	if err != nil {
		return err
	}

	out := rec.Finish(cfg.Integrator, cfg.Dt, cfg.Duration, cfg.Seed)
	out.Metrics = exp.Metrics()
	out.Derived = exp.Derived()

	fmt.Printf("%s: %d steps over %d frames in %v\n", out.Model, out.Steps, frames, time.Since(start).Round(time.Millisecond))
	return report(out)
}

func report(rec *store.Recording) error {
	printValues("params", rec.Params)
	printValues("derived", rec.Derived)
	printValues("metrics", rec.Metrics)

	if !noPlot && len(rec.Samples) > 1 {
		series := make([]float64, len(rec.Samples))
		for i, s := range rec.Samples {
			if len(s.X) > 0 {
				series[i] = s.X[0]
			}
		}
		fmt.Println()
		fmt.Println(asciigraph.Plot(series,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption("x[0] vs time")))
	}

	if analyze {
		printAnalysis(rec)
	}

	if jsonOut != "" {
		if err := store.ExportJSON(jsonOut, rec); err != nil {
			return err
		}
		fmt.Println("wrote", jsonOut)
	}
	if csvOut != "" {
		if err := store.ExportCSV(csvOut, rec); err != nil {
			return err
		}
		fmt.Println("wrote", csvOut)
	}
	if svgOut != "" {
		pts := store.TrailPoints(rec.Trail, svgAxisA, svgAxisB)
		if len(pts) < 2 {
			pts = rec.Points(svgAxisA, svgAxisB)
		}
		svg := store.TrailToSVG(pts, 800, 800, "#00ccff")
		if svg == "" {
			return fmt.Errorf("svg: no points on axes %d and %d", svgAxisA, svgAxisB)
		}
		if err := os.WriteFile(svgOut, []byte(svg), 0o644); err != nil {
			return err
		}
		fmt.Println("wrote", svgOut)
	}
	if save {
		st := store.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(rec)
		if err != nil {
			return err
		}
		fmt.Println("run id:", id)
	}
	return nil
}

func printAnalysis(rec *store.Recording) {
	if len(rec.Samples) < 4 {
		return
	}
	const sampleDt = 0.05
	ts := make([]float64, len(rec.Samples))
	vs := make([]float64, len(rec.Samples))
	for i, s := range rec.Samples {
		ts[i] = s.T
		if len(s.V) > 0 {
			vs[i] = s.V[0]
		}
	}
	f := analysis.DominantFrequency(analysis.Resample(ts, vs, sampleDt), sampleDt)
	fmt.Printf("\ndominant frequency of v[0]: %.4f Hz\n", f)
	if period, ok := rec.Derived["cyclotron_period"]; ok && period > 0 {
		fmt.Printf("cyclotron frequency:        %.4f Hz\n", 1/period)
	}
	fmt.Println("\nphase portrait x[0] vs v[0]:")
	fmt.Print(analysis.PhasePortrait(rec.Samples, 0, 0).ToASCII(72, 20))
}

func printValues(title string, vals map[string]float64) {
	if len(vals) == 0 {
		return
	}
	names := make([]string, 0, len(vals))
	for k := range vals {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Printf("%s:\n", title)
	for _, k := range names {
		fmt.Printf("  %-18s %.6g\n", k, vals[k])
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	exp, err := experiment.NewRegistry().Build(cfg, experiment.Options{Logger: log})
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	srv := server.New(exp.Runner, server.Options{FPS: cfg.FPS, Logger: log, AllowedOrigins: cfg.Serve.AllowedOrigins})
	fmt.Printf("serving %s on http://localhost%s\n", cfg.Model, cfg.Serve.Addr)
	return server.ListenAndServe(ctx, cfg.Serve.Addr, srv)
}

func runScript(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := sc.Config()
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
	cfg.Log.JSON = cfg.Log.JSON || logJSON
	log, closer, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer closer.Close()

	ctx, cancel := signalContext()
	defer cancel()
	res, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), log)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d frames, %d events, %d steps\n", sc.Name, res.Frames, res.Fired, res.Recording.Steps)
	for _, e := range res.Refused {
		fmt.Println("  refused:", e)
	}
	return report(res.Recording)
}

func sweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one particle parameter and compare measured and predicted gyroradius",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, []string{"particle"})
			if err != nil {
				return err
			}
			log, closer, err := newLogger(cfg, false)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := signalContext()
			defer cancel()
			results, err := automation.RunSweep(ctx, &automation.ParameterSweep{
				Base:      cfg,
				ParamName: param,
				ParamMin:  pmin,
				ParamMax:  pmax,
				NumSteps:  steps,
				Duration:  cfg.Duration,
				Workers:   workers,
			}, experiment.NewRegistry(), log)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s\tSTEPS\tPREDICTED\tMEASURED\tDRIFT\tSTABLE\n", param)
			for _, r := range results {
				fmt.Fprintf(w, "%.4g\t%d\t%.4f\t%.4f\t%.2e\t%v\n",
					r.ParamValue, r.Steps, r.Theoretical, r.Measured, r.EnergyDrift, r.Stable)
			}
			return w.Flush()
		},
	}
	sessionFlags(cmd)
	cmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "clock seconds per point")
	cmd.Flags().StringVar(&param, "param", "Bz", "parameter to sweep")
	cmd.Flags().Float64Var(&pmin, "min", 0.25, "first value")
	cmd.Flags().Float64Var(&pmax, "max", 1, "last value")
	cmd.Flags().IntVar(&steps, "steps", 4, "number of values")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 uses all CPUs)")
	return cmd
}

func monteCarloCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb the particle's initial velocity and count escapes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, []string{"particle"})
			if err != nil {
				return err
			}
			log, closer, err := newLogger(cfg, false)
			if err != nil {
				return err
			}
			defer closer.Close()

			ctx, cancel := signalContext()
			defer cancel()
			results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
				Base:         cfg,
				Perturbation: perturb,
				NumTrials:    trials,
				Duration:     cfg.Duration,
				Seed:         cfg.Seed,
				Workers:      workers,
			}, experiment.NewRegistry(), log)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TRIAL\tVX\tVY\tVZ\tFIRST EXIT\tSTABLE")
			for _, r := range results {
				fmt.Fprintf(w, "%d\t%.3f\t%.3f\t%.3f\t%.3f\t%v\n",
					r.TrialID, r.Velocity.X, r.Velocity.Y, r.Velocity.Z, r.FirstExit, r.Stable)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			stable, unstable := automation.MonteCarloStats(results)
			fmt.Printf("\nstable: %d  escaped: %d\n", stable, unstable)
			return nil
		},
	}
	sessionFlags(cmd)
	cmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "clock seconds per trial")
	cmd.Flags().Int64Var(&seed, "seed", 0, "base seed; trial i uses seed+i")
	cmd.Flags().IntVar(&trials, "trials", 16, "number of trials")
	cmd.Flags().Float64Var(&perturb, "perturb", 1, "maximum velocity perturbation per component")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 uses all CPUs)")
	return cmd
}

func bifurcateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bifurcate [model]",
		Short: "sweep a parameter and plot the settled values of the first state component",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"pendulum"}
			}
			cfg, err := loadConfig(cmd, args)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			b := &analysis.Bifurcation{
				Base:      cfg,
				ParamName: bifParam,
				Min:       bifMin,
				Max:       bifMax,
				Steps:     bifSteps,
				Settle:    settle,
				Record:    record,
				Fold:      cfg.Model == "pendulum",
				Workers:   workers,
			}
			points, err := b.Run(ctx, experiment.NewRegistry())
			if err != nil {
				return err
			}
			fmt.Printf("%s from %g to %g (horizontal) vs settled x[0]\n", bifParam, bifMin, bifMax)
			fmt.Print(analysis.BifurcationPortrait(points).ToASCII(72, 20))
			return nil
		},
	}
	sessionFlags(cmd)
	cmd.Flags().StringVar(&bifParam, "param", "omega", "parameter to sweep")
	cmd.Flags().Float64Var(&bifMin, "min", 0, "first value")
	cmd.Flags().Float64Var(&bifMax, "max", 6, "last value")
	cmd.Flags().IntVar(&bifSteps, "steps", 61, "number of values")
	cmd.Flags().Float64Var(&settle, "settle", 30, "seconds discarded before recording")
	cmd.Flags().Float64Var(&record, "record", 5, "seconds recorded")
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 uses all CPUs)")
	return cmd
}

func presetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "presets [model]",
		Short: "list presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			models := config.Models
			if len(args) > 0 {
				models = args
			}
			for _, m := range models {
				presets := config.ListPresets(m)
				if len(presets) == 0 {
					fmt.Printf("no presets for model: %s\n", m)
					continue
				}
				fmt.Printf("%s:\n", m)
				for _, p := range presets {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}
}

func paramsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "params [model]",
		Short: "list a model's tunable parameters and their bounds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, err := experiment.NewRegistry().Specs(args[0])
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMIN\tMAX\tSTEP\tNON-ZERO")
			for _, s := range specs {
				fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%v\n", s.Name, s.Min, s.Max, s.Step, s.NonZero)
			}
			return w.Flush()
		},
	}
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := store.New(dataDir).List()
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Println("no runs found")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tMODEL\tTIME\tDURATION\tDT\tSTEPS\tINTEG")
			for _, run := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%s\n",
					run.ID, run.Model, run.Timestamp.Format("2006-01-02 15:04:05"),
					run.Duration, run.Dt, run.Steps, run.Integrator)
			}
			return w.Flush()
		},
	}
}

func showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run_id]",
		Short: "print a saved run's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, err := store.New(dataDir).Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("run:        %s\n", meta.ID)
			fmt.Printf("model:      %s\n", meta.Model)
			fmt.Printf("time:       %s\n", meta.Timestamp.Format(time.RFC3339))
			fmt.Printf("integrator: %s  dt=%g  duration=%gs  steps=%d  seed=%d\n",
				meta.Integrator, meta.Dt, meta.Duration, meta.Steps, meta.Seed)
			printValues("params", meta.Params)
			printValues("metrics", meta.Metrics)
			return nil
		},
	}
}
