package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/fieldsim/internal/config"
	"github.com/san-kum/fieldsim/internal/experiment"
	"github.com/san-kum/fieldsim/internal/logging"
	"github.com/san-kum/fieldsim/internal/viz"
)

var (
	configFile string
	dataDir    string
	logLevel   string
	logFile    string
	logJSON    bool

	preset     string
	integrator string
	dt         float64
	fps        int
	duration   float64
	trail      int
	seed       int64
	jitter     float64

	theme   string
	gifPath string
	addr    string
	origins []string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "fieldsim",
		Short:         "fixed-timestep charged particle and hoop pendulum simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLauncher,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fieldsim", "data directory for saved runs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default from config or "+logging.EnvLevel+")")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	rootCmd.Flags().StringVar(&theme, "theme", "", "color theme")

	liveCmd := &cobra.Command{
		Use:   "live [model]",
		Short: "run a session in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	sessionFlags(liveCmd)
	liveCmd.Flags().StringVar(&theme, "theme", "", "color theme")
	liveCmd.Flags().StringVar(&gifPath, "gif", "fieldsim.gif", "where g writes captured frames")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "run headless on a synthetic clock and report the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHeadless,
	}
	sessionFlags(runCmd)
	runCmd.Flags().Float64Var(&duration, "duration", config.DefaultDuration, "clock seconds to run")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "seed for frame jitter")
	runCmd.Flags().Float64Var(&jitter, "jitter", 0, "frame interval jitter in [0,1)")
	outputFlags(runCmd)

	serveCmd := &cobra.Command{
		Use:   "serve [model]",
		Short: "serve a session to browsers over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	sessionFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+config.DefaultAddr+")")
	serveCmd.Flags().StringSliceVar(&origins, "allow-origin", nil, "extra browser origins allowed to connect (\"*\" for any)")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "replay a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	outputFlags(scriptCmd)

	rootCmd.AddCommand(liveCmd, runCmd, serveCmd, scriptCmd,
		sweepCommand(), monteCarloCommand(), bifurcateCommand(),
		presetsCommand(), paramsCommand(), listCommand(), showCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func sessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "start from a named preset")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "rk4 or euler")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	cmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	cmd.Flags().IntVar(&trail, "trail", config.DefaultTrailLength, "trajectory length, 0 disables")
}

// loadConfig resolves the session config: a preset, else the config file,
// else defaults; then the model argument and any flags set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	model := ""
	if len(args) > 0 {
		model = args[0]
	}

	var cfg *config.Config
	switch {
	case preset != "" && model != "":
		cfg = config.GetPreset(model, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(model))
		}
	case preset != "":
		cfg = config.FindPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
	case configFile != "":
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, logging.WrapError(err, "load config")
		}
	default:
		cfg = config.DefaultConfig()
	}
	if model != "" {
		cfg.Model = model
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("trail") {
		cfg.TrailLength = trail
	}
	if flags.Changed("duration") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("jitter") {
		cfg.Jitter = jitter
	}
	if flags.Changed("addr") {
		cfg.Serve.Addr = addr
	}
	if flags.Changed("allow-origin") {
		cfg.Serve.AllowedOrigins = origins
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFile != "" {
		cfg.Log.File = logFile
	}
	if logJSON {
		cfg.Log.JSON = true
	}
	return cfg, cfg.Validate()
}

// newLogger builds the process logger. Terminal UIs own stderr, so they
// only log when a file is configured.
func newLogger(cfg *config.Config, tui bool) (*slog.Logger, io.Closer, error) {
	var out io.Writer = os.Stderr
	var closer io.Closer = io.NopCloser(nil)
	switch {
	case cfg.Log.File != "" && tui:
		f, err := tea.LogToFile(cfg.Log.File, "fieldsim")
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, f
	case cfg.Log.File != "":
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, f
	case tui:
		return logging.Discard(), closer, nil
	}
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, Output: out})
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return log, closer, nil
}

func runLauncher(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	l := viz.NewLauncher(experiment.NewRegistry(), cfg,
		experiment.Options{Logger: log},
		viz.Options{Theme: theme, Logger: log})
	return viz.Run(l)
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, closer, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closer.Close()

	m, err := viz.Build(experiment.NewRegistry(), cfg,
		experiment.Options{Logger: log},
		viz.Options{FPS: cfg.FPS, Theme: theme, GIFPath: gifPath, Logger: log})
	if err != nil {
		return err
	}
	m.Runner().SetRunning(true)
	log.Info("live session", "model", cfg.Model, "dt", cfg.Dt, "fps", cfg.FPS)
	return viz.Run(m)
}
