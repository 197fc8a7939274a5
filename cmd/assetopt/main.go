package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"assetopt/internal/app"
	"assetopt/internal/config"
	"assetopt/internal/domain"
	appErrors "assetopt/internal/errors"
	"assetopt/internal/infra/codec"
	"assetopt/internal/infra/exif"
	"assetopt/internal/infra/fs"
	"assetopt/internal/infra/ledger"
	"assetopt/internal/logging"
	"assetopt/internal/presentation"
	"assetopt/internal/tui"
)

type flags struct {
	configPath   string
	source       string
	dest         string
	report       string
	workers      int
	incremental  bool
	ledger       string
	heroVariants bool
	verbose      bool
	dryRun       bool
	interactive  bool
}

func main() {
	config.LoadDotEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// run executes the command line and returns the process exit code. Per-file
// failures still exit 0; only fatal errors exit 1.
func run(ctx context.Context, args []string) int {
	root := newRootCommand()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, appErrors.UserMessage(err))
		return 1
	}
	return 0
}

func newRootCommand() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "assetopt",
		Short:         "Optimize design assets into web-ready WebP images",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return runPipeline(cmd.Context(), cfg)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", "", "YAML config file (default ./"+config.DefaultFile+" when present)")
	pf.StringVarP(&f.source, "source", "s", "", "Source root containing the design assets folder")
	pf.StringVarP(&f.dest, "dest", "d", "", "Destination root for optimized images")
	pf.BoolVarP(&f.verbose, "verbose", "v", false, "Verbose output")

	rf := root.Flags()
	rf.StringVar(&f.report, "report", "", "Report file name inside the destination root")
	rf.IntVarP(&f.workers, "workers", "w", 0, "Number of files converted in parallel")
	rf.BoolVar(&f.incremental, "incremental", false, "Skip files unchanged since the last run")
	rf.StringVar(&f.ledger, "ledger", "", "Ledger database for incremental runs")
	rf.BoolVar(&f.heroVariants, "hero-variants", false, "Also write responsive width variants of hero images")
	rf.BoolVarP(&f.dryRun, "dry-run", "n", false, "Plan the run and print it without writing anything")
	rf.BoolVarP(&f.interactive, "interactive", "i", false, "Show an interactive progress view")

	root.AddCommand(
		newVariantsCommand(&f),
		newClassifyCommand(&f),
		newPublishCommand(&f),
	)
	return root
}

// loadConfig layers defaults, the config file, ASSETOPT_* variables and
// explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	path, required := f.configPath, true
	if path == "" {
		path, required = config.DefaultFile, false
	}
	cfg, err := config.Load(path, required)
	if err != nil {
		return config.Config{}, appErrors.Wrap(appErrors.InvalidConfig, "config", path, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return config.Config{}, appErrors.Wrap(appErrors.InvalidConfig, "env", "", err)
	}

	changed := cmd.Flags().Changed
	if changed("source") {
		cfg.SourceRoot = f.source
	}
	if changed("dest") {
		cfg.DestRoot = f.dest
	}
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("report") {
		cfg.ReportName = f.report
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("incremental") {
		cfg.Incremental = f.incremental
	}
	if changed("ledger") {
		cfg.LedgerPath = f.ledger
	}
	if changed("hero-variants") {
		cfg.HeroVariants = f.heroVariants
	}
	cfg.DryRun = f.dryRun
	cfg.Interactive = f.interactive

	if err := cfg.Validate(); err != nil {
		return config.Config{}, appErrors.Wrap(appErrors.InvalidConfig, "config", path, err)
	}
	return cfg, nil
}

func newCodec() codec.Codec {
	return codec.Codec{FS: fs.OSFS{}, Orientation: exif.Reader{}}
}

func newPlanner(cfg config.Config, logger logging.Logger) (*app.Planner, error) {
	presets, err := cfg.PresetTable()
	if err != nil {
		return nil, appErrors.Wrap(appErrors.InvalidConfig, "presets", "", err)
	}
	return &app.Planner{
		FS: fs.OSFS{},
		Layout: app.Layout{
			SourceRoot:  cfg.SourceRoot,
			BrandRoot:   cfg.BrandRoot(),
			ClientsRoot: cfg.ClientsRoot(),
			DestRoot:    cfg.DestRoot,
		},
		Presets: presets,
		Logger:  logger,
	}, nil
}

func runPipeline(ctx context.Context, cfg config.Config) error {
	filesystem := fs.OSFS{}

	if _, err := filesystem.Stat(cfg.SourceRoot); err != nil {
		return appErrors.Wrap(appErrors.NotFound, "stat", cfg.SourceRoot, err)
	}

	logger := logging.New(os.Stdout, os.Stderr, cfg.Verbose)
	if cfg.Interactive && !cfg.DryRun {
		logger = logging.New(io.Discard, io.Discard, false)
	}

	planner, err := newPlanner(cfg, logger)
	if err != nil {
		return err
	}
	pipeline := &app.Pipeline{
		Planner: planner,
		Executor: &app.Executor{
			Transcoder: app.Transcoder{FS: filesystem, Codec: newCodec()},
			FS:         filesystem,
			Workers:    cfg.Workers,
			Logger:     logger,
		},
		Reporter:   app.ReportWriter{FS: filesystem},
		ReportPath: cfg.ReportPath(),
		Logger:     logger,
	}
	printer := &presentation.Printer{Writer: os.Stdout, Verbose: cfg.Verbose}

	if cfg.DryRun {
		plans, err := pipeline.Plan(ctx)
		if err != nil {
			return err
		}
		printer.PrintDryRun(plans)
		return nil
	}

	if err := filesystem.MkdirAll(cfg.DestRoot, 0o755); err != nil {
		return appErrors.Wrap(appErrors.IOFailure, "mkdir", cfg.DestRoot, err)
	}

	if cfg.Incremental {
		store, err := ledger.Open(cfg.Ledger())
		if err != nil {
			return appErrors.Wrap(appErrors.IOFailure, "open ledger", cfg.Ledger(), err)
		}
		defer store.Close()
		pipeline.Executor.Ledger = store
	}
	if cfg.HeroVariants {
		pipeline.Executor.HeroVariants = &app.VariantGenerator{Codec: newCodec()}
	}

	if cfg.Interactive {
		return runInteractive(ctx, cfg, pipeline)
	}

	pipeline.OnPlan = printer.PrintPassHeader
	pipeline.Executor.OnEvent = printer.PrintEvent

	result, err := pipeline.Run(ctx)
	if err != nil {
		return err
	}
	printer.PrintSummary(result, pipeline.ReportPath)
	return nil
}

func runInteractive(ctx context.Context, cfg config.Config, pipeline *app.Pipeline) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	program := tea.NewProgram(tui.NewModel(tui.Config{
		SourceDir: cfg.SourceRoot,
		DestDir:   cfg.DestRoot,
		Verbose:   cfg.Verbose,
		Cancel:    cancel,
	}))

	pipeline.OnPlan = func(plan domain.Plan) { program.Send(tui.PlanMsg{Plan: plan}) }
	pipeline.Executor.OnEvent = func(ev domain.Event) { program.Send(tui.EventMsg{Event: ev}) }

	done := make(chan error, 1)
	go func() {
		result, err := pipeline.Run(ctx)
		if err != nil {
			program.Send(tui.ErrorMsg{Err: err})
		} else {
			program.Send(tui.DoneMsg{Result: result, ReportPath: pipeline.ReportPath})
		}
		done <- err
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-done
		return appErrors.Wrap(appErrors.Internal, "tui", "", err)
	}
	cancel()
	return <-done
}
