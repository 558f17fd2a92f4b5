package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/TobiSchelling/dissnovelty/internal/config"
	"github.com/TobiSchelling/dissnovelty/internal/database"
	"github.com/TobiSchelling/dissnovelty/internal/dataset"
	"github.com/TobiSchelling/dissnovelty/internal/logging"
	"github.com/TobiSchelling/dissnovelty/internal/phrases"
	"github.com/TobiSchelling/dissnovelty/internal/pipeline"
	"github.com/TobiSchelling/dissnovelty/internal/server"
)

var version = "dev"

var (
	verbose    bool
	configPath string
	cfg        *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "dissnovelty",
	Short:   "Novelty of dissertation titles",
	Long:    "dissnovelty marks dissertations whose titles introduce noun phrases unseen in any earlier year.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}
		logging.Init(logging.Options{Level: level})

		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if !verbose {
			level = cfg.Logging.Level
		}
		logging.Init(logging.Options{Level: level, Format: cfg.Logging.Format})
		log.Debug().Str("config", path).Msg("loaded config")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(prepareCmd)
	rootCmd.AddCommand(characteristicsCmd)
	rootCmd.AddCommand(noveltyCmd)
	rootCmd.AddCommand(panelCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("dissnovelty", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/dissnovelty/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to point at your data files and choose a phrase extractor.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show run store and cache status",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := db.GetStats()
		if err != nil {
			return fmt.Errorf("getting stats: %w", err)
		}

		fmt.Printf("Database: %s\n\n", db.Path())
		fmt.Println("Runs:")
		fmt.Printf("  Total: %d\n", stats.Runs)
		fmt.Printf("  Finished: %d\n", stats.FinishedRuns)
		fmt.Println("\nPhrase cache:")
		fmt.Printf("  Entries: %s\n", dataset.FormatCount(stats.CachedEntries))
		fmt.Printf("  Extractors: %d\n", stats.Extractors)

		latest, err := db.GetLatestRun()
		if err != nil {
			return err
		}
		if latest != nil {
			fmt.Println("\nLatest run:")
			fmt.Printf("  #%d with %s\n", latest.ID, latest.Extractor)
			fmt.Printf("  %s of %s dissertations novel, %s novel phrases\n",
				dataset.FormatCount(latest.NovelDocuments), dataset.FormatCount(latest.Documents),
				dataset.FormatCount(latest.NovelPhrases))
		}

		fmt.Println("\nStatistics:")
		for _, key := range []string{"N_dissertations", "N_women", "novel_N_novel", "novel_N_terms", "doctor_N_obs"} {
			if n, err := dataset.ReadStat(cfg.Paths.StatisticsDir, key); err == nil {
				fmt.Printf("  %s: %s\n", key, dataset.FormatCount(n))
			}
		}
		return nil
	},
}

// --- stage commands ---

func stageCmd(use, short string, stage func(*config.Config) pipeline.StepResult) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			step := stage(cfg)
			printSteps([]pipeline.StepResult{step})
			return step.Err
		},
	}
}

var (
	prepareCmd         = stageCmd("prepare", "Build the dissertations table from the works table", pipeline.Prepare)
	characteristicsCmd = stageCmd("characteristics", "Derive student characteristics", pipeline.Characteristics)
	panelCmd           = stageCmd("panel", "Write the cohort panel and individual master", pipeline.Panel)
)

// --- novelty and run commands ---

var noveltyCmd = &cobra.Command{
	Use:   "novelty",
	Short: "Estimate title novelty: load -> extract -> estimate -> write -> record",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context(), false, false)
	},
}

var (
	dryRun bool
	runAll bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the novelty estimation, or with --all every stage from prepare to panel",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context(), dryRun, runAll)
	},
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without executing")
	runCmd.Flags().BoolVar(&runAll, "all", false, "Also run prepare, characteristics and panel")
}

func runPipeline(ctx context.Context, dry, all bool) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	pipe, err := pipeline.New(cfg, db)
	if err != nil {
		if errors.Is(err, phrases.ErrExtractorUnavailable) {
			return fmt.Errorf("%w; check that %s is running or use backend: heuristic", err, cfg.Extractor.Backend)
		}
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var result *pipeline.Result
	switch {
	case dry:
		result = pipe.DryRun()
	case all:
		result = pipe.RunAll(ctx, newProgressBar)
	default:
		result = pipe.Run(ctx, newProgressBar)
	}
	printSteps(result.Steps)

	if err := result.Err(); err != nil {
		return err
	}
	if !dry {
		color.Green("\nPipeline complete! Run 'dissnovelty serve' to review run #%d.", result.RunID)
	}
	return nil
}

func newProgressBar(total int) phrases.Progress {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString("Extracting noun phrases")),
		progressbar.OptionSetItsString("titles"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(os.Stderr) }),
	)
}

func printSteps(steps []pipeline.StepResult) {
	for i, step := range steps {
		fmt.Printf("\nStep %d/%d: %s\n", i+1, len(steps), color.New(color.Bold).Sprint(step.Name))
		if step.Err != nil {
			color.Red("  Error: %v", step.Err)
		} else {
			fmt.Printf("  %s\n", step.Summary)
		}
	}
}

// --- extract command ---

var extractCmd = &cobra.Command{
	Use:   "extract [title]",
	Short: "Show raw and cleaned noun phrases of one title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ex, err := phrases.New(cfg.Extractor, cfg.Models.NounPhrases, nil)
		if err != nil {
			return err
		}
		title := strings.Join(args, " ")
		raw, err := ex.Extract(cmd.Context(), title)
		if err != nil {
			return err
		}

		fmt.Printf("Extractor: %s\n\n", ex.Name())
		fmt.Println("Raw chunks:")
		for _, p := range raw {
			fmt.Printf("  %q\n", p)
		}
		cleaned := phrases.Clean(raw)
		fmt.Println("\nCleaned phrases:")
		for _, p := range cleaned.Sorted() {
			color.Green("  %q", p)
		}
		for _, p := range raw {
			if !cleaned.Contains(p) {
				color.Yellow("  dropped or rewritten: %q", p)
			}
		}
		return nil
	},
}

// --- serve command ---

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local review server",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return server.Serve(ctx, db, port)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 8000, "Port to run server on")
}

// --- cache command ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the phrase extraction cache",
}

var cacheExtractor string

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete cached extractions",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.ClearPhraseCache(cacheExtractor)
		if err != nil {
			return err
		}
		if cacheExtractor == "" {
			fmt.Printf("Removed %s cached extractions\n", dataset.FormatCount(int(n)))
		} else {
			fmt.Printf("Removed %s cached extractions of %s\n", dataset.FormatCount(int(n)), cacheExtractor)
		}
		return nil
	},
}

func init() {
	cacheClearCmd.Flags().StringVar(&cacheExtractor, "extractor", "", "Only clear entries of this extractor (e.g. heuristic, ollama/llama3.1:8b)")
	cacheCmd.AddCommand(cacheClearCmd)
}

func openDB() (*database.DB, error) {
	if err := os.MkdirAll(cfg.GetDataDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return database.Open(cfg.DatabasePath())
}
