// Command batch runs a parameter sweep headlessly and writes per-run results
// and per-combination summaries.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/pthm-cable/seir/batch"
	"github.com/pthm-cable/seir/config"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "batch_output", "Directory for results and summary CSVs")
	workers := flag.Int("workers", 0, "Parallel runs (0 = batch.workers from config)")
	iterations := flag.Int("iterations", 0, "Runs per combination (0 = batch.iterations from config)")
	seed := flag.Int64("seed", 0, "Base seed (0 = batch.base_seed from config)")
	maxDays := flag.Float64("max-days", -1, "Stop each run after N days (-1 = schedule.max_days, 0 = until resolved)")
	sqlitePath := flag.String("sqlite", "", "Also archive results in this SQLite database")
	verbose := flag.Bool("v", false, "Log every finished run")
	list := flag.Bool("list", false, "List the batch ids archived in -sqlite and exit")
	load := flag.String("load", "", "Re-summarize an archived batch id from -sqlite instead of running")
	fromCSV := flag.String("from-csv", "", "Re-summarize a results CSV instead of running")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	var err error
	switch {
	case *list:
		err = listBatches(context.Background(), *sqlitePath)
	case *load != "":
		_, err = summarizeArchived(context.Background(), *sqlitePath, *load, *outputDir)
	case *fromCSV != "":
		_, err = summarizeCSV(*fromCSV, *outputDir)
	default:
		err = run(*configPath, *outputDir, *workers, *iterations, *seed, *maxDays, *sqlitePath)
	}
	if err != nil {
		slog.Error("batch failed", "error", err)
		os.Exit(1)
	}
}

// listBatches logs every batch id stored in the database at path.
func listBatches(ctx context.Context, sqlitePath string) error {
	store, err := batch.OpenSQLite(ctx, sqlitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := store.Batches(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		slog.Info("archived batch", "batch_id", id)
	}
	slog.Info("batches listed", "db", sqlitePath, "count", len(ids))
	return nil
}

// summarizeArchived loads batchID from the database and writes its summary
// to outputDir as summary_<batchID>.csv.
func summarizeArchived(ctx context.Context, sqlitePath, batchID, outputDir string) (string, error) {
	store, err := batch.OpenSQLite(ctx, sqlitePath)
	if err != nil {
		return "", err
	}
	defer store.Close()

	results, err := store.LoadResults(ctx, batchID)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("batch %q has no archived runs", batchID)
	}
	return writeSummary(results, outputDir, "summary_"+batchID+".csv")
}

// summarizeCSV reads a results CSV and writes its summary into outputDir
// as summary_<name>.csv.
func summarizeCSV(path, outputDir string) (string, error) {
	results, err := batch.ReadResults(path)
	if err != nil {
		return "", err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return writeSummary(results, outputDir, "summary_"+name+".csv")
}

func writeSummary(results []batch.Result, outputDir, name string) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("creating output dir: %w", err)
	}
	summaries := batch.Summarize(results)
	path := filepath.Join(outputDir, name)
	if err := batch.WriteCSV(path, summaries); err != nil {
		return "", err
	}
	logSummaries(summaries)
	slog.Info("summary written", "runs", len(results), "combinations", len(summaries), "summary", path)
	return path, nil
}

func logSummaries(summaries []batch.Summary) {
	for _, s := range summaries {
		slog.Info("summary",
			"combination", s.Combination,
			"runs", s.Runs,
			"resolved", s.Resolved,
			"mean_days", s.MeanDays,
			"mean_percent_infected", s.MeanPercentInfected,
			"std_percent_infected", s.StdPercentInfected,
			"mean_peak_infected", s.MeanPeakInfected,
		)
	}
}

func run(configPath, outputDir string, workers, iterations int, seed int64, maxDays float64, sqlitePath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	r := batch.NewRunner(cfg)
	if workers > 0 {
		r.Workers = workers
	}
	if iterations > 0 {
		r.Iterations = iterations
	}
	if seed != 0 {
		r.BaseSeed = seed
	}
	if maxDays >= 0 {
		r.MaxTicks = int(math.Round(maxDays * float64(cfg.Schedule.DaySteps)))
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results, err := r.Run(ctx)
	if err != nil {
		return err
	}
	summaries := batch.Summarize(results)

	stamp := start.Unix()
	resultsPath := filepath.Join(outputDir, fmt.Sprintf("results_%d.csv", stamp))
	if err := batch.WriteCSV(resultsPath, results); err != nil {
		return err
	}
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("summary_%d.csv", stamp))
	if err := batch.WriteCSV(summaryPath, summaries); err != nil {
		return err
	}
	if err := cfg.WriteYAML(filepath.Join(outputDir, fmt.Sprintf("config_%d.yaml", stamp))); err != nil {
		return err
	}

	if sqlitePath != "" {
		store, err := batch.OpenSQLite(ctx, sqlitePath)
		if err != nil {
			return err
		}
		defer store.Close()
		batchID := fmt.Sprintf("batch_%d", stamp)
		if err := store.SaveResults(ctx, batchID, results); err != nil {
			return err
		}
		slog.Info("results archived", "db", sqlitePath, "batch_id", batchID)
	}

	logSummaries(summaries)
	slog.Info("batch complete",
		"runs", len(results),
		"combinations", len(summaries),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"results", resultsPath,
		"summary", summaryPath,
	)
	return nil
}
