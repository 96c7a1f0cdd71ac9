package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/medYousseffathallah/Datacollector/internal/app"
	"github.com/medYousseffathallah/Datacollector/internal/config"
	"github.com/medYousseffathallah/Datacollector/internal/logger"
	"github.com/medYousseffathallah/Datacollector/internal/service/dataset"
	"github.com/medYousseffathallah/Datacollector/internal/service/filter"
	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "collector",
	Short: "Edge dataset collector",
	Long: `Collector pulls frames from the configured cameras, runs segmentation on a
sampled subset and writes the results as a YOLO-style dataset: JPEG images,
polygon label files and a SQLite metadata table.

Examples:
  collector --config config/config.yaml
  collector reindex --config config/config.yaml
  collector stats`,
	SilenceUsage: true,
	RunE:         runCollector,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the collector until SIGINT/SIGTERM",
	RunE:  runCollector,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Record images that have a label file but no metadata row",
	RunE:  runReindex,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dataset statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Path to the YAML config")
	rootCmd.AddCommand(runCmd, reindexCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setup() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

func runCollector(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Close()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Error("Failed to start collector: %v", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		log.Error("Collector failed: %v", err)
		return err
	}
	return nil
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Close()

	writer, err := dataset.Open(cfg.Storage, log)
	if err != nil {
		return err
	}
	defer writer.Close()

	names := filter.New(0, nil, cfg.Inference.ClassNames, nil)
	report, err := writer.Reindex(names.ClassName)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Scanned %d images, inserted %d rows\n", report.Scanned, report.Inserted)
	if report.Skipped > 0 {
		fmt.Printf("⚠️  Skipped %d files (no label or invalid name)\n", report.Skipped)
	}
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Close()

	writer, err := dataset.Open(cfg.Storage, log)
	if err != nil {
		return err
	}
	defer writer.Close()

	stats, err := writer.Repository().GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("📊 Dataset Statistics:\n")
	fmt.Printf("   Total samples: %d\n", stats.TotalSamples)
	fmt.Printf("   Total objects: %d\n", stats.TotalObjects)
	fmt.Printf("   Per split:\n")
	for _, split := range sortedKeys(stats.PerSplit) {
		fmt.Printf("      - %s: %d\n", split, stats.PerSplit[split])
	}
	fmt.Printf("   Per camera:\n")
	for _, cam := range sortedKeys(stats.PerCamera) {
		fmt.Printf("      - %s: %d\n", cam, stats.PerCamera[cam])
	}
	return nil
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
