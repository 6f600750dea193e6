package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vehicle-info-bot/internal/config"
	"vehicle-info-bot/internal/logger"
	"vehicle-info-bot/internal/metrics"
	"vehicle-info-bot/internal/registry"
	"vehicle-info-bot/internal/service"
)

var rootCmd = &cobra.Command{
	Use:   "vehicle-info-bot",
	Short: "Look up Israeli vehicle registry details by licence plate",
	Long: `vehicle-info-bot answers chat messages that look like licence plates with
the matching record from the data.gov.il vehicle registry.

Configuration is read from app.env and the environment (BOT_TOKEN,
REGISTRY_BASE_URL, HTTP_PORT, ...).`,
	SilenceUsage: true,
}

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot with long polling",
	RunE:  runBot,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, with the Telegram bot when BOT_TOKEN is set",
	Long: `Starts the HTTP API (health probes, /metrics, /api/v1/vehicles/:plate).

When BOT_TOKEN is set the bot runs in the same process: in polling mode the
poller runs next to the server, in webhook mode the webhook is registered and
updates arrive on /api/v1/telegram/webhook.`,
	RunE: runServe,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup [plate]",
	Short: "Look up a single plate and print the details",
	Args:  cobra.ExactArgs(1),
	RunE:  runLookup,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Look up every plate in a spreadsheet",
	Long: `Reads plates from the first column of an xlsx sheet and writes a results
workbook with one row per plate.

Example:
  vehicle-info-bot batch --input plates.xlsx --output results.xlsx --concurrency 4`,
	RunE: runBatch,
}

var (
	batchInput       string
	batchOutput      string
	batchSheet       string
	batchConcurrency int
	batchUpload      bool
)

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "input", "i", "", "Input xlsx file (required)")
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "results.xlsx", "Output xlsx file")
	batchCmd.Flags().StringVar(&batchSheet, "sheet", "", "Sheet to read plates from (default: first sheet)")
	batchCmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 4, "Parallel lookups")
	batchCmd.Flags().BoolVar(&batchUpload, "upload", false, "Upload the results workbook to R2 storage")
	_ = batchCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds the components every command needs.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	registry *registry.Client
	lookup   *service.LookupService
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appLogger := logger.New(cfg.Environment, cfg.LogLevel)
	metrics.Register(prometheus.DefaultRegisterer)

	registryClient := registry.NewClient(cfg.Registry, appLogger)
	lookupService := service.NewLookupService(registryClient, appLogger)

	return &app{
		cfg:      cfg,
		log:      appLogger,
		registry: registryClient,
		lookup:   lookupService,
	}, nil
}
