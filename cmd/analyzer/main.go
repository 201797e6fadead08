package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/config"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/models"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/pnl"
	"github.com/aman-zulfiqar/solana-wallet-pnl/internal/storage"
)

// main runs a one-shot wallet analysis from a JSON transfer history file
// and prints the report to stdout. With -persist the report is also written
// to ClickHouse.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetOutput(os.Stderr)
	logrus.SetFormatter(logger.Formatter)
	logrus.SetOutput(os.Stderr)

	loadEnv(logger)

	wallet := flag.String("wallet", "", "wallet address to analyze (base58)")
	input := flag.String("input", "", "path to JSON file with provider transfer records")
	persist := flag.Bool("persist", false, "write the report to ClickHouse")
	pretty := flag.Bool("pretty", false, "indent the JSON output")
	flag.Parse()

	if *wallet == "" || *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		logger.WithError(err).Fatal("failed to read input file")
	}
	var records []models.ProviderTransferRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.WithError(err).Fatal("failed to parse input file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("interrupted")
		cancel()
	}()

	analyzer := pnl.NewAnalyzer(cfg)
	report, err := analyzer.Analyze(ctx, *wallet, records)
	if err != nil {
		logger.WithError(err).Fatal("analysis failed")
	}

	if *persist {
		store, err := storage.NewClickHouseStore(cfg)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to ClickHouse")
		}
		defer func() {
			_ = store.Close()
		}()
		if err := store.InsertReport(ctx, report); err != nil {
			logger.WithError(err).Fatal("failed to persist report")
		}
		logger.Info("report persisted to ClickHouse")
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		logger.WithError(err).Fatal("failed to encode report")
	}
}

func loadEnv(logger *logrus.Logger) {
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		logger.Debugf("no .env file found at %s, using system environment variables", envPath)
	}
}
