// Command datasetxfer uploads and downloads datasets against the
// object-store and metadata services configured via environment variables.
// It is deliberately thin: no flag-parsing library, no config file — every
// setting comes from config.Load, and every positional argument is read
// straight off os.Args.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/tangramvision/datasetxfer/config"
	"github.com/tangramvision/datasetxfer/coordinator"
	"github.com/tangramvision/datasetxfer/metadata"
	"github.com/tangramvision/datasetxfer/objectstore"
	"github.com/tangramvision/datasetxfer/progress"
	protocs3 "github.com/tangramvision/datasetxfer/protoc/s3"
	"github.com/tangramvision/datasetxfer/transfer"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := logr.FromSlogHandler(slog.NewJSONHandler(os.Stderr, nil))

	if err := run(ctx, logger, os.Args[1:]); err != nil {
		logger.Error(err, "datasetxfer failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, logger logr.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: datasetxfer <upload|download> ...")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(ctx); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	store := protocs3.NewClient(cfg.ObjectStore.Endpoint, cfg.ObjectStore.Bucket, cfg.ObjectStore.Region,
		cfg.ObjectStore.AccessKeyID, cfg.ObjectStore.SecretAccessKey)
	objClient := objectstore.New(logger, store, cfg.ObjectStore.Bucket)

	engine := transfer.NewEngine(logger, objClient, buildURLBuilder(cfg.ObjectStore),
		transfer.WithConcurrentRequestLimit(cfg.ConcurrentRequestLimit),
		transfer.WithRateLimit(cfg.RateLimitBytesPerSecond))

	metaClient, err := metadata.New(logger, cfg.Metadata.BaseURL, cfg.Metadata.BearerToken)
	if err != nil {
		return fmt.Errorf("building metadata client: %w", err)
	}

	reporter := progress.NewReporter(logger, renderBars, 200*time.Millisecond)
	defer reporter.Close()

	coord := coordinator.New(logger, metaClient, engine, reporter,
		coordinator.WithMaxFilesConcurrently(cfg.MaxFilesConcurrently))

	switch args[0] {
	case "upload":
		return runUpload(ctx, coord, cfg.Metadata.BearerToken, args[1:])
	case "download":
		return runDownload(ctx, coord, args[1:])
	default:
		return fmt.Errorf("unknown command %q (expected upload or download)", args[0])
	}
}

// runUpload expects: <system-id> <plex-path> <object-space-csv-path> [data-file-path ...].
// The plex and object-space paths occupy positions 0 and 1 of the resulting
// path list (see coordinator.rolesFromResults).
func runUpload(ctx context.Context, coord *coordinator.Coordinator, bearerToken string, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: datasetxfer upload <system-id> <plex-path> <object-space-csv-path> [data-file-path ...]")
	}
	systemID, paths := args[0], args[1:]

	userID, err := coordinator.UserIDFromJWT(bearerToken)
	if err != nil {
		return fmt.Errorf("resolving user id from bearer token: %w", err)
	}

	datasetID, err := coord.UploadDataset(ctx, systemID, userID, paths)
	if err != nil {
		return err
	}
	fmt.Printf("created dataset %s\n", datasetID)
	return nil
}

// runDownload expects: <dataset-id> <dest-dir> [prefix ...].
func runDownload(ctx context.Context, coord *coordinator.Coordinator, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: datasetxfer download <dataset-id> <dest-dir> [prefix ...]")
	}
	datasetID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("parsing dataset id: %w", err)
	}
	destDir, prefixes := args[1], args[2:]
	return coord.DownloadDataset(ctx, datasetID, prefixes, destDir)
}

// buildURLBuilder resolves the transfer.URLBuilder matching the configured
// provider's URL shape (§6's two listed profiles).
func buildURLBuilder(cfg config.ObjectStoreConfig) transfer.URLBuilder {
	switch cfg.Provider {
	case config.ProviderDigitalOcean:
		return func(key string) string {
			return fmt.Sprintf("https://%s.%s/%s", cfg.Bucket, cfg.Endpoint, key)
		}
	default: // config.ProviderAWS
		return func(key string) string {
			return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", cfg.Bucket, cfg.Region, key)
		}
	}
}

func renderBars(bars []progress.Snapshot) {
	for _, bar := range bars {
		state := " "
		if bar.Finished {
			state = "x"
		}
		fmt.Printf("\r[%s] %-40s %d/%d bytes", state, bar.Name, bar.Transferred, bar.Total)
	}
	fmt.Println()
}
