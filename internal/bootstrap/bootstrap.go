// Package bootstrap provides dependency initialization for the service.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/veogen/veogen-api/internal/artifact"
	"github.com/veogen/veogen-api/internal/config"
	"github.com/veogen/veogen-api/internal/generator"
	"github.com/veogen/veogen-api/internal/job"
	"github.com/veogen/veogen-api/internal/storage"
	"github.com/veogen/veogen-api/internal/veo"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	Service   *job.Service
	Artifacts *artifact.Store
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	backend, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	artifacts := artifact.NewStore(backend)
	fetcher := artifact.NewFetcher(artifacts)

	var clientOpts []veo.ClientOption
	if cfg.VeoBaseURL != "" {
		clientOpts = append(clientOpts, veo.WithBaseURL(cfg.VeoBaseURL))
	}
	client := veo.NewClient(clientOpts...)

	gen := generator.NewVeoGenerator(client, logger,
		generator.WithPollInterval(cfg.PollInterval),
	)

	svc := job.NewService(
		job.NewHistory(),
		gen,
		fetcher,
		artifacts,
		job.NewNotices(),
		logger,
	)

	return &Dependencies{
		Service:   svc,
		Artifacts: artifacts,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 artifact storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.ArtifactDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local artifact storage configured",
		slog.String("dir", localStore.Dir()),
	)
	return localStore, nil
}
