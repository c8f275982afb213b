// Package app wires configuration into a ready ReportService.
package app

import (
	"context"
	"fmt"

	"github.com/andresuchdata/salesreport/internal/config"
	"github.com/andresuchdata/salesreport/internal/drive"
	"github.com/andresuchdata/salesreport/internal/feed"
	"github.com/andresuchdata/salesreport/internal/service"
	"github.com/andresuchdata/salesreport/internal/state"
	"github.com/andresuchdata/salesreport/internal/storage"
	"github.com/rs/zerolog/log"
)

// NewReportService opens the state store and the configured sources. The
// returned cleanup closes the store.
func NewReportService(ctx context.Context, cfg *config.Config) (*service.ReportService, func(), error) {
	store, err := state.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open state store: %w", err)
	}

	sources := service.Sources{}

	if cfg.Feed.URL != "" {
		sources.Feed = feed.NewClient(cfg.Feed)
	}

	if cfg.Storage.Enabled {
		objects, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("init object storage: %w", err)
		}
		sources.Objects = objects
	}

	if cfg.Drive.CredentialsJSON != "" {
		driveService, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
		if err != nil {
			log.Warn().Err(err).Msg("google drive disabled")
		} else {
			sources.Drive = driveService
		}
	}

	svc := service.NewReportService(store, sources, service.Options{
		RetailPrefixes:    cfg.Report.RetailBranchPrefixes,
		StockiestPrefixes: cfg.Report.StockiestBranchPrefixes,
		TopN:              cfg.Report.TopN,
		RefreshOnLoad:     cfg.Feed.RefreshOnLoad,
		ArchiveUploads:    cfg.Storage.ArchiveUploads,
		ArchivePrefix:     cfg.Storage.Prefix,
	})

	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn().Err(err).Msg("close state store")
		}
	}

	return svc, cleanup, nil
}
