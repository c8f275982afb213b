// internal/service/report_service.go
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"
	"time"

	"github.com/andresuchdata/salesreport/internal/analytics"
	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/andresuchdata/salesreport/internal/drive"
	"github.com/andresuchdata/salesreport/internal/ingest"
	"github.com/andresuchdata/salesreport/internal/report"
	"github.com/andresuchdata/salesreport/internal/state"
	"github.com/andresuchdata/salesreport/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
)

// remoteFileName labels datasets built from the published feed.
const remoteFileName = "remote-feed"

// FeedFetcher downloads the published sales sheet as named records.
type FeedFetcher interface {
	Enabled() bool
	Fetch(ctx context.Context) ([]map[string]string, error)
}

// DriveFetcher lists Drive folders and resolves a file ID to a decodable
// name and its bytes.
type DriveFetcher interface {
	ListFiles(ctx context.Context, folderID string) ([]*drive.File, error)
	Fetch(ctx context.Context, fileID string) (string, []byte, error)
}

// Sources groups the optional ingestion backends. Nil members are disabled.
type Sources struct {
	Feed    FeedFetcher
	Objects storage.ObjectStorage
	Drive   DriveFetcher
}

type Options struct {
	RetailPrefixes    []string
	StockiestPrefixes []string
	TopN              int
	RefreshOnLoad     bool
	ArchiveUploads    bool
	ArchivePrefix     string
	Now               func() time.Time
}

// ReportService owns the active dataset. Ingestions run one at a time; a
// second trigger waits for the first to finish or for its own context to end.
type ReportService struct {
	store   state.Store
	sources Sources
	opts    Options

	ingestSem *semaphore.Weighted

	mu     sync.RWMutex
	active domain.ActiveSource
}

func NewReportService(store state.Store, sources Sources, opts Options) *ReportService {
	if store == nil {
		store = state.NewMemoryStore()
	}
	if opts.RetailPrefixes == nil {
		opts.RetailPrefixes = report.RetailBranchPrefixes
	}
	if opts.StockiestPrefixes == nil {
		opts.StockiestPrefixes = report.StockiestBranchPrefixes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &ReportService{
		store:     store,
		sources:   sources,
		opts:      opts,
		ingestSem: semaphore.NewWeighted(1),
		active:    domain.NoSource(),
	}
}

// Active returns the current source.
func (s *ReportService) Active() domain.ActiveSource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Restore loads the persisted dataset. When none is stored and a feed is
// configured with refresh-on-load, the feed is fetched instead.
func (s *ReportService) Restore(ctx context.Context) error {
	src, err := state.Restore(ctx, s.store)
	if err != nil {
		log.Warn().Err(err).Msg("report: load persisted state failed")
	}

	if _, ok := src.Dataset(); ok {
		s.setActive(src)
		log.Info().Str("source", src.Kind().String()).Msg("report: restored persisted dataset")
		return nil
	}

	if s.opts.RefreshOnLoad && s.feedEnabled() {
		_, err := s.RefreshRemote(ctx)
		return err
	}
	return nil
}

// IngestFile decodes an uploaded spreadsheet and makes it the active dataset.
func (s *ReportService) IngestFile(ctx context.Context, fileName string, r io.Reader) (*domain.Dataset, error) {
	if !ingest.SupportedFile(fileName) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, fileName)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrReadFailure, err)
	}

	ds, err := s.ingestBytes(ctx, fileName, data)
	if err != nil {
		return nil, err
	}

	if s.opts.ArchiveUploads && s.sources.Objects != nil {
		key := path.Join(s.opts.ArchivePrefix, ds.ID+"-"+path.Base(fileName))
		if err := s.sources.Objects.UploadObject(ctx, key, data); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("report: archive upload failed")
		}
	}

	return ds, nil
}

// IngestObject ingests a source file stored in the object bucket.
func (s *ReportService) IngestObject(ctx context.Context, key string) (*domain.Dataset, error) {
	if s.sources.Objects == nil {
		return nil, fmt.Errorf("%w: object storage", domain.ErrSourceDisabled)
	}
	if !ingest.SupportedFile(key) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, key)
	}

	data, err := s.sources.Objects.GetObject(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrReadFailure, err)
	}
	return s.ingestBytes(ctx, path.Base(key), data)
}

// ListObjects lists ingestible objects under prefix.
func (s *ReportService) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if s.sources.Objects == nil {
		return nil, fmt.Errorf("%w: object storage", domain.ErrSourceDisabled)
	}
	objects, err := s.sources.Objects.ListObjects(ctx, prefix)
	if err != nil {
		return nil, err
	}
	out := make([]storage.ObjectInfo, 0, len(objects))
	for _, o := range objects {
		if ingest.SupportedFile(o.Key) {
			out = append(out, o)
		}
	}
	return out, nil
}

// ListDriveFiles lists ingestible files in a Drive folder. An empty folder ID
// lists the root.
func (s *ReportService) ListDriveFiles(ctx context.Context, folderID string) ([]*drive.File, error) {
	if s.sources.Drive == nil {
		return nil, fmt.Errorf("%w: google drive", domain.ErrSourceDisabled)
	}
	files, err := s.sources.Drive.ListFiles(ctx, folderID)
	if err != nil {
		return nil, err
	}
	out := make([]*drive.File, 0, len(files))
	for _, f := range files {
		if ingest.SupportedFile(f.SourceName()) {
			out = append(out, f)
		}
	}
	return out, nil
}

// IngestDriveFile ingests a Google Drive file by ID.
func (s *ReportService) IngestDriveFile(ctx context.Context, fileID string) (*domain.Dataset, error) {
	if s.sources.Drive == nil {
		return nil, fmt.Errorf("%w: google drive", domain.ErrSourceDisabled)
	}

	name, data, err := s.sources.Drive.Fetch(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrReadFailure, err)
	}
	if !ingest.SupportedFile(name) {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, name)
	}
	return s.ingestBytes(ctx, name, data)
}

// RefreshRemote fetches the published feed and replaces the active dataset
// with it. The previous dataset stays active on failure.
func (s *ReportService) RefreshRemote(ctx context.Context) (*domain.Dataset, error) {
	if !s.feedEnabled() {
		return nil, fmt.Errorf("%w: feed url", domain.ErrSourceDisabled)
	}

	return s.serialized(ctx, func() (*domain.Dataset, domain.ActiveSource, error) {
		records, err := s.sources.Feed.Fetch(ctx)
		if err != nil {
			return nil, domain.ActiveSource{}, err
		}
		if len(records) == 0 {
			return nil, domain.ActiveSource{}, fmt.Errorf("%w: feed returned no rows", domain.ErrRemoteFetch)
		}

		rows, err := ingest.NormalizeRecords(records, domain.RequiredColumns)
		if err != nil {
			return nil, domain.ActiveSource{}, err
		}

		ds := s.build(remoteFileName, rows)
		return ds, domain.RemoteSource(ds), nil
	})
}

// Reset drops the persisted state and then the active dataset, and refreshes
// the feed when one is configured. Nothing changes when clearing the store
// fails; the cleared state stands even if the refresh fails.
func (s *ReportService) Reset(ctx context.Context) error {
	if err := s.ingestSem.Acquire(ctx, 1); err != nil {
		return err
	}
	err := s.store.Clear(ctx)
	if err == nil {
		s.setActive(domain.NoSource())
	}
	s.ingestSem.Release(1)
	if err != nil {
		return fmt.Errorf("clear persisted state: %w", err)
	}

	log.Info().Msg("report: state reset")

	if s.feedEnabled() {
		if _, err := s.RefreshRemote(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *ReportService) ingestBytes(ctx context.Context, fileName string, data []byte) (*domain.Dataset, error) {
	return s.serialized(ctx, func() (*domain.Dataset, domain.ActiveSource, error) {
		grid, err := ingest.Decode(fileName, bytes.NewReader(data))
		if err != nil {
			return nil, domain.ActiveSource{}, err
		}

		rows, err := ingest.Normalize(grid, domain.RequiredColumns)
		if err != nil {
			return nil, domain.ActiveSource{}, err
		}

		ds := s.build(fileName, rows)
		return ds, domain.FileSource(ds), nil
	})
}

// serialized runs one ingestion under the ingestion semaphore and commits
// its result. Nothing is committed when fn fails.
func (s *ReportService) serialized(ctx context.Context, fn func() (*domain.Dataset, domain.ActiveSource, error)) (*domain.Dataset, error) {
	if err := s.ingestSem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("wait for ingestion slot: %w", err)
	}
	defer s.ingestSem.Release(1)

	ds, src, err := fn()
	if err != nil {
		log.Error().Err(err).Msg("report: ingestion failed")
		return nil, err
	}

	s.setActive(src)

	if err := state.Persist(ctx, s.store, src); err != nil {
		log.Warn().Err(err).Msg("report: persist state failed")
	}

	log.Info().
		Str("source", src.Kind().String()).
		Str("file", ds.FileName).
		Str("id", ds.ID).
		Int("customers", len(ds.Aggregates.Customers)).
		Int("purchases", ds.Aggregates.PurchaseCount).
		Msg("report: dataset ingested")

	return ds, nil
}

func (s *ReportService) build(fileName string, rows []domain.Transaction) *domain.Dataset {
	return &domain.Dataset{
		ID:         uuid.NewString(),
		FileName:   fileName,
		IngestedAt: s.opts.Now(),
		Aggregates: analytics.Aggregate(rows),
		DateRange:  analytics.ExtractRange(rows),
	}
}

func (s *ReportService) setActive(src domain.ActiveSource) {
	s.mu.Lock()
	s.active = src
	s.mu.Unlock()
}

func (s *ReportService) feedEnabled() bool {
	return s.sources.Feed != nil && s.sources.Feed.Enabled()
}

// dataset returns the active dataset with its source tag.
func (s *ReportService) dataset() (*domain.Dataset, domain.SourceKind, error) {
	src := s.Active()
	ds, ok := src.Dataset()
	if !ok {
		return nil, domain.SourceNone, domain.ErrNoActiveData
	}
	return ds, src.Kind(), nil
}

// IsClientError reports whether err stems from the submitted source rather
// than from the service. Remote feed failures never are.
func IsClientError(err error) bool {
	if errors.Is(err, domain.ErrRemoteFetch) {
		return false
	}
	return errors.Is(err, domain.ErrUnsupportedFormat) ||
		errors.Is(err, domain.ErrReadFailure) ||
		domain.IsSchemaError(err)
}
