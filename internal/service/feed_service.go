package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"feedforge/internal/domain"
	"feedforge/internal/feed"
	"feedforge/internal/repository"
	"feedforge/internal/storage"

	"go.uber.org/zap"
)

const feedContentType = "application/xml"

var (
	// ErrRunInProgress is returned when a run is already executing for
	// the same file key. Starting a run is an atomic claim; concurrent
	// starts are rejected, never interleaved.
	ErrRunInProgress = errors.New("a run for this feed is already in progress")
)

// GenerateOptions are the caller-supplied generation settings. On
// update, zero-valued fields fall back to the record's stored settings.
type GenerateOptions struct {
	PrimaryDomain string
	CurrencyCode  string
	Mode          domain.ExplosionMode
}

// GenerateParams describes a new feed to create and run.
type GenerateParams struct {
	BusinessID string
	Platform   domain.Platform
	Name       string
	FileName   string
	Options    GenerateOptions
}

// RunReport is the outcome of a completed run.
type RunReport struct {
	FileName     string
	FeedName     string
	ProductCount int
	VariantCount int
	ItemCount    int
	SkippedCount int
	FileSize     int64
}

// ExcludeReport states the outcome of each exclude operation
// independently.
type ExcludeReport struct {
	FileDeleted   bool
	RecordDeleted bool
}

// FeedService owns the feed run lifecycle: it creates and claims run
// records, drives generation end to end and records the outcome.
type FeedService interface {
	Generate(ctx context.Context, params GenerateParams) (*RunReport, error)
	Update(ctx context.Context, businessID, fileName string, opts *GenerateOptions) (*RunReport, error)
	Exclude(ctx context.Context, businessID, fileName string) (*ExcludeReport, error)
	Get(ctx context.Context, fileName string) (*domain.FeedRun, error)
}

type feedService struct {
	products   repository.ProductRepository
	feeds      repository.FeedRepository
	artifacts  storage.ArtifactStore
	assemblers *feed.Registry
	locks      *keyLock
	runTimeout time.Duration
	logger     *zap.Logger
}

// NewFeedService creates a new instance of FeedService
func NewFeedService(
	products repository.ProductRepository,
	feeds repository.FeedRepository,
	artifacts storage.ArtifactStore,
	assemblers *feed.Registry,
	runTimeout time.Duration,
	logger *zap.Logger,
) FeedService {
	return &feedService{
		products:   products,
		feeds:      feeds,
		artifacts:  artifacts,
		assemblers: assemblers,
		locks:      newKeyLock(),
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Generate creates a new feed record and executes its first run.
func (s *feedService) Generate(ctx context.Context, params GenerateParams) (*RunReport, error) {
	// Reject unknown platforms before any state is written.
	if !s.assemblers.Supports(params.Platform) {
		return nil, fmt.Errorf("%w: %s", feed.ErrUnsupportedPlatform, params.Platform)
	}

	fileName := params.FileName
	if fileName == "" {
		fileName = fmt.Sprintf("%s_%d.xml", params.BusinessID, time.Now().UnixMilli())
		s.logger.Info("Generated file name automatically",
			zap.String("business_id", params.BusinessID),
			zap.String("file_name", fileName),
		)
	}

	if !s.locks.TryAcquire(fileName) {
		return nil, ErrRunInProgress
	}
	defer s.locks.Release(fileName)

	mode := params.Options.Mode
	if mode == "" {
		mode = domain.ModeGroup
	}

	now := time.Now()
	run := &domain.FeedRun{
		BusinessID: params.BusinessID,
		Name:       params.Name,
		FileName:   fileName,
		Platform:   params.Platform,
		Mode:       mode,
		Status:     domain.RunStatusPending,
		Settings: domain.FeedSettings{
			PrimaryDomain: params.Options.PrimaryDomain,
			CurrencyCode:  params.Options.CurrencyCode,
		},
		History:   []domain.HistoryEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.feeds.Create(ctx, run); err != nil {
		return nil, err
	}

	s.logger.Info("Feed record created",
		zap.String("business_id", run.BusinessID),
		zap.String("file_name", run.FileName),
		zap.String("platform", string(run.Platform)),
	)

	return s.execute(ctx, run)
}

// Update re-executes an existing feed, merging the provided options over
// the record's stored settings; unspecified options keep their prior
// values.
func (s *feedService) Update(ctx context.Context, businessID, fileName string, opts *GenerateOptions) (*RunReport, error) {
	run, err := s.feeds.FindByBusinessAndFileName(ctx, businessID, fileName)
	if err != nil {
		return nil, err
	}
	if !s.assemblers.Supports(run.Platform) {
		return nil, fmt.Errorf("%w: %s", feed.ErrUnsupportedPlatform, run.Platform)
	}

	if !s.locks.TryAcquire(fileName) {
		return nil, ErrRunInProgress
	}
	defer s.locks.Release(fileName)

	if opts != nil {
		if opts.Mode != "" {
			run.Mode = opts.Mode
		}
		if opts.PrimaryDomain != "" {
			run.Settings.PrimaryDomain = opts.PrimaryDomain
		}
		if opts.CurrencyCode != "" {
			run.Settings.CurrencyCode = opts.CurrencyCode
		}
	}

	return s.execute(ctx, run)
}

// Exclude deletes the feed artifact and record, reporting each outcome
// independently. A missing artifact counts as deleted; a true blob-store
// failure aborts before the record delete so both remain for retry. A
// missing record is reported but is not an error.
func (s *feedService) Exclude(ctx context.Context, businessID, fileName string) (*ExcludeReport, error) {
	if err := s.artifacts.Delete(ctx, fileName); err != nil {
		return nil, fmt.Errorf("failed to delete feed artifact: %w", err)
	}

	report := &ExcludeReport{FileDeleted: true}

	err := s.feeds.DeleteByBusinessAndFileName(ctx, businessID, fileName)
	switch {
	case errors.Is(err, repository.ErrFeedNotFound):
		s.logger.Info("No feed record found to delete",
			zap.String("business_id", businessID),
			zap.String("file_name", fileName),
		)
	case err != nil:
		return nil, err
	default:
		report.RecordDeleted = true
	}

	s.logger.Info("Feed exclusion completed",
		zap.String("file_name", fileName),
		zap.Bool("file_deleted", report.FileDeleted),
		zap.Bool("record_deleted", report.RecordDeleted),
	)
	return report, nil
}

// Get returns the run record for a file key.
func (s *feedService) Get(ctx context.Context, fileName string) (*domain.FeedRun, error) {
	return s.feeds.FindByFileName(ctx, fileName)
}

// execute drives one run attempt over an already-claimed record:
// processing transition, generation, then exactly one terminal
// transition. The attempt runs under the configured deadline so a hung
// dependency cannot strand the record in processing.
func (s *feedService) execute(ctx context.Context, run *domain.FeedRun) (*RunReport, error) {
	next := startRun(*run, time.Now())
	if err := s.feeds.Update(ctx, &next); err != nil {
		return nil, err
	}

	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	report, err := s.runOnce(runCtx, &next)
	if err != nil {
		s.logger.Error("Feed generation failed",
			zap.String("file_name", next.FileName),
			zap.String("platform", string(next.Platform)),
			zap.Error(err),
		)
		failed := failRun(next, err.Error(), string(debug.Stack()), time.Now())
		if updErr := s.feeds.Update(ctx, &failed); updErr != nil {
			s.logger.Error("Failed to record run failure",
				zap.String("file_name", next.FileName),
				zap.Error(updErr),
			)
		}
		return nil, err
	}

	completed := completeRun(next, report.ProductCount, report.VariantCount, report.FileSize, time.Now())
	if err := s.feeds.Update(ctx, &completed); err != nil {
		return nil, err
	}

	s.logger.Info("Feed generation completed",
		zap.String("file_name", completed.FileName),
		zap.String("platform", string(completed.Platform)),
		zap.Int("product_count", report.ProductCount),
		zap.Int("variant_count", report.VariantCount),
		zap.Int("skipped_count", report.SkippedCount),
		zap.Int64("file_size", report.FileSize),
	)
	return report, nil
}

// runOnce performs the catalog read, document assembly and artifact
// write for one attempt.
func (s *feedService) runOnce(ctx context.Context, run *domain.FeedRun) (*RunReport, error) {
	asm, err := s.assemblers.For(run.Platform)
	if err != nil {
		return nil, err
	}

	products, err := s.products.ListActiveByBusiness(ctx, run.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if len(products) == 0 {
		s.logger.Warn("No active products found for feed generation",
			zap.String("business_id", run.BusinessID),
		)
	}

	result, err := asm.Assemble(products, feed.Options{
		PrimaryDomain: run.Settings.PrimaryDomain,
		CurrencyCode:  run.Settings.CurrencyCode,
		Mode:          run.Mode,
	})
	if err != nil {
		return nil, err
	}

	size, err := s.artifacts.Put(ctx, run.FileName, result.Data, feedContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to persist feed artifact: %w", err)
	}

	return &RunReport{
		FileName:     run.FileName,
		FeedName:     run.Name,
		ProductCount: result.ProductCount,
		VariantCount: result.VariantCount,
		ItemCount:    result.ItemCount,
		SkippedCount: result.SkippedCount,
		FileSize:     size,
	}, nil
}
