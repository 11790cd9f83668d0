package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"feedforge/internal/domain"
)

var (
	ErrFeedNotFound      = errors.New("feed not found")
	ErrFeedAlreadyExists = errors.New("feed with this file name already exists")
)

// FeedRepository persists FeedRun records. lastRun and history ride as
// JSONB columns so the record keeps its document shape end to end.
type FeedRepository interface {
	Create(ctx context.Context, run *domain.FeedRun) error
	FindByFileName(ctx context.Context, fileName string) (*domain.FeedRun, error)
	FindByBusinessAndFileName(ctx context.Context, businessID, fileName string) (*domain.FeedRun, error)
	Update(ctx context.Context, run *domain.FeedRun) error
	DeleteByBusinessAndFileName(ctx context.Context, businessID, fileName string) error
}

type feedRepository struct {
	db *sql.DB
}

// NewFeedRepository creates a new instance of FeedRepository
func NewFeedRepository(db *sql.DB) FeedRepository {
	return &feedRepository{db: db}
}

const feedColumns = `id, business_id, name, file_name, platform, product_type, status,
	product_count, variant_count, file_size, settings, last_run, history, created_at, updated_at`

// Create inserts a new feed record and fills in its generated ID.
func (r *feedRepository) Create(ctx context.Context, run *domain.FeedRun) error {
	query := `
		INSERT INTO feeds (business_id, name, file_name, platform, product_type, status,
			product_count, variant_count, file_size, settings, last_run, history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`

	settings, lastRun, history, err := encodeRunDocuments(run)
	if err != nil {
		return err
	}

	err = r.db.QueryRowContext(
		ctx,
		query,
		run.BusinessID,
		run.Name,
		run.FileName,
		run.Platform,
		run.Mode,
		run.Status,
		run.ProductCount,
		run.VariantCount,
		run.FileSize,
		settings,
		lastRun,
		history,
		run.CreatedAt,
		run.UpdatedAt,
	).Scan(&run.ID)

	if err != nil {
		return fmt.Errorf("failed to create feed record: %w", err)
	}
	return nil
}

// FindByFileName retrieves a feed record by its unique file key.
func (r *feedRepository) FindByFileName(ctx context.Context, fileName string) (*domain.FeedRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM feeds WHERE file_name = $1`, feedColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, fileName))
}

// FindByBusinessAndFileName retrieves a feed record scoped to a business.
func (r *feedRepository) FindByBusinessAndFileName(ctx context.Context, businessID, fileName string) (*domain.FeedRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM feeds WHERE business_id = $1 AND file_name = $2`, feedColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, businessID, fileName))
}

// Update persists the full record value produced by a state transition.
func (r *feedRepository) Update(ctx context.Context, run *domain.FeedRun) error {
	query := `
		UPDATE feeds
		SET name = $2, platform = $3, product_type = $4, status = $5,
		    product_count = $6, variant_count = $7, file_size = $8,
		    settings = $9, last_run = $10, history = $11, updated_at = $12
		WHERE file_name = $1
	`

	settings, lastRun, history, err := encodeRunDocuments(run)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(
		ctx,
		query,
		run.FileName,
		run.Name,
		run.Platform,
		run.Mode,
		run.Status,
		run.ProductCount,
		run.VariantCount,
		run.FileSize,
		settings,
		lastRun,
		history,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update feed record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrFeedNotFound
	}
	return nil
}

// DeleteByBusinessAndFileName removes the feed record for a business.
func (r *feedRepository) DeleteByBusinessAndFileName(ctx context.Context, businessID, fileName string) error {
	query := `DELETE FROM feeds WHERE business_id = $1 AND file_name = $2`

	result, err := r.db.ExecContext(ctx, query, businessID, fileName)
	if err != nil {
		return fmt.Errorf("failed to delete feed record: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrFeedNotFound
	}
	return nil
}

func (r *feedRepository) scanOne(row *sql.Row) (*domain.FeedRun, error) {
	run := &domain.FeedRun{}
	var (
		settings []byte
		lastRun  []byte
		history  []byte
	)

	err := row.Scan(
		&run.ID,
		&run.BusinessID,
		&run.Name,
		&run.FileName,
		&run.Platform,
		&run.Mode,
		&run.Status,
		&run.ProductCount,
		&run.VariantCount,
		&run.FileSize,
		&settings,
		&lastRun,
		&history,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFeedNotFound
		}
		return nil, fmt.Errorf("failed to find feed record: %w", err)
	}

	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &run.Settings); err != nil {
			return nil, fmt.Errorf("failed to decode feed settings: %w", err)
		}
	}
	if len(lastRun) > 0 {
		run.LastRun = &domain.RunResult{}
		if err := json.Unmarshal(lastRun, run.LastRun); err != nil {
			return nil, fmt.Errorf("failed to decode last run: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &run.History); err != nil {
			return nil, fmt.Errorf("failed to decode run history: %w", err)
		}
	}
	return run, nil
}

// encodeRunDocuments marshals the JSONB columns. last_run is stored as
// NULL until a first attempt starts.
func encodeRunDocuments(run *domain.FeedRun) (settings, lastRun, history []byte, err error) {
	settings, err = json.Marshal(run.Settings)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode feed settings: %w", err)
	}
	if run.LastRun != nil {
		lastRun, err = json.Marshal(run.LastRun)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to encode last run: %w", err)
		}
	}
	entries := run.History
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	history, err = json.Marshal(entries)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode run history: %w", err)
	}
	return settings, lastRun, history, nil
}
