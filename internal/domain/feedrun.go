package domain

import "time"

// Platform identifies the advertising platform a feed targets.
type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformPinterest Platform = "pinterest"
)

// ExplosionMode controls how products map to feed items.
type ExplosionMode string

const (
	// ModeGroup emits one item per product, priced by the first variant.
	ModeGroup ExplosionMode = "group"
	// ModeVariant emits one item per eligible variant.
	ModeVariant ExplosionMode = "variant"
)

// RunStatus is the lifecycle state of a feed generation record.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// OutcomeStatus is the terminal result of a single run attempt.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeFailed  OutcomeStatus = "failed"
)

// HistoryLimit caps the bounded run-history log. Appending beyond the
// cap evicts the oldest entry first.
const HistoryLimit = 10

// FeedSettings are the generation options persisted with the record and
// merged with caller overrides on re-runs.
type FeedSettings struct {
	PrimaryDomain string `json:"primaryDomain,omitempty"`
	CurrencyCode  string `json:"currencyCode,omitempty"`
}

// RunError captures the failure detail of a run verbatim.
type RunError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// RunResult is the lastRun sub-record: timing and outcome of the most
// recent attempt. FinishedAt is nil while the run is in flight.
type RunResult struct {
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt *time.Time    `json:"finishedAt,omitempty"`
	Duration   int64         `json:"duration,omitempty"` // milliseconds
	Status     OutcomeStatus `json:"status,omitempty"`
	Error      *RunError     `json:"error,omitempty"`
}

// HistoryEntry is one bounded-history line. ProductCount is only set for
// successful runs.
type HistoryEntry struct {
	StartedAt    time.Time     `json:"startedAt"`
	FinishedAt   time.Time     `json:"finishedAt"`
	Duration     int64         `json:"duration"` // milliseconds
	Status       OutcomeStatus `json:"status"`
	ProductCount *int          `json:"productCount,omitempty"`
}

// FeedRun is the persistent record of a feed: its identity, generation
// options, current lifecycle status, output counts, the most recent run
// outcome and a bounded history of past runs.
type FeedRun struct {
	ID           int64          `json:"id" db:"id"`
	BusinessID   string         `json:"business_id" db:"business_id"`
	Name         string         `json:"name" db:"name"`
	FileName     string         `json:"fileName" db:"file_name"`
	Platform     Platform       `json:"platform" db:"platform"`
	Mode         ExplosionMode  `json:"productType" db:"product_type"`
	Status       RunStatus      `json:"status" db:"status"`
	ProductCount int            `json:"productCount" db:"product_count"`
	VariantCount int            `json:"variantCount" db:"variant_count"`
	FileSize     int64          `json:"fileSize" db:"file_size"`
	Settings     FeedSettings   `json:"settings"`
	LastRun      *RunResult     `json:"lastRun,omitempty"`
	History      []HistoryEntry `json:"history"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}
