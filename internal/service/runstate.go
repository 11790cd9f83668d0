package service

import (
	"time"

	"feedforge/internal/domain"
)

// The run record moves pending -> processing -> completed|failed, and a
// terminal record may return to processing on a subsequent run. Each
// transition produces the next record value in one step; callers persist
// the returned value, never individual fields.

// startRun marks the record processing and stamps the attempt start.
func startRun(run domain.FeedRun, now time.Time) domain.FeedRun {
	run.Status = domain.RunStatusProcessing
	run.LastRun = &domain.RunResult{StartedAt: now}
	run.UpdatedAt = now
	return run
}

// completeRun records a successful attempt: counts and size from the
// assembler and store, timing, lastRun and one history entry.
func completeRun(run domain.FeedRun, productCount, variantCount int, fileSize int64, now time.Time) domain.FeedRun {
	started := now
	if run.LastRun != nil {
		started = run.LastRun.StartedAt
	}
	duration := now.Sub(started).Milliseconds()

	run.Status = domain.RunStatusCompleted
	run.ProductCount = productCount
	run.VariantCount = variantCount
	run.FileSize = fileSize
	run.LastRun = &domain.RunResult{
		StartedAt:  started,
		FinishedAt: &now,
		Duration:   duration,
		Status:     domain.OutcomeSuccess,
	}
	count := productCount
	run.History = appendHistory(run.History, domain.HistoryEntry{
		StartedAt:    started,
		FinishedAt:   now,
		Duration:     duration,
		Status:       domain.OutcomeSuccess,
		ProductCount: &count,
	})
	run.UpdatedAt = now
	return run
}

// failRun records a failed attempt, capturing the triggering error
// verbatim. Failed history entries carry no product count.
func failRun(run domain.FeedRun, message, stack string, now time.Time) domain.FeedRun {
	started := now
	if run.LastRun != nil {
		started = run.LastRun.StartedAt
	}
	duration := now.Sub(started).Milliseconds()

	run.Status = domain.RunStatusFailed
	run.LastRun = &domain.RunResult{
		StartedAt:  started,
		FinishedAt: &now,
		Duration:   duration,
		Status:     domain.OutcomeFailed,
		Error:      &domain.RunError{Message: message, Stack: stack},
	}
	run.History = appendHistory(run.History, domain.HistoryEntry{
		StartedAt:  started,
		FinishedAt: now,
		Duration:   duration,
		Status:     domain.OutcomeFailed,
	})
	run.UpdatedAt = now
	return run
}

// appendHistory appends an entry and truncates from the front so the
// log never exceeds domain.HistoryLimit entries, oldest evicted first.
func appendHistory(history []domain.HistoryEntry, entry domain.HistoryEntry) []domain.HistoryEntry {
	history = append(history, entry)
	if len(history) > domain.HistoryLimit {
		history = history[len(history)-domain.HistoryLimit:]
	}
	return history
}
