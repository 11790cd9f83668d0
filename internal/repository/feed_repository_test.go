package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"testing"
	"time"

	"feedforge/internal/domain"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS products (
			id VARCHAR(64) PRIMARY KEY,
			business_id VARCHAR(64) NOT NULL,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			product_type TEXT NOT NULL DEFAULT '',
			vendor TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			handle TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'active',
			tags JSONB NOT NULL DEFAULT '[]',
			featured_image TEXT NOT NULL DEFAULT '',
			gender TEXT NOT NULL DEFAULT '',
			age_group TEXT NOT NULL DEFAULT '',
			video_link_url TEXT NOT NULL DEFAULT '',
			google_category_id TEXT NOT NULL DEFAULT '',
			google_category_name TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS product_variants (
			id VARCHAR(64) PRIMARY KEY,
			product_id VARCHAR(64) NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			title TEXT NOT NULL DEFAULT '',
			price DECIMAL(12, 2),
			compare_at_price DECIMAL(12, 2),
			image_url TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS product_images (
			id SERIAL PRIMARY KEY,
			product_id VARCHAR(64) NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS feeds (
			id SERIAL PRIMARY KEY,
			business_id VARCHAR(64) NOT NULL,
			name TEXT NOT NULL,
			file_name TEXT NOT NULL UNIQUE,
			platform VARCHAR(20) NOT NULL,
			product_type VARCHAR(20) NOT NULL DEFAULT 'group',
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			product_count INTEGER NOT NULL DEFAULT 0,
			variant_count INTEGER NOT NULL DEFAULT 0,
			file_size BIGINT NOT NULL DEFAULT 0,
			settings JSONB NOT NULL DEFAULT '{}',
			last_run JSONB,
			history JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range schema {
		if _, err := testDB.Exec(stmt); err != nil {
			return dbContainer.Terminate, err
		}
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	teardown, err := setupTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}

	m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Fatalf("could not teardown postgres container: %v", err)
		}
	}
}

func newFeedRun(businessID, fileName string) *domain.FeedRun {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &domain.FeedRun{
		BusinessID: businessID,
		Name:       "Test Feed",
		FileName:   fileName,
		Platform:   domain.PlatformFacebook,
		Mode:       domain.ModeGroup,
		Status:     domain.RunStatusPending,
		Settings: domain.FeedSettings{
			PrimaryDomain: "shop.example.com",
			CurrencyCode:  "BRL",
		},
		History:   []domain.HistoryEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestFeedCreateAndFind(t *testing.T) {
	repo := NewFeedRepository(testDB)
	ctx := context.Background()

	run := newFeedRun("biz-create", "create.xml")
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if run.ID == 0 {
		t.Error("Create should fill the generated ID")
	}

	found, err := repo.FindByFileName(ctx, "create.xml")
	if err != nil {
		t.Fatalf("FindByFileName failed: %v", err)
	}
	if found.BusinessID != "biz-create" || found.Platform != domain.PlatformFacebook {
		t.Errorf("unexpected record: %+v", found)
	}
	if found.Settings.PrimaryDomain != "shop.example.com" || found.Settings.CurrencyCode != "BRL" {
		t.Errorf("settings did not round trip: %+v", found.Settings)
	}
	if found.LastRun != nil {
		t.Error("a fresh record has no lastRun")
	}
	if len(found.History) != 0 {
		t.Errorf("a fresh record has empty history, got %d entries", len(found.History))
	}

	scoped, err := repo.FindByBusinessAndFileName(ctx, "biz-create", "create.xml")
	if err != nil {
		t.Fatalf("FindByBusinessAndFileName failed: %v", err)
	}
	if scoped.ID != found.ID {
		t.Error("scoped lookup should return the same record")
	}

	if _, err := repo.FindByBusinessAndFileName(ctx, "other-biz", "create.xml"); !errors.Is(err, ErrFeedNotFound) {
		t.Errorf("foreign business lookup should miss, got %v", err)
	}
}

func TestFeedFindMissing(t *testing.T) {
	repo := NewFeedRepository(testDB)

	if _, err := repo.FindByFileName(context.Background(), "no-such.xml"); !errors.Is(err, ErrFeedNotFound) {
		t.Errorf("expected ErrFeedNotFound, got %v", err)
	}
}

func TestFeedUpdateRoundTripsRunDocuments(t *testing.T) {
	repo := NewFeedRepository(testDB)
	ctx := context.Background()

	run := newFeedRun("biz-update", "update.xml")
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	started := time.Now().UTC().Truncate(time.Millisecond)
	finished := started.Add(1500 * time.Millisecond)
	count := 7
	run.Status = domain.RunStatusCompleted
	run.ProductCount = 7
	run.VariantCount = 12
	run.FileSize = 4096
	run.LastRun = &domain.RunResult{
		StartedAt:  started,
		FinishedAt: &finished,
		Duration:   1500,
		Status:     domain.OutcomeSuccess,
	}
	run.History = []domain.HistoryEntry{
		{StartedAt: started, FinishedAt: finished, Duration: 1500, Status: domain.OutcomeSuccess, ProductCount: &count},
	}
	run.UpdatedAt = finished

	if err := repo.Update(ctx, run); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	found, err := repo.FindByFileName(ctx, "update.xml")
	if err != nil {
		t.Fatalf("FindByFileName failed: %v", err)
	}
	if found.Status != domain.RunStatusCompleted || found.ProductCount != 7 || found.VariantCount != 12 {
		t.Errorf("record state did not persist: %+v", found)
	}
	if found.LastRun == nil || found.LastRun.Status != domain.OutcomeSuccess || found.LastRun.Duration != 1500 {
		t.Errorf("lastRun did not round trip: %+v", found.LastRun)
	}
	if !found.LastRun.StartedAt.Equal(started) {
		t.Errorf("lastRun.startedAt = %v, want %v", found.LastRun.StartedAt, started)
	}
	if len(found.History) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(found.History))
	}
	if found.History[0].ProductCount == nil || *found.History[0].ProductCount != 7 {
		t.Error("history product count did not round trip")
	}
}

func TestFeedUpdateRoundTripsFailure(t *testing.T) {
	repo := NewFeedRepository(testDB)
	ctx := context.Background()

	run := newFeedRun("biz-fail", "fail.xml")
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	started := time.Now().UTC().Truncate(time.Millisecond)
	finished := started.Add(200 * time.Millisecond)
	run.Status = domain.RunStatusFailed
	run.LastRun = &domain.RunResult{
		StartedAt:  started,
		FinishedAt: &finished,
		Duration:   200,
		Status:     domain.OutcomeFailed,
		Error:      &domain.RunError{Message: "storage unreachable", Stack: "goroutine 1 [running]"},
	}
	run.History = []domain.HistoryEntry{
		{StartedAt: started, FinishedAt: finished, Duration: 200, Status: domain.OutcomeFailed},
	}

	if err := repo.Update(ctx, run); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	found, err := repo.FindByFileName(ctx, "fail.xml")
	if err != nil {
		t.Fatalf("FindByFileName failed: %v", err)
	}
	if found.LastRun == nil || found.LastRun.Error == nil {
		t.Fatal("failure detail did not round trip")
	}
	if found.LastRun.Error.Message != "storage unreachable" || found.LastRun.Error.Stack != "goroutine 1 [running]" {
		t.Errorf("error detail mangled: %+v", found.LastRun.Error)
	}
	if found.History[0].ProductCount != nil {
		t.Error("failed history entries carry no product count")
	}
}

func TestFeedUpdateMissing(t *testing.T) {
	repo := NewFeedRepository(testDB)

	run := newFeedRun("biz-x", "never-created.xml")
	if err := repo.Update(context.Background(), run); !errors.Is(err, ErrFeedNotFound) {
		t.Errorf("expected ErrFeedNotFound, got %v", err)
	}
}

func TestFeedDelete(t *testing.T) {
	repo := NewFeedRepository(testDB)
	ctx := context.Background()

	run := newFeedRun("biz-delete", "delete.xml")
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Wrong business does not delete
	if err := repo.DeleteByBusinessAndFileName(ctx, "other-biz", "delete.xml"); !errors.Is(err, ErrFeedNotFound) {
		t.Errorf("foreign business delete should miss, got %v", err)
	}

	if err := repo.DeleteByBusinessAndFileName(ctx, "biz-delete", "delete.xml"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := repo.FindByFileName(ctx, "delete.xml"); !errors.Is(err, ErrFeedNotFound) {
		t.Error("record should be gone after delete")
	}

	if err := repo.DeleteByBusinessAndFileName(ctx, "biz-delete", "delete.xml"); !errors.Is(err, ErrFeedNotFound) {
		t.Errorf("second delete should report ErrFeedNotFound, got %v", err)
	}
}

func TestFeedDuplicateFileName(t *testing.T) {
	repo := NewFeedRepository(testDB)
	ctx := context.Background()

	run := newFeedRun("biz-dup", "dup.xml")
	if err := repo.Create(ctx, run); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dup := newFeedRun("biz-dup", "dup.xml")
	if err := repo.Create(ctx, dup); err == nil {
		t.Error("duplicate file name should be rejected by the unique constraint")
	}
}
