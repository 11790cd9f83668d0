package transport

import (
	"errors"
	"net/http"

	"feedforge/internal/domain"
	"feedforge/internal/feed"
	"feedforge/internal/middleware"
	"feedforge/internal/repository"
	"feedforge/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GenerateOptionsPayload carries the caller's generation settings.
type GenerateOptionsPayload struct {
	PrimaryDomain string `json:"primaryDomain" validate:"required"`
	CurrencyCode  string `json:"currencyCode"`
	ProductType   string `json:"productType" validate:"omitempty,oneof=group variant"`
}

// UpdateOptionsPayload is the partial options shape accepted on update;
// absent fields keep the record's stored settings.
type UpdateOptionsPayload struct {
	PrimaryDomain string `json:"primaryDomain"`
	CurrencyCode  string `json:"currencyCode"`
	ProductType   string `json:"productType" validate:"omitempty,oneof=group variant"`
}

// GenerateFeedRequest represents the feed generation request payload
type GenerateFeedRequest struct {
	BusinessID string                 `json:"business_id" validate:"required"`
	Platform   string                 `json:"platform" validate:"required,oneof=facebook pinterest"`
	Name       string                 `json:"name" validate:"required"`
	FileName   string                 `json:"fileName"`
	Options    GenerateOptionsPayload `json:"options" validate:"required"`
}

// UpdateFeedRequest represents the feed update request payload
type UpdateFeedRequest struct {
	BusinessID string                `json:"business_id" validate:"required"`
	FileName   string                `json:"fileName" validate:"required"`
	Options    *UpdateOptionsPayload `json:"options"`
}

// ExcludeFeedRequest represents the feed exclusion request payload
type ExcludeFeedRequest struct {
	BusinessID string `json:"business_id" validate:"required"`
	FileName   string `json:"fileName" validate:"required"`
}

// RunResponse reports a completed generation run
type RunResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	FileName     string `json:"fileName"`
	FeedName     string `json:"feedName"`
	ProductCount int    `json:"productCount"`
	VariantCount int    `json:"variantCount"`
	SkippedCount int    `json:"skippedCount"`
	FileSize     int64  `json:"fileSize"`
}

// ExcludeResponse reports both exclusion operations independently
type ExcludeResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message"`
	Operations ExcludeOperations `json:"operations"`
	BusinessID string            `json:"business_id"`
	FileName   string            `json:"fileName"`
}

type ExcludeOperations struct {
	FileDeleted       bool `json:"fileDeleted"`
	FeedRecordDeleted bool `json:"feedRecordDeleted"`
}

// FeedHandler handles HTTP requests for feed operations
type FeedHandler struct {
	feedService service.FeedService
	logger      *zap.Logger
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feedService service.FeedService, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
		logger:      logger,
	}
}

// RegisterRoutes registers all feed routes behind the given middleware
// stack.
func (h *FeedHandler) RegisterRoutes(r chi.Router, mws ...func(http.Handler) http.Handler) {
	r.Route("/api/feeds", func(r chi.Router) {
		for _, mw := range mws {
			r.Use(mw)
		}
		r.Post("/generate", h.Generate)
		r.Post("/update", h.Update)
		r.Post("/exclude", h.Exclude)
		r.Get("/{fileName}", h.Get)
	})
}

// Generate handles feed creation and the first generation run
func (h *FeedHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateFeedRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Generate validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.feedService.Generate(r.Context(), service.GenerateParams{
		BusinessID: req.BusinessID,
		Platform:   domain.Platform(req.Platform),
		Name:       req.Name,
		FileName:   req.FileName,
		Options: service.GenerateOptions{
			PrimaryDomain: req.Options.PrimaryDomain,
			CurrencyCode:  req.Options.CurrencyCode,
			Mode:          domain.ExplosionMode(req.Options.ProductType),
		},
	})
	if err != nil {
		h.respondRunError(w, err, "failed to generate feed")
		return
	}

	h.logger.Info("Feed generated successfully",
		zap.String("business_id", req.BusinessID),
		zap.String("file_name", report.FileName),
	)
	middleware.RespondWithJSON(w, http.StatusOK, RunResponse{
		Success:      true,
		Message:      "Feed generation completed successfully",
		FileName:     report.FileName,
		FeedName:     report.FeedName,
		ProductCount: report.ProductCount,
		VariantCount: report.VariantCount,
		SkippedCount: report.SkippedCount,
		FileSize:     report.FileSize,
	})
}

// Update handles re-generation of an existing feed
func (h *FeedHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateFeedRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Update validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var opts *service.GenerateOptions
	if req.Options != nil {
		opts = &service.GenerateOptions{
			PrimaryDomain: req.Options.PrimaryDomain,
			CurrencyCode:  req.Options.CurrencyCode,
			Mode:          domain.ExplosionMode(req.Options.ProductType),
		}
	}

	report, err := h.feedService.Update(r.Context(), req.BusinessID, req.FileName, opts)
	if err != nil {
		h.respondRunError(w, err, "failed to update feed")
		return
	}

	h.logger.Info("Feed updated successfully",
		zap.String("business_id", req.BusinessID),
		zap.String("file_name", report.FileName),
	)
	middleware.RespondWithJSON(w, http.StatusOK, RunResponse{
		Success:      true,
		Message:      "Feed updated successfully",
		FileName:     report.FileName,
		FeedName:     report.FeedName,
		ProductCount: report.ProductCount,
		VariantCount: report.VariantCount,
		SkippedCount: report.SkippedCount,
		FileSize:     report.FileSize,
	})
}

// Exclude handles artifact and record deletion
func (h *FeedHandler) Exclude(w http.ResponseWriter, r *http.Request) {
	var req ExcludeFeedRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Exclude validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := h.feedService.Exclude(r.Context(), req.BusinessID, req.FileName)
	if err != nil {
		h.logger.Error("Feed exclusion failed",
			zap.String("business_id", req.BusinessID),
			zap.String("file_name", req.FileName),
			zap.Error(err),
		)
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to exclude feed")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ExcludeResponse{
		Success: true,
		Message: "Feed exclusion process completed",
		Operations: ExcludeOperations{
			FileDeleted:       report.FileDeleted,
			FeedRecordDeleted: report.RecordDeleted,
		},
		BusinessID: req.BusinessID,
		FileName:   req.FileName,
	})
}

// Get returns the run record for a file key
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")
	if fileName == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "file name is required")
		return
	}

	run, err := h.feedService.Get(r.Context(), fileName)
	if err != nil {
		if errors.Is(err, repository.ErrFeedNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "feed not found")
			return
		}
		h.logger.Error("Failed to load feed record", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to load feed")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, run)
}

// respondRunError maps run errors to HTTP statuses.
func (h *FeedHandler) respondRunError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, feed.ErrUnsupportedPlatform):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrRunInProgress):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrFeedNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "feed not found with the specified fileName and business_id")
	default:
		h.logger.Error("Feed run failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
