package references

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/models"
)

type CategoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type BrandResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type OccasionResponse struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type ReferenceProvider interface {
	GetAllCategories(ctx context.Context) ([]models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	GetAllBrands(ctx context.Context) ([]models.Brand, error)
	GetAllOccasions(ctx context.Context) ([]models.Occasion, error)
}

// ReferenceHandler serves the lists the product form and the listing
// filters are built from.
type ReferenceHandler struct {
	repo   ReferenceProvider
	logger *slog.Logger
}

func NewReferenceHandler(r ReferenceProvider, logger *slog.Logger) *ReferenceHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReferenceHandler{repo: r, logger: logger}
}

func (h *ReferenceHandler) HandleGetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetAllCategories(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list categories failed", slog.Any("error", err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch categories")
		return
	}

	response := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		response[i] = CategoryResponse{ID: c.ID, Name: c.Name}
	}
	api.OKResponse(w, response)
}

func (h *ReferenceHandler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		api.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		api.ErrorResponse(w, http.StatusBadRequest, "Category name is required")
		return
	}

	category := &models.Category{Name: name}
	if err := h.repo.CreateCategory(r.Context(), category); err != nil {
		if models.IsConstraintViolation(err) {
			api.ErrorResponse(w, http.StatusConflict, "Category already exists")
			return
		}
		h.logger.ErrorContext(r.Context(), "create category failed", slog.Any("error", err))
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to create category")
		return
	}

	api.JSONResponse(w, http.StatusCreated, map[string]any{
		"message": "Category created successfully",
		"id":      category.ID,
	})
}

func (h *ReferenceHandler) HandleGetBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.repo.GetAllBrands(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list brands failed", slog.Any("error", err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch brands")
		return
	}

	response := make([]BrandResponse, len(brands))
	for i, b := range brands {
		response[i] = BrandResponse{ID: b.ID, Name: b.Name}
	}
	api.OKResponse(w, response)
}

func (h *ReferenceHandler) HandleGetOccasions(w http.ResponseWriter, r *http.Request) {
	occasions, err := h.repo.GetAllOccasions(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "list occasions failed", slog.Any("error", err))
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to fetch occasions")
		return
	}

	response := make([]OccasionResponse, len(occasions))
	for i, o := range occasions {
		response[i] = OccasionResponse{Slug: o.Slug, Name: o.Name}
	}
	api.OKResponse(w, response)
}
