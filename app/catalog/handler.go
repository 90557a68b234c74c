package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/metrics"
	"github.com/mytheresa/product-catalog/models"
)

type Response struct {
	Products              []ListedProduct `json:"products"`
	Count                 int64           `json:"count"`
	LastPage              int             `json:"lastPage"`
	NumOfResultsOnCurPage int             `json:"numOfResultsOnCurPage"`
}

type Category struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Brand struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Rating      *float64 `json:"rating"`
	OldPrice    float64  `json:"old_price"`
	Discount    float64  `json:"discount"`
	Price       float64  `json:"price"`
	Colors      string   `json:"colors"`
	Gender      string   `json:"gender"`
	Brands      []uint   `json:"brands"`
	Occasion    []string `json:"occasion"`
	ImageURL    string   `json:"image_url"`
}

// ListedProduct is a listing entry with its categories.
type ListedProduct struct {
	Product
	Categories []Category `json:"categories"`
}

// ProductDetail adds brand names to a single product.
type ProductDetail struct {
	Product
	BrandNames []Brand `json:"brandNames"`
}

type ProductProvider interface {
	GetFilteredProducts(ctx context.Context, page models.PageRequest, filters models.ProductFilters) (*models.ProductPage, error)
	GetByID(ctx context.Context, id uint) (*models.Product, error)
	GetProductCategories(ctx context.Context, productID uint) ([]models.Category, error)
	CategoriesForProducts(ctx context.Context, productIDs []uint) (map[uint][]models.Category, error)
	BrandNames(ctx context.Context, brandIDs []uint) (map[uint]string, error)
}

// ListingCache holds rendered listing bodies. Key maps a normalized request to
// the key Get and Set use; it is resolved before storage is queried.
type ListingCache interface {
	Key(ctx context.Context, request string) (string, error)
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

type CatalogHandler struct {
	repo            ProductProvider
	cache           ListingCache
	logger          *slog.Logger
	defaultPageSize int
}

type Option func(*CatalogHandler)

func WithListingCache(c ListingCache) Option {
	return func(h *CatalogHandler) { h.cache = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *CatalogHandler) { h.logger = l }
}

// WithDefaultPageSize sets the page size used when the request names none.
func WithDefaultPageSize(size int) Option {
	return func(h *CatalogHandler) { h.defaultPageSize = models.ClampPageSize(size) }
}

func NewCatalogHandler(r ProductProvider, opts ...Option) *CatalogHandler {
	h := &CatalogHandler{
		repo:            r,
		logger:          slog.Default(),
		defaultPageSize: models.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *CatalogHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := h.parsePage(query.Get("page"), query.Get("pageSize"))
	if err != nil {
		api.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	filters, err := models.ParseProductFilters(query)
	if err != nil {
		api.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	request := fmt.Sprintf("page=%d|size=%d|%s", page.Page, page.PageSize, filters.CacheKey())
	key, hit, ok := h.cached(r.Context(), request)
	if ok {
		writeBody(w, hit)
		return
	}

	result, err := h.repo.GetFilteredProducts(r.Context(), page, filters)
	if err != nil {
		h.listingError(w, r, err)
		return
	}

	ids := make([]uint, len(result.Products))
	for i := range result.Products {
		ids[i] = result.Products[i].ID
	}
	categories, err := h.repo.CategoriesForProducts(r.Context(), ids)
	if err != nil {
		h.listingError(w, r, err)
		return
	}

	products := make([]ListedProduct, len(result.Products))
	for i := range result.Products {
		products[i] = ListedProduct{
			Product:    toProduct(&result.Products[i]),
			Categories: toCategories(categories[result.Products[i].ID]),
		}
	}

	body, err := json.Marshal(Response{
		Products:              products,
		Count:                 result.Count,
		LastPage:              result.LastPage,
		NumOfResultsOnCurPage: result.NumOfResultsOnCurPage,
	})
	if err != nil {
		api.ErrorResponse(w, http.StatusInternalServerError, "failed to get products")
		return
	}

	if key != "" {
		if err := h.cache.Set(r.Context(), key, body); err != nil {
			h.logger.WarnContext(r.Context(), "listing cache write failed", slog.Any("error", err))
		}
	}
	writeBody(w, body)
}

func (h *CatalogHandler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.lookup(w, r)
	if !ok {
		return
	}

	brandIDs := product.BrandIDs()
	names, err := h.repo.BrandNames(r.Context(), brandIDs)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "brand lookup failed", slog.Any("error", err))
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve product")
		return
	}

	brands := make([]Brand, 0, len(brandIDs))
	for _, id := range brandIDs {
		if name, ok := names[id]; ok {
			brands = append(brands, Brand{ID: id, Name: name})
		}
	}

	api.OKResponse(w, ProductDetail{
		Product:    toProduct(product),
		BrandNames: brands,
	})
}

func (h *CatalogHandler) HandleGetProductCategories(w http.ResponseWriter, r *http.Request) {
	product, ok := h.lookup(w, r)
	if !ok {
		return
	}

	categories, err := h.repo.GetProductCategories(r.Context(), product.ID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "product categories lookup failed", slog.Any("error", err))
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve product categories")
		return
	}
	api.OKResponse(w, toCategories(categories))
}

// lookup resolves {id}, writing the error response itself when it cannot.
func (h *CatalogHandler) lookup(w http.ResponseWriter, r *http.Request) (*models.Product, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil || id == 0 {
		api.ErrorResponse(w, http.StatusNotFound, "Product not found")
		return nil, false
	}

	product, err := h.repo.GetByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, models.ErrProductNotFound) {
			api.ErrorResponse(w, http.StatusNotFound, "Product not found")
			return nil, false
		}
		h.logger.ErrorContext(r.Context(), "product lookup failed",
			slog.Uint64("product_id", id), slog.Any("error", err))
		api.ErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve product")
		return nil, false
	}
	return product, true
}

func (h *CatalogHandler) parsePage(rawPage, rawSize string) (models.PageRequest, error) {
	page := models.PageRequest{Page: 1, PageSize: h.defaultPageSize}

	if rawPage != "" {
		p, err := strconv.Atoi(rawPage)
		if err != nil {
			return page, fmt.Errorf("%w: page %q is not a number", models.ErrInvalidPage, rawPage)
		}
		page.Page = p
	}
	if rawSize != "" {
		if s, err := strconv.Atoi(rawSize); err == nil {
			page.PageSize = models.ClampPageSize(s)
		}
	}
	return page, page.Validate()
}

// cached looks request up in the listing cache. An empty key means the cache
// is unavailable and the listing must not be stored either.
func (h *CatalogHandler) cached(ctx context.Context, request string) (string, []byte, bool) {
	if h.cache == nil {
		return "", nil, false
	}
	key, err := h.cache.Key(ctx, request)
	if err != nil {
		h.logger.WarnContext(ctx, "listing cache unavailable", slog.Any("error", err))
		return "", nil, false
	}
	body, ok, err := h.cache.Get(ctx, key)
	if err != nil {
		h.logger.WarnContext(ctx, "listing cache read failed", slog.Any("error", err))
		return key, nil, false
	}
	metrics.RecordListingCache(ok)
	return key, body, ok
}

func (h *CatalogHandler) listingError(w http.ResponseWriter, r *http.Request, err error) {
	status := api.StatusFor(err)
	if status == http.StatusBadRequest {
		api.ErrorResponse(w, status, err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "listing query failed", slog.Any("error", err))
	api.ErrorResponse(w, http.StatusInternalServerError, "failed to get products")
}

func writeBody(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func toProduct(p *models.Product) Product {
	out := Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OldPrice:    p.OldPrice.InexactFloat64(),
		Discount:    p.Discount.InexactFloat64(),
		Price:       p.Price.InexactFloat64(),
		Colors:      p.Colors,
		Gender:      p.Gender,
		Brands:      p.BrandIDs(),
		Occasion:    p.Occasions(),
		ImageURL:    p.ImageURL,
	}
	if p.Rating.Valid {
		rating := p.Rating.Decimal.InexactFloat64()
		out.Rating = &rating
	}
	if out.Brands == nil {
		out.Brands = []uint{}
	}
	if out.Occasion == nil {
		out.Occasion = []string{}
	}
	return out
}

func toCategories(in []models.Category) []Category {
	out := make([]Category, len(in))
	for i, c := range in {
		out[i] = Category{ID: c.ID, Name: c.Name}
	}
	return out
}
