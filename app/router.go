package app

import (
	"context"
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/mytheresa/product-catalog/app/api"
	"github.com/mytheresa/product-catalog/app/catalog"
	"github.com/mytheresa/product-catalog/app/middleware"
	"github.com/mytheresa/product-catalog/app/products"
	"github.com/mytheresa/product-catalog/app/references"
	"github.com/mytheresa/product-catalog/metrics"
	"github.com/mytheresa/product-catalog/models"
)

// ListingStore is the listing cache as both the catalog and the mutation
// service see it.
type ListingStore interface {
	catalog.ListingCache
	products.Invalidator
}

type Dependencies struct {
	Products        *models.ProductsRepository
	References      *models.ReferencesRepository
	Listings        ListingStore
	Logger          *slog.Logger
	WriteLimiter    *rate.Limiter
	DefaultPageSize int
	// Ping reports whether the database is reachable.
	Ping func(ctx context.Context) error
}

// NewRouter registers every route and wraps the mux in the middleware chain.
func NewRouter(d Dependencies) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	catalogHandler := catalog.NewCatalogHandler(d.Products,
		catalog.WithListingCache(d.Listings),
		catalog.WithLogger(logger),
		catalog.WithDefaultPageSize(d.DefaultPageSize),
	)
	productHandler := products.NewProductHandler(
		products.NewService(d.Products, d.Listings, logger),
	)
	referenceHandler := references.NewReferenceHandler(d.References, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", catalogHandler.HandleGet)
	mux.HandleFunc("GET /products/{id}", catalogHandler.HandleGetProduct)
	mux.HandleFunc("GET /products/{id}/categories", catalogHandler.HandleGetProductCategories)
	mux.HandleFunc("POST /products", productHandler.HandleCreate)
	mux.HandleFunc("PUT /products/{id}", productHandler.HandleUpdate)
	mux.HandleFunc("DELETE /products/{id}", productHandler.HandleDelete)

	mux.HandleFunc("GET /categories", referenceHandler.HandleGetCategories)
	mux.HandleFunc("POST /categories", referenceHandler.HandleCreateCategory)
	mux.HandleFunc("GET /brands", referenceHandler.HandleGetBrands)
	mux.HandleFunc("GET /occasions", referenceHandler.HandleGetOccasions)

	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.Ping != nil {
			if err := d.Ping(r.Context()); err != nil {
				logger.ErrorContext(r.Context(), "health check failed", slog.Any("error", err))
				api.ErrorResponse(w, http.StatusServiceUnavailable, "database unavailable")
				return
			}
		}
		api.OKResponse(w, map[string]string{"status": "ok"})
	})

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.WriteThrottle(d.WriteLimiter),
		middleware.ProductMemo,
		middleware.Logging(logger),
	)
}
