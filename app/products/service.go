package products

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/mytheresa/product-catalog/metrics"
	"github.com/mytheresa/product-catalog/models"
)

const notFoundMessage = "Could not find the product"

type ProductStore interface {
	CreateProduct(ctx context.Context, product *models.Product, categoryIDs []uint) error
	UpdateProduct(ctx context.Context, product *models.Product, categoryIDs []uint) error
	DeleteProduct(ctx context.Context, id uint) error
}

// Invalidator is told that every cached product listing may now be stale.
type Invalidator interface {
	InvalidateListings(ctx context.Context) error
}

// Failure carries the message shown to the caller while keeping the cause
// reachable through errors.Is / errors.As.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Service validates product payloads and applies them atomically.
type Service struct {
	store       ProductStore
	invalidator Invalidator
	validate    *validator.Validate
	logger      *slog.Logger
}

func NewService(store ProductStore, invalidator Invalidator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:       store,
		invalidator: invalidator,
		validate:    newValidator(),
		logger:      logger,
	}
}

// Create validates p, computes the effective price and inserts the product
// with its category links.
func (s *Service) Create(ctx context.Context, p Payload) (string, error) {
	if err := p.validate(s.validate, false); err != nil {
		metrics.RecordMutation("create", "invalid")
		return "", err
	}
	product, categoryIDs := p.product()
	product.ID = 0

	if err := s.store.CreateProduct(ctx, product, categoryIDs); err != nil {
		return "", s.fail(ctx, "create", err, "Something went wrong, cannot create the product")
	}
	s.succeed(ctx, "create", product.ID)
	return "Product created successfully", nil
}

// Update validates p, which must carry an id, and rewrites the product and
// its category links.
func (s *Service) Update(ctx context.Context, p Payload) (string, error) {
	if err := p.validate(s.validate, true); err != nil {
		metrics.RecordMutation("update", "invalid")
		return "", err
	}
	product, categoryIDs := p.product()

	if err := s.store.UpdateProduct(ctx, product, categoryIDs); err != nil {
		return "", s.fail(ctx, "update", err, "Something went wrong, cannot update the product")
	}
	s.succeed(ctx, "update", product.ID)
	return "Product updated successfully", nil
}

// Delete removes the product together with its links, reviews and comments.
func (s *Service) Delete(ctx context.Context, id uint) (string, error) {
	if id == 0 {
		metrics.RecordMutation("delete", "invalid")
		return "", &models.ValidationError{Field: "id", Message: "Id is required"}
	}
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return "", s.fail(ctx, "delete", err, "Something went wrong, cannot delete the product")
	}
	s.succeed(ctx, "delete", id)
	return "Product deleted successfully", nil
}

func (s *Service) succeed(ctx context.Context, op string, id uint) {
	metrics.RecordMutation(op, "ok")
	s.logger.InfoContext(ctx, "product "+op+"d", slog.Uint64("product_id", uint64(id)))

	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateListings(ctx); err != nil {
		s.logger.WarnContext(ctx, "listing cache invalidation failed",
			slog.String("op", op), slog.Any("error", err))
	}
}

func (s *Service) fail(ctx context.Context, op string, err error, message string) error {
	if errors.Is(err, models.ErrProductNotFound) {
		metrics.RecordMutation(op, "not_found")
		return &Failure{Message: notFoundMessage, Err: err}
	}

	metrics.RecordMutation(op, "failed")
	attrs := []any{slog.String("op", op), slog.Any("error", err)}
	if models.IsConstraintViolation(err) {
		attrs = append(attrs, slog.Bool("constraint_violation", true))
	}
	s.logger.ErrorContext(ctx, "product mutation rolled back", attrs...)
	return &Failure{Message: message, Err: err}
}
