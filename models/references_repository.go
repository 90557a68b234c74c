package models

import (
	"context"

	"gorm.io/gorm"
)

// ReferencesRepository serves the reference entities products point at:
// categories, brands and occasions.
type ReferencesRepository struct {
	db *gorm.DB
}

func NewReferencesRepository(db *gorm.DB) *ReferencesRepository {
	return &ReferencesRepository{db: db}
}

func (r *ReferencesRepository) GetAllCategories(ctx context.Context) ([]Category, error) {
	categories := []Category{}
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, persistenceError("list categories", err)
	}
	return categories, nil
}

func (r *ReferencesRepository) CreateCategory(ctx context.Context, category *Category) error {
	return persistenceError("create category", r.db.WithContext(ctx).Create(category).Error)
}

func (r *ReferencesRepository) GetAllBrands(ctx context.Context) ([]Brand, error) {
	brands := []Brand{}
	if err := r.db.WithContext(ctx).Order("name").Find(&brands).Error; err != nil {
		return nil, persistenceError("list brands", err)
	}
	return brands, nil
}

func (r *ReferencesRepository) GetAllOccasions(ctx context.Context) ([]Occasion, error) {
	occasions := []Occasion{}
	if err := r.db.WithContext(ctx).Order("name").Find(&occasions).Error; err != nil {
		return nil, persistenceError("list occasions", err)
	}
	return occasions, nil
}
