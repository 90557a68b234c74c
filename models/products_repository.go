package models

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductsRepository struct {
	db *gorm.DB
}

func NewProductsRepository(db *gorm.DB) *ProductsRepository {
	return &ProductsRepository{
		db: db,
	}
}

// GetFilteredProducts counts the distinct products matching filters and loads
// the requested page. Count and page are built from the same compiled query.
func (r *ProductsRepository) GetFilteredProducts(ctx context.Context, page PageRequest, filters ProductFilters) (*ProductPage, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&Product{}).
		Scopes(filters.Scope).
		Session(&gorm.Session{})

	var total int64
	if err := query.Distinct("products.id").Count(&total).Error; err != nil {
		return nil, persistenceError("count products", err)
	}

	lastPage := LastPage(total, page.PageSize)
	products := []Product{}
	// Past the last page nothing can match, and the offset of a huge page
	// number would not fit in an int.
	if page.Page <= lastPage {
		if err := query.
			Order(filters.OrderBy()).
			Offset(page.Offset()).
			Limit(page.PageSize).
			Find(&products).Error; err != nil {
			return nil, persistenceError("list products", err)
		}
	}

	return &ProductPage{
		Products:              products,
		Count:                 total,
		LastPage:              lastPage,
		NumOfResultsOnCurPage: len(products),
	}, nil
}

// GetByID loads one product. Within a request carrying a ProductMemo the
// lookup hits storage at most once per id.
func (r *ProductsRepository) GetByID(ctx context.Context, id uint) (*Product, error) {
	if memo := productMemoFrom(ctx); memo != nil {
		return memo.load(id, func() (*Product, error) {
			return r.getByID(ctx, id)
		})
	}
	return r.getByID(ctx, id)
}

func (r *ProductsRepository) getByID(ctx context.Context, id uint) (*Product, error) {
	var product Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, persistenceError("get product", err)
	}
	return &product, nil
}

// GetProductCategories lists the categories linked to a product.
func (r *ProductsRepository) GetProductCategories(ctx context.Context, productID uint) ([]Category, error) {
	categories := []Category{}
	err := r.db.WithContext(ctx).
		Table("product_categories").
		Select("categories.id, categories.name").
		Joins("INNER JOIN categories ON categories.id = product_categories.category_id").
		Where("product_categories.product_id = ?", productID).
		Order("categories.id").
		Scan(&categories).Error
	if err != nil {
		return nil, persistenceError("get product categories", err)
	}
	return categories, nil
}

// CategoriesForProducts lists linked categories for several products in one query.
func (r *ProductsRepository) CategoriesForProducts(ctx context.Context, productIDs []uint) (map[uint][]Category, error) {
	result := make(map[uint][]Category, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	var rows []struct {
		ProductID uint
		ID        uint
		Name      string
	}
	err := r.db.WithContext(ctx).
		Table("product_categories").
		Select("product_categories.product_id, categories.id, categories.name").
		Joins("INNER JOIN categories ON categories.id = product_categories.category_id").
		Where("product_categories.product_id IN ?", productIDs).
		Order("product_categories.product_id, categories.id").
		Scan(&rows).Error
	if err != nil {
		return nil, persistenceError("get categories for products", err)
	}
	for _, row := range rows {
		result[row.ProductID] = append(result[row.ProductID], Category{ID: row.ID, Name: row.Name})
	}
	return result, nil
}

// BrandNames maps brand ids to names. Unknown ids are absent from the map.
func (r *ProductsRepository) BrandNames(ctx context.Context, brandIDs []uint) (map[uint]string, error) {
	names := make(map[uint]string, len(brandIDs))
	if len(brandIDs) == 0 {
		return names, nil
	}
	var brands []Brand
	if err := r.db.WithContext(ctx).Where("id IN ?", brandIDs).Find(&brands).Error; err != nil {
		return nil, persistenceError("get brand names", err)
	}
	for _, b := range brands {
		names[b.ID] = b.Name
	}
	return names, nil
}

// CreateProduct inserts the product and one link row per category in a single
// transaction. On success product.ID holds the generated id.
func (r *ProductsRepository) CreateProduct(ctx context.Context, product *Product, categoryIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(product).Error; err != nil {
			return err
		}
		if product.ID == 0 {
			return errors.New("product insert returned no id")
		}
		return insertCategoryLinks(tx, product.ID, categoryIDs)
	})
	if err != nil {
		product.ID = 0
		return persistenceError("create product", err)
	}
	return nil
}

// UpdateProduct rewrites the product row and replaces its category links in a
// single transaction. An empty categoryIDs leaves the product without links.
func (r *ProductsRepository) UpdateProduct(ctx context.Context, product *Product, categoryIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProductExists(tx, product.ID); err != nil {
			return err
		}
		if err := tx.Model(&Product{}).
			Where("id = ?", product.ID).
			Updates(productColumns(product)).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", product.ID).Delete(&ProductCategory{}).Error; err != nil {
			return err
		}
		return insertCategoryLinks(tx, product.ID, categoryIDs)
	})
	if memo := productMemoFrom(ctx); memo != nil {
		memo.forget(product.ID)
	}
	return persistenceError("update product", err)
}

// DeleteProduct removes the product and every row referencing it, leaves first,
// so referential integrity holds at every step of the transaction.
func (r *ProductsRepository) DeleteProduct(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureProductExists(tx, id); err != nil {
			return err
		}
		for _, dependent := range []interface{}{&ProductCategory{}, &Review{}, &Comment{}} {
			if err := tx.Where("product_id = ?", id).Delete(dependent).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&Product{}, id).Error
	})
	if memo := productMemoFrom(ctx); memo != nil {
		memo.forget(id)
	}
	return persistenceError("delete product", err)
}

func ensureProductExists(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("product %d: %w", id, ErrProductNotFound)
	}
	return nil
}

func insertCategoryLinks(tx *gorm.DB, productID uint, categoryIDs []uint) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	seen := make(map[uint]struct{}, len(categoryIDs))
	links := make([]ProductCategory, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		if _, ok := seen[categoryID]; ok {
			continue
		}
		seen[categoryID] = struct{}{}
		links = append(links, ProductCategory{ProductID: productID, CategoryID: categoryID})
	}
	return tx.Omit(clause.Associations).Create(&links).Error
}

func productColumns(p *Product) map[string]interface{} {
	return map[string]interface{}{
		"name":        p.Name,
		"description": p.Description,
		"rating":      p.Rating,
		"old_price":   p.OldPrice,
		"discount":    p.Discount,
		"price":       p.Price,
		"colors":      p.Colors,
		"gender":      p.Gender,
		"brands":      p.Brands,
		"occasion":    p.Occasion,
		"image_url":   p.ImageURL,
	}
}
