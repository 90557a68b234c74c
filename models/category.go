package models

// Category represents a product category.
// Products are linked to categories through the product_categories table.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

func (c *Category) TableName() string {
	return "categories"
}

// Brand is referenced by id from the encoded brands column of a product.
type Brand struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"not null"`
}

func (b *Brand) TableName() string {
	return "brands"
}

// Occasion is referenced by its slug from the encoded occasion column of a product.
type Occasion struct {
	ID   uint   `gorm:"primaryKey"`
	Slug string `gorm:"uniqueIndex;not null"`
	Name string `gorm:"not null"`
}

func (o *Occasion) TableName() string {
	return "occasions"
}
