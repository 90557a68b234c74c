package models

import (
	"github.com/shopspring/decimal"
)

// Gender tags accepted on a product.
const (
	GenderMen   = "men"
	GenderWomen = "women"
	GenderBoy   = "boy"
	GenderGirl  = "girl"
)

// Product represents a product in the catalog.
// Brand and occasion membership are stored flattened in Brands and Occasion,
// see EncodeIDs and EncodeTokens.
type Product struct {
	ID          uint                `gorm:"primaryKey"`
	Name        string              `gorm:"not null"`
	Description string              `gorm:"type:text;not null"`
	Rating      decimal.NullDecimal `gorm:"type:decimal(3,1)"`
	OldPrice    decimal.Decimal     `gorm:"type:decimal(10,2);not null"`
	Discount    decimal.Decimal     `gorm:"type:decimal(5,2);not null"`
	Price       decimal.Decimal     `gorm:"type:decimal(10,2);not null;index"`
	Colors      string              `gorm:"not null"`
	Gender      string              `gorm:"size:16;index"`
	Brands      string              `gorm:"type:text;not null"`
	Occasion    string              `gorm:"type:text;not null"`
	ImageURL    string              `gorm:"column:image_url"`

	Categories []ProductCategory `gorm:"foreignKey:ProductID"`
	Reviews    []Review          `gorm:"foreignKey:ProductID"`
	Comments   []Comment         `gorm:"foreignKey:ProductID"`
}

func (p *Product) TableName() string {
	return "products"
}

// BrandIDs decodes the brand membership of the product.
func (p *Product) BrandIDs() []uint {
	ids, err := DecodeIDs(p.Brands)
	if err != nil {
		return nil
	}
	return ids
}

// Occasions decodes the occasion membership of the product.
func (p *Product) Occasions() []string {
	return DecodeTokens(p.Occasion)
}

// EffectivePrice is the list price minus the discount percentage, rounded to cents.
func EffectivePrice(oldPrice, discount decimal.Decimal) decimal.Decimal {
	off := oldPrice.Mul(discount).Div(decimal.NewFromInt(100))
	return oldPrice.Sub(off).Round(2)
}

// ProductCategory links one product to one category.
type ProductCategory struct {
	ProductID  uint     `gorm:"primaryKey;autoIncrement:false"`
	CategoryID uint     `gorm:"primaryKey;autoIncrement:false;index"`
	Category   Category `gorm:"foreignKey:CategoryID"`
}

func (pc *ProductCategory) TableName() string {
	return "product_categories"
}

// Review is only touched by this module when its product is deleted.
type Review struct {
	ID        uint `gorm:"primaryKey"`
	ProductID uint `gorm:"not null;index"`
	Rating    int
	Body      string `gorm:"type:text"`
}

func (r *Review) TableName() string {
	return "reviews"
}

// Comment is only touched by this module when its product is deleted.
type Comment struct {
	ID        uint   `gorm:"primaryKey"`
	ProductID uint   `gorm:"not null;index"`
	Body      string `gorm:"type:text"`
}

func (c *Comment) TableName() string {
	return "comments"
}
