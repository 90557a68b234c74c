package products

import (
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mytheresa/product-catalog/models"
)

// Option is a {value, label} pair as sent by the product form.
type Option struct {
	Value uint   `json:"value" validate:"required"`
	Label string `json:"label"`
}

// OccasionOption carries a free-text occasion token. Tokens are stored
// comma-delimited, so a comma inside a token is rejected.
type OccasionOption struct {
	Value string `json:"value" validate:"required,excludesall=0x2C"`
	Label string `json:"label"`
}

// Payload is the create/edit request body.
type Payload struct {
	ID          *uint            `json:"id"`
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description" validate:"required"`
	Rating      *float64         `json:"rating" validate:"omitempty,gte=0,lte=5,decimals=1"`
	OldPrice    *float64         `json:"old_price" validate:"required,gt=0,lt=100000000,decimals=2"`
	Discount    *float64         `json:"discount" validate:"required,gte=0,lte=100,decimals=2"`
	Colors      string           `json:"colors" validate:"required"`
	Gender      string           `json:"gender" validate:"omitempty,oneof=men women boy girl"`
	Brands      []Option         `json:"brands" validate:"required,min=1,dive"`
	Occasion    []OccasionOption `json:"occasion" validate:"required,min=1,dive"`
	Categories  []Option         `json:"categories" validate:"required,min=1,dive"`
	ImageURL    string           `json:"image_url"`
}

// messages are keyed by "<json field>.<tag>", or "<json field>[].<tag>" for a
// rule on an element. "<json field>.*" covers everything else on that field.
var messages = map[string]string{
	"name.required":          "Product name is required",
	"description.required":   "Product description is required",
	"rating.decimals":        "Rating can have at most 1 decimal place",
	"rating.*":               "Rating must be between 0 and 5",
	"old_price.required":     "Old price is required",
	"old_price.gt":           "Old price must be greater than 0",
	"old_price.lt":           "Old price must be less than 100000000",
	"old_price.decimals":     "Old price can have at most 2 decimal places",
	"discount.required":      "Discount is required",
	"discount.decimals":      "Discount can have at most 2 decimal places",
	"discount.*":             "Discount must be between 0 and 100",
	"colors.required":        "Colors are required",
	"gender.oneof":           "Gender must be one of men, women, boy, or girl",
	"brands.required":        "At least one brand must be selected",
	"brands.min":             "Select at least one brand",
	"brands.*":               "Brands must be an array of brand objects",
	"occasion.required":      "At least one occasion must be selected",
	"occasion.min":           "Select at least one occasion",
	"occasion[].excludesall": "Occasion values cannot contain commas",
	"occasion.*":             "Occasion must be an array of occasion objects",
	"categories.required":    "At least one category must be selected",
	"categories.min":         "Select at least one category",
	"categories.*":           "Categories must be an array of category objects",
}

// typeMessages report a JSON value of the wrong type.
var typeMessages = map[string]string{
	"id":         "Id must be a number",
	"rating":     "Rating must be a number",
	"old_price":  "Old price must be a number",
	"discount":   "Discount must be a number",
	"brands":     "Brands must be an array of brand objects",
	"occasion":   "Occasion must be an array of occasion objects",
	"categories": "Categories must be an array of category objects",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("decimals", maxDecimals); err != nil {
		panic(err)
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// maxDecimals reports whether a number has at most param digits after the
// decimal point, so it is stored without rounding.
func maxDecimals(fl validator.FieldLevel) bool {
	places, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	switch fl.Field().Kind() {
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(fl.Field().Float()).Exponent() >= -int32(places)
	}
	return false
}

// DecodePayload reads a JSON payload. Type mismatches become a
// ValidationError naming the field.
func DecodePayload(r io.Reader) (Payload, error) {
	var p Payload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			field := rootField(typeErr.Field)
			if msg, ok := typeMessages[field]; ok {
				return p, &models.ValidationError{Field: field, Message: msg}
			}
		}
		return p, &models.ValidationError{Message: "Invalid request body"}
	}
	return p, nil
}

func (p *Payload) normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Colors = strings.TrimSpace(p.Colors)
	p.Gender = strings.TrimSpace(p.Gender)
	p.ImageURL = strings.TrimSpace(p.ImageURL)
	for i := range p.Occasion {
		p.Occasion[i].Value = strings.TrimSpace(p.Occasion[i].Value)
	}
}

// validate returns the first violated rule as a ValidationError.
func (p *Payload) validate(v *validator.Validate, requireID bool) error {
	p.normalize()
	if requireID && (p.ID == nil || *p.ID == 0) {
		return &models.ValidationError{Field: "id", Message: "Id is required"}
	}

	err := v.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &models.ValidationError{Message: err.Error()}
	}
	first := fieldErrs[0]
	field := rootField(first.Namespace())
	element := strings.Contains(first.Namespace(), "[")
	return &models.ValidationError{Field: field, Message: messageFor(field, first.Tag(), element)}
}

func messageFor(field, tag string, element bool) string {
	key := field + "." + tag
	if element {
		key = field + "[]." + tag
	}
	if msg, ok := messages[key]; ok {
		return msg
	}
	if msg, ok := messages[field+".*"]; ok {
		return msg
	}
	return "Invalid " + strings.ReplaceAll(field, "_", " ")
}

// rootField turns "Payload.brands[0].value" or "brands.value" into "brands".
func rootField(namespace string) string {
	namespace = strings.TrimPrefix(namespace, "Payload.")
	if i := strings.IndexAny(namespace, ".["); i >= 0 {
		namespace = namespace[:i]
	}
	return namespace
}

// product builds the row to persist together with its category ids.
func (p *Payload) product() (*models.Product, []uint) {
	oldPrice := decimal.NewFromFloat(*p.OldPrice)
	discount := decimal.NewFromFloat(*p.Discount)

	brandIDs := make([]uint, len(p.Brands))
	for i, b := range p.Brands {
		brandIDs[i] = b.Value
	}
	occasions := make([]string, len(p.Occasion))
	for i, o := range p.Occasion {
		occasions[i] = o.Value
	}
	categoryIDs := make([]uint, len(p.Categories))
	for i, c := range p.Categories {
		categoryIDs[i] = c.Value
	}

	product := &models.Product{
		Name:        p.Name,
		Description: p.Description,
		OldPrice:    oldPrice,
		Discount:    discount,
		Price:       models.EffectivePrice(oldPrice, discount),
		Colors:      p.Colors,
		Gender:      p.Gender,
		Brands:      models.EncodeIDs(brandIDs),
		Occasion:    models.EncodeTokens(occasions),
		ImageURL:    p.ImageURL,
	}
	if p.Rating != nil {
		product.Rating = decimal.NewNullDecimal(decimal.NewFromFloat(*p.Rating))
	}
	if p.ID != nil {
		product.ID = *p.ID
	}
	return product, categoryIDs
}
