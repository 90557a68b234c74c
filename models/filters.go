package models

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GenderAny is the gender filter value meaning "no constraint".
const GenderAny = "none"

var (
	idColumn       = clause.Column{Table: "products", Name: "id"}
	brandsColumn   = clause.Column{Table: "products", Name: "brands"}
	occasionColumn = clause.Column{Table: "products", Name: "occasion"}
	priceColumn    = clause.Column{Table: "products", Name: "price"}
	genderColumn   = clause.Column{Table: "products", Name: "gender"}
	discountColumn = clause.Column{Table: "products", Name: "discount"}
)

// sortColumns is the allow-list of sort keys.
var sortColumns = map[string]string{
	"name":   "name",
	"price":  "price",
	"rating": "rating",
}

// ProductFilters holds the optional listing criteria. A zero value matches
// every product. Criteria are ANDed; values inside one criterion are ORed.
type ProductFilters struct {
	BrandIDs    []uint
	CategoryIDs []uint
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Gender      string
	Occasions   []string
	MinDiscount *decimal.Decimal
	MaxDiscount *decimal.Decimal
	Sort        *SortOrder
}

// SortOrder is an allow-listed column and a direction.
type SortOrder struct {
	Column string
	Desc   bool
}

// ParseProductFilters reads listing criteria from query parameters:
// brandId, categoryId (comma separated ids), priceRangeFrom, priceRangeTo,
// gender, occasions (comma separated tokens), discount ("min" or "min-max")
// and sortBy ("<column>-<asc|desc>").
func ParseProductFilters(q url.Values) (ProductFilters, error) {
	var (
		f   ProductFilters
		err error
	)

	if f.BrandIDs, err = parseIDList("brandId", q.Get("brandId")); err != nil {
		return ProductFilters{}, err
	}
	if f.CategoryIDs, err = parseIDList("categoryId", q.Get("categoryId")); err != nil {
		return ProductFilters{}, err
	}
	if f.MinPrice, err = parseDecimal("priceRangeFrom", q.Get("priceRangeFrom")); err != nil {
		return ProductFilters{}, err
	}
	if f.MaxPrice, err = parseDecimal("priceRangeTo", q.Get("priceRangeTo")); err != nil {
		return ProductFilters{}, err
	}
	if raw := q.Get("discount"); strings.TrimSpace(raw) != "" {
		minStr, maxStr, hasMax := strings.Cut(raw, "-")
		if strings.TrimSpace(minStr) == "" {
			return ProductFilters{}, invalidFilter("discount", "%q has no lower bound", raw)
		}
		if f.MinDiscount, err = parseDecimal("discount", minStr); err != nil {
			return ProductFilters{}, err
		}
		if hasMax {
			if f.MaxDiscount, err = parseDecimal("discount", maxStr); err != nil {
				return ProductFilters{}, err
			}
		}
	}
	f.Gender = q.Get("gender")
	f.Occasions = DecodeTokens(q.Get("occasions"))
	if f.Sort, err = ParseSortOrder(q.Get("sortBy")); err != nil {
		return ProductFilters{}, err
	}
	return f, nil
}

// ParseSortOrder parses "<column>-<direction>". An empty value means the
// default order; an unknown column or direction is rejected.
func ParseSortOrder(raw string) (*SortOrder, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	key, dir, _ := strings.Cut(raw, "-")
	column, ok := sortColumns[strings.ToLower(key)]
	if !ok {
		return nil, invalidFilter("sortBy", "column %q is not sortable", key)
	}
	switch strings.ToLower(dir) {
	case "", "asc":
		return &SortOrder{Column: column}, nil
	case "desc":
		return &SortOrder{Column: column, Desc: true}, nil
	default:
		return nil, invalidFilter("sortBy", "direction %q must be asc or desc", dir)
	}
}

func parseIDList(param, raw string) ([]uint, error) {
	var ids []uint
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return nil, invalidFilter(param, "%q is not an id", part)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}

func parseDecimal(param, raw string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, invalidFilter(param, "%q is not a number", raw)
	}
	return &d, nil
}

func (f ProductFilters) gender() string {
	g := strings.ToLower(strings.TrimSpace(f.Gender))
	if g == GenderAny {
		return ""
	}
	return g
}

// Conditions compiles the criteria into predicate expressions over the
// products table. db is used only to build the category subquery.
func (f ProductFilters) Conditions(db *gorm.DB) []clause.Expression {
	var conds []clause.Expression

	if expr := MembershipCondition(brandsColumn, BracketedList, idTokens(f.BrandIDs)); expr != nil {
		conds = append(conds, expr)
	}
	if len(f.CategoryIDs) > 0 {
		linked := db.Session(&gorm.Session{NewDB: true}).
			Model(&ProductCategory{}).
			Select("product_id").
			Where("category_id IN ?", f.CategoryIDs)
		conds = append(conds, clause.Expr{SQL: "? IN (?)", Vars: []interface{}{idColumn, linked}})
	}
	if f.MinPrice != nil {
		conds = append(conds, clause.Gte{Column: priceColumn, Value: *f.MinPrice})
	}
	if f.MaxPrice != nil {
		conds = append(conds, clause.Lte{Column: priceColumn, Value: *f.MaxPrice})
	}
	if g := f.gender(); g != "" {
		conds = append(conds, clause.Expr{SQL: "LOWER(?) = ?", Vars: []interface{}{genderColumn, g}})
	}
	if expr := MembershipCondition(occasionColumn, DelimitedList, f.Occasions); expr != nil {
		conds = append(conds, expr)
	}
	if f.MinDiscount != nil {
		conds = append(conds, clause.Gte{Column: discountColumn, Value: *f.MinDiscount})
	}
	if f.MaxDiscount != nil {
		conds = append(conds, clause.Lte{Column: discountColumn, Value: *f.MaxDiscount})
	}
	return conds
}

// Scope applies the compiled predicate to a products query.
func (f ProductFilters) Scope(db *gorm.DB) *gorm.DB {
	if conds := f.Conditions(db); len(conds) > 0 {
		db = db.Clauses(clause.Where{Exprs: conds})
	}
	return db
}

// OrderBy returns the requested order with the id as a tie-break, so pages
// stay deterministic when the sort key has duplicates.
func (f ProductFilters) OrderBy() clause.OrderBy {
	var columns []clause.OrderByColumn
	if f.Sort != nil {
		columns = append(columns, clause.OrderByColumn{
			Column: clause.Column{Table: "products", Name: f.Sort.Column},
			Desc:   f.Sort.Desc,
		})
	}
	columns = append(columns, clause.OrderByColumn{Column: idColumn})
	return clause.OrderBy{Columns: columns}
}

// CacheKey is a stable textual form of the filters, used to key cached listings.
func (f ProductFilters) CacheKey() string {
	var b strings.Builder
	b.WriteString("b=" + strings.Join(idTokens(f.BrandIDs), ","))
	b.WriteString("|c=" + strings.Join(idTokens(f.CategoryIDs), ","))
	b.WriteString("|p=" + decimalKey(f.MinPrice) + "-" + decimalKey(f.MaxPrice))
	b.WriteString("|g=" + f.gender())
	b.WriteString("|o=" + strings.Join(f.Occasions, ","))
	b.WriteString("|d=" + decimalKey(f.MinDiscount) + "-" + decimalKey(f.MaxDiscount))
	if f.Sort != nil {
		b.WriteString("|s=" + f.Sort.Column)
		if f.Sort.Desc {
			b.WriteString("-desc")
		}
	}
	return b.String()
}

func decimalKey(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
