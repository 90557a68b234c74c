package models

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseProductFilters(t *testing.T) {
	testCases := []struct {
		name    string
		query   string
		check   func(t *testing.T, f ProductFilters)
		wantErr bool
	}{
		{
			name:  "no params",
			query: "",
			check: func(t *testing.T, f ProductFilters) {
				assert.Empty(t, f.BrandIDs)
				assert.Empty(t, f.CategoryIDs)
				assert.Nil(t, f.MaxPrice)
				assert.Nil(t, f.MinDiscount)
				assert.Empty(t, f.Occasions)
				assert.Nil(t, f.Sort)
			},
		},
		{
			name:  "id lists",
			query: "brandId=5,15&categoryId=2",
			check: func(t *testing.T, f ProductFilters) {
				assert.Equal(t, []uint{5, 15}, f.BrandIDs)
				assert.Equal(t, []uint{2}, f.CategoryIDs)
			},
		},
		{
			name:  "blank ids are absent",
			query: "brandId=,%20,&categoryId=",
			check: func(t *testing.T, f ProductFilters) {
				assert.Empty(t, f.BrandIDs)
				assert.Empty(t, f.CategoryIDs)
			},
		},
		{
			name:  "price range",
			query: "priceRangeFrom=10&priceRangeTo=90.5",
			check: func(t *testing.T, f ProductFilters) {
				require.NotNil(t, f.MinPrice)
				require.NotNil(t, f.MaxPrice)
				assert.True(t, f.MinPrice.Equal(decimal.NewFromInt(10)))
				assert.True(t, f.MaxPrice.Equal(decimal.RequireFromString("90.5")))
			},
		},
		{
			name:  "discount lower bound only",
			query: "discount=20",
			check: func(t *testing.T, f ProductFilters) {
				require.NotNil(t, f.MinDiscount)
				assert.True(t, f.MinDiscount.Equal(decimal.NewFromInt(20)))
				assert.Nil(t, f.MaxDiscount)
			},
		},
		{
			name:  "discount range",
			query: "discount=6-10",
			check: func(t *testing.T, f ProductFilters) {
				require.NotNil(t, f.MinDiscount)
				require.NotNil(t, f.MaxDiscount)
				assert.True(t, f.MinDiscount.Equal(decimal.NewFromInt(6)))
				assert.True(t, f.MaxDiscount.Equal(decimal.NewFromInt(10)))
			},
		},
		{
			name:  "occasion tokens are trimmed",
			query: "occasions=" + url.QueryEscape(" casual, ,party ,"),
			check: func(t *testing.T, f ProductFilters) {
				assert.Equal(t, []string{"casual", "party"}, f.Occasions)
			},
		},
		{
			name:  "only separators in occasions",
			query: "occasions=" + url.QueryEscape(" , ,"),
			check: func(t *testing.T, f ProductFilters) {
				assert.Empty(t, f.Occasions)
			},
		},
		{
			name:  "sort",
			query: "sortBy=price-desc",
			check: func(t *testing.T, f ProductFilters) {
				require.NotNil(t, f.Sort)
				assert.Equal(t, "price", f.Sort.Column)
				assert.True(t, f.Sort.Desc)
			},
		},
		{name: "non numeric brand", query: "brandId=5,abc", wantErr: true},
		{name: "negative category", query: "categoryId=-1", wantErr: true},
		{name: "non numeric price", query: "priceRangeTo=cheap", wantErr: true},
		{name: "non numeric discount", query: "discount=lots", wantErr: true},
		{name: "discount without lower bound", query: "discount=-10", wantErr: true},
		{name: "non numeric discount upper bound", query: "discount=5-x", wantErr: true},
		{name: "sort key outside allow-list", query: "sortBy=" + url.QueryEscape("id;DROP TABLE products-asc"), wantErr: true},
		{name: "sort direction unknown", query: "sortBy=name-sideways", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			f, err := ParseProductFilters(q)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			tc.check(t, f)
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	s, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = ParseSortOrder("rating")
	require.NoError(t, err)
	assert.Equal(t, &SortOrder{Column: "rating"}, s)

	s, err = ParseSortOrder("Name-ASC")
	require.NoError(t, err)
	assert.Equal(t, &SortOrder{Column: "name"}, s)

	_, err = ParseSortOrder("discount-asc")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestGenderSentinelIsAbsent(t *testing.T) {
	assert.Equal(t, "", ProductFilters{Gender: "None"}.gender())
	assert.Equal(t, "", ProductFilters{Gender: "  "}.gender())
	assert.Equal(t, "women", ProductFilters{Gender: "Women"}.gender())
}

func compileFilters(t *testing.T, f ProductFilters) (string, []interface{}) {
	t.Helper()
	db := newTestDB(t).Session(&gorm.Session{DryRun: true})
	stmt := db.Model(&Product{}).Scopes(f.Scope).Order(f.OrderBy()).Find(&[]Product{}).Statement
	return stmt.SQL.String(), stmt.Vars
}

func TestConditionsBindEveryValue(t *testing.T) {
	hostile := "x' OR '1'='1"
	sql, vars := compileFilters(t, ProductFilters{
		BrandIDs:  []uint{5, 15},
		Occasions: []string{hostile},
		Gender:    "men",
	})

	assert.NotContains(t, sql, "'1'='1")
	assert.NotContains(t, sql, "[5")
	assert.Equal(t, 9, strings.Count(sql, " LIKE "), sql)
	assert.Contains(t, vars, "[5,%")
	assert.Contains(t, vars, "%,15,%")
	assert.Contains(t, vars, "%,15]")
	assert.Contains(t, vars, "[15]")
	assert.Contains(t, vars, hostile+",%")
	assert.Contains(t, vars, hostile)
	assert.Contains(t, vars, "men")
}

func TestConditionsComposeWithAnd(t *testing.T) {
	maxPrice := decimal.NewFromInt(90)
	sql, _ := compileFilters(t, ProductFilters{
		BrandIDs:    []uint{5},
		CategoryIDs: []uint{1, 2},
		MaxPrice:    &maxPrice,
	})

	where := sql[strings.Index(sql, "WHERE"):]
	assert.Contains(t, where, ") AND ")
	assert.Contains(t, where, "IN (SELECT")
	assert.Contains(t, where, "ORDER BY")
}

func TestConditionsEmptyFilters(t *testing.T) {
	sql, vars := compileFilters(t, ProductFilters{Gender: GenderAny})
	assert.NotContains(t, sql, "WHERE")
	assert.Empty(t, vars)
}

func TestOrderByTieBreak(t *testing.T) {
	ob := ProductFilters{Sort: &SortOrder{Column: "price", Desc: true}}.OrderBy()
	require.Len(t, ob.Columns, 2)
	assert.Equal(t, "price", ob.Columns[0].Column.Name)
	assert.True(t, ob.Columns[0].Desc)
	assert.Equal(t, "id", ob.Columns[1].Column.Name)
	assert.False(t, ob.Columns[1].Desc)

	ob = ProductFilters{}.OrderBy()
	require.Len(t, ob.Columns, 1)
	assert.Equal(t, "id", ob.Columns[0].Column.Name)
}

func TestCacheKeyDistinguishesFilters(t *testing.T) {
	a := ProductFilters{BrandIDs: []uint{1}}
	b := ProductFilters{CategoryIDs: []uint{1}}
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
	assert.Equal(t, ProductFilters{Gender: "none"}.CacheKey(), ProductFilters{}.CacheKey())
}
