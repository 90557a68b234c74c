package models

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

type productMemoKey struct{}

// ProductMemo memoizes product lookups by id for the lifetime of one request.
// Concurrent lookups of the same id share a single query.
type ProductMemo struct {
	group    singleflight.Group
	mu       sync.Mutex
	products map[uint]Product
	missing  map[uint]struct{}
}

// WithProductMemo returns a context carrying a fresh memo. Nothing outlives ctx.
func WithProductMemo(ctx context.Context) context.Context {
	return context.WithValue(ctx, productMemoKey{}, &ProductMemo{
		products: make(map[uint]Product),
		missing:  make(map[uint]struct{}),
	})
}

func productMemoFrom(ctx context.Context) *ProductMemo {
	m, _ := ctx.Value(productMemoKey{}).(*ProductMemo)
	return m
}

func (m *ProductMemo) load(id uint, fetch func() (*Product, error)) (*Product, error) {
	m.mu.Lock()
	if p, ok := m.products[id]; ok {
		m.mu.Unlock()
		return &p, nil
	}
	if _, ok := m.missing[id]; ok {
		m.mu.Unlock()
		return nil, ErrProductNotFound
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do(strconv.FormatUint(uint64(id), 10), func() (interface{}, error) {
		p, err := fetch()
		m.mu.Lock()
		defer m.mu.Unlock()
		switch {
		case err == nil:
			m.products[id] = *p
		case errors.Is(err, ErrProductNotFound):
			m.missing[id] = struct{}{}
		}
		return p, err
	})
	if err != nil {
		return nil, err
	}
	p := *v.(*Product)
	return &p, nil
}

func (m *ProductMemo) forget(id uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	delete(m.missing, id)
}
