package products

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mytheresa/product-catalog/models"
)

// --- Mock Service ---

type MockMutator struct {
	Err error

	lastPayload Payload
	lastID      uint
}

func (m *MockMutator) Create(_ context.Context, p Payload) (string, error) {
	m.lastPayload = p
	if m.Err != nil {
		return "", m.Err
	}
	return "Product created successfully", nil
}

func (m *MockMutator) Update(_ context.Context, p Payload) (string, error) {
	m.lastPayload = p
	if m.Err != nil {
		return "", m.Err
	}
	return "Product updated successfully", nil
}

func (m *MockMutator) Delete(_ context.Context, id uint) (string, error) {
	m.lastID = id
	if m.Err != nil {
		return "", m.Err
	}
	return "Product deleted successfully", nil
}

func newMux(h *ProductHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /products", h.HandleCreate)
	mux.HandleFunc("PUT /products/{id}", h.HandleUpdate)
	mux.HandleFunc("DELETE /products/{id}", h.HandleDelete)
	return mux
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// --- Tests ---

func TestHandleCreate(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		serviceErr   error
		expectedCode int
		expectedKey  string
		expectedText string
	}{
		{
			name:         "created",
			body:         `{"name":"Coat","old_price":100,"discount":20}`,
			expectedCode: http.StatusCreated,
			expectedKey:  "message",
			expectedText: "Product created successfully",
		},
		{
			name:         "type error in body",
			body:         `{"old_price":"cheap"}`,
			expectedCode: http.StatusBadRequest,
			expectedKey:  "error",
			expectedText: "Old price must be a number",
		},
		{
			name:         "validation error",
			body:         `{}`,
			serviceErr:   &models.ValidationError{Field: "name", Message: "Product name is required"},
			expectedCode: http.StatusBadRequest,
			expectedKey:  "error",
			expectedText: "Product name is required",
		},
		{
			name: "persistence failure",
			body: `{}`,
			serviceErr: &Failure{
				Message: "Something went wrong, cannot create the product",
				Err:     &models.PersistenceError{Op: "create product", Err: errors.New("pq: deadlock")},
			},
			expectedCode: http.StatusInternalServerError,
			expectedKey:  "error",
			expectedText: "Something went wrong, cannot create the product",
		},
		{
			name:         "untyped error is not echoed",
			body:         `{}`,
			serviceErr:   errors.New("pq: password authentication failed"),
			expectedCode: http.StatusInternalServerError,
			expectedKey:  "error",
			expectedText: "Something went wrong",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &MockMutator{Err: tc.serviceErr}
			req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			newMux(NewProductHandler(mock)).ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tc.expectedText, decodeBody(t, rec)[tc.expectedKey])
		})
	}
}

func TestHandleUpdate(t *testing.T) {
	t.Run("path id is used", func(t *testing.T) {
		mock := &MockMutator{}
		req := httptest.NewRequest(http.MethodPut, "/products/12", strings.NewReader(`{"name":"Coat"}`))
		rec := httptest.NewRecorder()

		newMux(NewProductHandler(mock)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, mock.lastPayload.ID)
		assert.Equal(t, uint(12), *mock.lastPayload.ID)
	})

	t.Run("mismatching body id", func(t *testing.T) {
		mock := &MockMutator{}
		req := httptest.NewRequest(http.MethodPut, "/products/12", strings.NewReader(`{"id":13}`))
		rec := httptest.NewRecorder()

		newMux(NewProductHandler(mock)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, mock.lastPayload.ID, "service must not be called")
	})

	t.Run("not found", func(t *testing.T) {
		mock := &MockMutator{Err: &Failure{Message: "Could not find the product", Err: models.ErrProductNotFound}}
		req := httptest.NewRequest(http.MethodPut, "/products/12", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		newMux(NewProductHandler(mock)).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Could not find the product", decodeBody(t, rec)["error"])
	})
}

func TestHandleDelete(t *testing.T) {
	testCases := []struct {
		name         string
		path         string
		serviceErr   error
		expectedCode int
	}{
		{name: "deleted", path: "/products/3", expectedCode: http.StatusOK},
		{name: "bad id", path: "/products/abc", expectedCode: http.StatusBadRequest},
		{name: "zero id", path: "/products/0", expectedCode: http.StatusBadRequest},
		{
			name:         "missing product",
			path:         "/products/3",
			serviceErr:   &Failure{Message: "Could not find the product", Err: models.ErrProductNotFound},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock := &MockMutator{Err: tc.serviceErr}
			req := httptest.NewRequest(http.MethodDelete, tc.path, nil)
			rec := httptest.NewRecorder()

			newMux(NewProductHandler(mock)).ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedCode, rec.Code)
		})
	}
}
