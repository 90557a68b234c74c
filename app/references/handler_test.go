package references

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/mytheresa/product-catalog/models"
)

// --- Mock Repository ---

type MockReferenceRepo struct {
	Categories []models.Category
	Brands     []models.Brand
	Occasions  []models.Occasion
	CreateErr  error
	ListErr    error
	LastSaved  *models.Category
}

func (m *MockReferenceRepo) GetAllCategories(context.Context) ([]models.Category, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Categories, nil
}

func (m *MockReferenceRepo) CreateCategory(_ context.Context, cat *models.Category) error {
	m.LastSaved = cat
	if m.CreateErr == nil {
		cat.ID = 9
	}
	return m.CreateErr
}

func (m *MockReferenceRepo) GetAllBrands(context.Context) ([]models.Brand, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Brands, nil
}

func (m *MockReferenceRepo) GetAllOccasions(context.Context) ([]models.Occasion, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.Occasions, nil
}

func newTestHandler(repo *MockReferenceRepo) *ReferenceHandler {
	return NewReferenceHandler(repo, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// --- Tests: GET /categories ---

func TestHandleGetCategories(t *testing.T) {
	testCases := []struct {
		name               string
		mockRepoSetup      func() *MockReferenceRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
	}{
		{
			name: "Success with multiple categories",
			mockRepoSetup: func() *MockReferenceRepo {
				return &MockReferenceRepo{
					Categories: []models.Category{
						{ID: 1, Name: "Clothing"},
						{ID: 2, Name: "Shoes"},
					},
				}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var resp []CategoryResponse
				err := json.NewDecoder(rec.Body).Decode(&resp)
				assert.NoError(t, err)
				assert.Len(t, resp, 2)
				assert.Equal(t, uint(1), resp[0].ID)
				assert.Equal(t, "Shoes", resp[1].Name)
			},
		},
		{
			name: "Success with empty list",
			mockRepoSetup: func() *MockReferenceRepo {
				return &MockReferenceRepo{
					Categories: []models.Category{},
				}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `[]`, rec.Body.String())
			},
		},
		{
			name: "Repository error",
			mockRepoSetup: func() *MockReferenceRepo {
				return &MockReferenceRepo{
					ListErr: errors.New("db down"),
				}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "failed to fetch categories", errResp["error"])
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := newTestHandler(mockRepo)
			req := httptest.NewRequest("GET", "/categories", nil)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleGetCategories(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
		})
	}
}

// --- Tests: POST /categories ---

func TestHandleCreateCategory(t *testing.T) {
	testCases := []struct {
		name               string
		requestBody        string
		mockRepoSetup      func() *MockReferenceRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCall      func(t *testing.T, repo *MockReferenceRepo)
	}{
		{
			name:        "Success",
			requestBody: `{"name":" Accessories "}`,
			mockRepoSetup: func() *MockReferenceRepo {
				return &MockReferenceRepo{}
			},
			expectedStatusCode: http.StatusCreated,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `{"message":"Category created successfully","id":9}`, rec.Body.String())
			},
			checkRepoCall: func(t *testing.T, repo *MockReferenceRepo) {
				assert.NotNil(t, repo.LastSaved)
				assert.Equal(t, "Accessories", repo.LastSaved.Name)
			},
		},
		{
			name:        "Invalid JSON body",
			requestBody: `{invalid json`,
			mockRepoSetup: func() *MockReferenceRepo {
				return &MockReferenceRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Invalid JSON body", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockReferenceRepo) {
				assert.Nil(t, repo.LastSaved, "CreateCategory should not be called with invalid JSON")
			},
		},
		{
			name:        "Missing name",
			requestBody: `{"name":"  "}`,
			mockRepoSetup: func() *MockReferenceRepo {
				return &MockReferenceRepo{}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Category name is required", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockReferenceRepo) {
				assert.Nil(t, repo.LastSaved, "CreateCategory should not be called with missing fields")
			},
		},
		{
			name:        "Duplicate name",
			requestBody: `{"name":"Shoes"}`,
			mockRepoSetup: func() *MockReferenceRepo {
				return &MockReferenceRepo{CreateErr: &models.PersistenceError{
					Op:  "create category",
					Err: &pq.Error{Code: "23505", Message: "duplicate key value"},
				}}
			},
			expectedStatusCode: http.StatusConflict,
		},
		{
			name:        "Repository error on create",
			requestBody: `{"name":"Toys"}`,
			mockRepoSetup: func() *MockReferenceRepo {
				return &MockReferenceRepo{CreateErr: errors.New("insert failed")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				err := json.NewDecoder(rec.Body).Decode(&errResp)
				assert.NoError(t, err)
				assert.Equal(t, "Failed to create category", errResp["error"])
			},
			checkRepoCall: func(t *testing.T, repo *MockReferenceRepo) {
				assert.NotNil(t, repo.LastSaved, "CreateCategory should have been called")
				assert.Equal(t, "Toys", repo.LastSaved.Name)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := newTestHandler(mockRepo)
			req := httptest.NewRequest("POST", "/categories", strings.NewReader(tc.requestBody))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			// Act
			handler.HandleCreateCategory(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)

			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}

			if tc.checkRepoCall != nil {
				tc.checkRepoCall(t, mockRepo)
			}
		})
	}
}

// --- Tests: GET /brands, GET /occasions ---

func TestHandleGetBrandsAndOccasions(t *testing.T) {
	repo := &MockReferenceRepo{
		Brands:    []models.Brand{{ID: 5, Name: "Burberry"}},
		Occasions: []models.Occasion{{ID: 1, Slug: "casual", Name: "Casual"}},
	}
	handler := newTestHandler(repo)

	rec := httptest.NewRecorder()
	handler.HandleGetBrands(rec, httptest.NewRequest("GET", "/brands", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":5,"name":"Burberry"}]`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.HandleGetOccasions(rec, httptest.NewRequest("GET", "/occasions", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"slug":"casual","name":"Casual"}]`, rec.Body.String())

	repo.ListErr = errors.New("db down")
	rec = httptest.NewRecorder()
	handler.HandleGetBrands(rec, httptest.NewRequest("GET", "/brands", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
