package rest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sleepoutside/storefront/internal/catalog"
)

func newCatalogFixture(t *testing.T) *chi.Mux {
	t.Helper()
	handler := NewCatalogHandler(tentCatalog(), discardLogger())
	mux := chi.NewRouter()
	handler.RegisterRoutes(mux)
	return mux
}

func Test_CatalogAPI_List(t *testing.T) {
	testCases := []struct {
		name         string
		url          string
		expectedCode int
		expectedLen  int
	}{
		{
			name:         "success",
			url:          "/api/v1/products?category=tents",
			expectedCode: http.StatusOK,
			expectedLen:  3,
		},
		{
			name:         "unknown category yields empty list",
			url:          "/api/v1/products?category=sleeping-bags",
			expectedCode: http.StatusOK,
			expectedLen:  0,
		},
		{
			name:         "missing category parameter",
			url:          "/api/v1/products",
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mux := newCatalogFixture(t)

			// when
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rr := httptest.NewRecorder()
			mux.ServeHTTP(rr, req)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedCode == http.StatusOK {
				var products []catalog.Product
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &products))
				assert.Len(t, products, tc.expectedLen)
			}
		})
	}
}

func Test_CatalogAPI_FindByID(t *testing.T) {
	// given
	mux := newCatalogFixture(t)

	// when
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/tents/880RR", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	var product catalog.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &product))
	assert.Equal(t, "Ajax Tent - 3-Person", product.Name)
	require.NotNil(t, product.FinalPrice)
	assert.Equal(t, 199.99, *product.FinalPrice)
}

func Test_CatalogAPI_FindByID_NotFound(t *testing.T) {
	// given
	mux := newCatalogFixture(t)

	// when
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/tents/ZZZZZ", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	// then
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
