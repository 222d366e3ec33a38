package rest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	perrors "github.com/abgdnv/productapi/internal/errors"
	"github.com/abgdnv/productapi/internal/model"
	"github.com/abgdnv/productapi/internal/service"
	"github.com/abgdnv/productapi/internal/store"
	"github.com/abgdnv/productapi/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// failingService fails every call with err.
type failingService struct {
	err error
}

func (f failingService) FindProducts(context.Context) ([]model.ProductDto, error) { return nil, f.err }
func (f failingService) SaveProduct(context.Context, model.ProductDto) (*model.ProductDto, error) {
	return nil, f.err
}
func (f failingService) FindByExternalID(context.Context, uuid.UUID) (*model.Product, error) {
	return nil, f.err
}
func (f failingService) UpdateProduct(context.Context, uuid.UUID, model.ProductDto) (*model.ProductDto, error) {
	return nil, f.err
}
func (f failingService) DeleteProduct(context.Context, uuid.UUID) error { return f.err }
func (f failingService) SearchProducts(context.Context, string, decimal.Decimal, decimal.Decimal) ([]model.ProductDto, error) {
	return nil, f.err
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func newRouter(svc service.ProductService, pinger store.Pinger) http.Handler {
	mux := chi.NewRouter()
	NewHandler(svc, pinger, discardLogger).RegisterRoutes(mux)
	return mux
}

func newTestRouter() (http.Handler, *store.InMemory) {
	repo := store.NewInMemoryStore()
	return newRouter(service.NewService(repo, nil), repo), repo
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func create(t *testing.T, h http.Handler, body string) model.ProductDto {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/products", body)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var dto model.ProductDto
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &dto))
	return dto
}

func errorBody(t *testing.T, rr *httptest.ResponseRecorder) web.ErrorResponse {
	t.Helper()
	var body web.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func Test_Handler_CreateAndGet(t *testing.T) {
	h, _ := newTestRouter()
	supplied := uuid.New()

	created := create(t, h, `{"id":"`+supplied.String()+`","name":"Toy","description":"red","price":10.50}`)

	assert.NotEqual(t, supplied, created.ID)
	assert.Equal(t, "Toy", created.Name)

	rr := do(t, h, http.MethodGet, "/products/"+created.ID.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"id":"`+created.ID.String()+`","name":"Toy","description":"red","price":10.5}`, rr.Body.String())
}

func Test_Handler_ResponsesNeverExposeKey(t *testing.T) {
	h, _ := newTestRouter()
	created := create(t, h, `{"name":"Toy","price":1}`)

	for _, target := range []string{"/products", "/products/" + created.ID.String(), "/products/search?min_price=0&max_price=5"} {
		rr := do(t, h, http.MethodGet, target, "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, strings.ToLower(rr.Body.String()), "key", target)
		assert.NotContains(t, rr.Body.String(), "created_at", target)
	}
}

func Test_Handler_FindProducts(t *testing.T) {
	h, _ := newTestRouter()

	rr := do(t, h, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Header().Get(web.CountHeader))
	assert.JSONEq(t, `[]`, rr.Body.String())

	first := create(t, h, `{"name":"a","price":1}`)
	second := create(t, h, `{"name":"b","price":2}`)

	rr = do(t, h, http.MethodGet, "/products", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var list []model.ProductDto
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, strconv.Itoa(len(list)), rr.Header().Get(web.CountHeader))
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func Test_Handler_CreateValidation(t *testing.T) {
	h, repo := newTestRouter()
	testCases := []struct {
		name       string
		body       string
		wantFields []string
	}{
		{name: "negative price", body: `{"name":"a","price":-1}`, wantFields: []string{"Price"}},
		{name: "three fraction digits", body: `{"name":"a","price":1.005}`, wantFields: []string{"Price"}},
		{name: "price too large", body: `{"name":"a","price":10000000000}`, wantFields: []string{"Price"}},
		{name: "name too long", body: `{"name":"` + strings.Repeat("x", 256) + `","price":1}`, wantFields: []string{"Name"}},
		{name: "nul in name", body: `{"name":"a\u0000b","price":1}`, wantFields: []string{"Name"}},
		{name: "nul in description", body: `{"name":"a","description":"x\u0000","price":1}`, wantFields: []string{"Description"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, "/products", tc.body)

			require.Equal(t, http.StatusBadRequest, rr.Code)
			var body web.ValidationErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Equal(t, http.StatusBadRequest, body.StatusCode)
			for _, field := range tc.wantFields {
				assert.Contains(t, body.ValidationErrors, field)
			}
		})
	}
	assert.Zero(t, repo.Len())
}

func Test_Handler_UpdateRejectsUnstorableText(t *testing.T) {
	h, _ := newTestRouter()
	created := create(t, h, `{"name":"Old","price":5}`)

	rr := do(t, h, http.MethodPut, "/products/"+created.ID.String(), `{"name":"a\u0000b","price":5}`)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	rr = do(t, h, http.MethodGet, "/products/"+created.ID.String(), "")
	assert.Contains(t, rr.Body.String(), `"name":"Old"`)
}

func Test_Handler_SearchRejectsUnstorableQuery(t *testing.T) {
	// the service fails every call, so a 400 proves it was never reached
	h := newRouter(failingService{err: errors.New("service must not be called")}, nil)

	for _, q := range []string{"%ff", "%00", "a%00b", "%e2%82"} {
		rr := do(t, h, http.MethodGet, "/products/search?q="+q+"&min_price=0&max_price=10", "")

		require.Equal(t, http.StatusBadRequest, rr.Code, q)
		assert.Equal(t, web.ErrorResponse{StatusCode: http.StatusBadRequest, Message: "Invalid q url parameter"}, errorBody(t, rr))
	}
}

func Test_Handler_CreateMalformedBody(t *testing.T) {
	h, _ := newTestRouter()
	for _, body := range []string{`{"name":`, `{"name":"a","price":"abc"}`, ``} {
		rr := do(t, h, http.MethodPost, "/products", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.Equal(t, http.StatusBadRequest, errorBody(t, rr).StatusCode)
	}
}

func Test_Handler_GetNotFoundAndBadID(t *testing.T) {
	h, _ := newTestRouter()
	missing := uuid.New()

	rr := do(t, h, http.MethodGet, "/products/"+missing.String(), "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, web.ErrorResponse{StatusCode: http.StatusNotFound, Message: "Product with ID " + missing.String() + " not found"}, errorBody(t, rr))

	rr = do(t, h, http.MethodGet, "/products/42", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, http.StatusBadRequest, errorBody(t, rr).StatusCode)
}

func Test_Handler_Update(t *testing.T) {
	h, repo := newTestRouter()
	created := create(t, h, `{"name":"Old","description":"old","price":5}`)
	other := uuid.New()

	rr := do(t, h, http.MethodPut, "/products/"+created.ID.String(), `{"id":"`+other.String()+`","name":"New","price":7.25}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `{"id":"`+created.ID.String()+`","name":"New","description":"","price":7.25}`, rr.Body.String())
	assert.Equal(t, 1, repo.Len())
}

func Test_Handler_UpdateNotFound(t *testing.T) {
	h, repo := newTestRouter()
	create(t, h, `{"name":"a","price":1}`)

	rr := do(t, h, http.MethodPut, "/products/"+uuid.NewString(), `{"name":"ghost","price":1}`)

	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, http.StatusNotFound, errorBody(t, rr).StatusCode)
	assert.Equal(t, 1, repo.Len())
}

func Test_Handler_Delete(t *testing.T) {
	h, repo := newTestRouter()
	created := create(t, h, `{"name":"a","price":1}`)

	rr := do(t, h, http.MethodDelete, "/products/"+created.ID.String(), "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Zero(t, repo.Len())

	rr = do(t, h, http.MethodDelete, "/products/"+created.ID.String(), "")
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, http.StatusNotFound, errorBody(t, rr).StatusCode)

	rr = do(t, h, http.MethodGet, "/products/"+created.ID.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func Test_Handler_Search(t *testing.T) {
	h, _ := newTestRouter()
	create(t, h, `{"name":"Widget","description":"blue","price":10}`)
	create(t, h, `{"name":"Gadget","description":"red widget","price":50}`)
	create(t, h, `{"name":"Thing","description":"green","price":30}`)

	testCases := []struct {
		name      string
		query     string
		wantCode  int
		wantNames []string
	}{
		{name: "substring and range", query: "?q=idget&min_price=5&max_price=60", wantCode: http.StatusOK, wantNames: []string{"Widget", "Gadget"}},
		{name: "price excludes", query: "?q=idget&min_price=20&max_price=60", wantCode: http.StatusOK, wantNames: []string{"Gadget"}},
		{name: "missing q matches all", query: "?min_price=0&max_price=1000", wantCode: http.StatusOK, wantNames: []string{"Widget", "Gadget", "Thing"}},
		{name: "fractional bounds", query: "?q=&min_price=9.99&max_price=10.01", wantCode: http.StatusOK, wantNames: []string{"Widget"}},
		{name: "no match", query: "?q=zzz&min_price=0&max_price=1000", wantCode: http.StatusOK, wantNames: []string{}},
		{name: "missing min_price", query: "?q=a&max_price=10", wantCode: http.StatusBadRequest},
		{name: "missing max_price", query: "?q=a&min_price=10", wantCode: http.StatusBadRequest},
		{name: "non-decimal price", query: "?q=a&min_price=ten&max_price=20", wantCode: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, "/products/search"+tc.query, "")

			require.Equal(t, tc.wantCode, rr.Code, rr.Body.String())
			if tc.wantCode != http.StatusOK {
				assert.Equal(t, tc.wantCode, errorBody(t, rr).StatusCode)
				return
			}
			var list []model.ProductDto
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
			assert.Equal(t, strconv.Itoa(len(list)), rr.Header().Get(web.CountHeader))
			names := make([]string, 0, len(list))
			for _, p := range list {
				names = append(names, p.Name)
			}
			assert.Equal(t, tc.wantNames, names)
		})
	}
}

func Test_Handler_ServiceFailures(t *testing.T) {
	h := newRouter(failingService{err: errors.New("db down")}, nil)
	id := uuid.NewString()
	testCases := []struct {
		method, target, body string
	}{
		{http.MethodGet, "/products", ""},
		{http.MethodPost, "/products", `{"name":"a","price":1}`},
		{http.MethodGet, "/products/" + id, ""},
		{http.MethodPut, "/products/" + id, `{"name":"a","price":1}`},
		{http.MethodDelete, "/products/" + id, ""},
		{http.MethodGet, "/products/search?min_price=0&max_price=1", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rr := do(t, h, tc.method, tc.target, tc.body)
			require.Equal(t, http.StatusInternalServerError, rr.Code)
			assert.Equal(t, web.ErrorResponse{StatusCode: http.StatusInternalServerError, Message: "Internal server error"}, errorBody(t, rr))
			assert.NotContains(t, rr.Body.String(), "db down")
		})
	}
}

func Test_Handler_HealthCheck(t *testing.T) {
	h, _ := newTestRouter()
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/healthz", "").Code)

	unhealthy := newRouter(failingService{}, failingPinger{})
	rr := do(t, unhealthy, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func Test_MapError(t *testing.T) {
	testCases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "nil", err: nil, wantStatus: http.StatusOK},
		{name: "not found", err: perrors.ErrProductNotFound, wantStatus: http.StatusNotFound},
		{name: "wrapped not found", err: errors.Join(errors.New("ctx"), perrors.ErrProductNotFound), wantStatus: http.StatusNotFound},
		{name: "other", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, message := MapError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			if tc.err != nil {
				assert.NotEmpty(t, message)
			}
		})
	}
}
