package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/storefront/internal/auth/domain"
	"github.com/smallbiznis/storefront/internal/authorization"
	categorydomain "github.com/smallbiznis/storefront/internal/category/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	router     *gin.Engine
	auth       *fakeAuthService
	products   *fakeProductService
	categories *fakeCategoryService
	orders     *fakeOrderService
	tracking   *fakeTrackingService
	audit      *fakeAuditService
}

func newTestServer(t *testing.T, limiter *ratelimit.Limiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.NewTest()
	require.NoError(t, err)
	enforcer, err := authorization.NewEnforcer(conn)
	require.NoError(t, err)

	ts := &testServer{
		router:     gin.New(),
		auth:       newFakeAuthService(),
		products:   &fakeProductService{},
		categories: &fakeCategoryService{},
		orders:     &fakeOrderService{},
		tracking:   &fakeTrackingService{},
		audit:      &fakeAuditService{},
	}
	ts.router.Use(ErrorHandlingMiddleware())

	NewServer(ServerParams{
		Gin:         ts.router,
		Cfg:         config.Config{Environment: "test"},
		Authsvc:     ts.auth,
		AuthzSvc:    authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		AuditSvc:    ts.audit,
		CategorySvc: ts.categories,
		ProductSvc:  ts.products,
		OrderSvc:    ts.orders,
		TrackingSvc: ts.tracking,
		Limiter:     limiter,
	})
	return ts
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	ts.router.ServeHTTP(resp, req)
	return resp
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var payload errorPayload
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	return payload
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodGet, "/nope", "", "")
	require.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "not_found", decodeError(t, resp).Type)
}

func TestRoutesAreMountedUnderVersionPrefix(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, path := range []string{"/product/42", "/v1/product/42"} {
		resp := ts.do(http.MethodGet, path, "", "")
		require.Equal(t, http.StatusOK, resp.Code, path)

		var body productdomain.Response
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		assert.Equal(t, "42", body.ID)
	}
}

func TestSearchProductsParsesQuery(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodGet, "/product/search?limit=2&page=3&fields=name,%20price&match=rice&category_ids=1,2&price-range=10-50&option[7]=P,G", "", "")
	require.Equal(t, http.StatusOK, resp.Code)

	got := ts.products.lastSearch
	require.NotNil(t, got.Limit)
	require.NotNil(t, got.Page)
	assert.Equal(t, 2, *got.Limit)
	assert.Equal(t, 3, *got.Page)
	assert.Equal(t, []string{"name", "price"}, got.Fields)
	assert.Equal(t, "rice", got.Match)
	assert.Equal(t, []int64{1, 2}, got.CategoryIDs)
	assert.Equal(t, "10-50", got.PriceRange)
	require.Len(t, got.Options, 1)
	assert.Equal(t, int64(7), got.Options[0].OptionID)
	assert.Equal(t, []string{"P", "G"}, got.Options[0].Values)
}

func TestSearchProductsRejectsBadParameters(t *testing.T) {
	ts := newTestServer(t, nil)

	cases := []struct {
		query string
		field string
	}{
		{"limit=ten", "limit"},
		{"page=first", "page"},
		{"category_ids=1,x", "category_ids"},
		{"option[abc]=P", "option"},
	}
	for _, tc := range cases {
		resp := ts.do(http.MethodGet, "/product/search?"+tc.query, "", "")
		require.Equal(t, http.StatusBadRequest, resp.Code, tc.query)
		payload := decodeError(t, resp)
		assert.Equal(t, "validation_error", payload.Type)
		require.Len(t, payload.Errors, 1)
		assert.Equal(t, tc.field, payload.Errors[0].Field)
	}

	ts.products.err = pagination.ErrInvalidLimit
	resp := ts.do(http.MethodGet, "/product/search?limit=-5", "", "")
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "invalid_limit", decodeError(t, resp).Errors[0].Code)
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	ts := newTestServer(t, nil)
	body := `{"name":" Rice ","slug":"rice","price":"10.50","category_ids":["3"]}`

	resp := ts.do(http.MethodPost, "/product/create-product", "", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.do(http.MethodPost, "/product/create-product", "bogus", body)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.do(http.MethodPost, "/product/create-product", customerToken, body)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodPost, "/v1/product/create-product", adminToken, body)
	require.Equal(t, http.StatusCreated, resp.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	assert.Equal(t, "77", created["id"])
	assert.Equal(t, "Rice", ts.products.lastCreate.Name)
	assert.Equal(t, "10.5", ts.products.lastCreate.Price.String())
	require.Len(t, ts.products.lastCreate.CategoryIDs, 1)
	assert.Equal(t, int64(3), ts.products.lastCreate.CategoryIDs[0].Int64())
}

func TestProductBodiesAcceptNumericIDs(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodPost, "/product/create-product", adminToken,
		`{"name":"Rice","slug":"rice","price":10.5,"category_ids":[1,"2"],"options":[{"title":"Size","values":["P"]}]}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	require.Len(t, ts.products.lastCreate.CategoryIDs, 2)
	assert.Equal(t, int64(1), ts.products.lastCreate.CategoryIDs[0].Int64())
	assert.Equal(t, int64(2), ts.products.lastCreate.CategoryIDs[1].Int64())

	resp = ts.do(http.MethodPut, "/product/77", adminToken,
		`{"category_ids":[4],"images":[{"id":5,"deleted":true}],"options":[{"id":9,"deleted":true}]}`)
	require.Equal(t, http.StatusNoContent, resp.Code)
	update := ts.products.lastUpdate
	require.NotNil(t, update.CategoryIDs)
	require.Len(t, *update.CategoryIDs, 1)
	assert.Equal(t, int64(4), (*update.CategoryIDs)[0].Int64())
	require.Len(t, update.Images, 1)
	require.NotNil(t, update.Images[0].ID)
	assert.Equal(t, int64(5), update.Images[0].ID.Int64())
	require.Len(t, update.Options, 1)
	require.NotNil(t, update.Options[0].ID)
	assert.Equal(t, int64(9), update.Options[0].ID.Int64())

	resp = ts.do(http.MethodPut, "/product/77", adminToken, `{"images":[{"id":1.5,"deleted":true}]}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestCreateProductErrorMapping(t *testing.T) {
	ts := newTestServer(t, nil)

	cases := []struct {
		name    string
		err     error
		status  int
		kind    string
		details string
	}{
		{"validation", productdomain.ErrInvalidName, http.StatusBadRequest, "validation_error", "invalid value"},
		{"unknown category", productdomain.ErrUnknownCategory, http.StatusBadRequest, "referential_error", "one or more categories do not exist"},
		{"write failure", &productdomain.WriteError{Op: "create", Err: errors.New("duplicate key value violates unique constraint")}, http.StatusBadRequest, "write_error", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts.products.err = tc.err
			resp := ts.do(http.MethodPost, "/product/create-product", adminToken, `{"name":"Rice"}`)
			require.Equal(t, tc.status, resp.Code)

			payload := decodeError(t, resp)
			assert.Equal(t, tc.kind, payload.Type)
			assert.Equal(t, tc.details, payload.Details)
			assert.NotContains(t, resp.Body.String(), "duplicate key")
		})
	}
}

func TestCreateProductRejectsMalformedBody(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodPost, "/product/create-product", adminToken, `{"name":`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "request", decodeError(t, resp).Errors[0].Field)
}

func TestDeleteProductStatuses(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodDelete, "/product/77", adminToken, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	ts.products.err = productdomain.ErrNotFound
	resp = ts.do(http.MethodDelete, "/product/77", adminToken, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "product not found", decodeError(t, resp).Message)

	ts.products.err = errors.New("connection reset")
	resp = ts.do(http.MethodDelete, "/product/77", adminToken, "")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.NotContains(t, resp.Body.String(), "connection reset")
}

func TestUpdateProductReturnsNoContent(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodPut, "/product/77", adminToken, `{"stock":4,"category_ids":[]}`)
	require.Equal(t, http.StatusNoContent, resp.Code)
	require.NotNil(t, ts.products.lastUpdate.Stock)
	assert.Equal(t, 4, *ts.products.lastUpdate.Stock)
	require.NotNil(t, ts.products.lastUpdate.CategoryIDs)
	assert.Empty(t, *ts.products.lastUpdate.CategoryIDs)
}

func TestServeProductImage(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.products.image = &productdomain.ImageContent{Data: []byte{0x89, 'P', 'N', 'G'}, Type: "image/png"}
	resp := ts.do(http.MethodGet, "/product/media/product/rice/image/5", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/png", resp.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, resp.Body.Bytes())

	ts.products.image = &productdomain.ImageContent{RedirectURL: "https://cdn.example.com/rice.png"}
	resp = ts.do(http.MethodGet, "/product/media/product/rice/image/6", "", "")
	require.Equal(t, http.StatusFound, resp.Code)
	assert.Equal(t, "https://cdn.example.com/rice.png", resp.Header().Get("Location"))

	ts.products.err = productdomain.ErrImageNotFound
	resp = ts.do(http.MethodGet, "/product/media/product/rice/image/7", "", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestCategoryRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodGet, "/category/search?use_in_menu=true&limit=-1", "", "")
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, ts.categories.lastSearch.UseInMenu)
	assert.True(t, *ts.categories.lastSearch.UseInMenu)
	assert.Equal(t, -1, *ts.categories.lastSearch.Limit)

	resp = ts.do(http.MethodGet, "/category/search?use_in_menu=maybe", "", "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(http.MethodPost, "/category/create-category", customerToken, `{"name":"Grains","slug":"grains"}`)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodPost, "/category/create-category", adminToken, `{"name":" Grains ","slug":"grains"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "Grains", ts.categories.lastCreate.Name)

	resp = ts.do(http.MethodPut, "/category/5", adminToken, `{"name":"Seeds","slug":"seeds"}`)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	ts.categories.err = categorydomain.ErrNotFound
	resp = ts.do(http.MethodDelete, "/category/5", adminToken, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSignupAndToken(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodPost, "/user/signup", "", `{"firstname":"Ana","surname":"Lima","email":"ana@example.com","password":"secret123","confirmPassword":"secret123"}`)
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "Ana", ts.auth.lastSignup.Firstname)
	assert.Equal(t, "secret123", ts.auth.lastSignup.ConfirmPassword)

	resp = ts.do(http.MethodPost, "/user/token", "", `{"email":"ana@example.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	var token authdomain.LoginResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &token))
	assert.Equal(t, "fresh-token", token.Token)

	ts.auth.err = authdomain.ErrInvalidCredentials
	resp = ts.do(http.MethodPost, "/user/token", "", `{"email":"ana@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	ts.auth.err = authdomain.ErrEmailInUse
	resp = ts.do(http.MethodPost, "/user/signup", "", `{"email":"ana@example.com"}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "email", decodeError(t, resp).Errors[0].Field)
}

func TestTokenEndpointIsRateLimited(t *testing.T) {
	limiter, err := ratelimit.NewLimiter(ratelimit.Params{
		Cfg:   config.Config{RateLimit: config.RateLimitConfig{Enabled: true, TokenRate: 0.1, TokenBurst: 1}},
		Log:   zap.NewNop(),
		Clock: clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	ts := newTestServer(t, limiter)
	body := `{"email":"ana@example.com","password":"secret123"}`

	resp := ts.do(http.MethodPost, "/user/token", "", body)
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(http.MethodPost, "/v1/user/token", "", body)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "10", resp.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limited", decodeError(t, resp).Type)
}

func TestUserSelfRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodGet, "/user/1001", customerToken, "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(http.MethodGet, "/user/abc", customerToken, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = ts.do(http.MethodPut, "/user/1", customerToken, `{"firstname":"Eve"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = ts.do(http.MethodPut, "/user/1001", customerToken, `{"firstname":"Ana"}`)
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.do(http.MethodDelete, "/user/1001", customerToken, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.do(http.MethodPost, "/user/logout", customerToken, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	resp = ts.do(http.MethodGet, "/user/1001", customerToken, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateOrderUsesCaller(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodPost, "/order", customerToken, `{"user_id":"1","items":[{"product_id":"55","quantity":2}]}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	got := ts.orders.lastCreate
	assert.Equal(t, customerID, got.UserID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(55), got.Items[0].ProductID.Int64())
	assert.Equal(t, 2, got.Items[0].Quantity)

	ts.orders.err = orderdomain.ErrUnknownProduct
	resp = ts.do(http.MethodPost, "/order", customerToken, `{"items":[{"product_id":"56","quantity":1}]}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "referential_error", decodeError(t, resp).Type)
}

func TestListOrders(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodGet, "/order?limit=5&page=2", customerToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, customerID, ts.orders.lastList.UserID)
	assert.Equal(t, 5, *ts.orders.lastList.Limit)
	assert.Equal(t, 2, *ts.orders.lastList.Page)

	resp = ts.do(http.MethodGet, "/order?user_id=1001", adminToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, customerID, ts.orders.lastList.UserID)

	resp = ts.do(http.MethodGet, "/order?user_id=x", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = ts.do(http.MethodGet, "/order", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestOrderStatusIsAdminOnly(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodPatch, "/order/900/status", customerToken, `{"status":"shipped"}`)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodPatch, "/order/900/status", adminToken, `{"status":" shipped "}`)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, orderdomain.StatusShipped, ts.orders.lastStatus)

	ts.orders.err = orderdomain.ErrInvalidStatus
	resp = ts.do(http.MethodPatch, "/order/900/status", adminToken, `{"status":"lost"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestOrderOwnershipErrors(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.orders.err = orderdomain.ErrForbidden
	resp := ts.do(http.MethodGet, "/order/900", customerToken, "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	ts.orders.err = orderdomain.ErrNotFound
	resp = ts.do(http.MethodGet, "/order/900", customerToken, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "order not found", decodeError(t, resp).Message)
}

func TestOrderReceipt(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodGet, "/order/900/receipt", customerToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "application/pdf", resp.Header().Get("Content-Type"))
	assert.Contains(t, resp.Header().Get("Content-Disposition"), "receipt-900.pdf")
	assert.True(t, bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")))
}

func TestTrackingRoutes(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodGet, "/tracking/timeline/900", customerToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	var timeline orderdomain.TimelineResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &timeline))
	assert.Equal(t, "900", timeline.OrderID)
	assert.Equal(t, orderdomain.StatusShipped, timeline.CurrentStatus)
	assert.Len(t, timeline.Timeline, 2)

	resp = ts.do(http.MethodGet, "/tracking/900", customerToken, "")
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.do(http.MethodPut, "/tracking/1", customerToken, `{"location":"hub"}`)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodPut, "/tracking/1", adminToken, `{"location":"hub"}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, ts.tracking.lastUpdate.Location)
	assert.Equal(t, "hub", *ts.tracking.lastUpdate.Location)

	resp = ts.do(http.MethodDelete, "/tracking/1", adminToken, "")
	assert.Equal(t, http.StatusNoContent, resp.Code)

	ts.tracking.err = orderdomain.ErrForbidden
	resp = ts.do(http.MethodGet, "/tracking/timeline/900", customerToken, "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	ts.tracking.err = orderdomain.ErrTrackingNotFound
	resp = ts.do(http.MethodGet, "/tracking/900", customerToken, "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestAuditLogsAreAdminOnly(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := ts.do(http.MethodGet, "/audit-logs", customerToken, "")
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.do(http.MethodGet, "/audit-logs?action=tracking.update&page_size=5&start_at=2026-01-01", adminToken, "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "tracking.update", ts.audit.lastList.Action)
	assert.Equal(t, 5, ts.audit.lastList.PageSize)
	require.NotNil(t, ts.audit.lastList.StartAt)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), *ts.audit.lastList.StartAt)

	resp = ts.do(http.MethodGet, "/audit-logs?end_at=yesterday", adminToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}
