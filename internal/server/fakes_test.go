package server

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	authdomain "github.com/smallbiznis/storefront/internal/auth/domain"
	categorydomain "github.com/smallbiznis/storefront/internal/category/domain"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/principal"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
)

const (
	customerToken = "customer-token"
	adminToken    = "admin-token"

	customerID snowflake.ID = 1001
	adminID    snowflake.ID = 1
)

type fakeAuthService struct {
	users      map[string]*authdomain.User
	lastSignup authdomain.SignupRequest
	lastLogin  authdomain.LoginRequest
	err        error
}

func newFakeAuthService() *fakeAuthService {
	return &fakeAuthService{
		users: map[string]*authdomain.User{
			customerToken: {ID: customerID, Email: "ana@example.com", Role: authdomain.RoleCustomer},
			adminToken:    {ID: adminID, Email: "admin@example.com", Role: authdomain.RoleAdmin},
		},
	}
}

func (f *fakeAuthService) Signup(ctx context.Context, req authdomain.SignupRequest) (*authdomain.UserResponse, error) {
	f.lastSignup = req
	if f.err != nil {
		return nil, f.err
	}
	return &authdomain.UserResponse{ID: "2001", Firstname: req.Firstname, Surname: req.Surname, Email: req.Email}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	f.lastLogin = req
	if f.err != nil {
		return nil, f.err
	}
	return &authdomain.LoginResult{Token: "fresh-token", ExpiresAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	if _, ok := f.users[rawToken]; !ok {
		return authdomain.ErrInvalidSession
	}
	delete(f.users, rawToken)
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.User, error) {
	user, ok := f.users[rawToken]
	if !ok {
		return nil, authdomain.ErrInvalidSession
	}
	return user, nil
}

func (f *fakeAuthService) Get(ctx context.Context, id snowflake.ID) (*authdomain.UserResponse, error) {
	for _, user := range f.users {
		if user.ID == id {
			return &authdomain.UserResponse{ID: id.String(), Email: user.Email}, nil
		}
	}
	return nil, authdomain.ErrUserNotFound
}

func (f *fakeAuthService) Update(ctx context.Context, id snowflake.ID, req authdomain.UpdateRequest) (*authdomain.UserResponse, error) {
	caller, ok := principal.FromContext(ctx)
	if !ok || caller.UserID != id {
		return nil, authdomain.ErrNotSelf
	}
	return &authdomain.UserResponse{ID: id.String()}, nil
}

func (f *fakeAuthService) Delete(ctx context.Context, id snowflake.ID) error {
	caller, ok := principal.FromContext(ctx)
	if !ok || caller.UserID != id {
		return authdomain.ErrNotSelf
	}
	return nil
}

func (f *fakeAuthService) EnsureAdmin(ctx context.Context, req authdomain.SignupRequest) (*authdomain.UserResponse, error) {
	return &authdomain.UserResponse{ID: adminID.String(), Email: req.Email}, nil
}

type fakeProductService struct {
	lastCreate productdomain.CreateRequest
	lastUpdate productdomain.UpdateRequest
	lastSearch productdomain.SearchRequest
	image      *productdomain.ImageContent
	err        error
}

func (f *fakeProductService) Create(ctx context.Context, req productdomain.CreateRequest) (*productdomain.CreateResponse, error) {
	f.lastCreate = req
	if f.err != nil {
		return nil, f.err
	}
	return &productdomain.CreateResponse{ID: "77"}, nil
}

func (f *fakeProductService) Update(ctx context.Context, id string, req productdomain.UpdateRequest) error {
	f.lastUpdate = req
	return f.err
}

func (f *fakeProductService) Delete(ctx context.Context, id string) error {
	return f.err
}

func (f *fakeProductService) Get(ctx context.Context, id string) (*productdomain.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &productdomain.Response{ID: id, Name: "Rice", Slug: "rice"}, nil
}

func (f *fakeProductService) Search(ctx context.Context, req productdomain.SearchRequest) (*productdomain.SearchResult, error) {
	f.lastSearch = req
	if f.err != nil {
		return nil, f.err
	}
	return &productdomain.SearchResult{Data: []map[string]any{{"id": "77"}}, Total: 1, Limit: 12, Page: 1}, nil
}

func (f *fakeProductService) GetImage(ctx context.Context, slug string, imageID string) (*productdomain.ImageContent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.image, nil
}

type fakeCategoryService struct {
	lastSearch categorydomain.SearchRequest
	lastCreate categorydomain.CreateRequest
	err        error
}

func (f *fakeCategoryService) Search(ctx context.Context, req categorydomain.SearchRequest) (*categorydomain.SearchResult, error) {
	f.lastSearch = req
	if f.err != nil {
		return nil, f.err
	}
	return &categorydomain.SearchResult{Data: []map[string]any{}, Limit: 12, Page: 1}, nil
}

func (f *fakeCategoryService) Get(ctx context.Context, id string) (*categorydomain.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &categorydomain.Response{ID: id, Name: "Grains", Slug: "grains"}, nil
}

func (f *fakeCategoryService) Create(ctx context.Context, req categorydomain.CreateRequest) (*categorydomain.Response, error) {
	f.lastCreate = req
	if f.err != nil {
		return nil, f.err
	}
	return &categorydomain.Response{ID: "5", Name: req.Name, Slug: req.Slug}, nil
}

func (f *fakeCategoryService) Update(ctx context.Context, id string, req categorydomain.UpdateRequest) error {
	return f.err
}

func (f *fakeCategoryService) Delete(ctx context.Context, id string) error {
	return f.err
}

type fakeOrderService struct {
	lastCreate orderdomain.CreateRequest
	lastList   orderdomain.ListRequest
	lastStatus string
	err        error
}

func (f *fakeOrderService) Create(ctx context.Context, req orderdomain.CreateRequest) (*orderdomain.Response, error) {
	f.lastCreate = req
	if f.err != nil {
		return nil, f.err
	}
	return &orderdomain.Response{ID: "900", UserID: req.UserID.String(), Status: orderdomain.StatusPending}, nil
}

func (f *fakeOrderService) Get(ctx context.Context, id string) (*orderdomain.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &orderdomain.Response{ID: id, Status: orderdomain.StatusPending}, nil
}

func (f *fakeOrderService) ListByUser(ctx context.Context, req orderdomain.ListRequest) (*orderdomain.ListResult, error) {
	f.lastList = req
	if f.err != nil {
		return nil, f.err
	}
	return &orderdomain.ListResult{Data: []orderdomain.Response{}, Limit: 12, Page: 1}, nil
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, id string, status string) (*orderdomain.Response, error) {
	f.lastStatus = status
	if f.err != nil {
		return nil, f.err
	}
	return &orderdomain.Response{ID: id, Status: status}, nil
}

func (f *fakeOrderService) Receipt(ctx context.Context, id string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4 receipt"), nil
}

type fakeTrackingService struct {
	lastUpdate orderdomain.UpdateTrackingRequest
	err        error
}

func (f *fakeTrackingService) Timeline(ctx context.Context, orderID string) (*orderdomain.TimelineResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &orderdomain.TimelineResponse{
		OrderID:       orderID,
		CurrentStatus: orderdomain.StatusShipped,
		Timeline: []orderdomain.TimelineEntry{
			{Status: orderdomain.StatusPending, Location: "not informed"},
			{Status: orderdomain.StatusShipped, Location: "distribution center"},
		},
	}, nil
}

func (f *fakeTrackingService) ListByOrder(ctx context.Context, orderID string) ([]orderdomain.TrackingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []orderdomain.TrackingResponse{{ID: "1", OrderID: orderID, Status: orderdomain.StatusPending}}, nil
}

func (f *fakeTrackingService) Update(ctx context.Context, id string, req orderdomain.UpdateTrackingRequest) (*orderdomain.TrackingResponse, error) {
	f.lastUpdate = req
	if f.err != nil {
		return nil, f.err
	}
	return &orderdomain.TrackingResponse{ID: id, Location: req.Location}, nil
}

func (f *fakeTrackingService) Delete(ctx context.Context, id string) error {
	return f.err
}

type fakeAuditService struct {
	lastList auditdomain.ListAuditLogRequest
}

func (f *fakeAuditService) AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error {
	return nil
}

func (f *fakeAuditService) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	f.lastList = req
	return auditdomain.ListAuditLogResponse{
		PageInfo:  pagination.PageInfo{HasMore: false},
		AuditLogs: []auditdomain.AuditLog{{Action: "tracking.update"}},
	}, nil
}
