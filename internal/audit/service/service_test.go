package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/audit/repository"
	"github.com/smallbiznis/storefront/internal/clock"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewService(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		Clock: fake,
		GenID: node,
		Repo:  repository.Provide(),
	}), fake
}

func TestAuditLogCapturesActorAndMasks(t *testing.T) {
	svc, _ := newTestService(t)

	ctx := obscontext.WithActor(context.Background(), "user", "42")
	ctx = obscontext.WithClient(ctx, "10.0.0.1", "curl/8")
	ctx = obscontext.WithRequestID(ctx, "req-1")

	target := "99"
	require.NoError(t, svc.AuditLog(ctx, "tracking.delete", "order_tracking", &target, map[string]any{
		"status":   "shipped",
		"password": "should-not-leak",
	}))

	res, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, res.AuditLogs, 1)

	entry := res.AuditLogs[0]
	assert.Equal(t, "user", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "42", *entry.ActorID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.1", *entry.IPAddress)
	assert.Equal(t, "shipped", entry.Metadata["status"])
	assert.Equal(t, "****leak", entry.Metadata["password"])
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.False(t, res.HasMore)
}

func TestAuditLogRequiresAction(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.AuditLog(context.Background(), " ", "product", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListPagesWithCursor(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(ctx, "product.delete", "product", nil, nil))
		fake.Advance(time.Second)
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	assert.NotEmpty(t, first.NextPageToken)
	assert.True(t, first.AuditLogs[0].CreatedAt.After(first.AuditLogs[1].CreatedAt))
	assert.Equal(t, string(auditdomain.ActorTypeSystem), first.AuditLogs[0].ActorType)

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
	assert.Empty(t, second.NextPageToken)
}

func TestListRejectsBadInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}

func TestListFiltersByActor(t *testing.T) {
	svc, _ := newTestService(t)

	alice := obscontext.WithActor(context.Background(), "user", "42")
	bob := obscontext.WithActor(context.Background(), "user", "43")
	require.NoError(t, svc.AuditLog(alice, "order.status_update", "order", nil, nil))
	require.NoError(t, svc.AuditLog(bob, "order.status_update", "order", nil, nil))
	require.NoError(t, svc.AuditLog(context.Background(), "session.purge", "session", nil, nil))

	res, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{ActorType: "user", ActorID: "43"})
	require.NoError(t, err)
	require.Len(t, res.AuditLogs, 1)
	assert.Equal(t, "43", *res.AuditLogs[0].ActorID)

	res, err = svc.List(context.Background(), auditdomain.ListAuditLogRequest{ActorType: "system"})
	require.NoError(t, err)
	require.Len(t, res.AuditLogs, 1)
	assert.Equal(t, "session.purge", res.AuditLogs[0].Action)
}
