package seed

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/storefront/internal/auth/domain"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAuth struct {
	authdomain.Service
	got []authdomain.SignupRequest
}

func (s *stubAuth) EnsureAdmin(_ context.Context, req authdomain.SignupRequest) (*authdomain.UserResponse, error) {
	s.got = append(s.got, req)
	return &authdomain.UserResponse{ID: snowflake.ID(1).String(), Email: req.Email}, nil
}

func TestEnsureAdmin(t *testing.T) {
	auth := &stubAuth{}
	err := EnsureAdmin(context.Background(), auth, config.BootstrapConfig{
		EnsureAdmin:    true,
		AdminEmail:     "admin@storefront.local",
		AdminPassword:  "admin12345",
		AdminFirstname: "Store",
		AdminSurname:   "Admin",
	}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, auth.got, 1)
	assert.Equal(t, "admin12345", auth.got[0].ConfirmPassword)
}

func TestEnsureAdminDisabled(t *testing.T) {
	auth := &stubAuth{}
	require.NoError(t, EnsureAdmin(context.Background(), auth, config.BootstrapConfig{}, nil))
	assert.Empty(t, auth.got)
}
