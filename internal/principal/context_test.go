package principal

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestPrincipalRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithPrincipal(context.Background(), Principal{UserID: snowflake.ID(7), Role: RoleAdmin})
	p, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(7), p.UserID)
	assert.True(t, p.IsAdmin())
}

func TestZeroUserIsAnonymous(t *testing.T) {
	ctx := WithPrincipal(context.Background(), Principal{Role: RoleCustomer})
	_, ok := FromContext(ctx)
	assert.False(t, ok)
}
