package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestNewPage(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		page, err := NewPage(nil, nil, 12)
		require.NoError(t, err)
		assert.Equal(t, 12, page.Limit)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 0, page.Offset())
	})

	t.Run("bounded offset", func(t *testing.T) {
		page, err := NewPage(intPtr(5), intPtr(3), 12)
		require.NoError(t, err)
		assert.Equal(t, 10, page.Offset())
	})

	t.Run("unbounded ignores page", func(t *testing.T) {
		page, err := NewPage(intPtr(-1), intPtr(7), 12)
		require.NoError(t, err)
		assert.True(t, page.Unbounded())
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 0, page.Offset())
	})

	t.Run("rejects zero limit", func(t *testing.T) {
		_, err := NewPage(intPtr(0), nil, 12)
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("rejects page below one", func(t *testing.T) {
		_, err := NewPage(intPtr(10), intPtr(0), 12)
		assert.ErrorIs(t, err, ErrInvalidPage)
	})
}

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2025-01-01T00:00:00Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
}
