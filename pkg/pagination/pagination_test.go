package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{
		CreatedAt: time.Date(2024, 5, 1, 12, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	got, err := ParseCursor(EncodeCursor(want))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
	assert.Equal(t, want.ID, got.ID)
}

func TestParseCursorEmptyMeansFirstPage(t *testing.T) {
	got, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseCursorRejectsMalformedTokens(t *testing.T) {
	for _, token := range []string{
		"not-base64!!",
		base64.StdEncoding.EncodeToString([]byte("no-separator")),
		base64.StdEncoding.EncodeToString([]byte("yesterday|" + uuid.NewString())),
		base64.StdEncoding.EncodeToString([]byte(time.Now().UTC().Format(time.RFC3339Nano) + "|not-a-uuid")),
	} {
		_, err := ParseCursor(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-3))
	assert.Equal(t, 10, NormalizeLimit(10))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
}
