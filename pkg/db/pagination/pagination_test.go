package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	ID        string
	CreatedAt time.Time
}

func TestCursorRoundTrip(t *testing.T) {
	in := Cursor{ID: "42", CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	token, err := EncodeCursor(in)
	require.NoError(t, err)

	out, err := DecodeCursor(token)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in.ID, out.ID)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
}

func TestDecodeCursorEmpty(t *testing.T) {
	out, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = DecodeCursor("not base64 !!")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	now := time.Now().UTC()
	rows := []*row{{ID: "3", CreatedAt: now}, {ID: "2", CreatedAt: now}, {ID: "1", CreatedAt: now}}
	extract := func(r *row) Cursor { return Cursor{ID: r.ID, CreatedAt: r.CreatedAt} }

	page, info := BuildCursorPageInfo(rows, 2, extract)
	assert.Len(t, page, 2)
	assert.True(t, info.HasMore)
	require.NotEmpty(t, info.NextPageToken)

	cursor, err := DecodeCursor(info.NextPageToken)
	require.NoError(t, err)
	assert.Equal(t, "2", cursor.ID)

	page, info = BuildCursorPageInfo(rows, 5, extract)
	assert.Len(t, page, 3)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
