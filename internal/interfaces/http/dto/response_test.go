package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/mes/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewListResponse(t *testing.T) {
	filter := shared.Filter{Page: 2, Limit: 10}
	resp := NewListResponse(shared.NewPage([]string{"a", "b"}, 21, filter))

	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(21), resp.Meta.Total)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.True(t, resp.Meta.HasNext)
	assert.True(t, resp.Meta.HasPrev)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	meta := decoded["meta"].(map[string]any)
	for _, key := range []string{"total", "page", "limit", "totalPages", "hasNext", "hasPrev"} {
		assert.Contains(t, meta, key)
	}
}

func TestNewListResponse_EmptyPageHasEmptyArray(t *testing.T) {
	resp := NewListResponse(shared.NewPage[int](nil, 0, shared.DefaultFilter()))
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"data":[]`)
	assert.Contains(t, string(data), `"totalPages":0`)
}

func TestListQuery_ToFilter(t *testing.T) {
	q := ListQuery{
		Page:      3,
		Limit:     50,
		Search:    "  wire ",
		Status:    "OPEN",
		FromDate:  "2026-03-01",
		ToDate:    "2026-03-31",
		SortBy:    "boxNo",
		SortOrder: "ASC",
	}
	f, err := q.ToFilter()
	require.NoError(t, err)

	assert.Equal(t, 3, f.Page)
	assert.Equal(t, 50, f.Limit)
	assert.Equal(t, "wire", f.Search)
	assert.Equal(t, "OPEN", f.Status)
	assert.Equal(t, "asc", f.OrderDir)
	require.NotNil(t, f.FromDate)
	require.NotNil(t, f.ToDate)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local), *f.FromDate)
	assert.Equal(t, 31, f.ToDate.Day())
	assert.Equal(t, 23, f.ToDate.Hour(), "date-only upper bound covers the whole day")
}

func TestListQuery_Defaults(t *testing.T) {
	f, err := ListQuery{}.ToFilter()
	require.NoError(t, err)
	assert.Equal(t, shared.DefaultPage, f.Page)
	assert.Equal(t, shared.DefaultLimit, f.Limit)
	assert.Nil(t, f.FromDate)
}

func TestListQuery_BadDate(t *testing.T) {
	_, err := ListQuery{FromDate: "03/01/2026"}.ToFilter()
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = ListQuery{ToDate: "yesterday"}.ToFilter()
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestParseDate_RFC3339(t *testing.T) {
	got, dateOnly, err := ParseDate("2026-03-01T08:30:00Z")
	require.NoError(t, err)
	assert.False(t, dateOnly)
	assert.Equal(t, 8, got.Hour())
}
