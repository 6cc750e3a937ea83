package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnshRaj112/inframonitor-backend/internal/apperr"
)

func TestNewPageRequest(t *testing.T) {
	tests := []struct {
		page, limit string
		want        PageRequest
	}{
		{"", "", PageRequest{Page: 1, Limit: 50}},
		{"2", "10", PageRequest{Page: 2, Limit: 10}},
		{"0", "-5", PageRequest{Page: 1, Limit: 50}},
		{"abc", "xyz", PageRequest{Page: 1, Limit: 50}},
		{"3", "500", PageRequest{Page: 3, Limit: 100}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPageRequest(tt.page, tt.limit, DefaultPageSize), "page=%q limit=%q", tt.page, tt.limit)
	}
	assert.Equal(t, int64(20), PageRequest{Page: 3, Limit: 10}.Skip())
}

func TestPageRequestHugePageDoesNotOverflow(t *testing.T) {
	p := NewPageRequest("1000000000000000000", "50", DefaultPageSize)
	assert.Equal(t, 50, p.Limit)
	assert.Positive(t, p.Skip())
	assert.LessOrEqual(t, p.Page, math.MaxInt64/50)

	p = NewPageRequest("9223372036854775807", "100", DefaultPageSize)
	assert.Positive(t, p.Skip())

	assert.Equal(t, int64(math.MaxInt64), PageRequest{Page: math.MaxInt64, Limit: 100}.Skip())
	assert.Zero(t, PageRequest{Page: 0, Limit: 10}.Skip())
}

func TestBuildPagination(t *testing.T) {
	p := BuildPagination(PageRequest{Page: 2, Limit: 10}, 25)
	assert.Equal(t, Pagination{Current: 2, PageSize: 10, TotalPages: 3, TotalRecords: 25, HasNext: true, HasPrev: true}, p)

	p = BuildPagination(PageRequest{Page: 1, Limit: 50}, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)

	p = BuildPagination(PageRequest{Page: 3, Limit: 10}, 30)
	assert.False(t, p.HasNext)
}

func TestParseBBox(t *testing.T) {
	box, err := ParseBBox("")
	require.NoError(t, err)
	assert.Nil(t, box)

	box, err = ParseBBox("-46.7, -23.6, -46.5, -23.5")
	require.NoError(t, err)
	assert.Equal(t, -46.7, box.MinLng)
	assert.Equal(t, -23.6, box.MinLat)
	assert.Equal(t, -46.5, box.MaxLng)
	assert.Equal(t, -23.5, box.MaxLat)

	for _, bad := range []string{"1,2,3", "a,b,c,d", "1,2,3,4,5", "10,0,5,1", "0,-91,1,1", "NaN,0,1,1"} {
		_, err := ParseBBox(bad)
		assert.ErrorIs(t, err, apperr.ErrValidation, bad)
	}
}
