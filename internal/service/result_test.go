package service

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/pulcova-api/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestUnwrap(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	got := unwrap(log, models.KindArticle, "categories", resultOf([]int{1, 2}, nil), []int{})
	assert.Equal(t, []int{1, 2}, got)
	assert.Empty(t, buf.String())

	got = unwrap(log, models.KindArticle, "categories", resultOf([]int(nil), errors.New("timeout")), []int{})
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Contains(t, buf.String(), `"aggregate":"categories"`)
}

func TestNonNil(t *testing.T) {
	assert.NotNil(t, nonNil[string](nil))
	assert.Equal(t, []string{"a"}, nonNil([]string{"a"}))
}

func TestPaginate(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		total    int
		size     int
		expected models.PageInfo
	}{
		{"empty", "", 0, 12, models.PageInfo{Page: 1, PageSize: 12, TotalPages: 1}},
		{"exact multiple", "2", 24, 12, models.PageInfo{Page: 2, PageSize: 12, TotalItems: 24, TotalPages: 2, HasPrevious: true}},
		{"partial last page", "1", 25, 12, models.PageInfo{Page: 1, PageSize: 12, TotalItems: 25, TotalPages: 3, HasNext: true}},
		{"beyond end", "10", 25, 12, models.PageInfo{Page: 3, PageSize: 12, TotalItems: 25, TotalPages: 3, HasPrevious: true}},
		{"garbage", "two", 25, 12, models.PageInfo{Page: 1, PageSize: 12, TotalItems: 25, TotalPages: 3, HasNext: true}},
		{"padded", " 2 ", 25, 12, models.PageInfo{Page: 2, PageSize: 12, TotalItems: 25, TotalPages: 3, HasNext: true, HasPrevious: true}},
		{"overflowing number", "99999999999999999999", 25, 12, models.PageInfo{Page: 3, PageSize: 12, TotalItems: 25, TotalPages: 3, HasPrevious: true}},
		{"overflowing negative number", "-99999999999999999999", 25, 12, models.PageInfo{Page: 1, PageSize: 12, TotalItems: 25, TotalPages: 3, HasNext: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, paginate(tt.raw, tt.total, tt.size))
		})
	}
}

func TestParseDateBound(t *testing.T) {
	from, err := parseDateBound("2025-02-10", false)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), from)

	to, err := parseDateBound("2025-02-10", true)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 10, 23, 59, 59, 999999999, time.UTC), to)

	exact, err := parseDateBound("2025-02-10T08:30:00Z", true)
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 10, 8, 30, 0, 0, time.UTC), exact)

	_, err = parseDateBound("10/02/2025", false)
	assert.Error(t, err)
}
