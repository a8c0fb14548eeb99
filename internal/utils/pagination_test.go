package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginationClamps(t *testing.T) {
	p := NewPagination(0, 0)
	assert.Equal(t, Pagination{Page: 1, Limit: defaultLimit, Offset: 0}, p)

	p = NewPagination(3, 1000)
	assert.Equal(t, maxLimit, p.Limit)
	assert.Equal(t, 2*maxLimit, p.Offset)
}

func TestMeta(t *testing.T) {
	meta := NewPagination(2, 10).Meta(25)

	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNextPage)
	assert.True(t, meta.HasPrevPage)

	last := NewPagination(3, 10).Meta(25)
	assert.False(t, last.HasNextPage)

	empty := NewPagination(1, 10).Meta(0)
	assert.Zero(t, empty.TotalPages)
	assert.False(t, empty.HasNextPage)
	assert.False(t, empty.HasPrevPage)
}
