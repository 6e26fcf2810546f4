package domain_test

import (
	"testing"

	"github.com/lorrc/user-directory/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func TestNextCursor(t *testing.T) {
	tests := []struct {
		name    string
		current int
		maxPage int
		want    domain.Cursor
	}{
		{"first page", 1, 2, domain.NewCursor(2)},
		{"at the limit", 2, 2, domain.NewCursor(3)},
		{"past the limit", 3, 2, domain.CursorExhausted},
		{"no limit room", 1, 0, domain.CursorExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NextCursor(tt.current, tt.maxPage))
		})
	}
}

func TestCursor(t *testing.T) {
	assert.True(t, domain.CursorExhausted.Exhausted())
	assert.True(t, domain.NewCursor(0).Exhausted())
	assert.False(t, domain.NewCursor(domain.FirstPage).Exhausted())
	assert.Equal(t, 4, domain.NewCursor(4).Page())
}

func TestCollection_HasNextPage(t *testing.T) {
	assert.True(t, domain.Collection{Cursor: domain.NewCursor(2)}.HasNextPage())
	assert.False(t, domain.Collection{Cursor: domain.CursorExhausted}.HasNextPage())
}

func TestIndexOf(t *testing.T) {
	users := []domain.User{{ID: "a"}, {ID: "b"}}

	assert.Equal(t, 1, domain.IndexOf(users, "b"))
	assert.Equal(t, -1, domain.IndexOf(users, "z"))
	assert.Equal(t, -1, domain.IndexOf(nil, "a"))
}
