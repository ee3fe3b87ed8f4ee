package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPage_Pages(t *testing.T) {
	cases := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 6, 0},
		{1, 6, 1},
		{6, 6, 1},
		{7, 6, 2},
		{13, 6, 3},
	}
	for _, tc := range cases {
		p := NewPage[int](nil, 1, tc.size, tc.total)
		assert.Equal(t, tc.want, p.Pages(), "total=%d size=%d", tc.total, tc.size)
		assert.NotNil(t, p.Items)
	}
}

func TestPage_Navigation(t *testing.T) {
	p := NewPage([]int{1}, 2, 6, 13)
	assert.True(t, p.HasPrev())
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.PrevNum())
	assert.Equal(t, 3, p.NextNum())

	last := NewPage([]int{1}, 3, 6, 13)
	assert.False(t, last.HasNext())
}

func TestOffset(t *testing.T) {
	page, off := Offset(0, 6)
	assert.Equal(t, 1, page)
	assert.Equal(t, 0, off)

	page, off = Offset(3, 6)
	assert.Equal(t, 3, page)
	assert.Equal(t, 12, off)

	page, off = Offset(math.MaxInt, 6)
	assert.Equal(t, math.MaxInt, page)
	assert.Equal(t, math.MaxInt, off)

	_, off = Offset(math.MaxInt/6+1, 6)
	assert.Equal(t, math.MaxInt/6*6, off)
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleAdmin, ParseRole("admin"))
	assert.Equal(t, RoleUser, ParseRole("user"))
	assert.Equal(t, RoleUser, ParseRole("root"))

	var anon *User
	assert.False(t, anon.IsAdmin())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
}
