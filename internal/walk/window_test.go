package walk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWindow_Bounds(t *testing.T) {
	t.Parallel()

	w := Lines(3, 7)
	start, ok := w.Start()
	assert.True(t, ok)
	assert.Equal(t, 3, start)
	end, ok := w.End()
	assert.True(t, ok)
	assert.Equal(t, 7, end)

	_, ok = Lines(-1, 5).Start()
	assert.False(t, ok)
	_, ok = From(2).End()
	assert.False(t, ok)

	assert.True(t, All().IsAll())
	assert.True(t, Lines(-1, -1).IsAll())
	assert.True(t, Window{}.IsAll())
}

func TestWindow_Overlaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		w           Window
		first, last int
		want        bool
	}{
		{"all", All(), 1, 1, true},
		{"inside", Lines(2, 4), 3, 3, true},
		{"straddles start", Lines(2, 4), 1, 2, true},
		{"straddles end", Lines(2, 4), 4, 9, true},
		{"covers window", Lines(2, 4), 1, 9, true},
		{"before", Lines(2, 4), 1, 1, false},
		{"after", Lines(2, 4), 5, 6, false},
		{"open end", From(5), 7, 7, true},
		{"open start", Lines(0, 5), 1, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.w.Overlaps(tt.first, tt.last))
		})
	}
}

func TestWindow_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "all", All().String())
	assert.Equal(t, "3-", From(3).String())
	assert.Equal(t, "-4", Lines(-1, 4).String())
	assert.Equal(t, "2-9", Lines(2, 9).String())
}

func TestWindow_Empty(t *testing.T) {
	t.Parallel()
	assert.True(t, Lines(5, 2).Empty())
	assert.False(t, Lines(2, 2).Empty())
	assert.False(t, From(9).Empty())
}
