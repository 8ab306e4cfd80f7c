package recorder

import (
	"image"
	"testing"
)

func TestSelection(t *testing.T) {
	for _, entry := range []struct {
		x1, y1, x2, y2 int
		expected       image.Rectangle
	}{
		{10, 20, 110, 220, image.Rect(11, 21, 109, 219)},
		{110, 220, 10, 20, image.Rect(11, 21, 109, 219)},
		{110, 20, 10, 220, image.Rect(11, 21, 109, 219)},
		{-50, -50, 50, 50, image.Rect(-49, -49, 49, 49)},
		{0, 0, 3, 3, image.Rect(1, 1, 2, 2)},
	} {
		actual, err := Selection(entry.x1, entry.y1, entry.x2, entry.y2)
		if err != nil {
			t.Errorf("%v: unexpected error %v", entry, err)
			continue
		}
		if actual != entry.expected {
			t.Errorf("expected: %v | got %v", entry.expected, actual)
		}
	}
}

func TestSelectionTooSmall(t *testing.T) {
	for _, entry := range [][4]int{
		{0, 0, 0, 0},
		{5, 5, 7, 100},
		{5, 5, 100, 3},
		{10, 10, 10, 50},
	} {
		if _, err := Selection(entry[0], entry[1], entry[2], entry[3]); err == nil {
			t.Errorf("%v: expected an error", entry)
		}
	}
}
