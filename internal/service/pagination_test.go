package service

import (
	"math"
	"testing"
)

func TestPaginator_Resolve(t *testing.T) {
	p := Paginator{DefaultSize: 10, MaxSize: 100}

	tests := []struct {
		name       string
		number     int
		size       int
		wantNumber int
		wantSize   int
	}{
		{"defaults", 0, 0, 1, 10},
		{"negative size", 1, -5, 1, 10},
		{"clamped", 2, 1000, 2, 100},
		{"exact max", 3, 100, 3, 100},
		{"negative page", -1, 5, 1, 5},
		{"huge page", math.MaxInt, 10, math.MaxInt / 10, 10},
		{"huge page max size", math.MaxInt, 1000, math.MaxInt / 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Resolve(tt.number, tt.size)
			if got.Number != tt.wantNumber || got.Size != tt.wantSize {
				t.Errorf("Resolve(%d, %d) = %+v, want {%d %d}", tt.number, tt.size, got, tt.wantNumber, tt.wantSize)
			}
			if got.Offset() < 0 {
				t.Errorf("Resolve(%d, %d).Offset() = %d, want non-negative", tt.number, tt.size, got.Offset())
			}
		})
	}
}

func TestPage_Neighbors(t *testing.T) {
	tests := []struct {
		name     string
		page     Page
		total    int64
		wantPrev int
		wantNext int
	}{
		{"single page", Page{1, 10}, 5, 0, 0},
		{"first of many", Page{1, 2}, 5, 0, 2},
		{"middle", Page{2, 2}, 5, 1, 3},
		{"last", Page{3, 2}, 5, 2, 0},
		{"past end", Page{7, 2}, 5, 3, 0},
		{"empty set", Page{2, 10}, 0, 1, 0},
		{"huge page", Page{math.MaxInt, 2}, 5, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev, next := tt.page.Neighbors(tt.total)
			if got := deref(prev); got != tt.wantPrev {
				t.Errorf("previous = %d, want %d", got, tt.wantPrev)
			}
			if got := deref(next); got != tt.wantNext {
				t.Errorf("next = %d, want %d", got, tt.wantNext)
			}
			if tt.page.Offset() != (tt.page.Number-1)*tt.page.Size {
				t.Errorf("unexpected offset %d", tt.page.Offset())
			}
		})
	}
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
