package service

import "math"

// Page is a resolved page request.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows skipped before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Paginator normalizes page requests against configured bounds.
type Paginator struct {
	DefaultSize int
	MaxSize     int
}

// Resolve applies defaults and clamps: a size of zero or less falls back to
// the default, a size above the maximum is clamped to it, and page numbers
// below one become one. Page numbers are capped so the offset fits in an int.
func (p Paginator) Resolve(number, size int) Page {
	if size <= 0 {
		size = p.DefaultSize
	}
	if p.MaxSize > 0 && size > p.MaxSize {
		size = p.MaxSize
	}
	if number < 1 {
		number = 1
	}
	if size > 0 && number > math.MaxInt/size {
		number = math.MaxInt / size
	}
	return Page{Number: number, Size: size}
}

// Neighbors returns the previous and next page numbers for a result set of
// total rows, or nil where no such page exists.
func (p Page) Neighbors(total int64) (previous, next *int) {
	if p.Number > 1 {
		prev := p.Number - 1
		// A page past the end still links back to the last real page.
		if last := lastPage(total, p.Size); prev > last {
			prev = last
		}
		if prev >= 1 {
			previous = &prev
		}
	}
	if p.Size > 0 && total > 0 && p.Number < lastPage(total, p.Size) {
		n := p.Number + 1
		next = &n
	}
	return previous, next
}

func lastPage(total int64, size int) int {
	if total <= 0 || size <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}
