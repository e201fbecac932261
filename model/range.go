package model

import "fmt"

// Range is the box [Start, End) of grid cells.
type Range struct {
	Start GridCoord
	End   GridCoord
}

func NewRange(start, end GridCoord) Range {
	if !start.SameShape(end) {
		panic(fmt.Sprintf("range: %v and %v have different axes", start, end))
	}
	return Range{Start: start, End: end}
}

// Size returns End - Start.
func (r Range) Size() GridCoord { return r.End.Sub(r.Start) }

func (r Range) Empty() bool {
	for i := 0; i < r.Start.Dims(); i++ {
		if r.End.Get(i) <= r.Start.Get(i) {
			return true
		}
	}
	return false
}

func (r Range) Volume() int64 {
	if r.Empty() {
		return 0
	}
	return r.Size().Volume()
}

func (r Range) Contains(c GridCoord) bool {
	return r.Start.LessEq(c) && c.Less(r.End)
}

// Covers reports whether o lies inside r. Empty ranges are covered by anything.
func (r Range) Covers(o Range) bool {
	if o.Empty() {
		return true
	}
	return r.Start.LessEq(o.Start) && o.End.LessEq(r.End)
}

// Intersect returns the overlap of r and o and whether it is non-empty.
func (r Range) Intersect(o Range) (Range, bool) {
	out := Range{Start: r.Start.Max(o.Start), End: r.End.Min(o.End)}
	return out, !out.Empty()
}

// Grow extends the range by n cells on both sides of every axis.
func (r Range) Grow(n int32) Range {
	d := Fill(r.Start, n)
	return Range{Start: r.Start.Sub(d), End: r.End.Add(d)}
}

// WithAxis replaces the bounds of component i.
func (r Range) WithAxis(i int, start, end int32) Range {
	return Range{Start: r.Start.With(i, start), End: r.End.With(i, end)}
}

// Each visits every cell, the first component varying slowest.
func (r Range) Each(f func(c GridCoord)) {
	if r.Empty() {
		return
	}
	c := r.Start
	dims := r.Start.Dims()
	for {
		f(c)
		i := dims - 1
		for ; i >= 0; i-- {
			next := c.Get(i) + 1
			if next < r.End.Get(i) {
				c = c.With(i, next)
				break
			}
			c = c.With(i, r.Start.Get(i))
		}
		if i < 0 {
			return
		}
	}
}

func (r Range) String() string {
	return fmt.Sprintf("[%v, %v)", r.Start, r.End)
}

// Tiles checks that ranges cover [0, global) exactly once.
func Tiles(ranges []Range, global GridCoord) error {
	whole := Range{Start: Fill(global, 0), End: global}
	var total int64
	for i, r := range ranges {
		if !whole.Covers(r) {
			return fmt.Errorf("range %d %v leaves %v", i, r, whole)
		}
		for j := 0; j < i; j++ {
			if _, overlap := r.Intersect(ranges[j]); overlap {
				return fmt.Errorf("ranges %d %v and %d %v overlap", j, ranges[j], i, r)
			}
		}
		total += r.Volume()
	}
	if total != whole.Volume() {
		return fmt.Errorf("ranges cover %d of %d cells", total, whole.Volume())
	}
	return nil
}
