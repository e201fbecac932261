package deque

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contents(d *ArrDeque[int]) []int {
	out := make([]int, 0, d.Size())
	d.Traverse(func(_ int, item *int) { out = append(out, *item) })
	return out
}

func TestArrDeque_CapacityRounding(t *testing.T) {
	assert.Equal(t, 8, NewArrDeque[int](3).Capacity())
	assert.Equal(t, 16, NewArrDeque[int](16).Capacity())
	assert.Equal(t, 24, NewArrDeque[int](17).Capacity())
}

func TestArrDeque_BothEnds(t *testing.T) {
	d := NewArrDeque[int](8)
	d.AddLast(3)
	d.AddLast(4)
	d.AddFirst(2)
	d.AddFirst(1)
	require.Equal(t, []int{1, 2, 3, 4}, contents(d))
	assert.Equal(t, uint8(state01), d.state)

	assert.Equal(t, 1, d.RemoveFirst())
	assert.Equal(t, 4, d.RemoveLast())
	assert.Equal(t, 2, d.First())
	assert.Equal(t, 3, d.Last())

	d.Set(1, 30)
	assert.Equal(t, 30, d.Get(1))
	assert.Panics(t, func() { d.Get(2) })
}

func TestArrDeque_Funcs(t *testing.T) {
	d := NewArrDeque[int](8)
	for i := 0; i < 8; i++ {
		d.AddFirst(i)
	}
	require.True(t, d.IsFull())
	assert.Panics(t, func() { d.AddLast(100) })

	// drain the front array from its back end, then keep growing at the front
	for i := 0; i < 3; i++ {
		d.RemoveLast()
	}
	for i := 8; i < 11; i++ {
		d.AddFirst(i)
	}
	assert.Equal(t, []int{10, 9, 8, 7, 6, 5, 4, 3}, contents(d))

	for i := 0; i < 5; i++ {
		d.RemoveFirst()
	}
	d.AddLast(20)
	d.AddLast(21)
	assert.Equal(t, []int{5, 4, 3, 20, 21}, contents(d))

	for !d.IsEmpty() {
		d.RemoveLast()
	}
	assert.Equal(t, uint8(state0), d.state)
	assert.Panics(t, func() { d.RemoveFirst() })
}

func TestArrDeque_SlidingWindow(t *testing.T) {
	// one slab leaves at the back as one enters at the front, many times over
	d := NewArrDeque[int](8)
	for i := 0; i < 6; i++ {
		d.AddLast(i)
	}
	for i := 1; i <= 50; i++ {
		d.RemoveLast()
		d.AddFirst(-i)
	}
	assert.Equal(t, []int{-50, -49, -48, -47, -46, -45}, contents(d))
	for i := 0; i < 50; i++ {
		d.RemoveFirst()
		d.AddLast(i)
	}
	assert.Equal(t, []int{44, 45, 46, 47, 48, 49}, contents(d))
}

func TestArrDeque_TraverseRange(t *testing.T) {
	d := NewArrDeque[[]float64](8)
	for i := 0; i < 3; i++ {
		d.AddLast([]float64{float64(i)})
		d.AddFirst([]float64{float64(-i - 1)})
	}
	var got []float64
	var idx []int
	d.TraverseRange(2, 5, func(i int, item *[]float64) {
		idx = append(idx, i)
		got = append(got, (*item)[0])
	})
	assert.Equal(t, []int{2, 3, 4}, idx)
	assert.Equal(t, []float64{-1, 0, 1}, got)

	d.Clear()
	assert.True(t, d.IsEmpty())
}

func BenchmarkArrDeque_AddFirst(b *testing.B) {
	d := NewArrDeque[[]float64](4000)
	for i := 0; i < b.N; i++ {
		d.AddFirst(nil)
		d.RemoveFirst()
	}
}

func BenchmarkArrDeque_RemoveLast(b *testing.B) {
	d := NewArrDeque[[]float64](4000)
	for i := 0; i < b.N; i++ {
		d.AddLast(nil)
		d.RemoveLast()
	}
}
