package deque

const (
	state0  = 0 // elements only in container
	state1  = 1 // elements only in container1
	state01 = 2 // elements in both

	// capacity is rounded up to a multiple of base
	base = 8
)

type ArrDeque[T any] struct {
	// container serves the front, container1 the back
	container  arrStruct[T]
	container1 arrStruct[T]

	size     int
	capacity int
	state    uint8
}

type arrStruct[T any] struct {
	arr   []T
	start int
	end   int
}

func (a *arrStruct[T]) len() int { return a.end - a.start }

func NewArrDeque[T any](capacity int) *ArrDeque[T] {
	if capacity < 1 {
		capacity = 1
	}
	if remainder := capacity % base; remainder != 0 {
		capacity = capacity - remainder + base
	}
	return &ArrDeque[T]{
		container:  arrStruct[T]{arr: make([]T, capacity), start: capacity, end: capacity},
		container1: arrStruct[T]{arr: make([]T, capacity)},
		capacity:   capacity,
		state:      state0,
	}
}

func (ad *ArrDeque[T]) Size() int { return ad.size }

func (ad *ArrDeque[T]) Capacity() int { return ad.capacity }

func (ad *ArrDeque[T]) IsFull() bool { return ad.size == ad.capacity }

func (ad *ArrDeque[T]) IsEmpty() bool { return ad.size == 0 }

func (ad *ArrDeque[T]) slot(i int) *T {
	if i < 0 || i >= ad.size {
		panic("index out of length")
	}
	switch ad.state {
	case state0:
		return &ad.container.arr[ad.container.start+i]
	case state1:
		return &ad.container1.arr[ad.container1.start+i]
	}
	l1 := ad.container.len()
	if i < l1 {
		return &ad.container.arr[ad.container.start+i]
	}
	return &ad.container1.arr[ad.container1.start+i-l1]
}

func (ad *ArrDeque[T]) Get(i int) T { return *ad.slot(i) }

func (ad *ArrDeque[T]) Set(i int, v T) { *ad.slot(i) = v }

func (ad *ArrDeque[T]) First() T { return ad.Get(0) }

func (ad *ArrDeque[T]) Last() T { return ad.Get(ad.size - 1) }

// Traverse visits every element front to back.
func (ad *ArrDeque[T]) Traverse(f func(i int, item *T)) {
	ad.TraverseRange(0, ad.size, f)
}

// TraverseRange visits the elements with index in [start, end).
func (ad *ArrDeque[T]) TraverseRange(start, end int, f func(i int, item *T)) {
	if start < 0 || end > ad.size || start > end {
		panic("index out of length")
	}
	l1 := ad.container.len()
	k := start
	for ; k < end && k < l1; k++ {
		f(k, &ad.container.arr[ad.container.start+k])
	}
	for ; k < end; k++ {
		f(k, &ad.container1.arr[ad.container1.start+k-l1])
	}
}

func (ad *ArrDeque[T]) AddFirst(v T) {
	if ad.IsFull() {
		panic("deque is full")
	}
	if ad.container.start == 0 {
		ad.compact(false)
	}
	ad.container.start--
	ad.container.arr[ad.container.start] = v
	ad.size++
	ad.refresh()
}

func (ad *ArrDeque[T]) AddLast(v T) {
	if ad.IsFull() {
		panic("deque is full")
	}
	if ad.container1.end == ad.capacity {
		ad.compact(true)
	}
	ad.container1.arr[ad.container1.end] = v
	ad.container1.end++
	ad.size++
	ad.refresh()
}

func (ad *ArrDeque[T]) RemoveFirst() T {
	if ad.IsEmpty() {
		panic("deque is empty")
	}
	var zero T
	var v T
	if ad.container.len() > 0 {
		v = ad.container.arr[ad.container.start]
		ad.container.arr[ad.container.start] = zero
		ad.container.start++
	} else {
		v = ad.container1.arr[ad.container1.start]
		ad.container1.arr[ad.container1.start] = zero
		ad.container1.start++
	}
	ad.size--
	ad.refresh()
	return v
}

func (ad *ArrDeque[T]) RemoveLast() T {
	if ad.IsEmpty() {
		panic("deque is empty")
	}
	var zero T
	var v T
	if ad.container1.len() > 0 {
		ad.container1.end--
		v = ad.container1.arr[ad.container1.end]
		ad.container1.arr[ad.container1.end] = zero
	} else {
		ad.container.end--
		v = ad.container.arr[ad.container.end]
		ad.container.arr[ad.container.end] = zero
	}
	ad.size--
	ad.refresh()
	return v
}

// Clear removes every element and keeps the backing arrays.
func (ad *ArrDeque[T]) Clear() {
	clear(ad.container.arr)
	clear(ad.container1.arr)
	ad.reset()
}

func (ad *ArrDeque[T]) reset() {
	ad.container.start, ad.container.end = ad.capacity, ad.capacity
	ad.container1.start, ad.container1.end = 0, 0
	ad.size = 0
	ad.state = state0
}

// compact moves every element into one array. toFront packs them against the end of
// container, leaving container1 empty for AddLast; otherwise they go to the start of
// container1, leaving container empty for AddFirst.
func (ad *ArrDeque[T]) compact(toFront bool) {
	items := make([]T, 0, ad.size)
	ad.Traverse(func(_ int, item *T) { items = append(items, *item) })
	clear(ad.container.arr)
	clear(ad.container1.arr)
	ad.reset()
	if toFront {
		ad.container.start = ad.capacity - len(items)
		copy(ad.container.arr[ad.container.start:], items)
	} else {
		ad.container1.end = len(items)
		copy(ad.container1.arr, items)
	}
	ad.size = len(items)
	ad.refresh()
}

func (ad *ArrDeque[T]) refresh() {
	if ad.size == 0 {
		ad.reset()
		return
	}
	l1, l2 := ad.container.len(), ad.container1.len()
	switch {
	case l2 == 0:
		ad.state = state0
	case l1 == 0:
		ad.state = state1
	default:
		ad.state = state01
	}
}
