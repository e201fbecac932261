package rebalance

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrRejected marks a proposal that must not be applied. The partition stays as it is.
	ErrRejected = errors.New("rebalance: proposal rejected")
	// ErrUnchanged marks a proposal identical to the current partition.
	ErrUnchanged = errors.New("rebalance: partition unchanged")
)

// Proposal is a new split of the rebalance axis.
type Proposal struct {
	Sizes []int32
	// Imbalance is the largest relative deviation of a slab's time from the mean.
	Imbalance float64
}

// Imbalance returns max |t - mean| / mean.
func Imbalance(times []float64) float64 {
	mean := floats.Sum(times) / float64(len(times))
	if mean <= 0 {
		return 0
	}
	d := append([]float64(nil), times...)
	floats.AddConst(-mean, d)
	return math.Max(floats.Max(d), -floats.Min(d)) / mean
}

// Propose splits the cells of sizes anew in proportion to each slab's speed, its size
// over the time it took. Rounding hands the leftover cells to the largest fractional
// parts. Slabs are lifted to minSize by taking cells from the largest slab, and every
// boundary stays strictly between its two old neighbouring boundaries, so that cells
// only move between adjacent slabs and every slab keeps some of its cells.
// threshold skips proposals when the imbalance is below it.
func Propose(times []float64, sizes []int32, minSize int32, threshold float64) (Proposal, error) {
	n := len(sizes)
	if n == 0 || len(times) != n {
		return Proposal{}, fmt.Errorf("%w: %d times for %d slabs", ErrRejected, len(times), n)
	}
	for i, t := range times {
		if !(t > 0) || math.IsInf(t, 0) {
			return Proposal{}, fmt.Errorf("%w: slab %d has no usable load sample (%v)", ErrRejected, i, t)
		}
	}
	p := Proposal{Imbalance: Imbalance(times)}
	if p.Imbalance < threshold {
		return p, fmt.Errorf("%w: imbalance %.3f below %.3f", ErrRejected, p.Imbalance, threshold)
	}

	var total int32
	speed := make([]float64, n)
	for i, s := range sizes {
		total += s
		speed[i] = float64(s)
	}
	floats.Div(speed, times)
	floats.Scale(float64(total)/floats.Sum(speed), speed)

	next := largestRemainder(speed, total)
	for i, s := range next {
		if s <= 0 {
			return p, fmt.Errorf("%w: slab %d would own %d cells", ErrRejected, i, s)
		}
	}
	if err := lift(next, minSize); err != nil {
		return p, err
	}
	clampAdjacent(next, sizes)
	for i, s := range next {
		if s < minSize {
			return p, fmt.Errorf("%w: slab %d would own %d cells, below %d", ErrRejected, i, s, minSize)
		}
	}

	p.Sizes = next
	same := true
	for i := range sizes {
		same = same && sizes[i] == next[i]
	}
	if same {
		return p, ErrUnchanged
	}
	return p, nil
}

func largestRemainder(raw []float64, total int32) []int32 {
	out := make([]int32, len(raw))
	order := make([]int, len(raw))
	var sum int32
	for i, r := range raw {
		out[i] = int32(math.Floor(r))
		sum += out[i]
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		fa := raw[order[a]] - math.Floor(raw[order[a]])
		fb := raw[order[b]] - math.Floor(raw[order[b]])
		return fa > fb
	})
	for k := 0; sum < total; k = (k + 1) % len(order) {
		out[order[k]]++
		sum++
	}
	return out
}

// lift raises every slab to minSize, one cell at a time from the largest slab.
func lift(sizes []int32, minSize int32) error {
	for i := range sizes {
		for sizes[i] < minSize {
			j := 0
			for k := range sizes {
				if sizes[k] > sizes[j] {
					j = k
				}
			}
			if sizes[j] <= minSize {
				return fmt.Errorf("%w: %d slabs cannot all hold %d cells", ErrRejected, len(sizes), minSize)
			}
			sizes[j]--
			sizes[i]++
		}
	}
	return nil
}

// clampAdjacent keeps boundary k of next within (old k-1, old k+1).
func clampAdjacent(next, old []int32) {
	n := len(old)
	ob, nb := offsets(old), offsets(next)
	for k := 1; k < n; k++ {
		nb[k] = max(ob[k-1]+1, min(nb[k], ob[k+1]-1))
	}
	for i := range next {
		next[i] = nb[i+1] - nb[i]
	}
}

func offsets(sizes []int32) []int32 {
	out := make([]int32, len(sizes)+1)
	for i, s := range sizes {
		out[i+1] = out[i] + s
	}
	return out
}
